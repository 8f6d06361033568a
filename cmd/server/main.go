package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/agent-wallet/agent-wallet/internal/api/http"
	"github.com/agent-wallet/agent-wallet/internal/application/factory"
	appWallet "github.com/agent-wallet/agent-wallet/internal/application/wallet"
	"github.com/agent-wallet/agent-wallet/internal/config"
	domainWallet "github.com/agent-wallet/agent-wallet/internal/domain/wallet"
	"github.com/agent-wallet/agent-wallet/internal/infrastructure/ethdispatch"
	"github.com/agent-wallet/agent-wallet/internal/infrastructure/keystore"
	"github.com/agent-wallet/agent-wallet/internal/infrastructure/postgres"
	"github.com/agent-wallet/agent-wallet/internal/infrastructure/sse"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	registryRepo := postgres.NewRegistryRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)

	// infrastructure
	sseHub := sse.NewHub()
	keyStore, err := keystore.NewFromEnv()
	if err != nil {
		log.Fatalf("keystore error: %v", err)
	}

	var dispatcher domainWallet.Dispatcher = domainWallet.DryRunDispatcher{}
	if cfg.EthRPCURL != "" {
		ethDispatcher, err := ethdispatch.New(ctx, ethdispatch.Config{
			RPCURL: cfg.EthRPCURL,
			From:   cfg.DispatchFrom,
		}, logger)
		if err != nil {
			log.Fatalf("dispatcher error: %v", err)
		}
		defer ethDispatcher.Close()
		dispatcher = ethDispatcher
	}

	// services
	walletSvc := appWallet.NewService(ledgerRepo, sseHub, logger)
	factorySvc := factory.NewService(registryRepo, walletSvc, dispatcher, logger)

	// API server
	apiServer := httpapi.NewServer(walletSvc, factorySvc, sseHub, keyStore)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
	sseHub.Stop()
}
