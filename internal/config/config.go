package config

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL   string
	ServerAddr    string
	MigrationsDir string

	// EthRPCURL enables the eth_call dispatcher. Empty means dry-run
	// dispatch: every authorized call reports success without touching a
	// node.
	EthRPCURL string
	// DispatchFrom is the originating account for simulated calls.
	DispatchFrom common.Address
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "agent_wallet")
		pass := getenv("POSTGRES_PASSWORD", "agent_wallet_pass")
		db := getenv("POSTGRES_DB", "agent_wallet")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}
	addr := getenv("SERVER_ADDR", "0.0.0.0:8080")
	migrationsDir := getenv("MIGRATIONS_DIR", "internal/migrations")

	var dispatchFrom common.Address
	if raw := os.Getenv("DISPATCH_FROM"); raw != "" {
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("invalid DISPATCH_FROM address: %s", raw)
		}
		dispatchFrom = common.HexToAddress(raw)
	}

	return &Config{
		DatabaseURL:   dsn,
		ServerAddr:    addr,
		MigrationsDir: migrationsDir,
		EthRPCURL:     os.Getenv("ETH_RPC_URL"),
		DispatchFrom:  dispatchFrom,
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}
