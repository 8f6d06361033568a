// Package factory constructs wallets and indexes them in the registry. It is
// the only construction path: every wallet gets a uuid, an address derived
// from it, and the shared dispatcher and registry collaborators wired in.
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appWallet "github.com/agent-wallet/agent-wallet/internal/application/wallet"
	"github.com/agent-wallet/agent-wallet/internal/domain/registry"
	domainWallet "github.com/agent-wallet/agent-wallet/internal/domain/wallet"
)

type Service struct {
	repo       registry.Repository
	wallets    *appWallet.Service
	dispatcher domainWallet.Dispatcher
	clock      domainWallet.Clock
	logger     zerolog.Logger
}

func NewService(repo registry.Repository, wallets *appWallet.Service, dispatcher domainWallet.Dispatcher, logger zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		wallets:    wallets,
		dispatcher: dispatcher,
		clock:      time.Now,
		logger:     logger.With().Str("service", "factory").Logger(),
	}
}

// WithClock overrides the time source handed to new wallets. Test hook.
func (s *Service) WithClock(clock domainWallet.Clock) *Service {
	s.clock = clock
	return s
}

type CreateWalletInput struct {
	Guardian     common.Address `json:"guardian"`
	Label        string         `json:"label"`
	PerTxCeiling uint64         `json:"perTxCeiling"`
	DailyCeiling uint64         `json:"dailyCeiling"`
}

// CreateWallet builds a wallet, indexes it, and registers it for operation.
// The domain factory performs the parameter validation; nothing is indexed
// when construction fails.
func (s *Service) CreateWallet(ctx context.Context, input CreateWalletInput) (*registry.WalletRecord, error) {
	id := uuid.New()
	addr := common.BytesToAddress(id[:])

	w, err := domainWallet.New(
		input.Guardian,
		input.Label,
		input.DailyCeiling,
		input.PerTxCeiling,
		s.dispatcher,
		domainWallet.WithAddress(addr),
		domainWallet.WithClock(s.clock),
		domainWallet.WithRegistry(&registryNotifier{repo: s.repo, walletID: id}),
	)
	if err != nil {
		return nil, err
	}

	record := &registry.WalletRecord{
		ID:           id,
		Guardian:     input.Guardian,
		Address:      addr,
		Label:        input.Label,
		PerTxCeiling: input.PerTxCeiling,
		DailyCeiling: input.DailyCeiling,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateWallet(ctx, record); err != nil {
		return nil, fmt.Errorf("index wallet: %w", err)
	}
	if err := s.wallets.Register(id, w); err != nil {
		return nil, fmt.Errorf("register wallet: %w", err)
	}

	s.logger.Info().
		Str("wallet_id", id.String()).
		Str("guardian", input.Guardian.Hex()).
		Str("label", input.Label).
		Msg("wallet created")
	return record, nil
}

func (s *Service) GetWallet(ctx context.Context, id uuid.UUID) (*registry.WalletRecord, error) {
	return s.repo.GetWallet(ctx, id)
}

func (s *Service) ListWallets(ctx context.Context, limit, offset int) ([]*registry.WalletRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListWallets(ctx, limit, offset)
}

func (s *Service) Stats(ctx context.Context) (*registry.Stats, error) {
	return s.repo.GetStats(ctx)
}

// registryNotifier adapts the repository to the wallet-side Registry
// collaborator. The wallet only ever reports attempted value.
type registryNotifier struct {
	repo     registry.Repository
	walletID uuid.UUID
}

func (n *registryNotifier) RecordAction(ctx context.Context, totalValue uint64) error {
	return n.repo.RecordAction(ctx, n.walletID, totalValue)
}
