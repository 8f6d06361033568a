package registry

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for the registry index.
type Repository interface {
	CreateWallet(ctx context.Context, record *WalletRecord) error
	GetWallet(ctx context.Context, id uuid.UUID) (*WalletRecord, error)
	ListWallets(ctx context.Context, limit, offset int) ([]*WalletRecord, error)
	RecordAction(ctx context.Context, walletID uuid.UUID, totalValue uint64) error
	GetStats(ctx context.Context) (*Stats, error)
}
