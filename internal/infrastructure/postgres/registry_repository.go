package postgres

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agent-wallet/agent-wallet/internal/domain/registry"
)

// RegistryRepository implements registry.Repository.
type RegistryRepository struct {
	pool *pgxpool.Pool
}

func NewRegistryRepository(pool *pgxpool.Pool) *RegistryRepository {
	return &RegistryRepository{pool: pool}
}

func (r *RegistryRepository) CreateWallet(ctx context.Context, record *registry.WalletRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO wallets (id, guardian, address, label, per_tx_ceiling, daily_ceiling, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, record.ID, record.Guardian.Hex(), record.Address.Hex(), record.Label, int64(record.PerTxCeiling), int64(record.DailyCeiling), record.CreatedAt)
	return err
}

func (r *RegistryRepository) GetWallet(ctx context.Context, id uuid.UUID) (*registry.WalletRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, guardian, address, label, per_tx_ceiling, daily_ceiling, created_at
		FROM wallets WHERE id=$1
	`, id)
	return scanWalletRecord(row)
}

func (r *RegistryRepository) ListWallets(ctx context.Context, limit, offset int) ([]*registry.WalletRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, guardian, address, label, per_tx_ceiling, daily_ceiling, created_at
		FROM wallets ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []*registry.WalletRecord
	for rows.Next() {
		record, err := scanWalletRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *RegistryRepository) RecordAction(ctx context.Context, walletID uuid.UUID, totalValue uint64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO registry_actions (wallet_id, total_value, recorded_at)
		VALUES ($1,$2,$3)
	`, walletID, int64(totalValue), time.Now().UTC())
	return err
}

func (r *RegistryRepository) GetStats(ctx context.Context) (*registry.Stats, error) {
	var stats registry.Stats
	var totalValue int64
	row := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM wallets),
			(SELECT COUNT(*) FROM registry_actions),
			(SELECT COALESCE(SUM(total_value), 0) FROM registry_actions)
	`)
	if err := row.Scan(&stats.Wallets, &stats.Actions, &totalValue); err != nil {
		return nil, err
	}
	stats.TotalValueAttempted = uint64(totalValue)
	return &stats, nil
}

func scanWalletRecord(row pgx.Row) (*registry.WalletRecord, error) {
	var record registry.WalletRecord
	var guardian, address string
	var perTx, daily int64
	if err := row.Scan(&record.ID, &guardian, &address, &record.Label, &perTx, &daily, &record.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	record.Guardian = common.HexToAddress(guardian)
	record.Address = common.HexToAddress(address)
	record.PerTxCeiling = uint64(perTx)
	record.DailyCeiling = uint64(daily)
	return &record, nil
}
