package postgres

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agent-wallet/agent-wallet/internal/domain/wallet"
)

// LedgerRepository archives action log entries out-of-process. The in-memory
// ledger on the wallet stays authoritative; this copy survives restarts and
// serves offline audit queries.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) AppendAction(ctx context.Context, walletID uuid.UUID, entry wallet.ActionLogEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO wallet_actions (wallet_id, action_id, agent, target, value, selector, success, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (wallet_id, action_id) DO NOTHING
	`, walletID, int64(entry.ID), entry.Agent.Hex(), entry.Target.Hex(), int64(entry.Value), entry.Selector.String(), entry.Success, entry.Timestamp)
	return err
}

// ListActions pages the archived entries for a wallet in append order.
func (r *LedgerRepository) ListActions(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]wallet.ActionLogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT action_id, agent, target, value, selector, success, occurred_at
		FROM wallet_actions WHERE wallet_id=$1
		ORDER BY action_id ASC LIMIT $2 OFFSET $3
	`, walletID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []wallet.ActionLogEntry
	for rows.Next() {
		var entry wallet.ActionLogEntry
		var id, value int64
		var agent, target, selector string
		if err := rows.Scan(&id, &agent, &target, &value, &selector, &entry.Success, &entry.Timestamp); err != nil {
			return nil, err
		}
		entry.ID = uint64(id)
		entry.Value = uint64(value)
		entry.Agent = common.HexToAddress(agent)
		entry.Target = common.HexToAddress(target)
		copy(entry.Selector[:], common.FromHex(selector))
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
