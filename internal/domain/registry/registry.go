// Package registry holds the records of the discovery/reputation registry:
// an index of wallets and aggregated ecosystem statistics. It is bookkeeping
// for the wallet core, which only ever notifies it of attempted value.
package registry

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// WalletRecord indexes one wallet instance.
type WalletRecord struct {
	ID           uuid.UUID      `json:"id"`
	Guardian     common.Address `json:"guardian"`
	Address      common.Address `json:"address"`
	Label        string         `json:"label"`
	PerTxCeiling uint64         `json:"perTxCeiling"`
	DailyCeiling uint64         `json:"dailyCeiling"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// Stats aggregates activity across all indexed wallets.
type Stats struct {
	Wallets             int64  `json:"wallets"`
	Actions             int64  `json:"actions"`
	TotalValueAttempted uint64 `json:"totalValueAttempted"`
}
