package wallet

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Dispatcher performs the externally-dispatched call. The wallet decides
// whether a call may be attempted; the dispatcher only attempts it and
// reports whether it succeeded, with any return data. Dispatch failure is
// an outcome, never an error surfaced by the pipeline.
type Dispatcher interface {
	Call(ctx context.Context, target common.Address, value uint64, payload []byte) (bool, []byte)
}

// Registry is the discovery/reputation collaborator. It is notified of the
// total value attempted after each successful authorization, best-effort: a
// failure inside the notification never affects the wallet's own outcome.
type Registry interface {
	RecordAction(ctx context.Context, totalValue uint64) error
}

// Clock supplies the current time. The execution environment guarantees it
// is monotonically non-decreasing across operations.
type Clock func() time.Time

// DryRunDispatcher reports every call as successful without performing it.
// Used when no execution backend is configured.
type DryRunDispatcher struct{}

func (DryRunDispatcher) Call(ctx context.Context, target common.Address, value uint64, payload []byte) (bool, []byte) {
	return true, nil
}
