package wallet

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Event is a domain event recorded by a wallet operation. Operations buffer
// their events on the wallet; the caller drains them after each operation
// completes.
type Event interface {
	EventName() string
}

type SessionCreated struct {
	ID        uint64         `json:"id"`
	Agent     common.Address `json:"agent"`
	Label     string         `json:"label"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

func (SessionCreated) EventName() string { return "SessionCreated" }

type SessionRevoked struct {
	ID    uint64         `json:"id"`
	Agent common.Address `json:"agent"`
}

func (SessionRevoked) EventName() string { return "SessionRevoked" }

type AllSessionsRevoked struct {
	Count int `json:"count"`
}

func (AllSessionsRevoked) EventName() string { return "AllSessionsRevoked" }

type ActionExecuted struct {
	ActionID uint64         `json:"actionId"`
	Agent    common.Address `json:"agent"`
	Target   common.Address `json:"target"`
	Value    uint64         `json:"value"`
	Selector Selector       `json:"selector"`
	Success  bool           `json:"success"`
}

func (ActionExecuted) EventName() string { return "ActionExecuted" }

type ActionFailed struct {
	Agent    common.Address `json:"agent"`
	Target   common.Address `json:"target"`
	Value    uint64         `json:"value"`
	Selector Selector       `json:"selector"`
	Reason   string         `json:"reason"`
}

func (ActionFailed) EventName() string { return "ActionFailed" }

type WalletFrozen struct {
	Guardian common.Address `json:"guardian"`
}

func (WalletFrozen) EventName() string { return "WalletFrozen" }

type WalletUnfrozen struct {
	Guardian common.Address `json:"guardian"`
}

func (WalletUnfrozen) EventName() string { return "WalletUnfrozen" }

type FundsRecovered struct {
	Guardian common.Address `json:"guardian"`
	Amount   uint64         `json:"amount"`
}

func (FundsRecovered) EventName() string { return "FundsRecovered" }

type LimitsUpdated struct {
	PerTx   uint64 `json:"perTx"`
	Daily   uint64 `json:"daily"`
	Monthly uint64 `json:"monthly"`
}

func (LimitsUpdated) EventName() string { return "LimitsUpdated" }

type WhitelistUpdated struct {
	Target  common.Address `json:"target"`
	Allowed bool           `json:"allowed"`
}

func (WhitelistUpdated) EventName() string { return "WhitelistUpdated" }

type WhitelistEnabledChanged struct {
	Enabled bool `json:"enabled"`
}

func (WhitelistEnabledChanged) EventName() string { return "WhitelistEnabledChanged" }

type GuardianshipProposed struct {
	Current  common.Address `json:"current"`
	Proposed common.Address `json:"proposed"`
}

func (GuardianshipProposed) EventName() string { return "GuardianshipProposed" }

type GuardianshipTransferred struct {
	Previous common.Address `json:"previous"`
	Current  common.Address `json:"current"`
}

func (GuardianshipTransferred) EventName() string { return "GuardianshipTransferred" }

func (w *Wallet) emit(ev Event) {
	w.events = append(w.events, ev)
}

// DrainEvents returns the events recorded since the last drain and clears
// the buffer.
func (w *Wallet) DrainEvents() []Event {
	evs := w.events
	w.events = nil
	return evs
}
