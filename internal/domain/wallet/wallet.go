// Package wallet implements the authorization-and-limits engine for
// delegated agent spending: session lifecycle, rolling spending-limit
// accounting, replay protection, target whitelisting, batch execution,
// and guardian-transfer timelocking.
//
// A Wallet is not safe for concurrent use. The execution environment must
// serialize all state-mutating operations; each operation completes fully
// (including its ledger write) before the next begins observing state.
package wallet

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Fixed protocol constants.
const (
	GuardianTransferDelay = 48 * time.Hour
	MaxSessionDuration    = 30 * 24 * time.Hour
	MaxSessionsPerDay     = 5
	MaxBatchSize          = 10
	DailyWindow           = 24 * time.Hour
	MonthlyWindow         = 30 * 24 * time.Hour
)

// Wallet holds the entire mutable state of one delegated-spending wallet.
// All mutation happens through guardian- or session-authorized operations;
// there are no ambient globals.
type Wallet struct {
	address  common.Address
	guardian common.Address
	label    string

	proposedGuardian common.Address
	proposedAt       time.Time

	frozen  bool
	balance uint64

	limits       SpendingLimits
	sessions     []*Session
	agentSession map[common.Address]uint64
	nonces       map[common.Address]uint64
	allow        whitelist
	ledger       []ActionLogEntry
	rate         sessionRateState

	executing bool
	events    []Event

	now        Clock
	dispatcher Dispatcher
	registry   Registry
}

// Option configures optional collaborators at construction.
type Option func(*Wallet)

// WithClock replaces the time source.
func WithClock(clock Clock) Option {
	return func(w *Wallet) { w.now = clock }
}

// WithRegistry attaches the registry collaborator notified after each
// successful authorization.
func WithRegistry(registry Registry) Option {
	return func(w *Wallet) { w.registry = registry }
}

// WithAddress sets the wallet's own identity, used to reject self-calls.
func WithAddress(addr common.Address) Option {
	return func(w *Wallet) { w.address = addr }
}

// New constructs a wallet. The guardian must be non-zero, the label
// non-empty, both ceilings non-zero, and the per-transaction ceiling must
// not exceed the daily one. Whitelisting starts disabled.
func New(guardian common.Address, label string, dailyCeiling, perTxCeiling uint64, dispatcher Dispatcher, opts ...Option) (*Wallet, error) {
	if guardian == (common.Address{}) {
		return nil, ErrInvalidGuardian
	}
	if label == "" {
		return nil, ErrInvalidLabel
	}
	if dailyCeiling == 0 || perTxCeiling == 0 {
		return nil, ErrInvalidCeiling
	}
	if perTxCeiling > dailyCeiling {
		return nil, ErrInvalidLimits
	}
	if dispatcher == nil {
		dispatcher = DryRunDispatcher{}
	}
	w := &Wallet{
		guardian: guardian,
		label:    label,
		limits: SpendingLimits{
			PerTxCeiling: perTxCeiling,
			DailyCeiling: dailyCeiling,
		},
		agentSession: make(map[common.Address]uint64),
		nonces:       make(map[common.Address]uint64),
		allow:        newWhitelist(),
		now:          time.Now,
		dispatcher:   dispatcher,
	}
	for _, opt := range opts {
		opt(w)
	}
	now := w.now()
	w.limits.DailyWindowEnd = now.Add(DailyWindow)
	w.limits.MonthlyWindowEnd = now.Add(MonthlyWindow)
	return w, nil
}

func (w *Wallet) requireGuardian(caller common.Address) error {
	if caller != w.guardian {
		return ErrNotGuardian
	}
	return nil
}

// Nonce returns the agent's current nonce: the value the next authorization
// must supply.
func (w *Wallet) Nonce(agent common.Address) uint64 {
	return w.nonces[agent]
}

// checkNonce accepts iff the supplied nonce equals the stored counter.
// Advancing is deferred until the whole authorization is committed so a
// rejected operation leaves no state change.
func (w *Wallet) checkNonce(agent common.Address, supplied uint64) error {
	if supplied != w.nonces[agent] {
		return ErrNonceMismatch
	}
	return nil
}

func (w *Wallet) advanceNonce(agent common.Address) {
	w.nonces[agent]++
}

// Freeze halts all execution until the guardian unfreezes. Guardian-only.
func (w *Wallet) Freeze(caller common.Address) error {
	if err := w.requireGuardian(caller); err != nil {
		return err
	}
	if !w.frozen {
		w.frozen = true
		w.emit(WalletFrozen{Guardian: w.guardian})
	}
	return nil
}

// Unfreeze resumes execution. Guardian-only.
func (w *Wallet) Unfreeze(caller common.Address) error {
	if err := w.requireGuardian(caller); err != nil {
		return err
	}
	if w.frozen {
		w.frozen = false
		w.emit(WalletUnfrozen{Guardian: w.guardian})
	}
	return nil
}

// Deposit credits the wallet balance.
func (w *Wallet) Deposit(amount uint64) error {
	total, err := addChecked(w.balance, amount)
	if err != nil {
		return err
	}
	w.balance = total
	return nil
}

// RecoverFunds debits the balance back to the guardian. Guardian-only.
// amount 0 recovers the entire balance.
func (w *Wallet) RecoverFunds(caller common.Address, amount uint64) (uint64, error) {
	if err := w.requireGuardian(caller); err != nil {
		return 0, err
	}
	if amount == 0 {
		amount = w.balance
	}
	if amount > w.balance {
		return 0, ErrInsufficientBalance
	}
	w.balance -= amount
	w.emit(FundsRecovered{Guardian: w.guardian, Amount: amount})
	return amount, nil
}

// Address returns the wallet's own identity.
func (w *Wallet) Address() common.Address { return w.address }

// Guardian returns the current controlling identity.
func (w *Wallet) Guardian() common.Address { return w.guardian }

// Label returns the agent label supplied at construction.
func (w *Wallet) Label() string { return w.label }

// Frozen reports whether execution is halted.
func (w *Wallet) Frozen() bool { return w.frozen }

// Balance returns the spendable balance.
func (w *Wallet) Balance() uint64 { return w.balance }

// Status is a read-only snapshot of the wallet for reporting surfaces.
type Status struct {
	Address          common.Address `json:"address"`
	Guardian         common.Address `json:"guardian"`
	Label            string         `json:"label"`
	Frozen           bool           `json:"frozen"`
	Balance          uint64         `json:"balance"`
	Limits           SpendingLimits `json:"limits"`
	WhitelistEnabled bool           `json:"whitelistEnabled"`
	ProposedGuardian common.Address `json:"proposedGuardian"`
	ProposedAt       time.Time      `json:"proposedAt"`
	SessionCount     int            `json:"sessionCount"`
	ActionCount      int            `json:"actionCount"`
}

// Status returns a point-in-time snapshot.
func (w *Wallet) Status() Status {
	return Status{
		Address:          w.address,
		Guardian:         w.guardian,
		Label:            w.label,
		Frozen:           w.frozen,
		Balance:          w.balance,
		Limits:           w.limits,
		WhitelistEnabled: w.allow.enabled,
		ProposedGuardian: w.proposedGuardian,
		ProposedAt:       w.proposedAt,
		SessionCount:     len(w.sessions),
		ActionCount:      len(w.ledger),
	}
}
