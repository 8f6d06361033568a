package wallet

import (
	"errors"
	"fmt"
)

// Authorization errors: the caller lacks the authority for the operation.
var (
	ErrNotGuardian         = errors.New("caller is not the guardian")
	ErrNoActiveSession     = errors.New("caller has no active session")
	ErrSessionExpired      = errors.New("session has expired")
	ErrWalletFrozen        = errors.New("wallet is frozen")
	ErrNotProposedGuardian = errors.New("caller is not the proposed guardian")
	ErrReentrantCall       = errors.New("reentrant execution rejected")
)

// Validation errors: the request itself is malformed.
var (
	ErrInvalidTarget       = errors.New("invalid call target")
	ErrEmptyCall           = errors.New("empty call: no payload and no value")
	ErrLengthMismatch      = errors.New("batch arrays must have equal length")
	ErrBatchSize           = errors.New("batch size out of range")
	ErrInvalidAgent        = errors.New("agent identity is required")
	ErrInvalidGuardian     = errors.New("guardian identity is required")
	ErrInvalidLabel        = errors.New("agent label is required")
	ErrInvalidCeiling      = errors.New("spending ceilings must be non-zero")
	ErrInvalidDuration     = errors.New("session duration out of range")
	ErrInvalidLimits       = errors.New("per-transaction ceiling exceeds daily ceiling")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

var (
	ErrNotWhitelisted    = errors.New("target is not whitelisted")
	ErrOverflow          = errors.New("value accumulation overflows")
	ErrNonceMismatch     = errors.New("nonce mismatch")
	ErrRateLimited       = errors.New("session creation quota exhausted")
	ErrTimelockActive    = errors.New("guardian transfer delay has not elapsed")
	ErrNoPendingProposal = errors.New("no pending guardian proposal")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionInactive   = errors.New("session already inactive")
)

// LimitKind identifies which spending ceiling rejected a call.
type LimitKind string

const (
	LimitPerTransaction LimitKind = "PER_TRANSACTION"
	LimitSessionDaily   LimitKind = "SESSION_DAILY"
	LimitWalletDaily    LimitKind = "WALLET_DAILY"
	LimitWalletMonthly  LimitKind = "WALLET_MONTHLY"
)

// LimitError reports a spending-limit rejection. Spent is the amount already
// consumed in the relevant window before the rejected call.
type LimitError struct {
	Kind    LimitKind
	Value   uint64
	Spent   uint64
	Ceiling uint64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("spending limit exceeded (%s): value %d, spent %d, ceiling %d", e.Kind, e.Value, e.Spent, e.Ceiling)
}

// IsAuthorizationError reports whether err is an authority failure rather
// than a malformed or over-limit request.
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrNotGuardian) ||
		errors.Is(err, ErrNoActiveSession) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrWalletFrozen) ||
		errors.Is(err, ErrNotProposedGuardian) ||
		errors.Is(err, ErrReentrantCall)
}

// IsLimitError reports whether err carries a LimitError and returns it.
func IsLimitError(err error) (*LimitError, bool) {
	var le *LimitError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
