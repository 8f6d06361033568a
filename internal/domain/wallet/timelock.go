package wallet

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ProposeNewGuardian records a pending guardian transfer. Guardian-only.
// The candidate must be non-zero and different from the current guardian.
// A second proposal before acceptance silently replaces the first.
func (w *Wallet) ProposeNewGuardian(caller, candidate common.Address) error {
	if err := w.requireGuardian(caller); err != nil {
		return err
	}
	if candidate == (common.Address{}) {
		return ErrInvalidTarget
	}
	if candidate == w.guardian {
		return ErrInvalidTarget
	}
	w.proposedGuardian = candidate
	w.proposedAt = w.now()
	w.emit(GuardianshipProposed{Current: w.guardian, Proposed: candidate})
	return nil
}

// AcceptGuardianship finalizes a pending transfer. Callable by anyone, but
// it only takes effect when the caller is the pending candidate and the
// transfer delay has fully elapsed. On success the guardian identity is
// swapped and the pending proposal cleared atomically.
func (w *Wallet) AcceptGuardianship(caller common.Address) error {
	if w.proposedGuardian == (common.Address{}) {
		return ErrNoPendingProposal
	}
	if caller != w.proposedGuardian {
		return ErrNotProposedGuardian
	}
	if w.now().Before(w.proposedAt.Add(GuardianTransferDelay)) {
		return ErrTimelockActive
	}
	previous := w.guardian
	w.guardian = w.proposedGuardian
	w.proposedGuardian = common.Address{}
	w.proposedAt = time.Time{}
	w.emit(GuardianshipTransferred{Previous: previous, Current: w.guardian})
	return nil
}

// ProposedGuardian returns the pending candidate, zero when none.
func (w *Wallet) ProposedGuardian() common.Address {
	return w.proposedGuardian
}
