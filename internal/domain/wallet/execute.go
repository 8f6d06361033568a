package wallet

import (
	"context"
	"encoding/hex"

	"github.com/ethereum/go-ethereum/common"
)

// Execute authorizes and dispatches a single external call on behalf of the
// calling agent. Validation runs in a fixed order: nonce, target, non-empty
// call, whitelist, spending limits. A validation failure aborts with no
// state change. Once every check passes the nonce is advanced and the
// budget consumed; neither is rolled back if the dispatched call then
// fails. That failure is recorded in the ledger and returned as the
// success flag, never as an error.
func (w *Wallet) Execute(ctx context.Context, caller, target common.Address, value uint64, payload []byte, nonce uint64) (bool, []byte, error) {
	if w.executing {
		return false, nil, ErrReentrantCall
	}
	w.executing = true
	defer func() { w.executing = false }()

	now := w.now()
	if w.frozen {
		return false, nil, ErrWalletFrozen
	}
	sess, err := w.validSession(caller, now)
	if err != nil {
		return false, nil, err
	}
	if err := w.checkNonce(caller, nonce); err != nil {
		return false, nil, err
	}
	if err := w.validateTarget(target); err != nil {
		return false, nil, err
	}
	if len(payload) == 0 && value == 0 {
		return false, nil, ErrEmptyCall
	}
	if !w.IsAllowed(target) {
		return false, nil, ErrNotWhitelisted
	}
	if value > w.balance {
		return false, nil, ErrInsufficientBalance
	}
	if err := w.checkAndConsume(sess, value, now); err != nil {
		return false, nil, err
	}
	w.advanceNonce(caller)

	ok, ret := w.dispatcher.Call(ctx, target, value, payload)
	if ok {
		w.balance -= value
	}
	entry := w.appendAction(caller, target, value, payload, now, ok)
	w.emit(ActionExecuted{
		ActionID: entry.ID,
		Agent:    caller,
		Target:   target,
		Value:    value,
		Selector: entry.Selector,
		Success:  ok,
	})
	if !ok {
		w.emit(ActionFailed{
			Agent:    caller,
			Target:   target,
			Value:    value,
			Selector: entry.Selector,
			Reason:   failureReason(ret),
		})
	}
	w.notifyRegistry(ctx, value)
	return ok, ret, nil
}

// ExecuteBatch authorizes a batch atomically and dispatches each item in
// order. One nonce covers the whole batch. Pass one validates every target
// and accumulates the total value with overflow checks; any invalid item
// aborts the entire batch before anything is dispatched. Pass two consumes
// the budget once against the total, then dispatches item by item with an
// independent success flag and ledger entry each; one item failing never
// aborts its siblings.
func (w *Wallet) ExecuteBatch(ctx context.Context, caller common.Address, targets []common.Address, values []uint64, payloads [][]byte, nonce uint64) ([]bool, error) {
	if w.executing {
		return nil, ErrReentrantCall
	}
	w.executing = true
	defer func() { w.executing = false }()

	now := w.now()
	if w.frozen {
		return nil, ErrWalletFrozen
	}
	sess, err := w.validSession(caller, now)
	if err != nil {
		return nil, err
	}
	if err := w.checkNonce(caller, nonce); err != nil {
		return nil, err
	}
	if len(targets) != len(values) || len(targets) != len(payloads) {
		return nil, ErrLengthMismatch
	}
	if len(targets) == 0 || len(targets) > MaxBatchSize {
		return nil, ErrBatchSize
	}

	var total uint64
	for i, target := range targets {
		if err := w.validateTarget(target); err != nil {
			return nil, err
		}
		if !w.IsAllowed(target) {
			return nil, ErrNotWhitelisted
		}
		total, err = addChecked(total, values[i])
		if err != nil {
			return nil, err
		}
	}
	if total > w.balance {
		return nil, ErrInsufficientBalance
	}
	if err := w.checkAndConsume(sess, total, now); err != nil {
		return nil, err
	}
	w.advanceNonce(caller)

	successes := make([]bool, len(targets))
	for i, target := range targets {
		ok, ret := w.dispatcher.Call(ctx, target, values[i], payloads[i])
		if ok {
			w.balance -= values[i]
		}
		successes[i] = ok
		entry := w.appendAction(caller, target, values[i], payloads[i], now, ok)
		w.emit(ActionExecuted{
			ActionID: entry.ID,
			Agent:    caller,
			Target:   target,
			Value:    values[i],
			Selector: entry.Selector,
			Success:  ok,
		})
		if !ok {
			w.emit(ActionFailed{
				Agent:    caller,
				Target:   target,
				Value:    values[i],
				Selector: entry.Selector,
				Reason:   failureReason(ret),
			})
		}
	}
	w.notifyRegistry(ctx, total)
	return successes, nil
}

// validateTarget rejects the zero address, the wallet itself, and the
// current guardian identity.
func (w *Wallet) validateTarget(target common.Address) error {
	if target == (common.Address{}) {
		return ErrInvalidTarget
	}
	if target == w.address {
		return ErrInvalidTarget
	}
	if target == w.guardian {
		return ErrInvalidTarget
	}
	return nil
}

// notifyRegistry reports the attempted value best-effort; registry failure
// never affects the wallet's own outcome.
func (w *Wallet) notifyRegistry(ctx context.Context, totalValue uint64) {
	if w.registry == nil {
		return
	}
	_ = w.registry.RecordAction(ctx, totalValue)
}

func failureReason(ret []byte) string {
	if len(ret) == 0 {
		return "call reverted"
	}
	return "call reverted: 0x" + hex.EncodeToString(ret)
}
