package wallet

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestExecuteHappyPath(t *testing.T) {
	w, _, disp := newFundedWallet(t)
	payload := []byte{0xa9, 0x05, 0x9c, 0xbb, 0x01, 0x02}

	ok, _, err := w.Execute(ctxTODO(), agentA, targetX, 42, payload, 0)
	if err != nil || !ok {
		t.Fatalf("Execute: ok=%v err=%v", ok, err)
	}
	if len(disp.calls) != 1 || disp.calls[0].Target != targetX || disp.calls[0].Value != 42 {
		t.Fatalf("unexpected dispatch: %+v", disp.calls)
	}
	if w.Balance() != 10_000-42 {
		t.Fatalf("balance = %d", w.Balance())
	}
	if w.Nonce(agentA) != 1 {
		t.Fatalf("nonce = %d, want 1", w.Nonce(agentA))
	}

	if w.ActionCount() != 1 {
		t.Fatalf("ledger length = %d, want 1", w.ActionCount())
	}
	entry := w.Actions(0, 1)[0]
	if entry.ID != 0 || entry.Agent != agentA || !entry.Success {
		t.Fatalf("unexpected ledger entry: %+v", entry)
	}
	if want := (Selector{0xa9, 0x05, 0x9c, 0xbb}); entry.Selector != want {
		t.Fatalf("selector = %v, want %v", entry.Selector, want)
	}

	evs := w.DrainEvents()
	if len(evs) != 1 {
		t.Fatalf("expected one ActionExecuted, got %v", evs)
	}
	ev := evs[0].(ActionExecuted)
	if ev.ActionID != 0 || !ev.Success || ev.Value != 42 {
		t.Fatalf("unexpected ActionExecuted: %+v", ev)
	}
}

func TestReplayProtection(t *testing.T) {
	w, _, _ := newFundedWallet(t)

	if _, _, err := w.Execute(ctxTODO(), agentA, targetX, 1, nil, 5); !errors.Is(err, ErrNonceMismatch) {
		t.Fatalf("expected ErrNonceMismatch for future nonce, got %v", err)
	}
	if ok, _, err := w.Execute(ctxTODO(), agentA, targetX, 1, nil, 0); err != nil || !ok {
		t.Fatalf("Execute: ok=%v err=%v", ok, err)
	}
	// replaying the consumed nonce is rejected
	if _, _, err := w.Execute(ctxTODO(), agentA, targetX, 1, nil, 0); !errors.Is(err, ErrNonceMismatch) {
		t.Fatalf("expected ErrNonceMismatch on replay, got %v", err)
	}
	// a rejected attempt does not advance the counter
	if w.Nonce(agentA) != 1 {
		t.Fatalf("nonce = %d, want 1", w.Nonce(agentA))
	}
}

func TestExecuteValidation(t *testing.T) {
	w, _, _ := newFundedWallet(t)
	walletAddr := common.BytesToAddress([]byte{0xEE})
	w2, err := New(guardian, "self", 1000, 100, &scriptDispatcher{}, WithAddress(walletAddr))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := w2.CreateSession(guardian, agentA, "x", MaxSessionDuration, 0, 0); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	_ = w2.Deposit(1000)

	if _, _, err := w.Execute(ctxTODO(), agentB, targetX, 1, nil, 0); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	if _, _, err := w.Execute(ctxTODO(), agentA, zeroAddr(), 1, nil, 0); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("zero target: got %v", err)
	}
	if _, _, err := w2.Execute(ctxTODO(), agentA, walletAddr, 1, nil, 0); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("self target: got %v", err)
	}
	if _, _, err := w.Execute(ctxTODO(), agentA, guardian, 1, nil, 0); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("guardian target: got %v", err)
	}
	if _, _, err := w.Execute(ctxTODO(), agentA, targetX, 0, nil, 0); !errors.Is(err, ErrEmptyCall) {
		t.Fatalf("empty call: got %v", err)
	}
	// zero value with a payload is a real call
	if ok, _, err := w.Execute(ctxTODO(), agentA, targetX, 0, []byte{0x01}, 0); err != nil || !ok {
		t.Fatalf("payload-only call: ok=%v err=%v", ok, err)
	}
}

func TestExecuteWhitelist(t *testing.T) {
	w, _, _ := newFundedWallet(t)

	// disabled whitelist allows any target, including one never added
	if ok, _, err := w.Execute(ctxTODO(), agentA, targetZ, 1, nil, 0); err != nil || !ok {
		t.Fatalf("whitelist disabled: ok=%v err=%v", ok, err)
	}

	if err := w.SetWhitelistEnabled(guardian, true); err != nil {
		t.Fatalf("SetWhitelistEnabled: %v", err)
	}
	if err := w.AddWhitelistTarget(guardian, targetX); err != nil {
		t.Fatalf("AddWhitelistTarget: %v", err)
	}

	if _, _, err := w.Execute(ctxTODO(), agentA, targetZ, 1, nil, 1); !errors.Is(err, ErrNotWhitelisted) {
		t.Fatalf("expected ErrNotWhitelisted, got %v", err)
	}
	if ok, _, err := w.Execute(ctxTODO(), agentA, targetX, 1, nil, 1); err != nil || !ok {
		t.Fatalf("whitelisted target: ok=%v err=%v", ok, err)
	}
}

func TestExecuteDispatchFailureIsLoggedNotRaised(t *testing.T) {
	w, _, disp := newFundedWallet(t)
	disp.fail[targetX] = true

	ok, _, err := w.Execute(ctxTODO(), agentA, targetX, 5, nil, 0)
	if err != nil {
		t.Fatalf("dispatch failure must not surface as a pipeline error: %v", err)
	}
	if ok {
		t.Fatal("expected failed dispatch")
	}
	if w.Nonce(agentA) != 1 {
		t.Fatal("nonce must advance for an authorized attempt")
	}
	entry := w.Actions(0, 1)[0]
	if entry.Success {
		t.Fatal("ledger entry must record the failure")
	}

	evs := w.DrainEvents()
	if len(evs) != 2 {
		t.Fatalf("expected ActionExecuted + ActionFailed, got %v", evs)
	}
	failed, ok2 := evs[1].(ActionFailed)
	if !ok2 || failed.Reason == "" {
		t.Fatalf("expected ActionFailed with reason, got %v", evs[1])
	}
}

func TestBatchValidationAbortsBeforeDispatch(t *testing.T) {
	w, _, disp := newFundedWallet(t)

	targets := []common.Address{targetX, guardian, targetY}
	values := []uint64{1, 1, 1}
	payloads := [][]byte{{0x01}, {0x01}, {0x01}}

	_, err := w.ExecuteBatch(ctxTODO(), agentA, targets, values, payloads, 0)
	if !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
	// atomic validation: zero dispatches, zero ledger entries, no budget
	if len(disp.calls) != 0 {
		t.Fatalf("dispatched %d calls from an invalid batch", len(disp.calls))
	}
	if w.ActionCount() != 0 {
		t.Fatalf("ledger length = %d, want 0", w.ActionCount())
	}
	if w.Limits().DailySpent != 0 {
		t.Fatalf("budget consumed by aborted batch: %d", w.Limits().DailySpent)
	}
	if w.Nonce(agentA) != 0 {
		t.Fatalf("nonce advanced by aborted batch: %d", w.Nonce(agentA))
	}
}

func TestBatchPartialDispatchFailure(t *testing.T) {
	w, _, disp := newFundedWallet(t)
	targets := []common.Address{targetX, targetY, targetZ, targetX, targetY}
	n := len(targets)
	values := make([]uint64, n)
	payloads := make([][]byte, n)
	for i := range values {
		values[i] = 10
		payloads[i] = []byte{byte(i)}
	}
	disp.fail[targetZ] = true // item 3 of 5 reverts

	successes, err := w.ExecuteBatch(ctxTODO(), agentA, targets, values, payloads, 0)
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	want := []bool{true, true, false, true, true}
	for i, ok := range successes {
		if ok != want[i] {
			t.Fatalf("successes = %v, want %v", successes, want)
		}
	}
	// all N items dispatched and logged, sibling items unaffected
	if len(disp.calls) != n || w.ActionCount() != n {
		t.Fatalf("dispatched %d, logged %d, want %d each", len(disp.calls), w.ActionCount(), n)
	}
	for i, entry := range w.Actions(0, n) {
		if entry.Success != want[i] {
			t.Fatalf("ledger entry %d success = %v, want %v", i, entry.Success, want[i])
		}
	}
	// one nonce for the whole batch
	if w.Nonce(agentA) != 1 {
		t.Fatalf("nonce = %d, want 1", w.Nonce(agentA))
	}
	// budget consumed for the full total, failed item included
	if w.Limits().DailySpent != 50 {
		t.Fatalf("dailySpent = %d, want 50", w.Limits().DailySpent)
	}
	// the reverted item's funds do not move
	if w.Balance() != 10_000-40 {
		t.Fatalf("balance = %d, want %d", w.Balance(), 10_000-40)
	}
}

func TestBatchShapeValidation(t *testing.T) {
	w, _, _ := newFundedWallet(t)
	one := [][]byte{{0x01}}

	if _, err := w.ExecuteBatch(ctxTODO(), agentA, []common.Address{targetX}, []uint64{1, 2}, one, 0); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("length mismatch: got %v", err)
	}
	if _, err := w.ExecuteBatch(ctxTODO(), agentA, nil, nil, nil, 0); !errors.Is(err, ErrBatchSize) {
		t.Fatalf("empty batch: got %v", err)
	}

	big := MaxBatchSize + 1
	targets := make([]common.Address, big)
	values := make([]uint64, big)
	payloads := make([][]byte, big)
	for i := range targets {
		targets[i] = targetX
		values[i] = 1
		payloads[i] = []byte{0x01}
	}
	if _, err := w.ExecuteBatch(ctxTODO(), agentA, targets, values, payloads, 0); !errors.Is(err, ErrBatchSize) {
		t.Fatalf("oversized batch: got %v", err)
	}
	if _, err := w.ExecuteBatch(ctxTODO(), agentA, targets[:MaxBatchSize], values[:MaxBatchSize], payloads[:MaxBatchSize], 0); err != nil {
		t.Fatalf("batch at max size: %v", err)
	}
}

func TestBatchTotalOverflow(t *testing.T) {
	w, _, _ := newFundedWallet(t)
	if err := w.SetLimits(guardian, 0, 0, 0); err != nil {
		t.Fatalf("SetLimits: %v", err)
	}

	targets := []common.Address{targetX, targetY}
	values := []uint64{^uint64(0), 1}
	payloads := [][]byte{{0x01}, {0x01}}
	if _, err := w.ExecuteBatch(ctxTODO(), agentA, targets, values, payloads, 0); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

type reentrantDispatcher struct {
	w   *Wallet
	err error
}

func (d *reentrantDispatcher) Call(ctx context.Context, target common.Address, value uint64, payload []byte) (bool, []byte) {
	_, _, d.err = d.w.Execute(ctx, agentA, targetY, 1, nil, d.w.Nonce(agentA))
	return true, nil
}

func TestReentrantDispatchRejected(t *testing.T) {
	disp := &reentrantDispatcher{}
	clock := newFakeClock()
	w, err := New(guardian, "x", 1000, 100, disp, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	disp.w = w
	if _, err := w.CreateSession(guardian, agentA, "x", MaxSessionDuration, 0, 0); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	_ = w.Deposit(1000)

	ok, _, err := w.Execute(ctxTODO(), agentA, targetX, 1, nil, 0)
	if err != nil || !ok {
		t.Fatalf("outer execute: ok=%v err=%v", ok, err)
	}
	if !errors.Is(disp.err, ErrReentrantCall) {
		t.Fatalf("inner execute: got %v, want ErrReentrantCall", disp.err)
	}
	// the inner attempt left no trace
	if w.ActionCount() != 1 || w.Nonce(agentA) != 1 {
		t.Fatalf("reentrant attempt mutated state: actions=%d nonce=%d", w.ActionCount(), w.Nonce(agentA))
	}
}

type fakeRegistry struct {
	err    error
	totals []uint64
}

func (r *fakeRegistry) RecordAction(_ context.Context, totalValue uint64) error {
	r.totals = append(r.totals, totalValue)
	return r.err
}

func TestRegistryNotifiedBestEffort(t *testing.T) {
	reg := &fakeRegistry{err: errors.New("registry down")}
	clock := newFakeClock()
	disp := &scriptDispatcher{fail: map[common.Address]bool{targetY: true}}
	w, err := New(guardian, "x", 1000, 100, disp, WithClock(clock.Now), WithRegistry(reg))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := w.CreateSession(guardian, agentA, "x", MaxSessionDuration, 0, 0); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	_ = w.Deposit(1000)

	// a failing registry never affects the wallet's own outcome
	if ok, _, err := w.Execute(ctxTODO(), agentA, targetX, 7, nil, 0); err != nil || !ok {
		t.Fatalf("Execute with failing registry: ok=%v err=%v", ok, err)
	}
	// notified with the attempted value even when dispatch fails
	if ok, _, err := w.Execute(ctxTODO(), agentA, targetY, 3, nil, 1); err != nil || ok {
		t.Fatalf("Execute: ok=%v err=%v", ok, err)
	}
	// batch notifies once with the total
	targets := []common.Address{targetX, targetX}
	if _, err := w.ExecuteBatch(ctxTODO(), agentA, targets, []uint64{2, 4}, [][]byte{{1}, {1}}, 2); err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}

	want := []uint64{7, 3, 6}
	if len(reg.totals) != len(want) {
		t.Fatalf("registry totals = %v, want %v", reg.totals, want)
	}
	for i := range want {
		if reg.totals[i] != want[i] {
			t.Fatalf("registry totals = %v, want %v", reg.totals, want)
		}
	}
}

func TestSelectorOf(t *testing.T) {
	if got := SelectorOf([]byte{1, 2, 3}); got != (Selector{}) {
		t.Fatalf("short payload selector = %v, want zero", got)
	}
	got := SelectorOf([]byte{0xde, 0xad, 0xbe, 0xef, 0x99})
	if !bytes.Equal(got[:], []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Fatalf("selector = %v", got)
	}
	if got.String() != "0xdeadbeef" {
		t.Fatalf("selector string = %s", got.String())
	}
}
