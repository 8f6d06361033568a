package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	guardian = common.BytesToAddress([]byte{0xAA})
	agentA   = common.BytesToAddress([]byte{0x01})
	agentB   = common.BytesToAddress([]byte{0x02})
	targetX  = common.BytesToAddress([]byte{0x10})
	targetY  = common.BytesToAddress([]byte{0x11})
	targetZ  = common.BytesToAddress([]byte{0x12})
)

func zeroAddr() common.Address { return common.Address{} }

func ctxTODO() context.Context { return context.Background() }

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

type dispatchedCall struct {
	Target  common.Address
	Value   uint64
	Payload []byte
}

// scriptDispatcher records every call and fails the targets listed in fail.
type scriptDispatcher struct {
	fail  map[common.Address]bool
	calls []dispatchedCall
}

func (d *scriptDispatcher) Call(_ context.Context, target common.Address, value uint64, payload []byte) (bool, []byte) {
	d.calls = append(d.calls, dispatchedCall{Target: target, Value: value, Payload: payload})
	if d.fail[target] {
		return false, nil
	}
	return true, nil
}

func newTestWallet(t *testing.T) (*Wallet, *fakeClock, *scriptDispatcher) {
	t.Helper()
	clock := newFakeClock()
	disp := &scriptDispatcher{fail: map[common.Address]bool{}}
	w, err := New(guardian, "test-agent", 1000, 100, disp, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w, clock, disp
}

// newFundedWallet additionally opens a session for agentA and deposits funds.
func newFundedWallet(t *testing.T) (*Wallet, *fakeClock, *scriptDispatcher) {
	t.Helper()
	w, clock, disp := newTestWallet(t)
	if _, err := w.CreateSession(guardian, agentA, "bot", 7*24*time.Hour, 0, 0); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := w.Deposit(10_000); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	w.DrainEvents()
	return w, clock, disp
}

func TestNewValidation(t *testing.T) {
	disp := &scriptDispatcher{}
	cases := []struct {
		name     string
		guardian common.Address
		label    string
		daily    uint64
		perTx    uint64
		want     error
	}{
		{"zero guardian", common.Address{}, "a", 10, 5, ErrInvalidGuardian},
		{"empty label", guardian, "", 10, 5, ErrInvalidLabel},
		{"zero daily", guardian, "a", 0, 5, ErrInvalidCeiling},
		{"zero per-tx", guardian, "a", 10, 0, ErrInvalidCeiling},
		{"per-tx above daily", guardian, "a", 10, 11, ErrInvalidLimits},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.guardian, tc.label, tc.daily, tc.perTx, disp); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
	if _, err := New(guardian, "a", 10, 10, disp); err != nil {
		t.Fatalf("valid construction failed: %v", err)
	}
}

func TestFreezeUnfreeze(t *testing.T) {
	w, _, _ := newFundedWallet(t)

	if err := w.Freeze(agentA); !errors.Is(err, ErrNotGuardian) {
		t.Fatalf("expected ErrNotGuardian, got %v", err)
	}
	if err := w.Freeze(guardian); err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if !w.Frozen() {
		t.Fatal("expected frozen wallet")
	}

	_, _, err := w.Execute(context.Background(), agentA, targetX, 1, nil, 0)
	if !errors.Is(err, ErrWalletFrozen) {
		t.Fatalf("expected ErrWalletFrozen, got %v", err)
	}

	if err := w.Unfreeze(guardian); err != nil {
		t.Fatalf("Unfreeze: %v", err)
	}
	if ok, _, err := w.Execute(context.Background(), agentA, targetX, 1, nil, 0); err != nil || !ok {
		t.Fatalf("execute after unfreeze: ok=%v err=%v", ok, err)
	}

	evs := w.DrainEvents()
	var frozen, unfrozen bool
	for _, ev := range evs {
		switch ev.(type) {
		case WalletFrozen:
			frozen = true
		case WalletUnfrozen:
			unfrozen = true
		}
	}
	if !frozen || !unfrozen {
		t.Fatalf("expected WalletFrozen and WalletUnfrozen events, got %v", evs)
	}
}

func TestDepositAndRecover(t *testing.T) {
	w, _, _ := newTestWallet(t)

	if err := w.Deposit(500); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if _, err := w.RecoverFunds(agentA, 100); !errors.Is(err, ErrNotGuardian) {
		t.Fatalf("expected ErrNotGuardian, got %v", err)
	}
	got, err := w.RecoverFunds(guardian, 100)
	if err != nil || got != 100 {
		t.Fatalf("RecoverFunds(100): got %d err %v", got, err)
	}
	if w.Balance() != 400 {
		t.Fatalf("balance after partial recover = %d, want 400", w.Balance())
	}

	// amount 0 recovers everything
	got, err = w.RecoverFunds(guardian, 0)
	if err != nil || got != 400 {
		t.Fatalf("RecoverFunds(0): got %d err %v", got, err)
	}
	if w.Balance() != 0 {
		t.Fatalf("balance after full recover = %d, want 0", w.Balance())
	}

	if _, err := w.RecoverFunds(guardian, 1); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestDepositOverflow(t *testing.T) {
	w, _, _ := newTestWallet(t)
	if err := w.Deposit(^uint64(0)); err != nil {
		t.Fatalf("Deposit max: %v", err)
	}
	if err := w.Deposit(1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestStatusSnapshot(t *testing.T) {
	w, _, _ := newFundedWallet(t)
	st := w.Status()
	if st.Guardian != guardian || st.Label != "test-agent" {
		t.Fatalf("unexpected status identity: %+v", st)
	}
	if st.Balance != 10_000 || st.SessionCount != 1 || st.ActionCount != 0 {
		t.Fatalf("unexpected status counters: %+v", st)
	}
	if st.WhitelistEnabled || st.Frozen {
		t.Fatalf("fresh wallet should be unfrozen with whitelist disabled: %+v", st)
	}
	if st.Limits.PerTxCeiling != 100 || st.Limits.DailyCeiling != 1000 {
		t.Fatalf("unexpected limits: %+v", st.Limits)
	}
}
