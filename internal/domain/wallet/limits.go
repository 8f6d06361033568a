package wallet

import (
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// SpendingLimits holds the wallet-scoped ceilings and rolling counters.
// A ceiling of 0 means unlimited. Windows are rolling, not calendar-aligned:
// a reset advances the window end from "now" at the moment the expiry is
// observed, never from a fixed epoch.
type SpendingLimits struct {
	PerTxCeiling   uint64 `json:"perTxCeiling"`
	DailyCeiling   uint64 `json:"dailyCeiling"`
	MonthlyCeiling uint64 `json:"monthlyCeiling"`

	DailySpent       uint64    `json:"dailySpent"`
	MonthlySpent     uint64    `json:"monthlySpent"`
	DailyWindowEnd   time.Time `json:"dailyWindowEnd"`
	MonthlyWindowEnd time.Time `json:"monthlyWindowEnd"`
}

func addChecked(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// checkAndConsume applies the rolling-window accounting for one authorized
// value. On any rejection no counter is touched. On success the session
// daily, wallet daily, and wallet monthly counters are all advanced. This
// happens before the external call is dispatched and is never rolled back
// if that call fails: attempts cost budget, not outcomes.
func (w *Wallet) checkAndConsume(s *Session, value uint64, now time.Time) error {
	// Lazy rollovers, each window independent. A call landing exactly on
	// the window end observes the reset before the new value applies.
	if !now.Before(w.limits.DailyWindowEnd) {
		w.limits.DailySpent = 0
		w.limits.DailyWindowEnd = now.Add(DailyWindow)
	}
	if !now.Before(w.limits.MonthlyWindowEnd) {
		w.limits.MonthlySpent = 0
		w.limits.MonthlyWindowEnd = now.Add(MonthlyWindow)
	}
	if !now.Before(s.DailyWindowEnd) {
		s.DailySpent = 0
		s.DailyWindowEnd = now.Add(DailyWindow)
	}

	perTx := w.limits.PerTxCeiling
	if s.PerTxOverride > 0 {
		perTx = s.PerTxOverride
	}
	sessionDaily := w.limits.DailyCeiling
	if s.DailyOverride > 0 {
		sessionDaily = s.DailyOverride
	}

	if perTx > 0 && value > perTx {
		return &LimitError{Kind: LimitPerTransaction, Value: value, Ceiling: perTx}
	}

	sessionTotal, err := addChecked(s.DailySpent, value)
	if err != nil {
		return err
	}
	if sessionDaily > 0 && sessionTotal > sessionDaily {
		return &LimitError{Kind: LimitSessionDaily, Value: value, Spent: s.DailySpent, Ceiling: sessionDaily}
	}

	dailyTotal, err := addChecked(w.limits.DailySpent, value)
	if err != nil {
		return err
	}
	if w.limits.DailyCeiling > 0 && dailyTotal > w.limits.DailyCeiling {
		return &LimitError{Kind: LimitWalletDaily, Value: value, Spent: w.limits.DailySpent, Ceiling: w.limits.DailyCeiling}
	}

	monthlyTotal, err := addChecked(w.limits.MonthlySpent, value)
	if err != nil {
		return err
	}
	if w.limits.MonthlyCeiling > 0 && monthlyTotal > w.limits.MonthlyCeiling {
		return &LimitError{Kind: LimitWalletMonthly, Value: value, Spent: w.limits.MonthlySpent, Ceiling: w.limits.MonthlyCeiling}
	}

	s.DailySpent = sessionTotal
	w.limits.DailySpent = dailyTotal
	w.limits.MonthlySpent = monthlyTotal
	return nil
}

// SetLimits replaces the wallet ceilings. Guardian-only. A ceiling of 0
// means unlimited; when both are set the per-transaction ceiling may not
// exceed the daily one.
func (w *Wallet) SetLimits(caller common.Address, perTx, daily, monthly uint64) error {
	if err := w.requireGuardian(caller); err != nil {
		return err
	}
	if perTx > 0 && daily > 0 && perTx > daily {
		return ErrInvalidLimits
	}
	w.limits.PerTxCeiling = perTx
	w.limits.DailyCeiling = daily
	w.limits.MonthlyCeiling = monthly
	w.emit(LimitsUpdated{PerTx: perTx, Daily: daily, Monthly: monthly})
	return nil
}

// Limits returns a copy of the current spending limits and counters.
func (w *Wallet) Limits() SpendingLimits {
	return w.limits
}
