package wallet

import (
	"github.com/ethereum/go-ethereum/common"
)

type whitelist struct {
	enabled bool
	order   []common.Address
	members map[common.Address]bool
}

func newWhitelist() whitelist {
	return whitelist{members: make(map[common.Address]bool)}
}

// IsAllowed returns true unconditionally while whitelisting is disabled
// (the default), otherwise membership in the allow-set.
func (w *Wallet) IsAllowed(target common.Address) bool {
	if !w.allow.enabled {
		return true
	}
	return w.allow.members[target]
}

// WhitelistEnabled reports whether target whitelisting is enforced.
func (w *Wallet) WhitelistEnabled() bool {
	return w.allow.enabled
}

// WhitelistTargets returns the allow-set in insertion order.
func (w *Wallet) WhitelistTargets() []common.Address {
	out := make([]common.Address, len(w.allow.order))
	copy(out, w.allow.order)
	return out
}

// SetWhitelistEnabled toggles whitelist enforcement. Guardian-only.
func (w *Wallet) SetWhitelistEnabled(caller common.Address, enabled bool) error {
	if err := w.requireGuardian(caller); err != nil {
		return err
	}
	if w.allow.enabled != enabled {
		w.allow.enabled = enabled
		w.emit(WhitelistEnabledChanged{Enabled: enabled})
	}
	return nil
}

// AddWhitelistTarget adds one target to the allow-set. Guardian-only.
// The zero address is rejected; a target already present is a no-op.
func (w *Wallet) AddWhitelistTarget(caller, target common.Address) error {
	if err := w.requireGuardian(caller); err != nil {
		return err
	}
	if target == (common.Address{}) {
		return ErrInvalidTarget
	}
	w.addTarget(target)
	return nil
}

// AddWhitelistTargets adds many targets in one call, silently skipping the
// zero address and targets already present. Guardian-only.
func (w *Wallet) AddWhitelistTargets(caller common.Address, targets []common.Address) error {
	if err := w.requireGuardian(caller); err != nil {
		return err
	}
	for _, target := range targets {
		if target == (common.Address{}) {
			continue
		}
		w.addTarget(target)
	}
	return nil
}

// RemoveWhitelistTarget removes one target from the allow-set. Guardian-only.
// The relative order of remaining members is preserved. Removing a target
// that is not present is a no-op.
func (w *Wallet) RemoveWhitelistTarget(caller, target common.Address) error {
	if err := w.requireGuardian(caller); err != nil {
		return err
	}
	if !w.allow.members[target] {
		return nil
	}
	delete(w.allow.members, target)
	for i, t := range w.allow.order {
		if t == target {
			w.allow.order = append(w.allow.order[:i], w.allow.order[i+1:]...)
			break
		}
	}
	w.emit(WhitelistUpdated{Target: target, Allowed: false})
	return nil
}

func (w *Wallet) addTarget(target common.Address) {
	if w.allow.members[target] {
		return
	}
	w.allow.members[target] = true
	w.allow.order = append(w.allow.order, target)
	w.emit(WhitelistUpdated{Target: target, Allowed: true})
}
