package wallet

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Selector is the first 4 bytes of a call payload, or the zero selector when
// the payload is shorter than 4 bytes.
type Selector [4]byte

func SelectorOf(payload []byte) Selector {
	var sel Selector
	if len(payload) >= len(sel) {
		copy(sel[:], payload[:len(sel)])
	}
	return sel
}

func (s Selector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

func (s Selector) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Selector) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b, err := hex.DecodeString(trimHexPrefix(raw))
	if err != nil {
		return err
	}
	var sel Selector
	copy(sel[:], b)
	*s = sel
	return nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// ActionLogEntry is one dispatched call attempt. Entries are immutable once
// appended and globally ordered by insertion; ID equals the entry's index.
type ActionLogEntry struct {
	ID        uint64         `json:"id"`
	Agent     common.Address `json:"agent"`
	Target    common.Address `json:"target"`
	Value     uint64         `json:"value"`
	Selector  Selector       `json:"selector"`
	Timestamp time.Time      `json:"timestamp"`
	Success   bool           `json:"success"`
}

func (w *Wallet) appendAction(agent, target common.Address, value uint64, payload []byte, now time.Time, success bool) ActionLogEntry {
	entry := ActionLogEntry{
		ID:        uint64(len(w.ledger)),
		Agent:     agent,
		Target:    target,
		Value:     value,
		Selector:  SelectorOf(payload),
		Timestamp: now,
		Success:   success,
	}
	w.ledger = append(w.ledger, entry)
	return entry
}

// ActionCount returns the number of ledger entries.
func (w *Wallet) ActionCount() int {
	return len(w.ledger)
}

// Actions returns a contiguous window of ledger entries clamped to the
// available length. It is empty when start is at or past the end.
func (w *Wallet) Actions(start, count int) []ActionLogEntry {
	if start < 0 || count <= 0 || start >= len(w.ledger) {
		return nil
	}
	end := start + count
	if end > len(w.ledger) {
		end = len(w.ledger)
	}
	out := make([]ActionLogEntry, end-start)
	copy(out, w.ledger[start:end])
	return out
}
