package wallet

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Session is a time-bounded, revocable delegation of execution rights to one
// agent identity. Session ids are monotonic and 1-based; 0 means "none". An
// inactive session is never reactivated; a fresh id is issued instead.
type Session struct {
	ID            uint64         `json:"id"`
	Agent         common.Address `json:"agent"`
	Label         string         `json:"label"`
	CreatedAt     time.Time      `json:"createdAt"`
	ExpiresAt     time.Time      `json:"expiresAt"`
	Active        bool           `json:"active"`
	PerTxOverride uint64         `json:"perTxOverride,omitempty"`
	DailyOverride uint64         `json:"dailyOverride,omitempty"`

	DailySpent     uint64    `json:"dailySpent"`
	DailyWindowEnd time.Time `json:"dailyWindowEnd"`
}

// IsValid reports whether the session currently authorizes its agent.
func (s *Session) IsValid(now time.Time) bool {
	return s.Active && now.Before(s.ExpiresAt)
}

type sessionRateState struct {
	created   int
	windowEnd time.Time
}

// CreateSession issues a new session for agent. If the agent already holds an
// active session it is superseded: deactivated with a SessionRevoked event
// before the new one is allocated. Guardian-only. Creation is capped at
// MaxSessionsPerDay per rolling 24h window, independent of spending windows.
func (w *Wallet) CreateSession(caller, agent common.Address, label string, duration time.Duration, perTxOverride, dailyOverride uint64) (uint64, error) {
	if err := w.requireGuardian(caller); err != nil {
		return 0, err
	}
	if agent == (common.Address{}) {
		return 0, ErrInvalidAgent
	}
	if duration <= 0 || duration > MaxSessionDuration {
		return 0, ErrInvalidDuration
	}

	now := w.now()
	if !now.Before(w.rate.windowEnd) {
		w.rate.created = 0
		w.rate.windowEnd = now.Add(DailyWindow)
	}
	if w.rate.created >= MaxSessionsPerDay {
		return 0, ErrRateLimited
	}
	w.rate.created++

	if prev := w.activeSessionOf(agent); prev != nil {
		prev.Active = false
		w.emit(SessionRevoked{ID: prev.ID, Agent: prev.Agent})
	}

	s := &Session{
		ID:             uint64(len(w.sessions) + 1),
		Agent:          agent,
		Label:          label,
		CreatedAt:      now,
		ExpiresAt:      now.Add(duration),
		Active:         true,
		PerTxOverride:  perTxOverride,
		DailyOverride:  dailyOverride,
		DailyWindowEnd: now.Add(DailyWindow),
	}
	w.sessions = append(w.sessions, s)
	w.agentSession[agent] = s.ID
	w.emit(SessionCreated{ID: s.ID, Agent: s.Agent, Label: s.Label, ExpiresAt: s.ExpiresAt})
	return s.ID, nil
}

// RevokeSession deactivates one session by id. Guardian-only. Fails when the
// id is unknown or the session is already inactive.
func (w *Wallet) RevokeSession(caller common.Address, id uint64) error {
	if err := w.requireGuardian(caller); err != nil {
		return err
	}
	s := w.sessionByID(id)
	if s == nil {
		return ErrSessionNotFound
	}
	if !s.Active {
		return ErrSessionInactive
	}
	s.Active = false
	if w.agentSession[s.Agent] == s.ID {
		delete(w.agentSession, s.Agent)
	}
	w.emit(SessionRevoked{ID: s.ID, Agent: s.Agent})
	return nil
}

// RevokeAllSessions deactivates every still-active session and reports how
// many were revoked. Scans every session ever issued.
func (w *Wallet) RevokeAllSessions(caller common.Address) (int, error) {
	if err := w.requireGuardian(caller); err != nil {
		return 0, err
	}
	count := 0
	for _, s := range w.sessions {
		if !s.Active {
			continue
		}
		s.Active = false
		if w.agentSession[s.Agent] == s.ID {
			delete(w.agentSession, s.Agent)
		}
		count++
	}
	w.emit(AllSessionsRevoked{Count: count})
	return count, nil
}

// SessionByID returns a copy of the session with the given id.
func (w *Wallet) SessionByID(id uint64) (Session, bool) {
	s := w.sessionByID(id)
	if s == nil {
		return Session{}, false
	}
	return *s, true
}

// ActiveSessionID returns the id of the agent's active session, 0 when none.
func (w *Wallet) ActiveSessionID(agent common.Address) uint64 {
	if s := w.activeSessionOf(agent); s != nil {
		return s.ID
	}
	return 0
}

// SessionCount returns the number of sessions ever issued.
func (w *Wallet) SessionCount() int {
	return len(w.sessions)
}

func (w *Wallet) sessionByID(id uint64) *Session {
	if id == 0 || id > uint64(len(w.sessions)) {
		return nil
	}
	return w.sessions[id-1]
}

func (w *Wallet) activeSessionOf(agent common.Address) *Session {
	id, ok := w.agentSession[agent]
	if !ok {
		return nil
	}
	s := w.sessionByID(id)
	if s == nil || !s.Active {
		return nil
	}
	return s
}

// validSession resolves the caller's session for execution: it must exist,
// be active, and not be past its expiry.
func (w *Wallet) validSession(caller common.Address, now time.Time) (*Session, error) {
	s := w.activeSessionOf(caller)
	if s == nil {
		return nil, ErrNoActiveSession
	}
	if !now.Before(s.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	return s, nil
}
