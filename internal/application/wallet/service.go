package wallet

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domainWallet "github.com/agent-wallet/agent-wallet/internal/domain/wallet"
)

var ErrWalletNotFound = errors.New("wallet not found")

// EventSink receives the domain events drained after each operation.
type EventSink interface {
	Publish(walletID uuid.UUID, event domainWallet.Event)
}

// ActionArchive persists ledger entries out-of-process. Archiving is
// best-effort: a failure is logged and never fails the operation.
type ActionArchive interface {
	AppendAction(ctx context.Context, walletID uuid.UUID, entry domainWallet.ActionLogEntry) error
}

// instance pairs a wallet with the mutex that serializes its operations.
// The core requires every state-mutating operation to complete fully before
// the next begins; in-process that guarantee is this lock.
type instance struct {
	mu sync.Mutex
	w  *domainWallet.Wallet
}

// Service exposes the serialized operation surface over managed wallets.
type Service struct {
	mu        sync.RWMutex
	instances map[uuid.UUID]*instance

	archive ActionArchive
	sink    EventSink
	logger  zerolog.Logger
}

func NewService(archive ActionArchive, sink EventSink, logger zerolog.Logger) *Service {
	return &Service{
		instances: make(map[uuid.UUID]*instance),
		archive:   archive,
		sink:      sink,
		logger:    logger.With().Str("service", "wallet").Logger(),
	}
}

// Register adds a constructed wallet under its id.
func (s *Service) Register(id uuid.UUID, w *domainWallet.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.instances[id]; ok {
		return errors.New("wallet already registered")
	}
	s.instances[id] = &instance{w: w}
	return nil
}

func (s *Service) get(id uuid.UUID) (*instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.instances[id]
	if !ok {
		return nil, ErrWalletNotFound
	}
	return inst, nil
}

// finish archives any ledger entries appended by the operation and publishes
// the drained domain events.
func (s *Service) finish(ctx context.Context, id uuid.UUID, w *domainWallet.Wallet, actionsBefore int) {
	if s.archive != nil {
		for _, entry := range w.Actions(actionsBefore, w.ActionCount()-actionsBefore) {
			if err := s.archive.AppendAction(ctx, id, entry); err != nil {
				s.logger.Warn().Err(err).
					Str("wallet_id", id.String()).
					Uint64("action_id", entry.ID).
					Msg("failed to archive ledger entry")
			}
		}
	}
	for _, ev := range w.DrainEvents() {
		if s.sink != nil {
			s.sink.Publish(id, ev)
		}
		s.logger.Info().
			Str("wallet_id", id.String()).
			Str("event", ev.EventName()).
			Msg("wallet event")
	}
}

// ExecResult is the outcome of a single authorized call.
type ExecResult struct {
	Success    bool   `json:"success"`
	ReturnData []byte `json:"returnData,omitempty"`
}

func (s *Service) Execute(ctx context.Context, id uuid.UUID, caller, target common.Address, value uint64, payload []byte, nonce uint64) (*ExecResult, error) {
	inst, err := s.get(id)
	if err != nil {
		return nil, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	before := inst.w.ActionCount()
	ok, ret, err := inst.w.Execute(ctx, caller, target, value, payload, nonce)
	s.finish(ctx, id, inst.w, before)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("wallet_id", id.String()).
		Str("agent", caller.Hex()).
		Str("target", target.Hex()).
		Uint64("value", value).
		Bool("success", ok).
		Msg("call executed")
	return &ExecResult{Success: ok, ReturnData: ret}, nil
}

func (s *Service) ExecuteBatch(ctx context.Context, id uuid.UUID, caller common.Address, targets []common.Address, values []uint64, payloads [][]byte, nonce uint64) ([]bool, error) {
	inst, err := s.get(id)
	if err != nil {
		return nil, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	before := inst.w.ActionCount()
	successes, err := inst.w.ExecuteBatch(ctx, caller, targets, values, payloads, nonce)
	s.finish(ctx, id, inst.w, before)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("wallet_id", id.String()).
		Str("agent", caller.Hex()).
		Int("items", len(successes)).
		Msg("batch executed")
	return successes, nil
}

func (s *Service) CreateSession(ctx context.Context, id uuid.UUID, caller, agent common.Address, label string, duration time.Duration, perTxOverride, dailyOverride uint64) (uint64, error) {
	inst, err := s.get(id)
	if err != nil {
		return 0, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	sessionID, err := inst.w.CreateSession(caller, agent, label, duration, perTxOverride, dailyOverride)
	s.finish(ctx, id, inst.w, inst.w.ActionCount())
	if err != nil {
		return 0, err
	}
	s.logger.Info().
		Str("wallet_id", id.String()).
		Str("agent", agent.Hex()).
		Uint64("session_id", sessionID).
		Msg("session created")
	return sessionID, nil
}

func (s *Service) RevokeSession(ctx context.Context, id uuid.UUID, caller common.Address, sessionID uint64) error {
	inst, err := s.get(id)
	if err != nil {
		return err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	err = inst.w.RevokeSession(caller, sessionID)
	s.finish(ctx, id, inst.w, inst.w.ActionCount())
	return err
}

func (s *Service) RevokeAllSessions(ctx context.Context, id uuid.UUID, caller common.Address) (int, error) {
	inst, err := s.get(id)
	if err != nil {
		return 0, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	count, err := inst.w.RevokeAllSessions(caller)
	s.finish(ctx, id, inst.w, inst.w.ActionCount())
	if err != nil {
		return 0, err
	}
	s.logger.Warn().
		Str("wallet_id", id.String()).
		Int("count", count).
		Msg("all sessions revoked")
	return count, nil
}

func (s *Service) Freeze(ctx context.Context, id uuid.UUID, caller common.Address) error {
	return s.mutate(ctx, id, func(w *domainWallet.Wallet) error { return w.Freeze(caller) })
}

func (s *Service) Unfreeze(ctx context.Context, id uuid.UUID, caller common.Address) error {
	return s.mutate(ctx, id, func(w *domainWallet.Wallet) error { return w.Unfreeze(caller) })
}

func (s *Service) SetLimits(ctx context.Context, id uuid.UUID, caller common.Address, perTx, daily, monthly uint64) error {
	return s.mutate(ctx, id, func(w *domainWallet.Wallet) error {
		return w.SetLimits(caller, perTx, daily, monthly)
	})
}

func (s *Service) SetWhitelistEnabled(ctx context.Context, id uuid.UUID, caller common.Address, enabled bool) error {
	return s.mutate(ctx, id, func(w *domainWallet.Wallet) error {
		return w.SetWhitelistEnabled(caller, enabled)
	})
}

func (s *Service) AddWhitelistTargets(ctx context.Context, id uuid.UUID, caller common.Address, targets []common.Address) error {
	return s.mutate(ctx, id, func(w *domainWallet.Wallet) error {
		return w.AddWhitelistTargets(caller, targets)
	})
}

func (s *Service) RemoveWhitelistTarget(ctx context.Context, id uuid.UUID, caller, target common.Address) error {
	return s.mutate(ctx, id, func(w *domainWallet.Wallet) error {
		return w.RemoveWhitelistTarget(caller, target)
	})
}

func (s *Service) ProposeNewGuardian(ctx context.Context, id uuid.UUID, caller, candidate common.Address) error {
	return s.mutate(ctx, id, func(w *domainWallet.Wallet) error {
		return w.ProposeNewGuardian(caller, candidate)
	})
}

func (s *Service) AcceptGuardianship(ctx context.Context, id uuid.UUID, caller common.Address) error {
	return s.mutate(ctx, id, func(w *domainWallet.Wallet) error {
		return w.AcceptGuardianship(caller)
	})
}

func (s *Service) Deposit(ctx context.Context, id uuid.UUID, amount uint64) error {
	return s.mutate(ctx, id, func(w *domainWallet.Wallet) error { return w.Deposit(amount) })
}

func (s *Service) RecoverFunds(ctx context.Context, id uuid.UUID, caller common.Address, amount uint64) (uint64, error) {
	inst, err := s.get(id)
	if err != nil {
		return 0, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	recovered, err := inst.w.RecoverFunds(caller, amount)
	s.finish(ctx, id, inst.w, inst.w.ActionCount())
	return recovered, err
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, op func(*domainWallet.Wallet) error) error {
	inst, err := s.get(id)
	if err != nil {
		return err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	err = op(inst.w)
	s.finish(ctx, id, inst.w, inst.w.ActionCount())
	return err
}

// Read-only surface. The instance lock still serializes against mutators so
// snapshots never observe an operation mid-flight.

func (s *Service) Status(id uuid.UUID) (*domainWallet.Status, error) {
	inst, err := s.get(id)
	if err != nil {
		return nil, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	st := inst.w.Status()
	return &st, nil
}

func (s *Service) Actions(id uuid.UUID, start, count int) ([]domainWallet.ActionLogEntry, int, error) {
	inst, err := s.get(id)
	if err != nil {
		return nil, 0, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.w.Actions(start, count), inst.w.ActionCount(), nil
}

func (s *Service) Session(id uuid.UUID, sessionID uint64) (*domainWallet.Session, error) {
	inst, err := s.get(id)
	if err != nil {
		return nil, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	sess, ok := inst.w.SessionByID(sessionID)
	if !ok {
		return nil, domainWallet.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *Service) Nonce(id uuid.UUID, agent common.Address) (uint64, error) {
	inst, err := s.get(id)
	if err != nil {
		return 0, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.w.Nonce(agent), nil
}

func (s *Service) WhitelistTargets(id uuid.UUID) ([]common.Address, error) {
	inst, err := s.get(id)
	if err != nil {
		return nil, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.w.WhitelistTargets(), nil
}
