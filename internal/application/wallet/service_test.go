package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	appMocks "github.com/agent-wallet/agent-wallet/internal/application/wallet/mocks"
	domainWallet "github.com/agent-wallet/agent-wallet/internal/domain/wallet"
)

var (
	testGuardian = common.BytesToAddress([]byte{0x01})
	testAgent    = common.BytesToAddress([]byte{0x02})
	testTarget   = common.BytesToAddress([]byte{0x03})
)

func newTestService(t *testing.T, archive ActionArchive, sink EventSink) (*Service, uuid.UUID) {
	t.Helper()
	svc := NewService(archive, sink, zerolog.Nop())

	w, err := domainWallet.New(testGuardian, "trading-bot", 1000, 100, domainWallet.DryRunDispatcher{})
	require.NoError(t, err)
	w.DrainEvents()

	id := uuid.New()
	require.NoError(t, svc.Register(id, w))
	return svc, id
}

func openSession(t *testing.T, svc *Service, id uuid.UUID) {
	t.Helper()
	_, err := svc.CreateSession(context.Background(), id, testGuardian, testAgent, "research", time.Hour, 0, 0)
	require.NoError(t, err)
}

func TestNewService(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	archive := appMocks.NewMockActionArchive(ctrl)
	sink := appMocks.NewMockEventSink(ctrl)

	svc := NewService(archive, sink, zerolog.Nop())
	require.NotNil(t, svc)
}

func TestService_RegisterDuplicate(t *testing.T) {
	svc, id := newTestService(t, nil, nil)

	w, err := domainWallet.New(testGuardian, "other", 1000, 100, nil)
	require.NoError(t, err)
	assert.Error(t, svc.Register(id, w))
}

func TestService_UnknownWallet(t *testing.T) {
	svc := NewService(nil, nil, zerolog.Nop())

	_, err := svc.Status(uuid.New())
	assert.ErrorIs(t, err, ErrWalletNotFound)

	_, err = svc.Execute(context.Background(), uuid.New(), testAgent, testTarget, 1, nil, 0)
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestService_ExecutePublishesAndArchives(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	archive := appMocks.NewMockActionArchive(ctrl)
	sink := appMocks.NewMockEventSink(ctrl)
	svc, id := newTestService(t, archive, sink)

	// SessionCreated from openSession.
	sink.EXPECT().Publish(id, gomock.Any())
	openSession(t, svc, id)

	archive.EXPECT().
		AppendAction(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, entry domainWallet.ActionLogEntry) error {
			assert.Equal(t, testAgent, entry.Agent)
			assert.Equal(t, testTarget, entry.Target)
			assert.Equal(t, uint64(25), entry.Value)
			assert.True(t, entry.Success)
			return nil
		})
	sink.EXPECT().
		Publish(id, gomock.Any()).
		Do(func(_ uuid.UUID, ev domainWallet.Event) {
			assert.Equal(t, "ActionExecuted", ev.EventName())
		})

	res, err := svc.Execute(context.Background(), id, testAgent, testTarget, 25, []byte{0xaa, 0xbb, 0xcc, 0xdd}, 0)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestService_ExecuteArchiveFailureIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	archive := appMocks.NewMockActionArchive(ctrl)
	svc, id := newTestService(t, archive, nil)
	openSession(t, svc, id)

	archive.EXPECT().
		AppendAction(gomock.Any(), id, gomock.Any()).
		Return(errors.New("archive down"))

	res, err := svc.Execute(context.Background(), id, testAgent, testTarget, 10, nil, 0)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestService_ExecuteRejectionHasNoSideEffects(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No AppendAction and no Publish expected for a rejected call.
	archive := appMocks.NewMockActionArchive(ctrl)
	sink := appMocks.NewMockEventSink(ctrl)
	svc, id := newTestService(t, archive, sink)

	sink.EXPECT().Publish(id, gomock.Any())
	openSession(t, svc, id)

	_, err := svc.Execute(context.Background(), id, testAgent, testTarget, 500, nil, 0)
	require.Error(t, err)
	_, isLimit := domainWallet.IsLimitError(err)
	assert.True(t, isLimit)

	nonce, err := svc.Nonce(id, testAgent)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), nonce)
}

func TestService_ExecuteBatchArchivesEveryEntry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	archive := appMocks.NewMockActionArchive(ctrl)
	svc, id := newTestService(t, archive, nil)
	openSession(t, svc, id)

	archive.EXPECT().AppendAction(gomock.Any(), id, gomock.Any()).Times(3)

	targets := []common.Address{testTarget, testTarget, testTarget}
	values := []uint64{5, 10, 15}
	payloads := [][]byte{nil, nil, nil}
	successes, err := svc.ExecuteBatch(context.Background(), id, testAgent, targets, values, payloads, 0)
	require.NoError(t, err)
	require.Len(t, successes, 3)
	for _, ok := range successes {
		assert.True(t, ok)
	}
}

func TestService_GuardianOps(t *testing.T) {
	svc, id := newTestService(t, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.Freeze(ctx, id, testGuardian))
	st, err := svc.Status(id)
	require.NoError(t, err)
	assert.True(t, st.Frozen)

	require.NoError(t, svc.Unfreeze(ctx, id, testGuardian))
	require.NoError(t, svc.SetLimits(ctx, id, testGuardian, 50, 500, 5000))
	require.NoError(t, svc.SetWhitelistEnabled(ctx, id, testGuardian, true))
	require.NoError(t, svc.AddWhitelistTargets(ctx, id, testGuardian, []common.Address{testTarget}))

	allowed, err := svc.WhitelistTargets(id)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{testTarget}, allowed)

	require.NoError(t, svc.RemoveWhitelistTarget(ctx, id, testGuardian, testTarget))

	assert.ErrorIs(t, svc.Freeze(ctx, id, testAgent), domainWallet.ErrNotGuardian)
}

func TestService_SessionLifecycle(t *testing.T) {
	svc, id := newTestService(t, nil, nil)
	ctx := context.Background()

	sessionID, err := svc.CreateSession(ctx, id, testGuardian, testAgent, "research", time.Hour, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), sessionID)

	sess, err := svc.Session(id, sessionID)
	require.NoError(t, err)
	assert.Equal(t, testAgent, sess.Agent)
	assert.True(t, sess.Active)

	require.NoError(t, svc.RevokeSession(ctx, id, testGuardian, sessionID))

	_, err = svc.Session(id, 99)
	assert.ErrorIs(t, err, domainWallet.ErrSessionNotFound)

	sessionID, err = svc.CreateSession(ctx, id, testGuardian, testAgent, "research", time.Hour, 0, 0)
	require.NoError(t, err)
	count, err := svc.RevokeAllSessions(ctx, id, testGuardian)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_ = sessionID
}

func TestService_SerializesConcurrentExecutes(t *testing.T) {
	svc, id := newTestService(t, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.Deposit(ctx, id, 10_000))
	openSession(t, svc, id)

	// Each goroutine retries with a fresh nonce until its call lands.
	// Serialized execution means all 20 spends commit exactly once.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				nonce, err := svc.Nonce(id, testAgent)
				if err != nil {
					return
				}
				_, err = svc.Execute(ctx, id, testAgent, testTarget, 10, nil, nonce)
				if err == nil {
					return
				}
				if !errors.Is(err, domainWallet.ErrNonceMismatch) {
					return
				}
			}
		}()
	}
	wg.Wait()

	st, err := svc.Status(id)
	require.NoError(t, err)
	assert.Equal(t, 20, st.ActionCount)
	assert.Equal(t, uint64(10_000-200), st.Balance)

	nonce, err := svc.Nonce(id, testAgent)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), nonce)
}
