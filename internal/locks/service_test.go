package locks

import (
	"context"
	"sync"
	"testing"
	"time"

	"fieldbook/internal/shared/config"
	"fieldbook/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memRepo mimics the Postgres repository, including the partial unique
// index behaviour: a second HOLDING insert for the same slot fails with
// gorm.ErrDuplicatedKey.
type memRepo struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*SlotLock
}

func newMemRepo() *memRepo {
	return &memRepo{locks: map[uuid.UUID]*SlotLock{}}
}

func (m *memRepo) holdingFor(fieldID uuid.UUID, usageDate string, windowID uuid.UUID) *SlotLock {
	for _, l := range m.locks {
		if l.Status == LockStatusHolding && l.FieldID == fieldID && l.UsageDate == usageDate && l.WindowID == windowID {
			return l
		}
	}
	return nil
}

func (m *memRepo) Create(ctx context.Context, lock *SlotLock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.holdingFor(lock.FieldID, lock.UsageDate, lock.WindowID) != nil {
		return gorm.ErrDuplicatedKey
	}
	lock.ID = uuid.New()
	copied := *lock
	m.locks[lock.ID] = &copied
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id uuid.UUID) (*SlotLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.locks[id]; ok {
		copied := *l
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) FindHolding(ctx context.Context, fieldID uuid.UUID, usageDate string, windowID uuid.UUID) (*SlotLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l := m.holdingFor(fieldID, usageDate, windowID); l != nil {
		copied := *l
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) ListHoldingByFieldDate(ctx context.Context, fieldID uuid.UUID, usageDate string) ([]SlotLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SlotLock
	for _, l := range m.locks {
		if l.Status == LockStatusHolding && l.FieldID == fieldID && l.UsageDate == usageDate {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memRepo) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, l := range m.locks {
		if l.Status == LockStatusHolding && !l.ExpiresAt.After(now) {
			l.Status = LockStatusReleased
			released := now
			l.ReleasedAt = &released
			count++
		}
	}
	return count, nil
}

func (m *memRepo) ExtendExpiry(ctx context.Context, id uuid.UUID, sessionToken string, newExpiry time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok || l.Status != LockStatusHolding || l.SessionToken != sessionToken {
		return false, nil
	}
	l.ExpiresAt = newExpiry
	return true, nil
}

func (m *memRepo) MarkReleased(ctx context.Context, id uuid.UUID, sessionToken string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok || l.Status != LockStatusHolding || l.SessionToken != sessionToken {
		return false, nil
	}
	l.Status = LockStatusReleased
	l.ReleasedAt = &now
	return true, nil
}

func (m *memRepo) MarkReleasedAnyHolder(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok || l.Status != LockStatusHolding {
		return false, nil
	}
	l.Status = LockStatusReleased
	l.ReleasedAt = &now
	return true, nil
}

func (m *memRepo) MarkCommitted(ctx context.Context, id uuid.UUID, bookingID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok || l.Status != LockStatusHolding {
		return false, nil
	}
	l.Status = LockStatusCommitted
	l.BookingID = &bookingID
	return true, nil
}

type fakeChecker struct {
	taken bool
}

func (f *fakeChecker) SlotTaken(ctx context.Context, fieldID uuid.UUID, usageDate string, windowID uuid.UUID) (bool, error) {
	return f.taken, nil
}

type lockFixture struct {
	repo    *memRepo
	checker *fakeChecker
	svc     Service
	clock   *time.Time
}

func newLockFixture(t *testing.T) *lockFixture {
	t.Helper()
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := &start
	cfg := &config.Config{
		Lock: config.LockConfig{
			HoldDuration:    10 * time.Minute,
			ExtendIncrement: 5 * time.Minute,
		},
	}
	repo := newMemRepo()
	checker := &fakeChecker{}
	svc := newService(repo, checker, cfg, logger.New(), func() time.Time { return *clock })
	return &lockFixture{repo: repo, checker: checker, svc: svc, clock: clock}
}

func (f *lockFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func testAcquireRequest(session string) AcquireRequest {
	return AcquireRequest{
		FieldID:      uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		UsageDate:    "2026-03-15",
		WindowID:     uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		SessionToken: session,
	}
}

func TestTryAcquireGrantsFreeSlot(t *testing.T) {
	f := newLockFixture(t)

	result, err := f.svc.TryAcquire(context.Background(), testAcquireRequest("session-a"))
	require.NoError(t, err)

	assert.True(t, result.Granted)
	require.NotNil(t, result.Lock)
	assert.Equal(t, LockStatusHolding, result.Lock.Status)
	assert.Equal(t, int64(600), result.Lock.RemainingSeconds(*f.clock))
}

func TestTryAcquireMutualExclusion(t *testing.T) {
	f := newLockFixture(t)

	first, err := f.svc.TryAcquire(context.Background(), testAcquireRequest("session-a"))
	require.NoError(t, err)
	require.True(t, first.Granted)

	f.advance(3 * time.Minute)

	second, err := f.svc.TryAcquire(context.Background(), testAcquireRequest("session-b"))
	require.NoError(t, err)

	assert.False(t, second.Granted)
	assert.Equal(t, ReasonAlreadyLocked, second.ReasonCode)
	assert.Equal(t, int64(420), second.RemainingSeconds) // 7 minutes left
}

func TestTryAcquireIdempotentForSameSession(t *testing.T) {
	f := newLockFixture(t)

	first, err := f.svc.TryAcquire(context.Background(), testAcquireRequest("session-a"))
	require.NoError(t, err)

	f.advance(6 * time.Minute)

	again, err := f.svc.TryAcquire(context.Background(), testAcquireRequest("session-a"))
	require.NoError(t, err)

	assert.True(t, again.Granted)
	assert.Equal(t, first.Lock.ID, again.Lock.ID, "same hold, not a duplicate")
	// Re-acquire refreshed the full hold duration
	assert.Equal(t, int64(600), again.Lock.RemainingSeconds(*f.clock))
}

func TestTryAcquireRejectsBookedSlot(t *testing.T) {
	f := newLockFixture(t)
	f.checker.taken = true

	result, err := f.svc.TryAcquire(context.Background(), testAcquireRequest("session-a"))
	require.NoError(t, err)

	assert.False(t, result.Granted)
	assert.Equal(t, ReasonAlreadyBooked, result.ReasonCode)
}

func TestLazyExpiryFreesSlotOnNextAccess(t *testing.T) {
	f := newLockFixture(t)

	first, err := f.svc.TryAcquire(context.Background(), testAcquireRequest("session-a"))
	require.NoError(t, err)
	require.True(t, first.Granted)

	f.advance(11 * time.Minute)

	second, err := f.svc.TryAcquire(context.Background(), testAcquireRequest("session-b"))
	require.NoError(t, err)
	assert.True(t, second.Granted, "expired hold must be reclaimed by the sweep")

	swept, err := f.repo.GetByID(context.Background(), first.Lock.ID)
	require.NoError(t, err)
	assert.Equal(t, LockStatusReleased, swept.Status)
}

func TestExtendAddsIncrement(t *testing.T) {
	f := newLockFixture(t)

	result, err := f.svc.TryAcquire(context.Background(), testAcquireRequest("session-a"))
	require.NoError(t, err)

	lock, err := f.svc.Extend(context.Background(), result.Lock.ID.String(), "session-a")
	require.NoError(t, err)
	assert.Equal(t, int64(900), lock.RemainingSeconds(*f.clock)) // 10m + 5m
}

func TestExtendDeniedForOtherSession(t *testing.T) {
	f := newLockFixture(t)

	result, err := f.svc.TryAcquire(context.Background(), testAcquireRequest("session-a"))
	require.NoError(t, err)

	_, err = f.svc.Extend(context.Background(), result.Lock.ID.String(), "session-b")
	assert.Error(t, err)
}

func TestReleaseThenReacquireByOther(t *testing.T) {
	f := newLockFixture(t)

	result, err := f.svc.TryAcquire(context.Background(), testAcquireRequest("session-a"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Release(context.Background(), result.Lock.ID.String(), "session-a"))

	second, err := f.svc.TryAcquire(context.Background(), testAcquireRequest("session-b"))
	require.NoError(t, err)
	assert.True(t, second.Granted)
}

func TestReleaseDeniedForOtherSession(t *testing.T) {
	f := newLockFixture(t)

	result, err := f.svc.TryAcquire(context.Background(), testAcquireRequest("session-a"))
	require.NoError(t, err)

	err = f.svc.Release(context.Background(), result.Lock.ID.String(), "session-b")
	assert.Error(t, err)

	lock, err := f.repo.GetByID(context.Background(), result.Lock.ID)
	require.NoError(t, err)
	assert.Equal(t, LockStatusHolding, lock.Status)
}

func TestIsAvailableExcludesOwnSession(t *testing.T) {
	f := newLockFixture(t)
	req := testAcquireRequest("session-a")

	_, err := f.svc.TryAcquire(context.Background(), req)
	require.NoError(t, err)

	mine, err := f.svc.IsAvailable(context.Background(), req.FieldID, req.UsageDate, req.WindowID, "session-a")
	require.NoError(t, err)
	assert.True(t, mine)

	other, err := f.svc.IsAvailable(context.Background(), req.FieldID, req.UsageDate, req.WindowID, "session-b")
	require.NoError(t, err)
	assert.False(t, other)
}

func TestListActiveLocksSkipsStaleHolds(t *testing.T) {
	f := newLockFixture(t)
	req := testAcquireRequest("session-a")

	_, err := f.svc.TryAcquire(context.Background(), req)
	require.NoError(t, err)

	list, err := f.svc.ListActiveLocks(context.Background(), req.FieldID, req.UsageDate)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, req.WindowID, list[0].WindowID)
	assert.Equal(t, int64(600), list[0].RemainingSeconds)

	// Past expiry but not yet swept: the listing must not show it
	f.advance(11 * time.Minute)
	list, err = f.svc.ListActiveLocks(context.Background(), req.FieldID, req.UsageDate)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCommitFlipsHoldingLock(t *testing.T) {
	f := newLockFixture(t)

	result, err := f.svc.TryAcquire(context.Background(), testAcquireRequest("session-a"))
	require.NoError(t, err)

	bookingID := uuid.New()
	require.NoError(t, f.svc.Commit(context.Background(), result.Lock.ID, bookingID))

	lock, err := f.repo.GetByID(context.Background(), result.Lock.ID)
	require.NoError(t, err)
	assert.Equal(t, LockStatusCommitted, lock.Status)
	require.NotNil(t, lock.BookingID)
	assert.Equal(t, bookingID, *lock.BookingID)

	// A committed lock cannot be committed or extended again
	assert.Error(t, f.svc.Commit(context.Background(), result.Lock.ID, bookingID))
	_, err = f.svc.Extend(context.Background(), result.Lock.ID.String(), "session-a")
	assert.Error(t, err)
}

func TestCommitExpiredHoldFails(t *testing.T) {
	f := newLockFixture(t)

	result, err := f.svc.TryAcquire(context.Background(), testAcquireRequest("session-a"))
	require.NoError(t, err)

	f.advance(11 * time.Minute)

	err = f.svc.Commit(context.Background(), result.Lock.ID, uuid.New())
	assert.Error(t, err, "sweep runs before commit, so the stale hold is gone")
}
