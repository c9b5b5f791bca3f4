package access

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/pkaminski/vocadrill/internal/domain"
	"github.com/pkaminski/vocadrill/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock returns the same trusted time on every call.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) TrustedNow(ctx context.Context) time.Time {
	return c.now
}

// fakeCountStore is an in-memory DailyCountStore.
type fakeCountStore struct {
	counts map[string]int
	getErr error
	incErr error
}

func newFakeCountStore() *fakeCountStore {
	return &fakeCountStore{counts: make(map[string]int)}
}

func (f *fakeCountStore) key(userID uuid.UUID, day string) string {
	return userID.String() + "/" + day
}

func (f *fakeCountStore) Get(ctx context.Context, userID uuid.UUID, day string) (int, error) {
	if f.getErr != nil {
		return 0, f.getErr
	}
	return f.counts[f.key(userID, day)], nil
}

func (f *fakeCountStore) Increment(ctx context.Context, userID uuid.UUID, day string) (int, error) {
	if f.incErr != nil {
		return 0, f.incErr
	}
	f.counts[f.key(userID, day)]++
	return f.counts[f.key(userID, day)], nil
}

func (f *fakeCountStore) WithTx(tx *sql.Tx) store.DailyCountStore { return f }

// fakeUnlockStore is an in-memory UnlockStore.
type fakeUnlockStore struct {
	unlocks map[string]*domain.UnitUnlock
	getErr  error
}

func newFakeUnlockStore() *fakeUnlockStore {
	return &fakeUnlockStore{unlocks: make(map[string]*domain.UnitUnlock)}
}

func (f *fakeUnlockStore) key(userID, groupID uuid.UUID) string {
	return userID.String() + "/" + groupID.String()
}

func (f *fakeUnlockStore) Get(
	ctx context.Context,
	userID, groupID uuid.UUID,
) (*domain.UnitUnlock, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	unlock, ok := f.unlocks[f.key(userID, groupID)]
	if !ok {
		return nil, store.ErrUnlockNotFound
	}
	return unlock, nil
}

func (f *fakeUnlockStore) Upsert(ctx context.Context, unlock *domain.UnitUnlock) error {
	f.unlocks[f.key(unlock.UserID, unlock.GroupID)] = unlock
	return nil
}

func (f *fakeUnlockStore) WithTx(tx *sql.Tx) store.UnlockStore { return f }

const testQuota = 10

func newTestGate(
	t *testing.T,
	counts *fakeCountStore,
	unlocks *fakeUnlockStore,
	clock *fixedClock,
) (Gate, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gate := NewGate(db, counts, unlocks, clock, testQuota, 3*time.Hour, nil)
	return gate, mock
}

func TestRemainingToday(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("full quota when nothing consumed", func(t *testing.T) {
		t.Parallel()
		gate, _ := newTestGate(t, newFakeCountStore(), newFakeUnlockStore(), &fixedClock{now: now})

		remaining, err := gate.RemainingToday(context.Background(), userID, false)
		require.NoError(t, err)
		assert.Equal(t, testQuota, remaining)
	})

	t.Run("decreases with consumption", func(t *testing.T) {
		t.Parallel()
		counts := newFakeCountStore()
		counts.counts[counts.key(userID, domain.DayKey(now))] = 4
		gate, _ := newTestGate(t, counts, newFakeUnlockStore(), &fixedClock{now: now})

		remaining, err := gate.RemainingToday(context.Background(), userID, false)
		require.NoError(t, err)
		assert.Equal(t, 6, remaining)
	})

	t.Run("never negative", func(t *testing.T) {
		t.Parallel()
		counts := newFakeCountStore()
		counts.counts[counts.key(userID, domain.DayKey(now))] = testQuota + 5
		gate, _ := newTestGate(t, counts, newFakeUnlockStore(), &fixedClock{now: now})

		remaining, err := gate.RemainingToday(context.Background(), userID, false)
		require.NoError(t, err)
		assert.Equal(t, 0, remaining)
	})

	t.Run("premium is unlimited", func(t *testing.T) {
		t.Parallel()
		gate, _ := newTestGate(t, newFakeCountStore(), newFakeUnlockStore(), &fixedClock{now: now})

		remaining, err := gate.RemainingToday(context.Background(), userID, true)
		require.NoError(t, err)
		assert.Equal(t, Unlimited, remaining)
	})

	t.Run("counts reset on the next trusted day", func(t *testing.T) {
		t.Parallel()
		counts := newFakeCountStore()
		counts.counts[counts.key(userID, domain.DayKey(now))] = testQuota
		nextDay := &fixedClock{now: now.Add(24 * time.Hour)}
		gate, _ := newTestGate(t, counts, newFakeUnlockStore(), nextDay)

		remaining, err := gate.RemainingToday(context.Background(), userID, false)
		require.NoError(t, err)
		assert.Equal(t, testQuota, remaining)
	})
}

func TestConsumeReview(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("consumes within quota", func(t *testing.T) {
		t.Parallel()
		counts := newFakeCountStore()
		gate, mock := newTestGate(t, counts, newFakeUnlockStore(), &fixedClock{now: now})
		mock.ExpectBegin()
		mock.ExpectCommit()

		ok, err := gate.ConsumeReview(context.Background(), userID, false)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("denies and rolls back past quota", func(t *testing.T) {
		t.Parallel()
		counts := newFakeCountStore()
		counts.counts[counts.key(userID, domain.DayKey(now))] = testQuota
		gate, mock := newTestGate(t, counts, newFakeUnlockStore(), &fixedClock{now: now})
		mock.ExpectBegin()
		mock.ExpectRollback()

		ok, err := gate.ConsumeReview(context.Background(), userID, false)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("premium bypasses the counter", func(t *testing.T) {
		t.Parallel()
		counts := newFakeCountStore()
		gate, _ := newTestGate(t, counts, newFakeUnlockStore(), &fixedClock{now: now})

		ok, err := gate.ConsumeReview(context.Background(), userID, true)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, counts.counts)
	})

	t.Run("store failure surfaces as error", func(t *testing.T) {
		t.Parallel()
		counts := newFakeCountStore()
		counts.incErr = errors.New("connection reset")
		gate, mock := newTestGate(t, counts, newFakeUnlockStore(), &fixedClock{now: now})
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := gate.ConsumeReview(context.Background(), userID, false)
		assert.Error(t, err)
	})
}

func TestIsUnlocked(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	groupID := uuid.New()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("locked without unlock row", func(t *testing.T) {
		t.Parallel()
		gate, _ := newTestGate(t, newFakeCountStore(), newFakeUnlockStore(), &fixedClock{now: now})

		unlocked, err := gate.IsUnlocked(context.Background(), userID, groupID, false, false)
		require.NoError(t, err)
		assert.False(t, unlocked)
	})

	t.Run("top-level groups are always unlocked", func(t *testing.T) {
		t.Parallel()
		gate, _ := newTestGate(t, newFakeCountStore(), newFakeUnlockStore(), &fixedClock{now: now})

		unlocked, err := gate.IsUnlocked(context.Background(), userID, groupID, false, true)
		require.NoError(t, err)
		assert.True(t, unlocked)
	})

	t.Run("premium bypasses unlocks", func(t *testing.T) {
		t.Parallel()
		gate, _ := newTestGate(t, newFakeCountStore(), newFakeUnlockStore(), &fixedClock{now: now})

		unlocked, err := gate.IsUnlocked(context.Background(), userID, groupID, true, false)
		require.NoError(t, err)
		assert.True(t, unlocked)
	})

	t.Run("active unlock grants access", func(t *testing.T) {
		t.Parallel()
		unlocks := newFakeUnlockStore()
		unlocks.unlocks[unlocks.key(userID, groupID)] = &domain.UnitUnlock{
			UserID:    userID,
			GroupID:   groupID,
			ExpiresAt: now.Add(time.Hour),
		}
		gate, _ := newTestGate(t, newFakeCountStore(), unlocks, &fixedClock{now: now})

		unlocked, err := gate.IsUnlocked(context.Background(), userID, groupID, false, false)
		require.NoError(t, err)
		assert.True(t, unlocked)
	})

	t.Run("expired unlock is locked again", func(t *testing.T) {
		t.Parallel()
		unlocks := newFakeUnlockStore()
		unlocks.unlocks[unlocks.key(userID, groupID)] = &domain.UnitUnlock{
			UserID:    userID,
			GroupID:   groupID,
			ExpiresAt: now.Add(-time.Minute),
		}
		gate, _ := newTestGate(t, newFakeCountStore(), unlocks, &fixedClock{now: now})

		unlocked, err := gate.IsUnlocked(context.Background(), userID, groupID, false, false)
		require.NoError(t, err)
		assert.False(t, unlocked)
	})
}

func TestUnlock(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	groupID := uuid.New()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	unlocks := newFakeUnlockStore()
	gate, _ := newTestGate(t, newFakeCountStore(), unlocks, &fixedClock{now: now})

	unlock, err := gate.Unlock(context.Background(), userID, groupID)
	require.NoError(t, err)
	assert.Equal(t, now.Add(3*time.Hour), unlock.ExpiresAt)

	// The grant is visible through IsUnlocked immediately.
	unlocked, err := gate.IsUnlocked(context.Background(), userID, groupID, false, false)
	require.NoError(t, err)
	assert.True(t, unlocked)
}
