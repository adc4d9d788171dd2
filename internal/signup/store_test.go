package signup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore returns a store with a controllable clock and no sweep goroutine
func newTestStore(now *time.Time) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
	s.now = func() time.Time { return *now }
	return s
}

func testSession(id string, expiresAt time.Time) *Session {
	return &Session{
		ID:        id,
		Email:     "applicant@example.com",
		OTPCode:   "123456",
		ExpiresAt: expiresAt,
	}
}

func TestMemoryStorePutGet(t *testing.T) {
	now := time.Now()
	store := newTestStore(&now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testSession("s1", now.Add(time.Minute))))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, "applicant@example.com", got.Email)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	now := time.Now()
	store := newTestStore(&now)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	now := time.Now()
	store := newTestStore(&now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testSession("s1", now.Add(time.Minute))))

	first, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	first.Verified = true

	second, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, second.Verified, "mutating a returned session must not affect the stored one")
}

func TestMemoryStoreLazyExpiry(t *testing.T) {
	now := time.Now()
	store := newTestStore(&now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testSession("s1", now.Add(time.Minute))))

	now = now.Add(2 * time.Minute)

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// The lazy read deleted the entry, so even Peek sees nothing now
	_, err = store.Peek(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStorePeekIgnoresExpiry(t *testing.T) {
	now := time.Now()
	store := newTestStore(&now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testSession("s1", now.Add(time.Minute))))

	now = now.Add(2 * time.Minute)

	got, err := store.Peek(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
}

func TestMemoryStoreTake(t *testing.T) {
	now := time.Now()
	store := newTestStore(&now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testSession("s1", now.Add(time.Minute))))

	got, err := store.Take(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)

	_, err = store.Take(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreTakeExpired(t *testing.T) {
	now := time.Now()
	store := newTestStore(&now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testSession("s1", now.Add(time.Minute))))

	now = now.Add(2 * time.Minute)

	_, err := store.Take(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.Peek(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreMarkVerified(t *testing.T) {
	now := time.Now()
	store := newTestStore(&now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testSession("s1", now.Add(time.Minute))))
	require.NoError(t, store.MarkVerified(ctx, "s1"))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, got.Verified)

	// Marking twice is harmless
	require.NoError(t, store.MarkVerified(ctx, "s1"))

	assert.ErrorIs(t, store.MarkVerified(ctx, "nope"), ErrSessionNotFound)
}

func TestMemoryStoreMarkVerifiedExpired(t *testing.T) {
	now := time.Now()
	store := newTestStore(&now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testSession("s1", now.Add(time.Minute))))

	now = now.Add(2 * time.Minute)

	assert.ErrorIs(t, store.MarkVerified(ctx, "s1"), ErrSessionNotFound)

	_, err := store.Peek(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreRecordFailedAttempt(t *testing.T) {
	now := time.Now()
	store := newTestStore(&now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testSession("s1", now.Add(time.Minute))))

	attempts, err := store.RecordFailedAttempt(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)

	attempts, err = store.RecordFailedAttempt(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	_, err = store.RecordFailedAttempt(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreRecordFailedAttemptPreservesVerification(t *testing.T) {
	now := time.Now()
	store := newTestStore(&now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testSession("s1", now.Add(time.Minute))))

	// A reader holding a pre-verification copy must not be able to undo the
	// flag through the attempt counter
	stale, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.False(t, stale.Verified)

	require.NoError(t, store.MarkVerified(ctx, "s1"))

	_, err = store.RecordFailedAttempt(ctx, "s1")
	require.NoError(t, err)

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.Equal(t, 1, got.Attempts)
}

func TestMemoryStoreRecordFailedAttemptExpired(t *testing.T) {
	now := time.Now()
	store := newTestStore(&now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testSession("s1", now.Add(time.Minute))))

	now = now.Add(2 * time.Minute)

	_, err := store.RecordFailedAttempt(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	now := time.Now()
	store := newTestStore(&now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testSession("s1", now.Add(time.Minute))))
	require.NoError(t, store.Delete(ctx, "s1"))

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Deleting an absent session is not an error
	assert.NoError(t, store.Delete(ctx, "s1"))
}

func TestMemoryStoreSweep(t *testing.T) {
	now := time.Now()
	store := newTestStore(&now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testSession("live", now.Add(time.Hour))))
	require.NoError(t, store.Put(ctx, testSession("dead", now.Add(time.Minute))))

	now = now.Add(10 * time.Minute)
	store.sweep()

	_, err := store.Peek(ctx, "dead")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.Peek(ctx, "live")
	assert.NoError(t, err)
}

func TestMemoryStoreStopIsIdempotent(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	store.Stop()
	store.Stop()
}
