package rfid

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore() (*PendingStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)}
	return NewPendingStore(0, nil, clock.Now), clock
}

func TestPutAndGet(t *testing.T) {
	store, clock := newTestStore()

	scan, err := store.Put(" A1B2 ", 0)
	require.NoError(t, err)
	assert.Equal(t, "A1B2", scan.RFIDUID)
	assert.NotEmpty(t, scan.Token)
	assert.Equal(t, clock.Now().Add(DefaultTTL), scan.ExpiresAt)

	got, err := store.Get("A1B2")
	require.NoError(t, err)
	assert.Equal(t, scan, got)

	_, err = store.Put("", time.Minute)
	assert.ErrorIs(t, err, ErrInvalidUID)

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, ErrScanNotFound)
}

func TestGetExpiredScan(t *testing.T) {
	store, clock := newTestStore()

	_, err := store.Put("A1", time.Minute)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = store.Get("A1")
	require.NoError(t, err, "a scan is live up to its expiry instant")

	clock.Advance(time.Second)
	_, err = store.Get("A1")
	assert.ErrorIs(t, err, ErrScanExpired)
	assert.Equal(t, 0, store.Len())
}

func TestPutReplacesPendingScan(t *testing.T) {
	store, clock := newTestStore()

	first, err := store.Put("A1", time.Minute)
	require.NoError(t, err)
	clock.Advance(30 * time.Second)
	second, err := store.Put("A1", 5*time.Minute)
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, 1, store.Len())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 0, store.Sweep())
	got, err := store.Get("A1")
	require.NoError(t, err)
	assert.Equal(t, second.Token, got.Token)
}

func TestSweepDropsOnlyExpired(t *testing.T) {
	store, clock := newTestStore()

	for uid, ttl := range map[string]time.Duration{"A": time.Minute, "B": 3 * time.Minute, "C": 2 * time.Minute} {
		_, err := store.Put(uid, ttl)
		require.NoError(t, err)
	}

	clock.Advance(150 * time.Second)
	assert.Equal(t, 2, store.Sweep())
	assert.Equal(t, 1, store.Len())

	_, err := store.Get("B")
	assert.NoError(t, err)
}

func TestListNewestFirst(t *testing.T) {
	store, clock := newTestStore()

	_, err := store.Put("OLD", time.Hour)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = store.Put("SHORT", time.Second)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = store.Put("NEW", time.Hour)
	require.NoError(t, err)

	scans := store.List()
	require.Len(t, scans, 2)
	assert.Equal(t, "NEW", scans[0].RFIDUID)
	assert.Equal(t, "OLD", scans[1].RFIDUID)
}

func TestRemoveAndClear(t *testing.T) {
	store, _ := newTestStore()

	_, err := store.Put("A", time.Minute)
	require.NoError(t, err)
	_, err = store.Put("B", time.Minute)
	require.NoError(t, err)

	assert.True(t, store.Remove("A"))
	assert.False(t, store.Remove("A"))
	assert.Equal(t, 1, store.Len())

	store.Clear()
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, store.List())
}
