package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataexplorer/internal/config"
	"dataexplorer/internal/infrastructure"
	"dataexplorer/internal/shared/testutil"
	"dataexplorer/pkg/contracts/domain"
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

type removal struct {
	id     string
	reason string
}

func newTestRegistry(t *testing.T, ttl time.Duration, max int) (*DatasetRegistry, *fakeClock, *[]removal) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	r := NewDatasetRegistry(config.DatasetsConfig{TTL: ttl, MaxDatasets: max, CleanupInterval: time.Hour},
		infrastructure.NoopBusinessMetrics(), logger)
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	r.now = clock.Now

	var mu sync.Mutex
	removed := &[]removal{}
	r.OnRemove(func(ds Dataset, reason string) {
		mu.Lock()
		defer mu.Unlock()
		*removed = append(*removed, removal{id: ds.Info.ID, reason: reason})
	})
	t.Cleanup(r.Stop)
	return r, clock, removed
}

func testDataset(id string) *Dataset {
	return &Dataset{Info: domain.DatasetInfo{ID: id, Name: id + ".csv"}, Hash: "hash-" + id}
}

func TestRegistry_AddGetDelete(t *testing.T) {
	r, clock, removed := newTestRegistry(t, time.Hour, 5)
	ctx := context.Background()

	stored := r.Add(ctx, testDataset("a"))
	assert.Equal(t, clock.Now(), stored.Info.UploadedAt)
	assert.Equal(t, clock.Now().Add(time.Hour), stored.Info.ExpiresAt)

	got, ok := r.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "a.csv", got.Info.Name)
	assert.True(t, r.HasHash("hash-a"))

	assert.True(t, r.Delete(ctx, "a"))
	assert.False(t, r.Delete(ctx, "a"))
	_, ok = r.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, []removal{{id: "a", reason: RemovedDeleted}}, *removed)
}

func TestRegistry_EvictsOldestWhenFull(t *testing.T) {
	r, clock, removed := newTestRegistry(t, time.Hour, 2)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		r.Add(ctx, testDataset(id))
		clock.Advance(time.Minute)
	}

	assert.Equal(t, 2, r.Len())
	_, ok := r.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, []removal{{id: "a", reason: RemovedEvicted}}, *removed)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestRegistry_SlidingExpiry(t *testing.T) {
	r, clock, removed := newTestRegistry(t, time.Hour, 5)
	ctx := context.Background()
	r.Add(ctx, testDataset("a"))
	r.Add(ctx, testDataset("b"))

	clock.Advance(45 * time.Minute)
	got, ok := r.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, clock.Now().Add(time.Hour), got.Info.ExpiresAt)

	clock.Advance(45 * time.Minute)
	_, ok = r.Get(ctx, "a")
	assert.True(t, ok, "access extends the lifetime")
	assert.Len(t, r.List(), 1, "b has not been touched for 90 minutes")

	assert.Equal(t, 1, r.Sweep(ctx))
	assert.Equal(t, []removal{{id: "b", reason: RemovedExpired}}, *removed)
}

func TestRegistry_ExpiredOnGet(t *testing.T) {
	r, clock, removed := newTestRegistry(t, time.Hour, 5)
	ctx := context.Background()
	r.Add(ctx, testDataset("a"))

	clock.Advance(2 * time.Hour)
	_, ok := r.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, []removal{{id: "a", reason: RemovedExpired}}, *removed)
}

func TestRegistry_StopDropsEverything(t *testing.T) {
	r, _, removed := newTestRegistry(t, time.Hour, 5)
	r.Add(context.Background(), testDataset("a"))

	r.Stop()
	r.Stop()

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, []removal{{id: "a", reason: RemovedShutdown}}, *removed)
}
