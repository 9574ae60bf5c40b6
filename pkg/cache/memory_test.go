package cache

import (
	"context"
	"errors"
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
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type snapshot struct {
	Sector   string    `json:"sector"`
	Score    float64   `json:"score"`
	CachedAt time.Time `json:"cached_at"`
}

func TestMemoryCache_RoundTripStruct(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	in := snapshot{Sector: "biotech", Score: -0.42, CachedAt: time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)}
	require.NoError(t, mc.Set(ctx, "sector:biotech", in, time.Minute))

	var out snapshot
	require.NoError(t, mc.Get(ctx, "sector:biotech", &out))
	assert.Equal(t, in, out)

	// mutating the returned copy must not leak back into the cache
	out.Score = 1
	var again snapshot
	require.NoError(t, mc.Get(ctx, "sector:biotech", &again))
	assert.Equal(t, -0.42, again.Score)
}

func TestMemoryCache_Expiry(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	mc := NewMemoryCache(WithMemoryClock(clk.Now))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", "v", time.Minute))
	clk.Advance(59 * time.Second)

	var s string
	require.NoError(t, mc.Get(ctx, "k", &s))
	assert.Equal(t, "v", s)

	clk.Advance(2 * time.Second)
	err := mc.Get(ctx, "k", &s)
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	mc := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryClock(clk.Now))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", 1, 0))
	clk.Advance(time.Second)
	require.NoError(t, mc.Set(ctx, "b", 2, 0))
	clk.Advance(time.Second)

	var n int
	require.NoError(t, mc.Get(ctx, "a", &n)) // a is now newer than b
	clk.Advance(time.Second)
	require.NoError(t, mc.Set(ctx, "c", 3, 0))

	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "b", &n), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "a", &n))
	assert.Equal(t, 1, n)
}

func TestMemoryCache_TryLock(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	mc := NewMemoryCache(WithMemoryClock(clk.Now))
	defer mc.Close()
	ctx := context.Background()

	ok, err := mc.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = mc.TryLock(ctx, "sweep", time.Minute)
	assert.False(t, ok)

	clk.Advance(2 * time.Minute)
	ok, _ = mc.TryLock(ctx, "sweep", time.Minute)
	assert.True(t, ok, "expired lease can be retaken")

	require.NoError(t, mc.Unlock(ctx, "sweep"))
	ok, _ = mc.TryLock(ctx, "sweep", time.Minute)
	assert.True(t, ok)
}

func TestMGetTyped_SkipsMissingAndInvalid(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "s1", snapshot{Sector: "energy", Score: 0.1}, time.Minute))
	require.NoError(t, mc.Set(ctx, "s2", "not-json", time.Minute))

	got, err := MGetTyped[snapshot](ctx, mc, "s1", "s2", "s3")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "energy", got["s1"].Sector)
}

func TestLayeredCache_ReadsThroughAndServesFromMemory(t *testing.T) {
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote, WithLayeredL1TTL(time.Minute))
	defer lc.Close()
	ctx := context.Background()

	require.NoError(t, remote.Set(ctx, "bench", snapshot{Sector: "IWM", Score: 1.25}, time.Hour))

	got, err := GetTyped[snapshot](ctx, lc, "bench")
	require.NoError(t, err)
	assert.Equal(t, 1.25, got.Score)

	// remote copy gone, L1 still answers
	require.NoError(t, remote.Delete(ctx, "bench"))
	got, err = GetTyped[snapshot](ctx, lc, "bench")
	require.NoError(t, err)
	assert.Equal(t, "IWM", got.Sector)

	require.NoError(t, lc.Delete(ctx, "bench"))
	_, err = GetTyped[snapshot](ctx, lc, "bench")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestGenerateKeyWithParams(t *testing.T) {
	assert.Equal(t, "sector:biotech:1day", GenerateKeyWithParams("sector", "biotech", "1day"))
	assert.Equal(t, "benchmark:IWM", GenerateKey("benchmark", "IWM"))
}
