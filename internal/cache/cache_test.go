package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodebridge-labs/nodebridge/internal/types"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.WatchDisk = false // avoid fsnotify flakiness under t.TempDir cleanup
	c, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestCacheSetGetRoundtrip(t *testing.T) {
	c := newTestCache(t)
	c.Set("F1", "1:2", types.Options{"geometry"}, []byte(`{"x":1}`))

	payload, ok := c.Get("F1", "1:2", types.Options{"geometry"}, time.Hour)
	require.True(t, ok)
	assert.Equal(t, `{"x":1}`, string(payload))
}

func TestCacheGetMiss(t *testing.T) {
	c := newTestCache(t)
	_, ok := c.Get("F1", "1:2", nil, time.Hour)
	assert.False(t, ok)
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestCacheTTLExpiry(t *testing.T) {
	c := newTestCache(t)
	c.Set("F1", "1:2", nil, []byte("payload"))

	_, ok := c.Get("F1", "1:2", nil, -time.Second)
	assert.False(t, ok, "a negative ttl must treat every entry as already expired")
}

func TestCacheDiskPromotesToMemoryOnHit(t *testing.T) {
	c := newTestCache(t)
	c.Set("F1", "1:2", nil, []byte("payload"))
	c.mem.delete(NewKey("F1", "1:2", nil))

	payload, ok := c.Get("F1", "1:2", nil, time.Hour)
	require.True(t, ok)
	assert.Equal(t, "payload", string(payload))

	_, inMem := c.mem.get(NewKey("F1", "1:2", nil))
	assert.True(t, inMem, "a disk hit must be promoted back into memory")
}

func TestCacheInvalidateSpecificPair(t *testing.T) {
	c := newTestCache(t)
	c.Set("F1", "1:2", nil, []byte("a"))
	c.Set("F1", "1:3", nil, []byte("b"))

	fk, nid := types.FileKey("F1"), types.NodeID("1:2")
	c.Invalidate(&fk, &nid)

	_, ok := c.Get("F1", "1:2", nil, time.Hour)
	assert.False(t, ok)
	_, ok = c.Get("F1", "1:3", nil, time.Hour)
	assert.True(t, ok, "invalidating one node must not drop its siblings")
}

func TestCacheInvalidateWholeFile(t *testing.T) {
	c := newTestCache(t)
	c.Set("F1", "1:2", nil, []byte("a"))
	c.Set("F1", "1:3", nil, []byte("b"))
	c.Set("F2", "1:2", nil, []byte("c"))

	fk := types.FileKey("F1")
	c.Invalidate(&fk, nil)

	_, ok := c.Get("F1", "1:2", nil, time.Hour)
	assert.False(t, ok)
	_, ok = c.Get("F1", "1:3", nil, time.Hour)
	assert.False(t, ok)
	_, ok = c.Get("F2", "1:2", nil, time.Hour)
	assert.True(t, ok, "a different file's entries must survive")
}

func TestCacheInvalidateAll(t *testing.T) {
	c := newTestCache(t)
	c.Set("F1", "1:2", nil, []byte("a"))
	c.Set("F2", "1:2", nil, []byte("b"))

	c.Invalidate(nil, nil)

	assert.Equal(t, 0, c.Stats().MemoryEntries)
	assert.Equal(t, 0, c.Stats().DiskEntries)
}

func TestCacheLRUEviction(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.WatchDisk = false
	cfg.MaxL1Entries = 2
	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()

	c.Set("F1", "1", nil, []byte("a"))
	time.Sleep(time.Millisecond)
	c.Set("F1", "2", nil, []byte("b"))
	time.Sleep(time.Millisecond)
	c.Set("F1", "3", nil, []byte("c"))

	assert.LessOrEqual(t, c.mem.len(), 2)
	_, ok := c.mem.get(NewKey("F1", "3", nil))
	assert.True(t, ok, "the most recently set entry must survive LRU eviction")
}

func TestCacheCheckVersionNewFileThenInvalidated(t *testing.T) {
	c := newTestCache(t)
	assert.Equal(t, VersionNewFile, c.CheckVersion("F1", "v1"))
	assert.Equal(t, VersionValid, c.CheckVersion("F1", "v1"))

	c.Set("F1", "1:2", nil, []byte("a"))
	assert.Equal(t, VersionInvalidated, c.CheckVersion("F1", "v2"))

	_, ok := c.Get("F1", "1:2", nil, time.Hour)
	assert.False(t, ok, "a version bump must invalidate the file's cached entries")
}

func TestCacheGetOrFetchCoalescesConcurrentMisses(t *testing.T) {
	c := newTestCache(t)
	var calls int64
	var wg sync.WaitGroup
	results := make([]string, 8)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			payload, err := c.GetOrFetch("F1", "1:2", nil, time.Hour, func() ([]byte, error) {
				atomic.AddInt64(&calls, 1)
				time.Sleep(10 * time.Millisecond)
				return []byte("fetched"), nil
			})
			require.NoError(t, err)
			results[idx] = string(payload)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "fetched", r)
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "concurrent misses on the same key must coalesce into one fetch")
}

func TestCacheGetOrFetchPropagatesError(t *testing.T) {
	c := newTestCache(t)
	wantErr := errors.New("upstream unavailable")
	_, err := c.GetOrFetch("F1", "1:2", nil, time.Hour, func() ([]byte, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestCacheRecordAccessAndPrefetch(t *testing.T) {
	c := newTestCache(t)
	c.RecordAccess("1:1")
	c.RecordAccess("1:2")
	c.RecordAccess("1:1")
	c.RecordAccess("1:2")

	targets := c.Prefetch("1:1")
	require.NotEmpty(t, targets)
	assert.Contains(t, targets, types.NodeID("1:2"))
}

func TestCacheSuggestNodeID(t *testing.T) {
	c := newTestCache(t)
	c.RecordAccess("100:200")
	c.RecordAccess("100:201")

	suggestion := c.SuggestNodeID("100:2O1") // letter O instead of zero
	assert.Equal(t, "100:201", suggestion)
}

func TestCacheSuggestNodeIDNoCandidates(t *testing.T) {
	c := newTestCache(t)
	assert.Equal(t, "", c.SuggestNodeID("100:200"))
}

func TestCacheStatsHitRate(t *testing.T) {
	c := newTestCache(t)
	c.Set("F1", "1:2", nil, []byte("a"))
	c.Get("F1", "1:2", nil, time.Hour)
	c.Get("F1", "nope", nil, time.Hour)

	s := c.Stats()
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, 0.5, s.HitRate)
}
