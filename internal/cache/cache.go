// Package cache implements the two-tier (memory + disk) Node Cache of
// spec.md §4.1: content-addressed, TTL-bounded, LRU memory-bound,
// byte-bounded disk region, version-driven invalidation, and access-pattern
// learning.
package cache

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/hbollon/go-edlib"
	"golang.org/x/sync/singleflight"

	"github.com/nodebridge-labs/nodebridge/internal/obslog"
	"github.com/nodebridge-labs/nodebridge/internal/types"
)

// Config configures a Cache.
type Config struct {
	MaxL1Entries int           // memory LRU bound
	L2MaxBytes   int64         // disk byte bound
	DiskDir      string        // on-disk flat directory for entries
	VersionDSN   string        // sqlite DSN for version+prefetch persistence; "" disables
	WatchDisk    bool          // watch DiskDir for external changes via fsnotify
	DefaultTTL   time.Duration
}

// DefaultConfig returns the built-in defaults for a cache rooted at dir;
// they match the cache block of config.Default.
func DefaultConfig(dir string) Config {
	return Config{
		MaxL1Entries: 400,
		L2MaxBytes:   200 << 20, // 200MB
		DiskDir:      dir,
		VersionDSN:   "file:" + filepath.Join(dir, "meta.db"),
		WatchDisk:    true,
		DefaultTTL:   time.Hour,
	}
}

// Cache is the top-level Node Cache. All mutation paths (insert, evict,
// touch, invalidate) are serialized under a single exclusive lock
// (spec.md §9 design note); the sub-stores (memoryStore, diskStore) hold no
// locks of their own.
type Cache struct {
	mu   sync.Mutex
	mem  *memoryStore
	disk *diskStore
	vt   *versionTrack
	pf   *prefetchLearner
	cfg  Config

	hits, misses int64

	sf singleflight.Group
}

// New constructs a Cache from cfg.
func New(cfg Config) (*Cache, error) {
	disk, err := newDiskStore(cfg.DiskDir, cfg.L2MaxBytes)
	if err != nil {
		return nil, err
	}
	vt, err := newVersionTrack(cfg.VersionDSN)
	if err != nil {
		return nil, err
	}
	c := &Cache{
		mem:  newMemoryStore(cfg.MaxL1Entries),
		disk: disk,
		vt:   vt,
		pf:   newPrefetchLearner(vt.sqlDB()),
		cfg:  cfg,
	}
	if cfg.WatchDisk {
		if err := disk.watch(c.onExternalDiskChange); err != nil {
			obslog.Component("cache", "disk watch disabled: %v", err)
		}
	}
	return c, nil
}

func (c *Cache) onExternalDiskChange(k Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem.delete(k)
}

// Close releases background resources (sqlite handle, fsnotify watcher).
func (c *Cache) Close() {
	c.disk.close()
	c.vt.close()
}

func nowSeconds() float64 { return float64(time.Now().UnixNano()) / 1e9 }

// Get implements spec.md §4.1 get(): memory first, then disk, promoting a
// disk hit back into memory.
func (c *Cache) Get(fileKey types.FileKey, nodeID types.NodeID, opts types.Options, ttl time.Duration) ([]byte, bool) {
	k := NewKey(fileKey, nodeID, opts)
	now := nowSeconds()
	ttlSecs := ttl.Seconds()

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.mem.get(k); ok {
		if now-e.CachedAt < ttlSecs {
			e.touch(now)
			c.hits++
			return e.Payload, true
		}
		c.mem.delete(k)
	}

	if e, ok := c.disk.read(k); ok {
		if now-e.CachedAt < ttlSecs {
			e.touch(now)
			c.mem.set(k, e)
			c.disk.touch(k)
			c.hits++
			return e.Payload, true
		}
		c.disk.remove(k)
	}

	c.misses++
	return nil, false
}

// Set implements spec.md §4.1 set(): write memory, enforce LRU, write disk
// (best-effort), enforce the disk byte bound.
func (c *Cache) Set(fileKey types.FileKey, nodeID types.NodeID, opts types.Options, payload []byte) {
	k := NewKey(fileKey, nodeID, opts)
	now := nowSeconds()
	e := &Entry{
		Payload:     payload,
		ContentType: "application/json",
		CachedAt:    now,
		LastAccess:  now,
		FileKey:     fileKey,
		NodeID:      nodeID,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.mem.set(k, e)
	c.disk.write(k, e)
	c.disk.enforceBytesBound()
}

// GetOrFetch coalesces concurrent misses for the same key behind a single
// upstream fetch (SPEC_FULL.md §4.1 — single-flight over get-or-fetch,
// spec.md §9's recommended addition).
func (c *Cache) GetOrFetch(fileKey types.FileKey, nodeID types.NodeID, opts types.Options, ttl time.Duration, fetch func() ([]byte, error)) ([]byte, error) {
	if payload, ok := c.Get(fileKey, nodeID, opts, ttl); ok {
		return payload, nil
	}
	k := NewKey(fileKey, nodeID, opts)
	v, err, _ := c.sf.Do(k.String(), func() (interface{}, error) {
		if payload, ok := c.Get(fileKey, nodeID, opts, ttl); ok {
			return payload, nil
		}
		payload, err := fetch()
		if err != nil {
			return nil, err
		}
		c.Set(fileKey, nodeID, opts, payload)
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate implements spec.md §4.1 invalidate(). Both nil clears
// everything; fileKey alone drops every entry whose metadata matches it
// (consulting contents, since the cache key is hashed); both set drops only
// that specific pair.
func (c *Cache) Invalidate(fileKey *types.FileKey, nodeID *types.NodeID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case fileKey == nil:
		c.mem.clear()
		c.disk.clear()
	case nodeID == nil:
		fk := string(*fileKey)
		c.mem.deleteWhere(func(e *Entry) bool { return string(e.FileKey) == fk })
		c.disk.invalidateWhere(func(entryFileKey, _ string) bool { return entryFileKey == fk })
	default:
		fk, nid := string(*fileKey), string(*nodeID)
		c.mem.deleteWhere(func(e *Entry) bool { return string(e.FileKey) == fk && string(e.NodeID) == nid })
		c.disk.invalidateWhere(func(entryFileKey, entryNodeID string) bool {
			return entryFileKey == fk && entryNodeID == nid
		})
	}
}

// CheckVersion implements spec.md §4.1 check_version(): invalidates the
// file's cache entries on a version bump and reports the outcome.
func (c *Cache) CheckVersion(fileKey types.FileKey, currentVersion string) VersionOutcome {
	outcome := c.vt.check(fileKey, currentVersion)
	if outcome == VersionInvalidated {
		c.Invalidate(&fileKey, nil)
	}
	return outcome
}

// RecordAccess feeds the prefetch learner (spec.md §4.1 record_access()).
func (c *Cache) RecordAccess(nodeID types.NodeID) {
	c.pf.recordAccess(nodeID)
}

// Prefetch returns the learned targets for nodeID (spec.md §3
// PrefetchPattern). Purely advisory — see SPEC_FULL.md §9.
func (c *Cache) Prefetch(nodeID types.NodeID) []types.NodeID {
	return c.pf.Lookup(nodeID)
}

// Stats implements spec.md §4.1 stats().
func (c *Cache) Stats() Snapshot {
	c.mu.Lock()
	memEntries := c.mem.len()
	hits, misses := c.hits, c.misses
	c.mu.Unlock()

	diskFiles := c.disk.list()
	var diskBytes int64
	for _, f := range diskFiles {
		diskBytes += f.size
	}

	total := hits + misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Snapshot{
		MemoryEntries:   memEntries,
		DiskEntries:     len(diskFiles),
		DiskBytes:       diskBytes,
		Hits:            hits,
		Misses:          misses,
		HitRate:         hitRate,
		LearnedPatterns: c.pf.patternCount(),
		TopPatterns:     c.pf.topPatterns(10),
	}
}

// SuggestNodeID returns the closest recently-seen node id to a mistyped one,
// for inclusion in a NotFound error (SPEC_FULL.md §4.1 "did-you-mean").
// Returns "" if no candidate clears the similarity threshold.
func (c *Cache) SuggestNodeID(attempted types.NodeID) string {
	c.pf.mu.Lock()
	candidates := append([]types.NodeID(nil), c.pf.recent...)
	c.pf.mu.Unlock()

	best := ""
	bestScore := float32(0.6) // similarity threshold
	for _, cand := range candidates {
		if cand == attempted {
			continue
		}
		score, err := edlib.StringsSimilarity(string(attempted), string(cand), edlib.Levenshtein)
		if err != nil {
			continue
		}
		if score > bestScore {
			bestScore = score
			best = string(cand)
		}
	}
	return best
}
