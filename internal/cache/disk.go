package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nodebridge-labs/nodebridge/internal/errs"
	"github.com/nodebridge-labs/nodebridge/internal/obslog"
	"github.com/nodebridge-labs/nodebridge/internal/types"
)

// diskEntry is the on-disk JSON shape (spec.md §6). Field names are part of
// the wire contract and must not be renamed.
type diskEntry struct {
	Payload    json.RawMessage `json:"payload"`
	CachedAt   float64         `json:"_cached_at"`
	LastAccess float64         `json:"_last_access"`
	FileKey    string          `json:"_file_key"`
	NodeID     string          `json:"_node_id"`
}

// diskStore is the L2 tier: one JSON file per entry in a flat directory,
// filename "{16-hex-cache-key}.json" (spec.md §6). Writes are
// write-temp-then-rename for atomicity (spec.md §5); reads tolerate the
// file vanishing between stat and open.
type diskStore struct {
	dir       string
	maxBytes  int64
	watcher   *fsnotify.Watcher
	onExternal func(Key) // called when a file is removed/renamed by another process
}

func newDiskStore(dir string, maxBytes int64) (*diskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errs.New(errs.KindUnknown, "disk.mkdir", err)
	}
	return &diskStore{dir: dir, maxBytes: maxBytes}, nil
}

// watch starts an fsnotify watch on the cache directory so external removals
// (a second process sharing the directory) are observed promptly. This is an
// optimization on top of the directory's own TTL re-validation, not a
// correctness requirement (spec.md §4.1 notes: "external-change detection").
func (d *diskStore) watch(onExternal func(Key)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.New(errs.KindUnknown, "disk.watch", err)
	}
	if err := w.Add(d.dir); err != nil {
		w.Close()
		return errs.New(errs.KindUnknown, "disk.watch", err)
	}
	d.watcher = w
	d.onExternal = onExternal
	go d.watchLoop()
	return nil
}

func (d *diskStore) watchLoop() {
	for {
		select {
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			base := filepath.Base(event.Name)
			ext := filepath.Ext(base)
			if ext != ".json" {
				continue
			}
			k := Key(base[:len(base)-len(ext)])
			if d.onExternal != nil {
				d.onExternal(k)
			}
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			obslog.Component("cache.disk", "watch error: %v", err)
		}
	}
}

func (d *diskStore) close() {
	if d.watcher != nil {
		d.watcher.Close()
	}
}

func (d *diskStore) path(k Key) string {
	return filepath.Join(d.dir, k.String()+".json")
}

// read loads an entry, treating a malformed file as CacheCorruption (deleted,
// never propagated per spec.md §4.1 Failure semantics) and a missing file as
// a plain miss.
func (d *diskStore) read(k Key) (*Entry, bool) {
	path := d.path(k)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false // vanished between stat/open, or never existed: a miss
	}
	var de diskEntry
	if err := json.Unmarshal(data, &de); err != nil {
		obslog.Component("cache.disk", "corrupt entry %s: %v", k, err)
		os.Remove(path)
		return nil, false
	}
	return &Entry{
		Payload:    []byte(de.Payload),
		ContentType: "application/json",
		CachedAt:   de.CachedAt,
		LastAccess: de.LastAccess,
		FileKey:    types.FileKey(de.FileKey),
		NodeID:     types.NodeID(de.NodeID),
	}, true
}

// write persists an entry atomically (write-temp-then-rename). Failures are
// logged and swallowed: a failed disk write never fails the caller's Set
// (spec.md §4.1).
func (d *diskStore) write(k Key, e *Entry) {
	de := diskEntry{
		Payload:    json.RawMessage(e.Payload),
		CachedAt:   e.CachedAt,
		LastAccess: e.LastAccess,
		FileKey:    string(e.FileKey),
		NodeID:     string(e.NodeID),
	}
	data, err := json.Marshal(de)
	if err != nil {
		obslog.Component("cache.disk", "marshal failed for %s: %v", k, err)
		return
	}
	final := d.path(k)
	tmp := final + fmt.Sprintf(".tmp-%d", time.Now().UnixNano())
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		obslog.Component("cache.disk", "write failed for %s: %v", k, err)
		return
	}
	if err := os.Rename(tmp, final); err != nil {
		obslog.Component("cache.disk", "rename failed for %s: %v", k, err)
		os.Remove(tmp)
	}
}

func (d *diskStore) remove(k Key) {
	os.Remove(d.path(k))
}

// touch updates the file's mtime, used on an L2 hit promoted to L1
// (spec.md §4.1 get(): "touch the disk file's mtime").
func (d *diskStore) touch(k Key) {
	now := time.Now()
	os.Chtimes(d.path(k), now, now)
}

type diskFileInfo struct {
	key   Key
	size  int64
	mtime time.Time
}

// list enumerates every entry currently on disk.
func (d *diskStore) list() []diskFileInfo {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil
	}
	out := make([]diskFileInfo, 0, len(entries))
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		ext := filepath.Ext(name)
		if ext != ".json" {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, diskFileInfo{
			key:   Key(name[:len(name)-len(ext)]),
			size:  info.Size(),
			mtime: info.ModTime(),
		})
	}
	return out
}

// enforceBytesBound removes oldest-by-mtime files until the total size is
// within maxBytes (spec.md §4.1 Eviction policies).
func (d *diskStore) enforceBytesBound() {
	if d.maxBytes <= 0 {
		return
	}
	files := d.list()
	var total int64
	for _, f := range files {
		total += f.size
	}
	if total <= d.maxBytes {
		return
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mtime.Before(files[j].mtime) })
	for _, f := range files {
		if total <= d.maxBytes {
			break
		}
		d.remove(f.key)
		total -= f.size
	}
}

// invalidateWhere deletes every on-disk entry whose content matches pred,
// loading each file to consult metadata (spec.md §4.1: "determined from
// entry metadata, not by key prefix — the cache key is hashed, so contents
// are consulted").
func (d *diskStore) invalidateWhere(pred func(fileKey, nodeID string) bool) int {
	n := 0
	for _, f := range d.list() {
		e, ok := d.read(f.key)
		if !ok {
			continue
		}
		if pred(string(e.FileKey), string(e.NodeID)) {
			d.remove(f.key)
			n++
		}
	}
	return n
}

func (d *diskStore) clear() int {
	n := 0
	for _, f := range d.list() {
		d.remove(f.key)
		n++
	}
	return n
}

func (d *diskStore) totalBytes() int64 {
	var total int64
	for _, f := range d.list() {
		total += f.size
	}
	return total
}
