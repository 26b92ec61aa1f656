package cache

import "github.com/nodebridge-labs/nodebridge/internal/types"

// Entry is a CacheEntry (spec.md §3). Payload is opaque bytes plus a
// content-type tag; the cache never inspects it (spec.md §9).
type Entry struct {
	Payload     []byte
	ContentType string
	CachedAt    float64 // unix seconds
	LastAccess  float64 // unix seconds
	FileKey     types.FileKey
	NodeID      types.NodeID
}

func (e *Entry) touch(now float64) { e.LastAccess = now }
