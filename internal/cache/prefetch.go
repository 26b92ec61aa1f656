package cache

import (
	"database/sql"
	"sync"

	"github.com/nodebridge-labs/nodebridge/internal/obslog"
	"github.com/nodebridge-labs/nodebridge/internal/types"
)

const (
	recentWindowSize    = 10
	maxPatternsPerSource = 5
)

// prefetchLearner tracks the bounded recent-access window and the derived
// "from_old -> to_new" patterns (spec.md §3 PrefetchPattern, §4.1 Prefetch
// learning). It is advisory only: nothing in this package acts on the
// patterns it records (spec.md §9 Open Question — left to the caller).
type prefetchLearner struct {
	mu       sync.Mutex
	recent   []types.NodeID              // bounded, deduplicated, most-recent last
	patterns map[types.NodeID][]weighted // source -> bounded list of targets
	db       *sql.DB                     // shared sqlite handle; nil disables persistence
}

type weighted struct {
	target types.NodeID
	weight int
}

func newPrefetchLearner(db *sql.DB) *prefetchLearner {
	p := &prefetchLearner{patterns: make(map[types.NodeID][]weighted), db: db}
	p.load()
	return p
}

func (p *prefetchLearner) load() {
	if p.db == nil {
		return
	}
	rows, err := p.db.Query("SELECT source_id, target_id, weight FROM prefetch_patterns")
	if err != nil {
		obslog.Component("cache.prefetch", "load failed: %v", err)
		return
	}
	defer rows.Close()
	for rows.Next() {
		var src, tgt string
		var w int
		if rows.Scan(&src, &tgt, &w) == nil {
			p.patterns[types.NodeID(src)] = append(p.patterns[types.NodeID(src)], weighted{target: types.NodeID(tgt), weight: w})
		}
	}
}

func (p *prefetchLearner) persist(from, to types.NodeID, weight int) {
	if p.db == nil {
		return
	}
	_, err := p.db.Exec(
		`INSERT INTO prefetch_patterns(source_id, target_id, weight) VALUES (?, ?, ?)
		 ON CONFLICT(source_id, target_id) DO UPDATE SET weight=excluded.weight`,
		string(from), string(to), weight)
	if err != nil {
		obslog.Component("cache.prefetch", "persist failed for %s->%s: %v", from, to, err)
	}
}

// recordAccess appends nodeID to the recent window (spec.md §9: "rewritten
// as a whole on each access, so an atomic swap suffices" — the mutex here
// plays that role).
func (p *prefetchLearner) recordAccess(nodeID types.NodeID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	filtered := p.recent[:0:0]
	for _, id := range p.recent {
		if id != nodeID {
			filtered = append(filtered, id)
		}
	}
	filtered = append(filtered, nodeID)
	if len(filtered) > recentWindowSize {
		filtered = filtered[len(filtered)-recentWindowSize:]
	}
	p.recent = filtered
	p.analyze()
}

// analyze pairs the most recent id with every older id in the window,
// recording "from_old -> to_new" patterns (spec.md §4.1).
func (p *prefetchLearner) analyze() {
	if len(p.recent) < 2 {
		return
	}
	newest := p.recent[len(p.recent)-1]
	for _, older := range p.recent[:len(p.recent)-1] {
		if older == newest {
			continue
		}
		p.addPattern(older, newest)
	}
}

func (p *prefetchLearner) addPattern(from, to types.NodeID) {
	list := p.patterns[from]
	for i, w := range list {
		if w.target == to {
			list[i].weight++
			p.persist(from, to, list[i].weight)
			return
		}
	}
	list = append(list, weighted{target: to, weight: 1})
	if len(list) > maxPatternsPerSource {
		// drop the lowest-weight entry
		minIdx := 0
		for i, w := range list {
			if w.weight < list[minIdx].weight {
				minIdx = i
			}
		}
		list = append(list[:minIdx], list[minIdx+1:]...)
	}
	p.patterns[from] = list
	p.persist(from, to, 1)
}

// Lookup returns the learned targets for nodeID, ordered by descending
// weight, capped at 5 (spec.md §3).
func (p *prefetchLearner) Lookup(nodeID types.NodeID) []types.NodeID {
	p.mu.Lock()
	defer p.mu.Unlock()

	list := p.patterns[nodeID]
	out := make([]types.NodeID, 0, len(list))
	// simple insertion-sorted copy, descending weight
	sorted := append([]weighted(nil), list...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].weight > sorted[j-1].weight; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	for _, w := range sorted {
		out = append(out, w.target)
	}
	return out
}

func (p *prefetchLearner) patternCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, list := range p.patterns {
		n += len(list)
	}
	return n
}

// topPatterns returns up to n (source, target, weight) triples sorted by
// weight descending, for Cache.Stats()'s "top patterns".
func (p *prefetchLearner) topPatterns(n int) []TopPattern {
	p.mu.Lock()
	defer p.mu.Unlock()

	var all []TopPattern
	for src, list := range p.patterns {
		for _, w := range list {
			all = append(all, TopPattern{From: src, To: w.target, Weight: w.weight})
		}
	}
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].Weight > all[j-1].Weight; j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// TopPattern is one learned "from -> to" prefetch pattern.
type TopPattern struct {
	From   types.NodeID
	To     types.NodeID
	Weight int
}
