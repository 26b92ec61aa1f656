package planner

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nodebridge-labs/nodebridge/internal/cache"
	"github.com/nodebridge-labs/nodebridge/internal/codec"
	"github.com/nodebridge-labs/nodebridge/internal/obslog"
	"github.com/nodebridge-labs/nodebridge/internal/types"
)

var standardCronParser = cron.NewParser(
	cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow,
)

func parseCronExpressionUTC(expr string) (cron.Schedule, error) {
	clean := strings.TrimSpace(expr)
	if clean == "" {
		return nil, fmt.Errorf("cron expression is required")
	}
	upper := strings.ToUpper(clean)
	if strings.Contains(upper, "CRON_TZ=") || strings.Contains(upper, "TZ=") {
		return nil, fmt.Errorf("cron expression must be UTC-only (timezone prefixes are not allowed)")
	}
	schedule, err := standardCronParser.Parse(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule, nil
}

// TreeSource resolves the current root of a previously-fetched tree for a
// given node id, so the scheduler can re-plan without issuing a fresh fetch.
type TreeSource func(nodeID types.NodeID) (*types.ParsedNode, bool)

// Scheduler periodically re-runs Plan against whatever tree TreeSource
// currently holds, combined with the cache's learned prefetch patterns
// (spec.md §4.1 "periodically (or on demand)", SPEC_FULL.md §4.5 "scheduled
// re-planning"). Results are handed to OnPlan; the scheduler itself holds no
// plan history.
type Scheduler struct {
	mu     sync.Mutex
	cron   *cron.Cron
	cache  *cache.Cache
	source TreeSource
	cfg    Config
	OnPlan func(nodeID types.NodeID, resp codec.PlanTasksResponse)
}

// NewScheduler builds a Scheduler that runs in its own goroutine once
// Start(expr) is called. source resolves the tree for the node ids it is
// asked to replan.
func NewScheduler(c *cache.Cache, source TreeSource, cfg Config) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		cache:  c,
		source: source,
		cfg:    cfg,
	}
}

// Start schedules periodic replanning of the nodes surfaced by the cache's
// top prefetch patterns, using expr as a standard 5-field UTC cron
// expression. Returns an error if expr is invalid or carries a timezone
// prefix.
func (s *Scheduler) Start(expr string) error {
	if _, err := parseCronExpressionUTC(expr); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.cron.AddFunc(expr, s.replanTick)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.mu.Unlock()
	if c != nil {
		c.Stop()
	}
}

func (s *Scheduler) replanTick() {
	snap := s.cache.Stats()
	for _, p := range snap.TopPatterns {
		root, ok := s.source(p.From)
		if !ok {
			continue
		}
		resp := Plan(root, s.cfg)
		obslog.Component("planner.scheduler", "replanned %s: %s", p.From, resp.Summary)
		if s.OnPlan != nil {
			s.OnPlan(p.From, resp)
		}
	}
}
