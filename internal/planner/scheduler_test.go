package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodebridge-labs/nodebridge/internal/cache"
	"github.com/nodebridge-labs/nodebridge/internal/codec"
	"github.com/nodebridge-labs/nodebridge/internal/types"
)

func TestParseCronExpressionUTCRejectsTimezonePrefix(t *testing.T) {
	_, err := parseCronExpressionUTC("CRON_TZ=America/New_York * * * *")
	assert.Error(t, err)
}

func TestParseCronExpressionUTCRejectsEmpty(t *testing.T) {
	_, err := parseCronExpressionUTC("   ")
	assert.Error(t, err)
}

func TestParseCronExpressionUTCAcceptsStandardExpr(t *testing.T) {
	sched, err := parseCronExpressionUTC("*/5 * * * *")
	require.NoError(t, err)
	assert.NotNil(t, sched)
}

func TestSchedulerStartRejectsBadExpr(t *testing.T) {
	c, err := cache.New(cache.Config{MaxL1Entries: 10, L2MaxBytes: 1 << 20, DiskDir: t.TempDir()})
	require.NoError(t, err)
	defer c.Close()

	s := NewScheduler(c, func(types.NodeID) (*types.ParsedNode, bool) { return nil, false }, Config{})
	assert.Error(t, s.Start("not a cron expr"))
}

func TestSchedulerReplanTickInvokesOnPlanForKnownPatterns(t *testing.T) {
	c, err := cache.New(cache.Config{MaxL1Entries: 10, L2MaxBytes: 1 << 20, DiskDir: t.TempDir()})
	require.NoError(t, err)
	defer c.Close()

	c.RecordAccess("1:1")
	c.RecordAccess("1:2")
	// a second pass raises the weight of the 1:1 -> 1:2 pattern, which the
	// learner already recorded on the first pass.
	c.RecordAccess("1:1")
	c.RecordAccess("1:2")

	root := &types.ParsedNode{ID: "1:1", Type: types.NodeFrame}
	var got []codec.PlanTasksResponse
	s := NewScheduler(c, func(id types.NodeID) (*types.ParsedNode, bool) {
		if id == "1:1" {
			return root, true
		}
		return nil, false
	}, Config{})
	s.OnPlan = func(nodeID types.NodeID, resp codec.PlanTasksResponse) {
		got = append(got, resp)
	}

	s.replanTick()
	assert.NotEmpty(t, got)
}
