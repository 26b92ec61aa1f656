package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodebridge-labs/nodebridge/internal/types"
)

func sampleTree() *types.ParsedNode {
	text := "hello"
	return &types.ParsedNode{
		ID: "1:1", Name: "Root", Type: types.NodeFrame,
		LayoutMode: types.LayoutVertical, Gap: 8,
		Padding: types.Padding{Top: 4, Right: 4, Bottom: 4, Left: 4},
		Box:     &types.BoundingBox{W: 300, H: 400},
		Children: []*types.ParsedNode{
			{
				ID: "1:2", Name: "Card", Type: types.NodeRectangle,
				CornerRadius: 8,
				Fills:        []types.Paint{{Type: types.PaintSolid, Visible: true, Color: &types.RGBA{R: 1}}},
			},
			{
				ID: "1:3", Name: "Label", Type: types.NodeText,
				TextContent: &text,
				Typography:  &types.Typography{FontFamily: "Inter", FontSize: 14},
			},
			{
				ID: "1:4", Name: "Icon", Type: types.NodeVector,
			},
		},
	}
}

func TestPlanClassifiesTiers(t *testing.T) {
	resp := Plan(sampleTree(), Config{})
	require.Len(t, resp.Tasks, 4)

	byID := map[string]uint64{}
	for _, task := range resp.Tasks {
		byID[task.NodeID] = task.Priority
	}
	assert.Equal(t, uint64(TierLayout), byID["1:1"])
	assert.Equal(t, uint64(TierStyle), byID["1:2"])
	assert.Equal(t, uint64(TierText), byID["1:3"])
	assert.Equal(t, uint64(TierSpecialist), byID["1:4"])
}

func TestPlanOrdersByTierThenPreOrder(t *testing.T) {
	resp := Plan(sampleTree(), Config{})
	var ids []string
	for _, task := range resp.Tasks {
		ids = append(ids, task.NodeID)
	}
	assert.Equal(t, []string{"1:1", "1:2", "1:3", "1:4"}, ids)
}

func TestPlanDependenciesPointToParent(t *testing.T) {
	resp := Plan(sampleTree(), Config{})
	for _, task := range resp.Tasks {
		if task.NodeID == "1:1" {
			assert.Empty(t, task.Dependencies)
		} else {
			assert.Equal(t, []string{"1:1"}, task.Dependencies)
		}
	}
}

func TestPlanLayoutPromotesLowerTier(t *testing.T) {
	n := &types.ParsedNode{
		ID: "2:1", Name: "AutoLayoutVector", Type: types.NodeVector,
		LayoutMode: types.LayoutHorizontal,
	}
	resp := Plan(n, Config{})
	require.Len(t, resp.Tasks, 1)
	assert.Equal(t, uint64(TierLayout), resp.Tasks[0].Priority)
}

func TestPlanEffectsFloorsAtStyle(t *testing.T) {
	n := &types.ParsedNode{
		ID: "2:2", Name: "GlowVector", Type: types.NodeVector,
		Effects: []types.Effect{{Type: types.EffectDropShadow, Visible: true}},
	}
	resp := Plan(n, Config{})
	require.Len(t, resp.Tasks, 1)
	assert.Equal(t, uint64(TierStyle), resp.Tasks[0].Priority)
}

func TestPlanEstimatedTokensFormula(t *testing.T) {
	n := &types.ParsedNode{
		ID: "3:1", Type: types.NodeFrame, LayoutMode: types.LayoutVertical,
		Fills:   []types.Paint{{}, {}},
		Effects: []types.Effect{{}},
		TextContent: strPtr("x"),
		Children: []*types.ParsedNode{{ID: "3:2"}},
	}
	resp := Plan(n, Config{})
	require.Len(t, resp.Tasks, 2)
	// 50 + 30(layout) + 10*2(fills) + 20*1(effect) + 40(typography) + 20*1(children)
	assert.Equal(t, uint64(50+30+20+20+40+20), resp.Tasks[0].EstimatedTokens)
}

func TestPlanRespectsMaxTasks(t *testing.T) {
	resp := Plan(sampleTree(), Config{MaxTasks: 2})
	assert.Len(t, resp.Tasks, 2)
}

func TestPlanSemanticDSLAndHintsPopulated(t *testing.T) {
	resp := Plan(sampleTree(), Config{})
	for _, task := range resp.Tasks {
		assert.NotEmpty(t, task.SemanticDSL)
	}
	card := resp.Tasks[1]
	assert.NotEmpty(t, card.Hints)
}

func strPtr(s string) *string { return &s }
