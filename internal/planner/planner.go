// Package planner turns a parsed subtree into an ordered implementation
// plan, grouped by expected visual-impact tier (spec.md §4.5).
package planner

import (
	"fmt"
	"strings"

	"github.com/nodebridge-labs/nodebridge/internal/codec"
	"github.com/nodebridge-labs/nodebridge/internal/dsl"
	"github.com/nodebridge-labs/nodebridge/internal/types"
)

// Tier is the numeric priority assigned to a Task; lower sorts first.
type Tier uint64

const (
	TierLayout     Tier = iota // P1
	TierStyle                  // P2
	TierText                   // P3
	TierSpecialist             // P4
)

// Config bounds a single Plan call.
type Config struct {
	MaxTasks uint64 // 0 means unbounded
}

// Plan walks root in pre-order, classifies each node into a tier, and
// returns an ordered PlanTasksResponse (spec.md §4.5 "Output order").
func Plan(root *types.ParsedNode, cfg Config) codec.PlanTasksResponse {
	if root == nil {
		return codec.PlanTasksResponse{}
	}

	type built struct {
		task  codec.Task
		tier  Tier
		order int // pre-order index, for stable intra-tier sort
	}

	var all []built
	order := 0
	var walk func(n *types.ParsedNode, parent string)
	walk = func(n *types.ParsedNode, parent string) {
		tier := classify(n)
		id := string(n.ID)
		task := codec.Task{
			ID:              id,
			NodeID:          id,
			NodeName:        n.Name,
			NodeType:        string(n.Type),
			Priority:        uint64(tier),
			EstimatedTokens: estimatedTokens(n),
			SemanticDSL:     dsl.Render(n.WithoutChildren(), dsl.FormatFidelity),
			Hints:           hints(n),
		}
		if parent != "" {
			task.Dependencies = []string{parent}
		}
		all = append(all, built{task: task, tier: tier, order: order})
		order++
		for _, c := range n.Children {
			walk(c, id)
		}
	}
	walk(root, "")

	// stable sort by tier, preserving pre-order within a tier (spec.md §4.5
	// "intra-tier order stable (pre-order traversal)").
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && lessTier(all[j], all[j-1]); j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}

	var resp codec.PlanTasksResponse
	resp.RootNodeID = string(root.ID)
	var total uint64
	for _, b := range all {
		if cfg.MaxTasks > 0 && uint64(len(resp.Tasks)) >= cfg.MaxTasks {
			break
		}
		resp.Tasks = append(resp.Tasks, b.task)
		total += b.task.EstimatedTokens
	}
	resp.TotalEstimatedTokens = total
	resp.Summary = summarize(resp.Tasks)
	return resp
}

// lessTier orders by tier first, then by original pre-order index — an
// insertion sort keeps this stable without relying on sort.SliceStable's
// reflection cost for what is typically a small slice.
func lessTier(a, b struct {
	task  codec.Task
	tier  Tier
	order int
}) bool {
	if a.tier != b.tier {
		return a.tier < b.tier
	}
	return a.order < b.order
}

// classify assigns the priority tier per spec.md §4.5's table, applying the
// layout-promotion and effects/radius floor rules.
func classify(n *types.ParsedNode) Tier {
	tier := baseTier(n)

	if n.HasLayout() && tier > TierLayout {
		tier = TierLayout
	}
	if (len(n.Effects) > 0 || n.CornerRadius > 0) && tier > TierStyle {
		tier = TierStyle
	}
	return tier
}

func baseTier(n *types.ParsedNode) Tier {
	switch n.Type {
	case types.NodeFrame, types.NodeGroup, types.NodeSection:
		return TierLayout
	case types.NodeRectangle, types.NodeComponent, types.NodeComponentSet, types.NodeInstance:
		return TierStyle
	case types.NodeText:
		return TierText
	default:
		if n.HasTypography() {
			return TierText
		}
		return TierSpecialist
	}
}

// estimatedTokens applies spec.md §4.5's exact formula.
func estimatedTokens(n *types.ParsedNode) uint64 {
	tokens := 50
	if n.HasLayout() {
		tokens += 30
	}
	tokens += 10 * len(n.Fills)
	tokens += 20 * len(n.Effects)
	if n.HasTypography() {
		tokens += 40
	}
	tokens += 20 * len(n.Children)
	return uint64(tokens)
}

// hints produces short human-readable strings from the same fields that
// drive semantic_dsl (spec.md §4.5).
func hints(n *types.ParsedNode) []string {
	var out []string
	if n.Box != nil {
		out = append(out, fmt.Sprintf("size %.0fx%.0f", n.Box.W, n.Box.H))
	}
	if n.HasLayout() {
		out = append(out, fmt.Sprintf("%s layout, gap %.0f, padding %.0f", strings.ToLower(string(n.LayoutMode)), n.Gap, n.Padding.Mean()))
	}
	if fill := n.FirstSolidFill(); fill != nil && fill.Color != nil {
		out = append(out, fmt.Sprintf("fill #%02x%02x%02x", int(fill.Color.R*255), int(fill.Color.G*255), int(fill.Color.B*255)))
	}
	if n.CornerRadius > 0 {
		out = append(out, fmt.Sprintf("radius %.0f", n.CornerRadius))
	}
	if n.HasTypography() {
		if n.Typography != nil {
			out = append(out, fmt.Sprintf("typography %s %.0fpx", n.Typography.FontFamily, n.Typography.FontSize))
		} else {
			out = append(out, "text content")
		}
	}
	return out
}

func summarize(tasks []codec.Task) string {
	var counts [4]int
	for _, t := range tasks {
		if t.Priority < 4 {
			counts[t.Priority]++
		}
	}
	return fmt.Sprintf("%d tasks: P1=%d P2=%d P3=%d P4=%d", len(tasks), counts[0], counts[1], counts[2], counts[3])
}
