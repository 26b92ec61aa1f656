// Package dsl renders a ParsedNode into one of the terse textual formats
// consumed by LLM clients (spec.md §1 lists the specific DSL emitters as an
// out-of-scope external collaborator; this package supplies a minimal,
// concrete implementation satisfying the same Format contract so the
// streaming service has something real to call).
package dsl

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nodebridge-labs/nodebridge/internal/types"
)

// Format selects which renderer GetNodeStream/FidelityLoop use (spec.md §6
// GetNodeRequest.format).
type Format string

const (
	FormatRaw      Format = "raw"
	FormatFidelity Format = "fidelity"
	FormatHTML     Format = "html"
)

// Render dispatches to the renderer named by format, defaulting to fidelity
// when the format is unrecognized (an unknown-field-like leniency, not a
// hard error — malformed *requests* fail per spec.md §4.2, but an unknown
// format string is a caller convenience knob, not a required field).
func Render(n *types.ParsedNode, format Format) string {
	switch format {
	case FormatRaw:
		return renderRaw(n)
	case FormatHTML:
		return renderHTML(n)
	case FormatFidelity:
		return renderFidelity(n)
	default:
		return renderFidelity(n)
	}
}

// renderRaw serializes the node's own fields (no children) as JSON — the
// closest analogue to the source API's untouched document shape.
func renderRaw(n *types.ParsedNode) string {
	if n == nil {
		return "{}"
	}
	data, err := json.Marshal(rawView{
		ID:   string(n.ID),
		Name: n.Name,
		Type: string(n.Type),
		Box:  n.Box,
	})
	if err != nil {
		return "{}"
	}
	return string(data)
}

type rawView struct {
	ID   string             `json:"id"`
	Name string             `json:"name"`
	Type string             `json:"type"`
	Box  *types.BoundingBox `json:"box,omitempty"`
}

// renderFidelity is a dense one-line summary built from the same fields the
// task planner uses for semantic_dsl (size, layout direction, gap, first
// solid fill, radius) — terse enough to keep an LLM's context budget small
// while preserving the attributes that drive visual fidelity.
func renderFidelity(n *types.ParsedNode) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%s)", n.Type, n.Name)
	if n.Box != nil {
		fmt.Fprintf(&b, " %.0fx%.0f@%.0f,%.0f", n.Box.W, n.Box.H, n.Box.X, n.Box.Y)
	}
	if n.HasLayout() {
		fmt.Fprintf(&b, " layout=%s gap=%.0f pad=%.0f", n.LayoutMode, n.Gap, n.Padding.Mean())
	}
	if fill := n.FirstSolidFill(); fill != nil && fill.Color != nil {
		fmt.Fprintf(&b, " fill=#%02x%02x%02x", int(fill.Color.R*255), int(fill.Color.G*255), int(fill.Color.B*255))
	}
	if n.CornerRadius > 0 {
		fmt.Fprintf(&b, " radius=%.0f", n.CornerRadius)
	}
	if n.TextContent != nil {
		fmt.Fprintf(&b, " text=%q", truncateText(*n.TextContent, 40))
	}
	return b.String()
}

func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// renderHTML emits a single element carrying the node's geometry and paint
// as inline CSS, the minimal surface the Visual Verification Loop's
// correction engine operates on (spec.md §4.4 operates on "property: Npx"
// declarations).
func renderHTML(n *types.ParsedNode) string {
	if n == nil {
		return ""
	}
	tag := "div"
	if n.Type == types.NodeText {
		tag = "span"
	}
	style := buildStyle(n)
	inner := ""
	if n.TextContent != nil {
		inner = escapeHTML(*n.TextContent)
	}
	for _, c := range n.Children {
		inner += renderHTML(c)
	}
	return fmt.Sprintf(`<%s style="%s">%s</%s>`, tag, style, inner, tag)
}

func buildStyle(n *types.ParsedNode) string {
	var decls []string
	if n.Box != nil {
		decls = append(decls, fmt.Sprintf("width:%.0fpx", n.Box.W), fmt.Sprintf("height:%.0fpx", n.Box.H))
	}
	if n.HasLayout() {
		direction := "row"
		if n.LayoutMode == types.LayoutVertical {
			direction = "column"
		}
		decls = append(decls, "display:flex", fmt.Sprintf("flex-direction:%s", direction))
		decls = append(decls, fmt.Sprintf("gap:%.0fpx", n.Gap))
		decls = append(decls, fmt.Sprintf("padding:%.0fpx", n.Padding.Mean()))
	}
	if fill := n.FirstSolidFill(); fill != nil && fill.Color != nil {
		decls = append(decls, fmt.Sprintf("background-color:rgba(%d,%d,%d,%.2f)",
			int(fill.Color.R*255), int(fill.Color.G*255), int(fill.Color.B*255), fill.Color.A))
	}
	if n.CornerRadius > 0 {
		decls = append(decls, fmt.Sprintf("border-radius:%.0fpx", n.CornerRadius))
	}
	if n.Opacity > 0 && n.Opacity < 1 {
		decls = append(decls, fmt.Sprintf("opacity:%.2f", n.Opacity))
	}
	return strings.Join(decls, ";")
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
