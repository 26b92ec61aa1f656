package types

import (
	"encoding/json"
	"strings"
)

// rawNode mirrors the subset of the external design API's JSON node shape
// this implementation understands. Field names follow the common
// Figma-style REST document; unrecognized fields are ignored by
// encoding/json's default decoding (the "skip what we don't know" rule
// mirrored from the binary codec, spec.md §4.3).
type rawNode struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Type     string     `json:"type"`
	Box      *rawBox    `json:"absoluteBoundingBox"`
	Rotation float64    `json:"rotation"`

	Fills   []rawPaint `json:"fills"`
	Strokes []rawPaint `json:"strokes"`
	StrokeWeight float64 `json:"strokeWeight"`
	Effects []rawEffect `json:"effects"`

	Opacity          *float64   `json:"opacity"`
	CornerRadius     *float64   `json:"cornerRadius"`
	RectangleCornerRadii *[4]float64 `json:"rectangleCornerRadii"`

	LayoutMode              string  `json:"layoutMode"`
	PaddingTop              float64 `json:"paddingTop"`
	PaddingRight            float64 `json:"paddingRight"`
	PaddingBottom           float64 `json:"paddingBottom"`
	PaddingLeft             float64 `json:"paddingLeft"`
	ItemSpacing             float64 `json:"itemSpacing"`
	PrimaryAxisAlignItems   string  `json:"primaryAxisAlignItems"`
	CounterAxisAlignItems   string  `json:"counterAxisAlignItems"`
	LayoutSizingHorizontal  string  `json:"layoutSizingHorizontal"`
	LayoutSizingVertical    string  `json:"layoutSizingVertical"`

	Characters *string     `json:"characters"`
	Style      *rawStyle   `json:"style"`

	ComponentID *string    `json:"componentId"`
	Children    []rawNode  `json:"children"`
}

type rawBox struct{ X, Y, Width, Height float64 }

type rawPaint struct {
	Type      string        `json:"type"`
	Visible   *bool         `json:"visible"`
	Opacity   *float64      `json:"opacity"`
	Color     *rawColor     `json:"color"`
	Stops     []rawStop     `json:"gradientStops"`
	ImageRef  string        `json:"imageRef"`
	ScaleMode string        `json:"scaleMode"`
}

type rawColor struct{ R, G, B, A float64 }

type rawStop struct {
	Position float64  `json:"position"`
	Color    rawColor `json:"color"`
}

type rawEffect struct {
	Type    string    `json:"type"`
	Visible *bool     `json:"visible"`
	Radius  float64   `json:"radius"`
	Color   *rawColor `json:"color"`
	Offset  *struct{ X, Y float64 } `json:"offset"`
	Spread  *float64  `json:"spread"`
}

type rawStyle struct {
	FontFamily    string  `json:"fontFamily"`
	FontWeight    int     `json:"fontWeight"`
	FontSize      float64 `json:"fontSize"`
	LineHeightPx  float64 `json:"lineHeightPx"`
	LetterSpacing float64 `json:"letterSpacing"`
	TextAlignHorizontal string `json:"textAlignHorizontal"`
	TextCase      string  `json:"textCase"`
}

// ParseNode decodes one design-API JSON node document (and its children,
// recursively) into the ParsedNode lingua franca, truncating at
// MaxParsedDepth (spec.md §3 invariant).
func ParseNode(raw json.RawMessage) (*ParsedNode, error) {
	var rn rawNode
	if err := json.Unmarshal(raw, &rn); err != nil {
		return nil, err
	}
	return rn.toParsedNode(0, MaxParsedDepth), nil
}

func (rn rawNode) toParsedNode(depth, maxDepth int) *ParsedNode {
	n := &ParsedNode{
		ID:           NodeID(rn.ID),
		Name:         rn.Name,
		Type:         normalizeNodeType(rn.Type),
		Rotation:     rn.Rotation,
		StrokeWeight: rn.StrokeWeight,
		LayoutMode:   normalizeLayoutMode(rn.LayoutMode),
		Padding: Padding{
			Top: rn.PaddingTop, Right: rn.PaddingRight,
			Bottom: rn.PaddingBottom, Left: rn.PaddingLeft,
		},
		Gap:          rn.ItemSpacing,
		PrimaryAlign: normalizeAlign(rn.PrimaryAxisAlignItems),
		CounterAlign: normalizeAlign(rn.CounterAxisAlignItems),
		HorizontalSizing: normalizeSizing(rn.LayoutSizingHorizontal),
		VerticalSizing:   normalizeSizing(rn.LayoutSizingVertical),
		ComponentID:  rn.ComponentID,
		TextContent:  rn.Characters,
	}
	if rn.Box != nil {
		n.Box = &BoundingBox{X: rn.Box.X, Y: rn.Box.Y, W: rn.Box.Width, H: rn.Box.Height}
	}
	if rn.Opacity != nil {
		n.Opacity = *rn.Opacity
	} else {
		n.Opacity = 1
	}
	if rn.CornerRadius != nil {
		n.CornerRadius = *rn.CornerRadius
	}
	n.CornerRadii = rn.RectangleCornerRadii
	for _, f := range rn.Fills {
		n.Fills = append(n.Fills, f.toPaint())
	}
	for _, s := range rn.Strokes {
		n.Strokes = append(n.Strokes, s.toPaint())
	}
	for _, e := range rn.Effects {
		n.Effects = append(n.Effects, e.toEffect())
	}
	if rn.Style != nil {
		n.Typography = &Typography{
			FontFamily: rn.Style.FontFamily, FontWeight: rn.Style.FontWeight,
			FontSize: rn.Style.FontSize, LineHeight: rn.Style.LineHeightPx,
			LetterSpacing: rn.Style.LetterSpacing, TextAlign: rn.Style.TextAlignHorizontal,
			TextCase: rn.Style.TextCase,
		}
	}
	if depth >= maxDepth {
		return n
	}
	for _, c := range rn.Children {
		n.Children = append(n.Children, c.toParsedNode(depth+1, maxDepth))
	}
	return n
}

func (p rawPaint) toPaint() Paint {
	visible := true
	if p.Visible != nil {
		visible = *p.Visible
	}
	opacity := 1.0
	if p.Opacity != nil {
		opacity = *p.Opacity
	}
	out := Paint{
		Type:      normalizePaintType(p.Type),
		Visible:   visible,
		Opacity:   opacity,
		ImageRef:  p.ImageRef,
		ScaleMode: p.ScaleMode,
	}
	if p.Color != nil {
		c := p.Color.toRGBA()
		out.Color = &c
	}
	for _, s := range p.Stops {
		out.Stops = append(out.Stops, GradientStop{Position: s.Position, Color: s.Color.toRGBA()})
	}
	return out
}

func (c rawColor) toRGBA() RGBA {
	return RGBA{R: c.R, G: c.G, B: c.B, A: c.A}.Clamp()
}

func (e rawEffect) toEffect() Effect {
	visible := true
	if e.Visible != nil {
		visible = *e.Visible
	}
	out := Effect{
		Type:    normalizeEffectType(e.Type),
		Visible: visible,
		Radius:  e.Radius,
		Spread:  e.Spread,
	}
	if e.Color != nil {
		c := e.Color.toRGBA()
		out.Color = &c
	}
	if e.Offset != nil {
		out.Offset = &Offset{X: e.Offset.X, Y: e.Offset.Y}
	}
	return out
}

func normalizeNodeType(s string) NodeType {
	if s == "BOOLEAN_OPERATION" {
		return NodeBooleanOp
	}
	if s == strings.ToUpper(s) {
		// the design API spells types in upper snake case (FRAME, REGULAR_POLYGON)
		var b strings.Builder
		for _, word := range strings.Split(strings.ToLower(s), "_") {
			if word != "" {
				b.WriteString(strings.ToUpper(word[:1]) + word[1:])
			}
		}
		s = b.String()
	}
	switch NodeType(s) {
	case NodeFrame, NodeGroup, NodeCanvas, NodeDocument, NodeText, NodeRectangle,
		NodeVector, NodeLine, NodeStar, NodeEllipse, NodeRegularPolygon, NodeComponent,
		NodeComponentSet, NodeInstance, NodeBooleanOp, NodeSection, NodeSlice, NodeSticky:
		return NodeType(s)
	default:
		return NodeUnknown
	}
}

func normalizeLayoutMode(s string) LayoutMode {
	switch s {
	case "HORIZONTAL", string(LayoutHorizontal):
		return LayoutHorizontal
	case "VERTICAL", string(LayoutVertical):
		return LayoutVertical
	default:
		return LayoutNone
	}
}

func normalizeAlign(s string) Align {
	switch s {
	case "MIN":
		return AlignMin
	case "CENTER":
		return AlignCenter
	case "MAX":
		return AlignMax
	case "SPACE_BETWEEN":
		return AlignSpaceBetween
	case "BASELINE":
		return AlignBaseline
	default:
		return AlignMin
	}
}

func normalizeSizing(s string) Sizing {
	switch s {
	case "FIXED":
		return SizingFixed
	case "HUG":
		return SizingHug
	case "FILL":
		return SizingFill
	default:
		return SizingFixed
	}
}

func normalizePaintType(s string) PaintType {
	switch s {
	case "SOLID":
		return PaintSolid
	case "GRADIENT_LINEAR":
		return PaintGradientLinear
	case "GRADIENT_RADIAL":
		return PaintGradientRadial
	case "GRADIENT_ANGULAR":
		return PaintGradientAngular
	case "GRADIENT_DIAMOND":
		return PaintGradientDiamond
	case "IMAGE":
		return PaintImage
	case "EMOJI":
		return PaintEmoji
	default:
		return PaintSolid
	}
}

func normalizeEffectType(s string) EffectType {
	switch s {
	case "DROP_SHADOW":
		return EffectDropShadow
	case "INNER_SHADOW":
		return EffectInnerShadow
	case "LAYER_BLUR":
		return EffectLayerBlur
	case "BACKGROUND_BLUR":
		return EffectBackgroundBlur
	default:
		return EffectDropShadow
	}
}
