// Package types defines the parsed-node data model shared by every layer of
// nodebridge: the cache, the streaming service, the verification loop, and
// the task planner all exchange ParsedNode values rather than raw JSON.
package types

import "sort"

// FileKey identifies a remote design file. Kept as a distinct type (rather
// than bare string) so a FileKey can never be passed where a NodeID is
// expected.
type FileKey string

// NodeID identifies a node within a file. Canonical form uses ':' as the
// segment separator; see internal/idnorm for the '-' -> ':' normalization
// applied at every ingress point.
type NodeID string

// NodeType is the tagged variant of a ParsedNode.
type NodeType string

const (
	NodeFrame          NodeType = "Frame"
	NodeGroup          NodeType = "Group"
	NodeCanvas         NodeType = "Canvas"
	NodeDocument       NodeType = "Document"
	NodeText           NodeType = "Text"
	NodeRectangle      NodeType = "Rectangle"
	NodeVector         NodeType = "Vector"
	NodeLine           NodeType = "Line"
	NodeStar           NodeType = "Star"
	NodeEllipse        NodeType = "Ellipse"
	NodeRegularPolygon NodeType = "RegularPolygon"
	NodeComponent      NodeType = "Component"
	NodeComponentSet   NodeType = "ComponentSet"
	NodeInstance       NodeType = "Instance"
	NodeBooleanOp      NodeType = "BooleanOp"
	NodeSection        NodeType = "Section"
	NodeSlice          NodeType = "Slice"
	NodeSticky         NodeType = "Sticky"
	NodeUnknown        NodeType = "Unknown"
)

// LayoutMode selects auto-layout direction.
type LayoutMode string

const (
	LayoutNone       LayoutMode = "None"
	LayoutHorizontal LayoutMode = "Horizontal"
	LayoutVertical   LayoutMode = "Vertical"
)

// Align is used for both primary and counter axis alignment.
type Align string

const (
	AlignMin          Align = "Min"
	AlignCenter       Align = "Center"
	AlignMax          Align = "Max"
	AlignSpaceBetween Align = "SpaceBetween"
	AlignBaseline     Align = "Baseline"
)

// Sizing is used for both horizontal and vertical axis sizing.
type Sizing string

const (
	SizingFixed Sizing = "Fixed"
	SizingHug   Sizing = "Hug"
	SizingFill  Sizing = "Fill"
)

// BoundingBox is in absolute canvas coordinates.
type BoundingBox struct {
	X, Y, W, H float64
}

// Padding is the four-tuple used by auto layout.
type Padding struct {
	Top, Right, Bottom, Left float64
}

func (p Padding) Mean() float64 {
	return (p.Top + p.Right + p.Bottom + p.Left) / 4
}

// RGBA channels lie in [0,1].
type RGBA struct {
	R, G, B, A float64
}

// Clamp folds each channel back into [0,1].
func (c RGBA) Clamp() RGBA {
	clamp := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	return RGBA{clamp(c.R), clamp(c.G), clamp(c.B), clamp(c.A)}
}

// PaintType is the tagged variant of a Paint.
type PaintType string

const (
	PaintSolid            PaintType = "Solid"
	PaintGradientLinear   PaintType = "GradientLinear"
	PaintGradientRadial   PaintType = "GradientRadial"
	PaintGradientAngular  PaintType = "GradientAngular"
	PaintGradientDiamond  PaintType = "GradientDiamond"
	PaintImage            PaintType = "Image"
	PaintEmoji            PaintType = "Emoji"
)

// GradientStop is one color stop along a gradient.
type GradientStop struct {
	Position float64
	Color    RGBA
}

// Paint is a fill or stroke entry.
type Paint struct {
	Type       PaintType
	Visible    bool
	Opacity    float64
	Color      *RGBA
	Stops      []GradientStop
	ImageRef   string
	ScaleMode  string
}

// EffectType is the tagged variant of an Effect.
type EffectType string

const (
	EffectDropShadow      EffectType = "DropShadow"
	EffectInnerShadow     EffectType = "InnerShadow"
	EffectLayerBlur       EffectType = "LayerBlur"
	EffectBackgroundBlur  EffectType = "BackgroundBlur"
)

// Offset is a 2D pixel offset.
type Offset struct{ X, Y float64 }

// Effect is a shadow or blur applied to a node.
type Effect struct {
	Type    EffectType
	Visible bool
	Radius  float64
	Color   *RGBA
	Offset  *Offset
	Spread  *float64
}

// Typography describes text styling.
type Typography struct {
	FontFamily   string
	FontWeight   int
	FontSize     float64
	LineHeight   float64
	LetterSpacing float64
	TextAlign    string
	TextCase     string
}

// MaxParsedDepth is the default maximum depth a parsed tree may reach;
// deeper subtrees are truncated, not cycled (the source graph is a tree).
const MaxParsedDepth = 20

// ParsedNode is the lingua franca consumed by all downstream emitters.
type ParsedNode struct {
	ID       NodeID
	Name     string
	Type     NodeType

	Box      *BoundingBox
	Rotation float64

	Fills   []Paint
	Strokes []Paint
	StrokeWeight float64
	Effects []Effect

	Opacity      float64
	CornerRadius float64
	CornerRadii  *[4]float64

	LayoutMode LayoutMode
	Padding    Padding
	Gap        float64

	PrimaryAlign Align
	CounterAlign Align

	HorizontalSizing Sizing
	VerticalSizing   Sizing

	TextContent *string
	Typography  *Typography

	ComponentID *string

	Children []*ParsedNode
}

// HasLayout reports whether the node participates in auto layout.
func (n *ParsedNode) HasLayout() bool {
	return n != nil && n.LayoutMode != LayoutNone && n.LayoutMode != ""
}

// HasTypography reports whether the node carries typography or text content.
func (n *ParsedNode) HasTypography() bool {
	return n != nil && (n.Typography != nil || n.TextContent != nil)
}

// FirstSolidFill returns the first visible solid fill, if any.
func (n *ParsedNode) FirstSolidFill() *Paint {
	if n == nil {
		return nil
	}
	for i := range n.Fills {
		f := &n.Fills[i]
		if f.Visible && f.Type == PaintSolid {
			return f
		}
	}
	return nil
}

// FirstImageFill returns the first visible image fill, if any. ImageRef is
// only populated on PaintImage paints.
func (n *ParsedNode) FirstImageFill() *Paint {
	if n == nil {
		return nil
	}
	for i := range n.Fills {
		f := &n.Fills[i]
		if f.Visible && f.Type == PaintImage {
			return f
		}
	}
	return nil
}

// Walk invokes fn for n and every descendant in pre-order (parent before
// children, children in order). Stops early if fn returns false.
func (n *ParsedNode) Walk(fn func(node *ParsedNode, depth int) bool) {
	n.walk(0, fn)
}

func (n *ParsedNode) walk(depth int, fn func(node *ParsedNode, depth int) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n, depth) {
		return false
	}
	for _, c := range n.Children {
		if !c.walk(depth+1, fn) {
			return false
		}
	}
	return true
}

// TruncateDepth returns a copy of the tree with anything deeper than maxDepth
// removed. maxDepth <= 0 uses MaxParsedDepth.
func (n *ParsedNode) TruncateDepth(maxDepth int) *ParsedNode {
	if n == nil {
		return nil
	}
	if maxDepth <= 0 {
		maxDepth = MaxParsedDepth
	}
	return n.truncate(0, maxDepth)
}

func (n *ParsedNode) truncate(depth, maxDepth int) *ParsedNode {
	cp := *n
	if depth >= maxDepth {
		cp.Children = nil
		return &cp
	}
	if len(n.Children) == 0 {
		return &cp
	}
	cp.Children = make([]*ParsedNode, len(n.Children))
	for i, c := range n.Children {
		cp.Children[i] = c.truncate(depth+1, maxDepth)
	}
	return &cp
}

// WithoutChildren returns a shallow copy of n with Children cleared, used by
// the recursive streamer to render a DSL fragment representing exactly one
// node's own content.
func (n *ParsedNode) WithoutChildren() *ParsedNode {
	if n == nil {
		return nil
	}
	cp := *n
	cp.Children = nil
	return &cp
}

// Options is an ordered, de-duplicated, sorted string slice used to
// fingerprint cache lookups (spec: "options-fingerprinted key").
type Options []string

// Fingerprint returns the sorted, ':'-joined option string.
func (o Options) Fingerprint() string {
	if len(o) == 0 {
		return ""
	}
	dedup := make(map[string]struct{}, len(o))
	out := make([]string, 0, len(o))
	for _, s := range o {
		if _, ok := dedup[s]; ok {
			continue
		}
		dedup[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	joined := ""
	for i, s := range out {
		if i > 0 {
			joined += ":"
		}
		joined += s
	}
	return joined
}
