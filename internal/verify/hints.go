package verify

import (
	"fmt"
	"regexp"
	"strconv"
)

// Correction-rule thresholds (spec.md §4.4 "Region-driven correction
// rules" — "Thresholds are tunable; defaults given").
const (
	edgeBandThreshold       = 0.05
	stripThreshold          = 0.08
	quadrantSpreadThreshold = 0.05
	quadrantThreshold       = 0.10
	nudgePx                 = 1.0
)

// Hint is a single correction, expressed as a pure string rewrite over CSS
// declarations (spec.md §4.4 "Correction application").
type Hint interface {
	Describe() string
	Apply(css string) string
}

// AdjustPadding nudges one or more padding sides; nil fields are untouched.
type AdjustPadding struct {
	Top, Right, Bottom, Left *float64
}

func (h AdjustPadding) Describe() string {
	return fmt.Sprintf("AdjustPadding(top=%s, right=%s, bottom=%s, left=%s)",
		fmtPtr(h.Top), fmtPtr(h.Right), fmtPtr(h.Bottom), fmtPtr(h.Left))
}

func (h AdjustPadding) Apply(css string) string {
	if h.Top != nil {
		css = adjustDeclaration(css, "padding-top", *h.Top)
	}
	if h.Right != nil {
		css = adjustDeclaration(css, "padding-right", *h.Right)
	}
	if h.Bottom != nil {
		css = adjustDeclaration(css, "padding-bottom", *h.Bottom)
	}
	if h.Left != nil {
		css = adjustDeclaration(css, "padding-left", *h.Left)
	}
	if mean, ok := h.meanDelta(); ok {
		css = adjustDeclaration(css, "padding", mean)
	}
	return css
}

func (h AdjustPadding) meanDelta() (float64, bool) {
	var sum float64
	var n int
	for _, p := range []*float64{h.Top, h.Right, h.Bottom, h.Left} {
		if p != nil {
			sum += *p
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// AdjustGap nudges the flex/grid gap.
type AdjustGap struct{ Delta float64 }

func (h AdjustGap) Describe() string   { return fmt.Sprintf("AdjustGap(%+.1f)", h.Delta) }
func (h AdjustGap) Apply(css string) string { return adjustDeclaration(css, "gap", h.Delta) }

// AdjustSize nudges width and height independently.
type AdjustSize struct{ DW, DH float64 }

func (h AdjustSize) Describe() string {
	return fmt.Sprintf("AdjustSize(%+.1f, %+.1f)", h.DW, h.DH)
}

func (h AdjustSize) Apply(css string) string {
	css = adjustDeclaration(css, "width", h.DW)
	css = adjustDeclaration(css, "height", h.DH)
	return css
}

func fmtPtr(p *float64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

// GenerateHints implements spec.md §4.4's region-driven correction rules,
// falling back to SSIM-banded global padding/gap nudges when the region
// breakdown yields nothing actionable.
func GenerateHints(c Comparison) []Hint {
	var hints []Hint

	var top, right, bottom, left *float64
	if c.Regions.EdgeBands[0] > edgeBandThreshold {
		top = f(nudgePx)
	}
	if c.Regions.EdgeBands[1] > edgeBandThreshold {
		right = f(nudgePx)
	}
	if c.Regions.EdgeBands[2] > edgeBandThreshold {
		bottom = f(nudgePx)
	}
	if c.Regions.EdgeBands[3] > edgeBandThreshold {
		left = f(nudgePx)
	}

	if c.Regions.Strips[0] > stripThreshold {
		top = f(addOr(top, nudgePx))
	}
	if c.Regions.Strips[2] > stripThreshold {
		bottom = f(addOr(bottom, nudgePx))
	}

	if top != nil || right != nil || bottom != nil || left != nil {
		hints = append(hints, AdjustPadding{Top: top, Right: right, Bottom: bottom, Left: left})
	}

	maxQ, minQ := c.Regions.Quadrants[0], c.Regions.Quadrants[0]
	anyQuadrantOver := false
	for _, q := range c.Regions.Quadrants {
		if q > maxQ {
			maxQ = q
		}
		if q < minQ {
			minQ = q
		}
		if q > quadrantThreshold {
			anyQuadrantOver = true
		}
	}
	if maxQ-minQ > quadrantSpreadThreshold {
		hints = append(hints, AdjustGap{Delta: nudgePx})
	}
	if anyQuadrantOver {
		hints = append(hints, AdjustSize{DW: nudgePx, DH: nudgePx})
	}

	if len(hints) == 0 {
		hints = fallbackBySSIMBand(c.SSIM)
	}
	return hints
}

func fallbackBySSIMBand(ssim float64) []Hint {
	switch {
	case ssim < 0.90:
		d := 1.0
		return []Hint{AdjustPadding{Top: &d, Right: &d, Bottom: &d, Left: &d}, AdjustGap{Delta: 1.0}}
	case ssim < 0.95:
		d := 0.5
		return []Hint{AdjustPadding{Top: &d, Right: &d, Bottom: &d, Left: &d}}
	case ssim < 0.99:
		d := 0.2
		return []Hint{AdjustPadding{Top: &d, Right: &d, Bottom: &d, Left: &d}}
	default:
		return nil
	}
}

func f(v float64) *float64 { return &v }

func addOr(p *float64, delta float64) float64 {
	if p == nil {
		return delta
	}
	return *p + delta
}

// ApplyHints rewrites css by applying every hint, in the fixed property
// order spec.md §4.4 mandates: padding, gap, size, font-size, border-radius,
// color. Hints only cover padding/gap/size today; the remaining categories
// are reserved for future hint types and are no-ops here.
func ApplyHints(css string, hints []Hint) string {
	for _, h := range hints {
		if _, ok := h.(AdjustPadding); ok {
			css = h.Apply(css)
		}
	}
	for _, h := range hints {
		if _, ok := h.(AdjustGap); ok {
			css = h.Apply(css)
		}
	}
	for _, h := range hints {
		if _, ok := h.(AdjustSize); ok {
			css = h.Apply(css)
		}
	}
	return css
}

var declProperties = []string{
	"padding-top", "padding-right", "padding-bottom", "padding-left", "padding",
	"gap", "width", "height", "font-size", "border-radius",
}

var declPattern = buildDeclPatterns()

func buildDeclPatterns() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(declProperties))
	for _, prop := range declProperties {
		m[prop] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(prop) + `\s*:\s*(-?\d+(?:\.\d+)?)px`)
	}
	return m
}

// adjustDeclaration locates `property: Npx` occurrences and rewrites them to
// `property: (N+delta)px`, clamped at 0 (spec.md §4.4 "Correction
// application"). Unknown/absent selectors are a no-op.
func adjustDeclaration(css, property string, delta float64) string {
	re, ok := declPattern[property]
	if !ok {
		return css
	}
	return re.ReplaceAllStringFunc(css, func(m string) string {
		sub := re.FindStringSubmatch(m)
		if len(sub) != 2 {
			return m
		}
		n, err := strconv.ParseFloat(sub[1], 64)
		if err != nil {
			return m
		}
		n += delta
		if n < 0 {
			n = 0
		}
		return property + ": " + strconv.FormatFloat(n, 'f', -1, 64) + "px"
	})
}
