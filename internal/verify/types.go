// Package verify implements the Visual Verification Loop (spec.md §4.4):
// given a reference raster and candidate markup, decide whether the markup
// renders close enough and, if not, derive a minimal set of CSS corrections
// that move it closer. The loop terminates deterministically within
// max_iterations.
package verify

import (
	"context"
	"image"
)

// Renderer is the external markup-to-raster collaborator (spec.md §1 lists
// "the external renderer invocation" as out of scope for this repo; Renderer
// is the seam a caller plugs a real headless-browser renderer into).
type Renderer interface {
	Render(ctx context.Context, html string, width, height int) (image.Image, error)
}

// Config holds the Inputs of spec.md §4.4.
type Config struct {
	TargetScore    float64 // default 0.99
	MaxIterations  int     // default 5
	ViewportWidth  int     // default 375
	ViewportHeight int     // default 812
}

// DefaultConfig returns spec.md §4.4's stated defaults.
func DefaultConfig() Config {
	return Config{TargetScore: 0.99, MaxIterations: 5, ViewportWidth: 375, ViewportHeight: 812}
}

func (c Config) withDefaults() Config {
	if c.TargetScore == 0 {
		c.TargetScore = 0.99
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = 5
	}
	if c.ViewportWidth == 0 {
		c.ViewportWidth = 375
	}
	if c.ViewportHeight == 0 {
		c.ViewportHeight = 812
	}
	return c
}

// RegionBreakdown is the comparator's region analysis (spec.md §4.4 "a
// region breakdown into three views"), each entry a fraction of pixels
// differing within that region.
type RegionBreakdown struct {
	Quadrants [4]float64 // top-left, top-right, bottom-left, bottom-right
	Strips    [3]float64 // top, middle, bottom
	EdgeBands [4]float64 // top, right, bottom, left
}

// Comparison is the comparator's full result for one candidate/reference
// pair (spec.md §4.4 step 2).
type Comparison struct {
	SSIM           float64
	MSE            float64
	PSNR           float64
	DeltaE         float64
	PixelDiffCount int64
	OverlapWidth   int
	OverlapHeight  int
	Regions        RegionBreakdown
}

// HumanSSIM computes spec.md §4.4 step 3's perceptually-weighted score.
func HumanSSIM(ssim, deltaE float64) float64 {
	penalty := deltaE / 50
	if penalty > 1 {
		penalty = 1
	}
	return ssim * (1 - penalty)
}

// IterationRecord is one entry of the loop's trace (spec.md §4.4 "Trace").
type IterationRecord struct {
	Step               int
	SSIM               float64
	DeltaE             float64
	HumanSSIM          float64
	HTMLPath           string
	PNGPath            string
	CorrectionsThisStep []Hint
}

// Result is the loop's terminal record (spec.md §4.4 "Failure semantics":
// "The loop never throws to the caller; it returns a result record").
type Result struct {
	RunID           string
	Passed          bool
	Iterations      int
	FinalHTML       string
	EvolutionHistory []IterationRecord
	Error           string
}
