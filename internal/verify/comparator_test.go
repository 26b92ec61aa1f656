package verify

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCompareIdenticalImagesScorePerfectly(t *testing.T) {
	img := solidImage(16, 16, color.RGBA{R: 100, G: 150, B: 200, A: 255})
	c := Compare(img, img)
	assert.InDelta(t, 1.0, c.SSIM, 1e-6)
	assert.InDelta(t, 0, c.DeltaE, 1e-6)
	assert.Equal(t, int64(0), c.PixelDiffCount)
	assert.Equal(t, 16, c.OverlapWidth)
	assert.Equal(t, 16, c.OverlapHeight)
}

func TestCompareDifferentColorsYieldLowerSSIMAndNonzeroDeltaE(t *testing.T) {
	ref := solidImage(16, 16, color.RGBA{R: 0, G: 0, B: 0, A: 255})
	cand := solidImage(16, 16, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	c := Compare(ref, cand)
	assert.Less(t, c.SSIM, 1.0)
	assert.Greater(t, c.DeltaE, 50.0)
	assert.Equal(t, int64(16*16), c.PixelDiffCount)
}

func TestCompareUsesOverlapOfMismatchedDimensions(t *testing.T) {
	ref := solidImage(20, 10, color.RGBA{A: 255})
	cand := solidImage(12, 16, color.RGBA{A: 255})
	c := Compare(ref, cand)
	assert.Equal(t, 12, c.OverlapWidth)
	assert.Equal(t, 10, c.OverlapHeight)
}

func TestHumanSSIMPenalizesColorDistance(t *testing.T) {
	assert.InDelta(t, 1.0, HumanSSIM(1.0, 0), 1e-9)
	assert.InDelta(t, 0.5, HumanSSIM(1.0, 25), 1e-9)
	assert.InDelta(t, 0, HumanSSIM(1.0, 100), 1e-9) // clamped at zero penalty max
}

func TestRegionBreakdownFlagsHalfDifferingImage(t *testing.T) {
	w, h := 16, 16
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	ref := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ref.Set(x, y, color.RGBA{R: 0, G: 0, B: 0, A: 255})
			if x < w/2 {
				img.Set(x, y, color.RGBA{R: 0, G: 0, B: 0, A: 255})
			} else {
				img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			}
		}
	}
	c := Compare(ref, img)
	// right-side quadrants/edge should show near-total diff, left-side near zero
	assert.Greater(t, c.Regions.Quadrants[1], 0.9) // top-right
	assert.Less(t, c.Regions.Quadrants[0], 0.1)    // top-left
	assert.Greater(t, c.Regions.EdgeBands[1], 0.9) // right edge
}
