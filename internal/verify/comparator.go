package verify

import (
	"image"
	"math"
)

// pixelDiffThreshold is the luma delta (0-255 scale) above which a pixel is
// counted as "differing" for region/pixel-diff purposes.
const pixelDiffThreshold = 10.0

// ssimWindow is the fixed, non-overlapping window size used for SSIM
// (spec.md §9 Open Question, resolved in SPEC_FULL.md §4.4: "fixed 8x8
// non-overlapping SSIM windows").
const ssimWindow = 8

// lumaWeights are ITU-R BT.601 luma coefficients (SPEC_FULL.md §4.4).
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Compare implements spec.md §4.4 step 2: a single in-process comparator
// over the overlapping region of reference and candidate, grayscale luma
// BT.601, 8x8 SSIM windows. No Node-side subprocess comparator is used
// (SPEC_FULL.md §4.4).
func Compare(reference, candidate image.Image) Comparison {
	refGray, rw, rh := toLuma(reference)
	candGray, cw, ch := toLuma(candidate)

	w, h := rw, rh
	if cw < w {
		w = cw
	}
	if ch < h {
		h = ch
	}

	var sumSq float64
	var diffCount int64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := refGray[y*rw+x] - candGray[y*cw+x]
			sumSq += d * d
			if math.Abs(d) > pixelDiffThreshold {
				diffCount++
			}
		}
	}
	total := float64(w * h)
	mse := 0.0
	if total > 0 {
		mse = sumSq / total
	}
	psnr := math.Inf(1)
	if mse > 0 {
		psnr = 10 * math.Log10((255*255)/mse)
	}

	ssim := ssimOverWindows(refGray, rw, candGray, cw, w, h)
	deltaE := averageDeltaE(reference, candidate, w, h)

	return Comparison{
		SSIM:           ssim,
		MSE:            mse,
		PSNR:           psnr,
		DeltaE:         deltaE,
		PixelDiffCount: diffCount,
		OverlapWidth:   w,
		OverlapHeight:  h,
		Regions:        regionBreakdown(refGray, rw, candGray, cw, w, h),
	}
}

// toLuma converts an image to a row-major BT.601 luma slice in [0,255].
func toLuma(img image.Image) (luma []float64, w, h int) {
	b := img.Bounds()
	w, h = b.Dx(), b.Dy()
	luma = make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// RGBA() returns 16-bit channels; fold down to 8-bit.
			luma[y*w+x] = lumaR*float64(r>>8) + lumaG*float64(g>>8) + lumaB*float64(bb>>8)
		}
	}
	return luma, w, h
}

func ssimOverWindows(ref []float64, refW int, cand []float64, candW int, w, h int) float64 {
	const c1 = (0.01 * 255) * (0.01 * 255)
	const c2 = (0.03 * 255) * (0.03 * 255)

	var total float64
	var count int
	for y0 := 0; y0 < h; y0 += ssimWindow {
		for x0 := 0; x0 < w; x0 += ssimWindow {
			y1 := min(y0+ssimWindow, h)
			x1 := min(x0+ssimWindow, w)
			total += windowSSIM(ref, refW, cand, candW, x0, y0, x1, y1, c1, c2)
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return total / float64(count)
}

func windowSSIM(ref []float64, refW int, cand []float64, candW int, x0, y0, x1, y1 int, c1, c2 float64) float64 {
	n := float64((x1 - x0) * (y1 - y0))
	if n == 0 {
		return 1
	}
	var sumA, sumB float64
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			sumA += ref[y*refW+x]
			sumB += cand[y*candW+x]
		}
	}
	meanA, meanB := sumA/n, sumB/n

	var varA, varB, covAB float64
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			da := ref[y*refW+x] - meanA
			db := cand[y*candW+x] - meanB
			varA += da * da
			varB += db * db
			covAB += da * db
		}
	}
	varA /= n
	varB /= n
	covAB /= n

	numerator := (2*meanA*meanB + c1) * (2*covAB + c2)
	denominator := (meanA*meanA + meanB*meanB + c1) * (varA + varB + c2)
	if denominator == 0 {
		return 1
	}
	return numerator / denominator
}

// averageDeltaE averages CIE76 ΔE over the overlap region. A full
// CIEDE2000/OKLab implementation is an out-of-scope "similarity metric
// library" (spec.md §1); this hand-rolled sRGB->XYZ->Lab->ΔE76 pipeline is
// the stdlib-only stand-in, documented here rather than imported from the
// pack (no example repo carries a color-science dependency).
func averageDeltaE(reference, candidate image.Image, w, h int) float64 {
	rb := reference.Bounds()
	cb := candidate.Bounds()
	var sum float64
	var count int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r1, g1, b1, _ := reference.At(rb.Min.X+x, rb.Min.Y+y).RGBA()
			r2, g2, b2, _ := candidate.At(cb.Min.X+x, cb.Min.Y+y).RGBA()
			l1, a1, bb1 := rgbToLab(r1>>8, g1>>8, b1>>8)
			l2, a2, bb2 := rgbToLab(r2>>8, g2>>8, b2>>8)
			dl, da, db := l1-l2, a1-a2, bb1-bb2
			sum += math.Sqrt(dl*dl + da*da + db*db)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func rgbToLab(r, g, b uint32) (l, a, bOut float64) {
	srgbToLinear := func(c float64) float64 {
		c /= 255
		if c <= 0.04045 {
			return c / 12.92
		}
		return math.Pow((c+0.055)/1.055, 2.4)
	}
	rl := srgbToLinear(float64(r))
	gl := srgbToLinear(float64(g))
	bl := srgbToLinear(float64(b))

	// sRGB -> XYZ (D65).
	x := rl*0.4124564 + gl*0.3575761 + bl*0.1804375
	y := rl*0.2126729 + gl*0.7151522 + bl*0.0721750
	z := rl*0.0193339 + gl*0.1191920 + bl*0.9503041

	const xn, yn, zn = 0.95047, 1.0, 1.08883
	f := func(t float64) float64 {
		if t > 0.008856 {
			return math.Cbrt(t)
		}
		return 7.787*t + 16.0/116.0
	}
	fx, fy, fz := f(x/xn), f(y/yn), f(z/zn)

	l = 116*fy - 16
	a = 500 * (fx - fy)
	bOut = 200 * (fy - fz)
	return l, a, bOut
}

// regionBreakdown computes the diff fraction per quadrant/strip/edge-band
// view (spec.md §4.4 step 2).
func regionBreakdown(ref []float64, refW int, cand []float64, candW int, w, h int) RegionBreakdown {
	var rb RegionBreakdown

	midX, midY := w/2, h/2
	rb.Quadrants[0] = diffFraction(ref, refW, cand, candW, 0, 0, midX, midY)
	rb.Quadrants[1] = diffFraction(ref, refW, cand, candW, midX, 0, w, midY)
	rb.Quadrants[2] = diffFraction(ref, refW, cand, candW, 0, midY, midX, h)
	rb.Quadrants[3] = diffFraction(ref, refW, cand, candW, midX, midY, w, h)

	stripH := h / 3
	rb.Strips[0] = diffFraction(ref, refW, cand, candW, 0, 0, w, stripH)
	rb.Strips[1] = diffFraction(ref, refW, cand, candW, 0, stripH, w, 2*stripH)
	rb.Strips[2] = diffFraction(ref, refW, cand, candW, 0, 2*stripH, w, h)

	edgeW, edgeH := max(w/8, 1), max(h/8, 1)
	rb.EdgeBands[0] = diffFraction(ref, refW, cand, candW, 0, 0, w, edgeH)          // top
	rb.EdgeBands[1] = diffFraction(ref, refW, cand, candW, w-edgeW, 0, w, h)        // right
	rb.EdgeBands[2] = diffFraction(ref, refW, cand, candW, 0, h-edgeH, w, h)        // bottom
	rb.EdgeBands[3] = diffFraction(ref, refW, cand, candW, 0, 0, edgeW, h)          // left

	return rb
}

func diffFraction(ref []float64, refW int, cand []float64, candW int, x0, y0, x1, y1 int) float64 {
	n := (x1 - x0) * (y1 - y0)
	if n <= 0 {
		return 0
	}
	var diff int
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if math.Abs(ref[y*refW+x]-cand[y*candW+x]) > pixelDiffThreshold {
				diff++
			}
		}
	}
	return float64(diff) / float64(n)
}
