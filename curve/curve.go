// Package curve builds per-channel display transfer curves (LUTs) from
// two scalar controls: a brightness intensity and a warmth strength,
// each in [0, 1]. Every function here is pure and total over the
// clamped domain; the output is always an in-range, non-decreasing
// curve regardless of parameter pathology.
package curve

import "math"

// Curve is a single-channel transfer curve: samples in [0, 1] taken at
// equally spaced inputs over [0, 1]. A built curve is non-decreasing.
type Curve []float64

// RGB bundles the three channel curves handed to the display pipeline.
type RGB struct {
	R Curve
	G Curve
	B Curve
}

const (
	// Controls at or below this threshold mean "exactly neutral", never
	// "a very small effect".
	neutralEpsilon = 1e-3

	minSamples = 2
	maxSamples = 1024
)

// Options holds the tuning constants for the curve builders. The zero
// value of a field falls back to its default where noted; start from
// DefaultOptions unless you have a reason not to.
type Options struct {
	// Samples is the number of LUT entries per channel. Defaults to 512,
	// clamped to [2, 1024].
	Samples int

	// GuardWidth is the width of the soft band over which subtractive
	// dimming ramps in above the guard luminance.
	GuardWidth float64

	// Rolloff is the top fraction of the input range where the warmth
	// curve shoulders highlights before clipping. Zero disables the
	// shoulder.
	Rolloff float64

	// WhiteCap, when non-zero, clamps the final brightness sample to
	// this ceiling.
	WhiteCap float64

	// KelvinMin and KelvinMax bound the warmth temperature range.
	// Defaults are 1900 and 6500.
	KelvinMin float64
	KelvinMax float64
}

// DefaultOptions returns the tuning the original presets were dialed
// in against.
func DefaultOptions() Options {
	return Options{
		Samples:    512,
		GuardWidth: 0.050,
		Rolloff:    0.08,
		KelvinMin:  1900,
		KelvinMax:  6500,
	}
}

func (o Options) samples() int {
	n := o.Samples
	if n == 0 {
		n = 512
	}
	if n < minSamples {
		n = minSamples
	}
	if n > maxSamples {
		n = maxSamples
	}
	return n
}

func (o Options) kelvinRange() (min, max float64) {
	min, max = o.KelvinMin, o.KelvinMax
	if min <= 0 {
		min = 1900
	}
	if max <= 0 {
		max = 6500
	}
	if min > max {
		min, max = max, min
	}
	return min, max
}

// Identity returns the n-sample identity ramp on all three channels.
func Identity(n int) RGB {
	return RGB{
		R: identityCurve(n),
		G: identityCurve(n),
		B: identityCurve(n),
	}
}

func identityCurve(n int) Curve {
	c := make(Curve, n)
	for i := range c {
		c[i] = float64(i) / float64(n-1)
	}
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func neutral(control float64) bool {
	return clamp01(control) <= neutralEpsilon
}

// clampMonotone clamps every sample into [0, 1], then enforces a
// non-decreasing sequence with a single forward pass. This is the
// universal safety net for the output invariant.
func clampMonotone(c Curve) {
	for i, v := range c {
		c[i] = clamp01(v)
	}
	for i := 1; i < len(c); i++ {
		if c[i] < c[i-1] {
			c[i] = c[i-1]
		}
	}
}

// smoothstep is the Hermite interpolant between edge0 and edge1.
// Callers keep edge1 at least 0.002 above edge0.
func smoothstep(edge0, edge1, x float64) float64 {
	if x <= edge0 {
		return 0
	}
	if x >= edge1 {
		return 1
	}
	t := (x - edge0) / (edge1 - edge0)
	return t * t * (3 - 2*t)
}

// remapSlider warps a raw control so equal slider travel reads as equal
// perceptual change: gamma pre-emphasis for early response, then a
// gentle S curve around the midpoint. Downstream phase boundaries are
// tuned against this exact shape.
func remapSlider(raw float64) float64 {
	s := clamp01(raw)
	s = math.Pow(s, 0.75)
	const k = 0.35
	s = 0.5 + (s-0.5)*(1+k-k*4*math.Abs(s-0.5))
	// The S curve spans [k/2, 1-k/2]; renormalize so the endpoints land
	// exactly on 0 and 1. The clamp flattens the sliver of overshoot
	// next to each endpoint, keeping the remap non-decreasing.
	s = (s - k/2) / (1 - k)
	return clamp01(s)
}
