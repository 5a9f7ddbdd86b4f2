package curve

import "math"

// Compose composes two curves as functions, out(x) = tint(base(x)),
// modelling "first dim, then tint the dimmed value". Each base output
// is resampled against the tint curve by nearest-sample lookup, which
// is plenty at 256+ samples relative to perceptual step size.
//
// Both curves should share the same length; the index math runs against
// the tint curve's own sample count, so mismatched lengths silently
// distort rather than fail. Matching lengths is a precondition, not a
// runtime check.
func Compose(base, tint RGB) RGB {
	return RGB{
		R: composeChannel(base.R, tint.R),
		G: composeChannel(base.G, tint.G),
		B: composeChannel(base.B, tint.B),
	}
}

func composeChannel(base, tint Curve) Curve {
	out := make(Curve, len(base))
	last := float64(len(tint) - 1)

	for i, y := range base {
		j := int(math.Round(clamp01(y) * last))
		out[i] = tint[j]
	}

	return out
}

// Combined is the single entry point for the engine: it builds the
// brightness and warmth curves for the two controls and composes them.
// ok is false exactly when both controls are neutral; the caller must
// then restore platform defaults rather than install anything, because
// an identity LUT and "no LUT installed" are not guaranteed equivalent
// on every platform.
func Combined(intensity, warmth float64, opts Options) (rgb RGB, ok bool) {
	if neutral(intensity) && neutral(warmth) {
		return RGB{}, false
	}

	base := Brightness(intensity, opts)
	tint := Warmth(warmth, opts)

	return Compose(base, tint), true
}
