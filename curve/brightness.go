package curve

import "math"

// BrightnessParams are the derived dimming parameters for one intensity
// value: subtractive dimming ramps in above Guard over a soft band of
// GuardWidth, Offset is the amount subtracted above the band, and Beta
// is a final uniform multiplier.
type BrightnessParams struct {
	Guard      float64
	GuardWidth float64
	Offset     float64
	Beta       float64
}

// Phase boundaries of the intensity mapping, on the remapped scalar.
const (
	splitA = 1.0 / 3.0
	splitB = 2.0 / 3.0
)

// brightnessParams maps a remapped intensity to dimming parameters over
// three contiguous phases. Low intensity pulls whites down first and
// leaves mid-tones alone; only the top phase brings in heavy global
// dimming. Each parameter is continuous across the phase boundaries.
func brightnessParams(s, guardWidth float64) BrightnessParams {
	var guard, offset, beta float64

	switch {
	case s <= splitA:
		u := s / splitA
		guard = 0.94 - 0.10*u
		offset = 0.00 + 0.14*u
		beta = 1.00 - 0.03*u
	case s <= splitB:
		u := (s - splitA) / (splitB - splitA)
		guard = 0.84 - 0.24*u
		offset = 0.14 + 0.12*u
		beta = 0.97 - 0.07*u
	default:
		u := (s - splitB) / (1.0 - splitB)
		guard = 0.60 - 0.22*u
		offset = 0.26 + 0.18*u

		const (
			betaStart = 0.90
			betaFloor = 0.55
		)
		beta = betaStart - (betaStart-betaFloor)*u
	}

	return BrightnessParams{
		Guard:      guard,
		GuardWidth: guardWidth,
		Offset:     offset,
		Beta:       beta,
	}
}

// BrightnessParamsFor derives the dimming parameters for an intensity
// control. ok is false when the intensity is neutral and the identity
// curve applies instead.
func BrightnessParamsFor(intensity float64, opts Options) (p BrightnessParams, ok bool) {
	if neutral(intensity) {
		return BrightnessParams{}, false
	}

	return brightnessParams(remapSlider(clamp01(intensity)), opts.GuardWidth), true
}

// Brightness builds the subtractive guard-banded dimming curve for an
// intensity control in [0, 1]. Brightness has no color component, so
// all three channels receive the identical curve. A neutral intensity
// yields the identity ramp.
func Brightness(intensity float64, opts Options) RGB {
	n := opts.samples()

	p, ok := BrightnessParamsFor(intensity, opts)
	if !ok {
		return Identity(n)
	}

	c := buildBrightnessCurve(n, p, opts.WhiteCap)

	return RGB{
		R: c,
		G: append(Curve(nil), c...),
		B: append(Curve(nil), c...),
	}
}

func buildBrightnessCurve(n int, p BrightnessParams, whiteCap float64) Curve {
	edge0 := p.Guard
	edge1 := math.Min(0.999, p.Guard+math.Max(0.002, p.GuardWidth))

	c := make(Curve, n)

	for i := range c {
		x := float64(i) / float64(n-1)

		// Subtractive compression above the guard, blended in softly so
		// tones inside the band keep their local contrast.
		ySub := math.Max(0, x-p.Offset)
		w := smoothstep(edge0, edge1, x)
		y := (1-w)*x + w*ySub

		c[i] = y * p.Beta
	}

	// The white cap is a ceiling: capping only the final sample would be
	// undone by the monotone pass whenever its neighbor sits above the
	// cap.
	if whiteCap > 0 {
		for i, v := range c {
			if v > whiteCap {
				c[i] = whiteCap
			}
		}
	}

	clampMonotone(c)

	return c
}
