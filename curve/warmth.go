package curve

import "math"

// WarmthParams are the derived tint parameters for one warmth value:
// the target white point in Kelvin, per-channel gains relative to the
// neutral reference, and a mild global dim.
type WarmthParams struct {
	Kelvin float64
	RGain  float64
	GGain  float64
	BGain  float64
	Beta   float64
}

// referenceKelvin is the neutral white point the gains are relative to.
const referenceKelvin = 6500.0

// kelvinToRGB approximates the blackbody color for a white point in
// Kelvin, returning channels in [0, 1]. Tanner Helland's fit, valid
// for 1000K..40000K.
func kelvinToRGB(kelvin float64) (r, g, b float64) {
	k := math.Min(40000, math.Max(1000, kelvin)) / 100

	if k <= 66 {
		r = 255
	} else {
		r = 329.698727446 * math.Pow(k-60, -0.1332047592)
		r = math.Min(255, math.Max(0, r))
	}

	if k <= 66 {
		g = 99.4708025861*math.Log(k) - 161.1195681661
	} else {
		g = 288.1221695283 * math.Pow(k-60, -0.0755148492)
	}
	g = math.Min(255, math.Max(0, g))

	switch {
	case k >= 66:
		b = 255
	case k <= 19:
		b = 0
	default:
		b = 138.5177312231*math.Log(k-10) - 305.0447927307
		b = math.Min(255, math.Max(0, b))
	}

	return r / 255, g / 255, b / 255
}

// kelvinToGains converts a target white point to per-channel gains that
// move the reference white toward it. With preservePeak, the gains are
// rescaled so none exceeds 1.0: no channel may ever need more than full
// output, or the platform clamps highlights into banding.
func kelvinToGains(kelvin float64, preservePeak bool) (rg, gg, bg float64) {
	refR, refG, refB := kelvinToRGB(referenceKelvin)
	tgtR, tgtG, tgtB := kelvinToRGB(kelvin)

	rg = tgtR / math.Max(1e-6, refR)
	gg = tgtG / math.Max(1e-6, refG)
	bg = tgtB / math.Max(1e-6, refB)

	if preservePeak {
		if m := math.Max(rg, math.Max(gg, bg)); m > 1 {
			rg /= m
			gg /= m
			bg /= m
		}
	}

	return rg, gg, bg
}

// warmthBeta derives the mild global dim that accompanies warmth: near
// neutral it barely moves, past s=0.4 it falls toward ~0.90 with the
// falloff biased to the high end.
func warmthBeta(s float64) float64 {
	if s < 0.4 {
		return 1.0 - 0.02*(s/0.4)
	}

	u := (s - 0.4) / 0.6

	return 0.98 - 0.08*math.Pow(u, 1.2)
}

// WarmthParamsFor derives the tint parameters for a warmth control.
// The control maps to a temperature by interpolating in mired space
// (reciprocal megakelvin), which tracks perceived color temperature
// steps far better than interpolating Kelvin directly. ok is false
// when the warmth is neutral and the identity curve applies instead.
func WarmthParamsFor(warmth float64, opts Options) (p WarmthParams, ok bool) {
	if neutral(warmth) {
		return WarmthParams{}, false
	}

	s := remapSlider(clamp01(warmth))

	kelvinMin, kelvinMax := opts.kelvinRange()
	miredMax := 1e6 / kelvinMax
	miredMin := 1e6 / kelvinMin
	mired := miredMax + (miredMin-miredMax)*s
	kelvin := math.Min(kelvinMax, math.Max(kelvinMin, 1e6/mired))

	rg, gg, bg := kelvinToGains(kelvin, true)

	return WarmthParams{
		Kelvin: kelvin,
		RGain:  rg,
		GGain:  gg,
		BGain:  bg,
		Beta:   warmthBeta(s),
	}, true
}

// Warmth builds the color tint curve for a warmth control in [0, 1].
// Each channel gets its gain applied under a soft highlight shoulder,
// then is clamped monotone independently; channels may clip at
// different points, which is intentional. A neutral warmth yields the
// identity ramp.
func Warmth(warmth float64, opts Options) RGB {
	n := opts.samples()

	p, ok := WarmthParamsFor(warmth, opts)
	if !ok {
		return Identity(n)
	}

	return buildTintCurve(n, p, opts.Rolloff)
}

func buildTintCurve(n int, p WarmthParams, rolloff float64) RGB {
	r := make(Curve, n)
	g := make(Curve, n)
	b := make(Curve, n)

	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)

		// Soft shoulder near full output, pulling highlights by up to 7%
		// to hide clipping when a gain sits at the peak.
		t := smoothstep(1-rolloff, 1, x)
		shoulder := 1 - 0.07*t

		r[i] = math.Min(1, x*p.RGain) * shoulder * p.Beta
		g[i] = math.Min(1, x*p.GGain) * shoulder * p.Beta
		b[i] = math.Min(1, x*p.BGain) * shoulder * p.Beta
	}

	clampMonotone(r)
	clampMonotone(g)
	clampMonotone(b)

	return RGB{R: r, G: g, B: b}
}
