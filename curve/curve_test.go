package curve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertMonotoneInRange(t *testing.T, c Curve) {
	t.Helper()

	for i, v := range c {
		assert.GreaterOrEqual(t, v, 0.0, "sample %d below range", i)
		assert.LessOrEqual(t, v, 1.0, "sample %d above range", i)

		if i > 0 {
			assert.GreaterOrEqual(t, v, c[i-1], "sample %d decreasing", i)
		}
	}
}

func assertRGBMonotoneInRange(t *testing.T, rgb RGB) {
	t.Helper()

	assertMonotoneInRange(t, rgb.R)
	assertMonotoneInRange(t, rgb.G)
	assertMonotoneInRange(t, rgb.B)
}

func TestRemapSlider(t *testing.T) {
	assert.Equal(t, 0.0, remapSlider(0))
	assert.Equal(t, 1.0, remapSlider(1))

	// Out-of-range inputs clamp before the warp runs.
	assert.Equal(t, 0.0, remapSlider(-3))
	assert.Equal(t, 1.0, remapSlider(7))

	prev := 0.0
	for i := 1; i <= 1000; i++ {
		s := remapSlider(float64(i) / 1000)
		assert.GreaterOrEqual(t, s, prev, "remap not monotone at %d", i)
		prev = s
	}
}

func TestSmoothstep(t *testing.T) {
	assert.Equal(t, 0.0, smoothstep(0.2, 0.8, 0.1))
	assert.Equal(t, 0.0, smoothstep(0.2, 0.8, 0.2))
	assert.Equal(t, 1.0, smoothstep(0.2, 0.8, 0.8))
	assert.Equal(t, 1.0, smoothstep(0.2, 0.8, 0.9))
	assert.InDelta(t, 0.5, smoothstep(0.2, 0.8, 0.5), 1e-12)

	// Hermite value at t=0.25.
	got := smoothstep(0, 1, 0.25)
	assert.InDelta(t, 0.25*0.25*(3-2*0.25), got, 1e-12)
}

func TestClampMonotone(t *testing.T) {
	c := Curve{-0.5, 0.2, 0.1, 1.7, 0.9}
	clampMonotone(c)
	assert.Equal(t, Curve{0, 0.2, 0.2, 1, 1}, c)
}

var curveGridTests = []struct {
	Name      string
	Intensity float64
	Warmth    float64
	Samples   int
}{
	{"neutral-ish", 0.001, 0.001, 256},
	{"low", 0.1, 0.1, 256},
	{"mid", 0.5, 0.5, 512},
	{"high", 0.9, 0.9, 512},
	{"max", 1.0, 1.0, 512},
	{"tiny-n", 0.7, 0.3, 2},
	{"odd-n", 0.33, 0.66, 333},
	{"over-range", 2.5, -1.0, 512},
}

func TestCurvesMonotoneInRange(t *testing.T) {
	for _, tt := range curveGridTests {
		t.Run(tt.Name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Samples = tt.Samples

			assertRGBMonotoneInRange(t, Brightness(tt.Intensity, opts))
			assertRGBMonotoneInRange(t, Warmth(tt.Warmth, opts))

			if rgb, ok := Combined(tt.Intensity, tt.Warmth, opts); ok {
				assertRGBMonotoneInRange(t, rgb)
				assert.Len(t, rgb.R, opts.samples())
				assert.Len(t, rgb.G, opts.samples())
				assert.Len(t, rgb.B, opts.samples())
			}
		})
	}
}

func TestCombinedNeutralIsRestoreSentinel(t *testing.T) {
	_, ok := Combined(0, 0, DefaultOptions())
	assert.False(t, ok, "both controls neutral must signal restore, not a curve")

	// The threshold is inclusive.
	_, ok = Combined(1e-3, 1e-3, DefaultOptions())
	assert.False(t, ok)

	_, ok = Combined(-5, 0.0005, DefaultOptions())
	assert.False(t, ok)
}

func TestCombinedSingleControl(t *testing.T) {
	opts := DefaultOptions()

	// Neutral intensity: the composed curve is exactly the warmth curve,
	// because resampling through the identity ramp hits every index.
	composed, ok := Combined(0, 0.8, opts)
	require.True(t, ok)
	assert.Equal(t, Warmth(0.8, opts), composed)

	// Neutral warmth: the composed curve is the brightness curve up to
	// nearest-sample quantization.
	composed, ok = Combined(0.8, 0, opts)
	require.True(t, ok)

	want := Brightness(0.8, opts)
	step := 0.5 / float64(opts.samples()-1)
	for i := range want.R {
		assert.InDelta(t, want.R[i], composed.R[i], step)
	}
}

func TestCombinedIdempotent(t *testing.T) {
	opts := DefaultOptions()

	a, okA := Combined(0.42, 0.77, opts)
	b, okB := Combined(0.42, 0.77, opts)

	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, a, b)
}

func TestBrightnessIdentityShortCircuit(t *testing.T) {
	opts := DefaultOptions()
	opts.Samples = 8

	got := Brightness(1e-3, opts)
	assert.Equal(t, Identity(8), got)
}

func TestBrightnessPhaseContinuity(t *testing.T) {
	const eps = 1e-9

	for _, split := range []float64{splitA, splitB} {
		lo := brightnessParams(split, 0.05)
		hi := brightnessParams(split+eps, 0.05)

		assert.InDelta(t, lo.Guard, hi.Guard, 1e-6, "guard jumps at %f", split)
		assert.InDelta(t, lo.Offset, hi.Offset, 1e-6, "offset jumps at %f", split)
		assert.InDelta(t, lo.Beta, hi.Beta, 1e-6, "beta jumps at %f", split)
	}
}

func TestBrightnessFullIntensity(t *testing.T) {
	opts := DefaultOptions()

	p, ok := BrightnessParamsFor(1.0, opts)
	require.True(t, ok)

	// remapSlider(1) == 1, the deep end of phase C.
	assert.InDelta(t, 0.38, p.Guard, 1e-9)
	assert.InDelta(t, 0.44, p.Offset, 1e-9)
	assert.InDelta(t, 0.55, p.Beta, 1e-9)

	rgb := Brightness(1.0, opts)
	n := opts.samples()

	assert.Equal(t, 0.0, rgb.R[0])
	assert.InDelta(t, (1-p.Offset)*p.Beta, rgb.R[n-1], 1e-9)

	// Brightness has no color component.
	assert.Equal(t, rgb.R, rgb.G)
	assert.Equal(t, rgb.R, rgb.B)
}

func TestBrightnessWhiteCap(t *testing.T) {
	opts := DefaultOptions()
	opts.Samples = 64
	opts.WhiteCap = 0.10

	rgb := Brightness(0.2, opts)

	assert.Equal(t, 0.10, rgb.R[63])
	assertRGBMonotoneInRange(t, rgb)
}

func TestBrightnessDegenerateGuardWidth(t *testing.T) {
	// A collapsed soft band must still produce a monotone in-range
	// curve; the 0.002 floor and the monotone clamp cover it.
	opts := DefaultOptions()
	opts.GuardWidth = 0

	assertRGBMonotoneInRange(t, Brightness(0.6, opts))
}

func TestWarmthIdentityShortCircuit(t *testing.T) {
	opts := DefaultOptions()
	opts.Samples = 16

	assert.Equal(t, Identity(16), Warmth(0.0005, opts))
}

func TestWarmthFullStrengthClampsKelvin(t *testing.T) {
	p, ok := WarmthParamsFor(1.0, DefaultOptions())
	require.True(t, ok)

	assert.InDelta(t, 1900, p.Kelvin, 1e-6)
	assert.LessOrEqual(t, math.Max(p.RGain, math.Max(p.GGain, p.BGain)), 1.0+1e-9)

	// Fully warm pushes red to the peak and pulls blue well down.
	assert.Greater(t, p.RGain, p.GGain)
	assert.Greater(t, p.GGain, p.BGain)
}

func TestWarmthGainsPreservePeak(t *testing.T) {
	for s := 0.05; s <= 1.0; s += 0.05 {
		p, ok := WarmthParamsFor(s, DefaultOptions())
		require.True(t, ok, "s=%f", s)

		m := math.Max(p.RGain, math.Max(p.GGain, p.BGain))
		assert.LessOrEqual(t, m, 1.0+1e-9, "peak gain exceeds full output at s=%f", s)
	}
}

func TestWarmthBetaDecay(t *testing.T) {
	assert.InDelta(t, 1.0, warmthBeta(0), 1e-12)
	assert.InDelta(t, 0.98, warmthBeta(0.4), 1e-12)
	assert.InDelta(t, 0.90, warmthBeta(1.0), 1e-12)

	prev := warmthBeta(0)
	for s := 0.01; s <= 1.0; s += 0.01 {
		b := warmthBeta(s)
		assert.LessOrEqual(t, b, prev+1e-12, "beta not decaying at s=%f", s)
		prev = b
	}
}

func TestKelvinToGainsNeutral(t *testing.T) {
	rg, gg, bg := kelvinToGains(referenceKelvin, true)

	assert.InDelta(t, 1.0, rg, 1e-9)
	assert.InDelta(t, 1.0, gg, 1e-9)
	assert.InDelta(t, 1.0, bg, 1e-9)
}

func TestComposeIdentityBase(t *testing.T) {
	base := Identity(4)
	tint := RGB{
		R: Curve{0, 0.5, 0.8, 1},
		G: Curve{0, 0.5, 0.8, 1},
		B: Curve{0, 0.5, 0.8, 1},
	}

	// Index round-trip through the identity ramp is a no-op.
	assert.Equal(t, tint, Compose(base, tint))
}

func TestComposePreservesMonotonicity(t *testing.T) {
	base := Brightness(0.7, DefaultOptions())
	tint := Warmth(0.9, DefaultOptions())

	assertRGBMonotoneInRange(t, Compose(base, tint))
}

func TestOptionsNormalization(t *testing.T) {
	assert.Equal(t, 512, Options{}.samples())
	assert.Equal(t, 2, Options{Samples: 1}.samples())
	assert.Equal(t, 1024, Options{Samples: 4096}.samples())

	min, max := Options{}.kelvinRange()
	assert.Equal(t, 1900.0, min)
	assert.Equal(t, 6500.0, max)
}
