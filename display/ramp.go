package display

import (
	"math"

	"github.com/danielchen8624/smartdim/curve"
)

// quantizeRamp resamples a transfer curve onto an output's gamma ramp,
// mapping [0, 1] samples to the full uint16 range. Nearest-sample
// lookup, same as the compositor.
func quantizeRamp(c curve.Curve, size int) []uint16 {
	ramp := make([]uint16, size)
	if len(c) == 0 {
		return ramp
	}

	last := float64(len(c) - 1)

	for i := range ramp {
		var x float64
		if size > 1 {
			x = float64(i) / float64(size-1)
		}

		v := c[int(math.Round(x*last))]
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}

		ramp[i] = uint16(v*math.MaxUint16 + 0.5)
	}

	return ramp
}

// identityRamp is the native linear ramp, used to restore defaults.
func identityRamp(size int) []uint16 {
	ramp := make([]uint16, size)

	for i := range ramp {
		if size > 1 {
			ramp[i] = uint16(float64(i)/float64(size-1)*math.MaxUint16 + 0.5)
		}
	}

	return ramp
}
