package display

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielchen8624/smartdim/curve"
)

func TestQuantizeRampIdentity(t *testing.T) {
	rgb := curve.Identity(256)

	ramp := quantizeRamp(rgb.R, 256)

	assert.Equal(t, uint16(0), ramp[0])
	assert.Equal(t, uint16(math.MaxUint16), ramp[255])
	assert.Equal(t, identityRamp(256), ramp)
}

func TestQuantizeRampResamples(t *testing.T) {
	c := curve.Curve{0, 0.5, 1}

	ramp := quantizeRamp(c, 5)

	assert.Equal(t, uint16(0), ramp[0])
	assert.Equal(t, uint16(32768), ramp[2])
	assert.Equal(t, uint16(math.MaxUint16), ramp[4])

	for i := 1; i < len(ramp); i++ {
		assert.GreaterOrEqual(t, ramp[i], ramp[i-1])
	}
}

func TestQuantizeRampDegenerate(t *testing.T) {
	assert.Equal(t, []uint16{}, quantizeRamp(nil, 0))
	assert.Equal(t, []uint16{0, 0}, quantizeRamp(nil, 2))

	// A single-entry ramp samples the curve at zero.
	assert.Equal(t, []uint16{0}, quantizeRamp(curve.Curve{0, 1}, 1))
}

func TestIdentityRampEndpoints(t *testing.T) {
	ramp := identityRamp(1024)

	assert.Equal(t, uint16(0), ramp[0])
	assert.Equal(t, uint16(math.MaxUint16), ramp[1023])
	assert.Equal(t, uint16(32800), ramp[512])
}
