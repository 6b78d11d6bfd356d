package vocoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWarpZeroAmountIsIdentityWarp(t *testing.T) {
	src := []float32{0, 1, 2, 3, 4, 5, 6, 7}
	dst := make([]float32, len(src))
	Warp(src, dst, 0)
	for i := range src {
		assert.InDelta(t, src[i], dst[i], 1e-3)
	}
}

func TestWarpEmptySourceIsANoOp(t *testing.T) {
	var src, dst []float32
	assert.NotPanics(t, func() { Warp(src, dst, 0.5) })
}

func TestWarpRow5DuplicatesRow4(t *testing.T) {
	// pos = warp*5 maxes out at 5 when warp=1, so rowHi clamps to 5 and
	// frac is 0 there - row 5's duplicated coefficients never actually
	// change the result versus row 4 alone.
	assert.Equal(t, warpCoefficients[4], warpCoefficients[5])
}

func TestWarpPolynomialEvaluatesCubic(t *testing.T) {
	// row 0 is {0,0,1,0}: g(f) = 0 + f*(1 + f*(0 + 0*f)) = f
	assert.InDelta(t, 0.37, warpPolynomial(0, 0.37), 1e-5)
}

func TestSampleLinearClampsOutOfRangeIndices(t *testing.T) {
	src := []float32{1, 2, 3}
	assert.Equal(t, float32(1), sampleLinear(src, -5))
	assert.Equal(t, float32(3), sampleLinear(src, 50))
}

func TestSampleLinearInterpolatesBetweenSamples(t *testing.T) {
	src := []float32{0, 10}
	assert.InDelta(t, 5, sampleLinear(src, 0.5), 1e-5)
}
