package vocoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTextureBankAllocatesEveryTextureSlice(t *testing.T) {
	tb := NewTextureBank(16)
	for i := 0; i < NumTextures; i++ {
		require.Len(t, tb.Magnitude[i], 16)
	}
	assert.Len(t, tb.Phase, 16)
	assert.Len(t, tb.PhaseDelta, 16)
}

func TestPrimedGatesAfterEightFrames(t *testing.T) {
	tb := NewTextureBank(4)
	assert.False(t, tb.Primed())
	for i := 0; i < 7; i++ {
		tb.Prime()
	}
	assert.False(t, tb.Primed())
	tb.Prime()
	assert.True(t, tb.Primed())
	tb.Prime() // must not overflow or un-prime
	assert.True(t, tb.Primed())
}

func TestNearestTexturesClampsAtEnds(t *testing.T) {
	lo, hi, frac := nearestTextures(0)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 1, hi)
	assert.Equal(t, float32(0), frac)

	lo, hi, _ = nearestTextures(1)
	assert.Equal(t, NumTextures-1, lo)
	assert.Equal(t, NumTextures-1, hi)
}

func TestStoreMagnitudesProbabilisticMaskWritesWithZeroRngAndPositiveFeedback(t *testing.T) {
	tb := NewTextureBank(4)
	mag := []float32{1, 2, 3, 4}
	rng := func() float32 { return 0 } // rng()*65535=0 < threshold so it always writes when feedback>0
	tb.StoreMagnitudes(mag, 0, 0.1, rng)
	assert.Equal(t, mag, tb.Magnitude[0])
}

func TestStoreMagnitudesSlowEvolutionRegimeMovesTowardNewValueGradually(t *testing.T) {
	tb := NewTextureBank(2)
	tb.Magnitude[0] = []float32{0, 0}
	mag := []float32{1, 1}
	tb.StoreMagnitudes(mag, 0, 1, nil) // feedback=1 selects the slow-evolution branch
	assert.Greater(t, tb.Magnitude[0][0], float32(0))
	assert.Less(t, tb.Magnitude[0][0], float32(1))
}

func TestReadMagnitudesEqualPowerCrossfadeAtMidpoint(t *testing.T) {
	tb := NewTextureBank(1)
	tb.Magnitude[0][0] = 1
	tb.Magnitude[1][0] = 1
	out := make([]float32, 1)
	tb.ReadMagnitudes(1.0/float32(NumTextures-1), out)
	assert.InDelta(t, 1, out[0], 1e-3, "equal-power crossfade of two equal textures reproduces the same level")
}

func TestEqualPowerGainsSumToUnityPowerAcrossRange(t *testing.T) {
	for _, x := range []float32{0, 0.25, 0.5, 0.75, 1} {
		fadeOut, fadeIn := equalPower(x)
		power := fadeOut*fadeOut + fadeIn*fadeIn
		assert.InDelta(t, 1, power, 1e-4)
	}
}
