package fft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHannWindowIsZeroAtEdgesAndUnityAtCenter(t *testing.T) {
	w := NewHannWindow(65)
	assert.InDelta(t, 0, w.coef[0], 1e-6)
	assert.InDelta(t, 0, w.coef[64], 1e-6)
	assert.InDelta(t, 1, w.coef[32], 1e-6)
}

func TestWindowApplyScalesFrameInPlace(t *testing.T) {
	w := NewHannWindow(4)
	frame := []float32{1, 1, 1, 1}
	w.Apply(frame)
	for i, v := range frame {
		assert.InDelta(t, w.coef[i], v, 1e-6)
	}
}

func TestNewSTFTPanicsWhenSizeNotDivisibleByFour(t *testing.T) {
	assert.Panics(t, func() { NewSTFT(63) })
}

func TestNewSTFTBuildsRingsSizedToFFTPlusHop(t *testing.T) {
	s := NewSTFT(256)
	require.Equal(t, 256, s.n)
	require.Equal(t, 64, s.hop)
	assert.Len(t, s.analysisRing, 256+64)
	assert.Len(t, s.synthRing, 256+64)
}

func TestSTFTProcessSilenceStaysSilent(t *testing.T) {
	s := NewSTFT(256)
	input := make([]int16, 1024)
	output := make([]int16, 1024)
	s.Process(input, output, len(input), 1)
	for _, v := range output {
		assert.Equal(t, int16(0), v)
	}
}

func TestSTFTProcessDoesNotPanicOnSustainedSignal(t *testing.T) {
	s := NewSTFT(256)
	input := make([]int16, 4096)
	for i := range input {
		if i%32 < 16 {
			input[i] = 5000
		} else {
			input[i] = -5000
		}
	}
	output := make([]int16, len(input))
	assert.NotPanics(t, func() {
		s.Process(input, output, len(input), 1)
	})
}

func TestClipInt16ClampsToRange(t *testing.T) {
	assert.Equal(t, int16(32767), clipInt16(40000))
	assert.Equal(t, int16(-32768), clipInt16(-40000))
	assert.Equal(t, int16(100), clipInt16(100))
}
