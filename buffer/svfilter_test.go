package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSVFilterLowpassTracksDCOverTime(t *testing.T) {
	var f SVFilter
	var out Outputs
	for i := 0; i < 500; i++ {
		out = f.Process(1, 0.2, 0.1, 1, 1)
	}
	assert.Greater(t, out.LP, float32(0), "lowpass output should settle toward a positive DC input")
}

func TestSVFilterOutputsStayWithinUnitRange(t *testing.T) {
	var f SVFilter
	for i := 0; i < 1000; i++ {
		out := f.Process(1, 1, 1, 1, 1)
		assert.LessOrEqual(t, out.LP, float32(1))
		assert.GreaterOrEqual(t, out.LP, float32(-1))
		assert.LessOrEqual(t, out.BP, float32(1))
		assert.GreaterOrEqual(t, out.BP, float32(-1))
		assert.LessOrEqual(t, out.HP, float32(1))
		assert.GreaterOrEqual(t, out.HP, float32(-1))
	}
}

func TestSVFilterResetZeroesAllThreeOutputs(t *testing.T) {
	var f SVFilter
	f.Process(1, 0.5, 0.5, 1, 1)
	f.Reset()
	assert.Equal(t, float32(0), f.lp)
	assert.Equal(t, float32(0), f.bp)
	assert.Equal(t, float32(0), f.hp)
}

func TestHighPassRemovesDCOverTime(t *testing.T) {
	h := NewHighPass(48000)
	var out float32
	for i := 0; i < 5000; i++ {
		out = h.Process(1, 200)
	}
	assert.InDelta(t, 0, out, 0.05, "a one-pole high-pass must converge toward zero under sustained DC")
}

func TestHighPassResetClearsState(t *testing.T) {
	h := NewHighPass(48000)
	h.Process(1, 200)
	h.Reset()
	assert.Equal(t, float32(0), h.state)
}

func TestLowPassTracksStepInput(t *testing.T) {
	l := NewLowPass(48000)
	var out float32
	for i := 0; i < 5000; i++ {
		out = l.Process(1, 200)
	}
	assert.InDelta(t, 1, out, 0.05, "a one-pole low-pass must converge toward a sustained step input")
}

func TestLowPassProcessCoeffMatchesDirectRecurrence(t *testing.T) {
	l := NewLowPass(48000)
	out := l.ProcessCoeff(1, 0.9)
	assert.InDelta(t, 0.1, out, 1e-6)
	out = l.ProcessCoeff(1, 0.9)
	assert.InDelta(t, 0.19, out, 1e-6)
}

func TestOnePoleSmootherMovesTowardTarget(t *testing.T) {
	var s OnePoleSmoother
	s.Reset(0)
	for i := 0; i < 100; i++ {
		s.Update(1, 0.1)
	}
	assert.Greater(t, s.Value(), float32(0.99))
}
