package clouds

import (
	"math"
	"testing"

	"github.com/midislave/baengraembl/buffer"
	"github.com/stretchr/testify/assert"
)

func TestShimmerShifterUnityRatioPassesSignalThroughWithDelay(t *testing.T) {
	s := newShimmerShifter(64)
	var last float32
	for i := 0; i < 200; i++ {
		last = s.process(1, 1)
	}
	assert.InDelta(t, 1, last, 0.05, "a sustained unity input should settle near unity once the delay line fills")
}

func TestShimmerShifterProducesFiniteOutputAtOctaveUpRatio(t *testing.T) {
	s := newShimmerShifter(4096)
	for i := 0; i < 2000; i++ {
		out := s.process(float32(math.Sin(float64(i)*0.1)), 2)
		assert.False(t, math.IsNaN(float64(out)) || math.IsInf(float64(out), 0))
	}
}

func TestOliverbProcessStaysBoundedUnderSustainedInput(t *testing.T) {
	o := NewOliverb(48000)
	params := baseParams(48000)
	params.Pitch = 1
	buf := buffer.New(buffer.Size)
	in := make([]StereoFrame, 128)
	for i := range in {
		in[i] = StereoFrame{L: 0.3, R: -0.3}
	}
	out := make([]StereoFrame, 128)
	for b := 0; b < 100; b++ {
		o.Process(buf, in, out, params)
		for _, f := range out {
			assert.False(t, math.IsNaN(float64(f.L)) || math.IsInf(float64(f.L), 0))
			assert.Less(t, f.L, float32(50))
		}
	}
}
