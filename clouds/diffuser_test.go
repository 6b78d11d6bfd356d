package clouds

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffuserSetAmountClampsToUnitRange(t *testing.T) {
	d := NewDiffuser(48000)
	d.SetAmount(-1)
	assert.Equal(t, float32(0), d.amount)
	d.SetAmount(5)
	assert.Equal(t, float32(1), d.amount)
}

func TestDiffuserZeroAmountStillProducesFiniteOutput(t *testing.T) {
	d := NewDiffuser(48000)
	d.SetAmount(0)
	for i := 0; i < 1000; i++ {
		out := d.Process(1)
		assert.False(t, math.IsNaN(float64(out)))
		assert.False(t, math.IsInf(float64(out), 0))
	}
}

func TestDiffuserCascadeStaysBoundedUnderImpulse(t *testing.T) {
	d := NewDiffuser(48000)
	out := d.Process(1)
	for i := 0; i < 2000; i++ {
		out = d.Process(0)
		assert.Less(t, out, float32(10))
		assert.Greater(t, out, float32(-10))
	}
}
