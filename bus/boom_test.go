package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoomRetriggersOnRisingThresholdCrossing(t *testing.T) {
	p := NewProcessor(48000)
	params := defaultParams()
	params.BoomFreq = 50
	params.BoomThreshold = 0.5
	params.BoomDecay = 0.1

	p.boom(0, params) // below threshold, no trigger
	env := p.boom(0.9, params)
	assert.Equal(t, float32(1), p.boomEnv, "crossing the threshold on the rise retriggers the envelope to unity")
	_ = env
}

func TestBoomEnvelopeDecaysOverTime(t *testing.T) {
	p := NewProcessor(48000)
	params := defaultParams()
	params.BoomFreq = 50
	params.BoomThreshold = 0.1
	params.BoomDecay = 0.05

	p.boom(0.9, params)
	peak := p.boomEnv
	for i := 0; i < 1000; i++ {
		p.boom(0, params)
	}
	assert.Less(t, p.boomEnv, peak)
}

func TestBoomZeroDecayHoldsEnvelopeAtUnity(t *testing.T) {
	p := NewProcessor(48000)
	params := defaultParams()
	params.BoomFreq = 50
	params.BoomThreshold = 0.1
	params.BoomDecay = 0

	p.boom(0.9, params)
	for i := 0; i < 100; i++ {
		p.boom(0, params)
	}
	assert.Equal(t, float32(1), p.boomEnv)
}
