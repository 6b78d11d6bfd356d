package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplerTriggerDropsSilentlyWithoutSampleData(t *testing.T) {
	s := NewSampler(48000, nil, nil)
	assert.NotPanics(t, func() {
		s.Trigger(50, 50, 50, 1)
	})
	assert.False(t, s.IsActive())
	l, r := s.Render()
	assert.Equal(t, float32(0), l)
	assert.Equal(t, float32(0), r)
}

func TestSamplerFirstRenderIsNonZeroAtUnityPitch(t *testing.T) {
	data := make([]float32, 1000)
	for i := range data {
		data[i] = 1 // constant so decay, not waveform shape, drives silence
	}
	sample := &Sample{Data: data}
	s := NewSampler(48000, sample, nil)
	s.Trigger(50, 0, 50, 1) // pitch macro 50 -> unity ratio, decay 0 -> shortest decay, filter bypassed

	require.True(t, s.IsActive())
	out, _ := s.Render()
	assert.NotEqual(t, float32(0), out)
}

func TestSamplerRespectsSliceBounds(t *testing.T) {
	data := make([]float32, 100)
	for i := range data {
		data[i] = 1
	}
	sample := &Sample{Data: data}
	slice := &SliceConfig{Start: 10, End: 12}
	s := NewSampler(48000, sample, slice)
	s.Trigger(50, 0, 50, 1)

	frames := 0
	for s.IsActive() && frames < 1000 {
		s.Render()
		frames++
	}
	assert.LessOrEqual(t, frames, 3, "a 2-sample slice at unity pitch should finish in at most a couple of renders")
}

func TestSamplerUnityPitchAtMacroFifty(t *testing.T) {
	data := make([]float32, 10)
	s := NewSampler(48000, &Sample{Data: data}, nil)
	s.Trigger(50, 0, 50, 1)
	assert.InDelta(t, 1.0, s.pitchRatioinc, 1e-9)
}

func TestSamplerFilterBypassAtMacroFifty(t *testing.T) {
	data := make([]float32, 10)
	s := NewSampler(48000, &Sample{Data: data}, nil)
	s.Trigger(50, 50, 50, 1)
	assert.False(t, s.filterOn)
}

func TestSamplerFilterEngagesBelowAndAboveMidpoint(t *testing.T) {
	data := make([]float32, 10)
	s := NewSampler(48000, &Sample{Data: data}, nil)

	s.Trigger(50, 50, 10, 1)
	assert.True(t, s.filterOn)
	assert.False(t, s.hp)

	s.Trigger(50, 50, 90, 1)
	assert.True(t, s.filterOn)
	assert.True(t, s.hp)
}
