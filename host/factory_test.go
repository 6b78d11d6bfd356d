package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midislave/baengraembl/sequencer"
	"github.com/midislave/baengraembl/voice"
)

func TestVoiceFactoryReturnsNilForUnconfiguredTrack(t *testing.T) {
	f := NewVoiceFactory(48000)
	eng := f.NewEngine(0, sequencer.VoiceSlot{Engine: sequencer.EngineKick}, sequencer.Step{Active: true})
	assert.Nil(t, eng)
}

func TestVoiceFactoryBuildsKick(t *testing.T) {
	f := NewVoiceFactory(48000)
	f.Tracks[0] = &TrackVoiceConfig{DrumMacros: voice.DrumMacros{Tone: 0.5, Pitch: 0.5, Decay: 0.5, Aux: 0.5}}

	eng := f.NewEngine(0, sequencer.VoiceSlot{Engine: sequencer.EngineKick}, sequencer.Step{Active: true, Velocity: 0.8})
	require.NotNil(t, eng)
	assert.True(t, eng.IsActive())
}

func TestVoiceFactoryDropsSampleTriggerWithoutSampleData(t *testing.T) {
	f := NewVoiceFactory(48000)
	f.Tracks[0] = &TrackVoiceConfig{}

	eng := f.NewEngine(0, sequencer.VoiceSlot{Engine: sequencer.EngineSample}, sequencer.Step{Active: true})
	assert.Nil(t, eng)
}

func TestVoiceFactoryDropsFMTriggerWithoutPatchContext(t *testing.T) {
	f := NewVoiceFactory(48000)
	f.Tracks[0] = &TrackVoiceConfig{}

	eng := f.NewEngine(0, sequencer.VoiceSlot{Engine: sequencer.EngineDX7}, sequencer.Step{Active: true})
	assert.Nil(t, eng)
}

func TestSampleMacroPitchInvertsSemitoneOffset(t *testing.T) {
	assert.Equal(t, float32(50), sampleMacroPitch(0))
	assert.InDelta(t, float32(100), sampleMacroPitch(24), 0.001)
	assert.InDelta(t, float32(0), sampleMacroPitch(-24), 0.001)
}
