package patch

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midislave/baengraembl/bus"
	"github.com/midislave/baengraembl/clouds"
	"github.com/midislave/baengraembl/modulation"
	"github.com/midislave/baengraembl/sequencer"
)

func samplePatch() *Patch {
	p := &Patch{
		BPM:             128,
		Swing:           0.12,
		BaengBarLength:  16,
		RaemblBarLength: 32,
		Voices: []Voice{
			{
				VoiceSlot: sequencer.VoiceSlot{
					Engine:        sequencer.EngineKick,
					PolyphonyMode: 0,
					Sends:         sequencer.Sends{Reverb: 0.2, Delay: 0.1, Clouds: 0},
					OutputBus:     sequencer.BusOut,
					GatePercent:   80,
					ChokeGroup:    1,
				},
				Level:        0.9,
				Pan:          -0.2,
				EngineParams: json.RawMessage(`{"tone":0.5,"decay":0.4}`),
			},
			{
				VoiceSlot: sequencer.VoiceSlot{
					Engine:        sequencer.EngineSample,
					PolyphonyMode: 4,
					Sends:         sequencer.Sends{Reverb: 0.4, Delay: 0.3, Clouds: 0.1},
					OutputBus:     sequencer.BusAux,
					GatePercent:   100,
				},
				Level: 0.75,
				Pan:   0,
			},
		},
		Sequences: []sequencer.Sequence{{}},
		Bus: bus.Params{
			InputTrimDB:     3,
			Drive:           bus.DriveHard,
			DriveAmount:     0.3,
			CrunchAmount:    0.1,
			TransientAmount: 60,
			BoomEnabled:     true,
			BoomFreq:        55,
			BoomDecay:       0.3,
			BoomThreshold:   0.5,
			DampenAmount:    0.2,
			OutputGainDB:    0,
			DryWet:          1,
		},
		Reverb: bus.ImpulseParams{Diffusion: 0.6, Damping: 0.4, Decay: 0.5, PreDelaySec: 0.02},
		Delay: bus.DelayParams{
			DelayTimeSec:    0.375,
			WowDepthMs:      1.5,
			WowRateHz:       0.3,
			FlutterDepthMs:  0.4,
			FlutterRateHz:   6,
			Saturation:      20,
			FeedbackGain:    0.35,
			LowpassCutoffHz: 8000,
			WetGain:         0.4,
		},
		Clouds: clouds.Params{
			Position: 0.5, Size: 0.5, Density: 0.5, Texture: 0.5, Spread: 0.5,
			Feedback: 0.2, DryWet: 0.3, Reverb: 0.2, Pitch: 0, InputGain: 1,
		},
		Modulations: map[string]modulation.Config{
			"voice0.gatePercent": {
				Enabled: true, Waveform: modulation.Sine, RateHz: 2, Depth: 50,
				BaseValue: 80, Min: 0, Max: 100,
			},
		},
	}
	return p
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	original := samplePatch()

	data, err := Marshal(original)
	require.NoError(t, err)

	loaded, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, loaded.Version)
	assert.Equal(t, original.BPM, loaded.BPM)
	assert.Equal(t, original.Swing, loaded.Swing)
	assert.Equal(t, original.BaengBarLength, loaded.BaengBarLength)
	assert.Equal(t, original.RaemblBarLength, loaded.RaemblBarLength)
	assert.Equal(t, original.Sequences, loaded.Sequences)
	assert.Equal(t, original.Bus, loaded.Bus)
	assert.Equal(t, original.Reverb, loaded.Reverb)
	assert.Equal(t, original.Delay, loaded.Delay)
	assert.Equal(t, original.Clouds, loaded.Clouds)
	assert.Equal(t, original.Modulations, loaded.Modulations)

	require.Len(t, loaded.Voices, len(original.Voices))
	for i := range original.Voices {
		assert.Equal(t, original.Voices[i].VoiceSlot, loaded.Voices[i].VoiceSlot)
		assert.Equal(t, original.Voices[i].Level, loaded.Voices[i].Level)
		assert.Equal(t, original.Voices[i].Pan, loaded.Voices[i].Pan)
		assert.JSONEq(t, string(original.Voices[i].EngineParams), string(loaded.Voices[i].EngineParams))
	}
}

func TestMarshalStampsCurrentVersion(t *testing.T) {
	p := samplePatch()
	p.Version = 999 // stale/garbage value must not survive Marshal

	data, err := Marshal(p)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, float64(CurrentVersion), raw["version"])
}

func TestUnmarshalRejectsFutureVersion(t *testing.T) {
	data := []byte(`{"version":` + strconv.Itoa(CurrentVersion+1) + `}`)
	_, err := Unmarshal(data)
	assert.Error(t, err)
}

func TestUnmarshalClampsOutOfRangeParameters(t *testing.T) {
	p := samplePatch()
	p.Voices[0].VoiceSlot.PolyphonyMode = 9 // EngineKick must clamp to mono regardless
	p.Voices[0].VoiceSlot.GatePercent = 500
	p.Bus.DryWet = 5
	p.Clouds.Feedback = -3

	data, err := Marshal(p)
	require.NoError(t, err)

	loaded, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, 0, loaded.Voices[0].VoiceSlot.PolyphonyMode)
	assert.Equal(t, float32(100), loaded.Voices[0].VoiceSlot.GatePercent)
	assert.Equal(t, float32(1), loaded.Bus.DryWet)
	assert.Equal(t, float32(0), loaded.Clouds.Feedback)
}

func TestUnmarshalRejectsMalformedJSON(t *testing.T) {
	_, err := Unmarshal([]byte(`{not json`))
	assert.Error(t, err)
}
