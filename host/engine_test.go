package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midislave/baengraembl/patch"
	"github.com/midislave/baengraembl/sequencer"
	"github.com/midislave/baengraembl/voice"
)

func newTestEngine() *Engine {
	return NewEngine(48000, 64, 256, 1)
}

func samplePatchForHost() *patch.Patch {
	return &patch.Patch{
		BPM:            120,
		BaengBarLength: 16,
		Voices: []patch.Voice{
			{
				VoiceSlot: sequencer.VoiceSlot{Engine: sequencer.EngineKick, OutputBus: sequencer.BusOut},
				Level:     1,
			},
		},
		Sequences: []sequencer.Sequence{{}},
	}
}

func TestProcessFillsEveryFrame(t *testing.T) {
	e := newTestEngine()
	out := make([]float32, e.BlockSize*2)
	for i := range out {
		out[i] = 99
	}

	cont := e.Process(out)

	assert.True(t, cont)
	// Silence with no tracks configured: nothing should diverge from a
	// clean render, i.e. every sample got overwritten by the engine.
	for _, s := range out {
		assert.NotEqual(t, float32(99), s)
	}
}

func TestProcessIsStableWithNoVoices(t *testing.T) {
	e := newTestEngine()
	out := make([]float32, e.BlockSize*2)

	for block := 0; block < 8; block++ {
		e.Process(out)
	}

	for _, s := range out {
		assert.False(t, s != s, "render produced NaN") // NaN check
	}
}

func TestHandleCommandSetBPMClamps(t *testing.T) {
	e := newTestEngine()
	e.Mailbox.Send(Command{Kind: CmdSetBPM, BPM: 99999})
	out := make([]float32, e.BlockSize*2)
	e.Process(out)

	assert.Equal(t, sequencer.ClampBPM(99999), e.Clock.BPM)
}

func TestHandleCommandSetTrackMute(t *testing.T) {
	e := newTestEngine()
	e.Mailbox.Send(Command{Kind: CmdSetTrackMute, Track: 2, Muted: true})
	out := make([]float32, e.BlockSize*2)
	e.Process(out)

	require.Greater(t, len(e.Scheduler.Tracks), 2)
	assert.True(t, e.Scheduler.Tracks[2].Muted)
}

func TestHandleCommandSetVoiceSlotClampsPolyphony(t *testing.T) {
	e := newTestEngine()
	slot := sequencer.VoiceSlot{Engine: sequencer.EngineKick, PolyphonyMode: 4}
	e.Mailbox.Send(Command{Kind: CmdSetVoiceSlot, Track: 0, VoiceSlot: slot})
	out := make([]float32, e.BlockSize*2)
	e.Process(out)

	assert.Equal(t, 0, e.Scheduler.Tracks[0].Slot.PolyphonyMode)
}

func TestTriggerCommandProducesOutput(t *testing.T) {
	e := newTestEngine()
	e.Factory.Tracks[0] = &TrackVoiceConfig{
		PostChain: voice.PostChain{Level: 1},
		DrumMacros: voice.DrumMacros{
			Tone: 0.5, Pitch: 0.5, Decay: 0.05, Aux: 0.5,
		},
	}
	e.EnsureTrack(0)
	e.Scheduler.Tracks[0].Slot = sequencer.VoiceSlot{Engine: sequencer.EngineKick}

	e.Mailbox.Send(Command{Kind: CmdTrigger, Track: 0, Note: 60, Velocity: 1})

	out := make([]float32, e.BlockSize*2)
	sawEnergy := false
	for block := 0; block < 200; block++ {
		e.Process(out)
		for _, s := range out {
			if s != 0 {
				sawEnergy = true
			}
		}
	}
	assert.True(t, sawEnergy, "triggered kick never produced non-zero output")
}

func TestSetSidechainAmountClampsToUnitRange(t *testing.T) {
	e := newTestEngine()
	e.Mailbox.Send(Command{Kind: CmdSetSidechainAmount, SidechainBus: 0, SidechainAmount: 4})
	out := make([]float32, e.BlockSize*2)
	e.Process(out)

	assert.Equal(t, float32(1), e.Ducker.Amount[0])
}

func TestLoadPatchWiresTracksAndParams(t *testing.T) {
	e := newTestEngine()
	p := samplePatchForHost()

	e.Mailbox.Send(Command{Kind: CmdLoadPatch, Patch: p})
	out := make([]float32, e.BlockSize*2)
	e.Process(out)

	assert.Equal(t, sequencer.ClampBPM(float64(p.BPM)), e.Clock.BPM)
	require.Len(t, e.Scheduler.Tracks, len(p.Voices))
	assert.Equal(t, sequencer.EngineKick, e.Scheduler.Tracks[0].Slot.Engine)
	_, ok := e.Factory.Tracks[0]
	assert.True(t, ok)
}
