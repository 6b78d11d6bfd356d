package host

import (
	"github.com/midislave/baengraembl/sequencer"
	"github.com/midislave/baengraembl/voice"
)

// TrackVoiceConfig is the per-track engine-specific state the sequencer
// package never sees: drum macros/variant, the FM voice's shared patch
// context, sample/slice data, and the shared post-chain the render loop
// applies after each engine's Render.
type TrackVoiceConfig struct {
	DrumVariant voice.DrumVariant
	DrumMacros  voice.DrumMacros

	FM *voice.FMEngineContext

	Sample *voice.Sample
	Slice  *voice.SliceConfig

	PostChain voice.PostChain
	Sends     voice.Sends
}

// VoiceFactory implements sequencer.Factory: given a track and its
// VoiceSlot/Step, it builds the concrete voice.Engine the slot's Engine
// type names, reading whatever per-track config the control thread last
// installed via CmdLoadPatch/CmdSetParams.
type VoiceFactory struct {
	SampleRate float64
	Tracks     map[int]*TrackVoiceConfig
}

func NewVoiceFactory(sampleRate float64) *VoiceFactory {
	return &VoiceFactory{SampleRate: sampleRate, Tracks: make(map[int]*TrackVoiceConfig)}
}

// sampleMacroPitch inverts the sampler's semitone-offset formula so a
// sequence step's integer semitone Pitch field can drive the sampler's
// [0,100] pitch macro.
func sampleMacroPitch(semitones int) float32 {
	return 50 + float32(semitones)*50/24
}

// NewEngine builds the sound generator a trigger needs, or nil if the
// track has no installed config or sample data — the caller (sequencer's
// trigger pipeline) drops such triggers silently.
func (f *VoiceFactory) NewEngine(track int, slot sequencer.VoiceSlot, step sequencer.Step) voice.Engine {
	cfg, ok := f.Tracks[track]
	if !ok {
		return nil
	}

	switch slot.Engine {
	case sequencer.EngineKick:
		k := voice.NewKick(f.SampleRate, cfg.DrumVariant)
		m := cfg.DrumMacros
		m.Velocity = step.Velocity
		k.Trigger(m)
		return k

	case sequencer.EngineSnare:
		s := voice.NewSnare(f.SampleRate, cfg.DrumVariant)
		m := cfg.DrumMacros
		m.Velocity = step.Velocity
		s.Trigger(m)
		return s

	case sequencer.EngineHihat:
		h := voice.NewHat(f.SampleRate, cfg.DrumVariant)
		m := cfg.DrumMacros
		m.Velocity = step.Velocity
		h.Trigger(m)
		return h

	case sequencer.EngineSample, sequencer.EngineSlice:
		if cfg.Sample == nil {
			return nil
		}
		var slice *voice.SliceConfig
		if slot.Engine == sequencer.EngineSlice {
			slice = cfg.Slice
		}
		s := voice.NewSampler(f.SampleRate, cfg.Sample, slice)
		s.Trigger(sampleMacroPitch(step.Pitch), 60, 50, step.Velocity)
		return s

	case sequencer.EngineDX7:
		if cfg.FM == nil {
			return nil
		}
		v := voice.NewFMVoice(f.SampleRate, cfg.FM)
		v.Trigger(60+step.Pitch, step.Velocity, slot.GatePercent)
		return v

	default:
		return nil
	}
}

// sendsFromSlot converts the sequencer's persisted Sends (shared with the
// patch format) into the voice package's runtime Sends, the two types
// existing separately so package voice never needs to import package
// sequencer.
func sendsFromSlot(s sequencer.Sends) voice.Sends {
	return voice.Sends{Reverb: s.Reverb, Delay: s.Delay, Clouds: s.Clouds}
}
