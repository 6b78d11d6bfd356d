package sequencer

import "github.com/midislave/baengraembl/voice"

// Factory builds a sound-generator Engine for a trigger on a given track,
// per the VoiceSlot's configured Engine type. It is injected so the
// sequencer package stays independent of concrete sample/patch storage
// (those live in package voice and the host's patch loader).
type Factory interface {
	NewEngine(track int, slot VoiceSlot, step Step) voice.Engine
	// The legato path does not go through Factory: it sends pitchSlide to
	// the existing voice.Engine when that engine implements Slider below.
}

// Slider is implemented by engines that support the legato pitchSlide
// message (in practice only voice.FMVoice).
type Slider interface {
	PitchSlide(midiNote int, glideTimeMs float32)
}

// TriggerContext carries the per-track runtime state the trigger pipeline
// needs beyond what TrackState stores: the voice arena, legato slots
// (mono DX7 tracks only), and choke-group bookkeeping.
type TriggerContext struct {
	Arena       *Arena
	Factory     Factory
	Legato      map[int]*LegatoSlot // keyed by track index
	ChokeActive map[int][]Handle    // keyed by choke group id
}

func NewTriggerContext(arena *Arena, factory Factory) *TriggerContext {
	return &TriggerContext{
		Arena:       arena,
		Factory:     factory,
		Legato:      make(map[int]*LegatoSlot),
		ChokeActive: make(map[int][]Handle),
	}
}

// HandleTrigger runs the trigger pipeline for one TriggerEvent: determine
// polyphony, release/steal as needed, apply the DX7-slide short-circuit,
// create the voice, and enforce choke groups.
func (tc *TriggerContext) HandleTrigger(ts *TrackState, ev TriggerEvent, midiNote int) {
	slot := ts.Slot

	if slot.PolyphonyMode == 0 {
		if tc.trySlide(ev.Track, slot, midiNote) {
			return // legato slide consumed the trigger; no new voice, no release
		}
		tc.releaseMono(ev.Track, slot)
	} else {
		if tc.Arena.ActiveCountForTrack(ev.Track) >= slot.PolyphonyMode {
			if h, ok := tc.Arena.OldestActiveForTrack(ev.Track); ok {
				tc.stealVoice(h)
			}
		}
	}

	eng := tc.Factory.NewEngine(ev.Track, slot, ev.Step)
	if eng == nil {
		// Missing sample/patch data: drop the trigger silently
		return
	}
	h := tc.Arena.Spawn(ActiveVoice{Engine: eng, EngineType: slot.Engine, Track: ev.Track, StartTime: ev.Time})

	if slot.Engine == EngineDX7 {
		if slot.PolyphonyMode == 0 {
			if _, exists := tc.Legato[ev.Track]; !exists {
				tc.Legato[ev.Track] = &LegatoSlot{}
			}
			tc.Legato[ev.Track].Set(h, midiNote)
		}
	}

	if slot.ChokeGroup != 0 {
		tc.applyChoke(slot.ChokeGroup, h)
	}
}

// trySlide implements legato condition: gate>=100% AND
// polyphonyMode=0 AND a legato slot exists -> send pitchSlide instead of
// creating a new voice.
func (tc *TriggerContext) trySlide(track int, slot VoiceSlot, midiNote int) bool {
	if slot.Engine != EngineDX7 || slot.GatePercent < 100 {
		return false
	}
	ls, ok := tc.Legato[track]
	if !ok || !ls.Valid() {
		return false
	}
	av, ok := ls.Resolve(tc.Arena)
	if !ok {
		return false
	}
	if slider, ok := av.Engine.(Slider); ok {
		slider.PitchSlide(midiNote, 80)
		ls.Set(avHandleOf(ls), midiNote) // refresh note, keep same handle
		return true
	}
	return false
}

func avHandleOf(ls *LegatoSlot) Handle { return ls.handle }

// releaseMono performs the mono-track release: a 10ms cut-group fade for
// SAMPLE/SLICE, a 1ms fade otherwise.
func (tc *TriggerContext) releaseMono(track int, slot VoiceSlot) {
	h, ok := tc.Arena.OldestActiveForTrack(track)
	if !ok {
		return
	}
	if slot.Engine == EngineSample || slot.Engine == EngineSlice {
		tc.cutGroupFade(h)
	} else {
		tc.fadeAndRetire(h, 0.001)
	}
}

// stealVoice implements polyphonic voice stealing: send noteOff and apply a
// 5ms linear ramp to 0; the host retires the voice (Arena.Retire) as soon
// as that ramp completes, with no separate disconnect delay. The fade itself
// is driven by the caller's render loop via ActiveVoice.fadeGain/fadeRate
// (set up by fadeAndRetire).
func (tc *TriggerContext) stealVoice(h Handle) {
	if av, ok := tc.Arena.Get(h); ok {
		av.Engine.NoteOff()
	}
	tc.fadeAndRetire(h, 0.005)
}

// cutGroupFade implements cut-group fade: 10ms linear ramp
// to zero while playback continues; the voice is retired as soon as the
// ramp completes, with no separate cleanup delay.
func (tc *TriggerContext) cutGroupFade(h Handle) {
	tc.fadeAndRetire(h, 0.010)
}

// fadeAndRetire marks an ActiveVoice for a linear gain fade of the given
// duration; the render path (package host) reads fadeGain/fadeRate each
// sample and retires the voice once the fade completes: release is
// fire-and-forget, with a hard cleanup scheduled regardless of whether
// `finished` arrives.
func (tc *TriggerContext) fadeAndRetire(h Handle, seconds float64) {
	if av, ok := tc.Arena.Get(h); ok {
		av.releasing = true
		av.fadeGain = 1
		if seconds <= 0 {
			seconds = 0.001
		}
		av.fadeRate = float32(1.0 / seconds) // per-second decrement; host scales by sample period
	}
}

func (tc *TriggerContext) applyChoke(group int, newHandle Handle) {
	for _, h := range tc.ChokeActive[group] {
		if h != newHandle {
			if av, ok := tc.Arena.Get(h); ok {
				av.Engine.Stop()
				tc.Arena.Retire(h)
			}
		}
	}
	tc.ChokeActive[group] = []Handle{newHandle}
}
