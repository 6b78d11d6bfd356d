package sequencer

import "github.com/midislave/baengraembl/voice"

// Handle is a generation-stamped weak reference into the voice arena, used
// by the legato slot to avoid a cyclic reference: the legato slot holds a
// weak back-reference into the active-voice arena, the arena owns voices
// exclusively, and cleanup happens when the arena retires the voice on
// finished.
type Handle struct {
	index int
	gen   uint64
}

// ActiveVoice is the transient per-voice lifecycle entity: engine
// instance, track, start time, and release/fade state.
type ActiveVoice struct {
	Engine      voice.Engine
	EngineType  Engine
	Track       int
	StartTime   float64
	Active      bool
	gen         uint64
	releaseAt   float64 // audio time at which hard cleanup fires regardless of `finished`
	releasing   bool
	fadeGain    float32 // for cut-group / steal fades; 1 = no fade applied
	fadeRate    float32
}

// Arena owns every ActiveVoice exclusively; it is the sole writer of the
// `active` flag, which keeps monophonic/polyphonic voice-stealing
// consistent because no other code mutates voice lifecycle state.
type Arena struct {
	voices []ActiveVoice
	genCtr uint64
}

func NewArena() *Arena { return &Arena{} }

// Spawn inserts a new ActiveVoice and returns its Handle.
func (a *Arena) Spawn(av ActiveVoice) Handle {
	a.genCtr++
	av.gen = a.genCtr
	av.Active = true
	a.voices = append(a.voices, av)
	return Handle{index: len(a.voices) - 1, gen: av.gen}
}

// Get resolves a Handle to its ActiveVoice, or ok=false if the voice has
// since been retired (the weak-reference semantics the legato slot relies
// on).
func (a *Arena) Get(h Handle) (*ActiveVoice, bool) {
	if h.index < 0 || h.index >= len(a.voices) {
		return nil, false
	}
	av := &a.voices[h.index]
	if av.gen != h.gen {
		return nil, false
	}
	return av, true
}

// ActiveCountForTrack counts voices with Active=true for a track, used by
// the polyphonic voice-stealing check.
func (a *Arena) ActiveCountForTrack(track int) int {
	n := 0
	for i := range a.voices {
		if a.voices[i].Track == track && a.voices[i].Active {
			n++
		}
	}
	return n
}

// OldestActiveForTrack returns the handle of the longest-running active
// voice for a track (oldest-note-first stealing), or ok=false if none.
func (a *Arena) OldestActiveForTrack(track int) (Handle, bool) {
	best := -1
	for i := range a.voices {
		if a.voices[i].Track == track && a.voices[i].Active {
			if best == -1 || a.voices[i].StartTime < a.voices[best].StartTime {
				best = i
			}
		}
	}
	if best == -1 {
		return Handle{}, false
	}
	return Handle{index: best, gen: a.voices[best].gen}, true
}

// Retire marks a voice inactive and removes it once the engine reports
// `finished`, per ActiveVoice lifecycle.
func (a *Arena) Retire(h Handle) {
	if av, ok := a.Get(h); ok {
		av.Active = false
	}
}

// Each calls fn once per currently-allocated voice slot (including ones
// pending Sweep), with the Handle that resolves back to it. This is how
// the render path walks every live voice without the arena exposing its
// backing slice directly.
func (a *Arena) Each(fn func(h Handle, av *ActiveVoice)) {
	for i := range a.voices {
		fn(Handle{index: i, gen: a.voices[i].gen}, &a.voices[i])
	}
}

// StepFade advances a releasing voice's linear fade by one sample and
// returns the gain to apply this sample, and whether the fade has reached
// zero. Voices that are not releasing always render at unity gain.
func (av *ActiveVoice) StepFade(sampleRate float64) (gain float32, done bool) {
	if !av.releasing {
		return 1, false
	}
	gain = av.fadeGain
	if gain < 0 {
		gain = 0
	}
	av.fadeGain -= av.fadeRate / float32(sampleRate)
	return gain, av.fadeGain <= 0
}

// Sweep drops fully-finished, non-active voices whose engines report
// !IsActive(), compacting the slice (called once per control-thread
// cleanup tick, never on the audio render path).
func (a *Arena) Sweep() {
	kept := a.voices[:0]
	for _, v := range a.voices {
		if v.Active || (v.Engine != nil && v.Engine.IsActive()) {
			kept = append(kept, v)
		}
	}
	a.voices = kept
}

// LegatoSlot remembers the currently-playing FM voice's handle, note, and
// instance for a mono DX7 track's legato/slide note.
// Cleared only when the referenced voice reports `finished` (via Arena
// retiring it and the Handle resolving to ok=false), never on release-start,
// because active=false is set immediately on release.
type LegatoSlot struct {
	handle Handle
	note   int
	valid  bool
}

func (l *LegatoSlot) Set(h Handle, note int) { l.handle, l.note, l.valid = h, note, true }

// Resolve returns the live ActiveVoice for the slot if the arena still owns
// it (i.e. the voice has not yet been retired/garbage-collected), clearing
// the slot automatically once the handle goes stale.
func (l *LegatoSlot) Resolve(a *Arena) (*ActiveVoice, bool) {
	if !l.valid {
		return nil, false
	}
	av, ok := a.Get(l.handle)
	if !ok {
		l.valid = false
		return nil, false
	}
	return av, true
}

func (l *LegatoSlot) Clear() { l.valid = false }
func (l *LegatoSlot) Valid() bool { return l.valid }
