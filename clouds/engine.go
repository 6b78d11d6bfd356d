// Package clouds implements the Clouds engines and processor host: a
// shared 262144-sample circular buffer, six playback engines, a
// diffuser, an FxEngine-style reverb, nonlinear feedback with a dynamic
// HP filter, freeze with one-pole-smoothed state, equal-power dry/wet
// crossfade, and per-voice send/bypass crossfade routing.
//
// Mode dispatch is a tagged enum switched every block: mode switching
// simply changes the dispatch tag and must preserve the shared buffer
// untouched so frozen content survives mode changes — the same
// single-int-dispatch idiom the teacher already uses for
// SoundChip.filterType, generalised from 4 filter modes to 6 engines.
package clouds

import "github.com/midislave/baengraembl/buffer"

// Mode selects the active Clouds engine.
type Mode int

const (
	ModeGranular Mode = iota
	ModeWSOLA
	ModeLoopingDelay
	ModeSpectral
	ModeOliverb
	ModeResonestor
)

// NumModes bounds Mode: an unknown mode index falls back to mode 0.
const NumModes = 6

// ClampMode implements unknown-mode fallback.
func ClampMode(m Mode) Mode {
	if m < 0 || m >= NumModes {
		return ModeGranular
	}
	return m
}

// Params is the shared [0,1]-normalised Clouds control surface, plus
// Pitch in octaves and InputGain in [0,2].
type Params struct {
	Position  float32 `json:"position"`
	Size      float32 `json:"size"`
	Density   float32 `json:"density"`
	Texture   float32 `json:"texture"`
	Spread    float32 `json:"spread"`
	Feedback  float32 `json:"feedback"`
	DryWet    float32 `json:"dryWet"`
	Reverb    float32 `json:"reverb"`
	Pitch     float32 `json:"pitch"`     // -2..+2 octaves
	InputGain float32 `json:"inputGain"` // 0..2

	Freeze        bool          `json:"freeze"`
	TriggerSync   bool          `json:"triggerSync"`
	GrainQuality  GrainQuality  `json:"grainQuality"`
	BufferQuality BufferQuality `json:"bufferQuality"`

	SampleRate float64 `json:"-"`
}

// Clamp enforces the declared ranges
func (p *Params) Clamp() {
	p.Position = clamp01(p.Position)
	p.Size = clamp01(p.Size)
	p.Density = clamp01(p.Density)
	p.Texture = clamp01(p.Texture)
	p.Spread = clamp01(p.Spread)
	p.Feedback = clamp01(p.Feedback)
	p.DryWet = clamp01(p.DryWet)
	p.Reverb = clamp01(p.Reverb)
	if p.Pitch < -2 {
		p.Pitch = -2
	}
	if p.Pitch > 2 {
		p.Pitch = 2
	}
	if p.InputGain < 0 {
		p.InputGain = 0
	}
	if p.InputGain > 2 {
		p.InputGain = 2
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

type GrainQuality int

const (
	QualityZOH GrainQuality = iota
	QualityLinear
	QualityHermite
)

type BufferQuality int

const (
	BufferFloat32 BufferQuality = iota
	BufferInt16
	BufferInt8
	BufferMuLaw
)

// StereoFrame is one L/R sample pair.
type StereoFrame struct{ L, R float32 }

// Engine is implemented by each of the six Clouds playback engines.
// Process renders `frames` of output into out, reading from the shared
// buffer and in (the post-feedback input signal written into the buffer
// this block by the host).
type Engine interface {
	Process(buf *buffer.Ring, in []StereoFrame, out []StereoFrame, p Params)
	// Note: engines 0-3 (Granular/WSOLA/LoopingDelay/Spectral) share buf
	// by reference; Oliverb/Resonestor use their own internal delay lines
	// and largely ignore buf (modes 0-3 share, 4-5 don't).
}
