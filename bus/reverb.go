package bus

import (
	"math"
	"math/rand"
)

// Convolver is a direct time-domain FIR convolution engine over one
// impulse response, with a circular input history the same length as the
// impulse.
type Convolver struct {
	impulse []float32
	history []float32
	pos     int
}

func NewConvolver(impulse []float32) *Convolver {
	n := len(impulse)
	if n < 1 {
		n = 1
		impulse = []float32{0}
	}
	return &Convolver{impulse: impulse, history: make([]float32, n)}
}

func (c *Convolver) Process(in float32) float32 {
	n := len(c.history)
	c.history[c.pos] = in
	var out float32
	idx := c.pos
	for i := 0; i < len(c.impulse); i++ {
		out += c.impulse[i] * c.history[idx]
		idx--
		if idx < 0 {
			idx = n - 1
		}
	}
	c.pos++
	if c.pos >= n {
		c.pos = 0
	}
	return out
}

// ImpulseParams is the global reverb's impulse-regeneration control
// surface
type ImpulseParams struct {
	Diffusion   float32 `json:"diffusion"` // [0,1]
	Damping     float32 `json:"damping"`   // [0,1]
	Decay       float32 `json:"decay"`     // [0,1], maps to impulse length
	PreDelaySec float32 `json:"preDelaySec"`
}

// GlobalReverb implements dual-convolver crossfade: two
// convolver slots, an active flag, a 250 ms linear gain crossfade on swap,
// a 300 ms throttle on impulse regeneration, and a single coalesced
// pending update. Elapsed time is tracked in samples rather than a wall
// clock, consistent with the audio thread's no-suspension-point design
// used throughout this engine's scheduler.
type GlobalReverb struct {
	slots      [2]*Convolver
	active     int
	gain       [2]float32 // current crossfade gain per slot
	rampTarget [2]float32
	rampStep   [2]float32
	ramping    bool

	sampleRate float64
	rng        *rand.Rand

	samplesSinceSwap    int64
	samplesSinceAccept  int64
	throttled           bool
	pendingParams       *ImpulseParams
}

const (
	reverbThrottleSec = 0.3
	reverbCrossfadeSec = 0.25
	reverbAcceptDelaySec = 0.01
)

func NewGlobalReverb(sampleRate float64, seed int64) *GlobalReverb {
	r := &GlobalReverb{
		sampleRate: sampleRate,
		rng:        rand.New(rand.NewSource(seed)),
	}
	r.slots[0] = NewConvolver([]float32{1})
	r.slots[1] = NewConvolver([]float32{0})
	r.gain[0] = 1
	r.gain[1] = 0
	return r
}

// SetImpulseParams requests a new impulse; the request is throttled to at
// most once per 300 ms and coalesces to the latest call within that
// window.
func (r *GlobalReverb) SetImpulseParams(p ImpulseParams) {
	if r.throttled || r.ramping {
		cp := p
		r.pendingParams = &cp
		return
	}
	r.beginSwap(p)
}

func (r *GlobalReverb) beginSwap(p ImpulseParams) {
	inactive := 1 - r.active
	impulse := r.generateImpulse(p)
	r.slots[inactive] = NewConvolver(impulse)

	crossfadeSamples := reverbCrossfadeSec * r.sampleRate
	r.rampTarget[r.active] = 0
	r.rampTarget[inactive] = 1
	r.rampStep[r.active] = float32(-1 / crossfadeSamples)
	r.rampStep[inactive] = float32(1 / crossfadeSamples)
	r.ramping = true

	r.active = inactive
	r.samplesSinceSwap = 0
	r.throttled = true
	r.samplesSinceAccept = 0
}

func (r *GlobalReverb) generateImpulse(p ImpulseParams) []float32 {
	length := int((0.1 + float64(p.Decay)*4) * r.sampleRate)
	if length < 1 {
		length = 1
	}
	preDelay := int(float64(p.PreDelaySec) * r.sampleRate)
	impulse := make([]float32, preDelay+length)
	for i := 0; i < length; i++ {
		t := float64(i) / float64(length)
		env := math.Pow(1-t, 2+float64(p.Diffusion)*2) * math.Exp(-t*float64(p.Damping)*5)
		impulse[preDelay+i] = (r.rng.Float32()*2 - 1) * float32(env)
	}
	return impulse
}

// Process runs one sample through the dual-convolver crossfade, advancing
// the throttle/ramp/coalesce state machine.
func (r *GlobalReverb) Process(in float32) float32 {
	out0 := r.slots[0].Process(in)
	out1 := r.slots[1].Process(in)

	if r.ramping {
		for i := 0; i < 2; i++ {
			r.gain[i] += r.rampStep[i]
			if r.rampStep[i] > 0 && r.gain[i] >= r.rampTarget[i] {
				r.gain[i] = r.rampTarget[i]
			} else if r.rampStep[i] < 0 && r.gain[i] <= r.rampTarget[i] {
				r.gain[i] = r.rampTarget[i]
			}
		}
		if r.gain[0] == r.rampTarget[0] && r.gain[1] == r.rampTarget[1] {
			r.ramping = false
		}
	}

	if r.throttled {
		r.samplesSinceSwap++
		if float64(r.samplesSinceSwap) >= reverbThrottleSec*r.sampleRate {
			r.throttled = false
		}
	}

	if !r.throttled && !r.ramping && r.pendingParams != nil {
		r.samplesSinceAccept++
		if float64(r.samplesSinceAccept) >= reverbAcceptDelaySec*r.sampleRate {
			p := *r.pendingParams
			r.pendingParams = nil
			r.beginSwap(p)
		}
	}

	return out0*r.gain[0] + out1*r.gain[1]
}
