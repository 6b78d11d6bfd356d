package buffer

import "math"

// SVFilter is the 2-pole state-variable filter (Chamberlin topology) shared
// by the drum/sampler post-chain and the Clouds feedback path. Adapted from
// the teacher's inline SV filter in SoundChip.GenerateSample
// (audio_chip.go): the same lp/bp/hp recurrence, generalised into a
// reusable per-voice type instead of one global filter instance.
type SVFilter struct {
	lp, bp, hp float32
}

// Outputs bundles the three simultaneous LP/BP/HP filter outputs produced
// by one sample tick.
type Outputs struct {
	LP, BP, HP float32
}

// Process runs one sample through the filter. cutoff and resonance are both
// normalised to [0,1]; cutoffFactor/maxResonance scale them into the
// recurrence coefficients the way audio_chip.go's CUTOFF_FACTOR/MAX_RESONANCE
// constants do.
func (f *SVFilter) Process(sample, cutoff, resonance, cutoffFactor, maxResonance float32) Outputs {
	c := cutoff * cutoffFactor
	q := resonance * maxResonance

	lp := f.lp + c*f.bp
	hp := (sample - lp) - q*f.bp
	bp := f.bp + c*hp

	lp = clamp(lp, -1, 1)
	bp = clamp(bp, -1, 1)
	hp = clamp(hp, -1, 1)

	f.lp, f.bp, f.hp = lp, bp, hp
	return Outputs{LP: lp, BP: bp, HP: hp}
}

func (f *SVFilter) Reset() { f.lp, f.bp, f.hp = 0, 0, 0 }

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// HighPass is a simple one-pole high-pass used by the Clouds feedback
// path (to high-pass filter the stored feedback block), the master-bus
// crunch band and Oliverb's damping, driven by a cutoff in Hz.
type HighPass struct {
	state      float32
	sampleRate float64
}

func NewHighPass(sampleRate float64) *HighPass {
	return &HighPass{sampleRate: sampleRate}
}

// coeff derives the one-pole coefficient for the given cutoff in Hz; the
// Clouds feedback path computes that cutoff as 20 + 100*feedback^2.
func (h *HighPass) coeff(cutoffHz float32) float32 {
	x := math.Exp(-2 * math.Pi * float64(cutoffHz) / h.sampleRate)
	return float32(x)
}

func (h *HighPass) Process(sample, cutoffHz float32) float32 {
	a := h.coeff(cutoffHz)
	out := sample - h.state
	h.state = h.state*a + sample*(1-a)
	return out
}

func (h *HighPass) Reset() { h.state = 0 }

// LowPass is the one-pole complement, used by the master-bus dampen and
// crunch stages and by the Clouds reverb damping.
type LowPass struct {
	state      float32
	sampleRate float64
}

func NewLowPass(sampleRate float64) *LowPass { return &LowPass{sampleRate: sampleRate} }

func (l *LowPass) Process(sample, cutoffHz float32) float32 {
	a := float32(math.Exp(-2 * math.Pi * float64(cutoffHz) / l.sampleRate))
	l.state = l.state*a + sample*(1-a)
	return l.state
}

// ProcessCoeff is the same one-pole recurrence but takes the smoothing
// coefficient directly instead of deriving it from a cutoff in Hz, for
// callers (like the Clouds reverb tail) whose "lowpass" control is
// already a normalised [0,1] coefficient.
func (l *LowPass) ProcessCoeff(sample, coeff float32) float32 {
	l.state = l.state*coeff + sample*(1-coeff)
	return l.state
}

func (l *LowPass) Reset() { l.state = 0 }

// OnePoleSmoother implements one-pole-smoothed state, used for freeze and
// for parameter ramps elsewhere: value moves toward target by
// coefficient per sample.
type OnePoleSmoother struct {
	value float32
}

func (s *OnePoleSmoother) Update(target, coeff float32) float32 {
	s.value += (target - s.value) * coeff
	return s.value
}

func (s *OnePoleSmoother) Value() float32 { return s.value }

func (s *OnePoleSmoother) Reset(v float32) { s.value = v }
