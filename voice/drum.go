package voice

import "math"

// DrumVariant selects the 808-style (OUT bus) vs 909-style (AUX bus)
// voicing.
type DrumVariant int

const (
	Variant808 DrumVariant = iota
	Variant909
)

// DrumType selects which analog model a Kick/Snare/Hat kernel implements.
type DrumType int

const (
	TypeKick DrumType = iota
	TypeSnare
	TypeHat
)

// DrumMacros is the four-macro control surface:
// {TONE, PITCH, DECAY, SWEEP|SNAP|NOISINESS} in [0,100], plus velocity.
type DrumMacros struct {
	Tone      float32
	Pitch     float32
	Decay     float32
	Aux       float32 // sweep amount (kick), snap amount (snare), noisiness (hat)
	Velocity  float32
}

// Kick is an analog-style kick drum: a sine/triangle oscillator with a
// pitch sweep down into the body, amplitude-enveloped by an exponential
// decay. Grounded on the teacher's sine-channel oscillator plus sweep
// fields (sweepEnabled/sweepDirection in audio_chip.go's Channel), adapted
// from a register-driven sweep to a macro-driven one-shot sweep.
type Kick struct {
	Variant    DrumVariant
	macros     DrumMacros
	sampleRate float64

	phase      float64
	freq       float64
	sweepEnd   float64
	ampEnv     float32
	decayCoef  float32
	active     bool
	released   bool
}

func NewKick(sampleRate float64, variant DrumVariant) *Kick {
	return &Kick{sampleRate: sampleRate, Variant: variant}
}

// Trigger starts a new kick hit from the given macros and velocity.
func (k *Kick) Trigger(m DrumMacros) {
	k.macros = m
	k.active = true
	k.released = false
	baseFreq := 40 + (m.Pitch/100)*80 // 40..120 Hz body
	k.freq = baseFreq * 4            // sweep starts two octaves above the body
	k.sweepEnd = baseFreq
	k.phase = 0
	k.ampEnv = 1
	decayMs := 50 + (m.Decay/100)*400
	k.decayCoef = decayCoeff(decayMs, k.sampleRate)
}

func (k *Kick) Render() (l, r float32) {
	if !k.active {
		return 0, 0
	}
	sweepAmt := k.macros.Aux / 100
	k.freq += (k.sweepEnd - k.freq) * float64(0.002+sweepAmt*0.02)
	k.phase += 2 * math.Pi * k.freq / k.sampleRate
	if k.phase >= 2*math.Pi {
		k.phase -= 2 * math.Pi
	}
	osc := float32(math.Sin(k.phase))
	tone := k.macros.Tone / 100
	// blend sine body with a touch of triangle click for higher TONE
	triangle := float32(2/math.Pi) * float32(math.Asin(math.Sin(k.phase)))
	sample := osc*(1-tone*0.5) + triangle*(tone*0.5)

	k.ampEnv *= k.decayCoef
	sample *= k.ampEnv

	if belowFloor(k.ampEnv) {
		k.active = false
	}
	return sample, sample
}

func (k *Kick) IsActive() bool { return k.active }
func (k *Kick) NoteOff()       { k.released = true }
func (k *Kick) Stop()          { k.active = false }

// Snare combines a sine body with a noise snap layer; the Aux macro sets
// the snap's share of the mix, and the noise passes through a fixed
// one-pole smoother. Grounded on
// the teacher's noise channel (noiseSR/noiseFilter in Channel).
type Snare struct {
	Variant    DrumVariant
	sampleRate float64

	bodyPhase float64
	bodyFreq  float64
	noiseSR   uint32
	noiseLP   float32

	ampEnv    float32
	decayCoef float32
	snapAmt   float32
	active    bool
}

func NewSnare(sampleRate float64, variant DrumVariant) *Snare {
	return &Snare{sampleRate: sampleRate, Variant: variant, noiseSR: 0xACE1}
}

func (s *Snare) Trigger(m DrumMacros) {
	s.active = true
	s.bodyFreq = 150 + (m.Pitch/100)*150
	s.bodyPhase = 0
	s.ampEnv = 1
	decayMs := 40 + (m.Decay/100)*300
	s.decayCoef = decayCoeff(decayMs, s.sampleRate)
	s.snapAmt = m.Aux / 100
	_ = m.Tone
}

func (s *Snare) nextNoise() float32 {
	x := s.noiseSR
	bit := ((x >> 0) ^ (x >> 2) ^ (x >> 3) ^ (x >> 5)) & 1
	x = (x >> 1) | (bit << 22)
	s.noiseSR = x
	return float32(x&0xFFFF)/32768 - 1
}

func (s *Snare) Render() (l, r float32) {
	if !s.active {
		return 0, 0
	}
	s.bodyPhase += 2 * math.Pi * s.bodyFreq / s.sampleRate
	if s.bodyPhase >= 2*math.Pi {
		s.bodyPhase -= 2 * math.Pi
	}
	body := float32(math.Sin(s.bodyPhase))
	noise := s.nextNoise()
	s.noiseLP += (noise - s.noiseLP) * 0.5
	snare := body*(1-s.snapAmt) + s.noiseLP*s.snapAmt

	s.ampEnv *= s.decayCoef
	sample := snare * s.ampEnv
	if belowFloor(s.ampEnv) {
		s.active = false
	}
	return sample, sample
}

func (s *Snare) IsActive() bool { return s.active }
func (s *Snare) NoteOff()       {}
func (s *Snare) Stop()          { s.active = false }

// Hat is a metallic noise/square-mix hi-hat (open or closed governed by
// decay time and choke group at the scheduler level).
type Hat struct {
	Variant    DrumVariant
	sampleRate float64

	squarePhases [6]float64 // six detuned square oscillators, classic 808/909 hat technique
	squareFreqs  [6]float64
	noiseSR      uint32

	ampEnv    float32
	decayCoef float32
	noisiness float32
	active    bool
}

var hatRatios = [6]float64{2, 3, 4.16, 5.43, 6.79, 8.21}

func NewHat(sampleRate float64, variant DrumVariant) *Hat {
	h := &Hat{sampleRate: sampleRate, Variant: variant, noiseSR: 0xBEEF}
	return h
}

func (h *Hat) Trigger(m DrumMacros) {
	h.active = true
	base := 40 + (m.Pitch/100)*200
	for i, r := range hatRatios {
		h.squareFreqs[i] = base * r
		h.squarePhases[i] = 0
	}
	h.ampEnv = 1
	decayMs := 20 + (m.Decay/100)*200
	h.decayCoef = decayCoeff(decayMs, h.sampleRate)
	h.noisiness = m.Aux / 100
	_ = m.Tone
}

func (h *Hat) nextNoise() float32 {
	x := h.noiseSR
	bit := ((x >> 0) ^ (x >> 2) ^ (x >> 3) ^ (x >> 5)) & 1
	x = (x >> 1) | (bit << 22)
	h.noiseSR = x
	return float32(x&0xFFFF)/32768 - 1
}

func (h *Hat) Render() (l, r float32) {
	if !h.active {
		return 0, 0
	}
	var metallic float32
	for i := range h.squarePhases {
		h.squarePhases[i] += 2 * math.Pi * h.squareFreqs[i] / h.sampleRate
		if h.squarePhases[i] >= 2*math.Pi {
			h.squarePhases[i] -= 2 * math.Pi
		}
		if math.Sin(h.squarePhases[i]) >= 0 {
			metallic += 1.0 / 6
		} else {
			metallic -= 1.0 / 6
		}
	}
	noise := h.nextNoise()
	sample := metallic*(1-h.noisiness) + noise*h.noisiness

	h.ampEnv *= h.decayCoef
	sample *= h.ampEnv
	if belowFloor(h.ampEnv) {
		h.active = false
	}
	return sample, sample
}

func (h *Hat) IsActive() bool { return h.active }
func (h *Hat) NoteOff()       {}
func (h *Hat) Stop()          { h.active = false }

// decayCoeff returns the per-sample multiplicative coefficient that decays
// an envelope from 1.0 to the -100dB floor over decayMs milliseconds.
func decayCoeff(decayMs float32, sampleRate float64) float32 {
	samples := float64(decayMs) / 1000 * sampleRate
	if samples < 1 {
		samples = 1
	}
	// floor^(1/samples) per-sample multiplier to reach dBFloor in `samples` steps
	return float32(math.Pow(float64(dBFloor), 1/samples))
}
