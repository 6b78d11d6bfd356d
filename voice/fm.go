package voice

import "math"

// OperatorPatch is one of six FM operators in an FMPatch
type OperatorPatch struct {
	Ratio        float32 // frequency ratio to the note's fundamental
	FixedFreqHz  float32 // used instead of Ratio when FixedFreq is true
	FixedFreq    bool
	Level        float32    // output level 0..1
	Rates        [4]float32 // attack/decay1/decay2/release rates
	Levels       [4]float32 // corresponding envelope levels
	Detune       float32
	Pan          float32
	KeyboardScale float32
}

// FMPatch is the {algorithm, per-op, global feedback, pitch envelope}
// structure driving one FM voice.
type FMPatch struct {
	Algorithm    int // 1..32 (stored 0-indexed internally as Algorithm-1)
	Operators    [6]OperatorPatch
	Feedback     float32
	PitchEnvelope [4]float32 // simple 4-point pitch envelope in semitones
}

// FMEngineContext is the process-wide FM state reshaped
// ("Globals in the source... Reshape as an explicit FMEngineContext passed
// into each voice; the 'set params before trigger' protocol is preserved by
// making the context owned by the voice"): each FM voice owns its own
// context rather than reading a package-level global.
type FMEngineContext struct {
	Patch FMPatch
}

// RemapMacros applies the macro-to-patch remapping before load: DEPTH
// biases modulator-operator levels without touching carriers; RATE scales
// attack/decay and release by the documented curves. PITCH is
// intentionally not applied here — it is the note's MIDI pitch at
// note-on.
func (c *FMEngineContext) RemapMacros(depth, rate float32, alg AlgorithmGraph) {
	bias := (depth - 0.5) * 32
	for op := 0; op < 6; op++ {
		if alg.Carrier[op] {
			continue
		}
		c.Patch.Operators[op].Level += bias
		if c.Patch.Operators[op].Level < 0 {
			c.Patch.Operators[op].Level = 0
		}
		if c.Patch.Operators[op].Level > 1 {
			c.Patch.Operators[op].Level = 1
		}
	}
	adScale := float32(math.Pow(2, float64((0.5-rate)*8)))
	relScale := float32(math.Pow(2, float64(-absf(rate-0.3)*8)))
	for op := range c.Patch.Operators {
		c.Patch.Operators[op].Rates[0] *= adScale // attack
		c.Patch.Operators[op].Rates[1] *= adScale // decay
		c.Patch.Operators[op].Rates[3] *= relScale // release
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

type fmOperatorState struct {
	phase    float64
	envLevel float32
	envStage int // 0..3 indexes Rates/Levels, 4 = idle
	prevOut  float32
}

// FMVoice is the 6-operator FM synthesizer voice.
type FMVoice struct {
	ctx        *FMEngineContext
	sampleRate float64
	ops        [6]fmOperatorState

	baseFreq   float64 // current fundamental, updated by pitchSlide
	velocity   float32
	active     bool
	releasing  bool

	// low-pass gate, driven by the note envelope when gate < 100%
	lpgActive bool
	lpgState  float32

	// legato slide target
	slideTargetFreq float64
	slideRate       float64
	sliding         bool
}

func NewFMVoice(sampleRate float64, ctx *FMEngineContext) *FMVoice {
	return &FMVoice{sampleRate: sampleRate, ctx: ctx}
}

// Trigger starts a note at the given MIDI note number and velocity.
func (v *FMVoice) Trigger(midiNote int, velocity float32, lpgGatePercent float32) {
	v.baseFreq = midiToFreq(midiNote)
	v.velocity = velocity
	v.active = true
	v.releasing = false
	v.lpgActive = lpgGatePercent < 100
	for i := range v.ops {
		v.ops[i] = fmOperatorState{envStage: 0}
	}
}

// PitchSlide implements the legato glide message: glide to the target
// MIDI note over glideTimeMs without retriggering envelopes.
func (v *FMVoice) PitchSlide(midiNote int, glideTimeMs float32) {
	v.slideTargetFreq = midiToFreq(midiNote)
	samples := float64(glideTimeMs) / 1000 * v.sampleRate
	if samples < 1 {
		samples = 1
	}
	v.slideRate = math.Pow(v.slideTargetFreq/v.baseFreq, 1/samples)
	v.sliding = true
}

func (v *FMVoice) NoteOff() {
	v.releasing = true
	for i := range v.ops {
		v.ops[i].envStage = 3 // release
	}
}

func (v *FMVoice) Stop() { v.active = false }

func (v *FMVoice) IsActive() bool { return v.active }

func midiToFreq(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

// Render produces one stereo sample, computing the modulation chain defined
// by the patch's algorithm
func (v *FMVoice) Render() (l, r float32) {
	if !v.active {
		return 0, 0
	}
	if v.sliding {
		v.baseFreq *= v.slideRate
		if (v.slideRate > 1 && v.baseFreq >= v.slideTargetFreq) ||
			(v.slideRate < 1 && v.baseFreq <= v.slideTargetFreq) ||
			v.slideRate == 1 {
			v.baseFreq = v.slideTargetFreq
			v.sliding = false
		}
	}

	alg := Algorithms[clampAlgIndex(v.ctx.Patch.Algorithm)]
	patch := &v.ctx.Patch

	outputs := [6]float32{}
	anyActive := false
	for op := 5; op >= 0; op-- {
		st := &v.ops[op]
		opPatch := &patch.Operators[op]
		v.advanceEnvelope(st, opPatch)
		if st.envStage < 4 {
			anyActive = true
		}

		modSum := float32(0)
		for _, modOp := range alg.ModulatorsOf[op] {
			modSum += outputs[modOp]
		}
		if op == alg.FeedbackOp {
			modSum += st.prevOut * patch.Feedback
		}

		freq := v.baseFreq
		if opPatch.FixedFreq {
			freq = float64(opPatch.FixedFreqHz)
		} else {
			freq = v.baseFreq * float64(opPatch.Ratio)
		}
		st.phase += 2 * math.Pi * freq / v.sampleRate
		if st.phase >= 2*math.Pi {
			st.phase -= 2 * math.Pi
		}
		out := float32(math.Sin(st.phase+float64(modSum))) * opPatch.Level * st.envLevel
		st.prevOut = out
		outputs[op] = out
	}

	var mix float32
	for op := 0; op < 6; op++ {
		if alg.Carrier[op] {
			mix += outputs[op]
		}
	}
	mix *= v.velocity

	if v.lpgActive {
		target := float32(0.2)
		if anyActive {
			target = 1
		}
		v.lpgState += (target - v.lpgState) * 0.01
		mix *= v.lpgState
	}

	if !anyActive {
		v.active = false
	}

	theta := float64(patch.Operators[0].Pan+1) * math.Pi / 4
	l = mix * float32(math.Cos(theta))
	r = mix * float32(math.Sin(theta))
	return
}

func clampAlgIndex(alg int) int {
	idx := alg - 1
	if idx < 0 {
		idx = 0
	}
	if idx > 31 {
		idx = 31
	}
	return idx
}

// advanceEnvelope steps a 4-stage operator envelope (attack/decay1/decay2-
// as-sustain/release) using the patch's Rates/Levels pairs.
func (v *FMVoice) advanceEnvelope(st *fmOperatorState, op *OperatorPatch) {
	if st.envStage >= 4 {
		return
	}
	target := op.Levels[st.envStage]
	rate := op.Rates[st.envStage]
	if rate <= 0 {
		rate = 0.001
	}
	coeff := rate / float32(v.sampleRate)
	st.envLevel += (target - st.envLevel) * coeff
	if absf(st.envLevel-target) < 0.001 {
		st.envLevel = target
		if st.envStage == 3 {
			st.envStage = 4
		} else if st.envStage < 2 {
			st.envStage++
		}
		// stage 2 (sustain) holds until NoteOff moves it to stage 3
	}
}
