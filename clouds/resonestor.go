package clouds

import (
	"math"

	"github.com/midislave/baengraembl/buffer"
)

// chordVoicings lists the 11 interval sets (in semitones from the root)
// that Resonestor mode selects between via the size
// parameter, mirroring the "11 chords" of the Mutable Instruments
// Parasites Resonestor firmware.
var chordVoicings = [11][]int{
	{0},
	{0, 12},
	{0, 7, 12},
	{0, 4, 7},
	{0, 3, 7},
	{0, 4, 7, 11},
	{0, 3, 7, 10},
	{0, 5, 7, 12},
	{0, 4, 7, 14},
	{0, 3, 7, 14},
	{0, 2, 7, 9},
}

// comb is the delay line behind a single damped resonant voice; the
// damping lowpass itself lives in Resonestor.dampStates since the same
// comb slice is reallocated whenever its tuned length changes.
type comb struct {
	line []float32
	pos  int
}

func newComb(length int) *comb {
	if length < 2 {
		length = 2
	}
	return &comb{line: make([]float32, length)}
}

// Resonestor implements the modal/string resonator engine: the input
// excites a bank of damped combs tuned to the selected chord's intervals
// above a root note, with size selecting among the 11 voicings and spread
// controlling per-voice stereo placement. Control mapping: pitch->root
// note, size->chord, density->narrow (bandwidth/Q) and burst-trigger above
// 0.9, texture->damping, feedback->feedback (hard-clamped to 0.95).
type Resonestor struct {
	combsL, combsR [4]*comb
	dampStates     [4]*buffer.LowPass
	narrowStates   [4]*buffer.LowPass
	sampleRate     float64
	prevDensity    float32
}

func NewResonestor(sampleRate float64) *Resonestor {
	r := &Resonestor{sampleRate: sampleRate}
	for i := range r.combsL {
		r.combsL[i] = newComb(1)
		r.combsR[i] = newComb(1)
		r.dampStates[i] = buffer.NewLowPass(sampleRate)
		r.narrowStates[i] = buffer.NewLowPass(sampleRate)
	}
	return r
}

func combLength(freqHz, sampleRate float64) int {
	if freqHz < 20 {
		freqHz = 20
	}
	n := int(sampleRate / freqHz)
	if n < 2 {
		n = 2
	}
	return n
}

func (r *Resonestor) Process(buf *buffer.Ring, in []StereoFrame, out []StereoFrame, p Params) {
	n := len(out)
	chordIdx := int(p.Size * float32(len(chordVoicings)-1))
	if chordIdx < 0 {
		chordIdx = 0
	}
	if chordIdx >= len(chordVoicings) {
		chordIdx = len(chordVoicings) - 1
	}
	intervals := chordVoicings[chordIdx]

	rootMidi := 60 + p.Pitch*12 // C1..C5 range across the +/-2 octave pitch span

	feedback := p.Feedback
	if feedback > 0.95 {
		feedback = 0.95 // hard-clamped at the engine boundary to guarantee stability
	}

	dampCoeff := 0.3 + 0.7*p.Texture // texture -> damping, [0.3,1.0]

	narrow := 0.001 + 0.009*p.Density // density -> narrow (bandwidth/Q)
	if narrow < 0.001 {
		narrow = 0.001
	}
	if narrow > 0.01 {
		narrow = 0.01
	}

	burst := p.Density > 0.9 && r.prevDensity <= 0.9
	r.prevDensity = p.Density

	for voice := 0; voice < len(r.combsL); voice++ {
		interval := 0
		if voice < len(intervals) {
			interval = intervals[voice]
		} else {
			interval = intervals[len(intervals)-1]
		}
		freq := 440 * math.Pow(2, (float64(rootMidi)+float64(interval)-69)/12)
		length := combLength(freq, r.sampleRate)
		if len(r.combsL[voice].line) != length {
			r.combsL[voice] = newComb(length)
			r.combsR[voice] = newComb(length)
		}
	}

	pan := make([]float32, len(r.combsL))
	for voice := range pan {
		spreadPos := float32(voice) / float32(len(r.combsL)-1)
		pan[voice] = (spreadPos*2 - 1) * p.Spread
	}

	outputGain := 1 + 0.5*narrow

	for i := 0; i < n; i++ {
		excite := (in[i].L + in[i].R) * 0.5
		if burst && i == 0 {
			excite += 1 // density>0.9 re-excites the bank with an impulse
		}
		var l, r2 float32
		for voice := range r.combsL {
			cl := r.combsL[voice]
			cr := r.combsR[voice]

			readL := cl.line[cl.pos]
			dL := r.dampStates[voice].ProcessCoeff(readL, dampCoeff)
			dL = r.narrowStates[voice].ProcessCoeff(dL, 1-narrow)
			fedL := excite + dL*feedback
			cl.line[cl.pos] = fedL
			cl.pos = (cl.pos + 1) % len(cl.line)

			readR := cr.line[cr.pos]
			dR := r.dampStates[voice].ProcessCoeff(readR, dampCoeff)
			dR = r.narrowStates[voice].ProcessCoeff(dR, 1-narrow)
			fedR := excite + dR*feedback
			cr.line[cr.pos] = fedR
			cr.pos = (cr.pos + 1) % len(cr.line)

			theta := float64(pan[voice]+1) * math.Pi / 4
			l += readL * float32(math.Cos(theta))
			r2 += readR * float32(math.Sin(theta))
		}
		out[i] = StereoFrame{L: l * outputGain, R: r2 * outputGain}
	}
}
