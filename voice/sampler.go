package voice

import (
	"math"

	"github.com/midislave/baengraembl/buffer"
)

// Sample holds pre-decoded mono PCM at the process sample rate. File
// decoding happens outside this core; it only ever receives PCM.
type Sample struct {
	Data []float32
}

// SliceConfig restricts playback to [Start, End), a strict upper bound.
type SliceConfig struct {
	Start, End int
}

// Sampler implements the SAMPLE/SLICE engine: pitch offset derived from
// the macroPitch, an exponential decay envelope, and a macro-driven LP/HP
// filter that bypasses at the macro's midpoint.
type Sampler struct {
	sample     *Sample
	sampleRate float64
	slice      *SliceConfig

	pos       float64
	pitchRatioinc float64
	ampEnv    float32
	decayCoef float32
	filter    buffer.SVFilter
	cutoffHz  float32
	filterOn  bool
	hp        bool
	active    bool
}

func NewSampler(sampleRate float64, sample *Sample, slice *SliceConfig) *Sampler {
	return &Sampler{sampleRate: sampleRate, sample: sample, slice: slice}
}

// Trigger starts playback. macroPitch/macroDecay/macroFilter are all in
// [0,100]
func (s *Sampler) Trigger(macroPitch, macroDecay, macroFilter, velocity float32) {
	if s.sample == nil || len(s.sample.Data) == 0 {
		// Missing sample data: drop the trigger silently
		s.active = false
		return
	}
	semitones := ((macroPitch - 50) / 50) * 24
	ratio := math.Pow(2, float64(semitones)/12)
	s.pitchRatioinc = ratio

	start := 0
	if s.slice != nil {
		start = s.slice.Start
	}
	s.pos = float64(start)

	decayTime := (macroDecay / 100) * 0.99
	s.decayCoef = decayCoeff(decayTime*1000, s.sampleRate)
	s.ampEnv = velocity

	switch {
	case macroFilter == 50:
		s.filterOn = false
	case macroFilter < 50:
		s.filterOn = true
		s.hp = false
		t := macroFilter / 50
		s.cutoffHz = 4000 - t*(4000-200)
	default:
		s.filterOn = true
		s.hp = true
		t := (macroFilter - 50) / 50
		s.cutoffHz = 200 + t*(4000-200)
	}
	s.filter.Reset()
	s.active = true
}

func (s *Sampler) sliceEnd() int {
	if s.slice != nil {
		return s.slice.End
	}
	return len(s.sample.Data)
}

func (s *Sampler) Render() (l, r float32) {
	if !s.active {
		return 0, 0
	}
	end := s.sliceEnd()
	if int(s.pos) >= end || int(s.pos) >= len(s.sample.Data) {
		s.active = false
		return 0, 0
	}
	i0 := int(s.pos)
	frac := float32(s.pos - float64(i0))
	var s0, s1 float32
	s0 = s.sample.Data[i0]
	if i0+1 < end && i0+1 < len(s.sample.Data) {
		s1 = s.sample.Data[i0+1]
	} else {
		s1 = s0
	}
	sample := s0 + frac*(s1-s0)

	if s.filterOn {
		out := s.filter.Process(sample, s.cutoffHz/20000, 0, 1, 0)
		if s.hp {
			sample = out.HP
		} else {
			sample = out.LP
		}
	}

	s.ampEnv *= s.decayCoef
	sample *= s.ampEnv
	s.pos += s.pitchRatioinc

	if belowFloor(s.ampEnv) {
		s.active = false
	}
	return sample, sample
}

func (s *Sampler) IsActive() bool { return s.active }
func (s *Sampler) NoteOff()       {}
func (s *Sampler) Stop()          { s.active = false }
