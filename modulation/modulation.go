// Package modulation implements the per-parameter LFO/modulation engine:
// waveform selection, rate/offset/depth, sample-and-hold semantics, and
// reset-on-event behaviour. The LFO phase accumulator and waveform table
// follow the teacher's PWM LFO fields on Channel (pwmPhase/pwmRate/
// pwmDepth in audio_chip.go) generalised from one hard-wired PWM use to
// an arbitrary modulatable-parameter target.
package modulation

import "math"

type Waveform int

const (
	Sine Waveform = iota
	Triangle
	Square
	Saw
	Noise
	SampleAndHold
)

type ResetMode int

const (
	ResetOff ResetMode = iota
	ResetStep
	ResetAccent
	ResetBar
)

// Config is the per-parameter modulation configuration.
type Config struct {
	Enabled   bool      `json:"enabled"`
	Waveform  Waveform  `json:"waveform"`
	RateHz    float64   `json:"rateHz"` // 0.05..30, log-scaled by the control surface, linear here
	Offset    float64   `json:"offset"` // -100..100
	Depth     float64   `json:"depth"`  // 0..100
	Reset     ResetMode `json:"reset"`
	Muted     bool      `json:"muted"`
	BaseValue float64   `json:"baseValue"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
}

// LFO is one running modulation source. Noise/S&H use a simple xorshift
// PRNG seeded at construction so output is deterministic across runs given
// the same seed, which keeps LFO behaviour reproducible in tests.
type LFO struct {
	phase      float64
	rngState   uint32
	held       float64
	lastStepAt int // scheduler step index at which held was last refreshed
}

func NewLFO(seed uint32) *LFO {
	if seed == 0 {
		seed = 0x9E3779B9
	}
	return &LFO{rngState: seed}
}

// ResetPhase zeroes the LFO phase, invoked when a Config's Reset event
// fires (step/accent/bar boundary).
func (l *LFO) ResetPhase() { l.phase = 0 }

func (l *LFO) next() float64 {
	// xorshift32
	x := l.rngState
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	l.rngState = x
	return float64(x) / float64(1<<32)
}

// waveformValue returns the raw, unscaled waveform output in [-1,1] (or
// [0,1) for noise/S&H before centring) for the current phase in [0,1).
func (l *LFO) waveformValue(w Waveform, stepIndex int) float64 {
	switch w {
	case Sine:
		return math.Sin(2 * math.Pi * l.phase)
	case Triangle:
		p := l.phase
		if p < 0.5 {
			return 4*p - 1
		}
		return 3 - 4*p
	case Square:
		if l.phase < 0.5 {
			return 1
		}
		return -1
	case Saw:
		return 2*l.phase - 1
	case Noise:
		return l.next()*2 - 1
	case SampleAndHold:
		// Sample-and-hold: within one scheduler step, repeated reads
		// return the same cached value.
		if stepIndex != l.lastStepAt {
			l.held = l.next()*2 - 1
			l.lastStepAt = stepIndex
		}
		return l.held
	default:
		return 0
	}
}

// Advance moves the LFO phase forward by dtSeconds at rateHz and returns the
// modulated value: clamp(base + offset_scaled + depth_scaled*wave, min, max).
// stepIndex is the current scheduler step, used only for S&H caching.
func (l *LFO) Advance(cfg Config, dtSeconds float64, stepIndex int) float64 {
	if !cfg.Enabled || cfg.Muted {
		return clampF(cfg.BaseValue, cfg.Min, cfg.Max)
	}
	if cfg.Waveform != SampleAndHold {
		l.phase += cfg.RateHz * dtSeconds
		l.phase -= math.Floor(l.phase)
	}
	wave := l.waveformValue(cfg.Waveform, stepIndex)
	value := cfg.BaseValue + (cfg.Offset/100.0)*rangeOf(cfg) + (cfg.Depth/100.0)*wave*rangeOf(cfg)
	return clampF(value, cfg.Min, cfg.Max)
}

func rangeOf(cfg Config) float64 {
	if cfg.Max > cfg.Min {
		return (cfg.Max - cfg.Min) / 2
	}
	return 1
}

func clampF(v, lo, hi float64) float64 {
	if hi <= lo {
		return v
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Engine owns one LFO per modulated parameter id, keyed by caller-assigned
// string ids (matching the persisted patch's `modulations: {paramId:
// modConfig}` map).
type Engine struct {
	lfos    map[string]*LFO
	configs map[string]Config
	seed    uint32
}

func NewEngine() *Engine {
	return &Engine{lfos: make(map[string]*LFO), configs: make(map[string]Config), seed: 1}
}

func (e *Engine) SetConfig(paramID string, cfg Config) {
	e.configs[paramID] = cfg
	if _, ok := e.lfos[paramID]; !ok {
		e.seed += 0x2545F4914F6CDD1D & 0xFFFFFFFF
		e.lfos[paramID] = NewLFO(e.seed)
	}
}

func (e *Engine) Value(paramID string, dtSeconds float64, stepIndex int) float64 {
	cfg, ok := e.configs[paramID]
	if !ok {
		return 0
	}
	return e.lfos[paramID].Advance(cfg, dtSeconds, stepIndex)
}

// FireReset resets phase for every config whose Reset mode matches the
// given event (step advance, accent hit, or bar boundary).
func (e *Engine) FireReset(event ResetMode) {
	for id, cfg := range e.configs {
		if cfg.Reset == event {
			e.lfos[id].ResetPhase()
		}
	}
}
