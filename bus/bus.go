// Package bus implements the master bus processor: input trim,
// drive/crunch waveshaping, a transient shaper, a sub-bass "boom"
// generator, a feed-forward compressor, a dampen lowpass, output gain/
// dry-wet, and a final brick-wall limiter. The signal-chain ordering and
// per-sample style (read registers once, process in a single pass, clamp
// at the end) is adapted from the teacher's `SoundChip.GenerateSample`
// (filter -> overdrive -> reverb -> clamp).
package bus

import (
	"math"

	"github.com/midislave/baengraembl/buffer"
)

// Drive selects the master bus waveshaper curve.
type Drive int

const (
	DriveSoft Drive = iota
	DriveMedium
	DriveHard
)

// Params is the per-block master-bus control surface.
type Params struct {
	InputTrimDB float32 `json:"inputTrimDb"` // [-12, 12]

	Drive       Drive   `json:"drive"`
	DriveAmount float32 `json:"driveAmount"` // [0,1]

	CrunchAmount float32 `json:"crunchAmount"` // [0,1]

	TransientAmount float32 `json:"transientAmount"` // [0,100], 50 = neutral

	BoomEnabled   bool    `json:"boomEnabled"`
	BoomFreq      float32 `json:"boomFreq"`      // Hz [30,90]
	BoomDecay     float32 `json:"boomDecay"`     // seconds
	BoomThreshold float32 `json:"boomThreshold"` // linear amplitude

	CompressorEnabled bool `json:"compressorEnabled"`

	DampenAmount float32 `json:"dampenAmount"` // [0,1], log-mapped to 500..30000 Hz

	OutputGainDB float32 `json:"outputGainDb"`
	DryWet       float32 `json:"dryWet"` // [0,1]
}

// Clamp enforces the declared parameter ranges.
func (p *Params) Clamp() {
	p.InputTrimDB = clampf(p.InputTrimDB, -12, 12)
	p.DriveAmount = clamp01(p.DriveAmount)
	p.CrunchAmount = clamp01(p.CrunchAmount)
	p.TransientAmount = clampf(p.TransientAmount, 0, 100)
	p.BoomFreq = clampf(p.BoomFreq, 30, 90)
	p.DampenAmount = clamp01(p.DampenAmount)
	p.OutputGainDB = clampf(p.OutputGainDB, -24, 24)
	p.DryWet = clamp01(p.DryWet)
}

func clamp01(v float32) float32 { return clampf(v, 0, 1) }

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func dbToLinear(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}

// Processor is the master bus's per-channel (stereo) running state.
type Processor struct {
	crunchHP *buffer.HighPass
	crunchLP *buffer.LowPass
	dampenLP *buffer.LowPass

	transientFast, transientSlow *Follower

	boomPhase float32
	boomEnv   float32
	prevAbs   float32

	comp *Compressor

	limiter Limiter

	sampleRate float64
}

// NewProcessor builds a stereo-summed-to-mono-control master bus (the
// dynamics/boom/transient side-chains run on the summed signal the way a
// hardware bus compressor's detector does; drive/crunch/dampen run per
// sample on each channel independently).
func NewProcessor(sampleRate float64) *Processor {
	return &Processor{
		crunchHP:      buffer.NewHighPass(sampleRate),
		crunchLP:      buffer.NewLowPass(sampleRate),
		dampenLP:      buffer.NewLowPass(sampleRate),
		transientFast: NewFollower(0.001, sampleRate),
		transientSlow: NewFollower(0.05, sampleRate),
		comp:          NewCompressor(sampleRate),
		sampleRate:    sampleRate,
	}
}

// Process runs one stereo sample through the full bus chain.
func (b *Processor) Process(l, r float32, p Params) (float32, float32) {
	trim := dbToLinear(p.InputTrimDB)
	dryL, dryR := l, r
	l *= trim
	r *= trim

	l = b.drive(l, p)
	r = b.drive(r, p)

	l = b.crunch(l, p)
	r = b.crunch(r, p)

	mono := (l + r) * 0.5

	transGain := b.transientGain(mono, p.TransientAmount)
	l *= transGain
	r *= transGain

	if p.BoomEnabled {
		boom := b.boom(mono, p)
		l += boom
		r += boom
	}

	if p.CompressorEnabled {
		gr := b.comp.GainReduction(mono)
		l *= gr
		r *= gr
	}

	dampCutoff := dampenCutoffHz(p.DampenAmount)
	l = b.dampenLP.Process(l, dampCutoff)
	r = b.dampenLP.Process(r, dampCutoff)

	outGain := dbToLinear(p.OutputGainDB)
	l *= outGain
	r *= outGain

	l = dryL*(1-p.DryWet) + l*p.DryWet
	r = dryR*(1-p.DryWet) + r*p.DryWet

	l = b.limiter.Process(l)
	r = b.limiter.Process(r)

	return l, r
}

// drive implements soft/hard waveshapers. Medium blends
// linearly between the two.
func (b *Processor) drive(x float32, p Params) float32 {
	if p.DriveAmount <= 0 {
		return x
	}
	soft := softDrive(x, p.DriveAmount)
	hard := hardDrive(x, p.DriveAmount)
	var driven float32
	switch p.Drive {
	case DriveSoft:
		driven = soft
	case DriveHard:
		driven = hard
	default:
		driven = (soft + hard) * 0.5
	}
	return x + (driven-x)*p.DriveAmount
}

func softDrive(x, amount float32) float32 {
	k := amount * 200
	absX := x
	if absX < 0 {
		absX = -absX
	}
	denom := float32(math.Pi) + k*absX
	if denom == 0 {
		return 0
	}
	return (float32(math.Pi) + k) * x / denom
}

func hardDrive(x, amount float32) float32 {
	gain := 1 + amount*3
	y := x * gain
	if y > 1 {
		y = 1 - (y-1)*0.25 // fold back slightly past the clip point
	}
	if y < -1 {
		y = -1 - (y+1)*0.25
	}
	return clampf(y, -1, 1)
}

// crunch applies a mid-band (400 Hz - 6 kHz) waveshape blended by amount,
//
func (b *Processor) crunch(x float32, p Params) float32 {
	if p.CrunchAmount <= 0 {
		return x
	}
	mid := b.crunchHP.Process(x, 400)
	mid = b.crunchLP.Process(mid, 6000)
	shaped := softDrive(mid, 0.5)
	return x + (shaped-mid)*p.CrunchAmount
}

func dampenCutoffHz(amount float32) float32 {
	// log-mapped 500..30000 Hz
	logLo := math.Log(500)
	logHi := math.Log(30000)
	return float32(math.Exp(logLo + float64(amount)*(logHi-logLo)))
}
