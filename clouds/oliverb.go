package clouds

import (
	"math"

	"github.com/midislave/baengraembl/buffer"
)

// shimmerShifter is a two-tap granular pitch shifter (constant read-rate
// offset taps crossfaded a half-period apart), the same cheap technique
// glossary attributes to "shimmer" reverbs: pitch the tank
// output up an octave and re-inject it into the feedback path.
type shimmerShifter struct {
	line     []float32
	writePos int
	readPos  float64
	period   float64
}

func newShimmerShifter(length int) *shimmerShifter {
	return &shimmerShifter{line: make([]float32, length), period: float64(length) / 4}
}

func (s *shimmerShifter) process(in float32, ratio float64) float32 {
	s.line[s.writePos] = in
	n := len(s.line)

	tapA := s.readPos
	tapB := math.Mod(s.readPos+s.period, float64(n))
	fadeA := s.crossfadeGain(tapA, n)
	fadeB := s.crossfadeGain(tapB, n)

	a := s.readAt(tapA, n)
	b := s.readAt(tapB, n)
	out := a*fadeA + b*fadeB

	s.readPos = math.Mod(s.readPos+ratio, float64(n))
	s.writePos++
	if s.writePos >= n {
		s.writePos = 0
	}
	return out
}

func (s *shimmerShifter) readAt(pos float64, n int) float32 {
	i0 := int(pos) % n
	i1 := (i0 + 1) % n
	frac := float32(pos - math.Floor(pos))
	return s.line[i0] + frac*(s.line[i1]-s.line[i0])
}

// crossfadeGain returns the Hann-shaped gain for a tap at the given
// distance into its grain period, so the two taps sum to unity as one
// fades in while the other fades out.
func (s *shimmerShifter) crossfadeGain(pos float64, n int) float32 {
	distFromWrite := math.Mod(float64(s.writePos)-pos+float64(n), float64(n))
	distFromWrite = math.Mod(distFromWrite, 2*s.period)
	t := distFromWrite / s.period
	if t < 0 {
		t = 0
	}
	if t > 2 {
		t = 2
	}
	return float32(0.5 * (1 - math.Cos(math.Pi*t)))
}

// Oliverb implements the Parasites-style reverb engine: a short diffuser
// ahead of a single modulated feedback delay with damping, and an
// optional shimmer tap pitch-shifted by 2^(pitch/2) and summed back into
// the feedback path. Control mapping follows the Parasites Oliverb control
// table: diffusion<-spread, size<-size (tank length), mod_rate<-feedback,
// mod_amount<-reverb, ratio<-pitch (shimmer, half-octave steps), decay<-
// density and |pitch|, and texture splits below/above 0.5 into a
// low-pass/high-pass damping choice.
type Oliverb struct {
	diffuser   *Diffuser
	tank       []float32 // allocated at the maximum tank length; size shrinks the active span
	tankPos    int
	lfoPhase   float64
	dampLP     *buffer.LowPass
	dampHP     *buffer.HighPass
	shimmerL   *shimmerShifter
	shimmerR   *shimmerShifter
	sampleRate float64
}

func NewOliverb(sampleRate float64) *Oliverb {
	maxTankLen := int(sampleRate * 0.12)
	return &Oliverb{
		diffuser:   NewDiffuser(sampleRate),
		tank:       make([]float32, maxTankLen),
		dampLP:     buffer.NewLowPass(sampleRate),
		dampHP:     buffer.NewHighPass(sampleRate),
		shimmerL:   newShimmerShifter(4096),
		shimmerR:   newShimmerShifter(4096),
		sampleRate: sampleRate,
	}
}

func (o *Oliverb) Process(buf *buffer.Ring, in []StereoFrame, out []StereoFrame, p Params) {
	n := len(out)

	diffusion := 0.3 + 0.5*p.Spread
	o.diffuser.SetAmount(diffusion)

	sizeFrac := 0.05 + 0.94*p.Size
	tankLen := int(float32(len(o.tank)) * sizeFrac)
	if tankLen < 64 {
		tankLen = 64
	}
	if tankLen > len(o.tank) {
		tankLen = len(o.tank)
	}

	lfoRateHz := float64(p.Feedback) // mod_rate <- feedback
	modDepth := p.Reverb * 300       // mod_amount <- reverbAmount*300
	shimmerRatio := math.Pow(2, float64(p.Pitch)/2)

	frozen := p.Freeze
	var decay float32
	if frozen {
		decay = 1
	} else {
		pitchSemitones := p.Pitch * 12
		abs := pitchSemitones
		if abs < 0 {
			abs = -abs
		}
		decay = p.Density*1.3 + 0.15*abs/24
	}

	var dryGain float32 = 1
	if frozen {
		dryGain = 0
	}

	useHP := p.Texture >= 0.5
	var lpCutoff, hpCutoff float32
	if useHP {
		hpCutoff = 200 + 1800*((p.Texture-0.5)/0.5)
	} else {
		lpCutoff = 2000 + 10000*(p.Texture/0.5)
	}

	for i := 0; i < n; i++ {
		dry := (in[i].L + in[i].R) * 0.5 * dryGain
		diffused := o.diffuser.Process(dry)

		o.lfoPhase += lfoRateHz / o.sampleRate
		if o.lfoPhase >= 1 {
			o.lfoPhase -= 1
		}
		mod := float32(math.Sin(2 * math.Pi * o.lfoPhase))
		readPos := float64(o.tankPos) - float64(modDepth*mod)
		for readPos < 0 {
			readPos += float64(tankLen)
		}
		i0 := int(readPos) % tankLen
		tapped := o.tank[i0]

		var damped float32
		if frozen {
			damped = tapped // Freeze: LP=1, HP=0 - both resolve to an unfiltered tap
		} else if useHP {
			damped = o.dampHP.Process(tapped, hpCutoff)
		} else {
			damped = o.dampLP.Process(tapped, lpCutoff)
		}
		fed := diffused + damped*decay

		if p.Pitch > 0.01 {
			shimmer := o.shimmerL.process(damped, shimmerRatio)
			fed += shimmer * p.Pitch * 0.5
		}

		o.tank[o.tankPos] = fed
		o.tankPos++
		if o.tankPos >= tankLen {
			o.tankPos = 0
		}

		wet := tapped
		out[i] = StereoFrame{L: wet, R: wet}
	}
}
