package clouds

import (
	"math"

	"github.com/midislave/baengraembl/buffer"
)

// Processor is the Clouds processor host: it owns the shared circular
// buffer, dispatches to the six engines by mode, and runs the per-block
// freeze/feedback/diffuser/reverb/crossfade pipeline around whichever
// engine is selected.
type Processor struct {
	buf     *buffer.Ring
	engines [NumModes]Engine

	freezeLP    buffer.OnePoleSmoother
	feedbackHPL *buffer.HighPass
	feedbackHPR *buffer.HighPass

	diffuser *Diffuser
	tail     []float32
	tailPos  int
	reverbLP *buffer.LowPass

	fbBufL, fbBufR float32

	sampleRate float64
}

// NewProcessor builds a Processor with its own shared buffer and one
// instance of each of the six engines.
func NewProcessor(sampleRate float64, fftSize int, seed int64) *Processor {
	tailLen := int(sampleRate * 0.3)
	if tailLen < 1 {
		tailLen = 1
	}
	p := &Processor{
		buf:         buffer.New(buffer.Size),
		feedbackHPL: buffer.NewHighPass(sampleRate),
		feedbackHPR: buffer.NewHighPass(sampleRate),
		diffuser:    NewDiffuser(sampleRate),
		tail:        make([]float32, tailLen),
		reverbLP:    buffer.NewLowPass(sampleRate),
		sampleRate:  sampleRate,
	}
	p.engines[ModeGranular] = NewGranular(seed)
	p.engines[ModeWSOLA] = NewWSOLA()
	p.engines[ModeLoopingDelay] = &LoopingDelay{}
	p.engines[ModeSpectral] = NewSpectral(fftSize, seed+1)
	p.engines[ModeOliverb] = NewOliverb(sampleRate)
	p.engines[ModeResonestor] = NewResonestor(sampleRate)
	return p
}

// Buffer exposes the shared circular buffer, e.g. so the host layer can
// wire freeze/reset control messages straight through.
func (p *Processor) Buffer() *buffer.Ring { return p.buf }

// TriggerSync forwards a trigger-sync pulse to the looping-delay engine,
// the only mode that consumes it.
func (p *Processor) TriggerSync() {
	if ld, ok := p.engines[ModeLoopingDelay].(*LoopingDelay); ok {
		ld.TriggerSync()
	}
}

// Process runs one block through the twelve-step pipeline: dry capture,
// freeze-smoothed feedback mix into the buffer write, engine dispatch,
// diffuser, feedback tap storage (pre-reverb), equal-power dry/wet
// crossfade, and finally reverb applied after the crossfade so it colors
// the output at every dry/wet position.
func (p *Processor) Process(mode Mode, in []StereoFrame, out []StereoFrame, params Params) {
	mode = ClampMode(mode)
	n := len(out)
	engineIn := make([]StereoFrame, n)
	engineOut := make([]StereoFrame, n)
	dryRef := make([]StereoFrame, n)
	fbGains := make([]float32, n)

	freezeTarget := float32(0)
	if params.Freeze {
		freezeTarget = 1
	}
	hpCutoff := 20 + 100*params.Feedback*params.Feedback

	diffuserAmount := params.Density
	if mode == ModeGranular {
		diffuserAmount = params.Texture - 0.75
		if diffuserAmount < 0 {
			diffuserAmount = 0
		}
		diffuserAmount *= 4
	}
	p.diffuser.SetAmount(diffuserAmount)

	for i := 0; i < n; i++ {
		// Step 1: dry reference, inputGain applied, must not see feedback.
		dryL := in[i].L * params.InputGain
		dryR := in[i].R * params.InputGain

		// Step 2: freeze_lp smoothing, updated before fb_gain so the gain
		// reflects this frame's freeze intent.
		freezeLP := p.freezeLP.Update(freezeTarget, 0.0005)

		// Step 3: high-pass the stored feedback block.
		hpL := p.feedbackHPL.Process(p.fbBufL, hpCutoff)
		hpR := p.feedbackHPR.Process(p.fbBufR, hpCutoff)

		// Step 4: nonlinear feedback/input mix.
		fbGain := params.Feedback * (2 - params.Feedback) * (1 - freezeLP)
		fbScale := fbGain * 1.4
		mixL := dryL + fbGain*(float32(math.Tanh(float64(fbScale*hpL+dryL)))-dryL)
		mixR := dryR + fbGain*(float32(math.Tanh(float64(fbScale*hpR+dryR)))-dryR)

		// Step 5: write into the shared buffer, only if not frozen.
		p.buf.Write(mixL, mixR)

		engineIn[i] = StereoFrame{L: mixL, R: mixR}
		dryRef[i] = StereoFrame{L: dryL, R: dryR}
		fbGains[i] = fbGain
	}

	// Step 6: route to the active engine.
	p.engines[mode].Process(p.buf, engineIn, engineOut, params)

	for i := 0; i < n; i++ {
		fbGain := fbGains[i]
		dryL, dryR := dryRef[i].L, dryRef[i].R

		// Step 7/9: diffuser, amount computed once per block above.
		diffL := p.diffuser.Process(engineOut[i].L)
		diffR := p.diffuser.Process(engineOut[i].R)

		// Step 10: store pre-reverb output as the feedback buffer if
		// fb_gain > 0.001, else zero it.
		if fbGain > 0.001 {
			p.fbBufL, p.fbBufR = diffL, diffR
		} else {
			p.fbBufL, p.fbBufR = 0, 0
		}

		// Step 11: equal-power dry/wet crossfade.
		sqrtHalf := float32(math.Sqrt(0.5))
		theta := float64(params.DryWet) * math.Pi / 2
		fadeOut := float32(math.Cos(theta)) * sqrtHalf
		fadeIn := float32(math.Sin(theta)) * sqrtHalf
		crossL := dryL*fadeOut + diffL*1.2*fadeIn
		crossR := dryR*fadeOut + diffR*1.2*fadeIn

		// Step 8/12: reverb amount/time/lowpass, applied after the
		// crossfade so it is audible at all dry/wet positions.
		reverbAmount := params.Reverb * 0.95 * 0.54
		reverbTime := 0.35 + 0.63*params.Reverb*0.95
		reverbLowpass := 0.6 + 0.37*params.Feedback

		tl := p.tail[p.tailPos]
		damped := p.reverbLP.ProcessCoeff(tl, reverbLowpass)
		fed := (crossL+crossR)*0.5 + damped*reverbTime
		p.tail[p.tailPos] = fed
		p.tailPos++
		if p.tailPos >= len(p.tail) {
			p.tailPos = 0
		}

		out[i] = StereoFrame{
			L: crossL + damped*reverbAmount,
			R: crossR + damped*reverbAmount,
		}
	}
}
