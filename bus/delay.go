package bus

import (
	"math"

	"github.com/midislave/baengraembl/buffer"
)

// wowFlutterLFO is a single sine LFO used to modulate delay time (two
// instances: wow at 0.1-0.5 Hz/0-5ms, flutter at 4-8 Hz/0-1ms).
type wowFlutterLFO struct {
	phase float64
}

func (l *wowFlutterLFO) next(rateHz float32, sampleRate float64) float32 {
	l.phase += float64(rateHz) / sampleRate
	if l.phase >= 1 {
		l.phase -= 1
	}
	return float32(math.Sin(2 * math.Pi * l.phase))
}

// TapeDelay implements fixed delay line (max 5 s) with
// wow/flutter modulation, dual crossfaded saturation, a compensation
// gain, a lowpass, and a feedback tap. The non-audible tap-delay
// visualisation cascade is not implemented: no tap-delay display data is
// produced, and nothing outside TapeDelay reads the delay line.
type TapeDelay struct {
	line     []float32
	writePos int

	wow, flutter wowFlutterLFO

	satA, satB   float32 // crossfaded saturation amount, old/new
	satCrossfade float32 // 0 = satA, 1 = satB
	satTarget    float32
	satStep      float32

	lowpass *buffer.LowPass

	sampleRate float64
}

const tapeDelayMaxSeconds = 5.0
const tapeDelayCrossfadeSec = 0.25

// DelayParams is the tape delay's control surface
type DelayParams struct {
	DelayTimeSec    float32 `json:"delayTimeSec"` // base delay time before LFO modulation
	WowDepthMs      float32 `json:"wowDepthMs"`    // [0,5]
	WowRateHz       float32 `json:"wowRateHz"`     // [0.1,0.5]
	FlutterDepthMs  float32 `json:"flutterDepthMs"` // [0,1]
	FlutterRateHz   float32 `json:"flutterRateHz"`  // [4,8]
	Saturation      float32 `json:"saturation"`    // [0,100]
	FeedbackGain    float32 `json:"feedbackGain"`  // [0,1]
	LowpassCutoffHz float32 `json:"lowpassCutoffHz"`
	WetGain         float32 `json:"wetGain"`
}

func NewTapeDelay(sampleRate float64) *TapeDelay {
	return &TapeDelay{
		line:       make([]float32, int(tapeDelayMaxSeconds*sampleRate)),
		lowpass:    buffer.NewLowPass(sampleRate),
		sampleRate: sampleRate,
	}
}

// SetSaturation requests a new saturation amount; the transition
// crossfades over 250 ms, the same pattern the global reverb uses for its
// convolver swap.
func (t *TapeDelay) SetSaturation(amount float32) {
	if t.satTarget == amount {
		return
	}
	t.satA = t.currentSaturation()
	t.satB = amount
	t.satCrossfade = 0
	t.satTarget = amount
	t.satStep = float32(1 / (tapeDelayCrossfadeSec * t.sampleRate))
}

func (t *TapeDelay) currentSaturation() float32 {
	return t.satA + (t.satB-t.satA)*t.satCrossfade
}

// Process runs one sample through the delay: modulated read position,
// dual-saturation waveshape, compensation gain, lowpass, wet gain, and a
// feedback tap summed back into the write.
func (t *TapeDelay) Process(in float32, p DelayParams) float32 {
	n := len(t.line)

	wowMod := t.wow.next(p.WowRateHz, t.sampleRate) * p.WowDepthMs * 0.001
	flutterMod := t.flutter.next(p.FlutterRateHz, t.sampleRate) * p.FlutterDepthMs * 0.001
	delaySamples := float64(p.DelayTimeSec+wowMod+flutterMod) * t.sampleRate
	if delaySamples < 1 {
		delaySamples = 1
	}

	readPos := float64(t.writePos) - delaySamples
	for readPos < 0 {
		readPos += float64(n)
	}
	i0 := int(readPos) % n
	i1 := (i0 + 1) % n
	frac := float32(readPos - math.Floor(readPos))
	delayed := t.line[i0] + frac*(t.line[i1]-t.line[i0])

	if t.satCrossfade < 1 {
		t.satCrossfade += t.satStep
		if t.satCrossfade > 1 {
			t.satCrossfade = 1
		}
	}
	sat := t.currentSaturation()
	saturatedA := tapeSaturate(delayed, t.satA)
	saturatedB := tapeSaturate(delayed, t.satB)
	saturated := saturatedA + (saturatedB-saturatedA)*t.satCrossfade

	k := float32(math.Pow(float64(sat/100), 3)) * 20
	comp := 1 / (1 + k*0.75)
	compensated := saturated * comp

	filtered := t.lowpass.Process(compensated, p.LowpassCutoffHz)
	wet := filtered * p.WetGain

	t.line[t.writePos] = in + filtered*p.FeedbackGain
	t.writePos++
	if t.writePos >= n {
		t.writePos = 0
	}

	return wet
}

func tapeSaturate(x, amountPercent float32) float32 {
	if amountPercent <= 0 {
		return x
	}
	k := amountPercent * 2
	return float32(math.Tanh(float64(x * (1 + k/100))))
}
