package vocoder

import "math"

// Params is the set of per-frame control inputs read by Transformer.Transform,
// mirroring the Clouds engine's parameter mapping.
type Params struct {
	Position            float32 // texture crossfade position [0,1]
	Feedback            float32 // texture blend regime selector [0,1]
	Warp                float32 // spectral warp amount [0,1]
	PitchRatio          float32 // pitch shift ratio
	GlitchActive        bool
	GlitchAlgo          GlitchAlgorithm
	QuantiseAmount      float32 // magnitude quantisation amount [0,1]
	PhaseRandomization  float32 // [0,1]
	Freeze              bool
}

// Transformer implements fft.FrameTransformer, running the full per-frame
// algorithm against a TextureBank. One Transformer is
// dedicated to a single half-spectrum size (N/2+1 full bins, of which the
// top 16 are always forced to zero, leaving `size` = N/2-16 active bins).
type Transformer struct {
	FFTHalfSize int // N/2 + 1, the length of the real/imag slices passed in
	Active      int // size = N/2 - 16, the active bin count

	bank      *TextureBank
	holdState *glitchHoldState
	rng       func() float32

	synthPhase []uint16 // prevPhase carried across frames, per bin

	magScratch   []float32
	warpScratch  []float32
	pitchScratch []float32

	Params Params
}

// NewTransformer builds a Transformer for an FFT of size n (so fftHalfSize
// = n/2+1, active = n/2-16).
func NewTransformer(n int, rng func() float32) *Transformer {
	fftHalf := n/2 + 1
	active := n/2 - 16
	return &Transformer{
		FFTHalfSize:  fftHalf,
		Active:       active,
		bank:         NewTextureBank(active),
		holdState:    NewGlitchHoldState(active),
		rng:          rng,
		synthPhase:   make([]uint16, active),
		magScratch:   make([]float32, active),
		warpScratch:  make([]float32, active),
		pitchScratch: make([]float32, active),
	}
}

// Transform implements fft.FrameTransformer. real/imag have length
// FFTHalfSize; bins [Active, FFTHalfSize) are the top-16 forced-zero band
// plus DC/Nyquist handling.
func (t *Transformer) Transform(real, imag []float32) {
	n := t.Active
	p := t.Params

	// Step 1: force DC and Nyquist to zero.
	real[0], imag[0] = 0, 0
	last := len(real) - 1
	real[last], imag[last] = 0, 0
	for i := n; i < len(real); i++ {
		real[i], imag[i] = 0, 0
	}

	if !p.Freeze {
		// Step 2: analyse magnitude/phase, update texture bank.
		for i := 0; i < n; i++ {
			re, im := real[i], imag[i]
			mag := float32(math.Hypot(float64(re), float64(im)))
			phase := phaseToUint16(math.Atan2(float64(im), float64(re)))
			t.bank.PhaseDelta[i] = deltaPhase16(phase, t.bank.Phase[i])
			t.bank.Phase[i] = phase
			t.magScratch[i] = mag
		}
		t.bank.StoreMagnitudes(t.magScratch, p.Position, p.Feedback, t.rng)
	}

	// Step 3: read back via equal-power crossfade.
	t.bank.ReadMagnitudes(p.Position, t.magScratch)

	// Step 4: spectral warp.
	Warp(t.magScratch, t.warpScratch, p.Warp)

	// Step 5: pitch shift.
	PitchShift(t.warpScratch, t.pitchScratch, p.PitchRatio)

	// Step 6: glitch.
	if p.GlitchActive {
		ApplyGlitch(t.pitchScratch, p.GlitchAlgo, t.rng, t.holdState)
	}

	// Step 7: magnitude quantisation.
	Quantise(t.pitchScratch, p.QuantiseAmount, (t.FFTHalfSize-1)*2)

	// Step 8: synthesis phase.
	for i := 0; i < n; i++ {
		syn := t.synthPhase[i]
		advance := uint16(float64(t.bank.PhaseDelta[i]) * float64(p.PitchRatio))
		next := t.synthPhase[i] + advance
		if p.PhaseRandomization > 0.05 {
			amt := clamp01((p.PhaseRandomization-0.05)*1.06)
			amt = amt * amt * 32768
			next += uint16(amt * t.rng())
		}
		t.synthPhase[i] = next

		// Step 9: polar -> rectangular using the 1024-entry LUT.
		sin, cos := phase16ToSinCos(syn)
		mag := t.pitchScratch[i]
		real[i] = mag * cos
		imag[i] = mag * sin
	}
	for i := n; i < len(real); i++ {
		real[i], imag[i] = 0, 0
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
