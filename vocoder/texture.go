// Package vocoder implements the phase-vocoder frame transformer:
// rectangular<->polar conversion via 16-bit fixed-point phase, magnitude
// texture banks, pitch shift, spectral warp, quantisation and glitch
// variants. The fixed-point phase technique mirrors the teacher's
// precomputed sine-LUT approach in audio_lut.go (fastSin): here the LUT
// is indexed by the top bits of a 16-bit phase word instead of a float
// radian, for the same reason — avoid a trig call per bin per frame.
package vocoder

import "math"

// NumTextures is the number of magnitude texture slices the position
// parameter crossfades between.
const NumTextures = 8

// TextureBank holds NumTextures magnitude slices plus the analysis phase
// state, sized per bin. An unsafe union over the final magnitude slice's
// backing memory would be fragile for no real benefit in Go, so this
// keeps the two phase arrays as explicit fields instead of an aliased
// slice.
type TextureBank struct {
	Size int // size = N/2 - 16 active bins

	Magnitude [NumTextures][]float32
	Phase     []uint16 // analysis phase, one per bin
	PhaseDelta []uint16 // phase delta, one per bin

	primeFrames int // counts frames until the 8-frame priming gate opens
}

// NewTextureBank allocates a bank for `size` active bins.
func NewTextureBank(size int) *TextureBank {
	tb := &TextureBank{Size: size, Phase: make([]uint16, size), PhaseDelta: make([]uint16, size)}
	for i := range tb.Magnitude {
		tb.Magnitude[i] = make([]float32, size)
	}
	return tb
}

// Primed reports whether the 8-frame priming counter has elapsed, gating
// stable readout.
func (tb *TextureBank) Primed() bool { return tb.primeFrames >= 8 }

// Prime advances the priming counter by one frame.
func (tb *TextureBank) Prime() {
	if tb.primeFrames < 8 {
		tb.primeFrames++
	}
}

// nearestTextures returns the two texture indices nearest position*(N-1)
// and the blend weight toward the higher index 2.
func nearestTextures(position float32) (lo, hi int, frac float32) {
	p := position * float32(NumTextures-1)
	if p < 0 {
		p = 0
	}
	if p > float32(NumTextures-1) {
		p = float32(NumTextures - 1)
	}
	lo = int(p)
	hi = lo + 1
	if hi > NumTextures-1 {
		hi = NumTextures - 1
	}
	frac = p - float32(lo)
	return
}

// StoreMagnitudes blends freshly analysed magnitudes into the two texture
// slices nearest position, using one of three feedback-driven blend
// regimes. rng supplies uniform [0,1) draws for the binary-mask regime.
func (tb *TextureBank) StoreMagnitudes(mag []float32, position, feedback float32, rng func() float32) {
	lo, hi, frac := nearestTextures(position)
	switch {
	case feedback >= 0.75:
		// slow evolution: blend toward new with a small, feedback-scaled gain
		gain := (feedback - 0.75) * 4 * 0.1 // small gain that grows with feedback in [0.75,1]
		for i, m := range mag {
			tb.Magnitude[lo][i] += (m - tb.Magnitude[lo][i]) * gain * (1 - frac)
			tb.Magnitude[hi][i] += (m - tb.Magnitude[hi][i]) * gain * frac
		}
	case feedback >= 0.5:
		// attenuated crossfade
		gain := (feedback - 0.5) * 4 // in [0,1) across [0.5,0.75)
		for i, m := range mag {
			tb.Magnitude[lo][i] = tb.Magnitude[lo][i]*(1-gain*(1-frac)) + m*gain*(1-frac)
			tb.Magnitude[hi][i] = tb.Magnitude[hi][i]*(1-gain*frac) + m*gain*frac
		}
	default:
		// probabilistic binary mask
		threshold := (2 * feedback) * (2 * feedback) * 65535
		for i, m := range mag {
			if rng()*65535 < threshold {
				tb.Magnitude[lo][i] = m
				tb.Magnitude[hi][i] = m
			}
		}
	}
	tb.Prime()
}

// ReadMagnitudes performs the equal-power crossfade readback of the two
// textures nearest position 3.
func (tb *TextureBank) ReadMagnitudes(position float32, out []float32) {
	lo, hi, frac := nearestTextures(position)
	fadeOut, fadeIn := equalPower(frac)
	for i := range out {
		out[i] = tb.Magnitude[lo][i]*fadeOut + tb.Magnitude[hi][i]*fadeIn
	}
}

func equalPower(x float32) (fadeOut, fadeIn float32) {
	const halfPi = 1.5707963267948966
	fadeOut = float32(math.Cos(float64(x) * halfPi))
	fadeIn = float32(math.Sin(float64(x) * halfPi))
	return
}
