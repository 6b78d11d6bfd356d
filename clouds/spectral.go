package clouds

import (
	"math"
	"math/rand"

	"github.com/midislave/baengraembl/buffer"
	"github.com/midislave/baengraembl/fft"
	"github.com/midislave/baengraembl/vocoder"
)

// Spectral wraps the phase vocoder of package vocoder against the shared
// buffer through an STFT, with Clouds parameters mapped as follows:
// position -> playback offset, texture -> quantisation/warp, density ->
// phase randomisation, pitch -> pitch ratio. The size parameter is not
// read: window size and hop stay as built.
type Spectral struct {
	stftL, stftR *fft.STFT
	xformL, xformR *vocoder.Transformer
	fftSize      int
	readPos      float64
	rng          *rand.Rand
}

// NewSpectral builds a Spectral engine with a fixed FFT size and hop; the
// "size" parameter changes neither of them.
func NewSpectral(fftSize int, seed int64) *Spectral {
	rng := rand.New(rand.NewSource(seed))
	s := &Spectral{fftSize: fftSize, rng: rng}
	s.stftL = fft.NewSTFT(fftSize)
	s.stftR = fft.NewSTFT(fftSize)
	s.xformL = vocoder.NewTransformer(fftSize, func() float32 { return rng.Float32() })
	s.xformR = vocoder.NewTransformer(fftSize, func() float32 { return rng.Float32() })
	s.stftL.Transformer = s.xformL
	s.stftR.Transformer = s.xformR
	return s
}

func (s *Spectral) Process(buf *buffer.Ring, in []StereoFrame, out []StereoFrame, p Params) {
	n := len(out)
	bufLen := float64(buf.Len())
	if s.readPos == 0 {
		s.readPos = float64(buf.WriteHead()) - float64(p.Position)*bufLen
	}

	vp := vocoder.Params{
		Position:           p.Texture,
		Feedback:           p.Feedback,
		Warp:               p.Texture,
		PitchRatio:         float32(math.Pow(2, float64(p.Pitch))),
		QuantiseAmount:      p.Texture,
		PhaseRandomization: p.Density,
		Freeze:             p.Freeze,
	}
	s.xformL.Params = vp
	s.xformR.Params = vp

	inL := make([]int16, n)
	inR := make([]int16, n)
	outL := make([]int16, n)
	outR := make([]int16, n)
	for i := 0; i < n; i++ {
		l, r := buf.ReadLinear(s.readPos)
		inL[i] = floatToInt16(l)
		inR[i] = floatToInt16(r)
		s.readPos++
	}
	s.stftL.Process(inL, outL, n, 1)
	s.stftR.Process(inR, outR, n, 1)
	for i := 0; i < n; i++ {
		out[i] = StereoFrame{L: int16ToFloat(outL[i]), R: int16ToFloat(outR[i])}
	}
}

func floatToInt16(v float32) int16 {
	x := v * 32767
	if x > 32767 {
		x = 32767
	}
	if x < -32768 {
		x = -32768
	}
	return int16(x)
}

func int16ToFloat(v int16) float32 { return float32(v) / 32767 }
