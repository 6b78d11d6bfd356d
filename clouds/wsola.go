package clouds

import (
	"math"

	"github.com/midislave/baengraembl/buffer"
)

// wsolaGrain is one of the two overlapping readers that make up the
// overlap-add: each tracks its own position in the source buffer and its
// own phase through the Hann envelope, a half-period (180 degrees) apart
// from its partner so the pair's envelopes sum to unity at every sample.
type wsolaGrain struct {
	readPos  float64
	outPhase float64
}

// WSOLA implements the time-stretching engine: a fixed analysis window S,
// best-match search within a lag window on each hop, Hann-windowed
// overlap-add across two 180-degree-offset grains, and output resampled at
// 2^pitch for pitch shift.
type WSOLA struct {
	windowSize int
	lagWindow  int
	hopFrac    float64 // hop size as a fraction of windowSize; 0.5 gives the classic two-grain 50% overlap

	grains      [2]wsolaGrain
	initialized bool
}

func NewWSOLA() *WSOLA {
	return &WSOLA{windowSize: 2048, lagWindow: 256, hopFrac: 0.5}
}

func (w *WSOLA) Process(buf *buffer.Ring, in []StereoFrame, out []StereoFrame, p Params) {
	n := len(out)
	hop := float64(w.windowSize) * w.hopFrac
	resampleRate := math.Pow(2, float64(p.Pitch))
	bufLen := float64(buf.Len())

	if !w.initialized {
		base := float64(buf.WriteHead()) - float64(p.Position)*bufLen
		w.grains[0] = wsolaGrain{readPos: base, outPhase: 0}
		w.grains[1] = wsolaGrain{readPos: base - hop, outPhase: float64(w.windowSize) / 2}
		w.initialized = true
	}

	for i := 0; i < n; i++ {
		var l, r float32
		for g := range w.grains {
			gr := &w.grains[g]
			sl, sr := buf.ReadLinear(gr.readPos)
			env := hannAt(gr.outPhase, float64(w.windowSize))
			l += sl * env
			r += sr * env

			gr.outPhase += resampleRate
			if gr.outPhase >= float64(w.windowSize) {
				gr.outPhase -= float64(w.windowSize)
				gr.readPos += w.bestMatchAdvance(buf, gr.readPos, hop)
			}
		}
		out[i] = StereoFrame{L: l, R: r}
	}
}

// bestMatchAdvance searches +/- lagWindow samples around the nominal hop
// advance from readPos for the offset with the highest cross-correlation
// against the window that follows it.
func (w *WSOLA) bestMatchAdvance(buf *buffer.Ring, readPos float64, hop float64) float64 {
	bestLag := 0
	bestScore := math.Inf(-1)
	for lag := -w.lagWindow; lag <= w.lagWindow; lag += 16 {
		score := 0.0
		for k := 0; k < 32; k++ {
			a, _ := buf.ReadLinear(readPos + float64(k))
			b, _ := buf.ReadLinear(readPos + hop + float64(lag) + float64(k))
			score += float64(a * b)
		}
		if score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}
	return hop + float64(bestLag)
}

func hannAt(phase, length float64) float32 {
	t := phase / length
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return float32(0.5 * (1 - math.Cos(2*math.Pi*t)))
}
