package clouds

import (
	"math"
	"math/rand"

	"github.com/midislave/baengraembl/buffer"
)

// grainSizeLUT maps texture [0,1] to grain size in samples, in [1024, 16384].
var grainSizeLUT = [9]int{1024, 1536, 2048, 3072, 4096, 6144, 8192, 12288, 16384}

func lookupGrainSize(texture float32) int {
	idx := int(texture * float32(len(grainSizeLUT)-1))
	if idx < 0 {
		idx = 0
	}
	if idx > len(grainSizeLUT)-1 {
		idx = len(grainSizeLUT) - 1
	}
	return grainSizeLUT[idx]
}

// Grain is one active grain in the granular engine's voice pool.
type Grain struct {
	bufferOffset      float64
	size              int
	envelopePosition  float64
	pitchRatio        float64
	panL, panR        float32
	active            bool
	window            float32 // 0 = Hann, 1 = rectangular (texture-morphed)
}

func (g *Grain) envelope() float32 {
	t := float32(g.envelopePosition) / float32(g.size)
	hann := float32(0.5 * (1 - math.Cos(2*math.Pi*float64(t))))
	rect := float32(1)
	if t < 0.01 || t > 0.99 {
		rect = t / 0.01
		if t > 0.99 {
			rect = (1 - t) / 0.01
		}
	}
	return hann*(1-g.window) + rect*g.window
}

// MaxGrains is the size of the granular engine's grain pool. The engine
// allocates and uses all MaxGrains slots; the grain-quality setting does
// not change how many grains can be active.
const MaxGrains = 16

// Granular implements the granular playback engine.
type Granular struct {
	grains       [MaxGrains]Grain
	density      float32
	phase        float64
	writeHead    int
	rng          *rand.Rand
	activeCount  int
}

func NewGranular(seed int64) *Granular {
	return &Granular{rng: rand.New(rand.NewSource(seed)), activeCount: MaxGrains}
}

func (g *Granular) Process(buf *buffer.Ring, in []StereoFrame, out []StereoFrame, p Params) {
	n := len(out)
	g.writeHead = buf.WriteHead()
	density := p.Density * 4 // density accumulator scale, Hz-ish
	pitchRatio := math.Pow(2, float64(p.Pitch)*2)
	size := lookupGrainSize(p.Texture)

	for i := 0; i < n; i++ {
		g.phase += float64(density) / p.SampleRate
		if g.phase >= 1 {
			g.phase -= 1
			g.spawnGrain(buf, p, size, pitchRatio)
		}

		var l, r float32
		for gi := range g.grains {
			gr := &g.grains[gi]
			if !gr.active {
				continue
			}
			pos := gr.bufferOffset + gr.envelopePosition*gr.pitchRatio
			var sl, sr float32
			switch p.GrainQuality {
			case QualityHermite:
				sl, sr = buf.ReadHermite(pos)
			default:
				sl, sr = buf.ReadLinear(pos)
			}
			env := gr.envelope()
			l += sl * env * gr.panL
			r += sr * env * gr.panR

			gr.envelopePosition++
			if gr.envelopePosition >= float64(gr.size) {
				gr.active = false
			}
		}
		out[i] = StereoFrame{L: l, R: r}
	}
}

func (g *Granular) spawnGrain(buf *buffer.Ring, p Params, size int, pitchRatio float64) {
	var slot = -1
	for i := 0; i < g.activeCount && i < MaxGrains; i++ {
		if !g.grains[i].active {
			slot = i
			break
		}
	}
	if slot == -1 {
		return
	}
	bufLen := float64(buf.Len())
	offset := float64(g.writeHead) - float64(p.Position)*(bufLen-float64(size))
	pan := (g.rng.Float32()*2 - 1) * p.Spread
	theta := float64(pan+1) * math.Pi / 4
	g.grains[slot] = Grain{
		bufferOffset:     offset,
		size:             size,
		pitchRatio:       pitchRatio,
		panL:             float32(math.Cos(theta)),
		panR:             float32(math.Sin(theta)),
		active:           true,
		window:           p.Texture,
	}
}
