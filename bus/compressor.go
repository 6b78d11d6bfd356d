package bus

import "math"

// Compressor is a simple feed-forward compressor: threshold -20 dB,
// ratio 2:1, attack 5 ms, release 100 ms
type Compressor struct {
	envelope   float32
	attack     float32
	release    float32
	thresholdDB float32
	ratio      float32
}

func NewCompressor(sampleRate float64) *Compressor {
	return &Compressor{
		attack:      float32(math.Exp(-1 / (0.005 * sampleRate))),
		release:     float32(math.Exp(-1 / (0.1 * sampleRate))),
		thresholdDB: -20,
		ratio:       2,
	}
}

// GainReduction returns the linear gain multiplier to apply this sample,
// derived from a feed-forward peak detector ahead of a static 2:1 curve
// above the -20 dB threshold.
func (c *Compressor) GainReduction(sample float32) float32 {
	abs := sample
	if abs < 0 {
		abs = -abs
	}
	if abs > c.envelope {
		c.envelope = c.envelope*c.attack + abs*(1-c.attack)
	} else {
		c.envelope = c.envelope*c.release + abs*(1-c.release)
	}
	if c.envelope < 1e-9 {
		return 1
	}
	levelDB := 20 * math.Log10(float64(c.envelope))
	thresh := float64(c.thresholdDB)
	if levelDB <= thresh {
		return 1
	}
	overDB := levelDB - thresh
	compressedDB := overDB / float64(c.ratio)
	reductionDB := overDB - compressedDB
	return float32(math.Pow(10, -reductionDB/20))
}
