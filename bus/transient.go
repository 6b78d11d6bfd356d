package bus

import "math"

// Follower is a one-pole envelope follower with a single time constant,
// used in fast/slow pairs by the transient shaper.
type Follower struct {
	level float32
	coeff float32
}

// NewFollower builds a Follower with the given time constant in seconds.
func NewFollower(timeSec float32, sampleRate float64) *Follower {
	return &Follower{coeff: float32(math.Exp(-1 / (float64(timeSec) * sampleRate)))}
}

func (f *Follower) Process(sample float32) float32 {
	rect := sample
	if rect < 0 {
		rect = -rect
	}
	f.level = f.level*f.coeff + rect*(1-f.coeff)
	return f.level
}

// transientGain implements transient shaper:
// gain = (fast/slow)^transientFactor, factor = 2*(trans/50 - 1).
func (b *Processor) transientGain(mono float32, transientAmount float32) float32 {
	fast := b.transientFast.Process(mono)
	slow := b.transientSlow.Process(mono)
	if slow < 1e-9 {
		return 1
	}
	factor := 2 * (transientAmount/50 - 1)
	ratio := float64(fast / slow)
	if ratio <= 0 {
		return 1
	}
	return float32(math.Pow(ratio, float64(factor)))
}
