package bus

import "math"

// boom implements threshold-triggered sub-bass generator: a
// sine at boomFreq is retriggered to full envelope whenever mono crosses
// boomThreshold on the rise, then decays exponentially over boomDecay
// seconds.
func (b *Processor) boom(mono float32, p Params) float32 {
	abs := mono
	if abs < 0 {
		abs = -abs
	}

	decayPerSample := float32(1)
	if p.BoomDecay > 0 {
		decayPerSample = float32(math.Exp(-1 / (float64(p.BoomDecay) * b.sampleRate)))
	}
	b.boomEnv *= decayPerSample

	if abs >= p.BoomThreshold && b.prevAbs < p.BoomThreshold {
		b.boomEnv = 1
	}
	b.prevAbs = abs

	b.boomPhase += p.BoomFreq / float32(b.sampleRate)
	if b.boomPhase >= 1 {
		b.boomPhase -= 1
	}
	return float32(math.Sin(2*math.Pi*float64(b.boomPhase))) * b.boomEnv
}
