package clouds

import "github.com/midislave/baengraembl/buffer"

// LoopingDelay implements a loop region derived from position/size,
// 64-sample crossfades at region boundaries, and triggerSync snapping
// loopDuration to the distance since loopStart.
type LoopingDelay struct {
	readPos     float64
	pendingSync bool
}

const boundaryCrossfade = 64

func (l *LoopingDelay) TriggerSync() { l.pendingSync = true }

func (l *LoopingDelay) Process(buf *buffer.Ring, in []StereoFrame, out []StereoFrame, p Params) {
	n := len(out)
	bufLen := float64(buf.Len())
	loopStart := float64(p.Position)*float64(p.Position)*(bufLen-64)*(15.0/16) + 64
	loopDuration := (0.01 + 0.99*float64(p.Size)*float64(p.Size)) * (bufLen - 64)

	if p.TriggerSync && l.pendingSync {
		wh := float64(buf.WriteHead())
		loopDuration = modWrap(wh-loopStart, bufLen)
		l.pendingSync = false
	}

	if l.readPos == 0 {
		l.readPos = loopStart
	}

	for i := 0; i < n; i++ {
		posInLoop := modWrap(l.readPos-loopStart, loopDuration)
		readAt := loopStart + posInLoop

		lSamp, rSamp := buf.ReadLinear(readAt)

		// crossfade at the loop boundary
		if posInLoop < boundaryCrossfade {
			fade := float32(posInLoop / boundaryCrossfade)
			wrapL, wrapR := buf.ReadLinear(loopStart + loopDuration + posInLoop)
			lSamp = wrapL*(1-fade) + lSamp*fade
			rSamp = wrapR*(1-fade) + rSamp*fade
		}

		out[i] = StereoFrame{L: lSamp, R: rSamp}
		l.readPos++
	}
}

func modWrap(v, m float64) float64 {
	if m <= 0 {
		return 0
	}
	r := v
	for r >= m {
		r -= m
	}
	for r < 0 {
		r += m
	}
	return r
}
