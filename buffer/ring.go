// Package buffer implements the shared audio circular buffer and the
// 2-pole state-variable filter used throughout the voice and Clouds
// signal paths. The ring indexing and filter topology are adapted from
// the teacher's CombFilter/reverb indexing and its global SV filter block
// in audio_chip.go (GenerateSample's "Apply global filter processing"
// section).
package buffer

import "math"

// Size is the fixed Clouds circular buffer length: 262144 samples, a
// power of two.
const Size = 262144

// Ring is a 2-channel interleaved circular buffer with freeze support.
// When frozen, Write is a no-op; Read continues regardless, which is
// what lets a frozen buffer loop forever.
type Ring struct {
	data     []float32 // interleaved L,R
	writeHead int
	frozen   bool
}

// New allocates a Ring of the given length (frames, not interleaved
// samples) rounded to a power of two by the caller's choice of size —
// Clouds always passes buffer.Size.
func New(frames int) *Ring {
	return &Ring{data: make([]float32, frames*2)}
}

func (r *Ring) Len() int { return len(r.data) / 2 }

func (r *Ring) SetFreeze(frozen bool) { r.frozen = frozen }
func (r *Ring) Frozen() bool          { return r.frozen }
func (r *Ring) WriteHead() int        { return r.writeHead }

// Write advances the write head by one frame, writing l/r unless frozen.
func (r *Ring) Write(l, r2 float32) {
	if r.frozen {
		return
	}
	i := r.writeHead * 2
	r.data[i] = l
	r.data[i+1] = r2
	r.writeHead = (r.writeHead + 1) % r.Len()
}

// Reset zeroes the buffer and resets the write head, in response to the
// `resetBuffer` control message.
func (r *Ring) Reset() {
	for i := range r.data {
		r.data[i] = 0
	}
	r.writeHead = 0
}

// ReadLinear returns a linearly-interpolated stereo sample at fractional
// frame position pos, wrapping modulo the buffer length:
// readLinear(i) = buffer[i mod size] interpolated.
func (r *Ring) ReadLinear(pos float64) (l, r2 float32) {
	n := r.Len()
	pos = wrapf(pos, float64(n))
	i0 := int(pos)
	frac := float32(pos - float64(i0))
	i1 := (i0 + 1) % n
	l0, r0 := r.data[i0*2], r.data[i0*2+1]
	l1, r1 := r.data[i1*2], r.data[i1*2+1]
	return l0 + frac*(l1-l0), r0 + frac*(r1-r0)
}

// ReadHermite returns a 4-point Hermite-interpolated stereo sample, used
// by grain playback at the "hermite" quality setting.
func (r *Ring) ReadHermite(pos float64) (l, r2 float32) {
	n := r.Len()
	pos = wrapf(pos, float64(n))
	i1 := int(pos)
	frac := float32(pos - float64(i1))
	i0 := (i1 - 1 + n) % n
	i2 := (i1 + 1) % n
	i3 := (i1 + 2) % n
	l = hermite(frac, r.data[i0*2], r.data[i1*2], r.data[i2*2], r.data[i3*2])
	r2 = hermite(frac, r.data[i0*2+1], r.data[i1*2+1], r.data[i2*2+1], r.data[i3*2+1])
	return
}

func hermite(frac, y0, y1, y2, y3 float32) float32 {
	c0 := y1
	c1 := 0.5 * (y2 - y0)
	c2 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	c3 := 0.5*(y3-y0) + 1.5*(y1-y2)
	return ((c3*frac+c2)*frac+c1)*frac + c0
}

func wrapf(v, m float64) float64 {
	v = math.Mod(v, m)
	if v < 0 {
		v += m
	}
	return v
}
