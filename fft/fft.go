// Package fft implements the radix-2 decimation-in-time Cooley-Tukey
// transform used by the spectral engine and phase vocoder.
//
// Twiddle factors and the bit-reversal permutation are precomputed once at
// construction time, following the same precomputed-LUT discipline the
// teacher uses for its sine/tanh tables in audio_lut.go: nothing in Forward
// or Inverse allocates or calls a trig function on the hot path.
package fft

import "math"

// Transform holds precomputed twiddle factors and bit-reversal indices for
// a fixed size N (must be a power of two). Forward and Inverse share one
// scratch buffer, so a Transform must not be used by more than one
// goroutine at a time.
type Transform struct {
	n       int
	logN    int
	cosTbl  []float32 // cos(2*pi*k/N), k in [0, N/2)
	sinTbl  []float32 // sin(2*pi*k/N), k in [0, N/2)
	bitrev  []int     // bit-reversal permutation over [0, N)
	scratch []float32 // reusable interleaved complex scratch (2*N), not safe for concurrent use
}

// New builds a Transform for size n, which must be a power of two >= 2.
func New(n int) *Transform {
	if n < 2 || n&(n-1) != 0 {
		panic("fft: size must be a power of two >= 2")
	}
	logN := 0
	for (1 << logN) < n {
		logN++
	}
	t := &Transform{
		n:       n,
		logN:    logN,
		cosTbl:  make([]float32, n/2),
		sinTbl:  make([]float32, n/2),
		bitrev:  make([]int, n),
		scratch: make([]float32, 2*n),
	}
	for k := 0; k < n/2; k++ {
		angle := 2 * math.Pi * float64(k) / float64(n)
		t.cosTbl[k] = float32(math.Cos(angle))
		t.sinTbl[k] = float32(math.Sin(angle))
	}
	for i := 0; i < n; i++ {
		t.bitrev[i] = bitReverse(i, logN)
	}
	return t
}

func bitReverse(x, bits int) int {
	r := 0
	for i := 0; i < bits; i++ {
		r = (r << 1) | (x & 1)
		x >>= 1
	}
	return r
}

// Size returns N.
func (t *Transform) Size() int { return t.n }

// Forward computes the forward FFT of a real input of length N, returning
// only the non-redundant half-spectrum (indices 0..N/2 inclusive) as
// separate real/imag slices; real and imag must have length N/2+1 and are
// overwritten.
func (t *Transform) Forward(realIn []float32, real, imag []float32) {
	n := t.n
	c := t.scratch
	for i := 0; i < n; i++ {
		j := t.bitrev[i]
		c[2*j] = realIn[i]
		c[2*j+1] = 0
	}
	t.butterflies(c, -1)
	for k := 0; k <= n/2; k++ {
		real[k] = c[2*k]
		imag[k] = c[2*k+1]
	}
}

// Inverse reconstructs a real signal of length N from the half-spectrum
// real/imag (length N/2+1), using conjugate symmetry to fill the upper
// half; out must have length N.
func (t *Transform) Inverse(real, imag []float32, out []float32) {
	n := t.n
	c := t.scratch
	for k := 0; k <= n/2; k++ {
		c[2*k] = real[k]
		c[2*k+1] = imag[k]
	}
	for k := 1; k < n/2; k++ {
		c[2*(n-k)] = real[k]
		c[2*(n-k)+1] = -imag[k]
	}
	// bit-reverse in place before butterflies (same permutation as forward)
	bitRevInPlace(c, t.bitrev, n)
	t.butterflies(c, +1)
	scale := float32(1.0 / float64(n))
	for i := 0; i < n; i++ {
		out[i] = c[2*i] * scale
	}
}

func bitRevInPlace(c []float32, bitrev []int, n int) {
	// bitrev is an involution's permutation table (bitrev[bitrev[i]] == i),
	// so swapping each pair once (i < j) applies it without a temp copy.
	for i := 0; i < n; i++ {
		j := bitrev[i]
		if i < j {
			c[2*i], c[2*j] = c[2*j], c[2*i]
			c[2*i+1], c[2*j+1] = c[2*j+1], c[2*i+1]
		}
	}
}

// butterflies runs log2(N) Cooley-Tukey stages over bit-reversed interleaved
// complex data c (length 2*N). dir is -1 for forward twiddle (cos, -sin),
// +1 for inverse twiddle (cos, +sin)
func (t *Transform) butterflies(c []float32, dir int) {
	n := t.n
	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		step := n / size
		for start := 0; start < n; start += size {
			sign := float32(dir) // -1 forward twiddle (cos,-sin), +1 inverse (cos,+sin)
			for k := 0; k < half; k++ {
				twIdx := k * step
				cosv := t.cosTbl[twIdx]
				sinv := t.sinTbl[twIdx]
				evenI := 2 * (start + k)
				oddI := 2 * (start + k + half)
				or, oi := c[oddI], c[oddI+1]
				tr := cosv*or - sign*sinv*oi
				ti := cosv*oi + sign*sinv*or
				er, ei := c[evenI], c[evenI+1]
				c[evenI] = er + tr
				c[evenI+1] = ei + ti
				c[oddI] = er - tr
				c[oddI+1] = ei - ti
			}
		}
	}
}
