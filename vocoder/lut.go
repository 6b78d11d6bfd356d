package vocoder

import "math"

// sinLUTBits/sinLUTSize implement a 1024-entry sine LUT indexed by the
// top 10 bits of the 16-bit phase. Precomputed once at package init,
// following the same discipline as the teacher's audio_lut.go
// sinLUT/tanhLUT tables.
const (
	sinLUTBits = 10
	sinLUTSize = 1 << sinLUTBits // 1024
)

var sinLUT1024 [sinLUTSize]float32

func init() {
	for i := 0; i < sinLUTSize; i++ {
		sinLUT1024[i] = float32(math.Sin(2 * math.Pi * float64(i) / float64(sinLUTSize)))
	}
}

// phase16ToSinCos converts a 16-bit fixed-point phase into (sin, cos) using
// the 1024-entry LUT: the sine index is the top 10 bits of the 16-bit
// phase, and cos is read at sin-index+256 (a quarter turn ahead).
func phase16ToSinCos(phase16 uint16) (sin, cos float32) {
	idx := int(phase16 >> (16 - sinLUTBits))
	sin = sinLUT1024[idx&(sinLUTSize-1)]
	cos = sinLUT1024[(idx+sinLUTSize/4)&(sinLUTSize-1)]
	return
}

// phaseToUint16 converts an atan2-derived angle in radians to the packed
// 16-bit phase representation: floor((atan2+pi)/(2*pi)*65536) & 0xFFFF.
func phaseToUint16(angle float64) uint16 {
	norm := (angle + math.Pi) / (2 * math.Pi)
	v := int64(math.Floor(norm * 65536))
	return uint16(uint32(v) & 0xFFFF)
}

// deltaPhase16 computes (phase - prevPhase) mod 65536 with two's-complement
// wrap, per PhaseBank invariant.
func deltaPhase16(phase, prevPhase uint16) uint16 {
	return uint16(phase - prevPhase) // unsigned subtraction wraps mod 65536 in Go
}
