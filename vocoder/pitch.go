package vocoder

// PitchShift resamples src magnitudes into dst at pitchRatio: for ratio >
// 1, read an interpolated source at index i/pitchRatio (stretched read =
// pitch up); for ratio < 1, splat source energy into destination bin
// pairs with fractional weights (upsample splat = pitch down). dst is
// zeroed by this function before accumulation.
func PitchShift(src, dst []float32, pitchRatio float32) {
	n := len(dst)
	for i := range dst {
		dst[i] = 0
	}
	if pitchRatio <= 0 {
		return
	}
	if pitchRatio >= 1 {
		for i := 0; i < n; i++ {
			srcIdx := float32(i) / pitchRatio
			dst[i] = sampleLinear(src, srcIdx)
		}
		return
	}
	// ratio < 1: splat each source bin's energy into dst at
	// i*pitchRatio, distributing across the two nearest destination bins.
	for i := 0; i < len(src); i++ {
		dstPos := float32(i) * pitchRatio
		i0 := int(dstPos)
		frac := dstPos - float32(i0)
		if i0 >= 0 && i0 < n {
			dst[i0] += src[i] * (1 - frac)
		}
		if i0+1 >= 0 && i0+1 < n {
			dst[i0+1] += src[i] * frac
		}
	}
}
