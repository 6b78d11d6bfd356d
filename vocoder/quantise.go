package vocoder

import "math"

// Quantise applies magnitude quantisation: for amount <= 0.48, quantise
// to a scale derived from 0.5*2^(-108*(1-(2a)^2))/N; for amount >= 0.52,
// polynomially warp x' = 4x(1-x)^3 after normalising by the max bin.
// Amounts in (0.48,0.52) are an explicit dead zone where neither branch
// fires, rather than interpolating across the gap.
func Quantise(mag []float32, amount float32, n int) {
	switch {
	case amount <= 0.48:
		a := float64(amount)
		scale := 0.5 * math.Pow(2, -108*(1-(2*a)*(2*a))) / float64(n)
		if scale <= 0 {
			return
		}
		for i, v := range mag {
			mag[i] = float32(math.Round(float64(v)/scale) * scale)
		}
	case amount >= 0.52:
		maxVal := float32(0)
		for _, v := range mag {
			if v > maxVal {
				maxVal = v
			}
		}
		if maxVal <= 0 {
			return
		}
		for i, v := range mag {
			x := v / maxVal
			xp := 4 * x * (1 - x) * (1 - x) * (1 - x)
			mag[i] = xp * maxVal
		}
	}
}
