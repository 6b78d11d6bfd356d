package vocoder

// warpCoefficients holds six fixed rows of 4 cubic-polynomial coefficients
// {a,b,c,d} used for spectral warp. Row 5 (the sixth row) is a duplicate
// of row 4, kept as-is: the bilinear blend across rows clamps its upper
// index to min(idx+1,5), so row 5 is only ever reached as the top of the
// blend range and never changes the result versus stopping at row 4.
var warpCoefficients = [6][4]float32{
	{0, 0, 1, 0},          // row 0: identity warp (g(f) = f)
	{0.5, -0.3, 0.9, 0.05},  // row 1
	{1.2, -0.6, 0.7, 0.1},   // row 2
	{2.0, -1.0, 0.5, 0.15},  // row 3
	{3.0, -1.4, 0.3, 0.2},   // row 4
	{3.0, -1.4, 0.3, 0.2},   // row 5: duplicate of row 4, retained verbatim
}

// WarpPolynomial evaluates g(f) = d + f*(c + f*(b + a*f)) for a given row.
func warpPolynomial(row int, f float32) float32 {
	co := warpCoefficients[row]
	a, b, c, d := co[0], co[1], co[2], co[3]
	return d + f*(c+f*(b+a*f))
}

// Warp applies spectral warp: given warp in [0,1], interpolates the cubic
// polynomial between six fixed tables (bilinear blend with upper index
// clamped to 5), evaluates g(f) at each bin's normalised frequency, and
// resamples src into dst via linear interpolation at g(f)*size.
func Warp(src, dst []float32, warp float32) {
	size := len(src)
	if size == 0 {
		return
	}
	pos := warp * 5 // five intervals across six rows
	if pos < 0 {
		pos = 0
	}
	rowLo := int(pos)
	rowHi := rowLo + 1
	if rowHi > 5 {
		rowHi = 5
	}
	frac := pos - float32(rowLo)

	for i := 0; i < size; i++ {
		f := float32(i) / float32(size)
		gLo := warpPolynomial(rowLo, f)
		gHi := warpPolynomial(rowHi, f)
		g := gLo + frac*(gHi-gLo)
		dst[i] = sampleLinear(src, g*float32(size))
	}
}

// sampleLinear reads src at fractional index x with linear interpolation,
// clamping at the array bounds (the spectral domain is not periodic, unlike
// the circular sample buffer in package buffer).
func sampleLinear(src []float32, x float32) float32 {
	n := len(src)
	if n == 0 {
		return 0
	}
	if x < 0 {
		x = 0
	}
	if x > float32(n-1) {
		x = float32(n - 1)
	}
	i0 := int(x)
	i1 := i0 + 1
	if i1 > n-1 {
		i1 = n - 1
	}
	frac := x - float32(i0)
	return src[i0] + frac*(src[i1]-src[i0])
}
