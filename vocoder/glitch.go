package vocoder

// GlitchAlgorithm selects one of the four glitch-gate variants.
type GlitchAlgorithm int

const (
	GlitchHold GlitchAlgorithm = iota
	GlitchUpShift
	GlitchKillMax
	GlitchRandomHighPass
)

// glitchHoldState carries the per-bin held value and decay across calls for
// GlitchHold, since "hold with 1.01x decay" is stateful across frames.
type glitchHoldState struct {
	held []float32
}

// ApplyGlitch mutates mag in place per the selected algorithm. rng supplies
// uniform [0,1) draws; holdState must be a *glitchHoldState obtained from
// NewGlitchHoldState and reused across frames for GlitchHold to behave as a
// persistent hold rather than resetting every call.
func ApplyGlitch(mag []float32, algo GlitchAlgorithm, rng func() float32, hold *glitchHoldState) {
	switch algo {
	case GlitchHold:
		applyGlitchHold(mag, hold)
	case GlitchUpShift:
		applyGlitchUpShift(mag, rng)
	case GlitchKillMax:
		applyGlitchKillMax(mag)
	case GlitchRandomHighPass:
		applyGlitchRandomHighPass(mag)
	}
}

func NewGlitchHoldState(size int) *glitchHoldState {
	return &glitchHoldState{held: make([]float32, size)}
}

// applyGlitchHold: "spectral hold with 1.01x decay that re-samples a held
// bin once per ~16 bins" — every 16th bin re-samples from the live
// spectrum, all others decay their held value by 1.01x (i.e. grow slightly,
// per the spec's literal "1.01x decay" phrasing) and overwrite the output.
func applyGlitchHold(mag []float32, h *glitchHoldState) {
	for i := range mag {
		if i%16 == 0 {
			h.held[i] = mag[i]
		} else {
			h.held[i] *= 1.01
		}
		mag[i] = h.held[i]
	}
}

// applyGlitchUpShift: "spectral up-shift by 1 + rand(0..7)/4 with wrap".
func applyGlitchUpShift(mag []float32, rng func() float32) {
	n := len(mag)
	shiftRatio := 1 + float32(int(rng()*8))/4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		srcIdx := (int(float32(i)*shiftRatio) % n)
		out[i] = mag[srcIdx]
	}
	copy(mag, out)
}

// applyGlitchKillMax zeroes the max bin, then scales the second-max by 8.
// The second pass starts its max tracking from zero rather than excluding
// the already-zeroed first-max index some other way, so the
// originally-largest bin stays zeroed and the runner-up is boosted 8x.
func applyGlitchKillMax(mag []float32) {
	maxIdx, maxVal := -1, float32(0)
	for i, v := range mag {
		if v > maxVal {
			maxVal = v
			maxIdx = i
		}
	}
	if maxIdx < 0 {
		return
	}
	mag[maxIdx] = 0

	// second pass: max re-initialised to zero, so index maxIdx (now 0)
	// cannot win again; the former second-largest is found fresh.
	maxIdx2, maxVal2 := -1, float32(0)
	for i, v := range mag {
		if v > maxVal2 {
			maxVal2 = v
			maxIdx2 = i
		}
	}
	if maxIdx2 >= 0 {
		mag[maxIdx2] *= 8
	}
}

// applyGlitchRandomHighPass: "1/16 bins multiplied by i/16".
func applyGlitchRandomHighPass(mag []float32) {
	for i := range mag {
		if i%16 == 0 {
			mag[i] *= float32(i) / 16
		}
	}
}
