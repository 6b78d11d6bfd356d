package clouds

// allpass1 is a single Schroeder all-pass stage with a fixed delay length,
// used to build the diffuser cascade ahead of Oliverb's reverb tank — a
// short all-pass diffuser stage before the reverb tank proper, as in the
// Mutable Instruments Parasites "Oliverb" firmware.
type allpass1 struct {
	line     []float32
	pos      int
	baseGain float32
}

func newAllpass1(length int, gain float32) *allpass1 {
	return &allpass1{line: make([]float32, length), baseGain: gain}
}

func (a *allpass1) process(in float32, amount float32) float32 {
	g := a.baseGain * amount
	delayed := a.line[a.pos]
	out := -g*in + delayed
	a.line[a.pos] = in + g*out
	a.pos++
	if a.pos >= len(a.line) {
		a.pos = 0
	}
	return out
}

// Diffuser cascades four all-pass stages of increasing length, per the
// classic Griesinger/Dattorro diffuser topology the teacher's own
// CombFilter-based reverb approximates with a simpler comb bank; Oliverb
// runs its input through a Diffuser to break up transients before the
// tank (Resonestor has no diffuser).
type Diffuser struct {
	stages [4]*allpass1
	amount float32
}

// NewDiffuser builds a diffuser scaled to sampleRate so the stage lengths
// stay proportionally the same at any sample rate.
func NewDiffuser(sampleRate float64) *Diffuser {
	scale := sampleRate / 32000.0
	lengths := [4]int{113, 162, 241, 399}
	gains := [4]float32{0.75, 0.75, 0.625, 0.625}
	d := &Diffuser{amount: 1}
	for i, l := range lengths {
		n := int(float64(l) * scale)
		if n < 1 {
			n = 1
		}
		d.stages[i] = newAllpass1(n, gains[i])
	}
	return d
}

// SetAmount scales every stage's coefficient; 1.0 reproduces the nominal
// Griesinger/Dattorro gains, 0 bypasses diffusion entirely. Oliverb sets
// it every block to 0.3+0.5*spread; the Clouds processor host drives its
// own instance per block from texture/density.
func (d *Diffuser) SetAmount(amount float32) {
	if amount < 0 {
		amount = 0
	}
	if amount > 1 {
		amount = 1
	}
	d.amount = amount
}

func (d *Diffuser) Process(in float32) float32 {
	x := in
	for _, s := range d.stages {
		x = s.process(x, d.amount)
	}
	return x
}
