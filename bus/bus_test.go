package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaultParams() Params {
	return Params{
		InputTrimDB: 0,
		Drive:       DriveSoft,
		DryWet:      1,
		OutputGainDB: 0,
	}
}

func TestProcessPassesThroughSilence(t *testing.T) {
	p := NewProcessor(48000)
	params := defaultParams()
	for i := 0; i < 100; i++ {
		l, r := p.Process(0, 0, params)
		assert.Equal(t, float32(0), l)
		assert.Equal(t, float32(0), r)
	}
}

func TestLimiterClampsAtCeiling(t *testing.T) {
	var lim Limiter
	assert.Equal(t, float32(limiterCeiling), lim.Process(5))
	assert.Equal(t, float32(-limiterCeiling), lim.Process(-5))
	assert.Equal(t, float32(0.5), lim.Process(0.5))
}

func TestDryWetZeroReturnsInputUnprocessed(t *testing.T) {
	p := NewProcessor(48000)
	params := defaultParams()
	params.DryWet = 0
	params.DriveAmount = 1 // would otherwise audibly alter the signal
	l, r := p.Process(0.3, -0.3, params)
	assert.InDelta(t, 0.3, l, 1e-4)
	assert.InDelta(t, -0.3, r, 1e-4)
}

func TestOutputNeverExceedsLimiterCeiling(t *testing.T) {
	p := NewProcessor(48000)
	params := defaultParams()
	params.InputTrimDB = 12
	params.DriveAmount = 1
	params.Drive = DriveHard
	params.OutputGainDB = 24

	for i := 0; i < 200; i++ {
		l, r := p.Process(1, -1, params)
		assert.LessOrEqual(t, float64(l), limiterCeiling+1e-6)
		assert.GreaterOrEqual(t, float64(r), -limiterCeiling-1e-6)
	}
}

func TestParamsClampEnforcesRanges(t *testing.T) {
	p := Params{
		InputTrimDB:     99,
		DriveAmount:     5,
		CrunchAmount:    -5,
		TransientAmount: 200,
		BoomFreq:        1000,
		DampenAmount:    9,
		OutputGainDB:    -99,
		DryWet:          9,
	}
	p.Clamp()
	assert.Equal(t, float32(12), p.InputTrimDB)
	assert.Equal(t, float32(1), p.DriveAmount)
	assert.Equal(t, float32(0), p.CrunchAmount)
	assert.Equal(t, float32(100), p.TransientAmount)
	assert.Equal(t, float32(90), p.BoomFreq)
	assert.Equal(t, float32(1), p.DampenAmount)
	assert.Equal(t, float32(-24), p.OutputGainDB)
	assert.Equal(t, float32(1), p.DryWet)
}

func TestHardDriveFoldsBackPastClip(t *testing.T) {
	y := hardDrive(1, 1)
	assert.Less(t, y, float32(1))
	assert.Greater(t, y, float32(0))
}

func TestSoftDriveIsOddSymmetric(t *testing.T) {
	pos := softDrive(0.5, 0.5)
	neg := softDrive(-0.5, 0.5)
	assert.InDelta(t, float64(pos), float64(-neg), 1e-6)
}

func TestDampenCutoffHzMonotonicWithAmount(t *testing.T) {
	low := dampenCutoffHz(0)
	high := dampenCutoffHz(1)
	assert.Less(t, low, high)
	assert.InDelta(t, 500, low, 1)
	assert.InDelta(t, 30000, high, 1)
}

func TestDbToLinearUnityAtZeroDB(t *testing.T) {
	assert.InDelta(t, 1, dbToLinear(0), 1e-6)
	assert.True(t, dbToLinear(20) > 9 && dbToLinear(20) < 11)
}
