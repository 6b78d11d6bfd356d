package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	active bool
}

func (f *fakeEngine) Render() (float32, float32) { return 0, 0 }
func (f *fakeEngine) IsActive() bool             { return f.active }
func (f *fakeEngine) NoteOff()                   {}
func (f *fakeEngine) Stop()                      { f.active = false }

func TestArenaSpawnAndGet(t *testing.T) {
	a := NewArena()
	h := a.Spawn(ActiveVoice{Engine: &fakeEngine{active: true}, Track: 0})

	av, ok := a.Get(h)
	require.True(t, ok)
	assert.True(t, av.Active)
}

func TestArenaGetStaleHandleAfterSweep(t *testing.T) {
	a := NewArena()
	h := a.Spawn(ActiveVoice{Engine: &fakeEngine{active: false}, Track: 0})
	a.Retire(h)
	a.Sweep()

	_, ok := a.Get(h)
	assert.False(t, ok)
}

func TestArenaOldestActiveForTrackPicksEarliestStart(t *testing.T) {
	a := NewArena()
	a.Spawn(ActiveVoice{Engine: &fakeEngine{active: true}, Track: 0, StartTime: 2})
	older := a.Spawn(ActiveVoice{Engine: &fakeEngine{active: true}, Track: 0, StartTime: 1})

	h, ok := a.OldestActiveForTrack(0)
	require.True(t, ok)
	assert.Equal(t, older, h)
}

func TestArenaActiveCountForTrack(t *testing.T) {
	a := NewArena()
	a.Spawn(ActiveVoice{Engine: &fakeEngine{active: true}, Track: 0})
	a.Spawn(ActiveVoice{Engine: &fakeEngine{active: true}, Track: 0})
	a.Spawn(ActiveVoice{Engine: &fakeEngine{active: true}, Track: 1})

	assert.Equal(t, 2, a.ActiveCountForTrack(0))
	assert.Equal(t, 1, a.ActiveCountForTrack(1))
}

func TestArenaEachVisitsEveryVoice(t *testing.T) {
	a := NewArena()
	a.Spawn(ActiveVoice{Engine: &fakeEngine{active: true}, Track: 0})
	a.Spawn(ActiveVoice{Engine: &fakeEngine{active: true}, Track: 1})

	count := 0
	a.Each(func(h Handle, av *ActiveVoice) { count++ })
	assert.Equal(t, 2, count)
}

func TestArenaSweepDropsFinishedVoices(t *testing.T) {
	a := NewArena()
	h1 := a.Spawn(ActiveVoice{Engine: &fakeEngine{active: false}, Track: 0})
	a.Spawn(ActiveVoice{Engine: &fakeEngine{active: true}, Track: 1})
	a.Retire(h1)

	a.Sweep()

	assert.Equal(t, 1, a.ActiveCountForTrack(1))
	_, ok := a.Get(h1)
	assert.False(t, ok)
}

func TestStepFadeNonReleasingVoiceAlwaysUnityGain(t *testing.T) {
	av := &ActiveVoice{}
	gain, done := av.StepFade(48000)
	assert.Equal(t, float32(1), gain)
	assert.False(t, done)
}

func TestStepFadeReachesZeroAndReportsDone(t *testing.T) {
	av := &ActiveVoice{releasing: true, fadeGain: 1, fadeRate: 48000} // 1/48000 s fade at 48kHz -> done in exactly 1 sample
	_, done := av.StepFade(48000)
	assert.True(t, done)
}

func TestStepFadeGainDecreasesMonotonically(t *testing.T) {
	av := &ActiveVoice{releasing: true, fadeGain: 1, fadeRate: 1}
	g1, _ := av.StepFade(48000)
	g2, _ := av.StepFade(48000)
	assert.Greater(t, g1, g2)
}

func TestLegatoSlotClearsOnStaleHandle(t *testing.T) {
	a := NewArena()
	h := a.Spawn(ActiveVoice{Engine: &fakeEngine{active: false}, Track: 0})
	var slot LegatoSlot
	slot.Set(h, 60)

	a.Retire(h)
	a.Sweep()

	_, ok := slot.Resolve(a)
	assert.False(t, ok)
	assert.False(t, slot.Valid())
}
