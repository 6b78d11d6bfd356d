package sequencer

import (
	"math/rand"
)

// DeviationMode selects which direction a probabilistic trigger-time
// deviation is allowed to push a step's scheduled time.
type DeviationMode int

const (
	DeviationEarly DeviationMode = iota
	DeviationLate
	DeviationEither
)

// TriggerEvent is a scheduled trigger with sub-sample (float64 seconds)
// timing, produced by walking a track's Clock/Sequence through the
// trigger pipeline.
type TriggerEvent struct {
	Track         int
	Time          float64 // absolute audio time in seconds
	Step          Step
	IsRatchetTail bool // true for every ratchet sub-trigger but the last
}

// Scheduler implements lookahead trigger scheduling: polled once per audio
// block by the host with a 100ms lookahead, advancing nextStepTime by 60/BPM/stepsPerBeat until
// it exceeds now+0.1s.
type Scheduler struct {
	Clock *Clock

	nextStepTime float64
	queue        []TriggerEvent // kept time-sorted; ratchet sub-triggers retain source order

	Rand *rand.Rand

	Tracks []TrackState
}

// TrackState bundles a track's Sequence and VoiceSlot plus per-track
// scheduling state: mute and deviation config.
type TrackState struct {
	Sequence  Sequence
	Slot      VoiceSlot
	Muted     bool

	DeviationAmount float64 // 0..100
	DeviationMode   DeviationMode
	MaxOffsetSec    float64

	lastTriggeredTrack Handle
}

func NewScheduler(clock *Clock, seed int64) *Scheduler {
	return &Scheduler{Clock: clock, Rand: rand.New(rand.NewSource(seed))}
}

// Poll advances the lookahead window from `now` and returns every trigger
// whose step time now falls within [now, now+0.1s). Events are ordered by
// step, then track, then ratchet index; they are not sorted by Time, so
// deviation or ratchets on one track can place an event earlier than one
// listed before it. The host calls Poll once per audio block; Poll itself
// is a pure function of (now, scheduler state) so it is independently
// testable without a wall clock.
func (s *Scheduler) Poll(now float64) []TriggerEvent {
	const lookaheadSec = 0.1
	if s.nextStepTime == 0 {
		s.nextStepTime = now
	}
	var emitted []TriggerEvent
	for s.nextStepTime <= now+lookaheadSec {
		stepIndex := s.Clock.Advance()
		swing := s.Clock.SwingOffset(stepIndex - 1)
		triggerTime := s.nextStepTime + swing

		for trackIdx := range s.Tracks {
			ts := &s.Tracks[trackIdx]
			period := StepsPerBeat * barLengthFor(trackIdx, s.Clock)
			stepInBar := int(((stepIndex-1)%int64(period) + int64(period)) % int64(period))
			step := ts.Sequence.Steps[stepInBar%32]
			if !step.Active {
				continue
			}
			evs := s.buildTriggers(trackIdx, ts, step, triggerTime)
			emitted = append(emitted, evs...)
		}
		s.nextStepTime += s.Clock.StepDuration()
	}
	return emitted
}

// barLengthFor resolves which of the two polymetric bar-length counters
// (Bæng/Ræmbl) applies to a given track index. Track 0 is Bæng, all others
// are Ræmbl, per two-surface model (one scheduler, two pattern
// surfaces).
func barLengthFor(trackIdx int, c *Clock) int {
	if trackIdx == 0 {
		return c.BaengBarLength
	}
	return c.RaemblBarLength
}

// buildTriggers runs the per-event trigger pipeline: mute and probability
// gate, ratchet expansion, and deviation offset. It does
// not itself create voices — that is VoiceManager.HandleTrigger's job, kept
// separate so Poll stays allocation-light and purely about timing.
func (s *Scheduler) buildTriggers(track int, ts *TrackState, step Step, baseTime float64) []TriggerEvent {
	if ts.Muted {
		return nil
	}
	if step.Probability < 1 {
		if float32(s.Rand.Float64()) > step.Probability {
			return nil
		}
	}

	devTime := baseTime
	if ts.DeviationAmount > 0 && s.Rand.Float64() < 0.5 {
		offset := ts.MaxOffsetSec * (s.Rand.Float64() * ts.DeviationAmount / 100)
		switch ts.DeviationMode {
		case DeviationEarly:
			devTime -= offset
		case DeviationLate:
			devTime += offset
		case DeviationEither:
			if s.Rand.Float64() < 0.5 {
				devTime -= offset
			} else {
				devTime += offset
			}
		}
	}

	ratchetN := step.Ratchet
	if ratchetN < 1 {
		ratchetN = 1
	}
	stepDur := s.Clock.StepDuration()
	events := make([]TriggerEvent, 0, ratchetN)
	for i := 0; i < ratchetN; i++ {
		offset := float64(i) * stepDur / float64(ratchetN)
		events = append(events, TriggerEvent{
			Track:         track,
			Time:          devTime + offset,
			Step:          step,
			IsRatchetTail: i < ratchetN-1,
		})
	}
	return events
}
