package host

import (
	"time"

	"github.com/midislave/baengraembl/bus"
	"github.com/midislave/baengraembl/clouds"
	"github.com/midislave/baengraembl/modulation"
	"github.com/midislave/baengraembl/patch"
	"github.com/midislave/baengraembl/sequencer"
	"github.com/midislave/baengraembl/sidechain"
	"github.com/midislave/baengraembl/voice"
)

// dropoutThrottleSec matches the error-handling rule: a dropout is emitted
// at most once per 100 ms.
const dropoutThrottleSec = 0.1

// Engine is the single audio-thread entity: sequencer clock/scheduler/
// voice arena, the Clouds processor, the master bus and its global
// reverb/delay and per-voice sidechain ducking — all driven once per block
// by Process, with every control-thread interaction crossing through
// Mailbox. Per-parameter modulation configs are stored (CmdSetModulation,
// patch load) but Process does not evaluate them or apply them to voices. Render-loop shape
// (drain messages, then run one deterministic per-sample pass) follows the
// teacher's GenerateSample, generalised from one SoundChip to this whole
// signal graph.
type Engine struct {
	SampleRate float64
	BlockSize  int

	Clock     *sequencer.Clock
	Scheduler *sequencer.Scheduler
	Arena     *sequencer.Arena
	Trigger   *sequencer.TriggerContext
	Factory   *VoiceFactory

	Clouds       *clouds.Processor
	CloudsMode   clouds.Mode
	CloudsParams clouds.Params

	Bus       *bus.Processor
	BusParams bus.Params

	Reverb       *bus.GlobalReverb
	ReverbParams bus.ImpulseParams

	Delay       *bus.TapeDelay
	DelayParams bus.DelayParams

	Modulation *modulation.Engine
	Ducker     *sidechain.Ducker

	SampleBank map[string]*voice.Sample

	Mailbox *Mailbox

	audioNow      float64
	lastDropoutAt float64

	cloudsIn  []clouds.StereoFrame
	cloudsOut []clouds.StereoFrame
}

// NewEngine builds a fully-wired Engine at the given sample rate, ready to
// accept tracks via EnsureTrack or a full CmdLoadPatch.
func NewEngine(sampleRate float64, blockSize, fftSize int, seed int64) *Engine {
	clock := sequencer.NewClock()
	arena := sequencer.NewArena()
	factory := NewVoiceFactory(sampleRate)

	e := &Engine{
		SampleRate:   sampleRate,
		BlockSize:    blockSize,
		Clock:        clock,
		Scheduler:    sequencer.NewScheduler(clock, seed),
		Arena:        arena,
		Factory:      factory,
		Trigger:      sequencer.NewTriggerContext(arena, factory),
		Clouds:       clouds.NewProcessor(sampleRate, fftSize, seed+1),
		Bus:          bus.NewProcessor(sampleRate),
		Reverb:       bus.NewGlobalReverb(sampleRate, seed+2),
		Delay:        bus.NewTapeDelay(sampleRate),
		Modulation:   modulation.NewEngine(),
		Ducker:       sidechain.NewDucker(sampleRate),
		SampleBank:   make(map[string]*voice.Sample),
		Mailbox:      NewMailbox(256, 256),
		cloudsIn:     make([]clouds.StereoFrame, blockSize),
		cloudsOut:    make([]clouds.StereoFrame, blockSize),
	}
	e.CloudsParams.SampleRate = sampleRate
	return e
}

// EnsureTrack grows the scheduler's track list so index `track` exists,
// used when a new track is configured before any patch load has sized the
// arrays.
func (e *Engine) EnsureTrack(track int) {
	for len(e.Scheduler.Tracks) <= track {
		e.Scheduler.Tracks = append(e.Scheduler.Tracks, sequencer.TrackState{})
	}
}

// Process is the engine-host API's `process`: render exactly len(out)/2
// stereo frames into out (interleaved L/R), draining pending control
// messages first. It always returns true (never requests a stop) since the
// engine has no global transport-halt concept; per-voice lifecycle is
// handled independently.
func (e *Engine) Process(out []float32) bool {
	start := time.Now()
	frames := len(out) / 2
	if frames > cap(e.cloudsIn) {
		e.cloudsIn = make([]clouds.StereoFrame, frames)
		e.cloudsOut = make([]clouds.StereoFrame, frames)
	}
	cloudsIn := e.cloudsIn[:frames]
	cloudsOut := e.cloudsOut[:frames]
	for i := range cloudsIn {
		cloudsIn[i] = clouds.StereoFrame{}
	}

	e.Mailbox.drain(e.handleCommand)

	for _, ev := range e.Scheduler.Poll(e.audioNow) {
		if ev.Track >= len(e.Scheduler.Tracks) {
			continue
		}
		ts := &e.Scheduler.Tracks[ev.Track]
		midiNote := 60 + ev.Step.Pitch
		e.Trigger.HandleTrigger(ts, ev, midiNote)
		if e.CloudsParams.TriggerSync {
			e.Clouds.TriggerSync()
		}
	}

	busL := make([]float32, frames)
	busR := make([]float32, frames)
	reverbSend := make([]float32, frames)
	delaySend := make([]float32, frames)

	for i := 0; i < frames; i++ {
		var outL, outR, auxL, auxR float32
		var cloudsRawL, cloudsRawR, reverbRaw, delayRaw, sideSum float32

		e.Arena.Each(func(h sequencer.Handle, av *sequencer.ActiveVoice) {
			if av.Engine == nil {
				return
			}
			if !av.Active && !av.Engine.IsActive() {
				return
			}

			l, r := av.Engine.Render()
			gain, done := av.StepFade(e.SampleRate)
			l *= gain
			r *= gain

			var pc voice.PostChain
			var sends voice.Sends
			if cfg, ok := e.Factory.Tracks[av.Track]; ok {
				pc = cfg.PostChain
				sends = cfg.Sends
			} else {
				pc = voice.PostChain{Level: 1}
			}
			pl, pr := pc.Process((l + r) * 0.5)

			outBus := sequencer.BusOut
			if av.Track < len(e.Scheduler.Tracks) {
				outBus = e.Scheduler.Tracks[av.Track].Slot.OutputBus
			}
			if outBus == sequencer.BusAux {
				auxL += pl
				auxR += pr
			} else {
				outL += pl
				outR += pr
			}

			mono := (pl + pr) * 0.5
			cloudsRawL += pl * sends.Clouds
			cloudsRawR += pr * sends.Clouds
			reverbRaw += mono * sends.Reverb
			delayRaw += mono * sends.Delay
			sideSum += mono

			if done {
				av.Engine.Stop()
				e.Arena.Retire(h)
				e.Mailbox.emit(Event{Kind: EventFinished, Track: av.Track})
			} else if !av.Engine.IsActive() {
				e.Arena.Retire(h)
				e.Mailbox.emit(Event{Kind: EventFinished, Track: av.Track})
			}
		})

		e.Ducker.Sidechain(sideSum)
		cloudsIn[i].L = cloudsRawL * e.Ducker.Gain(sidechain.BusClouds)
		cloudsIn[i].R = cloudsRawR * e.Ducker.Gain(sidechain.BusClouds)
		reverbSend[i] = reverbRaw * e.Ducker.Gain(sidechain.BusReverb)
		delaySend[i] = delayRaw * e.Ducker.Gain(sidechain.BusDelay)

		busL[i] = outL + auxL
		busR[i] = outR + auxR
	}

	e.Clouds.Process(e.CloudsMode, cloudsIn, cloudsOut, e.CloudsParams)

	for i := 0; i < frames; i++ {
		l := busL[i] + cloudsOut[i].L
		r := busR[i] + cloudsOut[i].R

		revWet := e.Reverb.Process(reverbSend[i])
		l += revWet
		r += revWet

		delWet := e.Delay.Process(delaySend[i], e.DelayParams)
		l += delWet
		r += delWet

		l, r = e.Bus.Process(l, r, e.BusParams)

		out[i*2] = l
		out[i*2+1] = r
	}

	e.Arena.Sweep()
	e.audioNow += float64(frames) / e.SampleRate

	deadline := float64(frames) / e.SampleRate
	renderTime := time.Since(start).Seconds()
	if renderTime > 0.9*deadline && e.audioNow-e.lastDropoutAt >= dropoutThrottleSec {
		severity := DropoutWarn
		if renderTime > deadline {
			severity = DropoutCritical
		}
		e.Mailbox.emit(Event{Kind: EventDropout, Severity: severity, RenderTime: renderTime, Deadline: deadline})
		e.lastDropoutAt = e.audioNow
	}

	return true
}

// handleCommand applies one drained Command to engine state. Every branch
// is a silent, non-failing mutation — malformed/out-of-range input is
// clamped or ignored, never propagated as an error on this thread.
func (e *Engine) handleCommand(cmd Command) {
	switch cmd.Kind {
	case CmdPitchSlide:
		e.Arena.Each(func(_ sequencer.Handle, av *sequencer.ActiveVoice) {
			if av.Track != cmd.Track || !av.Active {
				return
			}
			if slider, ok := av.Engine.(sequencer.Slider); ok {
				slider.PitchSlide(cmd.Note, cmd.GlideTimeMs)
			}
		})

	case CmdSetParams:
		if cfg, ok := e.Factory.Tracks[cmd.Track]; ok && cfg.FM != nil && cmd.FMPatch != nil {
			cfg.FM.Patch = *cmd.FMPatch
		}

	case CmdNoteOff:
		e.Arena.Each(func(_ sequencer.Handle, av *sequencer.ActiveVoice) {
			if av.Track == cmd.Track && av.Active && av.Engine != nil {
				av.Engine.NoteOff()
			}
		})

	case CmdStop:
		e.Arena.Each(func(h sequencer.Handle, av *sequencer.ActiveVoice) {
			if av.Track == cmd.Track && av.Engine != nil {
				av.Engine.Stop()
				e.Arena.Retire(h)
			}
		})

	case CmdSetMode:
		e.CloudsMode = clouds.ClampMode(cmd.Mode)

	case CmdSetFreeze:
		e.CloudsParams.Freeze = cmd.Freeze
		e.Clouds.Buffer().SetFreeze(cmd.Freeze)

	case CmdResetBuffer:
		e.Clouds.Buffer().Reset()

	case CmdSetTriggerSync:
		e.CloudsParams.TriggerSync = cmd.TriggerSync

	case CmdSetGrainQuality:
		e.CloudsParams.GrainQuality = cmd.GrainQuality

	case CmdSetBufferQuality:
		e.CloudsParams.BufferQuality = cmd.BufferQuality

	case CmdUpdateParameters:
		e.CloudsParams = cmd.CloudsParams
		e.CloudsParams.SampleRate = e.SampleRate
		e.CloudsParams.Clamp()

	case CmdSetBPM:
		e.Clock.BPM = sequencer.ClampBPM(cmd.BPM)

	case CmdSetSwing:
		e.Clock.Swing = sequencer.ClampSwing(cmd.Swing)

	case CmdSetBarLength:
		n := sequencer.ClampBarLength(cmd.BarLength)
		if cmd.BarSurface == 0 {
			e.Clock.BaengBarLength = n
		} else {
			e.Clock.RaemblBarLength = n
		}

	case CmdSetTrackMute:
		e.EnsureTrack(cmd.Track)
		e.Scheduler.Tracks[cmd.Track].Muted = cmd.Muted

	case CmdSetSequence:
		e.EnsureTrack(cmd.Track)
		e.Scheduler.Tracks[cmd.Track].Sequence = cmd.Sequence

	case CmdSetVoiceSlot:
		e.EnsureTrack(cmd.Track)
		slot := cmd.VoiceSlot
		slot.Clamp()
		e.Scheduler.Tracks[cmd.Track].Slot = slot

	case CmdUpdateBusParams:
		p := cmd.BusParams
		p.Clamp()
		e.BusParams = p

	case CmdUpdateReverbParams:
		e.ReverbParams = cmd.ReverbParams
		e.Reverb.SetImpulseParams(cmd.ReverbParams)

	case CmdUpdateDelayParams:
		e.DelayParams = cmd.DelayParams
		e.Delay.SetSaturation(cmd.DelayParams.Saturation)

	case CmdSetSidechainAmount:
		if cmd.SidechainBus >= 0 && int(cmd.SidechainBus) < len(e.Ducker.Amount) {
			amt := cmd.SidechainAmount
			if amt < 0 {
				amt = 0
			}
			if amt > 1 {
				amt = 1
			}
			e.Ducker.Amount[cmd.SidechainBus] = amt
		}

	case CmdSetModulation:
		e.Modulation.SetConfig(cmd.ModulationParamID, cmd.ModulationConfig)

	case CmdLoadPatch:
		if cmd.Patch != nil {
			e.applyPatch(cmd.Patch)
		}

	case CmdScheduleRatchet:
		// Manual ratchet injection plays back immediately rather than at
		// each listed AudioTime: precise sub-block scheduling of
		// arbitrary future trigger times needs a second lookahead queue
		// this engine does not yet carry (step-level Ratchet on a
		// Sequence already covers the common case via Poll).
		e.EnsureTrack(cmd.Track)
		ts := &e.Scheduler.Tracks[cmd.Track]
		for _, rt := range cmd.RatchetTimes {
			step := sequencer.Step{Active: true, Velocity: rt.Velocity}
			e.Trigger.HandleTrigger(ts, sequencer.TriggerEvent{Track: cmd.Track, Time: e.audioNow, Step: step}, 60)
		}

	case CmdTrigger:
		// Manual one-off trigger (e.g. audition from the UI), bypassing
		// the scheduled pattern entirely.
		e.EnsureTrack(cmd.Track)
		ts := &e.Scheduler.Tracks[cmd.Track]
		step := sequencer.Step{Active: true, Velocity: cmd.Velocity, Pitch: cmd.Note - 60}
		e.Trigger.HandleTrigger(ts, sequencer.TriggerEvent{Track: cmd.Track, Time: e.audioNow, Step: step}, cmd.Note)
	}
}

// applyPatch replaces every piece of Engine state a Patch carries: clock,
// per-track sequence/slot/engine config, bus/reverb/delay/Clouds params,
// and modulation configs.
func (e *Engine) applyPatch(p *patch.Patch) {
	e.Clock.BPM = sequencer.ClampBPM(float64(p.BPM))
	e.Clock.Swing = sequencer.ClampSwing(float64(p.Swing))
	e.Clock.BaengBarLength = sequencer.ClampBarLength(p.BaengBarLength)
	e.Clock.RaemblBarLength = sequencer.ClampBarLength(p.RaemblBarLength)

	n := len(p.Voices)
	if len(p.Sequences) > n {
		n = len(p.Sequences)
	}
	e.Scheduler.Tracks = make([]sequencer.TrackState, n)
	e.Factory.Tracks = make(map[int]*TrackVoiceConfig, n)

	for i := 0; i < n; i++ {
		if i < len(p.Sequences) {
			e.Scheduler.Tracks[i].Sequence = p.Sequences[i]
		}
		if i >= len(p.Voices) {
			continue
		}
		v := p.Voices[i]
		slot := v.VoiceSlot
		slot.Clamp()
		e.Scheduler.Tracks[i].Slot = slot
		e.Factory.Tracks[i] = buildTrackConfig(slot, v.Level, v.DriveAmount, v.Pan, v.BitCrush, slot.Sends, v.EngineParams, e.SampleBank)
	}

	e.BusParams = p.Bus
	e.BusParams.Clamp()

	e.ReverbParams = p.Reverb
	e.Reverb.SetImpulseParams(p.Reverb)

	e.DelayParams = p.Delay
	e.Delay.SetSaturation(p.Delay.Saturation)

	e.CloudsParams = p.Clouds
	e.CloudsParams.SampleRate = e.SampleRate
	e.CloudsParams.Clamp()

	e.Modulation = modulation.NewEngine()
	for id, cfg := range p.Modulations {
		e.Modulation.SetConfig(id, cfg)
	}
}
