// Package host wires the sequencer, voice engines, Clouds processor, and
// master bus into one audio-thread engine, driven by a control thread
// across a pre-allocated message-passing mailbox rather than a mutex — the
// same lock-free hot-path idiom the teacher's OtoPlayer uses for its
// atomic.Pointer[SoundChip], generalised from a single pointer swap to a
// full command/event channel pair.
package host

import (
	"log"

	"github.com/midislave/baengraembl/bus"
	"github.com/midislave/baengraembl/clouds"
	"github.com/midislave/baengraembl/modulation"
	"github.com/midislave/baengraembl/patch"
	"github.com/midislave/baengraembl/sequencer"
	"github.com/midislave/baengraembl/sidechain"
	"github.com/midislave/baengraembl/voice"
)

// CommandKind tags a control->audio message. Dispatch is a single switch
// over this tag, the same shape as Clouds' mode dispatch.
type CommandKind int

const (
	CmdTrigger CommandKind = iota
	CmdScheduleRatchet
	CmdPitchSlide
	CmdSetParams // FM patch live edit
	CmdNoteOff
	CmdStop
	CmdSetMode
	CmdSetFreeze
	CmdResetBuffer
	CmdSetTriggerSync
	CmdSetGrainQuality
	CmdSetBufferQuality
	CmdUpdateParameters // Clouds knob live update
	CmdSetBPM
	CmdSetSwing
	CmdSetBarLength
	CmdSetTrackMute
	CmdSetSequence
	CmdSetVoiceSlot
	CmdUpdateBusParams
	CmdUpdateReverbParams
	CmdUpdateDelayParams
	CmdSetSidechainAmount
	CmdSetModulation
	CmdLoadPatch
)

// RatchetTrigger is one sub-trigger of a scheduleRatchet command.
type RatchetTrigger struct {
	AudioTime float64
	Velocity  float32
}

// Command is a tagged union of every control->audio message. Only the
// fields relevant to Kind are read; the rest are zero.
type Command struct {
	Kind CommandKind

	Track int

	Note         int
	Velocity     float32
	DelaySamples int
	GlideTimeMs  float32
	RatchetTimes []RatchetTrigger

	FMPatch *voice.FMPatch

	Mode          clouds.Mode
	Freeze        bool
	TriggerSync   bool
	GrainQuality  clouds.GrainQuality
	BufferQuality clouds.BufferQuality
	CloudsParams  clouds.Params

	BPM        float64
	Swing      float64
	BarSurface int // 0 = Bæng, 1 = Ræmbl
	BarLength  int

	Muted     bool
	Sequence  sequencer.Sequence
	VoiceSlot sequencer.VoiceSlot

	BusParams    bus.Params
	ReverbParams bus.ImpulseParams
	DelayParams  bus.DelayParams

	SidechainBus    sidechain.Bus
	SidechainAmount float32

	ModulationParamID string
	ModulationConfig  modulation.Config

	Patch *patch.Patch
}

// EventKind tags an audio->control message.
type EventKind int

const (
	EventFinished EventKind = iota
	EventDropout
	EventPosition
	EventBufferData
)

// DropoutSeverity classifies a dropout event by how far render time
// exceeded the block deadline.
type DropoutSeverity int

const (
	DropoutWarn DropoutSeverity = iota
	DropoutCritical
)

// BufferSnapshot is a decimated view of the Clouds shared buffer for
// waveform display, sampled to a fixed 800 points regardless of buffer
// size.
type BufferSnapshot struct {
	Waveform   [800]float32
	WriteHead  int
	BufferSize int
	LoopStart  int
	LoopEnd    int
	Frozen     bool
	Position   float32
	ModeName   string
}

// Event is a tagged union of every audio->control message.
type Event struct {
	Kind EventKind

	Track int // Finished / Position

	Severity   DropoutSeverity
	RenderTime float64
	Deadline   float64

	SampleIndex int // Position

	Buffer BufferSnapshot
}

// Mailbox is the pre-allocated, non-blocking channel pair carrying every
// control<->audio message. Commands are buffered generously since the
// control thread posts them rarely and in bursts (patch load); events are
// buffered for the same reason the audio thread must never block: if the
// control thread falls behind, new events are dropped rather than stalling
// the render deadline.
type Mailbox struct {
	commands chan Command
	events   chan Event
}

// NewMailbox allocates both channels up front; no further allocation
// happens on the audio thread's Send/drain/Emit path.
func NewMailbox(commandCapacity, eventCapacity int) *Mailbox {
	return &Mailbox{
		commands: make(chan Command, commandCapacity),
		events:   make(chan Event, eventCapacity),
	}
}

// Send posts a control->audio command without blocking. A full mailbox
// means the audio thread is not draining (or the control thread is
// flooding it); the command is dropped and logged rather than stalling the
// caller.
func (m *Mailbox) Send(cmd Command) {
	select {
	case m.commands <- cmd:
	default:
		log.Printf("host: command mailbox full, dropping command kind %d", cmd.Kind)
	}
}

// drain delivers every currently-queued command to handle, returning once
// the mailbox is empty. Called once per audio block from the render path;
// never blocks.
func (m *Mailbox) drain(handle func(Command)) {
	for {
		select {
		case cmd := <-m.commands:
			handle(cmd)
		default:
			return
		}
	}
}

// emit posts an audio->control event without blocking, dropping it if the
// control thread has fallen behind rather than stalling the render
// deadline.
func (m *Mailbox) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
	}
}

// Events exposes the audio->control event stream for the control thread to
// range over.
func (m *Mailbox) Events() <-chan Event { return m.events }
