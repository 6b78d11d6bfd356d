// Package patch implements the persisted patch format: a JSON document
// that round-trips bpm/swing/bar-lengths, voice/sequence state, the
// bus/reverb/delay/clouds processors, and per-parameter modulation
// configs, while excluding runtime-only fields (isPlaying, stepCounter,
// current LFO phases, active voices, in-flight textures). The round-trip
// contract itself (marshal/unmarshal symmetry, explicit field omission)
// has no teacher analogue — the teacher pokes registers directly and
// never serialises state — so this package is built fresh, using stdlib
// `encoding/json` since the persisted format is plain JSON.
package patch

import (
	"encoding/json"
	"fmt"

	"github.com/midislave/baengraembl/bus"
	"github.com/midislave/baengraembl/clouds"
	"github.com/midislave/baengraembl/modulation"
	"github.com/midislave/baengraembl/sequencer"
)

// CurrentVersion is written into every patch this core saves; Load
// accepts any version <= CurrentVersion and leaves version-specific
// migration to the caller (none exist yet).
const CurrentVersion = 1

// Voice is one persisted voice slot: the sequencer's VoiceSlot plus the
// shared post-chain parameters (level/bit-crush/drive/pan) and an
// engine-specific parameter blob. EngineParams stays a raw JSON blob
// rather than a concrete type because its shape depends on
// VoiceSlot.Engine (DrumMacros, FMPatch, SliceConfig, ...) — the host
// layer decodes it once it knows the engine.
type Voice struct {
	sequencer.VoiceSlot
	Level        float32         `json:"level"`
	BitCrush     int             `json:"bitCrush"`  // 0 = off
	DriveAmount  float32         `json:"driveAmount"` // 0 = off
	Pan          float32         `json:"pan"`
	EngineParams json.RawMessage `json:"engineParams,omitempty"`
}

// Patch is the top-level persisted document.
type Patch struct {
	Version         int                          `json:"version"`
	BPM             float32                      `json:"bpm"`
	Swing           float32                      `json:"swing"`
	BaengBarLength  int                          `json:"baengBarLength"`
	RaemblBarLength int                          `json:"raemblBarLength"`
	Voices          []Voice                      `json:"voices"`
	Sequences       []sequencer.Sequence         `json:"sequences"`
	Bus             bus.Params                   `json:"bus"`
	Reverb          bus.ImpulseParams            `json:"reverb"`
	Delay           bus.DelayParams              `json:"delay"`
	Clouds          clouds.Params                `json:"clouds"`
	Modulations     map[string]modulation.Config `json:"modulations"`
}

// Marshal encodes a Patch, stamping Version to CurrentVersion.
func Marshal(p *Patch) ([]byte, error) {
	p.Version = CurrentVersion
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("baengraembl: patch: marshal: %w", err)
	}
	return b, nil
}

// Unmarshal decodes a Patch and clamps every embedded VoiceSlot, Bus and
// Clouds parameter to its declared range (Sequence steps are not
// clamped): an out-of-range parameter is clamped
// silently, with no error raised — a malformed or hand-edited patch file
// should load, not fail the control thread.
func Unmarshal(data []byte) (*Patch, error) {
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("baengraembl: patch: unmarshal: %w", err)
	}
	if p.Version > CurrentVersion {
		return nil, fmt.Errorf("baengraembl: patch: version %d is newer than supported version %d", p.Version, CurrentVersion)
	}
	for i := range p.Voices {
		p.Voices[i].VoiceSlot.Clamp()
	}
	p.Bus.Clamp()
	p.Clouds.Clamp()
	return &p, nil
}
