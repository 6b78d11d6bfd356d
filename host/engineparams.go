package host

import (
	"encoding/json"
	"fmt"

	"github.com/midislave/baengraembl/sequencer"
	"github.com/midislave/baengraembl/voice"
)

// DrumEngineParams is the persisted engineParams payload for KICK/SNARE/
// HIHAT voice slots.
type DrumEngineParams struct {
	Variant int              `json:"variant"` // 0 = 808, 1 = 909
	Macros  voice.DrumMacros `json:"macros"`
}

// SampleEngineParams is the persisted engineParams payload for SAMPLE/
// SLICE voice slots. SampleID resolves against the host's sample bank,
// loaded separately from the patch file since patches never carry raw PCM.
type SampleEngineParams struct {
	SampleID string             `json:"sampleId"`
	Slice    *voice.SliceConfig `json:"slice,omitempty"`
}

// FMEngineParams is the persisted engineParams payload for DX7 voice
// slots.
type FMEngineParams struct {
	Patch voice.FMPatch `json:"patch"`
}

// buildTrackConfig decodes a patch.Voice's engine-specific blob into a
// TrackVoiceConfig, resolving SAMPLE/SLICE sample references against
// sampleBank. A config is always returned rather than failing the whole
// patch load: a decode failure leaves the engine-specific fields at their
// zero values, and an unresolved sample id leaves Sample nil, so
// VoiceFactory silently drops that track's SAMPLE/SLICE triggers.
func buildTrackConfig(v sequencer.VoiceSlot, level, drive, pan float32, bitCrush int, sends sequencer.Sends, raw json.RawMessage, sampleBank map[string]*voice.Sample) *TrackVoiceConfig {
	cfg := &TrackVoiceConfig{
		PostChain: voice.PostChain{Level: level, BitCrush: bitCrush, DriveAmt: drive, Pan: pan},
		Sends:     sendsFromSlot(sends),
	}

	switch v.Engine {
	case sequencer.EngineKick, sequencer.EngineSnare, sequencer.EngineHihat:
		var p DrumEngineParams
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return cfg // drum macros stay zero-valued; still a usable (silent) config
			}
		}
		cfg.DrumVariant = voice.DrumVariant(p.Variant)
		cfg.DrumMacros = p.Macros

	case sequencer.EngineSample, sequencer.EngineSlice:
		var p SampleEngineParams
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &p)
		}
		if s, ok := sampleBank[p.SampleID]; ok {
			cfg.Sample = s
		}
		cfg.Slice = p.Slice

	case sequencer.EngineDX7:
		var p FMEngineParams
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &p)
		}
		cfg.FM = &voice.FMEngineContext{Patch: p.Patch}
	}

	return cfg
}

// MarshalDrumParams and the sibling helpers below are the control-thread
// side of buildTrackConfig: encoding a TrackVoiceConfig's engine-specific
// state back into the json.RawMessage patch.Voice.EngineParams expects.

func MarshalDrumParams(variant voice.DrumVariant, macros voice.DrumMacros) (json.RawMessage, error) {
	b, err := json.Marshal(DrumEngineParams{Variant: int(variant), Macros: macros})
	if err != nil {
		return nil, fmt.Errorf("baengraembl: host: marshal drum params: %w", err)
	}
	return b, nil
}

func MarshalSampleParams(sampleID string, slice *voice.SliceConfig) (json.RawMessage, error) {
	b, err := json.Marshal(SampleEngineParams{SampleID: sampleID, Slice: slice})
	if err != nil {
		return nil, fmt.Errorf("baengraembl: host: marshal sample params: %w", err)
	}
	return b, nil
}

func MarshalFMParams(patch voice.FMPatch) (json.RawMessage, error) {
	b, err := json.Marshal(FMEngineParams{Patch: patch})
	if err != nil {
		return nil, fmt.Errorf("baengraembl: host: marshal FM params: %w", err)
	}
	return b, nil
}
