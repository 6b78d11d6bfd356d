package host

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the reference host's static startup configuration: the
// process-wide sample rate (frozen at init, per the sample-rate policy
// every rate-dependent LUT and coefficient is computed against), the
// render block size, a backend name, and where to find the default patch
// and sample bank. Backend is parsed but not consulted: the headless build
// tag selects the AudioOutput backend. Grounded on doismellburning/samoyed's
// YAML config loader convention.
type Config struct {
	SampleRate    int    `yaml:"sampleRate"`
	BlockSize     int    `yaml:"blockSize"`
	Backend       string `yaml:"backend"` // "oto" or "headless"
	PatchPath     string `yaml:"patchPath"`
	SampleBankDir string `yaml:"sampleBankDir"`
	Seed          int64  `yaml:"seed"`
}

// DefaultConfig returns the configuration used when no file is supplied:
// 48 kHz, 128-frame blocks (the expected block size per the concurrency
// model), the real-time oto backend.
func DefaultConfig() Config {
	return Config{SampleRate: 48000, BlockSize: 128, Backend: "oto", Seed: 1}
}

// LoadConfig reads and parses a YAML config file, starting from
// DefaultConfig so a partial file only overrides the fields it sets.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("baengraembl: host: read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("baengraembl: host: parse config %q: %w", path, err)
	}
	return cfg, nil
}
