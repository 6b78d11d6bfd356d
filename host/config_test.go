package host

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 48000, cfg.SampleRate)
	assert.Equal(t, 128, cfg.BlockSize)
	assert.Equal(t, "oto", cfg.Backend)
}

func TestLoadConfigOverridesOnlySpecifiedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sampleRate: 44100\npatchPath: default.patch\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 44100, cfg.SampleRate)
	assert.Equal(t, "default.patch", cfg.PatchPath)
	assert.Equal(t, 128, cfg.BlockSize) // untouched, stays default
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
