package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielchen8624/smartdim/config"
	"github.com/danielchen8624/smartdim/curve"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	tuning, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))

	require.NoError(t, err)
	assert.Equal(t, config.Default(), tuning)
	assert.Equal(t, curve.DefaultOptions(), tuning.Options())
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smartdim.toml")
	require.NoError(t, os.WriteFile(path, []byte("samples = 256\nwhite_cap = 0.9\n"), 0o644))

	tuning, err := config.Load(path)
	require.NoError(t, err)

	opts := tuning.Options()
	assert.Equal(t, 256, opts.Samples)
	assert.Equal(t, 0.9, opts.WhiteCap)

	// Unset fields keep the engine defaults.
	assert.Equal(t, 0.050, opts.GuardWidth)
	assert.Equal(t, 6500.0, opts.KelvinMax)
}

func TestLoadBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smartdim.toml")
	require.NoError(t, os.WriteFile(path, []byte("samples = ["), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}
