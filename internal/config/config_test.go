package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "log.txt", cfg.LogFile)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clusterlog.yaml")
	data := "log_file: run.log\nstrict: true\nport: 9000\ndatabase: runs.db\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "run.log", cfg.LogFile)
	assert.True(t, cfg.Strict)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "runs.db", cfg.Database)
	// Untouched keys keep their defaults.
	assert.Equal(t, Default().OutputDir, cfg.OutputDir)
	assert.Equal(t, Default().ListenEndpoint, cfg.ListenEndpoint)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("port: [1, 2"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("port: 70000\nui_rate: -1\n"), 0o644))
	_, err = Load(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port 70000 out of range")
	assert.Contains(t, err.Error(), "ui_rate")
}
