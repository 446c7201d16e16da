package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadToml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
seed = 123
default_net_delay = 0.25
log_level = "debug"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(123), cfg.Seed)
	require.Equal(t, 0.25, cfg.DefaultNetDelay)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadYaml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 7\ndefault_net_delay: 0.5\nlog_level: warn\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(7), cfg.Seed)
	require.Equal(t, 0.5, cfg.DefaultNetDelay)
	require.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.ini")
	require.NoError(t, os.WriteFile(path, []byte("seed=1"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, int64(0), cfg.Seed)
	require.Equal(t, "info", cfg.LogLevel)
}
