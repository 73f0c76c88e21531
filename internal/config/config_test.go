package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, int64(42), cfg.Compute.Seed)
	assert.Equal(t, 1, cfg.Compute.NBootstrap)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
data:
  excel_file: data.xlsx
  target_column: label
compute:
  seed: 7
  n_bootstrap: 25
logging:
  level: debug
  pretty: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "data.xlsx", cfg.Data.ExcelFile)
	assert.Equal(t, "label", cfg.Data.TargetColumn)
	assert.Equal(t, int64(7), cfg.Compute.Seed)
	assert.Equal(t, 25, cfg.Compute.NBootstrap)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Pretty)
	// Untouched sections keep their defaults.
	assert.Equal(t, "release", cfg.Server.GinMode)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9000\"\n"), 0o644))

	t.Setenv("PORT", "7777")
	t.Setenv("SEED", "99")
	t.Setenv("N_JOBS", "0.5")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7777", cfg.Server.Port)
	assert.Equal(t, int64(99), cfg.Compute.Seed)
	assert.Equal(t, 0.5, cfg.Compute.NJobs)
	assert.True(t, cfg.Logging.Pretty)
}

func TestEnvConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"6060\"\n"), 0o644))
	t.Setenv("MINTPY_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "6060", cfg.Server.Port)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidBootstrap(t *testing.T) {
	t.Setenv("N_BOOTSTRAP", "0")
	_, err := Load("")
	assert.Error(t, err)
}

func TestBadEnvValuesFallBack(t *testing.T) {
	t.Setenv("SEED", "not-a-number")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Compute.Seed)
}
