package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	resetViper(t)
	t.Chdir(t.TempDir())

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8500, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.Engines.Translation.Provider)
}

func TestLoadWithFile(t *testing.T) {
	resetViper(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "panelglot.yaml")
	content := `
log_level: debug
library:
  dir: /srv/pages
pipeline:
  detector:
    min_confidence: 0.7
  scheduler:
    translate_workers: 2
engines:
  translation:
    provider: rest
    base_url: http://translate.local
server:
  port: 9000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := NewLoader().LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/srv/pages", cfg.Library.Dir)
	assert.Equal(t, 0.7, cfg.Pipeline.Detector.MinConfidence)
	assert.Equal(t, 2, cfg.Pipeline.Scheduler.TranslateWorkers)
	assert.Equal(t, "rest", cfg.Engines.Translation.Provider)
	assert.Equal(t, 9000, cfg.Server.Port)

	// Values not present in the file keep their defaults.
	assert.Equal(t, 256, cfg.Pipeline.CacheSize)
}

func TestLoadWithFileMissing(t *testing.T) {
	resetViper(t)

	_, err := NewLoader().LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadWithFileInvalidConfig(t *testing.T) {
	resetViper(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "panelglot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  cache_size: 0\n"), 0o644))

	_, err := NewLoader().LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestEnvironmentOverride(t *testing.T) {
	resetViper(t)
	t.Chdir(t.TempDir())
	t.Setenv("PANELGLOT_LOG_LEVEL", "warn")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}
