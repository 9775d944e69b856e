package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0.5, cfg.Pipeline.Detector.MinConfidence)
	assert.Equal(t, 256, cfg.Pipeline.CacheSize)
	assert.Positive(t, cfg.Pipeline.Scheduler.DetectWorkers)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }},
		{"min confidence above one", func(c *Config) { c.Pipeline.Detector.MinConfidence = 1.5 }},
		{"negative ocr threshold", func(c *Config) { c.Pipeline.Reconciler.OCRThreshold = -0.1 }},
		{"zero cache size", func(c *Config) { c.Pipeline.CacheSize = 0 }},
		{"zero detect workers", func(c *Config) { c.Pipeline.Scheduler.DetectWorkers = 0 }},
		{"negative translate queue", func(c *Config) { c.Pipeline.Scheduler.TranslateQueue = -1 }},
		{"unknown provider", func(c *Config) { c.Engines.Translation.Provider = "grpc" }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigYAMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Library.Dir = "/data/pages"
	cfg.Engines.Translation.Provider = "rest"
	cfg.Engines.Translation.BaseURL = "http://translate.local"

	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	var back Config
	require.NoError(t, yaml.Unmarshal(data, &back))

	assert.Equal(t, cfg.Library.Dir, back.Library.Dir)
	assert.Equal(t, cfg.Engines.Translation.Provider, back.Engines.Translation.Provider)
	assert.Equal(t, cfg.Pipeline.Scheduler.TranslateWorkers, back.Pipeline.Scheduler.TranslateWorkers)
	assert.Equal(t, cfg.Pipeline.Reconciler.TranslationThreshold, back.Pipeline.Reconciler.TranslationThreshold)
}

func TestBuildPipelineConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipeline.Translator.InitialBackoffMs = 250
	cfg.Pipeline.Translator.MaxBackoffMs = 4000
	cfg.Pipeline.Scheduler.DetectWorkers = 3
	cfg.Pipeline.Scheduler.DetectQueue = 6

	pc := cfg.BuildPipelineConfig()

	assert.Equal(t, 0.5, pc.Detector.MinConfidence)
	assert.Equal(t, 250*time.Millisecond, pc.Translator.InitialBackoff)
	assert.Equal(t, 4*time.Second, pc.Translator.MaxBackoff)
	assert.Equal(t, 3, pc.Scheduler.Detect.Workers)
	assert.Equal(t, 6, pc.Scheduler.Detect.QueueDepth)
	assert.Equal(t, cfg.Pipeline.CacheSize, pc.CacheSize)
}
