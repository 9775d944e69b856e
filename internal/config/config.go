package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/panelglot/panelglot/internal/detector"
	"github.com/panelglot/panelglot/internal/pipeline"
	"github.com/panelglot/panelglot/internal/reconcile"
	"github.com/panelglot/panelglot/internal/scheduler"
	"github.com/panelglot/panelglot/internal/translator"
)

// Config represents the complete configuration for the panelglot service.
// It supports loading from configuration files, environment variables, and
// command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Library is the page image store location.
	Library LibraryConfig `mapstructure:"library" yaml:"library" json:"library"`

	// Pipeline configuration
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// External engine endpoints
	Engines EnginesConfig `mapstructure:"engines" yaml:"engines" json:"engines"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// LibraryConfig locates the page store.
type LibraryConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir" json:"dir"`
}

// PipelineConfig contains translation pipeline settings.
type PipelineConfig struct {
	Detector   DetectorConfig   `mapstructure:"detector" yaml:"detector" json:"detector"`
	Translator TranslatorConfig `mapstructure:"translator" yaml:"translator" json:"translator"`
	Reconciler ReconcilerConfig `mapstructure:"reconciler" yaml:"reconciler" json:"reconciler"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler" yaml:"scheduler" json:"scheduler"`
	CacheSize  int              `mapstructure:"cache_size" yaml:"cache_size" json:"cache_size"`
}

// DetectorConfig contains region detection settings.
type DetectorConfig struct {
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
	MergeGapPx    float64 `mapstructure:"merge_gap_px" yaml:"merge_gap_px" json:"merge_gap_px"`
}

// TranslatorConfig contains batch translation settings.
type TranslatorConfig struct {
	DefaultConfidence float64 `mapstructure:"default_confidence" yaml:"default_confidence" json:"default_confidence"`
	MaxAttempts       uint    `mapstructure:"max_attempts" yaml:"max_attempts" json:"max_attempts"`
	InitialBackoffMs  int     `mapstructure:"initial_backoff_ms" yaml:"initial_backoff_ms" json:"initial_backoff_ms"`
	MaxBackoffMs      int     `mapstructure:"max_backoff_ms" yaml:"max_backoff_ms" json:"max_backoff_ms"`
}

// ReconcilerConfig contains the confidence cutoffs for overlay bubbles.
type ReconcilerConfig struct {
	OCRThreshold         float64 `mapstructure:"ocr_threshold" yaml:"ocr_threshold" json:"ocr_threshold"`
	TranslationThreshold float64 `mapstructure:"translation_threshold" yaml:"translation_threshold" json:"translation_threshold"`
}

// SchedulerConfig bounds the two worker pools.
type SchedulerConfig struct {
	DetectWorkers    int `mapstructure:"detect_workers" yaml:"detect_workers" json:"detect_workers"`
	DetectQueue      int `mapstructure:"detect_queue" yaml:"detect_queue" json:"detect_queue"`
	TranslateWorkers int `mapstructure:"translate_workers" yaml:"translate_workers" json:"translate_workers"`
	TranslateQueue   int `mapstructure:"translate_queue" yaml:"translate_queue" json:"translate_queue"`
}

// EnginesConfig holds external engine endpoints and credentials.
type EnginesConfig struct {
	OCR         OCREngineConfig         `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
	Translation TranslationEngineConfig `mapstructure:"translation" yaml:"translation" json:"translation"`
}

// OCREngineConfig points at the recognition service.
type OCREngineConfig struct {
	BaseURL    string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// TranslationEngineConfig selects and configures the translation backend.
type TranslationEngineConfig struct {
	Provider   string `mapstructure:"provider" yaml:"provider" json:"provider"` // openai or rest
	APIKey     string `mapstructure:"api_key" yaml:"api_key" json:"api_key"`
	BaseURL    string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string `mapstructure:"host" yaml:"host" json:"host"`
	Port              int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin        string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	TimeoutSec        int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout   int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	RateLimitEnabled  bool   `mapstructure:"rate_limit_enabled" yaml:"rate_limit_enabled" json:"rate_limit_enabled"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Verbose:  false,
		Library: LibraryConfig{
			Dir: "pages",
		},
		Pipeline: PipelineConfig{
			Detector: DetectorConfig{
				MinConfidence: 0.5,
				MergeGapPx:    12,
			},
			Translator: TranslatorConfig{
				DefaultConfidence: 0.8,
				MaxAttempts:       4,
				InitialBackoffMs:  500,
				MaxBackoffMs:      8000,
			},
			Reconciler: ReconcilerConfig{
				OCRThreshold:         0.5,
				TranslationThreshold: 0.5,
			},
			Scheduler: SchedulerConfig{
				DetectWorkers:    runtime.NumCPU(),
				DetectQueue:      2 * runtime.NumCPU(),
				TranslateWorkers: 4,
				TranslateQueue:   8,
			},
			CacheSize: 256,
		},
		Engines: EnginesConfig{
			OCR: OCREngineConfig{
				BaseURL:    "http://localhost:8600",
				TimeoutSec: 30,
			},
			Translation: TranslationEngineConfig{
				Provider:   "openai",
				TimeoutSec: 60,
			},
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8500,
			CORSOrigin:        "*",
			TimeoutSec:        60,
			ShutdownTimeout:   10,
			RateLimitEnabled:  false,
			RequestsPerMinute: 120,
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}

	if c.Pipeline.Detector.MinConfidence < 0 || c.Pipeline.Detector.MinConfidence > 1 {
		return fmt.Errorf("pipeline.detector.min_confidence must be in [0,1]")
	}
	if c.Pipeline.Reconciler.OCRThreshold < 0 || c.Pipeline.Reconciler.OCRThreshold > 1 {
		return fmt.Errorf("pipeline.reconciler.ocr_threshold must be in [0,1]")
	}
	if c.Pipeline.Reconciler.TranslationThreshold < 0 || c.Pipeline.Reconciler.TranslationThreshold > 1 {
		return fmt.Errorf("pipeline.reconciler.translation_threshold must be in [0,1]")
	}
	if c.Pipeline.CacheSize <= 0 {
		return fmt.Errorf("pipeline.cache_size must be positive")
	}
	if c.Pipeline.Scheduler.DetectWorkers <= 0 || c.Pipeline.Scheduler.TranslateWorkers <= 0 {
		return fmt.Errorf("pipeline.scheduler worker counts must be positive")
	}
	if c.Pipeline.Scheduler.DetectQueue < 0 || c.Pipeline.Scheduler.TranslateQueue < 0 {
		return fmt.Errorf("pipeline.scheduler queue depths must be non-negative")
	}

	switch c.Engines.Translation.Provider {
	case "openai", "rest":
	default:
		return fmt.Errorf("engines.translation.provider must be openai or rest, got %q", c.Engines.Translation.Provider)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}

// BuildPipelineConfig translates the file-level settings into component configs.
func (c *Config) BuildPipelineConfig() pipeline.Config {
	return pipeline.Config{
		Detector: detector.Config{
			MinConfidence: c.Pipeline.Detector.MinConfidence,
			MergeGapPx:    c.Pipeline.Detector.MergeGapPx,
		},
		Translator: translator.Config{
			DefaultConfidence: c.Pipeline.Translator.DefaultConfidence,
			MaxAttempts:       c.Pipeline.Translator.MaxAttempts,
			InitialBackoff:    time.Duration(c.Pipeline.Translator.InitialBackoffMs) * time.Millisecond,
			MaxBackoff:        time.Duration(c.Pipeline.Translator.MaxBackoffMs) * time.Millisecond,
		},
		Thresholds: reconcile.Thresholds{
			OCR:         c.Pipeline.Reconciler.OCRThreshold,
			Translation: c.Pipeline.Reconciler.TranslationThreshold,
		},
		Scheduler: scheduler.Config{
			Detect: scheduler.PoolConfig{
				Workers:    c.Pipeline.Scheduler.DetectWorkers,
				QueueDepth: c.Pipeline.Scheduler.DetectQueue,
			},
			Translate: scheduler.PoolConfig{
				Workers:    c.Pipeline.Scheduler.TranslateWorkers,
				QueueDepth: c.Pipeline.Scheduler.TranslateQueue,
			},
		},
		CacheSize: c.Pipeline.CacheSize,
	}
}
