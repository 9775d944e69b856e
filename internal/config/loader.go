package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "panelglot"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "PANELGLOT"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	// Use the global viper instance so cobra flag bindings apply
	return &Loader{v: viper.GetViper()}
}

// Load loads configuration from the search paths, environment variables, and
// defaults. A missing config file is not an error.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")

	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, continue with defaults and env vars
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// Set sets a value in the configuration.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for advanced usage.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}

	l.v.AddConfigPath("/etc/panelglot")

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "panelglot"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "panelglot"))
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("library.dir", defaults.Library.Dir)

	l.v.SetDefault("pipeline.detector.min_confidence", defaults.Pipeline.Detector.MinConfidence)
	l.v.SetDefault("pipeline.detector.merge_gap_px", defaults.Pipeline.Detector.MergeGapPx)

	l.v.SetDefault("pipeline.translator.default_confidence", defaults.Pipeline.Translator.DefaultConfidence)
	l.v.SetDefault("pipeline.translator.max_attempts", defaults.Pipeline.Translator.MaxAttempts)
	l.v.SetDefault("pipeline.translator.initial_backoff_ms", defaults.Pipeline.Translator.InitialBackoffMs)
	l.v.SetDefault("pipeline.translator.max_backoff_ms", defaults.Pipeline.Translator.MaxBackoffMs)

	l.v.SetDefault("pipeline.reconciler.ocr_threshold", defaults.Pipeline.Reconciler.OCRThreshold)
	l.v.SetDefault("pipeline.reconciler.translation_threshold", defaults.Pipeline.Reconciler.TranslationThreshold)

	l.v.SetDefault("pipeline.scheduler.detect_workers", defaults.Pipeline.Scheduler.DetectWorkers)
	l.v.SetDefault("pipeline.scheduler.detect_queue", defaults.Pipeline.Scheduler.DetectQueue)
	l.v.SetDefault("pipeline.scheduler.translate_workers", defaults.Pipeline.Scheduler.TranslateWorkers)
	l.v.SetDefault("pipeline.scheduler.translate_queue", defaults.Pipeline.Scheduler.TranslateQueue)

	l.v.SetDefault("pipeline.cache_size", defaults.Pipeline.CacheSize)

	l.v.SetDefault("engines.ocr.base_url", defaults.Engines.OCR.BaseURL)
	l.v.SetDefault("engines.ocr.timeout_sec", defaults.Engines.OCR.TimeoutSec)
	l.v.SetDefault("engines.translation.provider", defaults.Engines.Translation.Provider)
	l.v.SetDefault("engines.translation.api_key", defaults.Engines.Translation.APIKey)
	l.v.SetDefault("engines.translation.base_url", defaults.Engines.Translation.BaseURL)
	l.v.SetDefault("engines.translation.timeout_sec", defaults.Engines.Translation.TimeoutSec)

	l.v.SetDefault("server.host", defaults.Server.Host)
	l.v.SetDefault("server.port", defaults.Server.Port)
	l.v.SetDefault("server.cors_origin", defaults.Server.CORSOrigin)
	l.v.SetDefault("server.timeout_sec", defaults.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", defaults.Server.ShutdownTimeout)
	l.v.SetDefault("server.rate_limit_enabled", defaults.Server.RateLimitEnabled)
	l.v.SetDefault("server.requests_per_minute", defaults.Server.RequestsPerMinute)
}

// WriteConfigToFile writes the current configuration to a file.
func (l *Loader) WriteConfigToFile(filename string) error {
	return l.v.WriteConfigAs(filename)
}

// GenerateDefaultConfigFile generates a default configuration file.
func GenerateDefaultConfigFile(filename string) error {
	loader := NewLoader()
	loader.setDefaults()

	if filename == "" {
		filename = "panelglot.yaml"
	}
	return loader.WriteConfigToFile(filename)
}
