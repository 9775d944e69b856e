package cmd

import (
	"fmt"
	"time"

	"github.com/panelglot/panelglot/internal/config"
	"github.com/panelglot/panelglot/internal/detector"
	"github.com/panelglot/panelglot/internal/pagestore"
	"github.com/panelglot/panelglot/internal/pipeline"
	"github.com/panelglot/panelglot/internal/translator"
)

// buildPipeline assembles the translation pipeline from configuration,
// rooted at the given page library directory.
func buildPipeline(cfg *config.Config, libraryDir string) (*pipeline.Pipeline, *pagestore.FSStore, error) {
	store, err := pagestore.NewFSStore(libraryDir)
	if err != nil {
		return nil, nil, fmt.Errorf("page library: %w", err)
	}

	detectEngine, err := detector.NewHTTPEngine(detector.HTTPEngineConfig{
		BaseURL: cfg.Engines.OCR.BaseURL,
		Timeout: time.Duration(cfg.Engines.OCR.TimeoutSec) * time.Second,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("recognition engine: %w", err)
	}

	translateEngine, err := buildTranslationEngine(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("translation engine: %w", err)
	}

	pl, err := pipeline.NewBuilder().
		WithConfig(cfg.BuildPipelineConfig()).
		WithDetectorEngine(detectEngine).
		WithTranslationEngine(translateEngine).
		WithStore(store).
		Build()
	if err != nil {
		return nil, nil, err
	}
	return pl, store, nil
}

func buildTranslationEngine(cfg *config.Config) (translator.Engine, error) {
	ec := cfg.Engines.Translation
	switch ec.Provider {
	case "openai":
		return translator.NewOpenAIEngine(translator.OpenAIEngineConfig{
			APIKey:  ec.APIKey,
			BaseURL: ec.BaseURL,
		})
	case "rest":
		return translator.NewRESTEngine(translator.RESTEngineConfig{
			BaseURL: ec.BaseURL,
			APIKey:  ec.APIKey,
			Timeout: time.Duration(ec.TimeoutSec) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown translation provider %q", ec.Provider)
	}
}
