package translator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
)

// FailedText is the sentinel placed in units that could not be translated.
const FailedText = "translation_failed"

// Unit is one translated text, positionally aligned with its source region.
type Unit struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Note       string  `json:"note,omitempty"`
	Index      int     `json:"index"`
	Failed     bool    `json:"failed,omitempty"`
}

// Config holds batch translation settings.
type Config struct {
	// DefaultConfidence is assigned when the engine omits a confidence value.
	DefaultConfidence float64
	// MaxAttempts bounds retries of transient engine failures.
	MaxAttempts uint
	// InitialBackoff seeds the exponential backoff between attempts.
	InitialBackoff time.Duration
	// MaxBackoff caps the backoff regardless of attempt count.
	MaxBackoff time.Duration
}

// DefaultConfig returns translation defaults.
func DefaultConfig() Config {
	return Config{
		DefaultConfidence: 0.8,
		MaxAttempts:       4,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        8 * time.Second,
	}
}

// BatchTranslator wraps a translation engine and enforces the batch
// contract: output order and length always match the input, with sentinel
// padding on partial engine responses. Transient failures are retried with
// exponential backoff and jitter up to the attempt budget.
type BatchTranslator struct {
	engine Engine
	cfg    Config
}

// New creates a BatchTranslator wrapping the given engine.
func New(engine Engine, cfg Config) (*BatchTranslator, error) {
	if engine == nil {
		return nil, fmt.Errorf("translator: engine is required")
	}
	if cfg.DefaultConfidence < 0 || cfg.DefaultConfidence > 1 {
		return nil, fmt.Errorf("translator: default confidence %f out of [0,1]", cfg.DefaultConfidence)
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}
	return &BatchTranslator{engine: engine, cfg: cfg}, nil
}

// Translate translates all texts as one logical batch. On success the result
// has exactly len(texts) units in input order. A batch-level failure returns
// ErrTranslationFailed; callers degrade to OCR-only rendering via
// SentinelBatch rather than dropping the page.
func (t *BatchTranslator) Translate(ctx context.Context, texts []string, sourceLang, targetLang string, tier Tier) ([]Unit, error) {
	if len(texts) == 0 {
		return []Unit{}, nil
	}

	var results []EngineResult
	err := retry.Do(
		func() error {
			var callErr error
			results, callErr = t.engine.TranslateBatch(ctx, texts, sourceLang, targetLang, tier)
			return callErr
		},
		retry.Attempts(t.cfg.MaxAttempts),
		retry.Delay(t.cfg.InitialBackoff),
		retry.MaxDelay(t.cfg.MaxBackoff),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(t.cfg.InitialBackoff/2),
		retry.RetryIf(IsTransient),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(attempt uint, err error) {
			slog.Warn("Retrying translation batch",
				"engine", t.engine.Name(), "attempt", attempt+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranslationFailed, err)
	}

	if len(results) > len(texts) {
		slog.Warn("Translation engine returned extra results",
			"engine", t.engine.Name(), "want", len(texts), "got", len(results))
		results = results[:len(texts)]
	}

	units := make([]Unit, len(texts))
	for i := range texts {
		if i >= len(results) {
			// Partial engine response: pad the missing tail, never truncate.
			units[i] = sentinelUnit(i)
			continue
		}
		units[i] = t.normalize(results[i], i)
	}

	if len(results) < len(texts) {
		slog.Warn("Translation batch padded",
			"engine", t.engine.Name(), "want", len(texts), "got", len(results))
	}
	return units, nil
}

// SentinelBatch returns n failed-sentinel units, used when the whole batch
// fails and the page degrades to OCR-only bubbles.
func SentinelBatch(n int) []Unit {
	units := make([]Unit, n)
	for i := range units {
		units[i] = sentinelUnit(i)
	}
	return units
}

func (t *BatchTranslator) normalize(r EngineResult, index int) Unit {
	conf := t.cfg.DefaultConfidence
	if r.Confidence != nil {
		conf = clamp01(*r.Confidence)
	}
	return Unit{
		Text:       r.TranslatedText,
		Confidence: conf,
		Note:       r.Note,
		Index:      index,
	}
}

func sentinelUnit(index int) Unit {
	return Unit{Text: FailedText, Confidence: 0, Index: index, Failed: true}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
