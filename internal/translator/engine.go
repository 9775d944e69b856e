package translator

import (
	"context"
	"errors"
)

// Engine failure classes. Transient ones are retried by BatchTranslator;
// the rest fail the batch immediately.
var (
	ErrRateLimited  = errors.New("translation engine rate limited")
	ErrTimeout      = errors.New("translation engine timeout")
	ErrUnavailable  = errors.New("translation engine unavailable")
	ErrUnauthorized = errors.New("translation engine authorization failed")
	ErrMalformed    = errors.New("malformed translation request or response")

	// ErrTranslationFailed is the batch-level failure surfaced to the
	// pipeline once retries are exhausted or the error is non-retryable.
	ErrTranslationFailed = errors.New("translation failed")
)

// IsTransient reports whether an engine error is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}

// EngineResult is a single translated text as returned by the engine.
// Confidence is nil when the engine does not report one.
type EngineResult struct {
	TranslatedText string   `json:"translated_text"`
	Confidence     *float64 `json:"confidence,omitempty"`
	Note           string   `json:"note,omitempty"`
}

// Engine converts an ordered batch of texts between languages.
// Implementations wrap an external translation service.
type Engine interface {
	// TranslateBatch translates texts as one logical call. The returned
	// slice may be shorter than the input on partial engine failure;
	// BatchTranslator enforces the length guarantee on top of this.
	TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string, tier Tier) ([]EngineResult, error)

	// Name identifies the engine for logs and metrics.
	Name() string
}
