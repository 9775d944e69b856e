package translator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine returns scripted responses, one per call.
type fakeEngine struct {
	responses [][]EngineResult
	errs      []error
	calls     int
	gotTexts  [][]string
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) TranslateBatch(_ context.Context, texts []string, _, _ string, _ Tier) ([]EngineResult, error) {
	call := f.calls
	f.calls++
	f.gotTexts = append(f.gotTexts, texts)
	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}
	if call < len(f.responses) {
		return f.responses[call], nil
	}
	return nil, ErrUnavailable
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	return cfg
}

func conf(v float64) *float64 { return &v }

func TestTranslatePreservesOrderAndLength(t *testing.T) {
	engine := &fakeEngine{responses: [][]EngineResult{{
		{TranslatedText: "Hello", Confidence: conf(0.95)},
		{TranslatedText: "What happened?", Confidence: conf(0.88)},
	}}}
	tr, err := New(engine, fastConfig())
	require.NoError(t, err)

	units, err := tr.Translate(context.Background(), []string{"こんにちは", "どうしたの?"}, "ja", "en", TierBalanced)
	require.NoError(t, err)
	require.Len(t, units, 2)

	assert.Equal(t, "Hello", units[0].Text)
	assert.InDelta(t, 0.95, units[0].Confidence, 1e-9)
	assert.Equal(t, 0, units[0].Index)
	assert.Equal(t, "What happened?", units[1].Text)
	assert.Equal(t, 1, units[1].Index)

	// The whole page is one logical engine call.
	assert.Equal(t, 1, engine.calls)
	assert.Equal(t, []string{"こんにちは", "どうしたの?"}, engine.gotTexts[0])
}

func TestTranslatePadsShortResponses(t *testing.T) {
	// Engine returns 1 translation for a 2-text batch.
	engine := &fakeEngine{responses: [][]EngineResult{{
		{TranslatedText: "Hello", Confidence: conf(0.9)},
	}}}
	tr, err := New(engine, fastConfig())
	require.NoError(t, err)

	units, err := tr.Translate(context.Background(), []string{"a", "b"}, "ja", "en", TierFast)
	require.NoError(t, err)
	require.Len(t, units, 2)

	assert.Equal(t, "Hello", units[0].Text)
	assert.False(t, units[0].Failed)

	assert.Equal(t, FailedText, units[1].Text)
	assert.Zero(t, units[1].Confidence)
	assert.Equal(t, 1, units[1].Index)
	assert.True(t, units[1].Failed)
}

func TestTranslateTruncatesExtraResults(t *testing.T) {
	engine := &fakeEngine{responses: [][]EngineResult{{
		{TranslatedText: "one"}, {TranslatedText: "two"}, {TranslatedText: "extra"},
	}}}
	tr, err := New(engine, fastConfig())
	require.NoError(t, err)

	units, err := tr.Translate(context.Background(), []string{"a", "b"}, "ja", "en", TierBalanced)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "one", units[0].Text)
	assert.Equal(t, "two", units[1].Text)
}

func TestTranslateDefaultsMissingConfidence(t *testing.T) {
	engine := &fakeEngine{responses: [][]EngineResult{{
		{TranslatedText: "no confidence reported"},
		{TranslatedText: "out of range", Confidence: conf(1.7)},
		{TranslatedText: "negative", Confidence: conf(-0.2)},
	}}}
	tr, err := New(engine, fastConfig())
	require.NoError(t, err)

	units, err := tr.Translate(context.Background(), []string{"a", "b", "c"}, "ja", "en", TierBalanced)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, units[0].Confidence, 1e-9)
	assert.InDelta(t, 1.0, units[1].Confidence, 1e-9)
	assert.InDelta(t, 0.0, units[2].Confidence, 1e-9)
}

func TestTranslateRetriesTransientErrors(t *testing.T) {
	engine := &fakeEngine{
		errs: []error{ErrRateLimited, ErrUnavailable, nil},
		responses: [][]EngineResult{
			nil, nil, {{TranslatedText: "ok"}},
		},
	}
	tr, err := New(engine, fastConfig())
	require.NoError(t, err)

	units, err := tr.Translate(context.Background(), []string{"a"}, "ja", "en", TierBalanced)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "ok", units[0].Text)
	assert.Equal(t, 3, engine.calls)
}

func TestTranslateNonRetryableFailsImmediately(t *testing.T) {
	engine := &fakeEngine{errs: []error{ErrUnauthorized}}
	tr, err := New(engine, fastConfig())
	require.NoError(t, err)

	_, err = tr.Translate(context.Background(), []string{"a"}, "ja", "en", TierBalanced)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTranslationFailed)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, engine.calls)
}

func TestTranslateExhaustsRetryBudget(t *testing.T) {
	engine := &fakeEngine{errs: []error{ErrUnavailable, ErrUnavailable, ErrUnavailable, ErrUnavailable}}
	cfg := fastConfig()
	cfg.MaxAttempts = 3
	tr, err := New(engine, cfg)
	require.NoError(t, err)

	_, err = tr.Translate(context.Background(), []string{"a"}, "ja", "en", TierBalanced)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTranslationFailed)
	assert.Equal(t, 3, engine.calls)
}

func TestTranslateEmptyBatchSkipsEngine(t *testing.T) {
	engine := &fakeEngine{}
	tr, err := New(engine, fastConfig())
	require.NoError(t, err)

	units, err := tr.Translate(context.Background(), nil, "ja", "en", TierBalanced)
	require.NoError(t, err)
	assert.Empty(t, units)
	assert.Zero(t, engine.calls)
}

func TestSentinelBatch(t *testing.T) {
	units := SentinelBatch(3)
	require.Len(t, units, 3)
	for i, u := range units {
		assert.Equal(t, FailedText, u.Text)
		assert.Zero(t, u.Confidence)
		assert.Equal(t, i, u.Index)
		assert.True(t, u.Failed)
	}
}
