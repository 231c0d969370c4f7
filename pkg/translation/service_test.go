package translation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayware/tolk/pkg/catalog"
	"github.com/stayware/tolk/pkg/inference"
)

func TestTranslatePassthrough(t *testing.T) {
	f := newFixture()

	res, err := f.svc.Translate(context.Background(), Request{Text: "Hello", Source: "en", Target: "en"})
	require.NoError(t, err)

	assert.Equal(t, "Hello", res.TranslatedText)
	assert.Equal(t, MethodPassthrough, res.Method)
	assert.Equal(t, 1.0, res.QualityScore)
	assert.Equal(t, inference.DefaultModelID, res.ModelVersion)
	assert.False(t, res.Cached)

	// Passthrough must touch neither the model nor the cache.
	assert.Zero(t, f.backend.generateCount())
	assert.Zero(t, f.store.getCalls)
	assert.Zero(t, f.store.setCalls)
	assert.Zero(t, f.archiver.count())
}

func TestTranslateValidationPrecedesPassthrough(t *testing.T) {
	f := newFixture()

	// "no" is a real ISO code but has no model mapping, so even the
	// identical-language case must be rejected.
	_, err := f.svc.Translate(context.Background(), Request{Text: "Hei", Source: "no", Target: "no"})
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrUnsupportedLanguage)
	assert.Zero(t, f.backend.generateCount())
}

func TestTranslateMissThenHit(t *testing.T) {
	f := newFixture()
	req := Request{Text: "Where is the pool?", Source: "en", Target: "de"}

	first, err := f.svc.Translate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, MethodModel, first.Method)
	assert.Equal(t, 0.75, first.QualityScore)
	assert.Equal(t, "[de_DE] Where is the pool?", first.TranslatedText)
	assert.Equal(t, 1, f.backend.generateCount())
	assert.Equal(t, 1, f.store.setCalls)

	second, err := f.svc.Translate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.TranslatedText, second.TranslatedText)
	assert.Equal(t, first.QualityScore, second.QualityScore)
	assert.Equal(t, first.ModelVersion, second.ModelVersion)

	// The hit must not trigger a second model call or cache write.
	assert.Equal(t, 1, f.backend.generateCount())
	assert.Equal(t, 1, f.store.setCalls)
}

func TestTranslateQualityVariantsShareEntry(t *testing.T) {
	f := newFixture()
	fast := Request{Text: "Check-out is at noon", Source: "en", Target: "fr", Quality: PreferenceFast}
	accurate := fast
	accurate.Quality = PreferenceAccurate

	_, err := f.svc.Translate(context.Background(), fast)
	require.NoError(t, err)

	res, err := f.svc.Translate(context.Background(), accurate)
	require.NoError(t, err)

	assert.True(t, res.Cached)
	assert.Equal(t, 1, f.backend.generateCount())
}

func TestTranslateDomainsAreIsolated(t *testing.T) {
	f := newFixture()
	lobby := Request{Text: "Welcome", Source: "en", Target: "es", Domain: "hotel_domain"}
	menu := lobby
	menu.Domain = "restaurant_menu"

	_, err := f.svc.Translate(context.Background(), lobby)
	require.NoError(t, err)
	_, err = f.svc.Translate(context.Background(), menu)
	require.NoError(t, err)

	assert.Equal(t, 2, f.backend.generateCount())
}

func TestTranslateCacheBypass(t *testing.T) {
	f := newFixture()
	req := Request{Text: "Hi", Source: "en", Target: "de", UseCache: boolPtr(false)}

	for i := 0; i < 2; i++ {
		res, err := f.svc.Translate(context.Background(), req)
		require.NoError(t, err)
		assert.False(t, res.Cached)
	}

	assert.Equal(t, 2, f.backend.generateCount())
	assert.Zero(t, f.store.getCalls)
	assert.Zero(t, f.store.setCalls)
}

func TestTranslateCacheOutageDegrades(t *testing.T) {
	f := newFixture()
	f.store.getErr = errors.New("connection refused")
	f.store.setErr = errors.New("connection refused")

	res, err := f.svc.Translate(context.Background(), Request{Text: "Good evening", Source: "en", Target: "it"})
	require.NoError(t, err)
	assert.Equal(t, MethodModel, res.Method)
	assert.False(t, res.Cached)
	assert.Equal(t, 1, f.backend.generateCount())
}

func TestTranslateBeamWidthFollowsPreference(t *testing.T) {
	tests := []struct {
		name    string
		quality Preference
		want    int
	}{
		{"fast", PreferenceFast, 2},
		{"balanced", PreferenceBalanced, 4},
		{"accurate", PreferenceAccurate, 8},
		{"unset", Preference(""), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.Translate(context.Background(), Request{Text: "Hello", Source: "en", Target: "ja", Quality: tt.quality})
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.backend.lastGenerate().beamWidth)
		})
	}
}

func TestTranslateResolvesModelIdentifiers(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Translate(context.Background(), Request{Text: "Hello", Source: "zh", Target: "pt"})
	require.NoError(t, err)

	call := f.backend.lastGenerate()
	assert.Equal(t, "zh_CN", call.sourceID)
	assert.Equal(t, "pt_XX", call.targetID)
}

func TestTranslateUnsupportedLanguages(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Translate(context.Background(), Request{Text: "Hello", Source: "xx", Target: "de"})
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrUnsupportedLanguage)
	assert.Contains(t, err.Error(), "source language")

	_, err = f.svc.Translate(context.Background(), Request{Text: "Hello", Source: "en", Target: "yy"})
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrUnsupportedLanguage)
	assert.Contains(t, err.Error(), "target language")

	// Rejected before the cache or model are consulted.
	assert.Zero(t, f.backend.generateCount())
	assert.Zero(t, f.store.getCalls)
}

func TestTranslateValidationErrors(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name string
		req  Request
	}{
		{"empty text", Request{Source: "en", Target: "de"}},
		{"too long", Request{Text: strings.Repeat("a", MaxTextLength+1), Source: "en", Target: "de"}},
		{"bad source", Request{Text: "Hello", Source: "EN", Target: "de"}},
		{"bad quality", Request{Text: "Hello", Source: "en", Target: "de", Quality: "turbo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Translate(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	assert.Zero(t, f.backend.generateCount())
}

func TestTranslateInferenceFailure(t *testing.T) {
	f := newFixture()
	f.backend.generateErr = errors.New("runner exploded")

	_, err := f.svc.Translate(context.Background(), Request{Text: "Hello", Source: "en", Target: "de"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, catalog.ErrUnsupportedLanguage)

	// Failures must not pollute the cache or the history.
	assert.Zero(t, f.store.setCalls)
	assert.Zero(t, f.archiver.count())
}

func TestTranslateAdapterFusionCapabilities(t *testing.T) {
	f := newFixture()
	f.backend.caps = inference.Capabilities{
		ModelVersion:   "mbart-large-50-v2",
		AdaptersLoaded: true,
		Device:         "cuda",
	}
	require.NoError(t, f.svc.WarmUp(context.Background()))

	res, err := f.svc.Translate(context.Background(), Request{Text: "Hello", Source: "en", Target: "de"})
	require.NoError(t, err)

	assert.Equal(t, MethodAdapterFusion, res.Method)
	assert.Equal(t, 0.85, res.QualityScore)
	assert.Equal(t, "mbart-large-50-v2", res.ModelVersion)
}

func TestTranslateRecordsHistory(t *testing.T) {
	f := newFixture()
	ctx := WithRequestID(context.Background(), "req-123")
	req := Request{Text: "Hello", Source: "en", Target: "de", Quality: PreferenceAccurate}

	_, err := f.svc.Translate(ctx, req)
	require.NoError(t, err)

	require.Equal(t, 1, f.archiver.count())
	entry := f.archiver.last()
	assert.Equal(t, "req-123", entry.RequestID)
	assert.Equal(t, "Hello", entry.SourceText)
	assert.Equal(t, "[de_DE] Hello", entry.TranslatedText)
	assert.Equal(t, "en", entry.SourceLanguage)
	assert.Equal(t, "de", entry.TargetLanguage)
	assert.Equal(t, DefaultDomain, entry.Domain)
	assert.Equal(t, MethodModel, entry.Method)
	assert.Equal(t, 8, entry.BeamWidth)

	// Cache hits do not add history rows.
	_, err = f.svc.Translate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, f.archiver.count())
}

func TestWarmUp(t *testing.T) {
	f := newFixture()
	assert.False(t, f.svc.Ready())

	f.backend.caps = inference.Capabilities{ModelVersion: "v2", Device: "cuda"}
	require.NoError(t, f.svc.WarmUp(context.Background()))

	assert.True(t, f.svc.Ready())
	assert.Equal(t, "v2", f.svc.ModelCapabilities().ModelVersion)
	assert.Equal(t, "cuda", f.svc.ModelCapabilities().Device)
}

func TestWarmUpFailuresKeepServiceNotReady(t *testing.T) {
	health := newFixture()
	health.backend.healthErr = errors.New("still loading")
	require.Error(t, health.svc.WarmUp(context.Background()))
	assert.False(t, health.svc.Ready())

	caps := newFixture()
	caps.backend.capsErr = errors.New("boom")
	require.Error(t, caps.svc.WarmUp(context.Background()))
	assert.False(t, caps.svc.Ready())
}

func TestUptimeGrows(t *testing.T) {
	f := newFixture()
	assert.GreaterOrEqual(t, f.svc.Uptime().Nanoseconds(), int64(0))
}
