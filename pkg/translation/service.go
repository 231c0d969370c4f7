package translation

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/stayware/tolk/pkg/archive"
	"github.com/stayware/tolk/pkg/catalog"
	"github.com/stayware/tolk/pkg/inference"
)

// Archiver receives completed translations for offline persistence.
// Implementations must not block; the pipeline calls them inline.
type Archiver interface {
	Record(entry archive.Entry)
}

// Config assembles the dependencies of a Service.
// Cache and History are optional; a nil value disables the concern.
type Config struct {
	Backend inference.Backend
	Cache   *ResultCache
	History Archiver
	Logger  *logrus.Logger
}

// Service orchestrates the translation pipeline: validation, language
// resolution, passthrough, cache lookup, model inference, cache
// population and history recording. Exactly one of passthrough, cache
// hit or inference produces each result.
type Service struct {
	backend inference.Backend
	cache   *ResultCache
	history Archiver
	logger  *logrus.Logger

	mu      sync.RWMutex
	caps    inference.Capabilities
	ready   bool
	started time.Time
}

// NewService creates a translation service from its dependencies.
func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &Service{
		backend: cfg.Backend,
		cache:   cfg.Cache,
		history: cfg.History,
		logger:  cfg.Logger,
		caps: inference.Capabilities{
			ModelVersion: inference.DefaultModelID,
			Device:       "unknown",
		},
		started: time.Now(),
	}
}

// WarmUp probes the model runner and records its capabilities.
// The service reports not ready until one warm-up has succeeded.
func (s *Service) WarmUp(ctx context.Context) error {
	if err := s.backend.CheckHealth(ctx); err != nil {
		return fmt.Errorf("model runner health: %w", err)
	}

	caps, err := s.backend.Capabilities(ctx)
	if err != nil {
		return fmt.Errorf("model runner capabilities: %w", err)
	}

	s.mu.Lock()
	s.caps = caps
	s.ready = true
	s.mu.Unlock()
	modelReady.Set(1)

	s.logger.WithFields(logrus.Fields{
		"model_version":   caps.ModelVersion,
		"adapters_loaded": caps.AdaptersLoaded,
		"device":          caps.Device,
	}).Info("Translation service ready")

	return nil
}

// Ready reports whether a warm-up has succeeded.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// ModelCapabilities returns the last known runner capabilities.
func (s *Service) ModelCapabilities() inference.Capabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.caps
}

// Uptime returns how long the service has been running.
func (s *Service) Uptime() time.Duration {
	return time.Since(s.started)
}

// Translate runs one request through the pipeline.
//
// Validation and language resolution failures return ErrValidation or
// catalog.ErrUnsupportedLanguage wrapped with context. Cache trouble is
// absorbed as a miss. Only model inference failures surface as errors.
func (s *Service) Translate(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	req = req.normalized()
	textLen := utf8.RuneCountInString(req.Text)

	if err := req.Validate(); err != nil {
		observeRequest(servedNowhere, statusValidationError, time.Since(start), textLen)
		return Result{}, err
	}

	sourceID, err := catalog.Resolve(req.Source)
	if err != nil {
		observeRequest(servedNowhere, statusUnsupportedLanguage, time.Since(start), textLen)
		return Result{}, fmt.Errorf("source language: %w", err)
	}
	targetID, err := catalog.Resolve(req.Target)
	if err != nil {
		observeRequest(servedNowhere, statusUnsupportedLanguage, time.Since(start), textLen)
		return Result{}, fmt.Errorf("target language: %w", err)
	}

	logger := s.logger.WithFields(logrus.Fields{
		"source_language": req.Source,
		"target_language": req.Target,
		"domain":          req.Domain,
		"quality":         string(req.Quality),
	})

	// Identical languages skip both the cache and the model.
	if req.Source == req.Target {
		logger.Debug("Source and target match, returning passthrough")
		observeRequest(MethodPassthrough, statusOK, time.Since(start), textLen)
		return Result{
			TranslatedText: req.Text,
			Source:         req.Source,
			Target:         req.Target,
			QualityScore:   scorePassthrough,
			Method:         MethodPassthrough,
			ModelVersion:   s.ModelCapabilities().ModelVersion,
		}, nil
	}

	key := req.CacheKey()
	if req.CacheEnabled() {
		if res, ok := s.cache.Lookup(ctx, key); ok {
			logger.Info("Cache hit")
			observeRequest(servedFromCache, statusOK, time.Since(start), textLen)
			return res, nil
		}
	}

	logger.Info("Translating")
	beamWidth := req.Quality.BeamWidth()
	translated, err := s.backend.Generate(ctx, req.Text, sourceID, targetID, beamWidth)
	if err != nil {
		logger.WithError(err).Error("Translation failed")
		observeRequest(servedNowhere, statusInferenceError, time.Since(start), textLen)
		return Result{}, fmt.Errorf("generate translation: %w", err)
	}

	caps := s.ModelCapabilities()
	res := Result{
		TranslatedText: translated,
		Source:         req.Source,
		Target:         req.Target,
		QualityScore:   scoreModel,
		Method:         MethodModel,
		ModelVersion:   caps.ModelVersion,
	}
	if caps.AdaptersLoaded {
		res.QualityScore = scoreAdapterFusion
		res.Method = MethodAdapterFusion
	}

	if req.CacheEnabled() {
		s.cache.Save(ctx, key, res)
	}
	s.recordHistory(ctx, req, res, beamWidth, time.Since(start))

	duration := time.Since(start)
	logger.WithFields(logrus.Fields{
		"method":      res.Method,
		"duration_ms": duration.Milliseconds(),
	}).Info("Translation complete")
	observeRequest(res.Method, statusOK, duration, textLen)

	return res, nil
}

// recordHistory hands a fresh model result to the archiver. Passthrough
// and cached results are not archived; only new model output is worth a
// history row.
func (s *Service) recordHistory(ctx context.Context, req Request, res Result, beamWidth int, duration time.Duration) {
	if s.history == nil {
		return
	}

	s.history.Record(archive.Entry{
		RequestID:      RequestID(ctx),
		SourceText:     req.Text,
		TranslatedText: res.TranslatedText,
		SourceLanguage: req.Source,
		TargetLanguage: req.Target,
		Domain:         req.Domain,
		Method:         res.Method,
		QualityScore:   res.QualityScore,
		BeamWidth:      beamWidth,
		Duration:       duration,
	})
}
