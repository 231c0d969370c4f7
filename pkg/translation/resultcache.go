package translation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stayware/tolk/pkg/cache"
)

const (
	// DefaultCacheTTL keeps cached translations for thirty days.
	DefaultCacheTTL = 30 * 24 * time.Hour

	// envelopeSchemaVersion guards against decoding entries written by
	// incompatible releases. Bump it whenever the Result wire shape changes;
	// old entries then age out instead of being misread.
	envelopeSchemaVersion = 1
)

// envelope is the versioned JSON wrapper stored in the cache.
type envelope struct {
	SchemaVersion int    `json:"schema_version"`
	Result        Result `json:"result"`
}

// ResultCache stores finished translations in a shared key-value store.
// Every failure path degrades to a cache miss: a broken store is logged
// and counted, never surfaced to the caller. A nil ResultCache is valid
// and behaves as a cache that always misses.
type ResultCache struct {
	store  cache.Store
	ttl    time.Duration
	logger *logrus.Logger
}

// NewResultCache wraps store with translation result encoding and TTL
// handling. A non-positive ttl falls back to DefaultCacheTTL.
func NewResultCache(store cache.Store, ttl time.Duration, logger *logrus.Logger) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &ResultCache{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Lookup fetches the cached result for key. The second return value is
// true only for a decodable entry with the current schema version; the
// returned result always has Cached set.
func (rc *ResultCache) Lookup(ctx context.Context, key string) (Result, bool) {
	if rc == nil || rc.store == nil {
		return Result{}, false
	}

	raw, found, err := rc.store.Get(ctx, key)
	if err != nil {
		cacheLookupsTotal.WithLabelValues("error").Inc()
		rc.logger.WithError(err).Warn("Cache lookup failed, treating as miss")
		return Result{}, false
	}
	if !found {
		cacheLookupsTotal.WithLabelValues("miss").Inc()
		return Result{}, false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		cacheLookupsTotal.WithLabelValues("error").Inc()
		rc.logger.WithError(err).WithFields(logrus.Fields{
			"key": key,
		}).Warn("Discarding undecodable cache entry")
		return Result{}, false
	}
	if env.SchemaVersion != envelopeSchemaVersion {
		cacheLookupsTotal.WithLabelValues("stale_schema").Inc()
		rc.logger.WithFields(logrus.Fields{
			"key":            key,
			"schema_version": env.SchemaVersion,
		}).Debug("Ignoring cache entry with foreign schema version")
		return Result{}, false
	}

	cacheLookupsTotal.WithLabelValues("hit").Inc()
	res := env.Result
	res.Cached = true
	return res, true
}

// Save stores res under key. The Cached flag is cleared before encoding
// so entries are canonical regardless of how the result was served.
// Write failures are logged and counted but never returned.
func (rc *ResultCache) Save(ctx context.Context, key string, res Result) {
	if rc == nil || rc.store == nil {
		return
	}

	res.Cached = false
	raw, err := json.Marshal(envelope{
		SchemaVersion: envelopeSchemaVersion,
		Result:        res,
	})
	if err != nil {
		cacheWritesTotal.WithLabelValues("error").Inc()
		rc.logger.WithError(err).Error("Failed to encode cache entry")
		return
	}

	if err := rc.store.Set(ctx, key, raw, rc.ttl); err != nil {
		cacheWritesTotal.WithLabelValues("error").Inc()
		rc.logger.WithError(err).Warn("Cache write failed, result served uncached")
		return
	}
	cacheWritesTotal.WithLabelValues("ok").Inc()
}

// Close releases the underlying store. Safe on a nil cache.
func (rc *ResultCache) Close() error {
	if rc == nil || rc.store == nil {
		return nil
	}
	return rc.store.Close()
}
