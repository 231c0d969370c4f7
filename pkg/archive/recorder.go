package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const (
	// DefaultKeyspace is where the translation history tables live.
	DefaultKeyspace = "hotel_i18n"
	// connectTimeout bounds session establishment against the cluster.
	connectTimeout = 5 * time.Second
	// insertTimeout bounds a single history write.
	insertTimeout = 2 * time.Second
	// writerPoolSize caps the number of concurrent history writes.
	writerPoolSize = 8
	// drainTimeout bounds how long Close waits for in-flight writes.
	drainTimeout = 5 * time.Second
)

var historyWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tolk_history_writes_total",
		Help: "Total number of translation history writes by status",
	},
	[]string{"status"},
)

// Entry is one completed translation written to the history table.
type Entry struct {
	RequestID      string
	SourceText     string
	TranslatedText string
	SourceLanguage string
	TargetLanguage string
	Domain         string
	Method         string
	QualityScore   float64
	BeamWidth      int
	Duration       time.Duration
}

const insertStmt = `INSERT INTO translation_history
	(id, request_id, source_text, translated_text, source_language, target_language,
	 domain, method, quality_score, beam_width, duration_ms, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// executor abstracts statement execution so the recorder can be tested
// without a live cluster.
type executor interface {
	exec(ctx context.Context, stmt string, values ...interface{}) error
	close()
}

// gocqlExecutor runs statements on a gocql session.
type gocqlExecutor struct {
	session *gocql.Session
}

func (g gocqlExecutor) exec(ctx context.Context, stmt string, values ...interface{}) error {
	return g.session.Query(stmt, values...).WithContext(ctx).Exec()
}

func (g gocqlExecutor) close() {
	g.session.Close()
}

// Options contains connection settings for the history recorder.
type Options struct {
	Hosts    []string
	Keyspace string
}

// Recorder persists completed translations to ScyllaDB for offline
// analysis and retraining. Writes are asynchronous and best effort: a
// slow or absent cluster costs history rows, never request latency.
// A nil Recorder is valid and records nothing.
type Recorder struct {
	session executor
	breaker *gobreaker.CircuitBreaker
	pool    *ants.Pool
	logger  *logrus.Logger
}

// NewRecorder connects to the cluster and starts the write pool.
// It returns an error when no host is reachable so the caller can decide
// whether to run without history.
func NewRecorder(opts Options, logger *logrus.Logger) (*Recorder, error) {
	if logger == nil {
		logger = logrus.New()
	}
	keyspace := opts.Keyspace
	if keyspace == "" {
		keyspace = DefaultKeyspace
	}

	cluster := gocql.NewCluster(opts.Hosts...)
	cluster.Keyspace = keyspace
	cluster.ConnectTimeout = connectTimeout
	cluster.Timeout = insertTimeout

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect scylla: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"hosts":    opts.Hosts,
		"keyspace": keyspace,
	}).Info("ScyllaDB connected")

	return newRecorder(gocqlExecutor{session: session}, logger)
}

func newRecorder(session executor, logger *logrus.Logger) (*Recorder, error) {
	// Nonblocking pool: when every writer is busy the entry is dropped
	// instead of stalling the request path.
	pool, err := ants.NewPool(writerPoolSize, ants.WithNonblocking(true))
	if err != nil {
		session.close()
		return nil, fmt.Errorf("create writer pool: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "translation-history",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("History breaker state changed")
		},
	})

	return &Recorder{
		session: session,
		breaker: breaker,
		pool:    pool,
		logger:  logger,
	}, nil
}

// Record queues entry for asynchronous persistence. It never blocks and
// never reports failure to the caller.
func (r *Recorder) Record(entry Entry) {
	if r == nil {
		return
	}

	if err := r.pool.Submit(func() { r.insert(entry) }); err != nil {
		historyWritesTotal.WithLabelValues("dropped").Inc()
		r.logger.WithError(err).Warn("History write dropped, writer pool saturated")
	}
}

func (r *Recorder) insert(entry Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.session.exec(ctx, insertStmt,
			gocql.TimeUUID(),
			entry.RequestID,
			entry.SourceText,
			entry.TranslatedText,
			entry.SourceLanguage,
			entry.TargetLanguage,
			entry.Domain,
			entry.Method,
			entry.QualityScore,
			entry.BeamWidth,
			entry.Duration.Milliseconds(),
			time.Now().UTC(),
		)
	})
	if err != nil {
		historyWritesTotal.WithLabelValues("error").Inc()
		r.logger.WithError(err).WithFields(logrus.Fields{
			"source_language": entry.SourceLanguage,
			"target_language": entry.TargetLanguage,
		}).Warn("History write failed")
		return
	}
	historyWritesTotal.WithLabelValues("ok").Inc()
}

// Close drains the writer pool, bounded by a timeout, then closes the
// session.
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	if err := r.pool.ReleaseTimeout(drainTimeout); err != nil {
		r.logger.WithError(err).Warn("History writer pool did not drain before timeout")
	}
	r.session.close()
}
