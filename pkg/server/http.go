package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/stayware/tolk/pkg/catalog"
	"github.com/stayware/tolk/pkg/translation"
)

const (
	// Version is the service version reported on the root endpoint.
	Version = "1.0.0"
	// serviceName identifies this service to callers and dashboards.
	serviceName = "tolk-translation-service"
)

// HTTPServer exposes the translation pipeline over HTTP.
type HTTPServer struct {
	service *translation.Service
	logger  *logrus.Logger
	server  *http.Server
}

// NewHTTPServer wires the translation service to its HTTP routes.
func NewHTTPServer(svc *translation.Service, logger *logrus.Logger, addr string) *HTTPServer {
	if logger == nil {
		logger = logrus.New()
	}

	s := &HTTPServer{
		service: svc,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/languages", s.handleLanguages)
	mux.HandleFunc("/translate", s.handleTranslate)
	mux.HandleFunc("/translate/batch", s.handleTranslateBatch)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.withRequestID(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Start begins serving and blocks until the listener closes.
func (s *HTTPServer) Start() error {
	s.logger.WithFields(logrus.Fields{
		"addr": s.server.Addr,
	}).Info("Starting HTTP server")

	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the routing tree, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// withRequestID tags every request with an identifier for log and
// history correlation, honoring an incoming X-Request-ID header, and
// emits a debug access log line once the handler returns.
func (s *HTTPServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		ctx := translation.WithRequestID(r.Context(), id)
		next.ServeHTTP(rec, r.WithContext(ctx))

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  id,
		}).Debug("Request handled")
	})
}

// statusRecorder captures the response status for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// handleRoot reports basic service information.
func (s *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	status := "initializing"
	if s.service.Ready() {
		status = "ready"
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": serviceName,
		"version": Version,
		"model":   s.service.ModelCapabilities().ModelVersion,
		"status":  status,
	})
}

// healthResponse is the wire shape of the health endpoint.
type healthResponse struct {
	Status         string  `json:"status"`
	ModelLoaded    bool    `json:"model_loaded"`
	AdaptersLoaded bool    `json:"adapters_loaded"`
	Device         string  `json:"device"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
}

// handleHealth reports readiness and runner state. It always answers
// 200; the status field carries the verdict so probes can distinguish
// a starting service from a dead one.
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	caps := s.service.ModelCapabilities()
	status := "initializing"
	if s.service.Ready() {
		status = "healthy"
	}

	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:         status,
		ModelLoaded:    s.service.Ready(),
		AdaptersLoaded: caps.AdaptersLoaded,
		Device:         caps.Device,
		UptimeSeconds:  s.service.Uptime().Seconds(),
	})
}

// handleLanguages lists the supported language codes and their model
// identifiers.
func (s *HTTPServer) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"supported": catalog.Codes(),
		"mapping":   catalog.Mapping(),
	})
}

// handleTranslate runs a single translation request.
func (s *HTTPServer) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !s.service.Ready() {
		s.writeError(w, http.StatusServiceUnavailable, "Service still initializing")
		return
	}

	var req translation.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	res, err := s.service.Translate(r.Context(), req)
	if err != nil {
		s.writeTranslationError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, res)
}

// handleTranslateBatch runs a batch of translation requests.
func (s *HTTPServer) handleTranslateBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !s.service.Ready() {
		s.writeError(w, http.StatusServiceUnavailable, "Service still initializing")
		return
	}

	var batch translation.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		s.writeError(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	results, err := s.service.TranslateBatch(r.Context(), batch)
	if err != nil {
		s.writeTranslationError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, results)
}

// writeTranslationError maps pipeline errors to HTTP status codes.
// Client mistakes are 400s; everything else is a 500.
func (s *HTTPServer) writeTranslationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrUnsupportedLanguage), errors.Is(err, translation.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, "Translation failed: "+err.Error())
	}
}

// errorResponse is the JSON error wire shape.
type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorResponse{Detail: detail})
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}
