package translation

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stayware/tolk/pkg/archive"
	"github.com/stayware/tolk/pkg/inference"
)

// mockBackend is a scripted inference.Backend that records every call.
// Generate echoes the input prefixed with the target identifier unless
// generateFunc or generateErr is set.
type mockBackend struct {
	mu            sync.Mutex
	generateCalls []generateCall
	healthCalls   int
	capsCalls     int

	generateFunc func(text string) (string, error)
	generateErr  error
	caps         inference.Capabilities
	capsErr      error
	healthErr    error
}

type generateCall struct {
	text      string
	sourceID  string
	targetID  string
	beamWidth int
}

func (m *mockBackend) Generate(_ context.Context, text, sourceID, targetID string, beamWidth int) (string, error) {
	m.mu.Lock()
	m.generateCalls = append(m.generateCalls, generateCall{
		text:      text,
		sourceID:  sourceID,
		targetID:  targetID,
		beamWidth: beamWidth,
	})
	m.mu.Unlock()

	if m.generateFunc != nil {
		return m.generateFunc(text)
	}
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return "[" + targetID + "] " + text, nil
}

func (m *mockBackend) Capabilities(_ context.Context) (inference.Capabilities, error) {
	m.mu.Lock()
	m.capsCalls++
	m.mu.Unlock()

	if m.capsErr != nil {
		return inference.Capabilities{}, m.capsErr
	}
	if m.caps == (inference.Capabilities{}) {
		return inference.Capabilities{ModelVersion: inference.DefaultModelID, Device: "cpu"}, nil
	}
	return m.caps, nil
}

func (m *mockBackend) CheckHealth(_ context.Context) error {
	m.mu.Lock()
	m.healthCalls++
	m.mu.Unlock()
	return m.healthErr
}

func (m *mockBackend) generateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.generateCalls)
}

func (m *mockBackend) lastGenerate() generateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generateCalls[len(m.generateCalls)-1]
}

// mockStore is an in-memory cache.Store with fault injection.
type mockStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	ttls     map[string]time.Duration
	getCalls int
	setCalls int
	getErr   error
	setErr   error
	closed   bool
}

func newMockStore() *mockStore {
	return &mockStore{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	val, ok := m.data[key]
	return val, ok, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// mockArchiver records history entries handed to it.
type mockArchiver struct {
	mu      sync.Mutex
	entries []archive.Entry
}

func (m *mockArchiver) Record(entry archive.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

func (m *mockArchiver) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *mockArchiver) last() archive.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[len(m.entries)-1]
}

// serviceFixture wires a Service to mocks for white-box tests.
type serviceFixture struct {
	svc      *Service
	backend  *mockBackend
	store    *mockStore
	archiver *mockArchiver
}

func newFixture() *serviceFixture {
	backend := &mockBackend{}
	store := newMockStore()
	archiver := &mockArchiver{}
	logger := quietLogger()

	svc := NewService(Config{
		Backend: backend,
		Cache:   NewResultCache(store, time.Hour, logger),
		History: archiver,
		Logger:  logger,
	})

	return &serviceFixture{
		svc:      svc,
		backend:  backend,
		store:    store,
		archiver: archiver,
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func boolPtr(b bool) *bool {
	return &b
}
