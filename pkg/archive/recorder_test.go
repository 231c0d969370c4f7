package archive

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor records statements instead of talking to a cluster.
type fakeExecutor struct {
	mu    sync.Mutex
	calls []execCall
	err   error
	delay time.Duration
}

type execCall struct {
	stmt   string
	values []interface{}
}

func (f *fakeExecutor) exec(_ context.Context, stmt string, values ...interface{}) error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, execCall{stmt: stmt, values: values})
	return f.err
}

func (f *fakeExecutor) close() {}

func (f *fakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeExecutor) lastCall() execCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func sampleEntry() Entry {
	return Entry{
		RequestID:      "req-42",
		SourceText:     "Hello",
		TranslatedText: "Hallo",
		SourceLanguage: "en",
		TargetLanguage: "de",
		Domain:         "hotel_domain",
		Method:         "mbart",
		QualityScore:   0.75,
		BeamWidth:      4,
		Duration:       120 * time.Millisecond,
	}
}

func TestRecorderInsertWritesRow(t *testing.T) {
	fake := &fakeExecutor{}
	rec, err := newRecorder(fake, quietLogger())
	require.NoError(t, err)
	defer rec.Close()

	rec.insert(sampleEntry())

	require.Equal(t, 1, fake.callCount())
	call := fake.lastCall()
	assert.Equal(t, insertStmt, call.stmt)
	require.Len(t, call.values, 12)

	// values[0] is the generated timeuuid, values[11] the timestamp.
	assert.Equal(t, "req-42", call.values[1])
	assert.Equal(t, "Hello", call.values[2])
	assert.Equal(t, "Hallo", call.values[3])
	assert.Equal(t, "en", call.values[4])
	assert.Equal(t, "de", call.values[5])
	assert.Equal(t, "hotel_domain", call.values[6])
	assert.Equal(t, "mbart", call.values[7])
	assert.Equal(t, 0.75, call.values[8])
	assert.Equal(t, 4, call.values[9])
	assert.Equal(t, int64(120), call.values[10])
}

func TestRecorderRecordIsAsynchronous(t *testing.T) {
	fake := &fakeExecutor{}
	rec, err := newRecorder(fake, quietLogger())
	require.NoError(t, err)
	defer rec.Close()

	rec.Record(sampleEntry())

	assert.Eventually(t, func() bool {
		return fake.callCount() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRecorderCloseDrainsPendingWrites(t *testing.T) {
	fake := &fakeExecutor{delay: 50 * time.Millisecond}
	rec, err := newRecorder(fake, quietLogger())
	require.NoError(t, err)

	rec.Record(sampleEntry())
	rec.Close()

	assert.Equal(t, 1, fake.callCount())
}

func TestRecorderBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	fake := &fakeExecutor{err: errors.New("cluster down")}
	rec, err := newRecorder(fake, quietLogger())
	require.NoError(t, err)
	defer rec.Close()

	// The breaker trips after more than five consecutive failures.
	for i := 0; i < 6; i++ {
		rec.insert(sampleEntry())
	}
	require.Equal(t, 6, fake.callCount())

	// Once open, writes are shed without touching the cluster.
	rec.insert(sampleEntry())
	rec.insert(sampleEntry())
	assert.Equal(t, 6, fake.callCount())
}

func TestRecorderNilSafe(t *testing.T) {
	var rec *Recorder
	rec.Record(sampleEntry())
	rec.Close()
}
