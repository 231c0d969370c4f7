package translation

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultBatchParallel is the parallelism cap applied when a batch
	// request does not name one.
	DefaultBatchParallel = 10
	// MaxBatchParallel is the largest cap a batch request may ask for.
	MaxBatchParallel = 50
)

// BatchRequest carries a set of translation jobs executed together.
// MaxParallel caps both the number of items accepted and the number of
// concurrent model calls; zero means DefaultBatchParallel.
type BatchRequest struct {
	Requests    []Request `json:"requests"`
	MaxParallel int       `json:"max_parallel,omitempty"`
}

// parallelism validates and resolves the batch parallelism cap.
func (b BatchRequest) parallelism() (int, error) {
	if b.MaxParallel == 0 {
		return DefaultBatchParallel, nil
	}
	if b.MaxParallel < 1 || b.MaxParallel > MaxBatchParallel {
		return 0, fmt.Errorf("%w: max_parallel must be between 1 and %d", ErrValidation, MaxBatchParallel)
	}
	return b.MaxParallel, nil
}

// TranslateBatch runs a batch through the pipeline with bounded
// parallelism.
//
// Batches larger than the cap are truncated, not rejected. Items that
// fail for any reason degrade to a placeholder result echoing the
// original text, so one bad item never sinks its batch. Results are
// returned in submission order.
func (s *Service) TranslateBatch(ctx context.Context, batch BatchRequest) ([]Result, error) {
	limit, err := batch.parallelism()
	if err != nil {
		return nil, err
	}

	batchRequestsTotal.Inc()
	batchSize.Observe(float64(len(batch.Requests)))

	reqs := batch.Requests
	if len(reqs) > limit {
		batchTruncationsTotal.Inc()
		s.logger.WithFields(logrus.Fields{
			"submitted": len(reqs),
			"accepted":  limit,
		}).Warn("Batch truncated to parallelism cap")
		reqs = reqs[:limit]
	}
	if len(reqs) == 0 {
		return []Result{}, nil
	}

	pool, err := ants.NewPool(limit)
	if err != nil {
		return nil, fmt.Errorf("create batch pool: %w", err)
	}
	defer pool.Release()

	results := make([]Result, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		// go.mod targets go 1.21, where loop variables are shared across
		// iterations; shadow them so each task captures its own pair.
		i, req := i, req
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = s.translateBatchItem(ctx, req)
		}
		if err := pool.Submit(task); err != nil {
			// The pool only rejects once released; run inline so the
			// slot is still filled.
			task()
		}
	}
	wg.Wait()

	return results, nil
}

// translateBatchItem isolates one batch item. Failures are folded into
// a degraded placeholder result instead of an error.
func (s *Service) translateBatchItem(ctx context.Context, req Request) Result {
	res, err := s.Translate(ctx, req)
	if err != nil {
		batchItemsTotal.WithLabelValues("failed").Inc()
		s.logger.WithError(err).WithFields(logrus.Fields{
			"source_language": req.Source,
			"target_language": req.Target,
		}).Error("Batch item failed, returning original text")
		return Result{
			TranslatedText: req.Text,
			Source:         req.Source,
			Target:         req.Target,
			QualityScore:   scoreFailed,
			Method:         MethodError,
			ModelVersion:   "",
		}
	}

	batchItemsTotal.WithLabelValues("ok").Inc()
	return res
}
