// Package worker defines worker contracts for asynchronously applying
// judged comparisons to the item pool.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	repository "github.com/okian/duello/internal/adapters/repository"
	"github.com/okian/duello/internal/domain/model"
	"github.com/okian/duello/internal/domain/rating"
	"github.com/okian/duello/pkg/logger"
	"github.com/okian/duello/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Judgment abstracts what workers read off the queue.
type Judgment = model.Judgment

// Applier folds one judged comparison into the pool.
type Applier interface {
	ApplyJudgment(ctx context.Context, aID, bID string, scoreA rating.Score) error
}

// Queue defines how workers receive judgments.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Judgment
}

// Worker processes judgments from the queue until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing judgments.
type InMemoryWorker struct {
	queue   Queue
	applier Applier
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, applier Applier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		applier:  applier,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	judgments := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-judgments:
			if !ok {
				return
			}
			if err := w.processJudgment(ctx, j); err != nil {
				w.logger.Error(ctx, "error processing judgment", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJudgment applies a single judgment to the pool.
func (w *InMemoryWorker) processJudgment(ctx context.Context, j Judgment) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	err := w.applier.ApplyJudgment(ctx, j.ItemA, j.ItemB, j.Score)
	metrics.RecordRatingLatency(float64(time.Since(start).Milliseconds()))
	switch {
	case err == nil:
		metrics.RecordJudgmentProcessed()
		metrics.RecordRatingUpdate()
		return nil
	case errors.Is(err, repository.ErrNotFound):
		// An item deleted while its judgment was in flight is a valid
		// race, not a failure: drop the judgment.
		w.logger.Warn(ctx, "judgment names a missing item; dropping",
			logger.String("judgmentID", j.JudgmentID),
			logger.Error(err),
		)
		metrics.RecordJudgmentDropped()
		return nil
	default:
		metrics.RecordRatingError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "rating_error")
		metrics.RecordErrorByType("rating_error", "high")
		w.logger.Error(ctx, "rating update failed for judgment",
			logger.String("judgmentID", j.JudgmentID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to apply judgment %s: %w", j.JudgmentID, err)
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	applier Applier

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, applier Applier) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		applier:  applier,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			applier,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerActiveCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, worker := range p.workers {
		select {
		case <-worker.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue, then waits for all workers to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
