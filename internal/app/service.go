// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	judgmentqueue "github.com/okian/duello/internal/adapters/mq/queue"
	workerpool "github.com/okian/duello/internal/adapters/mq/worker"
	repository "github.com/okian/duello/internal/adapters/repository"
	"github.com/okian/duello/internal/domain/dedupe"
	"github.com/okian/duello/internal/domain/matchmaker"
	"github.com/okian/duello/internal/domain/model"
	"github.com/okian/duello/internal/domain/rating"
	"github.com/okian/duello/internal/domain/types"
	"github.com/okian/duello/pkg/logger"
	"github.com/okian/duello/pkg/metrics"
)

// Service wires the item pool, judgment pipeline, and pair selection
// behind the operations the API exposes.
type Service struct {
	mu sync.RWMutex

	// Core components
	pool          repository.Store
	deduper       dedupe.Deduper
	judgmentQueue judgmentqueue.Queue
	matcher       *matchmaker.Matchmaker
	workerPool    *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	matchSeed   int64

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the judgment queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMatchSeed fixes the pair selection seed for reproducible runs.
func WithMatchSeed(seed int64) Option {
	return func(s *Service) {
		s.matchSeed = seed
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   100000,
		dedupeSize:  50000,
		stopCh:      make(chan struct{}),
		logger:      nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting rating service...")

	// Initialize components
	s.pool = repository.NewTreapStore(ctx)
	s.logger.Info(ctx, "using treap store")
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.judgmentQueue = judgmentqueue.NewInMemoryQueue(
		judgmentqueue.WithCapacity(s.queueSize),
		judgmentqueue.WithBufferSize(s.queueSize),
	)

	var matchOpts []matchmaker.Option
	if s.matchSeed != 0 {
		matchOpts = append(matchOpts, matchmaker.WithSeed(s.matchSeed))
	}
	s.matcher = matchmaker.New(matchOpts...)

	// Create and start the worker pool against the pool store
	s.workerPool = workerpool.NewPool(s.workerCount, s.judgmentQueue, s.pool)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service. The queue is closed first so
// in-flight judgments drain before the store goes away.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping rating service...")

	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
	}

	if s.pool != nil {
		if closer, ok := s.pool.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}

	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(ctx, "rating service stopped")
}

// AddItem creates a new pool member with a fresh rating state and a
// generated id, and returns the stored item.
func (s *Service) AddItem(ctx context.Context, name string) (model.Item, error) {
	if name == "" {
		return model.Item{}, ErrEmptyName
	}

	item := model.Item{
		ID:        uuid.NewString(),
		Name:      name,
		State:     rating.New(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.pool.Add(ctx, item); err != nil {
		return model.Item{}, fmt.Errorf("add item: %w", err)
	}

	metrics.UpdateTotalItems(s.pool.Count(ctx))
	s.logger.Debug(ctx, "item added",
		logger.String("itemID", item.ID),
		logger.String("name", item.Name),
	)
	return item, nil
}

// RemoveItem deletes an item from the pool. Judgments still in flight
// for the removed item are dropped by the workers.
func (s *Service) RemoveItem(ctx context.Context, id string) error {
	if err := s.pool.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove item: %w", err)
	}

	metrics.UpdateTotalItems(s.pool.Count(ctx))
	s.logger.Debug(ctx, "item removed", logger.String("itemID", id))
	return nil
}

// GetItem returns a single item by id.
func (s *Service) GetItem(ctx context.Context, id string) (model.Item, error) {
	return s.pool.Get(ctx, id)
}

// NextMatch selects the next pair to present to a judge.
func (s *Service) NextMatch(ctx context.Context) (types.Match, error) {
	metrics.RecordMatchRequest()

	items := s.pool.List(ctx)
	candidates := make([]matchmaker.Candidate, len(items))
	for i, item := range items {
		candidates[i] = matchmaker.Candidate{
			ID:         item.ID,
			State:      item.State,
			MatchCount: item.MatchCount,
		}
	}

	pair, ok := s.matcher.Next(candidates)
	if !ok {
		metrics.RecordMatchUnavailable()
		return types.Match{}, ErrNotEnoughItems
	}
	return types.Match{ItemA: pair.A, ItemB: pair.B}, nil
}

// SubmitJudgment validates and enqueues one judged comparison for
// asynchronous rating updates. A judgment id seen before is absorbed
// without re-enqueueing; resubmission reports duplicate=true, not an
// error.
func (s *Service) SubmitJudgment(ctx context.Context, j model.Judgment) (duplicate bool, err error) {
	if j.JudgmentID == "" || j.ItemA == "" || j.ItemB == "" {
		return false, ErrInvalidJudgment
	}
	if j.ItemA == j.ItemB {
		return false, fmt.Errorf("%w: item judged against itself", ErrInvalidJudgment)
	}
	if !j.Score.Valid() {
		return false, fmt.Errorf("%w: score must be 0, 0.5, or 1", ErrInvalidJudgment)
	}
	if j.TS.IsZero() {
		j.TS = time.Now().UTC()
	}

	if s.deduper.SeenAndRecord(ctx, j.JudgmentID) {
		metrics.RecordJudgmentDuplicate()
		s.logger.Debug(ctx, "duplicate judgment absorbed",
			logger.String("judgmentID", j.JudgmentID),
		)
		return true, nil
	}

	if !s.judgmentQueue.Enqueue(ctx, j) {
		// Forget the id so the judge can resubmit once there is room.
		s.deduper.Unrecord(ctx, j.JudgmentID)
		return false, ErrQueueFull
	}

	metrics.UpdateQueueSize(s.judgmentQueue.Len(ctx))
	return false, nil
}

// Standings returns the top N standings entries.
func (s *Service) Standings(ctx context.Context, n int) ([]types.Entry, error) {
	entries, err := s.pool.Standings(ctx, n)
	if err != nil {
		return nil, err
	}

	// Convert to API format
	apiEntries := make([]types.Entry, len(entries))
	for i, entry := range entries {
		apiEntries[i] = types.Entry{
			Rank:       entry.Rank,
			ItemID:     entry.ItemID,
			Name:       entry.Name,
			Rating:     entry.Rating,
			Deviation:  entry.Deviation,
			MatchCount: entry.MatchCount,
		}
	}

	return apiEntries, nil
}

// Rank returns the standings entry for a given item id.
func (s *Service) Rank(ctx context.Context, itemID string) (types.Entry, error) {
	entry, err := s.pool.RankOf(ctx, itemID)
	if err != nil {
		return types.Entry{}, err
	}

	return types.Entry{
		Rank:       entry.Rank,
		ItemID:     entry.ItemID,
		Name:       entry.Name,
		Rating:     entry.Rating,
		Deviation:  entry.Deviation,
		MatchCount: entry.MatchCount,
	}, nil
}

// Export returns a point-in-time snapshot of the whole pool.
func (s *Service) Export(ctx context.Context) []model.Item {
	return s.pool.List(ctx)
}

// Import replaces the whole pool with the given snapshot. Invalid
// rating states reject the entire import.
func (s *Service) Import(ctx context.Context, items []model.Item) error {
	if err := s.pool.Replace(ctx, items); err != nil {
		return fmt.Errorf("import pool: %w", err)
	}

	metrics.UpdateTotalItems(s.pool.Count(ctx))
	s.logger.Info(ctx, "pool imported", logger.Int("items", len(items)))
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.judgmentQueue.Len(ctx)
		totalItems := s.pool.Count(ctx)

		stats["queueLength"] = queueLen
		stats["totalItems"] = totalItems

		// Update metrics
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalItems(totalItems)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
