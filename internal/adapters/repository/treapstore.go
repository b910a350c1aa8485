// Package repository defines the item pool store interface and errors.
package repository

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/okian/duello/internal/domain/model"
	"github.com/okian/duello/internal/domain/rating"
	"github.com/okian/duello/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: rating DESC, then item id ASC (deterministic). The BST
// comparator treats "less" as "ranks earlier", so an in-order
// traversal produces the standings from best to worst.

// ratingScale controls fixed-point scaling of the float64 rating used
// as the treap key. Six decimal places is far below anything the
// rating engine can distinguish.
const ratingScale = 1_000_000

type ratingFP int64

func toFixedPoint(x float64) ratingFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := x * ratingScale
	if scaled > float64(math.MaxInt64) {
		return ratingFP(math.MaxInt64)
	}
	if scaled < float64(math.MinInt64) {
		return ratingFP(math.MinInt64)
	}
	return ratingFP(math.Round(scaled))
}

// treap node
type node struct {
	id    string
	key   ratingFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aKey, aID) should appear before (bKey, bID)
// in the standings (higher ratings first).
func less(aKey ratingFP, aID string, bKey ratingFP, bID string) bool {
	if aKey != bKey {
		return aKey > bKey // higher rating ranks earlier
	}
	return aID < bID // tie-breaker by id asc
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// keyToPriority keeps higher-rated nodes near the treap root so
// standings queries touch fewer nodes.
func keyToPriority(key ratingFP) uint64 {
	const offset = uint64(1) << 63 // shift signed keys into uint64 range
	return uint64(key) + offset
}

func insert(n *node, id string, key ratingFP) *node {
	if n == nil {
		return &node{id: id, key: key, prio: keyToPriority(key), size: 1}
	}
	if less(key, id, n.key, n.id) {
		n.left = insert(n.left, id, key)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, key)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, key ratingFP) *node {
	if n == nil {
		return nil
	}
	if key == n.key && id == n.id {
		// Merge children by rotating the higher priority up until leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, key)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, key)
		}
	} else if less(key, id, n.key, n.id) {
		n.left = deleteNode(n.left, id, key)
	} else {
		n.right = deleteNode(n.right, id, key)
	}
	fix(n)
	return n
}

// collectTopN appends up to limit ids in rank order (best first).
func collectTopN(n *node, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.id)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// rankOf returns the 1-based in-order position of (key, id), or 0 if absent.
func rankOf(n *node, id string, key ratingFP) int {
	pos := 0
	for n != nil {
		if key == n.key && id == n.id {
			return pos + nsize(n.left) + 1
		}
		if less(key, id, n.key, n.id) {
			n = n.left
		} else {
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// TreapStore is the in-memory pool store backing the service.
type TreapStore struct {
	mu    sync.RWMutex
	root  *node
	items map[string]model.Item

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		metricsUpdateInterval: 5 * time.Second,
		items:                 make(map[string]model.Item),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)

	return s
}

// startMetricsUpdater refreshes repository gauges in the background.
func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateRepositoryItemsTotal(s.Count(ctx))
			}
		}
	}()
}

// Close gracefully shuts down the background metrics goroutine.
func (s *TreapStore) Close() error {
	select {
	case <-s.stopChan:
		// Channel already closed
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// Add implements Store.Add in O(log n) expected time.
func (s *TreapStore) Add(ctx context.Context, item model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; ok {
		metrics.RecordErrorByComponent("repository", "duplicate_id")
		return fmt.Errorf("%w: %s", ErrDuplicateID, item.ID)
	}
	s.items[item.ID] = item
	s.root = insert(s.root, item.ID, toFixedPoint(item.State.Rating))
	metrics.UpdateRepositoryItemsTotal(len(s.items))
	return nil
}

// Remove implements Store.Remove.
func (s *TreapStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.items, id)
	s.root = deleteNode(s.root, id, toFixedPoint(item.State.Rating))
	metrics.UpdateRepositoryItemsTotal(len(s.items))
	return nil
}

// Get implements Store.Get.
func (s *TreapStore) Get(ctx context.Context, id string) (model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return model.Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return item, nil
}

// List implements Store.List. The copy means callers can hold the
// result while the pool keeps changing underneath.
func (s *TreapStore) List(ctx context.Context) []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Item, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	return out
}

// Replace implements Store.Replace.
func (s *TreapStore) Replace(ctx context.Context, items []model.Item) error {
	for _, item := range items {
		if err := item.State.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.root = nil
	s.items = make(map[string]model.Item, len(items))
	for _, item := range items {
		if _, ok := s.items[item.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, item.ID)
		}
		s.items[item.ID] = item
		s.root = insert(s.root, item.ID, toFixedPoint(item.State.Rating))
	}
	metrics.UpdateRepositoryItemsTotal(len(s.items))
	return nil
}

// ApplyJudgment implements Store.ApplyJudgment. Both directions of the
// Glicko-2 update run against the pre-comparison states, and both new
// states land under a single lock acquisition, so no reader ever sees
// a half-applied comparison.
func (s *TreapStore) ApplyJudgment(ctx context.Context, aID, bID string, scoreA rating.Score) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if aID == bID {
		metrics.RecordErrorByComponent("repository", "self_pair")
		return fmt.Errorf("%w: %s", ErrSelfPair, aID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.items[aID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return fmt.Errorf("%w: %s", ErrNotFound, aID)
	}
	b, ok := s.items[bID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return fmt.Errorf("%w: %s", ErrNotFound, bID)
	}

	newA, err := rating.Update(a.State, b.State, scoreA)
	if err != nil {
		return fmt.Errorf("update item %s: %w", aID, err)
	}
	newB, err := rating.Update(b.State, a.State, scoreA.Opposite())
	if err != nil {
		return fmt.Errorf("update item %s: %w", bID, err)
	}

	s.root = deleteNode(s.root, aID, toFixedPoint(a.State.Rating))
	s.root = deleteNode(s.root, bID, toFixedPoint(b.State.Rating))

	a.State = newA
	a.MatchCount++
	b.State = newB
	b.MatchCount++
	s.items[aID] = a
	s.items[bID] = b

	s.root = insert(s.root, aID, toFixedPoint(newA.Rating))
	s.root = insert(s.root, bID, toFixedPoint(newB.Rating))

	return nil
}

// Standings implements Store.Standings in O(n log n) worst case but
// O(limit + log n) for the common small limits.
func (s *TreapStore) Standings(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, n)
	collectTopN(s.root, n, &ids)

	out := make([]Entry, 0, len(ids))
	for i, id := range ids {
		out = append(out, s.entryLocked(id, i+1))
	}
	return out, nil
}

// RankOf implements Store.RankOf in O(log n).
func (s *TreapStore) RankOf(ctx context.Context, id string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	rank := rankOf(s.root, id, toFixedPoint(item.State.Rating))
	if rank == 0 {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.entryLocked(id, rank), nil
}

// Count returns the total number of items.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// entryLocked builds a standings row; the caller holds at least the
// read lock.
func (s *TreapStore) entryLocked(id string, rank int) Entry {
	item := s.items[id]
	return Entry{
		Rank:       rank,
		ItemID:     item.ID,
		Name:       item.Name,
		Rating:     item.State.Rating,
		Deviation:  item.State.Deviation,
		MatchCount: item.MatchCount,
	}
}
