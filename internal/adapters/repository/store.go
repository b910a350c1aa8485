// Package repository defines the item pool store interface and errors.
package repository

import (
	"context"

	"github.com/okian/duello/internal/domain/model"
	"github.com/okian/duello/internal/domain/rating"
)

// Entry represents a standings row.
type Entry struct {
	Rank       int
	ItemID     string
	Name       string
	Rating     float64
	Deviation  float64
	MatchCount int
}

// Store provides read/write access to the item pool and the standings
// derived from it. All mutations are serialized inside the store, so
// the rating updates for a judged pair are applied atomically.
type Store interface {
	// Add inserts a new item. Returns ErrDuplicateID when the id is
	// already present.
	Add(ctx context.Context, item model.Item) error

	// Remove deletes an item. Returns ErrNotFound for unknown ids.
	Remove(ctx context.Context, id string) error

	// Get returns a single item by id.
	Get(ctx context.Context, id string) (model.Item, error)

	// List returns a point-in-time copy of the whole pool in
	// unspecified order.
	List(ctx context.Context) []model.Item

	// Replace swaps the entire pool for the given items (import path).
	Replace(ctx context.Context, items []model.Item) error

	// ApplyJudgment folds one comparison outcome into both competitors'
	// rating state and match counts. scoreA is item A's result; B gets
	// the complement.
	ApplyJudgment(ctx context.Context, aID, bID string, scoreA rating.Score) error

	// Standings returns the top-N entries ordered by rating desc.
	Standings(ctx context.Context, n int) ([]Entry, error)

	// RankOf returns the standings entry for one item.
	// Returns ErrNotFound if the item is unknown.
	RankOf(ctx context.Context, id string) (Entry, error)

	// Count returns the number of items tracked in the pool.
	Count(ctx context.Context) int
}
