// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/duello/internal/domain/rating"
)

// Item is one member of the comparison pool. The rating engine only
// ever sees the State field; identity and presentation fields stay in
// the host layers.
type Item struct {
	ID         string       // stable unique identifier, assigned on add
	Name       string       // display name, opaque to the core
	State      rating.State // current skill estimate
	MatchCount int          // comparisons this item has participated in
	CreatedAt  time.Time
}

// Judgment is one judged comparison flowing through the queue.
// Score is competitor A's result; B's is its complement.
type Judgment struct {
	JudgmentID string       // unique id for idempotency
	ItemA      string       // first competitor
	ItemB      string       // second competitor
	Score      rating.Score // A's outcome: 1 win, 0.5 draw, 0 loss
	TS         time.Time    // judgment timestamp
}
