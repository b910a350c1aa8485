// Package matchmaker selects the next pair of items to present for a
// pairwise comparison.
//
// Selection balances exploration against informativeness: one side is
// drawn from the least-observed items, the other from opponents whose
// rating is close enough that the outcome is genuinely uncertain.
package matchmaker

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/okian/duello/internal/domain/rating"
)

// Selection tuning constants.
const (
	needPoolSize       = 3     // competitor A comes from the top of the need ranking
	closenessThreshold = 100.0 // rating window for informative opponents
	fallbackPoolSize   = 3     // closest-rated opponents when the window is empty
)

// Candidate is the slice of item state the matchmaker reads. It never
// sees names or other presentation fields.
type Candidate struct {
	ID         string
	State      rating.State
	MatchCount int
}

// Pair holds two distinct item IDs selected for the next comparison.
type Pair struct {
	A string
	B string
}

// Matchmaker picks pairs from an item pool. The zero value is not
// usable; construct with New.
type Matchmaker struct {
	rng *rand.Rand
}

// New creates a Matchmaker. By default selection is seeded from the
// clock; tests inject a fixed source via WithRand.
func New(opts ...Option) *Matchmaker {
	m := &Matchmaker{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // selection jitter, not security
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Next returns the next pair to compare. ok is false when the pool has
// fewer than two items; that is an expected state, not an error. The
// returned IDs always differ.
//
// Next reads only the pool passed in, so it tolerates items appearing
// or disappearing between calls.
func (m *Matchmaker) Next(pool []Candidate) (Pair, bool) {
	if len(pool) < 2 {
		return Pair{}, false
	}

	a := m.pickNeediest(pool)
	b := m.pickOpponent(pool, a)
	return Pair{A: a.ID, B: b.ID}, true
}

// pickNeediest ranks the pool by how much a new observation would
// teach us (fewest comparisons first, widest deviation as tie-break)
// and draws uniformly from the top few. The bounded randomness avoids
// a fully deterministic presentation order.
func (m *Matchmaker) pickNeediest(pool []Candidate) Candidate {
	ranked := make([]Candidate, len(pool))
	copy(ranked, pool)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].MatchCount != ranked[j].MatchCount {
			return ranked[i].MatchCount < ranked[j].MatchCount
		}
		return ranked[i].State.Deviation > ranked[j].State.Deviation
	})

	top := needPoolSize
	if len(ranked) < top {
		top = len(ranked)
	}
	return ranked[m.rng.Intn(top)]
}

// pickOpponent draws uniformly from the items within the closeness
// window around a's rating. When a is a ratings outlier and the window
// is empty, it falls back to the few closest-rated items so behavior
// stays defined for any pool.
func (m *Matchmaker) pickOpponent(pool []Candidate, a Candidate) Candidate {
	window := make([]Candidate, 0, len(pool)-1)
	others := make([]Candidate, 0, len(pool)-1)
	for _, c := range pool {
		if c.ID == a.ID {
			continue
		}
		others = append(others, c)
		if math.Abs(c.State.Rating-a.State.Rating) <= closenessThreshold {
			window = append(window, c)
		}
	}

	if len(window) == 0 {
		sort.SliceStable(others, func(i, j int) bool {
			di := math.Abs(others[i].State.Rating - a.State.Rating)
			dj := math.Abs(others[j].State.Rating - a.State.Rating)
			return di < dj
		})
		n := fallbackPoolSize
		if len(others) < n {
			n = len(others)
		}
		window = others[:n]
	}

	return window[m.rng.Intn(len(window))]
}
