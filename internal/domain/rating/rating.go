// Package rating implements the Glicko-2 update for one pairwise
// comparison.
//
// Naming follows Professor Mark E. Glickman's paper:
//   - mu: the rating converted to the internal Glicko-2 scale.
//   - phi: the rating deviation converted to the internal scale.
//   - sigma: the rating volatility.
//   - g: a weighting that discounts opponents with high deviation.
//   - E: the expected score against a given opponent.
//   - v: the estimated variance of performance.
//   - delta: the estimated rating improvement.
//
// See https://www.glicko.net/glicko/glicko2.pdf for details.
package rating

import (
	"fmt"
	"math"
)

// Defaults for an item that has never been compared.
const (
	DefaultRating     = 1500.0
	DefaultDeviation  = 350.0
	DefaultVolatility = 0.06
)

// System constants.
const (
	scale = 173.7178 // standard <-> internal scale conversion
	tau   = 0.5      // constrains how much volatility moves per comparison
)

// Score is the outcome of a comparison from one competitor's
// perspective.
type Score float64

// The only valid scores.
const (
	Loss Score = 0
	Draw Score = 0.5
	Win  Score = 1
)

// Valid reports whether s is one of Loss, Draw, or Win.
func (s Score) Valid() bool {
	return s == Loss || s == Draw || s == Win
}

// Opposite returns the same outcome seen from the other competitor.
func (s Score) Opposite() Score {
	return 1 - s
}

// State is an item's skill estimate on the public (1500-centered)
// scale. States are values: Update never mutates its inputs.
type State struct {
	Rating     float64 `json:"rating"`
	Deviation  float64 `json:"deviation"`
	Volatility float64 `json:"volatility"`
}

// New returns the state assigned to a brand-new item.
func New() State {
	return State{
		Rating:     DefaultRating,
		Deviation:  DefaultDeviation,
		Volatility: DefaultVolatility,
	}
}

// Validate rejects states that violate the engine's preconditions:
// a finite rating and strictly positive deviation and volatility.
func (s State) Validate() error {
	switch {
	case math.IsNaN(s.Rating) || math.IsInf(s.Rating, 0):
		return fmt.Errorf("%w: rating must be finite", ErrInvalidState)
	case !(s.Deviation > 0) || math.IsInf(s.Deviation, 0):
		return fmt.Errorf("%w: deviation must be positive", ErrInvalidState)
	case !(s.Volatility > 0) || math.IsInf(s.Volatility, 0):
		return fmt.Errorf("%w: volatility must be positive", ErrInvalidState)
	}
	return nil
}

// finite reports whether every field survived the update as a real
// number.
func (s State) finite() bool {
	for _, x := range []float64{s.Rating, s.Deviation, s.Volatility} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Update returns self's new state after a comparison against opponent
// with the given score. Callers invoke it once per direction, passing
// the opponent's pre-comparison state both times; match counting is the
// caller's concern.
//
// Update is pure: it reads nothing but its arguments and is safe to
// call concurrently for disjoint items.
func Update(self, opponent State, score Score) (State, error) {
	if !score.Valid() {
		return State{}, fmt.Errorf("%w: got %v", ErrInvalidScore, float64(score))
	}
	if err := self.Validate(); err != nil {
		return State{}, err
	}
	if err := opponent.Validate(); err != nil {
		return State{}, err
	}

	// Step 1: convert both states to the internal scale.
	mu := toMu(self.Rating)
	phi := toPhi(self.Deviation)
	oppMu := toMu(opponent.Rating)
	oppPhi := toPhi(opponent.Deviation)

	// Steps 2-3: opponent impact and expected score.
	g := impact(oppPhi)
	e := expected(mu, oppMu, g)

	// Steps 4-5: performance variance and estimated improvement.
	v := 1 / (g * g * e * (1 - e))
	delta := v * g * (float64(score) - e)

	// Step 6: re-estimate volatility.
	sigmaPrime, err := solveVolatility(delta, phi, v, self.Volatility)
	if err != nil {
		return State{}, err
	}

	// Steps 7-9: inflate uncertainty by the new volatility, then shrink
	// it by the evidence, then move the mean.
	phiStar := math.Sqrt(phi*phi + sigmaPrime*sigmaPrime)
	phiPrime := 1 / math.Sqrt(1/(phiStar*phiStar)+1/v)
	muPrime := mu + phiPrime*phiPrime*g*(float64(score)-e)

	// Step 10: convert back to the standard scale.
	next := State{
		Rating:     muPrime*scale + DefaultRating,
		Deviation:  phiPrime * scale,
		Volatility: sigmaPrime,
	}
	if !next.finite() {
		// A non-finite result means a precondition was broken upstream;
		// never pass it through silently.
		return State{}, fmt.Errorf("%w: non-finite result state", ErrDivergence)
	}
	return next, nil
}

func toMu(rating float64) float64 { return (rating - DefaultRating) / scale }

func toPhi(deviation float64) float64 { return deviation / scale }

// impact is g(phi): the weight discount applied to an opponent whose
// own rating is uncertain.
func impact(phi float64) float64 {
	return 1 / math.Sqrt(1+3*phi*phi/(math.Pi*math.Pi))
}

// expected is E: the predicted probability of beating an opponent at
// oppMu given impact g.
func expected(mu, oppMu, g float64) float64 {
	return 1 / (1 + math.Exp(-g*(mu-oppMu)))
}
