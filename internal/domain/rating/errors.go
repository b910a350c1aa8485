package rating

import "errors"

// Sentinel kinds for rating errors. These allow errors.Is from callers.
var (
	ErrInvalidScore = errors.New("score must be 0, 0.5, or 1")
	ErrInvalidState = errors.New("invalid rating state")
	ErrDivergence   = errors.New("volatility solver diverged")
)
