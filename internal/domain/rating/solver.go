package rating

import (
	"fmt"
	"math"
)

// Solver bounds. The Illinois iteration converges for every valid
// input well inside these caps; hitting one means a precondition was
// violated and must surface as an error, never as a stale value.
const (
	convergenceEpsilon = 1e-6
	maxIterations      = 100
)

// volatilityFn is f(x) from step 5.1 of the Glicko-2 paper. Its root
// is ln(sigma'^2), the log of the squared new volatility. a is
// ln(sigma^2) for the current volatility.
func volatilityFn(x, delta, phi, v, a float64) float64 {
	ex := math.Exp(x)
	num := ex * (delta*delta - phi*phi - v - ex)
	den := 2 * (phi*phi + v + ex) * (phi*phi + v + ex)
	return num/den - (x-a)/(tau*tau)
}

// solveVolatility computes the new volatility sigma' = exp(x/2) where
// x is the root of volatilityFn, using the Illinois variant of the
// bracketed secant method.
//
// The bracket starts at A = ln(sigma^2). The other end is
// ln(delta^2 - phi^2 - v) when that argument is positive; otherwise it
// is found by stepping A down by multiples of tau until f changes
// sign. Whenever a secant step lands on the same side as the retained
// endpoint, that endpoint's function value is halved (the Illinois
// modification), which guarantees convergence.
func solveVolatility(delta, phi, v, sigma float64) (float64, error) {
	a := math.Log(sigma * sigma)
	f := func(x float64) float64 { return volatilityFn(x, delta, phi, v, a) }

	lower := a
	var upper float64
	if delta*delta > phi*phi+v {
		upper = math.Log(delta*delta - phi*phi - v)
	} else {
		k := 1.0
		for f(a-k*tau) < 0 {
			k++
			if k > maxIterations {
				return 0, fmt.Errorf("%w: failed to bracket root", ErrDivergence)
			}
		}
		upper = a - k*tau
	}

	fLower := f(lower)
	fUpper := f(upper)
	for i := 0; math.Abs(upper-lower) > convergenceEpsilon; i++ {
		if i >= maxIterations {
			return 0, fmt.Errorf("%w: iteration cap exceeded", ErrDivergence)
		}
		mid := lower + (lower-upper)*fLower/(fUpper-fLower)
		fMid := f(mid)
		if math.IsNaN(fMid) || math.IsInf(fMid, 0) {
			return 0, fmt.Errorf("%w: non-finite iterate", ErrDivergence)
		}
		if fMid*fUpper <= 0 {
			lower = upper
			fLower = fUpper
		} else {
			fLower /= 2
		}
		upper = mid
		fUpper = fMid
	}
	return math.Exp(lower / 2), nil
}
