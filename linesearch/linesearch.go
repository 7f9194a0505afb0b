// Package linesearch provides step-size controllers for the IEKF's
// Gauss-Newton iterations: Identity (always take the full step) and
// Backtracking (shrink the step until it satisfies an Armijo-style
// sufficient-decrease condition).
package linesearch

import "fmt"

// Controller picks a step size alpha in [0, 1] for a Gauss-Newton
// iteration, given the objective evaluated along the step direction,
// the objective value at the current iterate (f0), and a measure of the
// direction's steepness (slope, negative for a descent direction).
type Controller interface {
	Search(objective func(alpha float64) float64, f0, slope float64) (float64, error)
}

// Identity always takes the full Gauss-Newton step. It is the right
// choice when the measurement equation is mild enough that the
// unmodified step already converges (linear and mildly nonlinear
// models).
type Identity struct{}

// Search implements Controller.
func (Identity) Search(objective func(alpha float64) float64, f0, slope float64) (float64, error) {
	return 1, nil
}

// Backtracking implements Armijo backtracking line search: starting from
// alpha=1, it shrinks alpha by Rho until
//
//	objective(alpha) <= f0 + C1*alpha*slope
//
// or gives up after MaxIter reductions by Rho.
type Backtracking struct {
	C1      float64
	Rho     float64
	MaxIter int
}

// NewBacktracking creates a Backtracking controller. It returns an error
// if c1 or rho are not in (0, 1), or maxIter < 1.
func NewBacktracking(c1, rho float64, maxIter int) (*Backtracking, error) {
	if c1 <= 0 || c1 >= 1 {
		return nil, fmt.Errorf("linesearch: c1 must be in (0, 1), got %v", c1)
	}
	if rho <= 0 || rho >= 1 {
		return nil, fmt.Errorf("linesearch: rho must be in (0, 1), got %v", rho)
	}
	if maxIter < 1 {
		return nil, fmt.Errorf("linesearch: maxIter must be >= 1, got %d", maxIter)
	}
	return &Backtracking{C1: c1, Rho: rho, MaxIter: maxIter}, nil
}

// Search implements Controller. Termination (MaxIter reached without
// satisfying the sufficient-decrease condition) is not reported as an
// error: Search instead falls back to the last trial alpha if it still
// improved on f0, or to alpha=0 ("do not move") otherwise. Callers can
// detect non-convergence by checking whether the returned alpha is 0.
func (b *Backtracking) Search(objective func(alpha float64) float64, f0, slope float64) (float64, error) {
	alpha := 1.0
	for i := 0; i < b.MaxIter; i++ {
		if objective(alpha) <= f0+b.C1*alpha*slope {
			return alpha, nil
		}
		alpha *= b.Rho
	}
	if objective(alpha) < f0 {
		return alpha, nil
	}
	return 0, nil
}
