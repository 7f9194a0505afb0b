package discretize

import (
	"fmt"
	"math"

	"github.com/tramsim/tramkf/model"
	"gonum.org/v1/gonum/mat"
)

// Method is an integration method used by a DiscretizedStateEquation.
type Method int

const (
	// MethodEuler advances each subsample by Euler.
	MethodEuler Method = iota
	// MethodRK4 advances each subsample by classic RK4.
	MethodRK4
)

func (m Method) step(f model.ContinuousStateEquation, x, u mat.Vector, dt float64) (mat.Vector, error) {
	switch m {
	case MethodEuler:
		return Euler(f, x, u, dt)
	case MethodRK4:
		return RK4(f, x, u, dt)
	default:
		return nil, fmt.Errorf("discretize: unknown integration method %d", m)
	}
}

// DiscretizedStateEquation wraps a continuous-time state equation as a
// discrete-time one by applying Method Subsamples times over Ts/Subsamples.
type DiscretizedStateEquation struct {
	f          model.ContinuousStateEquation
	method     Method
	ts         float64
	subsamples int
}

// Discretize wraps f as a discrete-time state equation with sampling
// period Ts, applying method Subsamples times per step. It returns a
// domain error if Ts is non-positive or non-finite, or if subsamples < 1.
func Discretize(f model.ContinuousStateEquation, method Method, Ts float64, subsamples int) (*DiscretizedStateEquation, error) {
	if Ts <= 0 || math.IsNaN(Ts) || math.IsInf(Ts, 0) {
		return nil, fmt.Errorf("discretize: Ts must be positive and finite, got %v", Ts)
	}
	if subsamples < 1 {
		return nil, fmt.Errorf("discretize: subsamples must be >= 1, got %d", subsamples)
	}

	return &DiscretizedStateEquation{
		f:          f,
		method:     method,
		ts:         Ts,
		subsamples: subsamples,
	}, nil
}

// Next implements model.DiscreteStateEquation, applying Method Subsamples
// times over Ts/Subsamples.
func (d *DiscretizedStateEquation) Next(x, u mat.Vector) (mat.Vector, error) {
	dt := d.ts / float64(d.subsamples)

	cur := x
	for i := 0; i < d.subsamples; i++ {
		next, err := d.method.step(d.f, cur, u, dt)
		if err != nil {
			return nil, fmt.Errorf("discretize: subsample %d failed: %w", i, err)
		}
		cur = next
	}
	return cur, nil
}

// NStates implements model.DiscreteStateEquation.
func (d *DiscretizedStateEquation) NStates() int { return d.f.NStates() }

// NInputs implements model.DiscreteStateEquation.
func (d *DiscretizedStateEquation) NInputs() int { return d.f.NInputs() }

// Ts returns the sampling period.
func (d *DiscretizedStateEquation) Ts() float64 { return d.ts }

// Subsamples returns the number of integration subsamples per step.
func (d *DiscretizedStateEquation) Subsamples() int { return d.subsamples }
