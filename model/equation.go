// Package model implements the state-space model algebra: state and
// measurement equations (continuous and discrete, linear and nonlinear),
// their LTI specializations, and composite measurements. It is the shared
// vocabulary consumed by discretize, linearize and every filter package.
package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ContinuousStateEquation is a callable f(x, u) -> dx/dt.
type ContinuousStateEquation interface {
	// Derivative returns the state derivative at (x, u).
	Derivative(x, u mat.Vector) (mat.Vector, error)
	// NStates returns the length of the state vector.
	NStates() int
	// NInputs returns the length of the input vector (0 if none).
	NInputs() int
}

// DiscreteStateEquation is a callable f(x, u) -> x_{k+1}.
type DiscreteStateEquation interface {
	// Next returns the next state given (x, u).
	Next(x, u mat.Vector) (mat.Vector, error)
	// NStates returns the length of the state vector.
	NStates() int
	// NInputs returns the length of the input vector (0 if none).
	NInputs() int
}

// MeasurementEquation is a callable g(x, u) -> y.
type MeasurementEquation interface {
	// Observe returns the measurement at (x, u).
	Observe(x, u mat.Vector) (mat.Vector, error)
	// NStates returns the length of the state vector.
	NStates() int
	// NInputs returns the length of the input vector (0 if none).
	NInputs() int
	// NOutputs returns the length of the measurement vector.
	NOutputs() int
}

// checkDims validates that x and u have the lengths a state/measurement
// equation expects, substituting an empty vector for a nil u when nu==0.
func checkDims(x, u mat.Vector, nx, nu int) (mat.Vector, error) {
	if x == nil || x.Len() != nx {
		return nil, fmt.Errorf("model: invalid state vector: want length %d", nx)
	}
	if u == nil {
		u = &mat.VecDense{}
	}
	if u.Len() != nu {
		return nil, fmt.Errorf("model: invalid input vector: want length %d, got %d", nu, u.Len())
	}
	return u, nil
}

// ContinuousFunc wraps an arbitrary (possibly nonlinear) continuous-time
// state function as a ContinuousStateEquation.
type ContinuousFunc struct {
	F  func(x, u mat.Vector) (mat.Vector, error)
	Nx int
	Nu int
}

// NewContinuousFunc creates a ContinuousStateEquation from a raw function.
func NewContinuousFunc(f func(x, u mat.Vector) (mat.Vector, error), nx, nu int) *ContinuousFunc {
	return &ContinuousFunc{F: f, Nx: nx, Nu: nu}
}

// Derivative implements ContinuousStateEquation.
func (c *ContinuousFunc) Derivative(x, u mat.Vector) (mat.Vector, error) {
	u, err := checkDims(x, u, c.Nx, c.Nu)
	if err != nil {
		return nil, err
	}
	out, err := c.F(x, u)
	if err != nil {
		return nil, err
	}
	if out.Len() != c.Nx {
		return nil, fmt.Errorf("model: state equation returned length %d, want %d", out.Len(), c.Nx)
	}
	return out, nil
}

// NStates implements ContinuousStateEquation.
func (c *ContinuousFunc) NStates() int { return c.Nx }

// NInputs implements ContinuousStateEquation.
func (c *ContinuousFunc) NInputs() int { return c.Nu }

// DiscreteFunc wraps an arbitrary (possibly nonlinear) discrete-time state
// function as a DiscreteStateEquation.
type DiscreteFunc struct {
	F  func(x, u mat.Vector) (mat.Vector, error)
	Nx int
	Nu int
}

// NewDiscreteFunc creates a DiscreteStateEquation from a raw function.
func NewDiscreteFunc(f func(x, u mat.Vector) (mat.Vector, error), nx, nu int) *DiscreteFunc {
	return &DiscreteFunc{F: f, Nx: nx, Nu: nu}
}

// Next implements DiscreteStateEquation.
func (d *DiscreteFunc) Next(x, u mat.Vector) (mat.Vector, error) {
	u, err := checkDims(x, u, d.Nx, d.Nu)
	if err != nil {
		return nil, err
	}
	out, err := d.F(x, u)
	if err != nil {
		return nil, err
	}
	if out.Len() != d.Nx {
		return nil, fmt.Errorf("model: state equation returned length %d, want %d", out.Len(), d.Nx)
	}
	return out, nil
}

// NStates implements DiscreteStateEquation.
func (d *DiscreteFunc) NStates() int { return d.Nx }

// NInputs implements DiscreteStateEquation.
func (d *DiscreteFunc) NInputs() int { return d.Nu }

// MeasurementFunc wraps an arbitrary (possibly nonlinear) measurement
// function as a MeasurementEquation.
type MeasurementFunc struct {
	G  func(x, u mat.Vector) (mat.Vector, error)
	Nx int
	Nu int
	Ny int
}

// NewMeasurementFunc creates a MeasurementEquation from a raw function.
func NewMeasurementFunc(g func(x, u mat.Vector) (mat.Vector, error), nx, nu, ny int) *MeasurementFunc {
	return &MeasurementFunc{G: g, Nx: nx, Nu: nu, Ny: ny}
}

// Observe implements MeasurementEquation.
func (m *MeasurementFunc) Observe(x, u mat.Vector) (mat.Vector, error) {
	u, err := checkDims(x, u, m.Nx, m.Nu)
	if err != nil {
		return nil, err
	}
	out, err := m.G(x, u)
	if err != nil {
		return nil, err
	}
	if out.Len() != m.Ny {
		return nil, fmt.Errorf("model: measurement equation returned length %d, want %d", out.Len(), m.Ny)
	}
	return out, nil
}

// NStates implements MeasurementEquation.
func (m *MeasurementFunc) NStates() int { return m.Nx }

// NInputs implements MeasurementEquation.
func (m *MeasurementFunc) NInputs() int { return m.Nu }

// NOutputs implements MeasurementEquation.
func (m *MeasurementFunc) NOutputs() int { return m.Ny }
