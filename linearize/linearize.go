// Package linearize builds LTI surrogates of nonlinear state and
// measurement equations around an operating point, by evaluating their
// Jacobians with a central finite-difference scheme. The EKF and IEKF use
// this to reduce a nonlinear step to the LTI propagation/observation
// algebra already implemented for the linear Kalman filter.
package linearize

import (
	"fmt"

	"github.com/tramsim/tramkf/model"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// settings is shared by every Jacobian call in this package: a central
// difference formula evaluated concurrently across columns.
var settings = &fd.JacobianSettings{
	Formula:    fd.Central,
	Concurrent: true,
}

// ContinuousJacobians linearizes a continuous-time state equation around
// (x, u), returning A = df/dx and B = df/du.
func ContinuousJacobians(f model.ContinuousStateEquation, x, u mat.Vector) (A, B *mat.Dense, err error) {
	return StateJacobians(f.Derivative, x, u, f.NStates(), f.NInputs())
}

// DiscreteJacobians linearizes a discrete-time state equation around
// (x, u), returning A = df/dx and B = df/du.
func DiscreteJacobians(f model.DiscreteStateEquation, x, u mat.Vector) (A, B *mat.Dense, err error) {
	return StateJacobians(f.Next, x, u, f.NStates(), f.NInputs())
}

// StateJacobians linearizes fn around (x, u), returning the state Jacobian
// A = df/dx and input Jacobian B = df/du evaluated at that point. fn is the
// Derivative method of a ContinuousStateEquation or the Next method of a
// DiscreteStateEquation; this package does not need to distinguish the two
// at the type level.
func StateJacobians(fn func(x, u mat.Vector) (mat.Vector, error), x, u mat.Vector, nx, nu int) (A, B *mat.Dense, err error) {
	xFlat := mat.Col(nil, 0, x)

	A = mat.NewDense(nx, nx, nil)
	jacX := func(out, xIn []float64) {
		xv := mat.NewVecDense(len(xIn), xIn)
		dx, ferr := fn(xv, u)
		if ferr != nil {
			panic(ferr)
		}
		for i := 0; i < len(out); i++ {
			out[i] = dx.AtVec(i)
		}
	}
	if perr := jacobian(A, jacX, xFlat); perr != nil {
		return nil, nil, fmt.Errorf("linearize: state jacobian: %w", perr)
	}

	if nu == 0 {
		return A, &mat.Dense{}, nil
	}
	B = mat.NewDense(nx, nu, nil)

	uFlat := mat.Col(nil, 0, u)
	jacU := func(out, uIn []float64) {
		uv := mat.NewVecDense(len(uIn), uIn)
		dx, ferr := fn(x, uv)
		if ferr != nil {
			panic(ferr)
		}
		for i := 0; i < len(out); i++ {
			out[i] = dx.AtVec(i)
		}
	}
	if perr := jacobian(B, jacU, uFlat); perr != nil {
		return nil, nil, fmt.Errorf("linearize: input jacobian: %w", perr)
	}

	return A, B, nil
}

// MeasurementJacobians linearizes g around (x, u), returning the state
// Jacobian C = dg/dx and input Jacobian D = dg/du.
func MeasurementJacobians(g model.MeasurementEquation, x, u mat.Vector) (C, D *mat.Dense, err error) {
	nx, nu, ny := g.NStates(), g.NInputs(), g.NOutputs()

	xFlat := mat.Col(nil, 0, x)
	C = mat.NewDense(ny, nx, nil)
	jacX := func(out, xIn []float64) {
		xv := mat.NewVecDense(len(xIn), xIn)
		y, ferr := g.Observe(xv, u)
		if ferr != nil {
			panic(ferr)
		}
		for i := 0; i < len(out); i++ {
			out[i] = y.AtVec(i)
		}
	}
	if perr := jacobian(C, jacX, xFlat); perr != nil {
		return nil, nil, fmt.Errorf("linearize: measurement state jacobian: %w", perr)
	}

	if nu == 0 {
		return C, &mat.Dense{}, nil
	}
	D = mat.NewDense(ny, nu, nil)

	uFlat := mat.Col(nil, 0, u)
	jacU := func(out, uIn []float64) {
		uv := mat.NewVecDense(len(uIn), uIn)
		y, ferr := g.Observe(x, uv)
		if ferr != nil {
			panic(ferr)
		}
		for i := 0; i < len(out); i++ {
			out[i] = y.AtVec(i)
		}
	}
	if perr := jacobian(D, jacU, uFlat); perr != nil {
		return nil, nil, fmt.Errorf("linearize: measurement input jacobian: %w", perr)
	}

	return C, D, nil
}

// jacobian recovers panics raised by the wrapped equation (fd.Jacobian has
// no error return of its own) and turns them back into an error.
func jacobian(dst *mat.Dense, f func(out, x []float64), at []float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	fd.Jacobian(dst, f, at, settings)
	return nil
}
