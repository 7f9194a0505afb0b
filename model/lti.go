package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ltiState holds the propagation matrices shared by the continuous and
// discrete LTI state equations: x' = A*x (+ B*u).
type ltiState struct {
	A *mat.Dense
	B *mat.Dense
}

func newLTIState(A, B *mat.Dense) (*ltiState, error) {
	if A == nil {
		return nil, fmt.Errorf("model: A matrix must not be nil")
	}
	r, c := A.Dims()
	if r == 0 || r != c {
		return nil, fmt.Errorf("model: A must be a nonempty square matrix, got %dx%d", r, c)
	}
	if B != nil {
		br, _ := B.Dims()
		if br != r {
			return nil, fmt.Errorf("model: B must have %d rows, got %d", r, br)
		}
	}
	return &ltiState{A: A, B: B}, nil
}

func (l *ltiState) nx() int { n, _ := l.A.Dims(); return n }

func (l *ltiState) nu() int {
	if l.B == nil {
		return 0
	}
	_, c := l.B.Dims()
	return c
}

func (l *ltiState) eval(x, u mat.Vector) (mat.Vector, error) {
	u, err := checkDims(x, u, l.nx(), l.nu())
	if err != nil {
		return nil, err
	}

	out := new(mat.Dense)
	out.Mul(l.A, x)

	if l.B != nil && l.nu() > 0 {
		bu := new(mat.Dense)
		bu.Mul(l.B, u)
		out.Add(out, bu)
	}

	return out.ColView(0), nil
}

// LTIContinuousStateEquation implements dx/dt = A*x (+ B*u).
type LTIContinuousStateEquation struct {
	*ltiState
}

// NewLTIContinuousStateEquation creates a continuous-time LTI state
// equation. B may be nil, meaning n_inputs == 0.
func NewLTIContinuousStateEquation(A, B *mat.Dense) (*LTIContinuousStateEquation, error) {
	l, err := newLTIState(A, B)
	if err != nil {
		return nil, err
	}
	return &LTIContinuousStateEquation{ltiState: l}, nil
}

// Derivative implements ContinuousStateEquation.
func (l *LTIContinuousStateEquation) Derivative(x, u mat.Vector) (mat.Vector, error) {
	return l.eval(x, u)
}

// NStates implements ContinuousStateEquation.
func (l *LTIContinuousStateEquation) NStates() int { return l.nx() }

// NInputs implements ContinuousStateEquation.
func (l *LTIContinuousStateEquation) NInputs() int { return l.nu() }

// MatrixA returns a copy of the state propagation matrix.
func (l *LTIContinuousStateEquation) MatrixA() *mat.Dense {
	m := &mat.Dense{}
	m.CloneFrom(l.ltiState.A)
	return m
}

// MatrixB returns a copy of the control matrix, or an empty (zero-value,
// 0 x 0) matrix if n_inputs == 0.
func (l *LTIContinuousStateEquation) MatrixB() *mat.Dense {
	if l.ltiState.B == nil {
		return &mat.Dense{}
	}
	m := &mat.Dense{}
	m.CloneFrom(l.ltiState.B)
	return m
}

// LTIDiscreteStateEquation implements x[k+1] = A*x[k] (+ B*u[k]).
type LTIDiscreteStateEquation struct {
	*ltiState
}

// NewLTIDiscreteStateEquation creates a discrete-time LTI state equation.
// B may be nil, meaning n_inputs == 0.
func NewLTIDiscreteStateEquation(A, B *mat.Dense) (*LTIDiscreteStateEquation, error) {
	l, err := newLTIState(A, B)
	if err != nil {
		return nil, err
	}
	return &LTIDiscreteStateEquation{ltiState: l}, nil
}

// Next implements DiscreteStateEquation.
func (l *LTIDiscreteStateEquation) Next(x, u mat.Vector) (mat.Vector, error) {
	return l.eval(x, u)
}

// NStates implements DiscreteStateEquation.
func (l *LTIDiscreteStateEquation) NStates() int { return l.nx() }

// NInputs implements DiscreteStateEquation.
func (l *LTIDiscreteStateEquation) NInputs() int { return l.nu() }

// MatrixA returns a copy of the state propagation matrix.
func (l *LTIDiscreteStateEquation) MatrixA() *mat.Dense {
	m := &mat.Dense{}
	m.CloneFrom(l.ltiState.A)
	return m
}

// MatrixB returns a copy of the control matrix, or an empty (zero-value,
// 0 x 0) matrix if n_inputs == 0.
func (l *LTIDiscreteStateEquation) MatrixB() *mat.Dense {
	if l.ltiState.B == nil {
		return &mat.Dense{}
	}
	m := &mat.Dense{}
	m.CloneFrom(l.ltiState.B)
	return m
}

// LTIMeasurementEquation implements y = C*x (+ D*u).
type LTIMeasurementEquation struct {
	C *mat.Dense
	D *mat.Dense
}

// NewLTIMeasurementEquation creates an LTI measurement equation. D may be
// nil, meaning n_inputs == 0.
func NewLTIMeasurementEquation(C, D *mat.Dense) (*LTIMeasurementEquation, error) {
	if C == nil {
		return nil, fmt.Errorf("model: C matrix must not be nil")
	}
	r, _ := C.Dims()
	if r == 0 {
		return nil, fmt.Errorf("model: C must be a nonempty matrix")
	}
	if D != nil {
		dr, _ := D.Dims()
		if dr != r {
			return nil, fmt.Errorf("model: D must have %d rows, got %d", r, dr)
		}
	}
	return &LTIMeasurementEquation{C: C, D: D}, nil
}

// NStates implements MeasurementEquation.
func (l *LTIMeasurementEquation) NStates() int { _, c := l.C.Dims(); return c }

// NInputs implements MeasurementEquation.
func (l *LTIMeasurementEquation) NInputs() int {
	if l.D == nil {
		return 0
	}
	_, c := l.D.Dims()
	return c
}

// NOutputs implements MeasurementEquation.
func (l *LTIMeasurementEquation) NOutputs() int { r, _ := l.C.Dims(); return r }

// Observe implements MeasurementEquation.
func (l *LTIMeasurementEquation) Observe(x, u mat.Vector) (mat.Vector, error) {
	u, err := checkDims(x, u, l.NStates(), l.NInputs())
	if err != nil {
		return nil, err
	}

	out := new(mat.Dense)
	out.Mul(l.C, x)

	if l.D != nil && l.NInputs() > 0 {
		du := new(mat.Dense)
		du.Mul(l.D, u)
		out.Add(out, du)
	}

	return out.ColView(0), nil
}

// MatrixC returns a copy of the observation matrix.
func (l *LTIMeasurementEquation) MatrixC() *mat.Dense {
	m := &mat.Dense{}
	m.CloneFrom(l.C)
	return m
}

// MatrixD returns a copy of the feedforward matrix, or an empty
// (zero-value, 0 x 0) matrix if n_inputs == 0.
func (l *LTIMeasurementEquation) MatrixD() *mat.Dense {
	if l.D == nil {
		return &mat.Dense{}
	}
	m := &mat.Dense{}
	m.CloneFrom(l.D)
	return m
}
