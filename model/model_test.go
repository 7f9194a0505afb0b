package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestLTIContinuousStateEquation(t *testing.T) {
	assert := assert.New(t)

	A := mat.NewDense(1, 1, []float64{1})
	B := mat.NewDense(1, 1, []float64{1})

	eq, err := NewLTIContinuousStateEquation(A, B)
	assert.NoError(err)
	assert.Equal(1, eq.NStates())
	assert.Equal(1, eq.NInputs())

	x := mat.NewVecDense(1, []float64{2})
	u := mat.NewVecDense(1, []float64{3})

	dx, err := eq.Derivative(x, u)
	assert.NoError(err)
	assert.Equal(5.0, dx.AtVec(0))
}

func TestLTIStateEquationNoInputs(t *testing.T) {
	assert := assert.New(t)

	A := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	eq, err := NewLTIDiscreteStateEquation(A, nil)
	assert.NoError(err)
	assert.Equal(0, eq.NInputs())

	x := mat.NewVecDense(2, []float64{1, 2})
	xn, err := eq.Next(x, nil)
	assert.NoError(err)
	assert.Equal(1.0, xn.AtVec(0))
	assert.Equal(2.0, xn.AtVec(1))
}

func TestLTIStateEquationRejectsBadShape(t *testing.T) {
	assert := assert.New(t)

	_, err := NewLTIContinuousStateEquation(nil, nil)
	assert.Error(err)

	notSquare := mat.NewDense(2, 3, nil)
	_, err = NewLTIContinuousStateEquation(notSquare, nil)
	assert.Error(err)
}

func TestLTIMeasurementEquation(t *testing.T) {
	assert := assert.New(t)

	C := mat.NewDense(1, 2, []float64{1, 0})
	eq, err := NewLTIMeasurementEquation(C, nil)
	assert.NoError(err)
	assert.Equal(2, eq.NStates())
	assert.Equal(0, eq.NInputs())
	assert.Equal(1, eq.NOutputs())

	x := mat.NewVecDense(2, []float64{5, 9})
	y, err := eq.Observe(x, nil)
	assert.NoError(err)
	assert.Equal(5.0, y.AtVec(0))
}

func TestCompositeMeasurement(t *testing.T) {
	assert := assert.New(t)

	C1 := mat.NewDense(1, 2, []float64{1, 0})
	C2 := mat.NewDense(1, 2, []float64{0, 1})
	m1, _ := NewLTIMeasurementEquation(C1, nil)
	m2, _ := NewLTIMeasurementEquation(C2, nil)

	comp, err := NewCompositeMeasurement(m1, m2)
	assert.NoError(err)
	assert.Equal(2, comp.NOutputs())

	x := mat.NewVecDense(2, []float64{3, 4})
	y, err := comp.Observe(x, nil)
	assert.NoError(err)
	assert.Equal(3.0, y.AtVec(0))
	assert.Equal(4.0, y.AtVec(1))
}

func TestCompositeMeasurementRejectsMismatch(t *testing.T) {
	assert := assert.New(t)

	C1 := mat.NewDense(1, 2, []float64{1, 0})
	C2 := mat.NewDense(1, 3, []float64{0, 1, 0})
	m1, _ := NewLTIMeasurementEquation(C1, nil)
	m2, _ := NewLTIMeasurementEquation(C2, nil)

	_, err := NewCompositeMeasurement(m1, m2)
	assert.Error(err)

	_, err = NewCompositeMeasurement()
	assert.Error(err)
}

func TestContinuousFunc(t *testing.T) {
	assert := assert.New(t)

	f := NewContinuousFunc(func(x, u mat.Vector) (mat.Vector, error) {
		out := mat.NewVecDense(1, []float64{x.AtVec(0) * x.AtVec(0)})
		return out, nil
	}, 1, 0)

	x := mat.NewVecDense(1, []float64{3})
	dx, err := f.Derivative(x, nil)
	assert.NoError(err)
	assert.Equal(9.0, dx.AtVec(0))
}

func TestInitCond(t *testing.T) {
	assert := assert.New(t)

	state := mat.NewVecDense(2, []float64{1, 2})
	cov := mat.NewSymDense(2, []float64{1, 0, 0, 1})

	ic := NewInitCond(state, cov)
	assert.Equal(1.0, ic.State().AtVec(0))

	// mutating the original must not affect the stored copy
	state.SetVec(0, 99)
	assert.Equal(1.0, ic.State().AtVec(0))
}
