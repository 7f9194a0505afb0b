package discretize

import (
	"testing"

	"github.com/tramsim/tramkf/model"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestEulerAffine(t *testing.T) {
	assert := assert.New(t)

	A := mat.NewDense(1, 1, []float64{2})
	B := mat.NewDense(1, 1, []float64{3})
	f, err := model.NewLTIContinuousStateEquation(A, B)
	assert.NoError(err)

	x := mat.NewVecDense(1, []float64{1})
	u := mat.NewVecDense(1, []float64{1})

	got, err := Euler(f, x, u, 0.1)
	assert.NoError(err)

	// x + (A*x+B*u)*dt = 1 + (2*1+3*1)*0.1 = 1.5
	assert.InDelta(1.5, got.AtVec(0), 1e-12)
}

func TestRK4ExactOnZeroA(t *testing.T) {
	assert := assert.New(t)

	A := mat.NewDense(1, 1, []float64{0})
	B := mat.NewDense(1, 1, []float64{1})
	f, err := model.NewLTIContinuousStateEquation(A, B)
	assert.NoError(err)

	x := mat.NewVecDense(1, []float64{1})
	u := mat.NewVecDense(1, []float64{2})

	got, err := RK4(f, x, u, 0.5)
	assert.NoError(err)
	// dx/dt = B*u = 2, constant => x(T) = x0 + 2*T exactly, no truncation.
	assert.InDelta(2.0, got.AtVec(0), 1e-12)
}

func TestRK4MatchesAffineClosedForm(t *testing.T) {
	assert := assert.New(t)

	A := mat.NewDense(1, 1, []float64{1})
	B := mat.NewDense(1, 1, []float64{0})
	f, err := model.NewLTIContinuousStateEquation(A, B)
	assert.NoError(err)

	x := mat.NewVecDense(1, []float64{1})
	u := mat.NewVecDense(1, []float64{0})
	dt := 0.01

	got, err := RK4(f, x, u, dt)
	assert.NoError(err)

	// exp(dt) truncated to O(dt^5); RK4 matches to within that order.
	want := 1.010050167
	assert.InDelta(want, got.AtVec(0), 1e-9)
}

func TestDiscretizeRejectsBadParams(t *testing.T) {
	assert := assert.New(t)

	A := mat.NewDense(1, 1, []float64{1})
	f, _ := model.NewLTIContinuousStateEquation(A, nil)

	_, err := Discretize(f, MethodRK4, 0, 1)
	assert.Error(err)

	_, err = Discretize(f, MethodRK4, -1, 1)
	assert.Error(err)

	_, err = Discretize(f, MethodRK4, 1, 0)
	assert.Error(err)
}

func TestDiscretizedStateEquationSubsamples(t *testing.T) {
	assert := assert.New(t)

	A := mat.NewDense(1, 1, []float64{0})
	B := mat.NewDense(1, 1, []float64{1})
	f, err := model.NewLTIContinuousStateEquation(A, B)
	assert.NoError(err)

	d, err := Discretize(f, MethodRK4, 1.0, 10)
	assert.NoError(err)
	assert.Equal(1, d.NStates())
	assert.Equal(1, d.NInputs())

	x := mat.NewVecDense(1, []float64{0})
	u := mat.NewVecDense(1, []float64{1})

	xn, err := d.Next(x, u)
	assert.NoError(err)
	// constant derivative 1, Ts=1 => advances by 1 regardless of subsamples
	assert.InDelta(1.0, xn.AtVec(0), 1e-9)
}
