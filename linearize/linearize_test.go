package linearize

import (
	"testing"

	"github.com/tramsim/tramkf/model"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestContinuousJacobiansExactOnLinear(t *testing.T) {
	assert := assert.New(t)

	A := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	B := mat.NewDense(2, 1, []float64{5, 6})
	f, err := model.NewLTIContinuousStateEquation(A, B)
	assert.NoError(err)

	x := mat.NewVecDense(2, []float64{1, 1})
	u := mat.NewVecDense(1, []float64{1})

	gotA, gotB, err := ContinuousJacobians(f, x, u)
	assert.NoError(err)

	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(A.At(i, j), gotA.At(i, j), 1e-6)
		}
		assert.InDelta(B.At(i, 0), gotB.At(i, 0), 1e-6)
	}
}

func TestContinuousJacobiansNonlinear(t *testing.T) {
	assert := assert.New(t)

	// dx/dt = x^2, df/dx = 2x
	f := model.NewContinuousFunc(func(x, u mat.Vector) (mat.Vector, error) {
		return mat.NewVecDense(1, []float64{x.AtVec(0) * x.AtVec(0)}), nil
	}, 1, 0)

	x := mat.NewVecDense(1, []float64{3})
	gotA, gotB, err := ContinuousJacobians(f, x, nil)
	assert.NoError(err)
	assert.InDelta(6.0, gotA.At(0, 0), 1e-4)
	assert.Equal(0, gotB.RawMatrix().Cols)
}

func TestMeasurementJacobiansExactOnLinear(t *testing.T) {
	assert := assert.New(t)

	C := mat.NewDense(1, 2, []float64{2, 3})
	g, err := model.NewLTIMeasurementEquation(C, nil)
	assert.NoError(err)

	x := mat.NewVecDense(2, []float64{1, 1})

	gotC, gotD, err := MeasurementJacobians(g, x, nil)
	assert.NoError(err)
	assert.InDelta(2.0, gotC.At(0, 0), 1e-6)
	assert.InDelta(3.0, gotC.At(0, 1), 1e-6)
	assert.Equal(0, gotD.RawMatrix().Cols)
}
