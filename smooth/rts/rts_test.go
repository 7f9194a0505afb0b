package rts

import (
	"testing"

	"github.com/tramsim/tramkf/belief"
	"github.com/tramsim/tramkf/kalman/lkf"
	"github.com/tramsim/tramkf/model"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestSmoothMatchesLastFilteredAtEnd(t *testing.T) {
	assert := assert.New(t)

	A := mat.NewDense(1, 1, []float64{1})
	f, err := model.NewLTIDiscreteStateEquation(A, nil)
	assert.NoError(err)

	b0, _ := belief.NewDense(mat.NewVecDense(1, []float64{1}), mat.NewSymDense(1, []float64{1}))
	b1, _ := belief.NewDense(mat.NewVecDense(1, []float64{2}), mat.NewSymDense(1, []float64{0.5}))

	smoothed, err := Smooth([]belief.Belief{b0, b1}, f, nil, nil)
	assert.NoError(err)
	assert.Equal(2.0, smoothed[1].Mean().AtVec(0))
	assert.InDelta(0.5, smoothed[1].Covariance().At(0, 0), 1e-12)
}

func TestSmoothReducesEarlierUncertainty(t *testing.T) {
	assert := assert.New(t)

	A := mat.NewDense(1, 1, []float64{1})
	f, err := model.NewLTIDiscreteStateEquation(A, nil)
	assert.NoError(err)

	Q := mat.NewSymDense(1, []float64{0.1})

	b0, _ := belief.NewDense(mat.NewVecDense(1, []float64{0}), mat.NewSymDense(1, []float64{1}))
	predicted, err := lkf.ForwardStep(b0, f, nil, Q)
	assert.NoError(err)

	R := mat.NewSymDense(1, []float64{0.2})
	C := mat.NewDense(1, 1, []float64{1})
	g, err := model.NewLTIMeasurementEquation(C, nil)
	assert.NoError(err)
	b1, err := lkf.DataStep(predicted, g, nil, mat.NewVecDense(1, []float64{1}), R)
	assert.NoError(err)

	smoothed, err := Smooth([]belief.Belief{b0, b1}, f, nil, Q)
	assert.NoError(err)

	assert.LessOrEqual(smoothed[0].Covariance().At(0, 0), b0.Covariance().At(0, 0))
}

func TestSmoothPreservesSqrtRepresentation(t *testing.T) {
	assert := assert.New(t)

	A := mat.NewDense(1, 1, []float64{1})
	f, err := model.NewLTIDiscreteStateEquation(A, nil)
	assert.NoError(err)

	Q := mat.NewSymDense(1, []float64{0.1})

	b0, _ := belief.NewDense(mat.NewVecDense(1, []float64{0}), mat.NewSymDense(1, []float64{1}))
	predicted, err := lkf.ForwardStep(b0, f, nil, Q)
	assert.NoError(err)

	R := mat.NewSymDense(1, []float64{0.2})
	C := mat.NewDense(1, 1, []float64{1})
	g, err := model.NewLTIMeasurementEquation(C, nil)
	assert.NoError(err)
	b1, err := lkf.DataStep(predicted, g, nil, mat.NewVecDense(1, []float64{1}), R)
	assert.NoError(err)

	b0Sqrt, err := b0.ToSqrt()
	assert.NoError(err)
	b1Sqrt, err := b1.ToSqrt()
	assert.NoError(err)

	smoothedDense, err := Smooth([]belief.Belief{b0, b1}, f, nil, Q)
	assert.NoError(err)
	smoothedSqrt, err := Smooth([]belief.Belief{b0Sqrt, b1Sqrt}, f, nil, Q)
	assert.NoError(err)

	_, isSqrt := smoothedSqrt[0].(*belief.Sqrt)
	assert.True(isSqrt)
	assert.InDelta(smoothedDense[0].Mean().AtVec(0), smoothedSqrt[0].Mean().AtVec(0), 1e-9)
	assert.InDelta(smoothedDense[0].Covariance().At(0, 0), smoothedSqrt[0].Covariance().At(0, 0), 1e-9)
}

func TestSmoothRejectsMismatchedInputs(t *testing.T) {
	assert := assert.New(t)

	A := mat.NewDense(1, 1, []float64{1})
	f, _ := model.NewLTIDiscreteStateEquation(A, nil)

	b0, _ := belief.NewDense(mat.NewVecDense(1, []float64{0}), mat.NewSymDense(1, []float64{1}))

	_, err := Smooth(nil, f, nil, nil)
	assert.Error(err)

	_, err = Smooth([]belief.Belief{b0}, f, []mat.Vector{nil, nil}, nil)
	assert.Error(err)
}
