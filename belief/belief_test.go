package belief

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNewDense(t *testing.T) {
	assert := assert.New(t)

	mean := mat.NewVecDense(2, []float64{1, 2})
	cov := mat.NewSymDense(2, []float64{4, 1, 1, 3})

	d, err := NewDense(mean, cov)
	assert.NoError(err)
	assert.NotNil(d)
	assert.Equal(2, d.Dim())

	badCov := mat.NewSymDense(3, nil)
	_, err = NewDense(mean, badCov)
	assert.Error(err)
}

func TestDenseSqrtRoundTrip(t *testing.T) {
	assert := assert.New(t)

	mean := mat.NewVecDense(2, []float64{1, -2})
	cov := mat.NewSymDense(2, []float64{4, 1, 1, 3})

	d, err := NewDense(mean, cov)
	assert.NoError(err)

	sq, err := d.ToSqrt()
	assert.NoError(err)
	assert.NotNil(sq)

	gotCov := sq.Covariance()
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(cov.At(i, j), gotCov.At(i, j), 1e-9)
		}
	}

	gotMean := sq.Mean()
	for i := 0; i < 2; i++ {
		assert.InDelta(mean.AtVec(i), gotMean.AtVec(i), 1e-12)
	}

	back := sq.ToDense()
	backCov := back.Covariance()
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(cov.At(i, j), backCov.At(i, j), 1e-9)
		}
	}
}

func TestSqrtLogpdfMatchesUnivariateNormal(t *testing.T) {
	assert := assert.New(t)

	mean := mat.NewVecDense(1, []float64{0})
	variance := 4.0
	cov := mat.NewSymDense(1, []float64{variance})

	d, err := NewDense(mean, cov)
	assert.NoError(err)
	sq, err := d.ToSqrt()
	assert.NoError(err)

	y := mat.NewVecDense(1, []float64{1.0})

	want := -0.5*math.Log(2*math.Pi*variance) - (1.0*1.0)/(2*variance)
	got := sq.Logpdf(y)

	assert.InDelta(want, got, 1e-9)
	assert.InDelta(math.Exp(want), sq.Pdf(y), 1e-9)
}

func TestNewSqrtRejectsNegativeDiagonal(t *testing.T) {
	assert := assert.New(t)

	mean := mat.NewVecDense(1, []float64{0})
	L := mat.NewTriDense(1, mat.Lower, []float64{-1})

	_, err := NewSqrt(mean, L)
	assert.Error(err)
}

func TestDenseLogpdfMatchesUnivariateNormal(t *testing.T) {
	assert := assert.New(t)

	mean := mat.NewVecDense(1, []float64{2})
	variance := 1.0
	cov := mat.NewSymDense(1, []float64{variance})

	d, err := NewDense(mean, cov)
	assert.NoError(err)

	y := mat.NewVecDense(1, []float64{2})
	want := -0.5 * math.Log(2*math.Pi*variance)
	assert.InDelta(want, d.Logpdf(y), 1e-6)
}
