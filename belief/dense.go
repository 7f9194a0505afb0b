package belief

import (
	"fmt"

	"github.com/tramsim/tramkf/matrix"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Dense is a Gaussian belief represented by its mean and full covariance
// matrix.
type Dense struct {
	mean *mat.VecDense
	cov  *mat.SymDense
}

// NewDense creates a new Dense belief from a mean and covariance. It
// returns an error if their dimensions do not match.
func NewDense(mean mat.Vector, cov mat.Symmetric) (*Dense, error) {
	if mean.Len() != cov.SymmetricDim() {
		return nil, fmt.Errorf("belief: mean length %d does not match covariance dimension %d", mean.Len(), cov.SymmetricDim())
	}

	c := mat.NewSymDense(cov.SymmetricDim(), nil)
	c.CopySym(cov)

	return &Dense{
		mean: cloneVec(mean),
		cov:  c,
	}, nil
}

// Mean returns the belief mean.
func (d *Dense) Mean() mat.Vector { return cloneVec(d.mean) }

// Covariance returns the belief covariance.
func (d *Dense) Covariance() mat.Symmetric {
	c := mat.NewSymDense(d.cov.SymmetricDim(), nil)
	c.CopySym(d.cov)
	return c
}

// Dim returns the state dimension.
func (d *Dense) Dim() int { return d.mean.Len() }

// Pdf returns the Gaussian probability density at y.
func (d *Dense) Pdf(y mat.Vector) float64 {
	return normal(d).Prob(mat.Col(nil, 0, y))
}

// Logpdf returns the Gaussian log probability density at y.
func (d *Dense) Logpdf(y mat.Vector) float64 {
	return normal(d).LogProb(mat.Col(nil, 0, y))
}

func normal(d *Dense) *distmv.Normal {
	src := rand.NewSource(1)
	n, ok := distmv.NewNormal(mat.Col(nil, 0, d.mean), d.cov, src)
	if !ok {
		// d.cov failed its internal Cholesky factorization: construction
		// of a Dense belief with a non-PSD covariance is a programmer
		// error that NewDense cannot catch (Symmetric doesn't imply PSD),
		// so it surfaces here as a panic rather than a silent NaN.
		panic(fmt.Sprintf("belief: covariance is not positive-definite: %v", matrix.Format(d.cov)))
	}
	return n
}

// ToSqrt converts d to its square-root representation, computing the lower
// Cholesky factor of its covariance. It returns an error if the covariance
// is not positive-definite.
func (d *Dense) ToSqrt() (*Sqrt, error) {
	L, err := matrix.CholeskyLower(d.cov)
	if err != nil {
		return nil, fmt.Errorf("belief: Dense to Sqrt conversion failed: %w", err)
	}
	return &Sqrt{mean: cloneVec(d.mean), L: L}, nil
}
