package belief

import (
	"fmt"
	"math"

	"github.com/tramsim/tramkf/matrix"
	"gonum.org/v1/gonum/mat"
)

// Sqrt is a Gaussian belief represented by its mean and the lower
// Cholesky factor L of its covariance (cov = L*L'). Propagating L instead
// of the covariance directly is numerically more stable over long
// filtering horizons (see kalman/lkf's square-root forms).
type Sqrt struct {
	mean *mat.VecDense
	L    *mat.TriDense
}

// NewSqrt creates a new Sqrt belief from a mean and lower-triangular
// factor L. It returns an error if their dimensions do not match or if L's
// diagonal contains negative entries.
func NewSqrt(mean mat.Vector, L *mat.TriDense) (*Sqrt, error) {
	n, _ := L.Dims()
	if mean.Len() != n {
		return nil, fmt.Errorf("belief: mean length %d does not match factor dimension %d", mean.Len(), n)
	}
	if L.TriKind() != mat.Lower {
		return nil, fmt.Errorf("belief: factor must be lower-triangular")
	}
	for i := 0; i < n; i++ {
		if L.At(i, i) < 0 {
			return nil, fmt.Errorf("belief: factor diagonal must be non-negative, got %f at (%d,%d)", L.At(i, i), i, i)
		}
	}

	Lc := mat.NewTriDense(n, mat.Lower, nil)
	Lc.Copy(L)

	return &Sqrt{mean: cloneVec(mean), L: Lc}, nil
}

// Mean returns the belief mean.
func (s *Sqrt) Mean() mat.Vector { return cloneVec(s.mean) }

// Factor returns the lower Cholesky factor L of the belief's covariance.
func (s *Sqrt) Factor() *mat.TriDense {
	n, _ := s.L.Dims()
	Lc := mat.NewTriDense(n, mat.Lower, nil)
	Lc.Copy(s.L)
	return Lc
}

// Covariance materializes L*L' as a symmetric matrix. Callers in a hot
// loop should prefer Factor and the triangular-solve helpers in package
// matrix instead.
func (s *Sqrt) Covariance() mat.Symmetric {
	var cov mat.Dense
	cov.Mul(s.L, s.L.T())

	n, _ := s.L.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, cov.At(i, j))
		}
	}
	return sym
}

// Dim returns the state dimension.
func (s *Sqrt) Dim() int { return s.mean.Len() }

// Logpdf returns the Gaussian log probability density at y, computed via
// the triangular solve L\(y-mu) rather than by inverting L*L'.
//
//	logpdf(y) = -n/2*log(2*pi) - log|det L| - 1/2*||L^-1(y-mu)||^2
//
// Forward substitution against L (not back substitution against L') is
// the solve consistent with this package's cov = L*L' convention: since
// cov^-1 = (L^-1)'*L^-1, the quadratic form is ||L^-1(y-mu)||^2.
func (s *Sqrt) Logpdf(y mat.Vector) float64 {
	n := s.Dim()
	d := diff(y, s.mean)

	z := matrix.ForwardSolve(s.L, d)
	quad := mat.Dot(z, z)

	logDet := matrix.LogDetTri(s.L)

	return -0.5*float64(n)*math.Log(2*math.Pi) - logDet - 0.5*quad
}

// Pdf returns the Gaussian probability density at y.
func (s *Sqrt) Pdf(y mat.Vector) float64 {
	return math.Exp(s.Logpdf(y))
}

// ToDense converts s to its Dense representation, materializing L*L'.
func (s *Sqrt) ToDense() *Dense {
	return &Dense{mean: cloneVec(s.mean), cov: s.Covariance().(*mat.SymDense)}
}
