// Package belief implements Gaussian and square-root Gaussian uncertain
// values ("Beliefs") over a state vector, as consumed and produced by the
// filters in kalman/lkf, kalman/ekf and kalman/iekf.
package belief

import (
	"gonum.org/v1/gonum/mat"
)

// Belief is a probability distribution over an n-vector, exposed through
// the small capability set shared by the Dense and Sqrt representations.
type Belief interface {
	// Mean returns the belief's mean vector.
	Mean() mat.Vector
	// Covariance returns the belief's covariance matrix. For Sqrt beliefs
	// this materializes L*L' and should not be called in a hot loop.
	Covariance() mat.Symmetric
	// Pdf returns the probability density at y.
	Pdf(y mat.Vector) float64
	// Logpdf returns the log probability density at y.
	Logpdf(y mat.Vector) float64
	// Dim returns the dimension of the state vector.
	Dim() int
}

func cloneVec(v mat.Vector) *mat.VecDense {
	c := mat.NewVecDense(v.Len(), nil)
	c.CloneFromVec(v)
	return c
}

func diff(y, mean mat.Vector) *mat.VecDense {
	d := mat.NewVecDense(y.Len(), nil)
	d.SubVec(y, mean)
	return d
}
