// Package rts implements the Rauch-Tung-Striebel fixed-interval smoother:
// a backward pass over a sequence of filtered beliefs that incorporates
// information from every later measurement into every earlier estimate.
package rts

import (
	"fmt"

	"github.com/tramsim/tramkf/belief"
	"github.com/tramsim/tramkf/linearize"
	"github.com/tramsim/tramkf/model"
	"gonum.org/v1/gonum/mat"
)

// Smooth runs the RTS backward pass over a forward-filtered sequence of
// beliefs, using the (possibly nonlinear) discrete state equation f and
// optional process noise Q to recompute, at each step, the
// one-step-ahead predicted belief the forward filter would have
// produced. f is linearized around each filtered mean via linearize, so
// this same pass serves the LKF's exactly-linear models and the
// EKF/IEKF's local linearizations alike. Inputs u may be nil (meaning the
// state equation takes none) or must have the same length as filtered.
//
// filtered may mix belief.Dense and belief.Sqrt freely: the smoothing
// algebra itself always runs against the materialized covariance (the
// backward gain requires inverting the one-step-ahead covariance, which
// has no LQ-only formulation in this package), but each smoothed belief is
// returned in the same representation as the corresponding filtered
// belief, so a Sqrt-filtered sequence smooths back out to a Sqrt sequence.
//
// The smoothing gain at step k is
//
//	C_k = P_k * A_k' * covariance(next_prior)^-1
//
// where next_prior is the forward prediction from step k into step k+1 —
// not the filtered belief at k+1 — since the smoothing correction is
// defined relative to what the forward pass predicted before it saw
// measurement k+1, and A_k is f linearized at the filtered mean at k.
func Smooth(filtered []belief.Belief, f model.DiscreteStateEquation, u []mat.Vector, Q mat.Symmetric) ([]belief.Belief, error) {
	if len(filtered) == 0 {
		return nil, fmt.Errorf("rts: empty filtered sequence")
	}
	if u != nil && len(u) != len(filtered) {
		return nil, fmt.Errorf("rts: input sequence length %d does not match filtered sequence length %d", len(u), len(filtered))
	}

	n := len(filtered)
	smoothed := make([]belief.Belief, n)
	smoothed[n-1] = filtered[n-1]

	for k := n - 2; k >= 0; k-- {
		var uk mat.Vector
		if u != nil {
			uk = u[k]
		}
		if uk == nil && f.NInputs() > 0 {
			uk = mat.NewVecDense(f.NInputs(), nil)
		}

		nextPriorMean, err := f.Next(filtered[k].Mean(), uk)
		if err != nil {
			return nil, fmt.Errorf("rts: step %d: next prior propagation failed: %w", k, err)
		}

		A, _, err := linearize.DiscreteJacobians(f, filtered[k].Mean(), uk)
		if err != nil {
			return nil, fmt.Errorf("rts: step %d: linearization failed: %w", k, err)
		}

		nextPriorCov := new(mat.Dense)
		nextPriorCov.Mul(A, filtered[k].Covariance())
		nextPriorCov.Mul(nextPriorCov, A.T())
		if Q != nil {
			nextPriorCov.Add(nextPriorCov, Q)
		}

		nextPriorCovInv := new(mat.Dense)
		if err := nextPriorCovInv.Inverse(nextPriorCov); err != nil {
			return nil, fmt.Errorf("rts: step %d: next prior covariance is singular: %w", k, err)
		}

		// C = Pk*A' * next_prior_cov^-1
		gain := new(mat.Dense)
		gain.Mul(filtered[k].Covariance(), A.T())
		gain.Mul(gain, nextPriorCovInv)

		// smoothed mean: xk + C*(x_{k+1 smoothed} - next_prior_mean)
		delta := mat.NewVecDense(nextPriorMean.Len(), nil)
		delta.SubVec(smoothed[k+1].Mean(), nextPriorMean)
		corr := new(mat.Dense)
		corr.Mul(gain, delta)

		xSmooth := mat.NewVecDense(filtered[k].Dim(), nil)
		xSmooth.AddVec(filtered[k].Mean(), corr.ColView(0))

		// smoothed cov: Pk + C*(P_{k+1 smoothed} - next_prior_cov)*C'
		covDelta := new(mat.Dense)
		covDelta.Sub(smoothed[k+1].Covariance(), nextPriorCov)
		covCorr := new(mat.Dense)
		covCorr.Mul(gain, covDelta)
		covCorr.Mul(covCorr, gain.T())

		pSmooth := new(mat.Dense)
		pSmooth.Add(filtered[k].Covariance(), covCorr)

		nx := filtered[k].Dim()
		sym := mat.NewSymDense(nx, nil)
		for i := 0; i < nx; i++ {
			for j := i; j < nx; j++ {
				sym.SetSym(i, j, pSmooth.At(i, j))
			}
		}

		dense, err := belief.NewDense(xSmooth, sym)
		if err != nil {
			return nil, fmt.Errorf("rts: step %d: %w", k, err)
		}

		b, err := matchRepresentation(filtered[k], dense)
		if err != nil {
			return nil, fmt.Errorf("rts: step %d: %w", k, err)
		}
		smoothed[k] = b
	}

	return smoothed, nil
}

// matchRepresentation returns dense if ref is a Dense belief, or dense's
// Sqrt conversion if ref is a Sqrt belief, so the smoothed sequence's
// representation mirrors the filtered sequence's.
func matchRepresentation(ref belief.Belief, dense *belief.Dense) (belief.Belief, error) {
	if _, ok := ref.(*belief.Sqrt); ok {
		sq, err := dense.ToSqrt()
		if err != nil {
			return nil, fmt.Errorf("converting smoothed belief to Sqrt: %w", err)
		}
		return sq, nil
	}
	return dense, nil
}
