// Package ekf implements the Extended Kalman Filter: a forward/data step
// pair that linearizes a nonlinear state or measurement equation around
// the current belief mean (via package linearize) and then runs the same
// Joseph-form covariance algebra as the linear filter in package lkf.
package ekf

import (
	"fmt"

	identitymat "github.com/milosgajdos/matrix"
	"github.com/tramsim/tramkf/belief"
	"github.com/tramsim/tramkf/linearize"
	"github.com/tramsim/tramkf/model"
	"gonum.org/v1/gonum/mat"
)

// ForwardStep propagates a dense belief through the nonlinear state
// equation f, linearized at the prior mean. The mean advances exactly via
// f.Next; the covariance advances via the linearized propagation matrix:
//
//	P' = A*P*A' + Q
func ForwardStep(prior *belief.Dense, f model.DiscreteStateEquation, u mat.Vector, Q mat.Symmetric) (*belief.Dense, error) {
	x := prior.Mean()

	xNext, err := f.Next(x, u)
	if err != nil {
		return nil, fmt.Errorf("ekf: forward step propagation failed: %w", err)
	}

	A, _, err := linearize.DiscreteJacobians(f, x, u)
	if err != nil {
		return nil, fmt.Errorf("ekf: forward step linearization failed: %w", err)
	}

	cov := new(mat.Dense)
	cov.Mul(A, prior.Covariance())
	cov.Mul(cov, A.T())
	if Q != nil {
		cov.Add(cov, Q)
	}

	nx := f.NStates()
	sym := mat.NewSymDense(nx, nil)
	for i := 0; i < nx; i++ {
		for j := i; j < nx; j++ {
			sym.SetSym(i, j, cov.At(i, j))
		}
	}

	return belief.NewDense(xNext, sym)
}

// DataStep corrects a predicted dense belief with measurement y through
// the nonlinear measurement equation g, linearized at the predicted mean,
// using the same Joseph-form update as lkf.DataStep.
func DataStep(predicted *belief.Dense, g model.MeasurementEquation, u, y mat.Vector, R mat.Symmetric) (*belief.Dense, error) {
	x := predicted.Mean()
	P := predicted.Covariance()

	yhat, err := g.Observe(x, u)
	if err != nil {
		return nil, fmt.Errorf("ekf: data step observation failed: %w", err)
	}
	if y.Len() != yhat.Len() {
		return nil, fmt.Errorf("ekf: measurement has length %d, want %d", y.Len(), yhat.Len())
	}

	C, _, err := linearize.MeasurementJacobians(g, x, u)
	if err != nil {
		return nil, fmt.Errorf("ekf: data step linearization failed: %w", err)
	}

	nx, ny := g.NStates(), g.NOutputs()

	pxy := mat.NewDense(nx, ny, nil)
	pxy.Mul(P, C.T())

	pyy := mat.NewDense(ny, ny, nil)
	pyy.Mul(C, pxy)
	if R != nil {
		pyy.Add(pyy, R)
	}

	pyyInv := new(mat.Dense)
	if err := pyyInv.Inverse(pyy); err != nil {
		return nil, fmt.Errorf("ekf: innovation covariance is singular: %w", err)
	}

	gain := new(mat.Dense)
	gain.Mul(pxy, pyyInv)

	innov := mat.NewVecDense(ny, nil)
	innov.SubVec(y, yhat)

	xCorr := mat.NewVecDense(nx, nil)
	corr := new(mat.Dense)
	corr.Mul(gain, innov)
	xCorr.AddVec(x, corr.ColView(0))

	eye, err := identitymat.NewDenseValIdentity(nx, 1.0)
	if err != nil {
		return nil, fmt.Errorf("ekf: failed to build identity: %w", err)
	}

	kc := new(mat.Dense)
	kc.Mul(gain, C)
	a := new(mat.Dense)
	a.Sub(eye, kc)

	apa := new(mat.Dense)
	apa.Mul(a, P)
	apa.Mul(apa, a.T())

	if R != nil {
		kr := new(mat.Dense)
		kr.Mul(gain, R)
		kr.Mul(kr, gain.T())
		apa.Add(apa, kr)
	}

	pCorr := mat.NewSymDense(nx, nil)
	for i := 0; i < nx; i++ {
		for j := i; j < nx; j++ {
			pCorr.SetSym(i, j, apa.At(i, j))
		}
	}

	return belief.NewDense(xCorr, pCorr)
}
