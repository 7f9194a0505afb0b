// Package lkf implements the linear Kalman filter forward (time-update)
// and data (measurement-update) steps, in both dense (Joseph form) and
// square-root (Cholesky/LQ factored) representations.
package lkf

import (
	"fmt"

	identitymat "github.com/milosgajdos/matrix"
	"github.com/tramsim/tramkf/belief"
	"github.com/tramsim/tramkf/model"
	"gonum.org/v1/gonum/mat"
)

// ForwardStep propagates a dense belief through the linear state equation
// f, advancing its mean by f.Next(x, u) and its covariance by
//
//	P' = A*P*A' + Q
//
// where A is f's propagation matrix and Q is the process noise
// covariance (nil means no process noise).
func ForwardStep(prior *belief.Dense, f *model.LTIDiscreteStateEquation, u mat.Vector, Q mat.Symmetric) (*belief.Dense, error) {
	xNext, err := f.Next(prior.Mean(), u)
	if err != nil {
		return nil, fmt.Errorf("lkf: forward step propagation failed: %w", err)
	}

	A := f.MatrixA()
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
// the linear measurement equation g, using a Joseph-form covariance
// update so the result stays symmetric positive semi-definite even under
// an inexact gain.
func DataStep(predicted *belief.Dense, g *model.LTIMeasurementEquation, u, y mat.Vector, R mat.Symmetric) (*belief.Dense, error) {
	x := predicted.Mean()
	P := predicted.Covariance()

	yhat, err := g.Observe(x, u)
	if err != nil {
		return nil, fmt.Errorf("lkf: data step observation failed: %w", err)
	}
	if y.Len() != yhat.Len() {
		return nil, fmt.Errorf("lkf: measurement has length %d, want %d", y.Len(), yhat.Len())
	}

	C := g.MatrixC()
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
		return nil, fmt.Errorf("lkf: innovation covariance is singular: %w", err)
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
		return nil, fmt.Errorf("lkf: failed to build identity: %w", err)
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
