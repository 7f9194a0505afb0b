package ekf

import (
	"fmt"

	"github.com/tramsim/tramkf/belief"
	"github.com/tramsim/tramkf/linearize"
	"github.com/tramsim/tramkf/matrix"
	"github.com/tramsim/tramkf/model"
	"gonum.org/v1/gonum/mat"
)

// SqrtForwardStep propagates a square-root belief through the nonlinear
// state equation f, linearized at the prior mean, using the same block-LQ
// construction as lkf.SqrtForwardStep: the propagated factor and the
// process noise's factor are stacked into
//
//	[ A*L | Lq ]
//
// and the LQ decomposition's lower factor becomes the new L.
func SqrtForwardStep(prior *belief.Sqrt, f model.DiscreteStateEquation, u mat.Vector, Lq *mat.TriDense) (*belief.Sqrt, error) {
	x := prior.Mean()

	xNext, err := f.Next(x, u)
	if err != nil {
		return nil, fmt.Errorf("ekf: sqrt forward step propagation failed: %w", err)
	}

	A, _, err := linearize.DiscreteJacobians(f, x, u)
	if err != nil {
		return nil, fmt.Errorf("ekf: sqrt forward step linearization failed: %w", err)
	}

	nx := f.NStates()
	L := prior.Factor()

	AL := new(mat.Dense)
	AL.Mul(A, L)

	nq := 0
	if Lq != nil {
		nq, _ = Lq.Dims()
	}

	block := mat.NewDense(nx, nx+nq, nil)
	for i := 0; i < nx; i++ {
		for j := 0; j < nx; j++ {
			block.Set(i, j, AL.At(i, j))
		}
	}
	if Lq != nil {
		for i := 0; i < nx; i++ {
			for j := 0; j < nq; j++ {
				block.Set(i, nx+j, Lq.At(i, j))
			}
		}
	}

	Lnext := matrix.LQLower(block)

	return belief.NewSqrt(xNext, Lnext)
}

// SqrtDataStep corrects a predicted square-root belief with measurement y
// through the nonlinear measurement equation g, linearized at the
// predicted mean, using the same block-LQ construction as lkf.SqrtDataStep:
//
//	[ Lr     C*L ]
//	[ 0      L   ]
//
// The resulting lower factor's diagonal blocks are the innovation
// covariance factor and the posterior covariance factor.
func SqrtDataStep(predicted *belief.Sqrt, g model.MeasurementEquation, u, y mat.Vector, Lr *mat.TriDense) (*belief.Sqrt, error) {
	x := predicted.Mean()
	L := predicted.Factor()

	yhat, err := g.Observe(x, u)
	if err != nil {
		return nil, fmt.Errorf("ekf: sqrt data step observation failed: %w", err)
	}
	if y.Len() != yhat.Len() {
		return nil, fmt.Errorf("ekf: measurement has length %d, want %d", y.Len(), yhat.Len())
	}

	C, _, err := linearize.MeasurementJacobians(g, x, u)
	if err != nil {
		return nil, fmt.Errorf("ekf: sqrt data step linearization failed: %w", err)
	}

	nx, ny := g.NStates(), g.NOutputs()

	CL := new(mat.Dense)
	CL.Mul(C, L)

	n := nx + ny
	block := mat.NewDense(n, n, nil)
	for i := 0; i < ny; i++ {
		for j := 0; j <= i; j++ {
			block.Set(i, j, Lr.At(i, j))
		}
	}
	for i := 0; i < ny; i++ {
		for j := 0; j < nx; j++ {
			block.Set(i, ny+j, CL.At(i, j))
		}
	}
	for i := 0; i < nx; i++ {
		for j := 0; j <= i; j++ {
			block.Set(ny+i, ny+j, L.At(i, j))
		}
	}

	Lfull := matrix.LQLower(block)

	Lyy := mat.NewTriDense(ny, mat.Lower, nil)
	for i := 0; i < ny; i++ {
		for j := 0; j <= i; j++ {
			Lyy.SetTri(i, j, Lfull.At(i, j))
		}
	}

	Lxy := mat.NewDense(nx, ny, nil)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			Lxy.Set(i, j, Lfull.At(ny+i, j))
		}
	}

	Lxx := mat.NewTriDense(nx, mat.Lower, nil)
	for i := 0; i < nx; i++ {
		for j := 0; j <= i; j++ {
			Lxx.SetTri(i, j, Lfull.At(ny+i, ny+j))
		}
	}

	innov := mat.NewVecDense(ny, nil)
	innov.SubVec(y, yhat)

	// gain-weighted innovation: Lxy * Lyy^-1 * innov, via a triangular
	// solve rather than an explicit inverse.
	z := matrix.ForwardSolve(Lyy, innov)
	corr := mat.NewVecDense(nx, nil)
	corr.MulVec(Lxy, z)

	xCorr := mat.NewVecDense(nx, nil)
	xCorr.AddVec(x, corr)

	return belief.NewSqrt(xCorr, Lxx)
}
