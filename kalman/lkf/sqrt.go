package lkf

import (
	"fmt"

	"github.com/tramsim/tramkf/belief"
	"github.com/tramsim/tramkf/matrix"
	"github.com/tramsim/tramkf/model"
	"gonum.org/v1/gonum/mat"
)

// SqrtForwardStep propagates a square-root belief through the linear
// state equation f. Rather than forming A*P*A'+Q directly, it stacks the
// propagated factor and the process noise's factor into a block row
//
//	[ A*L | Lq ]
//
// and takes the LQ decomposition's lower factor as the new L: by
// construction (A*L|Lq)*(A*L|Lq)' = A*P*A' + Q, so this is algebraically
// equivalent to the dense update but never materializes or inverts a
// covariance matrix.
func SqrtForwardStep(prior *belief.Sqrt, f *model.LTIDiscreteStateEquation, u mat.Vector, Lq *mat.TriDense) (*belief.Sqrt, error) {
	xNext, err := f.Next(prior.Mean(), u)
	if err != nil {
		return nil, fmt.Errorf("lkf: sqrt forward step propagation failed: %w", err)
	}

	nx := f.NStates()
	A := f.MatrixA()
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
// through the linear measurement equation g. It forms the block matrix
//
//	[ Lr     C*L ]
//	[ 0      L   ]
//
// and takes its LQ decomposition; the resulting lower factor's diagonal
// blocks are the innovation covariance factor and the posterior
// covariance factor, avoiding an explicit Pyy inverse.
func SqrtDataStep(predicted *belief.Sqrt, g *model.LTIMeasurementEquation, u, y mat.Vector, Lr *mat.TriDense) (*belief.Sqrt, error) {
	x := predicted.Mean()
	L := predicted.Factor()

	yhat, err := g.Observe(x, u)
	if err != nil {
		return nil, fmt.Errorf("lkf: sqrt data step observation failed: %w", err)
	}
	if y.Len() != yhat.Len() {
		return nil, fmt.Errorf("lkf: measurement has length %d, want %d", y.Len(), yhat.Len())
	}

	C := g.MatrixC()
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
	// forward solve rather than an explicit inverse.
	z := matrix.ForwardSolve(Lyy, innov)
	corr := mat.NewVecDense(nx, nil)
	corr.MulVec(Lxy, z)

	xCorr := mat.NewVecDense(nx, nil)
	xCorr.AddVec(x, corr)

	return belief.NewSqrt(xCorr, Lxx)
}
