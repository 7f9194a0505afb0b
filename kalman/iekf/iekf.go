// Package iekf implements the Iterated Extended Kalman Filter's data
// step as a Gauss-Newton maximum-a-posteriori update: starting from the
// predicted belief, it repeatedly relinearizes the measurement equation
// at the current iterate and takes a (possibly step-size-controlled)
// Gauss-Newton step towards the mode of
//
//	J(x) = 1/2*(x-x0)'*P^-1*(x-x0) + 1/2*(y-g(x))'*R^-1*(y-g(x))
//
// which reduces to the ordinary EKF data step after a single
// full-strength iteration.
package iekf

import (
	"fmt"

	identitymat "github.com/milosgajdos/matrix"
	"github.com/tramsim/tramkf/belief"
	"github.com/tramsim/tramkf/linearize"
	"github.com/tramsim/tramkf/linesearch"
	"github.com/tramsim/tramkf/matrix"
	"github.com/tramsim/tramkf/model"
	"gonum.org/v1/gonum/mat"
)

// Config holds the iteration controls for DataStep.
type Config struct {
	// LineSearch picks the step size at each Gauss-Newton iteration.
	// linesearch.Identity{} recovers the classical (full-step) IEKF.
	LineSearch linesearch.Controller
	// MaxIter bounds the number of Gauss-Newton iterations.
	MaxIter int
	// MinStepNorm stops iterating once the applied step's Euclidean norm
	// falls below this threshold.
	MinStepNorm float64
}

// gaussNewton runs the iterated relinearization common to both the dense
// and square-root data steps: it returns the converged mean xk along with
// the measurement Jacobian C and Kalman gain from the last iteration, used
// by the caller to finalize a posterior covariance (Joseph form for Dense,
// block-LQ for Sqrt).
func gaussNewton(x0 mat.Vector, P, R mat.Symmetric, g model.MeasurementEquation, u, y mat.Vector, cfg Config) (xk *mat.VecDense, C, gain *mat.Dense, err error) {
	if cfg.MaxIter < 1 {
		return nil, nil, nil, fmt.Errorf("iekf: MaxIter must be >= 1, got %d", cfg.MaxIter)
	}
	if cfg.MinStepNorm < 0 {
		return nil, nil, nil, fmt.Errorf("iekf: MinStepNorm must be non-negative, got %v", cfg.MinStepNorm)
	}
	ls := cfg.LineSearch
	if ls == nil {
		ls = linesearch.Identity{}
	}

	// cost has no error return: a failing Observe inside it panics, and
	// that panic is turned back into an error here.
	defer func() {
		if r := recover(); r != nil {
			xk, C, gain, err = nil, nil, nil, fmt.Errorf("iekf: cost evaluation failed: %v", r)
		}
	}()

	nx, ny := g.NStates(), g.NOutputs()

	// The prior and measurement quadratic forms in cost are each evaluated
	// via a Cholesky factor and the forward/back-solve composition
	// (matrix.SolveSPD) rather than an explicit Pinv/Rinv matrix, the same
	// factor-only numerical path this package's Sqrt counterpart uses.
	Lp, err := matrix.CholeskyLower(P)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("iekf: prior covariance is singular: %w", err)
	}
	Lr, err := matrix.CholeskyLower(R)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("iekf: measurement noise covariance is singular: %w", err)
	}

	cost := func(x mat.Vector) float64 {
		dx0 := mat.NewVecDense(nx, nil)
		dx0.SubVec(x, x0)
		priorTerm := mat.Dot(dx0, matrix.SolveSPD(Lp, dx0))

		yhat, err := g.Observe(x, u)
		if err != nil {
			panic(err)
		}
		dy := mat.NewVecDense(ny, nil)
		dy.SubVec(y, yhat)
		measTerm := mat.Dot(dy, matrix.SolveSPD(Lr, dy))

		return 0.5*priorTerm + 0.5*measTerm
	}

	xk = mat.NewVecDense(nx, nil)
	xk.CopyVec(x0)

	for iter := 0; iter < cfg.MaxIter; iter++ {
		var jerr error
		C, _, jerr = linearize.MeasurementJacobians(g, xk, u)
		if jerr != nil {
			return nil, nil, nil, fmt.Errorf("iekf: iteration %d: linearization failed: %w", iter, jerr)
		}

		yhatk, jerr := g.Observe(xk, u)
		if jerr != nil {
			return nil, nil, nil, fmt.Errorf("iekf: iteration %d: observation failed: %w", iter, jerr)
		}

		pxy := mat.NewDense(nx, ny, nil)
		pxy.Mul(P, C.T())
		pyy := mat.NewDense(ny, ny, nil)
		pyy.Mul(C, pxy)
		pyy.Add(pyy, R)

		pyyInv := new(mat.Dense)
		if jerr := pyyInv.Inverse(pyy); jerr != nil {
			return nil, nil, nil, fmt.Errorf("iekf: iteration %d: innovation covariance is singular: %w", iter, jerr)
		}
		gain = new(mat.Dense)
		gain.Mul(pxy, pyyInv)

		// modified innovation: (y - g(xk)) - C*(x0 - xk), the Gauss-Newton
		// correction that accounts for xk having drifted from the prior.
		dx0k := mat.NewVecDense(nx, nil)
		dx0k.SubVec(x0, xk)
		cdx0k := mat.NewVecDense(ny, nil)
		cdx0k.MulVec(C, dx0k)

		innov := mat.NewVecDense(ny, nil)
		innov.SubVec(y, yhatk)
		innov.SubVec(innov, cdx0k)

		target := mat.NewVecDense(nx, nil)
		corr := new(mat.Dense)
		corr.Mul(gain, innov)
		target.AddVec(x0, corr.ColView(0))

		direction := mat.NewVecDense(nx, nil)
		direction.SubVec(target, xk)
		dirNormSq := mat.Dot(direction, direction)

		f0 := cost(xk)
		objective := func(alpha float64) float64 {
			trial := mat.NewVecDense(nx, nil)
			trial.AddScaledVec(xk, alpha, direction)
			return cost(trial)
		}

		// alpha == 0 is not an error: it is the line search's "do not
		// move" signal when no step improved on the current cost. The
		// stepNorm check below ends the outer loop on it only when
		// MinStepNorm > 0; otherwise iteration continues to MaxIter.
		alpha, jerr := ls.Search(objective, f0, -dirNormSq)
		if jerr != nil {
			return nil, nil, nil, fmt.Errorf("iekf: iteration %d: line search failed: %w", iter, jerr)
		}

		xNext := mat.NewVecDense(nx, nil)
		xNext.AddScaledVec(xk, alpha, direction)

		step := mat.NewVecDense(nx, nil)
		step.SubVec(xNext, xk)
		stepNorm := mat.Norm(step, 2)

		xk = xNext
		if stepNorm < cfg.MinStepNorm {
			break
		}
	}

	return xk, C, gain, nil
}

// DataStep corrects a predicted dense belief with measurement y through
// the nonlinear measurement equation g, via iterated Gauss-Newton
// relinearization. It returns an error if Config is invalid or a
// Gauss-Newton iteration fails (singular innovation covariance, line
// search failure, or measurement-equation evaluation failure).
func DataStep(predicted *belief.Dense, g model.MeasurementEquation, u, y mat.Vector, R mat.Symmetric, cfg Config) (*belief.Dense, error) {
	x0 := predicted.Mean()
	P := predicted.Covariance()
	nx := g.NStates()

	xk, C, gain, err := gaussNewton(x0, P, R, g, u, y, cfg)
	if err != nil {
		return nil, err
	}

	eye, err := identitymat.NewDenseValIdentity(nx, 1.0)
	if err != nil {
		return nil, fmt.Errorf("iekf: failed to build identity: %w", err)
	}

	kc := new(mat.Dense)
	kc.Mul(gain, C)
	a := new(mat.Dense)
	a.Sub(eye, kc)

	apa := new(mat.Dense)
	apa.Mul(a, P)
	apa.Mul(apa, a.T())

	kr := new(mat.Dense)
	kr.Mul(gain, R)
	kr.Mul(kr, gain.T())
	apa.Add(apa, kr)

	pCorr := mat.NewSymDense(nx, nil)
	for i := 0; i < nx; i++ {
		for j := i; j < nx; j++ {
			pCorr.SetSym(i, j, apa.At(i, j))
		}
	}

	return belief.NewDense(xk, pCorr)
}

// SqrtDataStep is the square-root analog of DataStep. The Gauss-Newton
// iteration itself runs against the materialized covariance (there is no
// numerically awkward step to avoid there, since every iteration is a
// local linearization), but the finalization -- the single covariance
// update at the converged mean -- goes through the same block-LQ
// construction as kalman/lkf.SqrtDataStep and kalman/ekf.SqrtDataStep,
// producing a Sqrt posterior rather than a Joseph-form covariance.
func SqrtDataStep(predicted *belief.Sqrt, g model.MeasurementEquation, u, y mat.Vector, Lr *mat.TriDense, cfg Config) (*belief.Sqrt, error) {
	x0 := predicted.Mean()
	P := predicted.Covariance()
	L := predicted.Factor()
	nx, ny := g.NStates(), g.NOutputs()

	RDense := new(mat.Dense)
	RDense.Mul(Lr, Lr.T())
	R, err := matrix.ToSymDense(RDense)
	if err != nil {
		return nil, fmt.Errorf("iekf: sqrt data step: %w", err)
	}

	xk, C, _, err := gaussNewton(x0, P, R, g, u, y, cfg)
	if err != nil {
		return nil, err
	}

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

	Lxx := mat.NewTriDense(nx, mat.Lower, nil)
	for i := 0; i < nx; i++ {
		for j := 0; j <= i; j++ {
			Lxx.SetTri(i, j, Lfull.At(ny+i, ny+j))
		}
	}

	return belief.NewSqrt(xk, Lxx)
}
