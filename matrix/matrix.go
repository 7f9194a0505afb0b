package matrix

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// CholeskyLower computes the lower Cholesky factor L of the symmetric
// positive-definite matrix cov, such that cov = L*L'. It returns an error
// if cov is not positive-definite.
func CholeskyLower(cov mat.Symmetric) (*mat.TriDense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		return nil, errors.New("matrix: Cholesky factorization failed, matrix not positive-definite")
	}

	n := cov.SymmetricDim()
	L := mat.NewTriDense(n, mat.Lower, nil)
	chol.LTo(L)

	return L, nil
}

// LQLower computes the lower-triangular factor L of the LQ decomposition
// of m, i.e. L such that m = L*Q for some matrix Q with orthonormal rows.
// m must have at least as many columns as rows (rows <= cols); both of
// this module's block matrices (the forward-step block row and the
// data-step block square) satisfy that shape.
//
// It is computed via the QR decomposition of m': m' = Qa*Ra, where Ra is
// upper-trapezoidal with a square upper-triangular block R1 in its first
// `rows` rows. Then m = Ra'*Qa', so L = R1' with its diagonal sign-flipped
// to be non-negative (the Cholesky-factor sign convention).
func LQLower(m mat.Matrix) *mat.TriDense {
	rows, cols := m.Dims()

	var qr mat.QR
	qr.Factorize(m.T())

	R := mat.NewDense(cols, rows, nil)
	qr.RTo(R)

	L := mat.NewTriDense(rows, mat.Lower, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j <= i; j++ {
			L.SetTri(i, j, R.At(j, i))
		}
	}

	for i := 0; i < rows; i++ {
		if L.At(i, i) < 0 {
			for j := 0; j <= i; j++ {
				L.SetTri(i, j, -L.At(i, j))
			}
		}
	}

	return L
}

// ForwardSolve solves L*x = b for x, where L is lower-triangular.
func ForwardSolve(L *mat.TriDense, b mat.Vector) *mat.VecDense {
	n, _ := L.Dims()
	x := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		sum := b.AtVec(i)
		for j := 0; j < i; j++ {
			sum -= L.At(i, j) * x.AtVec(j)
		}
		x.SetVec(i, sum/L.At(i, i))
	}
	return x
}

// BackSolveTransposed solves L'*x = b for x, where L is lower-triangular
// (so L' is upper-triangular).
func BackSolveTransposed(L *mat.TriDense, b mat.Vector) *mat.VecDense {
	n, _ := L.Dims()
	x := mat.NewVecDense(n, nil)
	for i := n - 1; i >= 0; i-- {
		sum := b.AtVec(i)
		for j := i + 1; j < n; j++ {
			sum -= L.At(j, i) * x.AtVec(j)
		}
		x.SetVec(i, sum/L.At(i, i))
	}
	return x
}

// SolveSPD solves (L*L')*x = b for x, where L is the lower Cholesky
// factor of a symmetric positive-definite matrix. It composes a forward
// solve with a back solve rather than forming the matrix's inverse, so a
// precision-weighted quantity is evaluated without ever materializing a
// precision matrix.
func SolveSPD(L *mat.TriDense, b mat.Vector) *mat.VecDense {
	return BackSolveTransposed(L, ForwardSolve(L, b))
}

// LogDetTri returns log|det(L)| for a triangular matrix L: the sum of the
// logs of the absolute value of its diagonal entries.
func LogDetTri(L *mat.TriDense) float64 {
	n, _ := L.Dims()
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Log(math.Abs(L.At(i, i)))
	}
	return sum
}

// Format returns matrix formatter for printing matrices
func Format(m mat.Matrix) fmt.Formatter {
	return mat.Formatted(m, mat.Prefix(""), mat.Squeeze())
}

// RowSums returns a slice containing m row sums.
// It panics if m is nil.
func RowSums(m *mat.Dense) []float64 {
	rows, _ := m.Dims()
	sum := make([]float64, rows)

	for i := 0; i < rows; i++ {
		sum[i] = floats.Sum(m.RawRowView(i))
	}

	return sum
}

// ColSums returns a slice containing m column sums.
// It panics if m is nil.
func ColSums(m *mat.Dense) []float64 {
	_, cols := m.Dims()
	sum := make([]float64, cols)

	for i := 0; i < cols; i++ {
		sum[i] = mat.Sum(m.ColView(i))
	}

	return sum
}

// RowsMean returns a slice containing m row mean values.
// It panics if m is nil
func RowsMean(m *mat.Dense) []float64 {
	rows, _ := m.Dims()
	mean := ColSums(m)

	floats.Scale(1/float64(rows), mean)

	return mean
}

// ColsMean returns a slice containing m column mean values.
// It panics if m is nil
func ColsMean(m *mat.Dense) []float64 {
	_, cols := m.Dims()
	mean := RowSums(m)

	floats.Scale(1/float64(cols), mean)

	return mean
}

// Cov calculates a covariance matrix of data stored across dim dimension.
// It returns error if the covariance could not be calculated.
func Cov(m *mat.Dense, dim string) (*mat.SymDense, error) {
	// 1. We will calculate zero mean matrix x of the data
	// 2. 1/(n-1)(x * x^T) will give us covariance of the data
	rows, cols := m.Dims()

	// calculate mean data vector across dimension dim
	var mean []float64
	var count float64
	if strings.EqualFold(dim, "rows") {
		mean = RowsMean(m)
		count = float64(rows)
	} else {
		mean = ColsMean(m)
		count = float64(cols)
	}

	// x is zero-mean matrix of data stored in dimension dim
	x := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if strings.EqualFold(dim, "rows") {
				x.Set(r, c, m.At(r, c)-mean[c])
			} else {
				x.Set(r, c, m.At(r, c)-mean[r])
			}
		}
	}

	cov := new(mat.Dense)
	cov.Mul(x, x.T())
	cov.Scale(1/(count-1.0), cov)

	return ToSymDense(cov)
}

// ToSymDense converts m to SymDense (symmetric Dense matrix) if possible.
// It returns error if the provided Dense matrix is not symmetric.
func ToSymDense(m *mat.Dense) (*mat.SymDense, error) {
	r, c := m.Dims()
	if r != c {
		return nil, errors.New("Matrix must be square")
	}

	mT := m.T()
	vals := make([]float64, r*c)
	idx := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if i != j && !floats.EqualWithinAbsOrRel(mT.At(i, j), m.At(i, j), 1e-6, 1e-2) {
				return nil, fmt.Errorf("Matrix not symmetric (%d, %d): %.40f != %.40f\n%v",
					i, j, mT.At(i, j), m.At(i, j), Format(m))
			}
			vals[idx] = m.At(i, j)
			idx++
		}
	}

	return mat.NewSymDense(r, vals), nil
}
