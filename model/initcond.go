package model

import "gonum.org/v1/gonum/mat"

// InitCond holds an initial state and its covariance. No filter or
// renderer function in this module takes an InitCond as an argument.
type InitCond struct {
	state *mat.VecDense
	cov   *mat.SymDense
}

// NewInitCond creates a new InitCond, cloning state and cov so that later
// mutation of the caller's matrices does not affect it.
func NewInitCond(state mat.Vector, cov mat.Symmetric) *InitCond {
	s := mat.NewVecDense(state.Len(), nil)
	s.CloneFromVec(state)

	c := mat.NewSymDense(cov.SymmetricDim(), nil)
	c.CopySym(cov)

	return &InitCond{state: s, cov: c}
}

// State returns a copy of the initial state.
func (c *InitCond) State() mat.Vector {
	s := mat.NewVecDense(c.state.Len(), nil)
	s.CloneFromVec(c.state)
	return s
}

// Cov returns a copy of the initial covariance.
func (c *InitCond) Cov() mat.Symmetric {
	cov := mat.NewSymDense(c.cov.SymmetricDim(), nil)
	cov.CopySym(c.cov)
	return cov
}
