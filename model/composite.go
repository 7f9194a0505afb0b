package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// CompositeMeasurement concatenates the outputs of a sequence of
// sub-measurements sharing NStates and NInputs. Its NOutputs is the sum of
// the sub-measurements' NOutputs.
type CompositeMeasurement struct {
	subs []MeasurementEquation
	nx   int
	nu   int
	ny   int
}

// NewCompositeMeasurement creates a CompositeMeasurement from subs. It
// returns an error if subs is empty or if the sub-measurements disagree on
// NStates or NInputs.
func NewCompositeMeasurement(subs ...MeasurementEquation) (*CompositeMeasurement, error) {
	if len(subs) == 0 {
		return nil, fmt.Errorf("model: composite measurement requires at least one sub-measurement")
	}

	nx, nu := subs[0].NStates(), subs[0].NInputs()
	ny := 0
	for i, s := range subs {
		if s.NStates() != nx {
			return nil, fmt.Errorf("model: sub-measurement %d has NStates %d, want %d", i, s.NStates(), nx)
		}
		if s.NInputs() != nu {
			return nil, fmt.Errorf("model: sub-measurement %d has NInputs %d, want %d", i, s.NInputs(), nu)
		}
		ny += s.NOutputs()
	}

	return &CompositeMeasurement{subs: subs, nx: nx, nu: nu, ny: ny}, nil
}

// NStates implements MeasurementEquation.
func (c *CompositeMeasurement) NStates() int { return c.nx }

// NInputs implements MeasurementEquation.
func (c *CompositeMeasurement) NInputs() int { return c.nu }

// NOutputs implements MeasurementEquation.
func (c *CompositeMeasurement) NOutputs() int { return c.ny }

// Observe implements MeasurementEquation, concatenating the outputs of
// each sub-measurement in order.
func (c *CompositeMeasurement) Observe(x, u mat.Vector) (mat.Vector, error) {
	out := mat.NewVecDense(c.ny, nil)
	offset := 0
	for _, s := range c.subs {
		y, err := s.Observe(x, u)
		if err != nil {
			return nil, fmt.Errorf("model: composite sub-measurement failed: %w", err)
		}
		for i := 0; i < y.Len(); i++ {
			out.SetVec(offset+i, y.AtVec(i))
		}
		offset += y.Len()
	}
	return out, nil
}
