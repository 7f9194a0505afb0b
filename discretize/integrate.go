// Package discretize turns a continuous-time state equation into a
// discrete-time one via fixed-step Euler or RK4 integration, as consumed
// by the EKF/IEKF (through linearize) and by the trajectory renderer.
package discretize

import (
	"fmt"

	"github.com/tramsim/tramkf/model"
	"gonum.org/v1/gonum/mat"
)

// Euler advances x by one Euler step of size dt: x + f(x,u)*dt.
func Euler(f model.ContinuousStateEquation, x, u mat.Vector, dt float64) (mat.Vector, error) {
	dx, err := f.Derivative(x, u)
	if err != nil {
		return nil, fmt.Errorf("discretize: Euler step failed: %w", err)
	}

	out := mat.NewVecDense(x.Len(), nil)
	out.AddScaledVec(x, dt, dx)
	return out, nil
}

// RK4 advances x by one classic fourth-order Runge-Kutta step of size dt.
func RK4(f model.ContinuousStateEquation, x, u mat.Vector, dt float64) (mat.Vector, error) {
	k1, err := f.Derivative(x, u)
	if err != nil {
		return nil, fmt.Errorf("discretize: RK4 stage 1 failed: %w", err)
	}

	x2 := mat.NewVecDense(x.Len(), nil)
	x2.AddScaledVec(x, dt/2, k1)
	k2, err := f.Derivative(x2, u)
	if err != nil {
		return nil, fmt.Errorf("discretize: RK4 stage 2 failed: %w", err)
	}

	x3 := mat.NewVecDense(x.Len(), nil)
	x3.AddScaledVec(x, dt/2, k2)
	k3, err := f.Derivative(x3, u)
	if err != nil {
		return nil, fmt.Errorf("discretize: RK4 stage 3 failed: %w", err)
	}

	x4 := mat.NewVecDense(x.Len(), nil)
	x4.AddScaledVec(x, dt, k3)
	k4, err := f.Derivative(x4, u)
	if err != nil {
		return nil, fmt.Errorf("discretize: RK4 stage 4 failed: %w", err)
	}

	sum := mat.NewVecDense(x.Len(), nil)
	sum.AddVec(k1, k4)
	k23 := mat.NewVecDense(x.Len(), nil)
	k23.AddVec(k2, k3)
	sum.AddScaledVec(sum, 2, k23)

	out := mat.NewVecDense(x.Len(), nil)
	out.AddScaledVec(x, dt/6, sum)
	return out, nil
}
