// Package render drives a rigid-body kinematic ODE across a trajectory
// made of independently chained track-geometry and speed-profile
// segments, producing a ground-truth TramState trajectory.
package render

import "math"

// Index layout of TramState, per the 10-dimensional state vector
// [time, distance, x, y, speed, accel, jerk, heading, curvature,
// dcurvature].
const (
	IdxTime = iota
	IdxDistance
	IdxX
	IdxY
	IdxSpeed
	IdxAccel
	IdxJerk
	IdxHeading
	IdxCurvature
	IdxDCurvature
	nStates
)

// TramState is the 10-dimensional kinematic state of the tram.
type TramState [nStates]float64

// derivative evaluates the kinematic ODE:
//
//	x' = [1, v, v*cos(heading), v*sin(heading), a, j, 0, v*c, v*dc, 0]
func derivative(s TramState) TramState {
	v := s[IdxSpeed]
	phi := s[IdxHeading]
	a := s[IdxAccel]
	j := s[IdxJerk]
	c := s[IdxCurvature]
	dc := s[IdxDCurvature]

	return TramState{
		IdxTime:       1,
		IdxDistance:   v,
		IdxX:          v * math.Cos(phi),
		IdxY:          v * math.Sin(phi),
		IdxSpeed:      a,
		IdxAccel:      j,
		IdxJerk:       0,
		IdxHeading:    v * c,
		IdxCurvature:  v * dc,
		IdxDCurvature: 0,
	}
}

func addScaled(s TramState, h float64, d TramState) TramState {
	var out TramState
	for i := 0; i < nStates; i++ {
		out[i] = s[i] + h*d[i]
	}
	return out
}

// stepKinematics advances s by one RK4 micro-step of size dt. Its
// signature is deliberately monomorphic (TramState, float64) ->
// TramState, with no interface dispatch anywhere in its body: it is the
// hot inner loop of render_trip and the only place where per-step
// allocation-free, inlinable arithmetic matters. All dynamic dispatch
// over heterogeneous segment types is confined to trackChainer and
// speedChainer, one level up.
func stepKinematics(s TramState, dt float64) TramState {
	k1 := derivative(s)
	k2 := derivative(addScaled(s, dt/2, k1))
	k3 := derivative(addScaled(s, dt/2, k2))
	k4 := derivative(addScaled(s, dt, k3))

	var out TramState
	for i := 0; i < nStates; i++ {
		out[i] = s[i] + dt/6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return out
}
