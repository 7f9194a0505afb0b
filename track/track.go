// Package track describes the geometry segments driving the renderer's
// curvature channel: straight sections and turns with clothoid (linear
// curvature ramp) transitions. A Segment is a position-independent
// descriptor; calling Activate at a start distance yields an Active
// segment that can be sampled repeatedly as distance advances.
package track

import (
	"fmt"
	"math"
)

// Curvature is the sample a track segment yields at a given position:
// the instantaneous curvature and its rate of change with respect to
// distance.
type Curvature struct {
	Curvature  float64
	DCurvature float64
}

// Segment is a track geometry descriptor. Activate realizes it starting
// at distance pos0.
type Segment interface {
	Activate(pos0 float64) (Active, error)
}

// Active is a realized track segment. Sample returns the curvature at
// pos and reports whether the segment is still active there; once pos
// reaches the segment's end, ok is false and the caller should activate
// the next descriptor.
type Active interface {
	Sample(pos float64) (c Curvature, ok bool)
}

// Straight is a zero-curvature segment of the given length.
type Straight struct {
	Distance float64
}

// NewStraight creates a straight track segment. distance must be
// positive.
func NewStraight(distance float64) (*Straight, error) {
	if distance <= 0 {
		return nil, fmt.Errorf("track: straight distance must be positive, got %v", distance)
	}
	return &Straight{Distance: distance}, nil
}

// Activate implements Segment.
func (s *Straight) Activate(pos0 float64) (Active, error) {
	return &activeStraight{end: pos0 + s.Distance}, nil
}

type activeStraight struct {
	end float64
}

// Sample implements Active.
func (a *activeStraight) Sample(pos float64) (Curvature, bool) {
	if pos >= a.end {
		return Curvature{}, false
	}
	return Curvature{Curvature: 0, DCurvature: 0}, true
}

// Turn is a constant-radius turn with symmetric clothoid entry/exit
// transitions. Angle is signed (positive left, negative right, by the
// caller's convention); Radius must be positive and TransitionLength
// nonnegative.
type Turn struct {
	Angle            float64
	Radius           float64
	TransitionLength float64
}

// NewTurn creates a track turn segment. radius must be positive;
// transitionLength must be nonnegative.
func NewTurn(angle, radius, transitionLength float64) (*Turn, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("track: turn radius must be positive, got %v", radius)
	}
	if transitionLength < 0 {
		return nil, fmt.Errorf("track: turn transition length must be nonnegative, got %v", transitionLength)
	}
	return &Turn{Angle: angle, Radius: radius, TransitionLength: transitionLength}, nil
}

// Activate implements Segment. It precomputes the trapezoidal curvature
// profile's four breakpoints, per the design: if the transitions alone
// would over-rotate (the requested angle is smaller than what both
// clothoids sweep at full curvature), the transitions are shortened
// symmetrically and no constant-radius arc remains.
func (tr *Turn) Activate(pos0 float64) (Active, error) {
	sign := 1.0
	if tr.Angle < 0 {
		sign = -1.0
	}
	absAngle := math.Abs(tr.Angle)

	kMax := 1.0 / tr.Radius
	thetaT := tr.TransitionLength * kMax

	a := &activeTurn{pos0: pos0, sign: sign}

	if thetaT <= absAngle {
		arcAngle := absAngle - thetaT
		lArc := arcAngle / kMax

		a.tInStart = pos0
		a.arcStart = pos0 + tr.TransitionLength
		a.tOutStart = a.arcStart + lArc
		a.turnEnd = a.tOutStart + tr.TransitionLength
		a.transitionLength = tr.TransitionLength
		a.peakCurvature = sign * kMax
	} else {
		lt := math.Sqrt(absAngle * tr.Radius * tr.TransitionLength)
		peak := tr.Angle / lt

		a.tInStart = pos0
		a.arcStart = pos0 + lt
		a.tOutStart = a.arcStart
		a.turnEnd = a.tOutStart + lt
		a.transitionLength = lt
		a.peakCurvature = peak
	}

	return a, nil
}

type activeTurn struct {
	pos0             float64
	sign             float64
	tInStart         float64
	arcStart         float64
	tOutStart        float64
	turnEnd          float64
	transitionLength float64
	peakCurvature    float64
}

// Sample implements Active.
func (a *activeTurn) Sample(pos float64) (Curvature, bool) {
	if pos >= a.turnEnd {
		return Curvature{}, false
	}

	switch {
	case pos < a.arcStart:
		// entry clothoid: curvature ramps linearly from 0 to peak.
		dc := a.peakCurvature / a.transitionLength
		return Curvature{Curvature: dc * (pos - a.tInStart), DCurvature: dc}, true
	case pos < a.tOutStart:
		// constant-radius arc.
		return Curvature{Curvature: a.peakCurvature, DCurvature: 0}, true
	default:
		// exit clothoid: curvature ramps linearly from peak to 0.
		dc := -a.peakCurvature / a.transitionLength
		return Curvature{Curvature: a.peakCurvature + dc*(pos-a.tOutStart), DCurvature: dc}, true
	}
}
