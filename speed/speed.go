// Package speed describes the longitudinal speed profile segments
// driving the renderer's speed/accel/jerk channels: a stationary hold, a
// constant-acceleration ramp, a jerk-limited trapezoidal acceleration
// ramp, and a constant-speed cruise. A Segment is activated against the
// state tuple (time, position, speed, acceleration) observed at the
// moment the previous segment ended, and the resulting Active can be
// sampled repeatedly as time/position advance.
package speed

import (
	"fmt"
	"math"

	"github.com/tramsim/tramkf/interp"
)

// Drive is the sample a speed segment yields at a given time/position.
type Drive struct {
	Speed float64
	Accel float64
	Jerk  float64
}

// Segment is a speed profile descriptor.
type Segment interface {
	Activate(time, pos, speed, accel float64) (Active, error)
}

// Active is a realized speed segment. Drive returns the drive state at
// (time, pos) and reports whether the segment is still active there;
// once exhausted ok is false and the caller should activate the next
// descriptor.
type Active interface {
	Drive(time, pos, speed, accel float64) (d Drive, ok bool)
}

func signOf(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// Stop holds the tram stationary for Duration seconds.
type Stop struct {
	Duration float64
}

// NewStop creates a Stop segment. duration must be positive.
func NewStop(duration float64) (*Stop, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("speed: stop duration must be positive, got %v", duration)
	}
	return &Stop{Duration: duration}, nil
}

// Activate implements Segment.
func (s *Stop) Activate(time, pos, speed, accel float64) (Active, error) {
	return &activeStop{end: time + s.Duration}, nil
}

type activeStop struct {
	end float64
}

// Drive implements Active.
func (a *activeStop) Drive(time, pos, speed, accel float64) (Drive, bool) {
	if time >= a.end {
		return Drive{}, false
	}
	return Drive{Speed: 0, Accel: 0, Jerk: 0}, true
}

// Accelerate ramps the speed linearly to ToSpeed at a constant magnitude
// Acceleration (its sign is derived from the direction of the change).
type Accelerate struct {
	ToSpeed      float64
	Acceleration float64
}

// NewAccelerate creates an Accelerate segment. acceleration must be
// positive; its sign is chosen automatically from the speed delta at
// activation.
func NewAccelerate(toSpeed, acceleration float64) (*Accelerate, error) {
	if acceleration <= 0 {
		return nil, fmt.Errorf("speed: acceleration must be positive, got %v", acceleration)
	}
	return &Accelerate{ToSpeed: toSpeed, Acceleration: acceleration}, nil
}

// Activate implements Segment.
func (s *Accelerate) Activate(time, pos, speed, accel float64) (Active, error) {
	dv := s.ToSpeed - speed
	duration := math.Abs(dv) / s.Acceleration
	a := signOf(dv) * s.Acceleration

	return &activeAccelerate{
		t0: time, t1: time + duration,
		v0: speed, v1: s.ToSpeed,
		a: a,
	}, nil
}

type activeAccelerate struct {
	t0, t1 float64
	v0, v1 float64
	a      float64
}

// Drive implements Active.
func (a *activeAccelerate) Drive(time, pos, speed, accel float64) (Drive, bool) {
	if time >= a.t1 {
		return Drive{}, false
	}
	v := interp.Lerp(a.t0, a.v0, a.t1, a.v1, time)
	return Drive{Speed: v, Accel: a.a, Jerk: 0}, true
}

// SmoothlyAccelerate ramps the speed to ToSpeed with a trapezoidal
// acceleration profile: a jerk-limited ramp up to a peak acceleration,
// an optional constant-acceleration cruise, and a jerk-limited ramp back
// to zero acceleration. Acceleration and Jerk are magnitudes; the peak
// acceleration's sign and the ramps' jerk signs are derived from the
// direction of the speed delta at activation.
type SmoothlyAccelerate struct {
	ToSpeed      float64
	Acceleration float64
	Jerk         float64
}

// NewSmoothlyAccelerate creates a SmoothlyAccelerate segment.
// acceleration must be positive. jerk must be nonzero: with jerk == 0
// the ramp duration Acceleration/Jerk is undefined (division by zero),
// so this is rejected as a domain error at construction rather than at
// activation.
func NewSmoothlyAccelerate(toSpeed, acceleration, jerk float64) (*SmoothlyAccelerate, error) {
	if acceleration <= 0 {
		return nil, fmt.Errorf("speed: acceleration must be positive, got %v", acceleration)
	}
	if jerk == 0 {
		return nil, fmt.Errorf("speed: jerk must be nonzero")
	}
	return &SmoothlyAccelerate{ToSpeed: toSpeed, Acceleration: math.Abs(acceleration), Jerk: math.Abs(jerk)}, nil
}

// Activate implements Segment.
func (s *SmoothlyAccelerate) Activate(time, pos, speed, accel float64) (Active, error) {
	dv := s.ToSpeed - speed
	absDv := math.Abs(dv)
	sign := signOf(dv)

	tRamp := s.Acceleration / s.Jerk
	dvRamp := tRamp * s.Acceleration

	var peak, rampDur, cruiseDur float64
	if dvRamp < absDv {
		peak = sign * s.Acceleration
		rampDur = tRamp
		cruiseDur = (absDv - dvRamp) / s.Acceleration
	} else {
		peakAbs := math.Sqrt(s.Jerk * absDv)
		peak = sign * peakAbs
		rampDur = peakAbs / s.Jerk
		cruiseDur = 0
	}

	jerkSigned := 0.0
	if rampDur > 0 {
		jerkSigned = peak / rampDur
	}

	v1 := speed + 0.5*peak*rampDur
	v2 := v1 + peak*cruiseDur

	return &activeSmoothAccel{
		t0: time, v0: speed,
		v1: v1, v2: v2,
		peak: peak, jerk: jerkSigned,
		rampDur: rampDur, cruiseDur: cruiseDur,
	}, nil
}

type activeSmoothAccel struct {
	t0, v0    float64
	v1, v2    float64
	peak      float64
	jerk      float64
	rampDur   float64
	cruiseDur float64
}

// Drive implements Active. A query with time before t0 (which should not
// occur in normal chaining, but can arise from floating-point jitter
// right at activation) returns the initial speed with zero
// acceleration/jerk rather than any undefined pre-ramp value.
func (a *activeSmoothAccel) Drive(time, pos, speed, accel float64) (Drive, bool) {
	tau := time - a.t0
	if tau < 0 {
		return Drive{Speed: a.v0, Accel: 0, Jerk: 0}, true
	}

	total := 2*a.rampDur + a.cruiseDur
	if tau >= total {
		return Drive{}, false
	}

	switch {
	case tau < a.rampDur:
		j := a.jerk
		return Drive{Speed: a.v0 + 0.5*j*tau*tau, Accel: j * tau, Jerk: j}, true
	case tau < a.rampDur+a.cruiseDur:
		tc := tau - a.rampDur
		return Drive{Speed: a.v1 + a.peak*tc, Accel: a.peak, Jerk: 0}, true
	default:
		td := tau - a.rampDur - a.cruiseDur
		j := -a.jerk
		return Drive{Speed: a.v2 + a.peak*td + 0.5*j*td*td, Accel: a.peak + j*td, Jerk: j}, true
	}
}

// ConstantSpeed holds the tram at a constant Speed for Distance meters.
type ConstantSpeed struct {
	Speed    float64
	Distance float64
}

// NewConstantSpeed creates a ConstantSpeed segment. distance must be
// positive.
func NewConstantSpeed(speed, distance float64) (*ConstantSpeed, error) {
	if distance <= 0 {
		return nil, fmt.Errorf("speed: constant-speed distance must be positive, got %v", distance)
	}
	return &ConstantSpeed{Speed: speed, Distance: distance}, nil
}

// Activate implements Segment.
func (s *ConstantSpeed) Activate(time, pos, speed, accel float64) (Active, error) {
	return &activeConstantSpeed{end: pos + s.Distance, speed: s.Speed}, nil
}

type activeConstantSpeed struct {
	end   float64
	speed float64
}

// Drive implements Active.
func (a *activeConstantSpeed) Drive(time, pos, speed, accel float64) (Drive, bool) {
	if pos >= a.end {
		return Drive{}, false
	}
	return Drive{Speed: a.speed, Accel: 0, Jerk: 0}, true
}
