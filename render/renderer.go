package render

import (
	"fmt"

	"github.com/tramsim/tramkf/noise"
	"github.com/tramsim/tramkf/speed"
	"github.com/tramsim/tramkf/track"
)

// RenderTrip chains an ordered list of track segments and an ordered
// list of speed-profile segments into a single ground-truth trajectory:
// at every micro-step of size dt/subsamples it samples both chainers,
// overwrites the geometry and longitudinal channels of the kinematic
// state, advances the state by one RK4 micro-step, and every
// subsamples-th micro-step appends the state to the output.
//
// Segment transitions are resolved strictly between micro-steps: both
// chainers are sampled, and any segment advances they trigger are
// applied, before the RK4 evaluation that uses their output. The
// trajectory ends (without error) once either chainer exhausts its
// descriptor list.
func RenderTrip(tracks []track.Segment, trips []speed.Segment, dt float64, subsamples int, state0 TramState) ([]TramState, error) {
	return renderTrip(tracks, trips, dt, subsamples, state0, nil)
}

// RenderTripDefault renders a trip with subsamples=1 and a zero initial
// state, mirroring the library's default entry point.
func RenderTripDefault(tracks []track.Segment, trips []speed.Segment, dt float64) ([]TramState, error) {
	return RenderTrip(tracks, trips, dt, 1, TramState{})
}

// RenderTripWithNoise is RenderTrip with a heading disturbance injected at
// every micro-step: after each RK4 step, a scalar sample drawn from
// headingNoise is added to the state's heading channel, simulating a
// steering/actuation disturbance on an otherwise noiseless ground truth.
// headingNoise must be one-dimensional. Use this to generate a perturbed
// trajectory for exercising a filter's ability to track back onto the
// nominal one.
func RenderTripWithNoise(tracks []track.Segment, trips []speed.Segment, dt float64, subsamples int, state0 TramState, headingNoise *noise.Gaussian) ([]TramState, error) {
	if headingNoise == nil {
		return nil, fmt.Errorf("render: headingNoise must not be nil")
	}
	if len(headingNoise.Mean()) != 1 {
		return nil, fmt.Errorf("render: headingNoise must be one-dimensional, got %d", len(headingNoise.Mean()))
	}
	return renderTrip(tracks, trips, dt, subsamples, state0, headingNoise)
}

func renderTrip(tracks []track.Segment, trips []speed.Segment, dt float64, subsamples int, state0 TramState, headingNoise *noise.Gaussian) ([]TramState, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("render: dt must be positive, got %v", dt)
	}
	if subsamples < 1 {
		return nil, fmt.Errorf("render: subsamples must be >= 1, got %d", subsamples)
	}

	trackC, err := newTrackChainer(tracks, state0[IdxDistance])
	if err != nil {
		return nil, err
	}
	speedC, err := newSpeedChainer(trips, state0[IdxTime], state0[IdxDistance], state0[IdxSpeed], state0[IdxAccel])
	if err != nil {
		return nil, err
	}

	micro := dt / float64(subsamples)

	state := state0
	var out []TramState

	for n := 1; ; n++ {
		curv, ok, err := trackC.sample(state[IdxDistance])
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		drv, ok, err := speedC.sample(state[IdxTime], state[IdxDistance], state[IdxSpeed], state[IdxAccel])
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		state[IdxCurvature] = curv.Curvature
		state[IdxDCurvature] = curv.DCurvature
		state[IdxSpeed] = drv.Speed
		state[IdxAccel] = drv.Accel
		state[IdxJerk] = drv.Jerk

		// time is derived from the iteration index rather than
		// accumulated by repeated addition, to avoid floating-point
		// drift over long trajectories.
		state[IdxTime] = float64(n-1) * micro

		state = stepKinematics(state, micro)

		if headingNoise != nil {
			state[IdxHeading] += headingNoise.Sample().AtVec(0)
		}

		if n%subsamples == 0 {
			out = append(out, state)
		}
	}

	return out, nil
}
