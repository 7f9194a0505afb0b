package render

import (
	"fmt"

	"github.com/tramsim/tramkf/speed"
	"github.com/tramsim/tramkf/track"
)

// trackChainer advances through an ordered list of track segments,
// re-activating the next descriptor whenever the active one reports
// end-of-segment. It owns the only curvature-side dynamic dispatch in
// the renderer: everything downstream of sample operates on plain
// curvature/dcurvature floats.
type trackChainer struct {
	segs   []track.Segment
	idx    int
	active track.Active
}

func newTrackChainer(segs []track.Segment, pos0 float64) (*trackChainer, error) {
	if len(segs) == 0 {
		return nil, fmt.Errorf("render: track segment list must not be empty")
	}
	active, err := segs[0].Activate(pos0)
	if err != nil {
		return nil, fmt.Errorf("render: activating first track segment: %w", err)
	}
	return &trackChainer{segs: segs, active: active}, nil
}

// sample returns the curvature at pos, advancing through the segment
// list as needed. ok is false once every descriptor has been exhausted
// (end-of-stream, not an error).
func (c *trackChainer) sample(pos float64) (track.Curvature, bool, error) {
	for {
		curv, ok := c.active.Sample(pos)
		if ok {
			return curv, true, nil
		}
		c.idx++
		if c.idx >= len(c.segs) {
			return track.Curvature{}, false, nil
		}
		active, err := c.segs[c.idx].Activate(pos)
		if err != nil {
			return track.Curvature{}, false, fmt.Errorf("render: activating track segment %d: %w", c.idx, err)
		}
		c.active = active
	}
}

// speedChainer is the speed-profile analog of trackChainer.
type speedChainer struct {
	segs   []speed.Segment
	idx    int
	active speed.Active
}

func newSpeedChainer(segs []speed.Segment, time0, pos0, speed0, accel0 float64) (*speedChainer, error) {
	if len(segs) == 0 {
		return nil, fmt.Errorf("render: speed segment list must not be empty")
	}
	active, err := segs[0].Activate(time0, pos0, speed0, accel0)
	if err != nil {
		return nil, fmt.Errorf("render: activating first speed segment: %w", err)
	}
	return &speedChainer{segs: segs, active: active}, nil
}

// sample returns the drive state at (time, pos, speed, accel),
// advancing through the segment list as needed. ok is false once every
// descriptor has been exhausted.
func (c *speedChainer) sample(time, pos, spd, accel float64) (speed.Drive, bool, error) {
	for {
		d, ok := c.active.Drive(time, pos, spd, accel)
		if ok {
			return d, true, nil
		}
		c.idx++
		if c.idx >= len(c.segs) {
			return speed.Drive{}, false, nil
		}
		active, err := c.segs[c.idx].Activate(time, pos, spd, accel)
		if err != nil {
			return speed.Drive{}, false, fmt.Errorf("render: activating speed segment %d: %w", c.idx, err)
		}
		c.active = active
	}
}
