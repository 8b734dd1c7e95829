package control

import (
	"github.com/vidloop/keystoned/internal/color"
	"github.com/vidloop/keystoned/pkg/colorstate"
)

// FrameSource is the subset of internal/pipeline.Pipeline the control
// plane needs for auto white balance: a point-in-time copy of the most
// recent post-decode frame (spec §5).
type FrameSource interface {
	LatestRGB() (data []byte, width, height int, ok bool)
}

// ErrNoFrameYet is returned when AWB is requested before the pipeline
// has decoded its first frame.
var ErrNoFrameYet = errNoFrameYet{}

type errNoFrameYet struct{}

func (errNoFrameYet) Error() string { return "control: no frame decoded yet" }

// AutoWhiteBalance implements spec §4.4/§4.9's synchronous AWB: sample
// the latest post-decode frame, compute gains, and publish them if the
// quality gate passes.
func (c *Controller) AutoWhiteBalance(frames FrameSource) (red, green, blue float64, err error) {
	rgb, width, height, ok := frames.LatestRGB()
	if !ok {
		return 0, 0, 0, ErrNoFrameYet
	}

	red, green, blue, err = color.AutoWhiteBalance(rgb, width, height)
	if err != nil {
		return 0, 0, 0, err
	}

	_, err = c.State.MutateColor(func(s colorstate.State) (colorstate.State, error) {
		s.RedGain, s.GreenGain, s.BlueGain = red, green, blue
		return s, s.Validate()
	})
	if err != nil {
		return 0, 0, 0, err
	}
	return red, green, blue, nil
}
