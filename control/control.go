package control

import (
	"github.com/swdee/go-rcfollow/gesture"
	"github.com/swdee/go-rcfollow/tracker"
)

// Steering is the orientation adjustment needed to keep the followed person
// centered in frame
type Steering int

const (
	SteerCenter Steering = 0
	SteerLeft   Steering = 1
	SteerRight  Steering = 2
)

// Action returns the vehicle wire action for the steering decision
func (s Steering) Action() string {
	switch s {
	case SteerLeft:
		return "track_left"
	case SteerRight:
		return "track_right"
	default:
		return "track_center"
	}
}

func (s Steering) String() string {
	switch s {
	case SteerLeft:
		return "LEFT"
	case SteerRight:
		return "RIGHT"
	default:
		return "CENTER"
	}
}

// Drive is the motion decision derived from the followed person's gesture
type Drive int

const (
	DriveStop    Drive = 0
	DriveForward Drive = 1
)

// Gesture returns the vehicle wire gesture for the drive decision.  The
// vehicle firmware drives forward on a left hand gesture and stops on none.
func (d Drive) Gesture() string {
	if d == DriveForward {
		return gesture.Left.String()
	}
	return gesture.None.String()
}

func (d Drive) String() string {
	if d == DriveForward {
		return "FORWARD"
	}
	return "STOP"
}

// DriveFor maps a gesture to a drive decision.  Only a single raised left
// hand moves the vehicle, right, both or no hands stop it.
func DriveFor(g gesture.Result) Drive {
	if g.Raised && g.Side == gesture.Left {
		return DriveForward
	}
	return DriveStop
}

// Params defines the Controller settings
type Params struct {
	// Threshold is the pixel offset from the frame center the person may
	// drift before steering is applied
	Threshold int
	// Enabled turns steering on or off, when off steering is always center
	Enabled bool
	// SoftTracking allows steering toward the unlocked track nearest the
	// frame center when nobody is locked
	SoftTracking bool
}

// DefaultParams returns the default Controller settings
func DefaultParams() Params {
	return Params{
		Threshold:    50,
		Enabled:      true,
		SoftTracking: true,
	}
}

// Decision is the result of the Controller for one frame
type Decision struct {
	Steering Steering
	Drive    Drive
	// TargetID is the track being steered toward, 0 for none
	TargetID int
	// Soft is true when steering toward an unlocked track
	Soft bool
}

// Controller converts the followed person's position and gesture into
// steering and drive decisions
type Controller struct {
	params Params
}

// NewController returns a tracking Controller
func NewController(p Params) *Controller {
	return &Controller{params: p}
}

// Params returns the current Controller settings
func (c *Controller) Params() Params {
	return c.params
}

// SetThreshold adjusts the steering sensitivity in pixels
func (c *Controller) SetThreshold(threshold int) {
	c.params.Threshold = threshold
}

// SetEnabled turns steering on or off
func (c *Controller) SetEnabled(enabled bool) {
	c.params.Enabled = enabled
}

// Steer returns the steering decision for a person whose center is at
// centerX in a frame of the given width.  When ok is false there is no
// person to steer toward.
func (c *Controller) Steer(frameWidth, centerX int, ok bool) Steering {

	if !c.params.Enabled || !ok {
		return SteerCenter
	}

	offset := centerX - frameWidth/2

	switch {
	case offset < -c.params.Threshold:
		return SteerLeft
	case offset > c.params.Threshold:
		return SteerRight
	default:
		return SteerCenter
	}
}

// Decide returns the steering and drive decision for a frame.  Locked is the
// locked track if present this frame, confirmed are all confirmed tracks.
// A locked track not matched this frame keeps the steering but stops, its
// gesture is from an earlier frame.
func (c *Controller) Decide(frameWidth int, locked *tracker.Track,
	confirmed []*tracker.Track) Decision {

	if locked != nil {
		drive := DriveStop
		if locked.GetAge() == 0 {
			drive = DriveFor(locked.GetGesture())
		}

		return Decision{
			Steering: c.Steer(frameWidth, locked.GetCenter().X, true),
			Drive:    drive,
			TargetID: locked.GetTrackID(),
		}
	}

	if c.params.SoftTracking {
		if nearest := Nearest(frameWidth, confirmed); nearest != nil {
			return Decision{
				Steering: c.Steer(frameWidth, nearest.GetCenter().X, true),
				Drive:    DriveStop,
				TargetID: nearest.GetTrackID(),
				Soft:     true,
			}
		}
	}

	return Decision{Steering: SteerCenter, Drive: DriveStop}
}

// Nearest returns the track whose center is horizontally closest to the
// frame center, the lowest track ID wins ties
func Nearest(frameWidth int, tracks []*tracker.Track) *tracker.Track {

	var best *tracker.Track
	bestDist := 0

	for _, track := range tracks {
		dist := abs(track.GetCenter().X - frameWidth/2)

		if best == nil || dist < bestDist ||
			(dist == bestDist && track.GetTrackID() < best.GetTrackID()) {
			best = track
			bestDist = dist
		}
	}

	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// StatusText describes the gesture and the resulting motion for display
func StatusText(g gesture.Result) string {

	if !g.Raised {
		return "No hand gesture - STOPPED"
	}

	switch g.Side {
	case gesture.Left:
		return "LEFT hand - FORWARD"
	case gesture.Right:
		return "RIGHT hand - STOP"
	case gesture.Both:
		return "BOTH hands - STOP"
	default:
		return "Hand detected"
	}
}
