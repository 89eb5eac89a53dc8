package gesture

/* COCO pose keypoints used for hand raise detection
5: Left Shoulder
6: Right Shoulder
7: Left Elbow
8: Right Elbow
9: Left Wrist
10: Right Wrist
*/

const (
	// KeyPointsNumber is the number of COCO keypoints representing different
	// parts of the body the pose model is trained on
	KeyPointsNumber = 17

	leftShoulder  = 5
	rightShoulder = 6
	leftElbow     = 7
	rightElbow    = 8
	leftWrist     = 9
	rightWrist    = 10
)

// KeyPoint is a single body keypoint in pixel space with the detectors
// confidence score for it
type KeyPoint struct {
	X     float32
	Y     float32
	Score float32
}

// Side represents which hand, if any, is raised
type Side int

const (
	None  Side = 0
	Left  Side = 1
	Right Side = 2
	Both  Side = 3
)

// String returns the wire name of the side
func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	case Both:
		return "both"
	default:
		return "none"
	}
}

// ParseSide converts a wire name back into a Side. Unknown names map to None.
func ParseSide(name string) Side {
	switch name {
	case "left":
		return Left
	case "right":
		return Right
	case "both":
		return Both
	default:
		return None
	}
}

// Result is the gesture classification of a single detection
type Result struct {
	// Raised is true when at least one hand is raised
	Raised bool
	// Side is which hand is raised
	Side Side
}

// Classifier derives a raised hand signal from pose keypoints
type Classifier struct {
	// threshold is the minimum keypoint score for it to be considered visible
	threshold float32
}

// NewClassifier returns a Classifier using the given keypoint confidence
// threshold, eg: 0.5
func NewClassifier(threshold float32) *Classifier {
	return &Classifier{threshold: threshold}
}

// Classify determines if the person described by the keypoints has a hand
// raised.  A hand is raised when the wrist is above the elbow and the elbow
// is above the shoulder, all three being visible.
func (c *Classifier) Classify(kps []KeyPoint) Result {

	if len(kps) < KeyPointsNumber {
		return Result{}
	}

	left := c.raised(kps[leftShoulder], kps[leftElbow], kps[leftWrist])
	right := c.raised(kps[rightShoulder], kps[rightElbow], kps[rightWrist])

	switch {
	case left && right:
		return Result{Raised: true, Side: Both}
	case left:
		return Result{Raised: true, Side: Left}
	case right:
		return Result{Raised: true, Side: Right}
	}

	return Result{}
}

// raised checks a single arm. Image y coordinates grow downwards.
func (c *Classifier) raised(shoulder, elbow, wrist KeyPoint) bool {

	if !c.visible(shoulder) || !c.visible(elbow) || !c.visible(wrist) {
		return false
	}

	return wrist.Y < elbow.Y && elbow.Y < shoulder.Y
}

func (c *Classifier) visible(kp KeyPoint) bool {
	return kp.Score > c.threshold
}
