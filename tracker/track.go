package tracker

import (
	"github.com/swdee/go-rcfollow/descriptor"
	"github.com/swdee/go-rcfollow/gesture"
)

// Track represents the persistent identity of one person across frames
type Track struct {
	// Unique ID for the track, never reused
	trackID int
	// Bounding box of the last matched detection
	rect Rect
	// Appearance descriptor of the last matched detection
	descriptor descriptor.Descriptor
	// Center point of the bounding box
	center Point
	// hits is the number of frames a detection has been matched to the track
	hits int
	// age is the number of frames since the track was last matched
	age int
	// Detection score of the last matched detection
	score float32
	// trail is the bounded history of center points
	trail *Trail
	// gesture is the latest gesture state seen on the track
	gesture gesture.Result
	// keyPoints are the pose keypoints of the last matched detection
	keyPoints []gesture.KeyPoint
}

// newTrack creates a Track from an unmatched detection
func newTrack(trackID int, det Detection, trailSize int) *Track {

	t := &Track{
		trackID: trackID,
		trail:   NewTrail(trailSize),
	}

	t.apply(det)
	t.hits = 1

	return t
}

// GetTrackID returns the unique ID for the track
func (t *Track) GetTrackID() int {
	return t.trackID
}

// GetRect returns the bounding box of the tracked person
func (t *Track) GetRect() Rect {
	return t.rect
}

// GetDescriptor returns the current appearance descriptor
func (t *Track) GetDescriptor() descriptor.Descriptor {
	return t.descriptor
}

// GetCenter returns the center point of the current bounding box
func (t *Track) GetCenter() Point {
	return t.center
}

// GetHits returns the number of frames the track has been matched
func (t *Track) GetHits() int {
	return t.hits
}

// GetAge returns the number of frames since the track was last matched
func (t *Track) GetAge() int {
	return t.age
}

// GetScore returns the detection score of the last matched detection
func (t *Track) GetScore() float32 {
	return t.score
}

// GetGesture returns the latest gesture state of the track
func (t *Track) GetGesture() gesture.Result {
	return t.gesture
}

// GetTrail returns the center point history of the track, oldest first
func (t *Track) GetTrail() []Point {
	return t.trail.Points()
}

// GetKeyPoints returns the pose keypoints of the last matched detection
func (t *Track) GetKeyPoints() []gesture.KeyPoint {
	return t.keyPoints
}

// IsConfirmed returns whether the track has been matched at least minHits
// times
func (t *Track) IsConfirmed(minHits int) bool {
	return t.hits >= minHits
}

// Update refreshes the track with a newly matched detection
func (t *Track) Update(det Detection) {
	t.apply(det)
	t.hits++
	t.age = 0
}

// MarkMissed ages the track by one frame
func (t *Track) MarkMissed() {
	t.age++
}

func (t *Track) apply(det Detection) {
	t.rect = det.Rect
	t.descriptor = det.Descriptor
	t.center = det.Center()
	t.score = det.Prob
	t.gesture = det.Gesture
	t.keyPoints = det.KeyPoints
	t.trail.Add(t.center)
}
