package tracker

import (
	"github.com/swdee/go-rcfollow/descriptor"
	"github.com/swdee/go-rcfollow/gesture"
)

// Detection represents a single person detected in the current frame.  It
// lives for one frame and is consumed by the Tracker.
type Detection struct {
	// Rect is the bounding box of the detected person
	Rect Rect
	// Prob is the confidence/probability of the person detected
	Prob float32
	// KeyPoints are the optional pose keypoints of the person
	KeyPoints []gesture.KeyPoint
	// Gesture is the hand raise classification of the KeyPoints
	Gesture gesture.Result
	// Descriptor is the appearance signature used for re-identification
	Descriptor descriptor.Descriptor
}

// NewDetection is a constructor function for the Detection struct
func NewDetection(rect Rect, prob float32, desc descriptor.Descriptor) Detection {
	return Detection{
		Rect:       rect,
		Prob:       prob,
		Descriptor: desc,
	}
}

// Center returns the integer pixel midpoint of the detection bounding box
func (d Detection) Center() Point {
	return d.Rect.Center()
}
