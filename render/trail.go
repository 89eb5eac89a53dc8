package render

import (
	"image"
	"image/color"

	"github.com/swdee/go-rcfollow/tracker"
	"gocv.io/x/gocv"
)

// TrailStyle defines the parameters used for rendering the trail style
type TrailStyle struct {
	// LineSame draws the trail in the track color instead of LineColor
	LineSame      bool
	LineColor     color.RGBA
	LineThickness int
	// CircleSame draws the current center in the track color instead of
	// CircleColor
	CircleSame   bool
	CircleColor  color.RGBA
	CircleRadius int
}

// DefaultTrailStyle returns default trail style settings
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineSame:      false,
		LineColor:     Yellow,
		LineThickness: 1,
		CircleSame:    true,
		CircleColor:   Pink,
		CircleRadius:  3,
	}
}

// Trail draws the center point history of each track
func Trail(img *gocv.Mat, tracks []*tracker.Track, lockedID int, style TrailStyle) {

	for _, track := range tracks {

		objClr := trackColor(track.GetTrackID(), lockedID)

		lineClr := objClr
		circleClr := objClr

		if !style.LineSame {
			lineClr = style.LineColor
		}

		if !style.CircleSame {
			circleClr = style.CircleColor
		}

		points := track.GetTrail()

		for i := 1; i < len(points); i++ {
			gocv.Line(img,
				image.Pt(points[i-1].X, points[i-1].Y),
				image.Pt(points[i].X, points[i].Y),
				lineClr, style.LineThickness,
			)
		}

		if len(points) > 0 {
			last := points[len(points)-1]
			gocv.Circle(img, image.Pt(last.X, last.Y), style.CircleRadius, circleClr, -1)
		}
	}
}
