package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/swdee/go-rcfollow/tracker"
	"gocv.io/x/gocv"
)

// boxLabel is a precalculated label drawn after all boxes
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// trackColor returns the color used to paint a track
func trackColor(trackID, lockedID int) color.RGBA {
	if trackID == lockedID && lockedID > 0 {
		return LockColor
	}
	return trackColors[trackID%len(trackColors)]
}

// TrackBoxes renders the bounding box and label of each track.  The track
// matching lockedID is drawn in LockColor with a thicker line, pass 0 when
// nobody is locked.
func TrackBoxes(img *gocv.Mat, tracks []*tracker.Track, lockedID int,
	font Font, lineThickness int) {

	boxLabels := make([]boxLabel, 0, len(tracks))

	for _, track := range tracks {

		rect := track.GetRect().Image()
		useClr := trackColor(track.GetTrackID(), lockedID)

		thickness := lineThickness
		text := fmt.Sprintf("person %d", track.GetTrackID())

		if track.GetTrackID() == lockedID && lockedID > 0 {
			thickness = lineThickness * 2
			text = fmt.Sprintf("LOCKED %d", track.GetTrackID())
		}

		gocv.Rectangle(img, rect, useClr, thickness)

		if track.GetGesture().Raised {
			text += " " + track.GetGesture().Side.String()
		}

		textSize := font.Size(text)

		var centerX int

		switch font.Alignment {
		case Center:
			centerX = (rect.Min.X + rect.Max.X) / 2

		case Right:
			centerX = rect.Max.X - (textSize.X / 2) - font.RightPad + (thickness / 2)

		case Left:
			fallthrough
		default:
			centerX = rect.Min.X + (textSize.X / 2) + font.LeftPad - (thickness / 2)
		}

		boxLabels = append(boxLabels, boxLabel{
			rect: image.Rect(centerX-textSize.X/2-font.LeftPad,
				rect.Min.Y-textSize.Y-font.TopPad-font.BottomPad,
				centerX+textSize.X/2+font.RightPad, rect.Min.Y),
			clr:     useClr,
			text:    text,
			textPos: image.Pt(centerX-textSize.X/2, rect.Min.Y-font.BottomPad),
		})
	}

	// labels are drawn last so neighbouring boxes never cover them
	for _, box := range boxLabels {
		gocv.Rectangle(img, box.rect, box.clr, -1)

		font.Put(img, box.text, box.textPos)
	}
}
