package render

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Status writes the gesture status line and the lock and steering summary in
// the top left corner of the frame
func Status(img *gocv.Mat, gestureText, lockState string, trackID int,
	steering string, font Font) {

	font.Put(img, gestureText, image.Pt(10, 30))

	summary := lockState
	if trackID > 0 {
		summary = fmt.Sprintf("%s %d", lockState, trackID)
	}
	summary += " | " + steering

	font.Scaled(0.75).Put(img, summary, image.Pt(10, 60))
}

// CenterBand draws the vertical lines either side of the frame center within
// which no steering is applied
func CenterBand(img *gocv.Mat, threshold int) {

	width := img.Cols()
	height := img.Rows()
	mid := width / 2

	for _, x := range []int{mid - threshold, mid + threshold} {
		gocv.Line(img, image.Pt(x, 0), image.Pt(x, height), White, 1)
	}
}
