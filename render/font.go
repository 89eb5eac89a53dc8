package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Alignment of a track label relative to its bounding box
type Alignment int

const (
	Left   Alignment = 1
	Center Alignment = 2
	Right  Alignment = 3
)

// Font defines the parameters for rendering text on a frame
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around track labels
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	// Alignment of the track label to the bounding box
	Alignment Alignment
}

// DefaultFont returns the font used for track labels
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
		Alignment: Left,
	}
}

// StatusFont returns the larger font used for the status overlay in the
// frame corner
func StatusFont() Font {
	f := DefaultFont()
	f.Scale = 0.8
	f.Thickness = 2
	f.Color = Green
	return f
}

// Scaled returns a copy of the font with its scale multiplied by factor
func (f Font) Scaled(factor float64) Font {
	f.Scale *= factor
	return f
}

// Size returns the width and height in pixels of text drawn in this font
func (f Font) Size(text string) image.Point {
	return gocv.GetTextSize(text, f.Face, f.Scale, f.Thickness)
}

// Put draws text with its baseline starting at pt
func (f Font) Put(img *gocv.Mat, text string, pt image.Point) {
	gocv.PutTextWithParams(img, text, pt, f.Face, f.Scale, f.Color,
		f.Thickness, f.LineType, false)
}
