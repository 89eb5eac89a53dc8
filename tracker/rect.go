package tracker

import (
	"image"
	"math"
)

// Tlbr (top left x, top left y, bottom right x, bottom right y) represents
// a 1x4 matrix
type Tlbr [4]float32

// Rect represents a bounding box in pixel space with Tlbr format
type Rect struct {
	Tlbr Tlbr
}

// NewRect creates a new Rect with the given corner coordinates
func NewRect(x1, y1, x2, y2 float32) Rect {
	return Rect{
		Tlbr: Tlbr{x1, y1, x2, y2},
	}
}

// GenerateRectByTlwh creates a Rect from its top left corner, width and
// height
func GenerateRectByTlwh(x, y, width, height float32) Rect {
	return NewRect(x, y, x+width, y+height)
}

// GenerateRectByImage creates a Rect from an image.Rectangle
func GenerateRectByImage(r image.Rectangle) Rect {
	return NewRect(float32(r.Min.X), float32(r.Min.Y), float32(r.Max.X),
		float32(r.Max.Y))
}

// TLX returns the top-left x coordinate of the rectangle
func (r Rect) TLX() float32 {
	return r.Tlbr[0]
}

// TLY returns the top-left y coordinate of the rectangle
func (r Rect) TLY() float32 {
	return r.Tlbr[1]
}

// BRX returns the bottom-right x coordinate of the rectangle
func (r Rect) BRX() float32 {
	return r.Tlbr[2]
}

// BRY returns the bottom-right y coordinate of the rectangle
func (r Rect) BRY() float32 {
	return r.Tlbr[3]
}

// Width returns the width of the rectangle
func (r Rect) Width() float32 {
	return r.Tlbr[2] - r.Tlbr[0]
}

// Height returns the height of the rectangle
func (r Rect) Height() float32 {
	return r.Tlbr[3] - r.Tlbr[1]
}

// Area returns the area of the rectangle, zero for degenerate rectangles
func (r Rect) Area() float32 {
	if !r.Valid() {
		return 0
	}
	return r.Width() * r.Height()
}

// Valid reports whether x1 < x2 and y1 < y2
func (r Rect) Valid() bool {
	return r.Tlbr[0] < r.Tlbr[2] && r.Tlbr[1] < r.Tlbr[3]
}

// Center returns the integer pixel midpoint of the rectangle
func (r Rect) Center() Point {
	return Point{
		X: int((r.Tlbr[0] + r.Tlbr[2]) / 2),
		Y: int((r.Tlbr[1] + r.Tlbr[3]) / 2),
	}
}

// Image converts the rectangle to an image.Rectangle for cropping and
// drawing.  Corners are kept as given, an inverted box stays empty.
func (r Rect) Image() image.Rectangle {
	return image.Rectangle{
		Min: image.Pt(int(r.Tlbr[0]), int(r.Tlbr[1])),
		Max: image.Pt(int(r.Tlbr[2]), int(r.Tlbr[3])),
	}
}

// CalcIoU calculates the Intersection over Union (IoU) with another
// rectangle.  Rectangles that do not overlap, or are degenerate, have an
// IoU of 0.
func (r Rect) CalcIoU(other Rect) float32 {

	iw := float32(math.Min(float64(r.Tlbr[2]), float64(other.Tlbr[2])) -
		math.Max(float64(r.Tlbr[0]), float64(other.Tlbr[0])))

	if iw <= 0 {
		return 0
	}

	ih := float32(math.Min(float64(r.Tlbr[3]), float64(other.Tlbr[3])) -
		math.Max(float64(r.Tlbr[1]), float64(other.Tlbr[1])))

	if ih <= 0 {
		return 0
	}

	inter := iw * ih
	union := r.Area() + other.Area() - inter

	if union <= 0 {
		return 0
	}

	return inter / union
}
