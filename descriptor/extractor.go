package descriptor

import (
	"image"

	"golang.org/x/image/draw"
)

// Params defines the histogram descriptor settings
type Params struct {
	// Width and Height are the canonical dimensions a crop is scaled to
	// before the histogram is taken
	Width  int
	Height int
	// Bins is the number of histogram bins per color channel
	Bins int
}

// DefaultParams returns the default descriptor settings of a 64x128 crop
// and 32 bins per channel, which after concatenation of the R, G, B
// channels is padded to Size
func DefaultParams() Params {
	return Params{
		Width:  64,
		Height: 128,
		Bins:   32,
	}
}

// Extractor computes color histogram descriptors from person crops
type Extractor struct {
	params Params
	// canvas is reused between crops to hold the scaled region
	canvas *image.RGBA
}

// NewExtractor returns a descriptor Extractor
func NewExtractor(p Params) *Extractor {
	return &Extractor{
		params: p,
		canvas: image.NewRGBA(image.Rect(0, 0, p.Width, p.Height)),
	}
}

// Extract returns the descriptor for the region of frame inside box.  A box
// with non-positive width or height gives the Invalid fallback descriptor,
// as does a box with nothing left after clamping to the frame bounds.
func (e *Extractor) Extract(frame image.Image, box image.Rectangle) Descriptor {

	if box.Dx() <= 0 || box.Dy() <= 0 {
		return Invalid()
	}

	roi := box.Intersect(frame.Bounds())

	if roi.Dx() <= 0 || roi.Dy() <= 0 {
		return Invalid()
	}

	// scale region of interest to canonical size
	draw.BiLinear.Scale(e.canvas, e.canvas.Bounds(), frame, roi, draw.Src, nil)

	return New(e.histogram(e.canvas))
}

// histogram concatenates the per channel color histograms of img
func (e *Extractor) histogram(img *image.RGBA) []float64 {

	bins := e.params.Bins
	hist := make([]float64, 3*bins)

	b := img.Bounds()

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px := img.RGBAAt(x, y)

			hist[int(px.R)*bins/256]++
			hist[bins+int(px.G)*bins/256]++
			hist[2*bins+int(px.B)*bins/256]++
		}
	}

	return hist
}
