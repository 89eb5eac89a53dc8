package descriptor

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

// solidFrame returns a frame where the left half is clrA and the right half
// is clrB
func solidFrame(w, h int, clrA, clrB color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.SetRGBA(x, y, clrA)
			} else {
				img.SetRGBA(x, y, clrB)
			}
		}
	}

	return img
}

var (
	red  = color.RGBA{R: 220, G: 20, B: 20, A: 255}
	blue = color.RGBA{R: 20, G: 20, B: 220, A: 255}
)

func TestExtractIsNormalized(t *testing.T) {
	e := NewExtractor(DefaultParams())
	frame := solidFrame(640, 480, red, blue)

	d := e.Extract(frame, image.Rect(10, 10, 200, 400))

	require.True(t, d.Valid)
	require.Len(t, d.Values, Size)
	assert.InDelta(t, 1.0, floats.Norm(d.Values, 2), 1e-6)
}

func TestExtractSelfSimilarity(t *testing.T) {
	e := NewExtractor(DefaultParams())
	frame := solidFrame(640, 480, red, blue)

	d := e.Extract(frame, image.Rect(10, 10, 200, 400))

	assert.InDelta(t, 1.0, Cosine(d, d), 1e-6)
}

func TestExtractDiscriminates(t *testing.T) {
	e := NewExtractor(DefaultParams())
	frame := solidFrame(640, 480, red, blue)

	redA := e.Extract(frame, image.Rect(0, 0, 200, 400))
	redB := e.Extract(frame, image.Rect(50, 40, 250, 420))
	blueA := e.Extract(frame, image.Rect(400, 0, 600, 400))

	assert.Greater(t, Cosine(redA, redB), 0.99)
	assert.Less(t, Cosine(redA, blueA), 0.5)
}

func TestExtractClampsToFrame(t *testing.T) {
	e := NewExtractor(DefaultParams())
	frame := solidFrame(640, 480, red, blue)

	inside := e.Extract(frame, image.Rect(0, 0, 100, 100))
	overhang := e.Extract(frame, image.Rect(-50, -50, 100, 100))

	require.True(t, overhang.Valid)
	assert.InDelta(t, 1.0, Cosine(inside, overhang), 1e-6)
}

func TestExtractInvalidGeometry(t *testing.T) {
	e := NewExtractor(DefaultParams())
	frame := solidFrame(640, 480, red, blue)

	tests := []struct {
		name string
		box  image.Rectangle
	}{
		{"zero width", image.Rect(100, 100, 100, 200)},
		{"outside frame", image.Rect(700, 500, 800, 600)},
		{"negative region", image.Rect(-100, -100, -10, -10)},
		{"inverted corners", image.Rectangle{Min: image.Pt(150, 150), Max: image.Pt(50, 50)}},
		{"inverted width", image.Rectangle{Min: image.Pt(150, 50), Max: image.Pt(50, 150)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := e.Extract(frame, tt.box)
			assert.False(t, d.Valid)
			assert.Equal(t, Invalid(), d)
		})
	}
}

func TestCosineBounds(t *testing.T) {
	a := New([]float64{1, 2, 3})
	b := New([]float64{-1, -2, -3})
	c := New([]float64{0, 0, 0, 4})

	assert.InDelta(t, 1.0, Cosine(a, a), 1e-9)
	assert.InDelta(t, -1.0, Cosine(a, b), 1e-9)
	assert.InDelta(t, 0.0, Cosine(a, c), 1e-9)

	for _, pair := range [][2]Descriptor{{a, b}, {a, c}, {b, c}} {
		sim := Cosine(pair[0], pair[1])
		assert.GreaterOrEqual(t, sim, -1.0)
		assert.LessOrEqual(t, sim, 1.0)
	}
}

func TestCosineInvalid(t *testing.T) {
	a := New([]float64{1, 2, 3})

	assert.Equal(t, 0.0, Cosine(a, Invalid()))
	assert.Equal(t, 0.0, Cosine(Invalid(), Invalid()))
}

func TestNewPadsAndTruncates(t *testing.T) {
	short := New([]float64{3, 4})
	require.Len(t, short.Values, Size)
	assert.InDelta(t, 0.6, short.Values[0], 1e-6)
	assert.InDelta(t, 0.8, short.Values[1], 1e-6)

	long := make([]float64, Size+20)
	long[Size+5] = 10
	long[0] = 1
	d := New(long)
	require.Len(t, d.Values, Size)
	assert.InDelta(t, 1.0, d.Values[0], 1e-6)
}

func TestNormalizeZeroVector(t *testing.T) {
	v := Normalize(make([]float64, 4))
	assert.Equal(t, []float64{0, 0, 0, 0}, v)
}
