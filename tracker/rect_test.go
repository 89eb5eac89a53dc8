package tracker

import (
	"image"
	"testing"
)

func TestCalcIoU(t *testing.T) {

	const tolerance = 1e-6

	tests := []struct {
		name string
		a, b Rect
		want float32
	}{
		{"identical", NewRect(10, 10, 110, 210), NewRect(10, 10, 110, 210), 1.0},
		{"disjoint", NewRect(0, 0, 10, 10), NewRect(20, 20, 30, 30), 0.0},
		{"touching edges", NewRect(0, 0, 10, 10), NewRect(10, 0, 20, 10), 0.0},
		{"half overlap", NewRect(0, 0, 10, 10), NewRect(5, 0, 15, 10), 50.0 / 150.0},
		{"contained", NewRect(0, 0, 10, 10), NewRect(0, 0, 5, 5), 25.0 / 100.0},
		{"degenerate", NewRect(0, 0, 0, 10), NewRect(0, 0, 10, 10), 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.CalcIoU(tt.b)

			if !almostEqual(got, tt.want, tolerance) {
				t.Errorf("IoU(a, b) = %f, want %f", got, tt.want)
			}

			// IoU is symmetric
			if rev := tt.b.CalcIoU(tt.a); !almostEqual(rev, got, tolerance) {
				t.Errorf("IoU(b, a) = %f, IoU(a, b) = %f", rev, got)
			}
		})
	}
}

func TestRectCenter(t *testing.T) {
	r := NewRect(10, 20, 31, 61)

	if c := r.Center(); c != (Point{X: 20, Y: 40}) {
		t.Errorf("Center() = %+v, want {20 40}", c)
	}
}

func TestRectConversions(t *testing.T) {
	r := GenerateRectByTlwh(5, 6, 10, 20)

	if r.BRX() != 15 || r.BRY() != 26 || r.Width() != 10 || r.Height() != 20 {
		t.Errorf("GenerateRectByTlwh gave %+v", r.Tlbr)
	}

	if img := r.Image(); img != image.Rect(5, 6, 15, 26) {
		t.Errorf("Image() = %v", img)
	}

	if back := GenerateRectByImage(r.Image()); back != r {
		t.Errorf("GenerateRectByImage() = %+v, want %+v", back.Tlbr, r.Tlbr)
	}

	if NewRect(5, 5, 5, 10).Valid() {
		t.Error("zero width rect reported as valid")
	}

	inverted := NewRect(150, 150, 50, 50).Image()

	if inverted.Dx() != -100 || inverted.Dy() != -100 {
		t.Errorf("inverted Image() = %v, want corners kept", inverted)
	}
}
