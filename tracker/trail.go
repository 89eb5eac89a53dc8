package tracker

// Point represents the x,y coordinates of the center box of a tracking
// rect/bounding box results
type Point struct {
	X, Y int
}

// Trail keeps a bounded history of a track's center points used for drawing
// a trail.  It plays no part in matching.
type Trail struct {
	// size is the maximum number of most recent points to keep in history
	size int
	// points is the history of tracked points, oldest first
	points []Point
}

// NewTrail returns a new trail history instance.  Size specifies the
// maximum length of the trail to maintain.
func NewTrail(size int) *Trail {
	return &Trail{
		size:   size,
		points: make([]Point, 0, size),
	}
}

// Add a point to the history, dropping the oldest point when the history
// is full
func (t *Trail) Add(p Point) {

	if t.size <= 0 {
		return
	}

	t.points = append(t.points, p)

	// check if history is exceeded and drop oldest point
	if len(t.points) > t.size {
		t.points = append(t.points[:0], t.points[1:]...)
	}
}

// Points returns a copy of the point history, oldest first
func (t *Trail) Points() []Point {
	out := make([]Point, len(t.points))
	copy(out, t.points)
	return out
}

// Len returns the number of points in the history
func (t *Trail) Len() int {
	return len(t.points)
}
