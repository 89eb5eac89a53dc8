package detect

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/swdee/go-rcfollow/gesture"
	"github.com/swdee/go-rcfollow/tracker"
)

// ErrEndOfStream is returned by Reader.Next when no frames remain
var ErrEndOfStream = errors.New("end of detection stream")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Person is a single person detected by the pose model
type Person struct {
	// Box is the bounding box in x1, y1, x2, y2 pixel coordinates
	Box       [4]float32
	Score     float32
	KeyPoints []gesture.KeyPoint
}

// Rect returns the bounding box of the person
func (p Person) Rect() tracker.Rect {
	return tracker.NewRect(p.Box[0], p.Box[1], p.Box[2], p.Box[3])
}

// Frame is the detection output for a single video frame
type Frame struct {
	Index   int
	Persons []Person
}

// Detector supplies the persons found in a video frame
type Detector interface {
	Detect(frame int, img image.Image) ([]Person, error)
}

// record is the JSON Lines representation of a Frame
type record struct {
	Frame      int `json:"frame"`
	Detections []struct {
		Box       [4]float32   `json:"box"`
		Score     float32      `json:"score"`
		KeyPoints [][3]float32 `json:"keypoints"`
	} `json:"detections"`
}

func (r record) frame() Frame {

	f := Frame{
		Index:   r.Frame,
		Persons: make([]Person, 0, len(r.Detections)),
	}

	for _, d := range r.Detections {
		p := Person{
			Box:   d.Box,
			Score: d.Score,
		}

		if len(d.KeyPoints) > 0 {
			p.KeyPoints = make([]gesture.KeyPoint, len(d.KeyPoints))

			for i, kp := range d.KeyPoints {
				p.KeyPoints[i] = gesture.KeyPoint{X: kp[0], Y: kp[1], Score: kp[2]}
			}
		}

		f.Persons = append(f.Persons, p)
	}

	return f
}

// Reader streams frames from JSON Lines detection output
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader returns a Reader over r
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	// one line holds every detection of a frame
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	return &Reader{scanner: scanner}
}

// Next returns the next frame, or ErrEndOfStream when input is exhausted.
// Blank lines are skipped.
func (r *Reader) Next() (Frame, error) {

	for r.scanner.Scan() {
		r.line++
		data := r.scanner.Bytes()

		if len(bytes.TrimSpace(data)) == 0 {
			continue
		}

		var rec record

		if err := json.Unmarshal(data, &rec); err != nil {
			return Frame{}, fmt.Errorf("line %d: error decoding detections: %w", r.line, err)
		}

		return rec.frame(), nil
	}

	if err := r.scanner.Err(); err != nil {
		return Frame{}, fmt.Errorf("error reading detections: %w", err)
	}

	return Frame{}, ErrEndOfStream
}

// Replay is a Detector serving previously recorded detections indexed by
// frame number
type Replay struct {
	frames map[int][]Person
	last   int
}

// Load reads every frame from r into a Replay
func Load(r io.Reader) (*Replay, error) {

	rp := &Replay{
		frames: make(map[int][]Person),
		last:   -1,
	}

	rd := NewReader(r)

	for {
		f, err := rd.Next()

		if errors.Is(err, ErrEndOfStream) {
			return rp, nil
		}

		if err != nil {
			return nil, err
		}

		rp.frames[f.Index] = append(rp.frames[f.Index], f.Persons...)

		if f.Index > rp.last {
			rp.last = f.Index
		}
	}
}

// Open loads a Replay from a JSON Lines file
func Open(path string) (*Replay, error) {

	fh, err := os.Open(path)

	if err != nil {
		return nil, fmt.Errorf("error opening detections: %w", err)
	}

	defer fh.Close()

	return Load(fh)
}

// Detect returns the recorded persons of a frame, frames without a record
// have no detections
func (r *Replay) Detect(frame int, _ image.Image) ([]Person, error) {
	return r.frames[frame], nil
}

// LastFrame returns the highest recorded frame index, -1 if empty
func (r *Replay) LastFrame() int {
	return r.last
}

// Len returns the number of recorded frames
func (r *Replay) Len() int {
	return len(r.frames)
}
