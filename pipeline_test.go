package rcfollow

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-rcfollow/control"
	"github.com/swdee/go-rcfollow/detect"
	"github.com/swdee/go-rcfollow/dispatch"
	"github.com/swdee/go-rcfollow/gesture"
	"github.com/swdee/go-rcfollow/internal/timeutil"
	"github.com/swdee/go-rcfollow/lock"
	"github.com/swdee/go-rcfollow/operator"
)

// scriptedDetector returns the same persons on every frame until changed
type scriptedDetector struct {
	persons []detect.Person
	err     error
}

func (s *scriptedDetector) Detect(_ int, _ image.Image) ([]detect.Person, error) {
	return s.persons, s.err
}

type command struct {
	Channel dispatch.Channel
	Value   string
}

type recordingTransport struct {
	mu   sync.Mutex
	sent []command
	err  error
}

func (r *recordingTransport) Send(_ context.Context, ch dispatch.Channel, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}

	r.sent = append(r.sent, command{ch, value})
	return nil
}

func (r *recordingTransport) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

type statusSink struct {
	last operator.Status
	n    int
}

func (s *statusSink) Publish(st operator.Status) {
	s.last = st
	s.n++
}

// person returns a detected person centered at x with the given hand raised
func person(x float32, side gesture.Side, score float32) detect.Person {

	kps := make([]gesture.KeyPoint, gesture.KeyPointsNumber)
	for i := range kps {
		kps[i] = gesture.KeyPoint{X: x, Y: 300, Score: 0.9}
	}

	set := func(shoulder, elbow, wrist int, up bool) {
		kps[shoulder].Y = 150
		if up {
			kps[elbow].Y = 120
			kps[wrist].Y = 90
		} else {
			kps[elbow].Y = 180
			kps[wrist].Y = 210
		}
	}

	set(5, 7, 9, side == gesture.Left || side == gesture.Both)
	set(6, 8, 10, side == gesture.Right || side == gesture.Both)

	return detect.Person{
		Box:       [4]float32{x - 40, 100, x + 40, 400},
		Score:     score,
		KeyPoints: kps,
	}
}

func frameImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 80, G: 120, B: 60, A: 255}},
		image.Point{}, draw.Src)
	return img
}

type fixture struct {
	pipeline  *Pipeline
	detector  *scriptedDetector
	transport *recordingTransport
	clock     *timeutil.MockClock
}

func newFixture(t *testing.T, carControl bool) *fixture {
	t.Helper()

	log, _ := test.NewNullLogger()
	clock := timeutil.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	det := &scriptedDetector{}
	tr := &recordingTransport{}

	var d *dispatch.Dispatcher
	if carControl {
		d = dispatch.New(tr, log, dispatch.WithClock(clock))
	}

	opts := DefaultOptions()
	opts.CarControl = carControl

	p, err := New(opts, det, d, clock, log)
	require.NoError(t, err)

	return &fixture{pipeline: p, detector: det, transport: tr, clock: clock}
}

// run processes n frames advancing the clock between frames
func (f *fixture) run(t *testing.T, n int, step time.Duration) Result {
	t.Helper()

	var res Result
	var err error

	for i := 0; i < n; i++ {
		res, err = f.pipeline.Process(context.Background(), frameImage())
		require.NoError(t, err)
		f.clock.Advance(step)
	}

	return res
}

func TestPipelineLocksAndSteers(t *testing.T) {
	f := newFixture(t, true)
	f.detector.persons = []detect.Person{person(100, gesture.Left, 0.9)}

	res := f.run(t, 2, 33*time.Millisecond)
	assert.Empty(t, res.Confirmed)
	assert.Equal(t, lock.EventNone, res.Event)

	// confirmed at the third hit and locked on the same frame
	res = f.run(t, 1, 33*time.Millisecond)
	require.Len(t, res.Confirmed, 1)
	assert.Equal(t, lock.EventAcquired, res.Event)
	assert.Equal(t, lock.Locked, res.Lock.State)
	require.NotNil(t, res.Target)
	assert.Equal(t, control.Decision{
		Steering: control.SteerLeft,
		Drive:    control.DriveForward,
		TargetID: 1,
	}, res.Decision)
	assert.Equal(t, dispatch.Accepted, res.Steering)

	// drive forward is dropped until the drive cooldown has passed
	assert.Equal(t, dispatch.Suppressed, res.Drive)

	f.clock.Advance(2 * time.Second)
	res = f.run(t, 1, 0)
	assert.Equal(t, lock.EventHeld, res.Event)
	assert.Equal(t, dispatch.Accepted, res.Drive)

	assert.Contains(t, f.transport.sent, command{dispatch.Drive, "left"})
	assert.Contains(t, f.transport.sent, command{dispatch.Steering, "track_left"})
}

func TestPipelineLosesLock(t *testing.T) {
	f := newFixture(t, true)
	f.detector.persons = []detect.Person{person(320, gesture.Left, 0.9)}

	res := f.run(t, 3, 33*time.Millisecond)
	require.Equal(t, lock.Locked, res.Lock.State)

	f.detector.persons = nil
	f.transport.reset()

	res = f.run(t, 1, 9900*time.Millisecond)
	assert.Equal(t, lock.EventMissing, res.Event)

	res = f.run(t, 1, 0)
	assert.Equal(t, lock.EventMissing, res.Event)

	f.clock.Advance(200 * time.Millisecond)
	f.transport.reset()

	res = f.run(t, 1, 0)
	assert.Equal(t, lock.EventLost, res.Event)
	assert.Equal(t, lock.Searching, res.Lock.State)

	stops := 0
	for _, c := range f.transport.sent {
		if c == (command{dispatch.Drive, dispatch.StopGesture}) {
			stops++
		}
	}
	assert.Equal(t, 1, stops)

	// stays searching without another stop
	f.transport.reset()
	res = f.run(t, 1, 0)
	assert.Equal(t, lock.EventNone, res.Event)
	assert.NotContains(t, f.transport.sent, command{dispatch.Drive, dispatch.StopGesture})
}

func TestPipelineOccludedLockStops(t *testing.T) {
	f := newFixture(t, true)
	f.detector.persons = []detect.Person{
		person(100, gesture.Left, 0.9),
		person(540, gesture.None, 0.9),
	}

	res := f.run(t, 3, 33*time.Millisecond)
	require.Equal(t, lock.Locked, res.Lock.State)
	require.Equal(t, 1, res.Lock.TrackID)

	// past the drive cooldown so a forward would be accepted
	f.clock.Advance(2100 * time.Millisecond)
	f.detector.persons = []detect.Person{person(540, gesture.None, 0.9)}
	f.transport.reset()

	res = f.run(t, 5, 33*time.Millisecond)
	require.Len(t, res.Confirmed, 2)
	require.NotNil(t, res.Target)
	assert.Equal(t, 1, res.Target.GetTrackID())
	assert.Equal(t, 5, res.Target.GetAge())
	assert.Equal(t, control.DriveStop, res.Decision.Drive)

	assert.NotContains(t, f.transport.sent, command{dispatch.Drive, "left"})
	assert.Contains(t, f.transport.sent, command{dispatch.Drive, dispatch.StopGesture})
}

func TestPipelineSoftTracking(t *testing.T) {
	f := newFixture(t, true)
	f.detector.persons = []detect.Person{person(540, gesture.None, 0.9)}

	res := f.run(t, 3, 33*time.Millisecond)
	assert.Equal(t, lock.Searching, res.Lock.State)
	assert.True(t, res.Decision.Soft)
	assert.Equal(t, control.SteerRight, res.Decision.Steering)
	assert.Equal(t, control.DriveStop, res.Decision.Drive)
}

func TestPipelineFiltersLowConfidence(t *testing.T) {
	f := newFixture(t, true)
	f.detector.persons = []detect.Person{person(100, gesture.Left, 0.3)}

	res := f.run(t, 5, 33*time.Millisecond)
	assert.Empty(t, res.Confirmed)
	assert.Equal(t, lock.Searching, res.Lock.State)
}

func TestPipelineOperatorActions(t *testing.T) {
	f := newFixture(t, true)
	actions := make(chan operator.Action, 4)
	sink := &statusSink{}
	f.pipeline.Attach(actions, sink)

	f.detector.persons = []detect.Person{person(100, gesture.Left, 0.9)}
	res := f.run(t, 3, 33*time.Millisecond)
	require.Equal(t, lock.Locked, res.Lock.State)

	assert.Equal(t, 3, sink.n)
	assert.Equal(t, "LOCKED", sink.last.State)
	assert.Equal(t, 1, sink.last.TrackID)
	assert.Equal(t, "track_left", sink.last.Steering)

	f.transport.reset()
	actions <- operator.Action{Kind: operator.ActionReset}
	actions <- operator.Action{Kind: operator.ActionSetThreshold, Threshold: 300}

	// the person's hand is down so the lock is not reacquired
	f.detector.persons = []detect.Person{person(100, gesture.None, 0.9)}
	res = f.run(t, 1, 33*time.Millisecond)

	assert.Equal(t, lock.Searching, res.Lock.State)
	assert.Contains(t, f.transport.sent, command{dispatch.Drive, dispatch.StopGesture})
	assert.Equal(t, 300, sink.last.Threshold)
	// within the wider threshold the soft target is centered
	assert.Equal(t, control.SteerCenter, res.Decision.Steering)

	actions <- operator.Action{Kind: operator.ActionSetTracking, Enabled: false}
	res = f.run(t, 1, 33*time.Millisecond)
	assert.False(t, sink.last.TrackingEnabled)
	assert.Equal(t, control.SteerCenter, res.Decision.Steering)
}

func TestPipelineWithoutCarControl(t *testing.T) {
	f := newFixture(t, false)
	f.detector.persons = []detect.Person{person(100, gesture.Left, 0.9)}

	res := f.run(t, 3, 33*time.Millisecond)
	assert.Equal(t, lock.Locked, res.Lock.State)
	assert.False(t, res.Sent)
	assert.Empty(t, f.transport.sent)
	assert.NoError(t, f.pipeline.Close(context.Background()))
}

func TestPipelineDetectorError(t *testing.T) {
	f := newFixture(t, true)
	f.detector.err = errors.New("model unavailable")

	_, err := f.pipeline.Process(context.Background(), frameImage())
	assert.Error(t, err)
}

func TestPipelineClose(t *testing.T) {
	f := newFixture(t, true)

	require.NoError(t, f.pipeline.Close(context.Background()))
	assert.Equal(t, []command{
		{dispatch.Drive, dispatch.StopGesture},
		{dispatch.Steering, dispatch.CenterAction},
	}, f.transport.sent)

	f.transport.err = errors.New("connection refused")
	assert.Error(t, f.pipeline.Close(context.Background()))
}

func TestNewValidates(t *testing.T) {
	log, _ := test.NewNullLogger()

	_, err := New(DefaultOptions(), nil, nil, nil, log)
	assert.Error(t, err)

	_, err = New(DefaultOptions(), &scriptedDetector{}, nil, nil, log)
	assert.Error(t, err)
}
