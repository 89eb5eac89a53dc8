package rcfollow

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/swdee/go-rcfollow/control"
	"github.com/swdee/go-rcfollow/descriptor"
	"github.com/swdee/go-rcfollow/detect"
	"github.com/swdee/go-rcfollow/dispatch"
	"github.com/swdee/go-rcfollow/gesture"
	"github.com/swdee/go-rcfollow/internal/timeutil"
	"github.com/swdee/go-rcfollow/lock"
	"github.com/swdee/go-rcfollow/operator"
	"github.com/swdee/go-rcfollow/tracker"
)

// Options defines the frame pipeline settings
type Options struct {
	// PersonConfidence is the minimum detection score tracked
	PersonConfidence float32
	// KeyPointConfidence is the minimum keypoint score counted as visible
	KeyPointConfidence float32
	Tracker            tracker.Params
	Descriptor         descriptor.Params
	Control            control.Params
	// LockTimeout is how long a locked person may be absent
	LockTimeout time.Duration
	// CarControl enables sending commands to the vehicle
	CarControl bool
}

// DefaultOptions returns the default pipeline settings
func DefaultOptions() Options {
	return Options{
		PersonConfidence:   0.5,
		KeyPointConfidence: 0.5,
		Tracker:            tracker.DefaultParams(),
		Descriptor:         descriptor.DefaultParams(),
		Control:            control.DefaultParams(),
		LockTimeout:        10 * time.Second,
		CarControl:         true,
	}
}

// Publisher receives the status snapshot after every frame
type Publisher interface {
	Publish(st operator.Status)
}

// Result is the outcome of processing a single frame
type Result struct {
	Frame     int
	Confirmed []*tracker.Track
	Event     lock.Event
	Lock      lock.Status
	// Target is the locked track when present this frame
	Target   *tracker.Track
	Decision control.Decision
	// Steering and Drive are the dispatch outcomes, only set when car
	// control is enabled
	Steering dispatch.Outcome
	Drive    dispatch.Outcome
	Sent     bool
}

// Pipeline processes video frames in order, from detections through to
// vehicle commands.  It is not safe for concurrent use, operator requests
// are received over the Actions channel.
type Pipeline struct {
	opts       Options
	detector   detect.Detector
	classifier *gesture.Classifier
	extractor  *descriptor.Extractor
	tracker    *tracker.Tracker
	lock       *lock.Manager
	controller *control.Controller
	dispatcher *dispatch.Dispatcher
	log        logrus.FieldLogger

	actions   <-chan operator.Action
	publisher Publisher
	frame     int
}

// New returns a Pipeline.  The dispatcher may be nil when car control is
// disabled.
func New(opts Options, detector detect.Detector, dispatcher *dispatch.Dispatcher,
	clock timeutil.Clock, log logrus.FieldLogger) (*Pipeline, error) {

	if detector == nil {
		return nil, fmt.Errorf("detector is required")
	}

	if opts.CarControl && dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required for car control")
	}

	if clock == nil {
		clock = timeutil.RealClock{}
	}

	var stopper lock.Stopper

	if opts.CarControl {
		stopper = dispatcher
	}

	return &Pipeline{
		opts:       opts,
		detector:   detector,
		classifier: gesture.NewClassifier(opts.KeyPointConfidence),
		extractor:  descriptor.NewExtractor(opts.Descriptor),
		tracker:    tracker.NewTracker(opts.Tracker),
		lock:       lock.NewManager(opts.LockTimeout, clock, stopper, log),
		controller: control.NewController(opts.Control),
		dispatcher: dispatcher,
		log:        log.WithField("component", "pipeline"),
	}, nil
}

// Attach connects an operator console, actions are applied at the start of
// each frame and status is published at its end
func (p *Pipeline) Attach(actions <-chan operator.Action, pub Publisher) {
	p.actions = actions
	p.publisher = pub
}

// Controller returns the tracking controller
func (p *Pipeline) Controller() *control.Controller {
	return p.controller
}

// Lock returns the lock status
func (p *Pipeline) Lock() lock.Status {
	return p.lock.Status()
}

// Process runs the frame through detection, tracking, locking, steering and
// dispatch
func (p *Pipeline) Process(ctx context.Context, img image.Image) (Result, error) {

	p.drainActions(ctx)

	frame := p.frame
	p.frame++

	persons, err := p.detector.Detect(frame, img)

	if err != nil {
		return Result{Frame: frame}, fmt.Errorf("frame %d: error detecting persons: %w", frame, err)
	}

	dets := p.detections(img, persons)
	confirmed := p.tracker.Update(dets)

	res := Result{
		Frame:     frame,
		Confirmed: confirmed,
		Event:     p.lock.Update(ctx, confirmed),
	}

	res.Lock = p.lock.Status()
	res.Target, _ = p.lock.Target(confirmed)
	res.Decision = p.controller.Decide(img.Bounds().Dx(), res.Target, confirmed)

	if p.opts.CarControl {
		res.Steering = p.dispatcher.Send(ctx, dispatch.Steering, res.Decision.Steering.Action(), false)
		res.Drive = p.dispatcher.Send(ctx, dispatch.Drive, res.Decision.Drive.Gesture(), false)
		res.Sent = true
	}

	p.publish(res)

	return res, nil
}

// detections converts the persons above the confidence threshold into
// tracker detections with gesture and appearance
func (p *Pipeline) detections(img image.Image, persons []detect.Person) []tracker.Detection {

	dets := make([]tracker.Detection, 0, len(persons))

	for _, person := range persons {
		if person.Score < p.opts.PersonConfidence {
			continue
		}

		rect := person.Rect()

		det := tracker.NewDetection(rect, person.Score, p.extractor.Extract(img, rect.Image()))
		det.KeyPoints = person.KeyPoints
		det.Gesture = p.classifier.Classify(person.KeyPoints)

		dets = append(dets, det)
	}

	return dets
}

// drainActions applies every queued operator action without blocking
func (p *Pipeline) drainActions(ctx context.Context) {

	if p.actions == nil {
		return
	}

	for {
		select {
		case a := <-p.actions:
			p.apply(ctx, a)
		default:
			return
		}
	}
}

func (p *Pipeline) apply(ctx context.Context, a operator.Action) {

	switch a.Kind {
	case operator.ActionReset:
		if err := p.lock.Reset(ctx, "operator"); err != nil {
			p.log.WithError(err).Warn("Operator reset could not stop the vehicle")
		}

	case operator.ActionSetTracking:
		p.controller.SetEnabled(a.Enabled)
		p.log.WithField("enabled", a.Enabled).Info("Person tracking toggled")

		if !a.Enabled && p.opts.CarControl {
			p.dispatcher.Send(ctx, dispatch.Steering, control.SteerCenter.Action(), false)
		}

	case operator.ActionSetThreshold:
		p.controller.SetThreshold(a.Threshold)
		p.log.WithField("threshold", a.Threshold).Info("Tracking sensitivity set")
	}
}

func (p *Pipeline) publish(res Result) {

	if p.publisher == nil {
		return
	}

	params := p.controller.Params()

	st := operator.Status{
		State:           res.Lock.State.String(),
		TrackID:         res.Lock.TrackID,
		Confirmed:       len(res.Confirmed),
		Steering:        res.Decision.Steering.Action(),
		Drive:           res.Decision.Drive.Gesture(),
		TrackingEnabled: params.Enabled,
		Threshold:       params.Threshold,
		Frame:           res.Frame,
	}

	if res.Decision.Soft {
		st.SoftTarget = res.Decision.TargetID
	}

	p.publisher.Publish(st)
}

// Close stops the vehicle, it is attempted once on every exit path and its
// failure is logged without blocking shutdown
func (p *Pipeline) Close(ctx context.Context) error {

	if !p.opts.CarControl {
		return nil
	}

	p.log.Warn("Sending emergency stop")

	if err := p.dispatcher.EmergencyStop(ctx); err != nil {
		p.log.WithError(err).Error("Emergency stop on shutdown failed")
		return fmt.Errorf("emergency stop: %w", err)
	}

	return nil
}
