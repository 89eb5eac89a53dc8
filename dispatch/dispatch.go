package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/swdee/go-rcfollow/internal/timeutil"
	"golang.org/x/time/rate"
)

// Channel is an independent vehicle command stream
type Channel string

const (
	// Drive carries hand gesture commands that move or stop the vehicle
	Drive Channel = "drive"
	// Steering carries person tracking commands that turn the vehicle
	Steering Channel = "steering"
)

const (
	// StopGesture is the drive value that stops the vehicle
	StopGesture = "none"
	// CenterAction is the steering value that stops turning
	CenterAction = "track_center"
)

// Outcome is the result of a send request
type Outcome int

const (
	// Accepted means the command was transmitted successfully
	Accepted Outcome = 0
	// Suppressed means the command was not transmitted due to cooldown,
	// a duplicate value or a send already in flight
	Suppressed Outcome = 1
	// Failed means transmission was attempted and did not succeed
	Failed Outcome = 2
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Suppressed:
		return "suppressed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Mode selects how a channel treats sends during its cooldown
type Mode int

const (
	// DedupOnly suppresses a send only if its value equals the last
	// accepted value and the cooldown has not passed
	DedupOnly Mode = 0
	// DropDuringCooldown suppresses every send until the cooldown since the
	// last accepted send has passed, regardless of value
	DropDuringCooldown Mode = 1
)

func (m Mode) String() string {
	if m == DropDuringCooldown {
		return "drop_during_cooldown"
	}
	return "dedup_only"
}

// Policy is the rate limiting applied to a channel
type Policy struct {
	Cooldown time.Duration
	Mode     Mode
}

// DefaultPolicies returns the drive policy protecting the slower drive
// actuator and the short debounce used for steering corrections
func DefaultPolicies() map[Channel]Policy {
	return map[Channel]Policy{
		Drive:    {Cooldown: 2 * time.Second, Mode: DropDuringCooldown},
		Steering: {Cooldown: 100 * time.Millisecond, Mode: DedupOnly},
	}
}

// Transport transmits a single command to the vehicle
type Transport interface {
	Send(ctx context.Context, ch Channel, value string) error
}

// Entry is a record of a single send request and its outcome
type Entry struct {
	Time    time.Time
	Channel Channel
	Value   string
	Forced  bool
	Outcome Outcome
	Err     error
}

// Recorder stores dispatch entries
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// state is the per channel command state
type state struct {
	policy Policy
	// inFlight guards against more than one non-forced send at a time
	inFlight atomic.Bool
	// sometimes throttles suppression logging
	sometimes rate.Sometimes

	mu        sync.Mutex
	lastValue string
	hasValue  bool
	lastSent  time.Time
	hasSent   bool
}

// Dispatcher rate limits, debounces and transmits vehicle commands
type Dispatcher struct {
	transport Transport
	clock     timeutil.Clock
	log       logrus.FieldLogger
	recorder  Recorder
	channels  map[Channel]*state
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithClock sets the clock used for cooldowns
func WithClock(c timeutil.Clock) Option {
	return func(d *Dispatcher) {
		d.clock = c
	}
}

// WithPolicy overrides the policy of a channel
func WithPolicy(ch Channel, p Policy) Option {
	return func(d *Dispatcher) {
		d.channels[ch] = newState(p)
	}
}

// WithRecorder records every send outcome
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

func newState(p Policy) *state {
	return &state{
		policy:    p,
		sometimes: rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}
}

// New returns a Dispatcher sending commands over the given transport
func New(transport Transport, log logrus.FieldLogger, opts ...Option) *Dispatcher {

	d := &Dispatcher{
		transport: transport,
		clock:     timeutil.RealClock{},
		log:       log.WithField("component", "dispatch"),
		channels:  make(map[Channel]*state),
	}

	for ch, p := range DefaultPolicies() {
		d.channels[ch] = newState(p)
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Policy returns the policy of a channel
func (d *Dispatcher) Policy(ch Channel) (Policy, bool) {
	s, ok := d.channels[ch]
	if !ok {
		return Policy{}, false
	}
	return s.policy, true
}

// LastValue returns the last accepted value on a channel
func (d *Dispatcher) LastValue(ch Channel) (string, bool) {

	s, ok := d.channels[ch]
	if !ok {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastValue, s.hasValue
}

// Send requests transmission of value on the channel.  Forced sends bypass
// the in-flight guard and cooldown and do not restart the cooldown.
func (d *Dispatcher) Send(ctx context.Context, ch Channel, value string, force bool) Outcome {

	s, ok := d.channels[ch]
	if !ok {
		err := fmt.Errorf("unknown channel %q", ch)
		d.log.WithError(err).Error("Send rejected")
		d.record(ctx, ch, value, force, Failed, err)
		return Failed
	}

	if !force {
		if !s.inFlight.CompareAndSwap(false, true) {
			d.suppressed(ctx, s, ch, value, "in flight")
			return Suppressed
		}
		defer s.inFlight.Store(false)

		if reason, suppress := d.check(s, value); suppress {
			d.suppressed(ctx, s, ch, value, reason)
			return Suppressed
		}
	}

	if err := d.transport.Send(ctx, ch, value); err != nil {
		d.log.WithFields(logrus.Fields{
			"channel": ch,
			"value":   value,
			"forced":  force,
		}).WithError(err).Warn("Command failed")
		d.record(ctx, ch, value, force, Failed, err)
		return Failed
	}

	s.mu.Lock()
	s.lastValue = value
	s.hasValue = true
	if !force {
		s.lastSent = d.clock.Now()
		s.hasSent = true
	}
	s.mu.Unlock()

	d.log.WithFields(logrus.Fields{
		"channel": ch,
		"value":   value,
		"forced":  force,
	}).Debug("Command sent")
	d.record(ctx, ch, value, force, Accepted, nil)

	return Accepted
}

// check reports whether a non-forced send must be suppressed by the channel
// policy
func (d *Dispatcher) check(s *state, value string) (string, bool) {

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasSent || d.clock.Since(s.lastSent) >= s.policy.Cooldown {
		return "", false
	}

	switch s.policy.Mode {
	case DropDuringCooldown:
		return "cooldown", true
	default:
		if s.hasValue && s.lastValue == value {
			return "duplicate", true
		}
		return "", false
	}
}

func (d *Dispatcher) suppressed(ctx context.Context, s *state, ch Channel,
	value, reason string) {

	s.sometimes.Do(func() {
		d.log.WithFields(logrus.Fields{
			"channel": ch,
			"value":   value,
			"reason":  reason,
		}).Debug("Command suppressed")
	})

	d.record(ctx, ch, value, false, Suppressed, nil)
}

func (d *Dispatcher) record(ctx context.Context, ch Channel, value string,
	force bool, outcome Outcome, err error) {

	if d.recorder == nil {
		return
	}

	e := Entry{
		Time:    d.clock.Now(),
		Channel: ch,
		Value:   value,
		Forced:  force,
		Outcome: outcome,
		Err:     err,
	}

	if rerr := d.recorder.Record(ctx, e); rerr != nil {
		d.log.WithError(rerr).Warn("Failed to record command")
	}
}

// EmergencyStop forces the vehicle to stop driving and stop turning
func (d *Dispatcher) EmergencyStop(ctx context.Context) error {

	var errs []error

	if d.Send(ctx, Drive, StopGesture, true) != Accepted {
		errs = append(errs, fmt.Errorf("drive %s not accepted", StopGesture))
	}

	if d.Send(ctx, Steering, CenterAction, true) != Accepted {
		errs = append(errs, fmt.Errorf("steering %s not accepted", CenterAction))
	}

	return errors.Join(errs...)
}
