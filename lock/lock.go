package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/swdee/go-rcfollow/internal/timeutil"
	"github.com/swdee/go-rcfollow/tracker"
)

// State is the lock state of the system
type State int

const (
	// Searching means no one is being followed
	Searching State = 0
	// Locked means a single track is being followed
	Locked State = 1
)

func (s State) String() string {
	switch s {
	case Searching:
		return "SEARCHING"
	case Locked:
		return "LOCKED"
	default:
		return "UNKNOWN"
	}
}

// Event describes what happened to the lock during an Update
type Event int

const (
	// EventNone is a frame spent searching without a candidate
	EventNone Event = 0
	// EventAcquired is the transition from Searching to Locked
	EventAcquired Event = 1
	// EventHeld is a frame where the locked track was present
	EventHeld Event = 2
	// EventMissing is a frame where the locked track was absent but the
	// disappearance timeout has not yet passed
	EventMissing Event = 3
	// EventLost is the transition from Locked back to Searching
	EventLost Event = 4
)

func (e Event) String() string {
	switch e {
	case EventAcquired:
		return "acquired"
	case EventHeld:
		return "held"
	case EventMissing:
		return "missing"
	case EventLost:
		return "lost"
	default:
		return "none"
	}
}

// Stopper issues the emergency stop when the lock is lost or reset
type Stopper interface {
	EmergencyStop(ctx context.Context) error
}

// Status is a snapshot of the lock state
type Status struct {
	State    State
	TrackID  int
	LastSeen time.Time
}

// Manager decides which single track, if any, the system follows.  It is
// the only owner of the lock state.
type Manager struct {
	clock   timeutil.Clock
	timeout time.Duration
	stopper Stopper
	log     logrus.FieldLogger

	state    State
	trackID  int
	lastSeen time.Time
}

// NewManager returns a lock Manager in the Searching state.  Timeout is the
// wall clock time a locked track may be absent before the lock is dropped.
func NewManager(timeout time.Duration, clock timeutil.Clock, stopper Stopper,
	log logrus.FieldLogger) *Manager {

	return &Manager{
		clock:   clock,
		timeout: timeout,
		stopper: stopper,
		log:     log.WithField("component", "lock"),
		state:   Searching,
	}
}

// Status returns a snapshot of the current lock state
func (m *Manager) Status() Status {
	return Status{
		State:    m.state,
		TrackID:  m.trackID,
		LastSeen: m.lastSeen,
	}
}

// Update advances the state machine with the confirmed tracks of the current
// frame.  Tracks are expected in ascending ID order, when several tracks
// raise a hand at once the first one wins.
func (m *Manager) Update(ctx context.Context, confirmed []*tracker.Track) Event {

	defer m.checkInvariant()

	switch m.state {

	case Searching:
		for _, track := range confirmed {
			if track.GetGesture().Raised {
				m.state = Locked
				m.trackID = track.GetTrackID()
				m.lastSeen = m.clock.Now()

				m.log.WithFields(logrus.Fields{
					"track_id": m.trackID,
					"hand":     track.GetGesture().Side.String(),
				}).Info("Locked onto person")

				return EventAcquired
			}
		}

		return EventNone

	case Locked:
		if _, ok := Find(confirmed, m.trackID); ok {
			m.lastSeen = m.clock.Now()
			return EventHeld
		}

		absent := m.clock.Since(m.lastSeen)

		if absent <= m.timeout {
			return EventMissing
		}

		m.log.WithFields(logrus.Fields{
			"track_id":   m.trackID,
			"absent_for": absent.String(),
		}).Warn("Locked person lost, returning to search")

		m.release()
		m.stop(ctx)

		return EventLost
	}

	return EventNone
}

// Reset is the operator triggered return to Searching, it always issues an
// emergency stop
func (m *Manager) Reset(ctx context.Context, reason string) error {

	m.log.WithFields(logrus.Fields{
		"track_id": m.trackID,
		"reason":   reason,
	}).Warn("Lock reset")

	m.release()

	return m.stop(ctx)
}

// Target returns the locked track from the confirmed tracks of this frame
func (m *Manager) Target(confirmed []*tracker.Track) (*tracker.Track, bool) {

	if m.state != Locked {
		return nil, false
	}

	return Find(confirmed, m.trackID)
}

func (m *Manager) release() {
	m.state = Searching
	m.trackID = 0
	m.lastSeen = time.Time{}
}

func (m *Manager) stop(ctx context.Context) error {

	if m.stopper == nil {
		return nil
	}

	err := m.stopper.EmergencyStop(ctx)

	if err != nil {
		m.log.WithError(err).Error("Emergency stop failed")
		return fmt.Errorf("emergency stop: %w", err)
	}

	return nil
}

// checkInvariant panics when the lock state is inconsistent, which can only
// happen through a programming error
func (m *Manager) checkInvariant() {
	switch {
	case m.state == Locked && m.trackID <= 0:
		panic(fmt.Sprintf("lock: locked onto invalid track id %d", m.trackID))
	case m.state == Searching && m.trackID != 0:
		panic(fmt.Sprintf("lock: searching while holding track id %d", m.trackID))
	}
}

// Find returns the track with the given ID from tracks
func Find(tracks []*tracker.Track, trackID int) (*tracker.Track, bool) {
	for _, track := range tracks {
		if track.GetTrackID() == trackID {
			return track, true
		}
	}
	return nil, false
}
