package operator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/swdee/go-rcfollow/journal"
	"golang.org/x/time/rate"
)

// ActionKind is the type of operator request
type ActionKind int

const (
	// ActionReset forces the lock back to searching and stops the vehicle
	ActionReset ActionKind = 0
	// ActionSetTracking enables or disables steering
	ActionSetTracking ActionKind = 1
	// ActionSetThreshold adjusts the steering sensitivity
	ActionSetThreshold ActionKind = 2
)

func (k ActionKind) String() string {
	switch k {
	case ActionReset:
		return "reset"
	case ActionSetTracking:
		return "tracking"
	case ActionSetThreshold:
		return "sensitivity"
	default:
		return "unknown"
	}
}

// Action is an operator request to be applied by the frame loop
type Action struct {
	Kind      ActionKind
	Enabled   bool
	Threshold int
}

// Status is the snapshot of the frame loop shown to the operator
type Status struct {
	State           string `json:"state"`
	TrackID         int    `json:"track_id"`
	Confirmed       int    `json:"confirmed"`
	Steering        string `json:"steering"`
	Drive           string `json:"drive"`
	SoftTarget      int    `json:"soft_target"`
	TrackingEnabled bool   `json:"tracking_enabled"`
	Threshold       int    `json:"threshold"`
	Frame           int    `json:"frame"`
}

// JournalReader reads recent command records
type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]journal.Record, error)
}

// Options defines the operator console settings
type Options struct {
	RatePerSecond float64
	Burst         int
	// QueueSize is the number of actions buffered for the frame loop
	QueueSize int
}

// DefaultOptions returns the default operator console settings
func DefaultOptions() Options {
	return Options{
		RatePerSecond: 5,
		Burst:         10,
		QueueSize:     16,
	}
}

// ErrQueueFull is returned when the frame loop has not drained pending
// actions
var ErrQueueFull = errors.New("operator action queue full")

// Server is the operator console.  It never touches frame loop state
// directly, requests are queued as Actions and status is read from the
// last published snapshot.
type Server struct {
	app       *fiber.App
	actions   chan Action
	limiter   *rate.Limiter
	validate  *validator.Validate
	journal   JournalReader
	log       logrus.FieldLogger
	mu        sync.RWMutex
	status    Status
	published bool
}

// New returns an operator console Server, journal may be nil
func New(opts Options, j JournalReader, log logrus.FieldLogger) *Server {

	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultOptions().QueueSize
	}

	s := &Server{
		actions:  make(chan Action, opts.QueueSize),
		limiter:  rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		validate: validator.New(),
		journal:  j,
		log:      log.WithField("component", "operator"),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "rcfollow operator",
		DisableStartupMessage: true,
		StrictRouting:         true,
		CaseSensitive:         true,
		JSONEncoder:           jsoniter.Marshal,
		JSONDecoder:           jsoniter.Unmarshal,
		ErrorHandler:          s.errorHandler,
	})

	s.app.Use(s.rateLimit)

	s.app.Get("/status", s.handleStatus)
	s.app.Post("/reset", s.handleReset)
	s.app.Post("/tracking", s.handleTracking)
	s.app.Post("/sensitivity", s.handleSensitivity)
	s.app.Get("/journal", s.handleJournal)

	return s
}

// App returns the underlying fiber application
func (s *Server) App() *fiber.App {
	return s.app
}

// Actions returns the queue of operator requests
func (s *Server) Actions() <-chan Action {
	return s.actions
}

// Publish replaces the status snapshot
func (s *Server) Publish(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = st
	s.published = true
}

// Snapshot returns the last published status
func (s *Server) Snapshot() (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status, s.published
}

// Listen serves the console on addr until Shutdown
func (s *Server) Listen(addr string) error {
	s.log.WithField("addr", addr).Info("Operator console listening")
	return s.app.Listen(addr)
}

// Shutdown stops the console within the timeout
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

func (s *Server) enqueue(a Action) error {
	select {
	case s.actions <- a:
		s.log.WithField("action", a.Kind.String()).Info("Operator action queued")
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *Server) rateLimit(c *fiber.Ctx) error {

	if !s.limiter.Allow() {
		s.log.Warnf("too many requests from %s", c.IP())
		return fiber.ErrTooManyRequests
	}

	return c.Next()
}

func (s *Server) handleStatus(c *fiber.Ctx) error {

	st, ok := s.Snapshot()

	if !ok {
		return fiber.NewError(fiber.StatusServiceUnavailable, "No frame processed yet")
	}

	return c.JSON(st)
}

func (s *Server) queued(c *fiber.Ctx, a Action) error {

	if err := s.enqueue(a); err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"queued": a.Kind.String(),
	})
}

func (s *Server) handleReset(c *fiber.Ctx) error {
	return s.queued(c, Action{Kind: ActionReset})
}

type trackingRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

func (s *Server) handleTracking(c *fiber.Ctx) error {

	var req trackingRequest

	if err := s.bind(c, &req); err != nil {
		return err
	}

	return s.queued(c, Action{Kind: ActionSetTracking, Enabled: *req.Enabled})
}

type sensitivityRequest struct {
	Threshold *int `json:"threshold" validate:"required,gte=0,lte=10000"`
}

func (s *Server) handleSensitivity(c *fiber.Ctx) error {

	var req sensitivityRequest

	if err := s.bind(c, &req); err != nil {
		return err
	}

	return s.queued(c, Action{Kind: ActionSetThreshold, Threshold: *req.Threshold})
}

// bind decodes and validates a JSON request body
func (s *Server) bind(c *fiber.Ctx, req any) error {

	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := s.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return nil
}

// errorHandler writes every handler error as a JSON body
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {

	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func (s *Server) handleJournal(c *fiber.Ctx) error {

	if s.journal == nil {
		return fiber.NewError(fiber.StatusNotFound, "Journal disabled")
	}

	limit := c.QueryInt("limit", 20)

	if limit < 0 || limit > 1000 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be between 0 and 1000")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	records, err := s.journal.Recent(ctx, limit)

	if err != nil {
		s.log.WithError(err).Error("Failed to read journal")
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to read journal")
	}

	return c.JSON(records)
}
