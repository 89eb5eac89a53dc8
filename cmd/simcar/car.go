package main

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// Motion is the simulated motor state
type Motion string

const (
	Stopped   Motion = "stopped"
	Forward   Motion = "forward"
	Backward  Motion = "backward"
	TurnLeft  Motion = "turn_left"
	TurnRight Motion = "turn_right"
)

// gestureMotion maps a hand gesture to the motor response of the firmware
var gestureMotion = map[string]Motion{
	"left":  Forward,
	"right": Backward,
	"both":  Stopped,
	"none":  Stopped,
}

// trackingMotion maps a tracking action to the motor response of the
// firmware
var trackingMotion = map[string]Motion{
	"track_left":   TurnLeft,
	"track_right":  TurnRight,
	"track_center": Stopped,
}

// Car is a simulated vehicle, unknown commands stop the motors
type Car struct {
	mu       sync.Mutex
	motion   Motion
	commands int
	log      logrus.FieldLogger
}

// NewCar returns a stopped Car
func NewCar(log logrus.FieldLogger) *Car {
	return &Car{
		motion: Stopped,
		log:    log.WithField("component", "simcar"),
	}
}

func (c *Car) apply(kind, value string, table map[string]Motion) Motion {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := table[value]
	if !ok {
		m = Stopped
	}

	c.motion = m
	c.commands++

	c.log.WithFields(logrus.Fields{
		kind:     value,
		"motion": m,
	}).Info("Motors updated")

	return m
}

// State returns the current motion and number of commands received
func (c *Car) State() (Motion, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.motion, c.commands
}

// NewApp returns the fiber application serving the firmware endpoints
func NewApp(car *Car) *fiber.App {

	app := fiber.New(fiber.Config{
		AppName:               "simcar",
		DisableStartupMessage: true,
		JSONEncoder:           jsoniter.Marshal,
		JSONDecoder:           jsoniter.Unmarshal,
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Smart car ready")
	})

	app.Post("/hand-gesture", func(c *fiber.Ctx) error {
		gesture := c.FormValue("gesture")

		if gesture == "" {
			return c.Status(fiber.StatusBadRequest).SendString("Missing gesture parameter")
		}

		car.apply("gesture", gesture, gestureMotion)
		return c.SendString("OK")
	})

	app.Post("/person-tracking", func(c *fiber.Ctx) error {
		action := c.FormValue("action")

		if action == "" {
			return c.Status(fiber.StatusBadRequest).SendString("Missing action parameter")
		}

		car.apply("action", action, trackingMotion)
		return c.SendString("OK")
	})

	app.Get("/state", func(c *fiber.Ctx) error {
		m, n := car.State()
		return c.JSON(fiber.Map{"motion": m, "commands": n})
	})

	return app
}
