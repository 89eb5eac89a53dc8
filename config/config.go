package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when the loaded configuration fails validation
var ErrInvalid = errors.New("invalid configuration")

// DefaultPath is the configuration file read when none is given
const DefaultPath = "config.yaml"

// Environment variables overriding the configuration file
const (
	EnvCarIP    = "CAR_IP"
	EnvCarPort  = "CAR_PORT"
	EnvLogLevel = "LOG_LEVEL"
	EnvJournal  = "RCFOLLOW_JOURNAL"
)

// Config is the complete application configuration
type Config struct {
	Car        Car        `yaml:"car"`
	Vision     Vision     `yaml:"vision"`
	Controller Controller `yaml:"controller"`
	Tracking   Tracking   `yaml:"tracking"`
	Tracker    Tracker    `yaml:"tracker"`
	Lock       Lock       `yaml:"lock"`
	Logging    Logging    `yaml:"logging"`
	System     System     `yaml:"system"`
	Operator   Operator   `yaml:"operator"`
	Journal    Journal    `yaml:"journal"`
}

// Car is the vehicle network endpoint
type Car struct {
	IP   string `yaml:"ip" validate:"required,hostname|ip"`
	Port int    `yaml:"port" validate:"min=1,max=65535"`
}

type Vision struct {
	Camera        Camera        `yaml:"camera"`
	HandDetection HandDetection `yaml:"hand_detection"`
}

type Camera struct {
	Width          int  `yaml:"width" validate:"min=1"`
	Height         int  `yaml:"height" validate:"min=1"`
	FlipHorizontal bool `yaml:"flip_horizontal"`
}

type HandDetection struct {
	// ConfidenceThreshold is the minimum keypoint score to count as visible
	ConfidenceThreshold float32 `yaml:"confidence_threshold" validate:"gte=0,lte=1"`
	// PersonConfidenceThreshold is the minimum detection score to track
	PersonConfidenceThreshold float32 `yaml:"person_confidence_threshold" validate:"gte=0,lte=1"`
}

// Controller holds the command dispatch timing
type Controller struct {
	DriveCooldown     time.Duration `yaml:"drive_cooldown" validate:"gte=0"`
	SteeringCooldown  time.Duration `yaml:"steering_cooldown" validate:"gte=0"`
	RequestTimeout    time.Duration `yaml:"request_timeout" validate:"gt=0"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout" validate:"gt=0"`
}

// Tracking holds the steering controller settings
type Tracking struct {
	Enabled      bool `yaml:"enabled"`
	Threshold    int  `yaml:"threshold" validate:"gte=0"`
	SoftTracking bool `yaml:"soft_tracking"`
}

// Tracker holds the multi object tracker settings
type Tracker struct {
	MinHits        int     `yaml:"min_hits" validate:"min=1"`
	MaxAge         int     `yaml:"max_age" validate:"gte=0"`
	TrailSize      int     `yaml:"trail_size" validate:"min=1"`
	IoUWeight      float64 `yaml:"iou_weight" validate:"gte=0,lte=1"`
	FeatureWeight  float64 `yaml:"feature_weight" validate:"gte=0,lte=1"`
	MatchThreshold float64 `yaml:"match_threshold" validate:"gte=0,lte=1"`
}

type Lock struct {
	DisappearanceTimeout time.Duration `yaml:"disappearance_timeout" validate:"gt=0"`
}

type Logging struct {
	Level string `yaml:"level" validate:"oneof=trace debug info warn warning error fatal panic TRACE DEBUG INFO WARN WARNING ERROR FATAL PANIC"`
	// File enables a rotating log file when set
	File string `yaml:"file"`
}

type System struct {
	EnableCarControl    bool `yaml:"enable_car_control"`
	EmergencyStopOnExit bool `yaml:"emergency_stop_on_exit"`
	EnableDebugOutput   bool `yaml:"enable_debug_output"`
}

// Operator holds the operator console settings
type Operator struct {
	Enabled       bool    `yaml:"enabled"`
	Listen        string  `yaml:"listen" validate:"required_if=Enabled true"`
	RatePerSecond float64 `yaml:"rate_per_second" validate:"gt=0"`
	Burst         int     `yaml:"burst" validate:"min=1"`
}

// Journal enables the command journal when Path is set
type Journal struct {
	Path string `yaml:"path"`
}

// Default returns the compiled in configuration
func Default() Config {
	return Config{
		Car: Car{
			IP:   "192.168.4.1",
			Port: 80,
		},
		Vision: Vision{
			Camera: Camera{
				Width:          640,
				Height:         480,
				FlipHorizontal: true,
			},
			HandDetection: HandDetection{
				ConfidenceThreshold:       0.5,
				PersonConfidenceThreshold: 0.5,
			},
		},
		Controller: Controller{
			DriveCooldown:     2 * time.Second,
			SteeringCooldown:  100 * time.Millisecond,
			RequestTimeout:    2 * time.Second,
			ConnectionTimeout: 5 * time.Second,
		},
		Tracking: Tracking{
			Enabled:      true,
			Threshold:    50,
			SoftTracking: true,
		},
		Tracker: Tracker{
			MinHits:        3,
			MaxAge:         30,
			TrailSize:      50,
			IoUWeight:      0.4,
			FeatureWeight:  0.6,
			MatchThreshold: 0.7,
		},
		Lock: Lock{
			DisappearanceTimeout: 10 * time.Second,
		},
		Logging: Logging{
			Level: "info",
		},
		System: System{
			EnableCarControl:    true,
			EmergencyStopOnExit: true,
			EnableDebugOutput:   true,
		},
		Operator: Operator{
			Enabled:       false,
			Listen:        "127.0.0.1:8090",
			RatePerSecond: 5,
			Burst:         10,
		},
	}
}

// Load reads the configuration file at path over the defaults, applies a
// .env file and environment overrides, then validates the result.  A
// missing configuration file is not an error.
func Load(path string, log logrus.FieldLogger) (Config, error) {

	cfg := Default()

	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)

	switch {
	case errors.Is(err, os.ErrNotExist):
		log.WithField("path", path).Warn("Configuration file not found, using defaults")
	case err != nil:
		return cfg, fmt.Errorf("error reading configuration: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("error decoding configuration %s: %w", path, err)
		}
		log.WithField("path", path).Info("Configuration loaded")
	}

	// .env is optional
	if err := godotenv.Load(); err == nil {
		log.Debug("Loaded .env file")
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := Validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {

	if v, ok := os.LookupEnv(EnvCarIP); ok && v != "" {
		cfg.Car.IP = v
	}

	if v, ok := os.LookupEnv(EnvCarPort); ok && v != "" {
		port, err := strconv.Atoi(v)

		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a port", ErrInvalid, EnvCarPort, v)
		}

		cfg.Car.Port = port
	}

	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.Logging.Level = v
	}

	if v, ok := os.LookupEnv(EnvJournal); ok {
		cfg.Journal.Path = v
	}

	return nil
}

var validate = validator.New()

// Validate checks every field of the configuration
func Validate(cfg Config) error {

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if w := cfg.Tracker.IoUWeight + cfg.Tracker.FeatureWeight; w <= 0 {
		return fmt.Errorf("%w: tracker weights must not both be zero", ErrInvalid)
	}

	return nil
}

// Save writes the configuration to path as YAML
func Save(path string, cfg Config) error {

	data, err := yaml.Marshal(&cfg)

	if err != nil {
		return fmt.Errorf("error encoding configuration: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing configuration: %w", err)
	}

	return nil
}
