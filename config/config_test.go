package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingUsesDefaults(t *testing.T) {
	log, hook := test.NewNullLogger()

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), log)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "not found")
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
car:
  ip: 192.168.1.112
  port: 8080
vision:
  camera:
    flip_horizontal: false
controller:
  drive_cooldown: 1500ms
  steering_cooldown: 0.2s
tracking:
  threshold: 80
lock:
  disappearance_timeout: 5s
logging:
  level: DEBUG
`)
	log, _ := test.NewNullLogger()

	cfg, err := Load(path, log)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.112", cfg.Car.IP)
	assert.Equal(t, 8080, cfg.Car.Port)
	assert.False(t, cfg.Vision.Camera.FlipHorizontal)
	assert.Equal(t, 640, cfg.Vision.Camera.Width)
	assert.Equal(t, 1500*time.Millisecond, cfg.Controller.DriveCooldown)
	assert.Equal(t, 200*time.Millisecond, cfg.Controller.SteeringCooldown)
	assert.Equal(t, 80, cfg.Tracking.Threshold)
	assert.Equal(t, 5*time.Second, cfg.Lock.DisappearanceTimeout)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)

	// untouched sections keep defaults
	assert.Equal(t, Default().Tracker, cfg.Tracker)
}

func TestLoadDurationsInSeconds(t *testing.T) {
	path := writeConfig(t, `
controller:
  drive_cooldown: 2.0
  steering_cooldown: 0.1
  request_timeout: 2
  connection_timeout: 5
lock:
  disappearance_timeout: 10
`)
	log, _ := test.NewNullLogger()

	cfg, err := Load(path, log)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Controller.DriveCooldown)
	assert.Equal(t, 100*time.Millisecond, cfg.Controller.SteeringCooldown)
	assert.Equal(t, 2*time.Second, cfg.Controller.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.Controller.ConnectionTimeout)
	assert.Equal(t, 10*time.Second, cfg.Lock.DisappearanceTimeout)
}

func TestLoadInvalidDuration(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unit", "controller:\n  request_timeout: 2 parsecs\n"},
		{"sequence", "lock:\n  disappearance_timeout: [1, 2]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, _ := test.NewNullLogger()

			_, err := Load(writeConfig(t, tt.body), log)
			assert.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvCarIP, "10.0.0.5")
	t.Setenv(EnvCarPort, "9000")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvJournal, "/tmp/journal.db")

	path := writeConfig(t, "car:\n  ip: 192.168.1.112\n")
	log, _ := test.NewNullLogger()

	cfg, err := Load(path, log)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", cfg.Car.IP)
	assert.Equal(t, 9000, cfg.Car.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "/tmp/journal.db", cfg.Journal.Path)
}

func TestEnvBadPort(t *testing.T) {
	t.Setenv(EnvCarPort, "eighty")
	log, _ := test.NewNullLogger()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), log)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"port", func(c *Config) { c.Car.Port = 0 }},
		{"ip", func(c *Config) { c.Car.IP = "" }},
		{"min hits", func(c *Config) { c.Tracker.MinHits = 0 }},
		{"confidence", func(c *Config) { c.Vision.HandDetection.ConfidenceThreshold = 1.5 }},
		{"timeout", func(c *Config) { c.Lock.DisappearanceTimeout = 0 }},
		{"level", func(c *Config) { c.Logging.Level = "loud" }},
		{"weights", func(c *Config) {
			c.Tracker.IoUWeight = 0
			c.Tracker.FeatureWeight = 0
		}},
		{"listen", func(c *Config) {
			c.Operator.Enabled = true
			c.Operator.Listen = ""
		}},
	}

	require.NoError(t, Validate(Default()))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.ErrorIs(t, Validate(cfg), ErrInvalid)
		})
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, "car: [not, a, map\n")
	log, _ := test.NewNullLogger()

	_, err := Load(path, log)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")

	cfg := Default()
	cfg.Tracking.Threshold = 120
	cfg.Controller.DriveCooldown = 3 * time.Second

	require.NoError(t, Save(path, cfg))

	log, _ := test.NewNullLogger()
	loaded, err := Load(path, log)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
