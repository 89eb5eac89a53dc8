package config

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// duration decodes a YAML duration written either as a Go duration string
// ("500ms", "2s") or as a bare number of seconds (2, 0.1)
type duration time.Duration

func (d *duration) UnmarshalYAML(node *yaml.Node) error {

	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}

	switch node.ShortTag() {
	case "!!int", "!!float":
		secs, err := strconv.ParseFloat(node.Value, 64)

		if err != nil {
			return fmt.Errorf("line %d: invalid duration %q: %w", node.Line, node.Value, err)
		}

		*d = duration(secs * float64(time.Second))
		return nil
	}

	v, err := time.ParseDuration(node.Value)

	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", node.Line, node.Value, err)
	}

	*d = duration(v)
	return nil
}

// UnmarshalYAML decodes the controller timings over the current values
func (c *Controller) UnmarshalYAML(node *yaml.Node) error {

	raw := struct {
		DriveCooldown     duration `yaml:"drive_cooldown"`
		SteeringCooldown  duration `yaml:"steering_cooldown"`
		RequestTimeout    duration `yaml:"request_timeout"`
		ConnectionTimeout duration `yaml:"connection_timeout"`
	}{
		DriveCooldown:     duration(c.DriveCooldown),
		SteeringCooldown:  duration(c.SteeringCooldown),
		RequestTimeout:    duration(c.RequestTimeout),
		ConnectionTimeout: duration(c.ConnectionTimeout),
	}

	if err := node.Decode(&raw); err != nil {
		return err
	}

	c.DriveCooldown = time.Duration(raw.DriveCooldown)
	c.SteeringCooldown = time.Duration(raw.SteeringCooldown)
	c.RequestTimeout = time.Duration(raw.RequestTimeout)
	c.ConnectionTimeout = time.Duration(raw.ConnectionTimeout)

	return nil
}

// UnmarshalYAML decodes the lock timeout over the current value
func (l *Lock) UnmarshalYAML(node *yaml.Node) error {

	raw := struct {
		DisappearanceTimeout duration `yaml:"disappearance_timeout"`
	}{
		DisappearanceTimeout: duration(l.DisappearanceTimeout),
	}

	if err := node.Decode(&raw); err != nil {
		return err
	}

	l.DisappearanceTimeout = time.Duration(raw.DisappearanceTimeout)

	return nil
}
