// Package config loads the YAML configuration file, applies environment
// overrides and validates the result.
package config
