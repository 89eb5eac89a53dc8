// Package logging builds the application logrus logger.
package logging
