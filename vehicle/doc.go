// Package vehicle is the HTTP client for the vehicle firmware.  Drive
// commands are posted to /hand-gesture, steering commands to
// /person-tracking and GET / is used as a liveness probe.  Requests are
// never retried.
package vehicle
