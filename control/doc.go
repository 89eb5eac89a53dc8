// Package control converts the followed person's screen position and hand
// gesture into steering and drive decisions for the vehicle.
package control
