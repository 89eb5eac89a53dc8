/*
go-rcfollow drives a remote controlled car to follow a person seen by its
camera.  People detected in each video frame are tracked across frames, the
first person to raise a hand is locked onto and followed, and the steering
and drive decisions are sent to the car over its HTTP interface.

A raised left hand drives the car forward, any other gesture stops it.  When
the locked person has been out of view longer than the disappearance timeout
the lock is dropped and the car is stopped.

See cmd/rcfollow for the vision loop and cmd/simcar for a simulated car.
*/
package rcfollow
