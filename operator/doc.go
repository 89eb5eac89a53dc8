// Package operator is an HTTP console for supervising the follower.  It
// exposes the tracking status, accepts reset, tracking and sensitivity
// requests and lists the command journal.
package operator
