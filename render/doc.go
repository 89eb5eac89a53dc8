// Package render draws tracked persons, the locked target, pose skeletons,
// trails and status text onto video frames.
package render
