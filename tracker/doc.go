/*
Package tracker turns per frame person detections into persistent track
identities.  Detections are greedily associated to existing tracks with a
score fusing bounding box IoU and appearance descriptor similarity.  Tracks
are confirmed after a minimum number of matches and evicted after too many
consecutive misses.
*/
package tracker
