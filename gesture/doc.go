/*
Package gesture classifies a raised hand signal from COCO pose keypoints
supplied by an external pose detector.
*/
package gesture
