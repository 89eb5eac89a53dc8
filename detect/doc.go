// Package detect is the intake for person detections produced by an
// external pose model.  Detections are exchanged as JSON Lines, one object
// per frame:
//
//	{"frame":0,"detections":[{"box":[x1,y1,x2,y2],"score":0.9,"keypoints":[[x,y,s],...]}]}
package detect
