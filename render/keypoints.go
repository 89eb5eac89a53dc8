package render

import (
	"image"

	"github.com/swdee/go-rcfollow/gesture"
	"github.com/swdee/go-rcfollow/tracker"
	"gocv.io/x/gocv"
)

// skeleton defines the COCO pose keypoint pairs to draw limbs between, so
// {15, 13} is a line from the left ankle to the left knee
var skeleton = [][2]int{
	{15, 13}, {13, 11}, {16, 14}, {14, 12}, {11, 12}, {5, 11}, {6, 12},
	{5, 6}, {5, 7}, {6, 8}, {7, 9}, {8, 10}, {1, 2}, {0, 1}, {0, 2},
	{1, 3}, {2, 4}, {3, 5}, {4, 6},
}

// PoseKeyPoints renders the pose skeleton of each track, joints with a score
// at or below threshold are not drawn
func PoseKeyPoints(img *gocv.Mat, tracks []*tracker.Track, threshold float32,
	lineThickness int) {

	for _, track := range tracks {

		kps := track.GetKeyPoints()

		if len(kps) < gesture.KeyPointsNumber {
			continue
		}

		for j, limb := range skeleton {
			a, b := kps[limb[0]], kps[limb[1]]

			if a.Score <= threshold || b.Score <= threshold {
				continue
			}

			gocv.Line(img, point(a), point(b), limbColors[j], lineThickness)
		}

		for j := 0; j < gesture.KeyPointsNumber; j++ {
			if kps[j].Score <= threshold {
				continue
			}

			gocv.Circle(img, point(kps[j]), 3, keyPointColors[j], -1)
		}
	}
}

func point(kp gesture.KeyPoint) image.Point {
	return image.Pt(int(kp.X), int(kp.Y))
}
