package tracker

import (
	"github.com/swdee/go-rcfollow/descriptor"
)

// Match pairs an existing track with the index of a detection in the
// current frame
type Match struct {
	TrackID   int
	Detection int
}

// AssociateParams defines the weighting of the fused match score
type AssociateParams struct {
	// IoUWeight is the weight given to bounding box overlap
	IoUWeight float64
	// FeatureWeight is the weight given to descriptor cosine similarity
	FeatureWeight float64
	// MatchThresh is the score a pairing must exceed to be accepted
	MatchThresh float64
}

// Score returns the fused geometric and visual similarity score between a
// track and a detection
func (p AssociateParams) Score(track *Track, det Detection) float64 {
	iou := float64(track.GetRect().CalcIoU(det.Rect))
	sim := descriptor.Cosine(track.GetDescriptor(), det.Descriptor)
	return p.IoUWeight*iou + p.FeatureWeight*sim
}

// Associate greedily matches detections to tracks.  Tracks must be given in
// ascending track ID order, each claims the highest scoring detection not
// already claimed by an earlier track, provided the score exceeds the match
// threshold.  When detections score equally the lowest index wins.
//
// Matching is greedy with track priority rather than a globally optimal
// assignment, trading accuracy in crowded scenes for simplicity and speed.
func Associate(tracks []*Track, dets []Detection, p AssociateParams) (matches []Match,
	unmatchedTracks []int, unmatchedDets []int) {

	claimed := make([]bool, len(dets))

	for _, track := range tracks {

		best := -1
		bestScore := 0.0

		for di := range dets {
			if claimed[di] {
				continue
			}

			score := p.Score(track, dets[di])

			if best < 0 || score > bestScore {
				best = di
				bestScore = score
			}
		}

		if best >= 0 && bestScore > p.MatchThresh {
			claimed[best] = true
			matches = append(matches, Match{TrackID: track.GetTrackID(), Detection: best})
			continue
		}

		unmatchedTracks = append(unmatchedTracks, track.GetTrackID())
	}

	for di, isClaimed := range claimed {
		if !isClaimed {
			unmatchedDets = append(unmatchedDets, di)
		}
	}

	return matches, unmatchedTracks, unmatchedDets
}
