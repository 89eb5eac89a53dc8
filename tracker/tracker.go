package tracker

import (
	"sort"
)

// Params defines the track lifecycle settings
type Params struct {
	AssociateParams
	// MinHits is the number of matches before a track is confirmed and
	// reported
	MinHits int
	// MaxAge is the number of consecutive unmatched frames a track survives,
	// it is evicted once its age exceeds this
	MaxAge int
	// TrailSize is the number of center points kept per track
	TrailSize int
}

// DefaultParams returns the default tracker settings
func DefaultParams() Params {
	return Params{
		AssociateParams: AssociateParams{
			IoUWeight:     0.4,
			FeatureWeight: 0.6,
			MatchThresh:   0.7,
		},
		MinHits:   3,
		MaxAge:    30,
		TrailSize: 50,
	}
}

// Tracker owns the lifecycle of all tracks, from creation through
// confirmation to eviction
type Tracker struct {
	params Params
	// Counter for assigning unique track IDs
	trackIDCount int
	// tracks holds the live tracks keyed by track ID
	tracks map[int]*Track
	// frameID is the number of frames processed
	frameID int
}

// NewTracker initializes and returns a new Tracker
func NewTracker(p Params) *Tracker {
	return &Tracker{
		params: p,
		tracks: make(map[int]*Track),
	}
}

// Params returns the tracker settings
func (tr *Tracker) Params() Params {
	return tr.params
}

// Reset removes all live tracks.  The track ID counter is kept so IDs are
// never handed out twice.
func (tr *Tracker) Reset() {
	tr.frameID = 0
	tr.tracks = make(map[int]*Track)
}

// Update advances the tracker by one frame of detections and returns the
// confirmed tracks in ascending track ID order
func (tr *Tracker) Update(dets []Detection) []*Track {

	tr.frameID++

	live := tr.sortedTracks()

	if len(dets) == 0 {
		for _, track := range live {
			tr.age(track)
		}
		return nil
	}

	matches, unmatchedTracks, unmatchedDets := Associate(live, dets, tr.params.AssociateParams)

	for _, m := range matches {
		tr.tracks[m.TrackID].Update(dets[m.Detection])
	}

	for _, di := range unmatchedDets {
		tr.trackIDCount++
		tr.tracks[tr.trackIDCount] = newTrack(tr.trackIDCount, dets[di], tr.params.TrailSize)
	}

	for _, id := range unmatchedTracks {
		tr.age(tr.tracks[id])
	}

	return tr.Confirmed()
}

// Confirmed returns the live tracks that have reached MinHits, in ascending
// track ID order
func (tr *Tracker) Confirmed() []*Track {

	var out []*Track

	for _, track := range tr.sortedTracks() {
		if track.IsConfirmed(tr.params.MinHits) {
			out = append(out, track)
		}
	}

	return out
}

// Tracks returns all live tracks, confirmed or not, in ascending ID order
func (tr *Tracker) Tracks() []*Track {
	return tr.sortedTracks()
}

// Get returns the live track with the given ID
func (tr *Tracker) Get(trackID int) (*Track, bool) {
	t, ok := tr.tracks[trackID]
	return t, ok
}

// FrameID returns the number of frames processed since creation or Reset
func (tr *Tracker) FrameID() int {
	return tr.frameID
}

// age marks the track as missed for this frame and evicts it when it has
// exceeded MaxAge
func (tr *Tracker) age(track *Track) {
	track.MarkMissed()

	if track.GetAge() > tr.params.MaxAge {
		delete(tr.tracks, track.GetTrackID())
	}
}

// sortedTracks returns the live tracks in ascending ID order so matching
// is reproducible
func (tr *Tracker) sortedTracks() []*Track {

	out := make([]*Track, 0, len(tr.tracks))

	for _, track := range tr.tracks {
		out = append(out, track)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].GetTrackID() < out[j].GetTrackID()
	})

	return out
}
