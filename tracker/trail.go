package tracker

import (
	"image"
	"sync"
)

// history is the pose history of a single track
type history struct {
	points []image.Point
	// seen is the trail generation the track was last added in
	seen int
}

// Trail is the struct to keep a history of Track poses used for drawing
// a trail
type Trail struct {
	// size is the maximum number of most recent points to keep in history
	size int
	// history of tracked points by track ID
	history map[int64]*history
	// gen counts calls to Add, used to expire tracks no longer reported
	gen int
	sync.Mutex
}

// NewTrail returns a new trail history track instance.  Size is the number
// of most recent poses to keep and specifies the maximum length of the trail
// to maintain
func NewTrail(size int) *Trail {
	return &Trail{
		size:    size,
		history: make(map[int64]*history),
	}
}

// Reset clears all history
func (t *Trail) Reset() {
	t.Lock()
	defer t.Unlock()

	t.history = make(map[int64]*history)
}

// Add the poses of the tracks to the history.  Tracks whose ID is not in
// tracks have their history discarded.
func (t *Trail) Add(tracks []Track) {
	t.Lock()
	defer t.Unlock()

	t.gen++

	for _, tr := range tracks {

		// init map if no history exists yet for track id
		h, exists := t.history[tr.ID]

		if !exists {
			h = &history{}
			t.history[tr.ID] = h
		}

		h.seen = t.gen
		h.points = append(h.points, tr.Pose.Point())

		// check if history is exceeded and drop oldest point
		if len(h.points) > t.size {
			h.points = h.points[1:]
		}
	}

	for id, h := range t.history {
		if h.seen != t.gen {
			delete(t.history, id)
		}
	}
}

// GetPoints gets the point history for a specific track id
func (t *Trail) GetPoints(id int64) []image.Point {
	t.Lock()
	defer t.Unlock()

	if h, exists := t.history[id]; exists {
		pts := make([]image.Point, len(h.points))
		copy(pts, h.points)
		return pts
	}

	// no history yet
	return nil
}
