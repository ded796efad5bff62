package tracker

import (
	"errors"
	"image"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/swdee/go-humantrack/postprocess/result"
	"gocv.io/x/gocv"
)

// Options configure the behavior of a tracker Set
type Options struct {
	// Shrink is applied to every box handed to Reinitialize
	Shrink ShrinkRatios
	// MaxMisses is the number of consecutive failed updates after which a
	// track is dropped.  Zero keeps lost tracks forever at their last known
	// box.
	MaxMisses int
	// MatchIoU enables carrying track IDs over a Reinitialize.  A new box
	// inherits the ID of the previous track it is assigned to if their IoU is
	// at least MatchIoU.  Zero gives every batch fresh IDs.
	MatchIoU float64
	// Parallel updates the trackers of a Set concurrently
	Parallel bool
}

// DefaultOptions returns options that keep lost tracks, never carry IDs
// across re-detection and update trackers sequentially
func DefaultOptions() Options {
	return Options{
		Shrink: DefaultShrinkRatios(),
	}
}

// Set owns the collection of single object trackers, one per person
// currently tracked.  A Set is not safe for concurrent use.
type Set struct {
	// factory creates a tracker primitive per object
	factory Factory
	opts    Options
	// objects are the live tracked objects in detection order
	objects []*Object
	// ids generates track IDs
	ids *result.IDGenerator
}

// NewSet returns an empty tracker set creating its trackers with factory
func NewSet(factory Factory, opts Options) *Set {
	return &Set{
		factory: factory,
		opts:    opts,
		objects: make([]*Object, 0),
		ids:     result.NewIDGenerator(),
	}
}

// Reinitialize discards every tracked object and starts a new tracker on
// each of the boxes after shrinking it.  frameNum records the frame the
// trackers were initialised on.  It returns the new tracks.
func (s *Set) Reinitialize(frame gocv.Mat, frameNum int, boxes []image.Rectangle) []Track {

	shrunk := make([]image.Rectangle, len(boxes))

	for i, box := range boxes {
		shrunk[i] = Shrink(box, s.opts.Shrink)
	}

	ids := s.assignIDs(shrunk)

	if err := s.closeObjects(); err != nil {
		log.WithError(err).Warn("Error closing trackers")
	}

	objects := make([]*Object, 0, len(shrunk))

	for i, box := range shrunk {
		obj, ok := newObject(ids[i], s.factory(), frame, box, frameNum)

		if !ok {
			log.WithFields(log.Fields{
				"track": ids[i],
				"box":   box,
				"frame": frameNum,
			}).Warn("Tracker failed to initialise, reporting detector box")
		}

		objects = append(objects, obj)
	}

	s.objects = objects

	return s.Tracks()
}

// Update advances every tracked object by one frame and returns the tracks.
// A tracker that fails keeps reporting its last known box, unless MaxMisses
// is set and has been reached, in which case the object is dropped.
func (s *Set) Update(frame gocv.Mat) []Track {

	if s.opts.Parallel && len(s.objects) > 1 {
		var wg sync.WaitGroup

		for _, obj := range s.objects {
			wg.Add(1)

			go func(o *Object) {
				defer wg.Done()
				o.update(frame)
			}(obj)
		}

		wg.Wait()

	} else {
		for _, obj := range s.objects {
			obj.update(frame)
		}
	}

	s.dropLost()

	return s.Tracks()
}

// Tracks returns the current state of every tracked object
func (s *Set) Tracks() []Track {

	tracks := make([]Track, 0, len(s.objects))

	for _, obj := range s.objects {
		tracks = append(tracks, obj.track())
	}

	return tracks
}

// Len returns the number of tracked objects
func (s *Set) Len() int {
	return len(s.objects)
}

// Close frees all trackers in the set
func (s *Set) Close() error {
	return s.closeObjects()
}

// dropLost removes objects that have reached the maximum consecutive misses
func (s *Set) dropLost() {

	if s.opts.MaxMisses <= 0 {
		for _, obj := range s.objects {
			if obj.lost {
				log.WithFields(log.Fields{
					"track":  obj.id,
					"misses": obj.misses,
				}).Debug("Tracker lost object, keeping last box")
			}
		}
		return
	}

	kept := s.objects[:0]

	for _, obj := range s.objects {

		if obj.misses < s.opts.MaxMisses {
			kept = append(kept, obj)
			continue
		}

		log.WithFields(log.Fields{
			"track":  obj.id,
			"misses": obj.misses,
		}).Info("Dropping lost track")

		if err := obj.close(); err != nil {
			log.WithError(err).Warn("Error closing tracker")
		}
	}

	// clear references beyond the kept objects
	for i := len(kept); i < len(s.objects); i++ {
		s.objects[i] = nil
	}

	s.objects = kept
}

// assignIDs returns a track ID for each new box.  When matching is enabled
// boxes assigned to a previous track inherit its ID.
func (s *Set) assignIDs(boxes []image.Rectangle) []int64 {

	ids := make([]int64, len(boxes))

	var matched map[int]int

	if s.opts.MatchIoU > 0 && len(s.objects) > 0 && len(boxes) > 0 {

		prev := make([]image.Rectangle, len(s.objects))

		for i, obj := range s.objects {
			prev[i] = obj.box
		}

		var err error
		matched, err = matchBoxes(prev, boxes, s.opts.MatchIoU)

		if err != nil {
			log.WithError(err).Warn("Track matching failed, assigning new IDs")
			matched = nil
		}
	}

	for i := range boxes {
		if p, ok := matched[i]; ok {
			ids[i] = s.objects[p].id
			continue
		}

		ids[i] = s.ids.GetNext()
	}

	return ids
}

// closeObjects closes and discards every object
func (s *Set) closeObjects() error {

	var errs []error

	for _, obj := range s.objects {
		if err := obj.close(); err != nil {
			errs = append(errs, err)
		}
	}

	s.objects = make([]*Object, 0)

	return errors.Join(errs...)
}
