package tracker

import (
	"image"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"
)

// Primitive is a single object visual tracker.  It is initialised on a
// region of a frame and then locates that region in subsequent frames.
// gocv's Tracker implementations satisfy this interface.
type Primitive interface {
	// Init starts tracking the box in the frame
	Init(frame gocv.Mat, box image.Rectangle) bool
	// Update locates the tracked region in the next frame, returning false
	// if the tracker lost it
	Update(frame gocv.Mat) (image.Rectangle, bool)
	// Close frees the tracker
	Close() error
}

// Factory creates a new Primitive
type Factory func() Primitive

// NewKCF returns a kernelized correlation filter (KCF) tracker
func NewKCF() Primitive {
	return contrib.NewTrackerKCF()
}
