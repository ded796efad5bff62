package tracker

import (
	"image"

	"gocv.io/x/gocv"
)

// Object is a single tracked person, owning one tracker primitive
type Object struct {
	// id is the track ID
	id int64
	// prim is the single object tracker
	prim Primitive
	// box is the current tracked box
	box image.Rectangle
	// startFrame is the frame number the tracker was initialised on
	startFrame int
	// misses is the number of consecutive failed updates
	misses int
	// lost records whether the most recent update failed
	lost bool
}

// newObject creates an object and initialises its tracker on the box
func newObject(id int64, prim Primitive, frame gocv.Mat, box image.Rectangle,
	frameNum int) (*Object, bool) {

	o := &Object{
		id:         id,
		prim:       prim,
		box:        box,
		startFrame: frameNum,
	}

	// an empty box is never handed to the primitive, KCF throws on it
	ok := !box.Empty() && prim.Init(frame, box)

	if !ok {
		o.lost = true
		o.misses = 1
	}

	return o, ok
}

// update advances the tracker one frame.  On failure the last known box is
// kept.
func (o *Object) update(frame gocv.Mat) bool {

	box, ok := o.prim.Update(frame)

	if !ok {
		o.misses++
		o.lost = true
		return false
	}

	o.box = box
	o.misses = 0
	o.lost = false

	return true
}

// close frees the tracker primitive
func (o *Object) close() error {
	if o.prim == nil {
		return nil
	}

	err := o.prim.Close()
	o.prim = nil

	return err
}

// track returns the object's current state
func (o *Object) track() Track {
	return Track{
		ID:         o.id,
		Box:        o.box,
		Pose:       Center(o.box),
		Lost:       o.lost,
		StartFrame: o.startFrame,
		Misses:     o.misses,
	}
}

// Track is the state of a tracked person reported after each Reinitialize
// or Update
type Track struct {
	// ID is the track ID
	ID int64
	// Box is the current tracked box
	Box image.Rectangle
	// Pose is the center of Box
	Pose Pose
	// Lost is true if the tracker failed to locate the person on the last
	// frame, in which case Box is the last known box
	Lost bool
	// StartFrame is the frame number the tracker was initialised on
	StartFrame int
	// Misses is the number of consecutive failed updates
	Misses int
}
