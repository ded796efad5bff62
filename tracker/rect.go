package tracker

import (
	"image"
	"math"
)

// ShrinkRatios define how a detector box is inset before a tracker is
// initialised on it.  Left and Top are the fractions of the width and height
// the box is moved in by, Width and Height the fractions of each dimension
// that are kept.
type ShrinkRatios struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// DefaultShrinkRatios insets a box 10% from the left and 6% from the top,
// keeping 80% of its width and height.  This keeps the tracked region on the
// subject's torso as detector boxes are loose around people.
func DefaultShrinkRatios() ShrinkRatios {
	return ShrinkRatios{
		Left:   0.1,
		Top:    0.06,
		Width:  0.8,
		Height: 0.8,
	}
}

// Shrink applies the shrink ratios to the box.  Offsets and sizes are
// rounded half to even.
func Shrink(box image.Rectangle, r ShrinkRatios) image.Rectangle {

	w := float64(box.Dx())
	h := float64(box.Dy())

	x := box.Min.X + roundInt(w*r.Left)
	y := box.Min.Y + roundInt(h*r.Top)

	return image.Rect(x, y, x+roundInt(w*r.Width), y+roundInt(h*r.Height))
}

// Pose is the 2D position estimate of a tracked person, being the center of
// its tracked box
type Pose struct {
	X float32
	Y float32
}

// Center returns the pose of the box
func Center(box image.Rectangle) Pose {
	return Pose{
		X: float32(box.Min.X) + float32(box.Dx())/2,
		Y: float32(box.Min.Y) + float32(box.Dy())/2,
	}
}

// Point returns the pose rounded down to a pixel position
func (p Pose) Point() image.Point {
	return image.Pt(int(p.X), int(p.Y))
}

// IoU calculates the Intersection over Union (IoU) of two boxes
func IoU(a, b image.Rectangle) float64 {

	inter := a.Intersect(b)

	if inter.Empty() {
		return 0
	}

	interArea := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - interArea

	if union <= 0 {
		return 0
	}

	return interArea / union
}

// roundInt rounds to the nearest integer with ties to even
func roundInt(v float64) int {
	return int(math.RoundToEven(v))
}
