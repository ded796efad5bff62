package render

import (
	"image/color"

	"github.com/swdee/go-humantrack/tracker"
	"gocv.io/x/gocv"
)

// TrailStyle defines the parameters used for rendering the trail style
type TrailStyle struct {
	// LineSame defines if the color of the trail line should be the
	// same color as that of the bounding box.  If set to false then use
	// the color specified at LineColor
	LineSame      bool
	LineColor     color.RGBA
	LineThickness int
	// CircleSame defines if the color of the midpoint circle should be the
	// same color as that of the bounding box.  If set to false then use
	// the color specified at CircleColor
	CircleSame   bool
	CircleColor  color.RGBA
	CircleRadius int
}

// DefaultTrailStyle returns default trail style settings
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineSame:      false,
		LineColor:     Yellow,
		LineThickness: 1,
		CircleSame:    true,
		CircleColor:   Pink,
		CircleRadius:  3,
	}
}

// Trail draws the pose history of each track on the source image
func Trail(img *gocv.Mat, tracks []tracker.Track, trail *tracker.Trail,
	style TrailStyle) {

	// draw trail
	for _, tr := range tracks {

		// Get the color for this object
		objClr := trackColor(tr.ID)

		// determine style colors to use
		lineClr := objClr
		circleClr := objClr

		if !style.LineSame {
			lineClr = style.LineColor
		}

		if !style.CircleSame {
			circleClr = style.CircleColor
		}

		// draw trail line showing tracking history
		points := trail.GetPoints(tr.ID)

		if len(points) > 2 {
			// draw trail
			for i := 1; i < len(points); i++ {
				// draw line segment of trail
				gocv.Line(img, points[i-1], points[i], lineClr,
					style.LineThickness)

				if i == len(points)-1 {
					// draw center point circle on current rect/box
					gocv.Circle(img, points[i], style.CircleRadius, circleClr, -1)
				}
			}
		}
	}
}
