package tracker

import (
	"image"

	"github.com/swdee/go-humantrack/postprocess"
)

// DetectionsToBoxes takes the postprocess detection results and converts them
// into the boxes trackers are initialised on
func DetectionsToBoxes(dets []postprocess.DetectResult) []image.Rectangle {

	boxes := make([]image.Rectangle, 0, len(dets))

	for _, det := range dets {
		boxes = append(boxes, det.Box.Rect())
	}

	return boxes
}
