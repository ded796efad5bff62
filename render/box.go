package render

import (
	"fmt"
	"image"

	"github.com/swdee/go-humantrack/postprocess"
	"github.com/swdee/go-humantrack/tracker"
	"gocv.io/x/gocv"
)

// boxLabel is a precalculated text label for a box
type boxLabel struct {
	rect    image.Rectangle
	hasBg   bool
	text    string
	textPos image.Point
}

// DetectionBoxes renders a red bounding box around each person detected with
// a "class:confidence" label on a white background at its top left corner
func DetectionBoxes(img *gocv.Mat, detectResults []postprocess.DetectResult,
	classNames []string, font Font, lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0, len(detectResults))

	for _, detResult := range detectResults {

		// draw rectangle around detected object
		gocv.Rectangle(img, detResult.Box.Rect(), Red, lineThickness)

		// create text for label
		name := fmt.Sprintf("%d", detResult.Class)

		if detResult.Class >= 0 && detResult.Class < len(classNames) {
			name = classNames[detResult.Class]
		}

		text := fmt.Sprintf("%s:%.2f", name, detResult.Probability)
		textSize, baseline := gocv.GetTextSizeWithBaseline(text, font.Face,
			font.Scale, font.Thickness)

		// keep the label inside the top of the image
		top := max(detResult.Box.Top, textSize.Y)

		bRect := image.Rect(
			detResult.Box.Left-font.LeftPad,
			top-textSize.Y-font.TopPad,
			detResult.Box.Left+textSize.X+font.RightPad,
			top+baseline,
		)

		boxLabels = append(boxLabels, boxLabel{
			rect:    bRect,
			hasBg:   true,
			text:    text,
			textPos: image.Pt(detResult.Box.Left, top),
		})
	}

	drawLabels(img, boxLabels, font)
}

// TrackerBoxes renders a blue bounding box around each tracked person with
// its "Pose: (x,y)" label drawn at the top left corner
func TrackerBoxes(img *gocv.Mat, tracks []tracker.Track, font Font,
	lineThickness int) {

	boxLabels := make([]boxLabel, 0, len(tracks))

	for _, tr := range tracks {

		gocv.Rectangle(img, tr.Box, Blue, lineThickness)

		boxLabels = append(boxLabels, boxLabel{
			text:    PoseLabel(tr.Pose),
			textPos: tr.Box.Min,
		})
	}

	drawLabels(img, boxLabels, font)
}

// PoseLabel formats a pose to two decimal places
func PoseLabel(p tracker.Pose) string {
	return fmt.Sprintf("Pose: (%.2f,%.2f)", p.X, p.Y)
}

// drawLabels draws all precalculated box labels so they are the top most
// layer on the image and don't get overlapped by neighbouring boxes
func drawLabels(img *gocv.Mat, boxLabels []boxLabel, font Font) {

	for _, box := range boxLabels {
		if box.hasBg {
			// draw box text gets written on
			gocv.Rectangle(img, box.rect, White, -1)
		}

		// Draw the label over box
		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}
