package postprocess

import (
	"errors"
	"fmt"

	"github.com/swdee/go-humantrack"
	"github.com/swdee/go-humantrack/postprocess/result"
)

var (
	// ErrClassOutOfRange is returned when the network scores more classes
	// than the labels file defines, meaning the Model and labels don't match
	ErrClassOutOfRange = errors.New("class index out of range of labels")
	// ErrMalformedOutput is returned when an output layer is too narrow to
	// hold the box attributes and at least one class score
	ErrMalformedOutput = errors.New("malformed output layer")
)

// YOLOv4 defines the struct for YOLOv4 Darknet model inference post processing
// of the output layers produced by the OpenCV DNN module
type YOLOv4 struct {
	// Params are the Model configuration parameters
	Params YOLOv4Params
	// idGen is the ID generator for labeling detection results
	idGen *result.IDGenerator
}

// YOLOv4Params defines the struct containing the YOLOv4 parameters to use
// for post processing operations
type YOLOv4Params struct {
	// ConfThreshold is the class score a candidate box must exceed to be
	// considered for processing.  A score equal to the threshold is dropped
	ConfThreshold float32
	// NMSThreshold is the Non-Maximum Suppression threshold used for defining
	// the maximum allowed Intersection Over Union (IoU) between two
	// bounding boxes for both to be kept
	NMSThreshold float32
	// ObjectClassNum is the number of labels the Model has been trained with
	ObjectClassNum int
	// KeepClass is the class ID of the only object class returned
	KeepClass int
}

// YOLOv4COCOParams returns an instance of YOLOv4Params configured with
// default values for a Model trained on the COCO dataset featuring:
// - Object Classes: 80
// - Confidence Threshold: 0.5
// - NMS Threshold: 0.4
// - Kept Class: 0 (person)
func YOLOv4COCOParams() YOLOv4Params {
	return YOLOv4Params{
		ConfThreshold:  0.5,
		NMSThreshold:   0.4,
		ObjectClassNum: 80,
		KeepClass:      0,
	}
}

// NewYOLOv4 returns an instance of the YOLOv4 post processor
func NewYOLOv4(p YOLOv4Params) *YOLOv4 {
	return &YOLOv4{
		Params: p,
		idGen:  result.NewIDGenerator(),
	}
}

// WithParams returns a post processor using the given parameters that shares
// the detection ID sequence of y
func (y *YOLOv4) WithParams(p YOLOv4Params) *YOLOv4 {
	return &YOLOv4{
		Params: p,
		idGen:  y.idGen,
	}
}

// candidates is a struct used to hold the candidate boxes that passed the
// confidence and class filter during post processing
type candidates struct {
	// boxes is a slice of the pixel space bounding box of each candidate
	boxes []BoxRect
	// probs is a slice of the winning class score of each candidate
	probs []float32
	// classID is a slice of the winning class ID of each candidate
	classID []int
}

// DetectObjects takes the network outputs for a frame of the given size and
// returns the kept class detections that survive the confidence threshold
// and NMS, ordered by descending confidence
func (y *YOLOv4) DetectObjects(outputs *humantrack.Outputs, frameWidth,
	frameHeight int) ([]DetectResult, error) {

	if outputs == nil || len(outputs.Layers) == 0 {
		return nil, humantrack.ErrNoOutputLayers
	}

	data := &candidates{
		boxes:   make([]BoxRect, 0),
		probs:   make([]float32, 0),
		classID: make([]int, 0),
	}

	for i, layer := range outputs.Layers {
		if err := y.processLayer(layer, frameWidth, frameHeight, data); err != nil {
			return nil, fmt.Errorf("output layer %d: %w", i, err)
		}
	}

	validCount := len(data.boxes)

	if validCount == 0 {
		// no object detected
		return nil, nil
	}

	// indexArray is used to keep an index of the candidate boxes after
	// sorting by probability
	indexArray := make([]int, validCount)

	for i := range indexArray {
		indexArray[i] = i
	}

	quickSortIndiceInverse(data.probs, 0, validCount-1, indexArray)

	nms(data.boxes, indexArray, y.Params.NMSThreshold)

	// collate objects into a result for returning
	group := make([]DetectResult, 0)

	for i := 0; i < validCount; i++ {
		if indexArray[i] == -1 {
			continue
		}

		n := indexArray[i]

		group = append(group, DetectResult{
			Class:       data.classID[n],
			Box:         data.boxes[n],
			Probability: data.probs[i],
			ID:          y.idGen.GetNext(),
		})
	}

	return group, nil
}

// processLayer scans every candidate row of the output layer, keeping those
// whose best class score exceeds the confidence threshold and whose best
// class is the kept class
func (y *YOLOv4) processLayer(layer humantrack.OutputLayer, frameWidth,
	frameHeight int, data *candidates) error {

	if layer.Rows == 0 {
		return nil
	}

	if layer.NumClasses() < 1 {
		return fmt.Errorf("%w: %d columns per row", ErrMalformedOutput, layer.Cols)
	}

	for r := 0; r < layer.Rows; r++ {

		row := layer.Row(r)
		scores := row[humantrack.BoxAttrs:]

		// find the class with the maximum score
		maxClassID := 0
		maxClassProb := scores[0]

		for k := 1; k < len(scores); k++ {
			if scores[k] > maxClassProb {
				maxClassID = k
				maxClassProb = scores[k]
			}
		}

		if maxClassProb <= y.Params.ConfThreshold {
			continue
		}

		if maxClassID >= y.Params.ObjectClassNum {
			return fmt.Errorf("%w: class %d, %d labels", ErrClassOutOfRange,
				maxClassID, y.Params.ObjectClassNum)
		}

		if maxClassID != y.Params.KeepClass {
			continue
		}

		centerX := int(row[0] * float32(frameWidth))
		centerY := int(row[1] * float32(frameHeight))
		width := int(row[2] * float32(frameWidth))
		height := int(row[3] * float32(frameHeight))

		// sub pixel boxes have nothing to track
		if width <= 0 || height <= 0 {
			continue
		}

		data.boxes = append(data.boxes,
			NewBoxRect(centerX-width/2, centerY-height/2, width, height))
		data.probs = append(data.probs, maxClassProb)
		data.classID = append(data.classID, maxClassID)
	}

	return nil
}
