/*
Package detector finds the people in a frame by running it through a YOLOv4
network and post processing the raw output layers into person boxes.
*/
package detector

import (
	"errors"
	"fmt"

	"github.com/swdee/go-humantrack"
	"github.com/swdee/go-humantrack/postprocess"
	"github.com/swdee/go-humantrack/preprocess"
	"github.com/swdee/go-humantrack/render"
	"gocv.io/x/gocv"
)

var (
	// ErrEmptyFrame is returned when asked to detect on an empty frame
	ErrEmptyFrame = errors.New("empty frame")
	// ErrInputSize is returned for a network input size that is not a
	// positive multiple of 32
	ErrInputSize = errors.New("network input size must be a positive multiple of 32")
)

// Inferencer runs the network forward on an input blob
type Inferencer interface {
	Inference(blob gocv.Mat) (*humantrack.Outputs, error)
}

// Options are the settings for a Detector
type Options struct {
	// Params are the post processing thresholds.  KeepClass and
	// ObjectClassNum are derived from the labels.
	Params postprocess.YOLOv4Params
	// InputSize is the square network input size in pixels
	InputSize int
	// Annotate draws the detection boxes onto the frame passed to Detect
	Annotate bool
	// Font is used for the box labels
	Font render.Font
	// LineThickness of the box outlines
	LineThickness int
}

// DefaultOptions returns the COCO YOLOv4 thresholds at a 416x416 input
// with annotation enabled
func DefaultOptions() Options {
	return Options{
		Params:        postprocess.YOLOv4COCOParams(),
		InputSize:     416,
		Annotate:      true,
		Font:          render.LabelFont(),
		LineThickness: 3,
	}
}

// Detector runs person detection on frames
type Detector struct {
	infer  Inferencer
	norm   *preprocess.Normalizer
	yolo   *postprocess.YOLOv4
	labels []string
	opts   Options
}

// New returns a Detector using infer to run the network.  labels are the
// class names the Model was trained on and must contain "person".
func New(infer Inferencer, labels []string, opts Options) (*Detector, error) {

	if err := checkInputSize(opts.InputSize); err != nil {
		return nil, err
	}

	person, err := humantrack.PersonClass(labels)

	if err != nil {
		return nil, err
	}

	opts.Params.KeepClass = person
	opts.Params.ObjectClassNum = len(labels)

	return &Detector{
		infer:  infer,
		norm:   preprocess.NewNormalizer(opts.InputSize, opts.InputSize),
		yolo:   postprocess.NewYOLOv4(opts.Params),
		labels: labels,
		opts:   opts,
	}, nil
}

// Detect returns the people found in the frame using the configured
// thresholds and input size.  If annotation is enabled the boxes are drawn
// onto frame.
func (d *Detector) Detect(frame *gocv.Mat) ([]postprocess.DetectResult, error) {
	return d.detect(frame, d.norm, d.yolo)
}

// DetectWithParams runs detection with the given confidence and NMS
// thresholds and network input size in place of the configured ones
func (d *Detector) DetectWithParams(frame *gocv.Mat, confThreshold,
	nmsThreshold float32, inputSize int) ([]postprocess.DetectResult, error) {

	if err := checkInputSize(inputSize); err != nil {
		return nil, err
	}

	p := d.yolo.Params
	p.ConfThreshold = confThreshold
	p.NMSThreshold = nmsThreshold

	return d.detect(frame, preprocess.NewNormalizer(inputSize, inputSize),
		d.yolo.WithParams(p))
}

// Labels returns the class names of the Model
func (d *Detector) Labels() []string {
	return d.labels
}

func (d *Detector) detect(frame *gocv.Mat, norm *preprocess.Normalizer,
	yolo *postprocess.YOLOv4) ([]postprocess.DetectResult, error) {

	if frame == nil || frame.Empty() {
		return nil, ErrEmptyFrame
	}

	blob := norm.Blob(*frame)
	defer blob.Close()

	outputs, err := d.infer.Inference(blob)

	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	dets, err := yolo.DetectObjects(outputs, frame.Cols(), frame.Rows())

	if err != nil {
		return nil, fmt.Errorf("post processing failed: %w", err)
	}

	if d.opts.Annotate {
		render.DetectionBoxes(frame, dets, d.labels, d.opts.Font,
			d.opts.LineThickness)
	}

	return dets, nil
}

func checkInputSize(size int) error {
	if size <= 0 || size%32 != 0 {
		return fmt.Errorf("%w: %d", ErrInputSize, size)
	}
	return nil
}
