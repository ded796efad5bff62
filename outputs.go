package humantrack

import (
	"fmt"

	"gocv.io/x/gocv"
)

// BoxAttrs is the number of leading values on each YOLO output row which
// describe the box rather than a class score, being center x, center y,
// width, height and objectness
const BoxAttrs = 5

// OutputLayer is a 2D table of YOLO candidate boxes copied out of a network
// output Mat.  Each row is one candidate with columns
// [centerX, centerY, width, height, objectness, classScore0 ... classScoreN]
// where the geometry values are normalized to [0,1].
type OutputLayer struct {
	Rows int
	Cols int
	// Data holds Rows*Cols values in row major order
	Data []float32
}

// Outputs are the output layers produced by a single inference
type Outputs struct {
	Layers []OutputLayer
}

// NewOutputLayer copies a 2D float32 output Mat into Go memory so the Mat can
// be freed straight after inference
func NewOutputLayer(m gocv.Mat) (OutputLayer, error) {

	if m.Type() != gocv.MatTypeCV32F {
		return OutputLayer{}, fmt.Errorf("expected CV_32F output Mat, got %v", m.Type())
	}

	data, err := m.DataPtrFloat32()

	if err != nil {
		return OutputLayer{}, fmt.Errorf("error getting data pointer to Mat: %w", err)
	}

	rows, cols := m.Rows(), m.Cols()

	if rows*cols != len(data) {
		return OutputLayer{}, fmt.Errorf("output Mat is %dx%d but holds %d values",
			rows, cols, len(data))
	}

	buf := make([]float32, len(data))
	copy(buf, data)

	return OutputLayer{
		Rows: rows,
		Cols: cols,
		Data: buf,
	}, nil
}

// Row returns the values of candidate box i
func (o OutputLayer) Row(i int) []float32 {
	return o.Data[i*o.Cols : (i+1)*o.Cols]
}

// NumClasses returns the number of class scores on each row
func (o OutputLayer) NumClasses() int {
	if o.Cols < BoxAttrs {
		return 0
	}
	return o.Cols - BoxAttrs
}
