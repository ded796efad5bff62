package detector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-humantrack"
	"github.com/swdee/go-humantrack/postprocess"
	"gocv.io/x/gocv"
)

// stubInferencer returns fixed outputs and records the blob shape it was
// given
type stubInferencer struct {
	outputs *humantrack.Outputs
	err     error
	shapes  [][]int
}

func (s *stubInferencer) Inference(blob gocv.Mat) (*humantrack.Outputs, error) {
	s.shapes = append(s.shapes, blob.Size())
	return s.outputs, s.err
}

var testLabels = []string{"person", "bicycle"}

// onePerson is a single output layer holding a person candidate centered in
// the frame, a bicycle candidate and a candidate below threshold
func onePerson() *humantrack.Outputs {
	return &humantrack.Outputs{
		Layers: []humantrack.OutputLayer{
			{
				Rows: 3,
				Cols: 7,
				Data: []float32{
					0.5, 0.5, 0.25, 0.5, 0.9, 0.87, 0.1,
					0.2, 0.2, 0.1, 0.1, 0.9, 0.1, 0.95,
					0.8, 0.8, 0.1, 0.1, 0.9, 0.4, 0.1,
				},
			},
		},
	}
}

func blackFrame(rows, cols int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols,
		gocv.MatTypeCV8UC3)
}

func TestDetect(t *testing.T) {

	stub := &stubInferencer{outputs: onePerson()}

	d, err := New(stub, testLabels, DefaultOptions())
	require.NoError(t, err)

	frame := blackFrame(200, 400)
	defer frame.Close()

	dets, err := d.Detect(&frame)
	require.NoError(t, err)

	require.Len(t, dets, 1)
	assert.Equal(t, 0, dets[0].Class)
	assert.Equal(t, postprocess.NewBoxRect(150, 50, 100, 100), dets[0].Box)
	assert.InDelta(t, 0.87, dets[0].Probability, 1e-6)

	require.Len(t, stub.shapes, 1)
	assert.Equal(t, []int{1, 3, 416, 416}, stub.shapes[0])

	// the detection box is drawn in red on the frame
	assert.Equal(t, gocv.Vecb{0, 0, 255}, frame.GetVecbAt(100, 150))
}

func TestDetectNoAnnotate(t *testing.T) {

	opts := DefaultOptions()
	opts.Annotate = false

	d, err := New(&stubInferencer{outputs: onePerson()}, testLabels, opts)
	require.NoError(t, err)

	frame := blackFrame(200, 400)
	defer frame.Close()

	dets, err := d.Detect(&frame)
	require.NoError(t, err)
	assert.Len(t, dets, 1)
	assert.Equal(t, gocv.Vecb{0, 0, 0}, frame.GetVecbAt(100, 150))
}

func TestDetectWithParams(t *testing.T) {

	stub := &stubInferencer{outputs: onePerson()}

	d, err := New(stub, testLabels, DefaultOptions())
	require.NoError(t, err)

	frame := blackFrame(200, 400)
	defer frame.Close()

	// threshold above the person score leaves nothing
	dets, err := d.DetectWithParams(&frame, 0.9, 0.4, 320)
	require.NoError(t, err)
	assert.Empty(t, dets)
	assert.Equal(t, []int{1, 3, 320, 320}, stub.shapes[0])

	// configured thresholds are unchanged
	dets, err = d.Detect(&frame)
	require.NoError(t, err)
	assert.Len(t, dets, 1)

	_, err = d.DetectWithParams(&frame, 0.5, 0.4, 100)
	assert.ErrorIs(t, err, ErrInputSize)
}

func TestDetectErrors(t *testing.T) {

	boom := errors.New("boom")

	d, err := New(&stubInferencer{err: boom}, testLabels, DefaultOptions())
	require.NoError(t, err)

	empty := gocv.NewMat()
	defer empty.Close()

	_, err = d.Detect(&empty)
	assert.ErrorIs(t, err, ErrEmptyFrame)

	frame := blackFrame(200, 400)
	defer frame.Close()

	_, err = d.Detect(&frame)
	assert.ErrorIs(t, err, boom)

	d, err = New(&stubInferencer{outputs: &humantrack.Outputs{}}, testLabels,
		DefaultOptions())
	require.NoError(t, err)

	_, err = d.Detect(&frame)
	assert.ErrorIs(t, err, humantrack.ErrNoOutputLayers)
}

func TestNew(t *testing.T) {

	_, err := New(&stubInferencer{}, []string{"car", "bicycle"}, DefaultOptions())
	assert.ErrorIs(t, err, humantrack.ErrNoPersonLabel)

	opts := DefaultOptions()
	opts.InputSize = 0

	_, err = New(&stubInferencer{}, testLabels, opts)
	assert.ErrorIs(t, err, ErrInputSize)

	d, err := New(&stubInferencer{}, []string{"car", "person"}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"car", "person"}, d.Labels())
	assert.Equal(t, 1, d.yolo.Params.KeepClass)
	assert.Equal(t, 2, d.yolo.Params.ObjectClassNum)
}
