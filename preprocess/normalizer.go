package preprocess

import (
	"image"

	"gocv.io/x/gocv"
)

// DefaultScale scales 8 bit pixel values into the range [0,1]
const DefaultScale = 1.0 / 255.0

// Normalizer defines the struct used for converting a frame into the input
// blob the network expects
type Normalizer struct {
	// width is the network input width
	width int
	// height is the network input height
	height int
	// scale is the multiplier applied to every pixel value
	scale float64
	// mean is subtracted from each channel before scaling
	mean gocv.Scalar
	// swapRB swaps the first and last channel, converting the BGR frames
	// OpenCV decodes into the RGB order Darknet models are trained on
	swapRB bool
}

// NewNormalizer returns a normalizer producing blobs of the given network
// input size with pixels scaled to [0,1] and channels in RGB order
func NewNormalizer(width, height int) *Normalizer {
	return &Normalizer{
		width:  width,
		height: height,
		scale:  DefaultScale,
		mean:   gocv.NewScalar(0, 0, 0, 0),
		swapRB: true,
	}
}

// Blob resizes the source frame to the network input size and returns the
// normalized NCHW float32 blob.  The caller must Close the returned Mat.
// The source frame is left untouched.
func (n *Normalizer) Blob(src gocv.Mat) gocv.Mat {
	return gocv.BlobFromImage(src, n.scale, n.Size(), n.mean, n.swapRB, false)
}

// Size returns the network input dimensions
func (n *Normalizer) Size() image.Point {
	return image.Pt(n.width, n.height)
}

// ScaleFactor returns the pixel scaling factor
func (n *Normalizer) ScaleFactor() float64 {
	return n.scale
}
