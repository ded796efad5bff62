package humantrack

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Inference runs the network forward on the given input blob and returns the
// raw output layers.  The blob is the normalized 4D tensor produced by the
// preprocess package.
func (r *Runtime) Inference(blob gocv.Mat) (*Outputs, error) {

	if blob.Empty() {
		return nil, fmt.Errorf("inference input blob is empty")
	}

	r.net.SetInput(blob, "")

	mats := r.net.ForwardLayers(r.outNames)

	// free the output Mats allocated in C memory once copied
	defer func() {
		for _, m := range mats {
			m.Close()
		}
	}()

	if len(mats) == 0 {
		return nil, fmt.Errorf("%w: forward of %s", ErrNoOutputLayers, r.cfgFile)
	}

	outputs := &Outputs{
		Layers: make([]OutputLayer, 0, len(mats)),
	}

	for i, m := range mats {

		layer, err := NewOutputLayer(m)

		if err != nil {
			return nil, fmt.Errorf("error reading output layer %d: %w", i, err)
		}

		outputs.Layers = append(outputs.Layers, layer)
	}

	return outputs, nil
}
