package humantrack

import (
	"errors"
	"fmt"
	"os"

	"gocv.io/x/gocv"
)

var (
	// ErrModelLoad is returned when the network configuration or weights
	// cannot be read into an OpenCV DNN Net
	ErrModelLoad = errors.New("failed to load model")
	// ErrNoOutputLayers is returned when the network has no output layers
	// or inference produced none.  This is a model error and must not be
	// mistaken for a frame with no objects in it
	ErrNoOutputLayers = errors.New("network produced no output layers")
)

// Runtime wraps an OpenCV DNN Net loaded from Darknet model files and the
// names of its output layers
type Runtime struct {
	// net is the loaded network
	net gocv.Net
	// outNames are the names of the unconnected output layers which are
	// forwarded on each inference
	outNames []string
	// cfgFile is the Darknet config file the network was loaded from
	cfgFile string
}

// NewRuntime loads the Darknet YOLO config and weights files and returns a
// runtime set to the given preferable backend and target.
func NewRuntime(cfgFile, weightsFile string, backend gocv.NetBackendType,
	target gocv.NetTargetType) (*Runtime, error) {

	// check files exist first as OpenCV only reports a failed load by
	// returning an empty Net
	for _, file := range []string{cfgFile, weightsFile} {
		if _, err := os.Stat(file); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
		}
	}

	net := gocv.ReadNetFromDarknet(cfgFile, weightsFile)

	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("%w: network from %s is empty", ErrModelLoad, cfgFile)
	}

	r := &Runtime{
		net:     net,
		cfgFile: cfgFile,
	}

	if err := r.net.SetPreferableBackend(backend); err != nil {
		r.Close()
		return nil, fmt.Errorf("error setting preferable backend: %w", err)
	}

	if err := r.net.SetPreferableTarget(target); err != nil {
		r.Close()
		return nil, fmt.Errorf("error setting preferable target: %w", err)
	}

	r.outNames = outputNames(&r.net)

	if len(r.outNames) == 0 {
		r.Close()
		return nil, fmt.Errorf("%w: %s", ErrNoOutputLayers, cfgFile)
	}

	return r, nil
}

// OutputNames returns the names of the output layers forwarded during
// inference
func (r *Runtime) OutputNames() []string {
	return r.outNames
}

// Close frees the network
func (r *Runtime) Close() error {
	return r.net.Close()
}

// outputNames gets the names of the layers with unconnected outputs, ie: the
// YOLO detection heads
func outputNames(net *gocv.Net) []string {

	var names []string

	for _, i := range net.GetUnconnectedOutLayers() {
		layer := net.GetLayer(i)
		name := layer.GetName()
		layer.Close()

		if name != "_input" {
			names = append(names, name)
		}
	}

	return names
}
