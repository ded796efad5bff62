package humantrack

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"
)

func TestNewRuntimeMissingFiles(t *testing.T) {

	dir := t.TempDir()

	_, err := NewRuntime(filepath.Join(dir, "yolov4.cfg"),
		filepath.Join(dir, "yolov4.weights"), gocv.NetBackendOpenCV, gocv.NetTargetCPU)

	if !errors.Is(err, ErrModelLoad) {
		t.Errorf("Expected ErrModelLoad, got %v", err)
	}

	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected wrapped os.ErrNotExist, got %v", err)
	}
}
