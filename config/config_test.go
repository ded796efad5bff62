package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-humantrack/tracker"
	"gocv.io/x/gocv"
)

func writeConfig(t *testing.T, name, body string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {

	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 45, cfg.Pipeline.Interval)
	assert.Equal(t, 3*time.Second, cfg.Pipeline.EndPause)
	assert.Equal(t, 416, cfg.Detector.InputSize)

	b, err := cfg.Model.NetBackend()
	require.NoError(t, err)
	assert.Equal(t, gocv.NetBackendOpenCV, b)

	tg, err := cfg.Model.NetTarget()
	require.NoError(t, err)
	assert.Equal(t, gocv.NetTargetCPU, tg)
}

func TestLoadOverlay(t *testing.T) {

	path := writeConfig(t, "run.json", `{
		"model": {"weights": "/models/yolov4-tiny.weights"},
		"detector": {"confidence_threshold": 0.6, "input_size": 608},
		"tracker": {"max_misses": 5, "match_iou": 0.3, "parallel": true,
			"shrink": {"top": 0.1}},
		"pipeline": {"interval": 30, "end_pause": "1500ms"},
		"output": {"display": false, "pose_log": "poses.jsonl"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.Model.Weights = "/models/yolov4-tiny.weights"
	want.Detector.ConfThreshold = 0.6
	want.Detector.InputSize = 608
	want.Tracker.MaxMisses = 5
	want.Tracker.MatchIoU = 0.3
	want.Tracker.Parallel = true
	want.Tracker.Shrink.Top = 0.1
	want.Pipeline.Interval = 30
	want.Pipeline.EndPause = 1500 * time.Millisecond
	want.Output.Display = false
	want.Output.PoseLog = "poses.jsonl"

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEndPauseMilliseconds(t *testing.T) {

	cfg, err := Parse([]byte(`{"pipeline": {"end_pause": 250}}`))
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.EndPause)
}

func TestParseInvalid(t *testing.T) {

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"detector": `},
		{"not object", `[1, 2]`},
		{"zero confidence", `{"detector": {"confidence_threshold": 0}}`},
		{"nms above one", `{"detector": {"nms_threshold": 1.5}}`},
		{"input size", `{"detector": {"input_size": 400}}`},
		{"fractional int", `{"pipeline": {"interval": 2.5}}`},
		{"zero interval", `{"pipeline": {"interval": 0}}`},
		{"wrong type", `{"tracker": {"parallel": "yes"}}`},
		{"shrink", `{"tracker": {"shrink": {"width": 0}}}`},
		{"negative misses", `{"tracker": {"max_misses": -1}}`},
		{"match iou", `{"tracker": {"match_iou": 2}}`},
		{"backend", `{"model": {"backend": "tpu"}}`},
		{"target", `{"model": {"target": "npu"}}`},
		{"kind", `{"pipeline": {"default_kind": "camera"}}`},
		{"pause", `{"pipeline": {"end_pause": "soon"}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.body))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadFileChecks(t *testing.T) {

	_, err := Load(writeConfig(t, "run.yaml", `{}`))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	big := `{"pad": "` + strings.Repeat("x", maxFileSize) + `"}`
	_, err = Load(writeConfig(t, "big.json", big))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestOptions(t *testing.T) {

	cfg := Default()
	cfg.Detector.ConfThreshold = 0.7
	cfg.Tracker.MaxMisses = 3

	d := cfg.DetectorOptions()
	assert.InDelta(t, 0.7, d.Params.ConfThreshold, 1e-6)
	assert.InDelta(t, 0.4, d.Params.NMSThreshold, 1e-6)
	assert.Equal(t, 416, d.InputSize)

	cfg.Pipeline.Interval = 30
	cfg.Tracker.TrailLength = 20

	p := cfg.PipelineOptions()
	assert.Equal(t, 30, p.Interval)
	assert.Equal(t, 3*time.Second, p.EndPause)
	assert.Equal(t, 20, p.TrailLength)
	assert.True(t, p.Annotate)

	tr := cfg.TrackerOptions()
	assert.Equal(t, tracker.DefaultShrinkRatios(), tr.Shrink)
	assert.Equal(t, 3, tr.MaxMisses)
	assert.False(t, tr.Parallel)
}
