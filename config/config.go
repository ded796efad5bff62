/*
Package config holds the settings of a detection and tracking run.  Settings
start from Default and may be overridden by a JSON file and command line
flags.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"
	"gocv.io/x/gocv"
)

// maxFileSize is the largest config file accepted
const maxFileSize = 1 * 1024 * 1024

// ErrInvalid is returned when a configuration value is out of range or a
// config file can not be parsed
var ErrInvalid = errors.New("invalid configuration")

// Config is the full set of run settings
type Config struct {
	Model    Model
	Detector Detector
	Tracker  Tracker
	Pipeline Pipeline
	Output   Output
}

// Model locates the network files and selects where it runs
type Model struct {
	// Config is the Darknet network definition
	Config string
	// Weights are the trained Darknet weights
	Weights string
	// Labels is the class names file, one per line
	Labels string
	// Backend is the DNN computation backend, one of "default", "opencv",
	// "openvino", "halide", "vulkan" or "cuda"
	Backend string
	// Target is the DNN target device, one of "cpu", "fp32", "fp16", "vpu",
	// "vulkan", "fpga", "cuda" or "cuda_fp16"
	Target string
}

// Detector are the detection thresholds
type Detector struct {
	ConfThreshold float64
	NMSThreshold  float64
	// InputSize is the square network input in pixels
	InputSize int
}

// Shrink are the ratios a detector box is inset by before tracking
type Shrink struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Tracker are the tracker set settings
type Tracker struct {
	Shrink Shrink
	// MaxMisses drops a track after this many consecutive failed updates,
	// zero keeps it
	MaxMisses int
	// MatchIoU carries track IDs across re-detection, zero disables
	MatchIoU float64
	// Parallel updates trackers concurrently
	Parallel bool
	// TrailLength is the number of poses drawn as a trail, zero disables
	TrailLength int
}

// Pipeline are the loop settings
type Pipeline struct {
	// Interval is the frame cadence at which detection runs
	Interval int
	// EndPause is how long the last frame is held on screen
	EndPause time.Duration
	// DefaultInput is processed when no input is given
	DefaultInput string
	// DefaultKind is "image" or "video" and is the kind of DefaultInput
	DefaultKind string
}

// Output are the result destinations
type Output struct {
	// Save writes the annotated image or video next to the input
	Save bool
	// Display shows frames in a window
	Display bool
	// PoseLog is a JSON lines file poses are recorded to, empty disables
	PoseLog string
}

// Default returns the standard settings for a COCO trained YOLOv4 Model
func Default() *Config {
	return &Config{
		Model: Model{
			Config:  "yolov4.cfg",
			Weights: "yolov4.weights",
			Labels:  "coco.names",
			Backend: "opencv",
			Target:  "cpu",
		},
		Detector: Detector{
			ConfThreshold: 0.5,
			NMSThreshold:  0.4,
			InputSize:     416,
		},
		Tracker: Tracker{
			Shrink: Shrink{
				Left:   0.1,
				Top:    0.06,
				Width:  0.8,
				Height: 0.8,
			},
		},
		Pipeline: Pipeline{
			Interval:     45,
			EndPause:     3 * time.Second,
			DefaultInput: "person.jpg",
			DefaultKind:  "image",
		},
		Output: Output{
			Save:    true,
			Display: true,
		},
	}
}

// Load reads a JSON config file, overlaying the keys present onto Default.
// The file must have a .json extension and be no larger than 1MB.
func Load(path string) (*Config, error) {

	cleanPath := filepath.Clean(path)

	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("%w: config file must have .json extension, got %q",
			ErrInvalid, ext)
	}

	fileInfo, err := os.Stat(cleanPath)

	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("%w: config file too large: %d bytes (max %d)",
			ErrInvalid, fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)

	if err != nil {
		return nil, fmt.Errorf("%s: %w", cleanPath, err)
	}

	return cfg, nil
}

// Parse overlays the JSON document onto Default and validates the result
func Parse(data []byte) (*Config, error) {

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalid)
	}

	doc := gjson.ParseBytes(data)

	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: top level must be an object", ErrInvalid)
	}

	cfg := Default()
	o := &overlay{doc: doc}

	o.setString("model.cfg", &cfg.Model.Config)
	o.setString("model.weights", &cfg.Model.Weights)
	o.setString("model.labels", &cfg.Model.Labels)
	o.setString("model.backend", &cfg.Model.Backend)
	o.setString("model.target", &cfg.Model.Target)

	o.setFloat("detector.confidence_threshold", &cfg.Detector.ConfThreshold)
	o.setFloat("detector.nms_threshold", &cfg.Detector.NMSThreshold)
	o.setInt("detector.input_size", &cfg.Detector.InputSize)

	o.setFloat("tracker.shrink.left", &cfg.Tracker.Shrink.Left)
	o.setFloat("tracker.shrink.top", &cfg.Tracker.Shrink.Top)
	o.setFloat("tracker.shrink.width", &cfg.Tracker.Shrink.Width)
	o.setFloat("tracker.shrink.height", &cfg.Tracker.Shrink.Height)
	o.setInt("tracker.max_misses", &cfg.Tracker.MaxMisses)
	o.setFloat("tracker.match_iou", &cfg.Tracker.MatchIoU)
	o.setBool("tracker.parallel", &cfg.Tracker.Parallel)
	o.setInt("tracker.trail_length", &cfg.Tracker.TrailLength)

	o.setInt("pipeline.interval", &cfg.Pipeline.Interval)
	o.setDuration("pipeline.end_pause", &cfg.Pipeline.EndPause)
	o.setString("pipeline.default_input", &cfg.Pipeline.DefaultInput)
	o.setString("pipeline.default_kind", &cfg.Pipeline.DefaultKind)

	o.setBool("output.save", &cfg.Output.Save)
	o.setBool("output.display", &cfg.Output.Display)
	o.setString("output.pose_log", &cfg.Output.PoseLog)

	if err := errors.Join(o.errs...); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every value is in range
func (c *Config) Validate() error {

	var errs []error

	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	unit := func(v float64) bool { return v > 0 && v <= 1 }

	check(c.Model.Config != "", "model.cfg must be set")
	check(c.Model.Weights != "", "model.weights must be set")
	check(c.Model.Labels != "", "model.labels must be set")

	if _, err := c.Model.NetBackend(); err != nil {
		errs = append(errs, err)
	}

	if _, err := c.Model.NetTarget(); err != nil {
		errs = append(errs, err)
	}

	check(unit(c.Detector.ConfThreshold),
		"detector.confidence_threshold must be in (0,1], got %v", c.Detector.ConfThreshold)
	check(unit(c.Detector.NMSThreshold),
		"detector.nms_threshold must be in (0,1], got %v", c.Detector.NMSThreshold)
	check(c.Detector.InputSize > 0 && c.Detector.InputSize%32 == 0,
		"detector.input_size must be a positive multiple of 32, got %d", c.Detector.InputSize)

	check(unit(c.Tracker.Shrink.Left), "tracker.shrink.left must be in (0,1], got %v",
		c.Tracker.Shrink.Left)
	check(unit(c.Tracker.Shrink.Top), "tracker.shrink.top must be in (0,1], got %v",
		c.Tracker.Shrink.Top)
	check(unit(c.Tracker.Shrink.Width), "tracker.shrink.width must be in (0,1], got %v",
		c.Tracker.Shrink.Width)
	check(unit(c.Tracker.Shrink.Height), "tracker.shrink.height must be in (0,1], got %v",
		c.Tracker.Shrink.Height)
	check(c.Tracker.MaxMisses >= 0, "tracker.max_misses must not be negative, got %d",
		c.Tracker.MaxMisses)
	check(c.Tracker.MatchIoU >= 0 && c.Tracker.MatchIoU <= 1,
		"tracker.match_iou must be in [0,1], got %v", c.Tracker.MatchIoU)
	check(c.Tracker.TrailLength >= 0, "tracker.trail_length must not be negative, got %d",
		c.Tracker.TrailLength)

	check(c.Pipeline.Interval >= 1, "pipeline.interval must be at least 1, got %d",
		c.Pipeline.Interval)
	check(c.Pipeline.EndPause >= 0, "pipeline.end_pause must not be negative, got %v",
		c.Pipeline.EndPause)
	check(c.Pipeline.DefaultKind == "image" || c.Pipeline.DefaultKind == "video",
		"pipeline.default_kind must be \"image\" or \"video\", got %q", c.Pipeline.DefaultKind)

	return errors.Join(errs...)
}

var backends = map[string]gocv.NetBackendType{
	"default":  gocv.NetBackendDefault,
	"halide":   gocv.NetBackendHalide,
	"openvino": gocv.NetBackendOpenVINO,
	"opencv":   gocv.NetBackendOpenCV,
	"vulkan":   gocv.NetBackendVKCOM,
	"cuda":     gocv.NetBackendCUDA,
}

var targets = map[string]gocv.NetTargetType{
	"cpu":       gocv.NetTargetCPU,
	"fp32":      gocv.NetTargetFP32,
	"fp16":      gocv.NetTargetFP16,
	"vpu":       gocv.NetTargetVPU,
	"vulkan":    gocv.NetTargetVulkan,
	"fpga":      gocv.NetTargetFPGA,
	"cuda":      gocv.NetTargetCUDA,
	"cuda_fp16": gocv.NetTargetCUDAFP16,
}

// NetBackend returns the gocv backend named by Backend
func (m Model) NetBackend() (gocv.NetBackendType, error) {
	b, ok := backends[m.Backend]

	if !ok {
		return 0, fmt.Errorf("%w: unknown model.backend %q", ErrInvalid, m.Backend)
	}

	return b, nil
}

// NetTarget returns the gocv target named by Target
func (m Model) NetTarget() (gocv.NetTargetType, error) {
	t, ok := targets[m.Target]

	if !ok {
		return 0, fmt.Errorf("%w: unknown model.target %q", ErrInvalid, m.Target)
	}

	return t, nil
}

// overlay copies values present in a JSON document onto config fields,
// collecting type errors
type overlay struct {
	doc  gjson.Result
	errs []error
}

func (o *overlay) get(path string, want gjson.Type) (gjson.Result, bool) {

	v := o.doc.Get(path)

	if !v.Exists() {
		return v, false
	}

	typeOK := v.Type == want

	if want == gjson.True {
		typeOK = v.Type == gjson.True || v.Type == gjson.False
	}

	if !typeOK {
		o.errs = append(o.errs, fmt.Errorf("%w: %s has the wrong type (%s)",
			ErrInvalid, path, v.Type))
		return v, false
	}

	return v, true
}

func (o *overlay) setString(path string, dst *string) {
	if v, ok := o.get(path, gjson.String); ok {
		*dst = v.String()
	}
}

func (o *overlay) setFloat(path string, dst *float64) {
	if v, ok := o.get(path, gjson.Number); ok {
		*dst = v.Float()
	}
}

func (o *overlay) setInt(path string, dst *int) {
	v, ok := o.get(path, gjson.Number)

	if !ok {
		return
	}

	if v.Float() != float64(v.Int()) {
		o.errs = append(o.errs, fmt.Errorf("%w: %s must be an integer, got %s",
			ErrInvalid, path, v.Raw))
		return
	}

	*dst = int(v.Int())
}

func (o *overlay) setBool(path string, dst *bool) {
	if v, ok := o.get(path, gjson.True); ok {
		*dst = v.Bool()
	}
}

// setDuration accepts a duration string such as "3s" or a number of
// milliseconds
func (o *overlay) setDuration(path string, dst *time.Duration) {

	v := o.doc.Get(path)

	if !v.Exists() {
		return
	}

	switch v.Type {
	case gjson.Number:
		*dst = time.Duration(v.Float() * float64(time.Millisecond))

	case gjson.String:
		d, err := time.ParseDuration(v.String())

		if err != nil {
			o.errs = append(o.errs, fmt.Errorf("%w: invalid %s %q: %w",
				ErrInvalid, path, v.String(), err))
			return
		}

		*dst = d

	default:
		o.errs = append(o.errs, fmt.Errorf("%w: %s has the wrong type (%s)",
			ErrInvalid, path, v.Type))
	}
}
