package config

import (
	"github.com/swdee/go-humantrack/detector"
	"github.com/swdee/go-humantrack/pipeline"
	"github.com/swdee/go-humantrack/tracker"
)

// DetectorOptions returns the detector settings
func (c *Config) DetectorOptions() detector.Options {

	opts := detector.DefaultOptions()
	opts.Params.ConfThreshold = float32(c.Detector.ConfThreshold)
	opts.Params.NMSThreshold = float32(c.Detector.NMSThreshold)
	opts.InputSize = c.Detector.InputSize

	return opts
}

// TrackerOptions returns the tracker set settings
func (c *Config) TrackerOptions() tracker.Options {
	return tracker.Options{
		Shrink: tracker.ShrinkRatios{
			Left:   c.Tracker.Shrink.Left,
			Top:    c.Tracker.Shrink.Top,
			Width:  c.Tracker.Shrink.Width,
			Height: c.Tracker.Shrink.Height,
		},
		MaxMisses: c.Tracker.MaxMisses,
		MatchIoU:  c.Tracker.MatchIoU,
		Parallel:  c.Tracker.Parallel,
	}
}

// PipelineOptions returns the loop settings
func (c *Config) PipelineOptions() pipeline.Options {

	opts := pipeline.DefaultOptions()
	opts.Interval = c.Pipeline.Interval
	opts.EndPause = c.Pipeline.EndPause
	opts.TrailLength = c.Tracker.TrailLength

	return opts
}
