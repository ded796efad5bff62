/*
Example code showing how to detect people in an image or video with a YOLOv4
Darknet model and track them between detections with KCF trackers, drawing
each person's pose
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/swdee/go-humantrack"
	"github.com/swdee/go-humantrack/config"
	"github.com/swdee/go-humantrack/detector"
	"github.com/swdee/go-humantrack/pipeline"
	"github.com/swdee/go-humantrack/poselog"
	"github.com/swdee/go-humantrack/stream"
	"github.com/swdee/go-humantrack/tracker"
)

func main() {
	// disable logging timestamps
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:    false,
		DisableTimestamp: true,
	})

	// read in cli flags
	imgFile := flag.String("i", "", "Image file to run human detection on")
	vidFile := flag.String("v", "", "Video file to run human detection and tracking on")
	cfgFile := flag.String("c", "", "JSON config file overriding the default settings")
	noOutput := flag.Bool("o", false, "Disable writing the annotated output file")
	poseFile := flag.String("p", "", "JSON lines file to record tracked poses to")
	interval := flag.Int("n", 0, "Run detection every n frames, overriding the config")
	headless := flag.Bool("headless", false, "Run without a display window")
	debug := flag.Bool("debug", false, "Enable debug logging")
	cpus := flag.String("cpus", "", "Comma delimited list or range of CPU cores to run on, eg: 4-7")

	flag.Parse()

	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	if *imgFile != "" && *vidFile != "" {
		fmt.Fprintln(os.Stderr, "Only one of -i image or -v video can be given")
		flag.Usage()
		os.Exit(2)
	}

	if *cpus != "" {
		cores, err := humantrack.ParseCores(*cpus)

		if err != nil {
			log.Fatalf("Invalid -cpus: %v", err)
		}

		if err := humantrack.SetCPUAffinity(cores); err != nil {
			log.Warnf("Failed to set CPU Affinity: %v", err)
		}
	}

	cfg, err := loadConfig(*cfgFile)

	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// command line flags override the config file
	if *noOutput {
		cfg.Output.Save = false
	}

	if *poseFile != "" {
		cfg.Output.PoseLog = *poseFile
	}

	if *interval != 0 {
		cfg.Pipeline.Interval = *interval
	}

	if *headless {
		cfg.Output.Display = false
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}

	input, kind := selectInput(cfg, *imgFile, *vidFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, input, kind); err != nil {
		stop()
		log.Fatalf("Error running human detection: %v", err)
	}
}

// loadConfig returns the defaults or the config file overlaid on them
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}

	return config.Load(path)
}

// selectInput picks the image or video given on the command line, falling
// back to the configured default input
func selectInput(cfg *config.Config, imgFile, vidFile string) (string, stream.Kind) {

	switch {
	case imgFile != "":
		return imgFile, stream.Image
	case vidFile != "":
		return vidFile, stream.Video
	}

	if cfg.Pipeline.DefaultKind == "video" {
		return cfg.Pipeline.DefaultInput, stream.Video
	}

	return cfg.Pipeline.DefaultInput, stream.Image
}

// run loads the Model, opens the input and outputs and runs the pipeline
// to completion
func run(ctx context.Context, cfg *config.Config, input string, kind stream.Kind) error {

	labels, err := humantrack.LoadLabels(cfg.Model.Labels)

	if err != nil {
		return fmt.Errorf("error loading model labels: %w", err)
	}

	backend, err := cfg.Model.NetBackend()

	if err != nil {
		return err
	}

	target, err := cfg.Model.NetTarget()

	if err != nil {
		return err
	}

	rt, err := humantrack.NewRuntime(cfg.Model.Config, cfg.Model.Weights, backend, target)

	if err != nil {
		return fmt.Errorf("error initializing DNN runtime: %w", err)
	}

	defer rt.Close()

	log.WithFields(log.Fields{
		"cfg":     cfg.Model.Config,
		"weights": cfg.Model.Weights,
		"outputs": rt.OutputNames(),
	}).Info("Model loaded")

	det, err := detector.New(rt, labels, cfg.DetectorOptions())

	if err != nil {
		return fmt.Errorf("error creating detector: %w", err)
	}

	src, err := stream.Open(input, kind)

	if err != nil {
		return err
	}

	defer src.Close()

	set := tracker.NewSet(tracker.NewKCF, cfg.TrackerOptions())
	defer set.Close()

	plOpts := cfg.PipelineOptions()
	plOpts.DetectFirst = kind == stream.Image

	pl := pipeline.New(det, set, src, plOpts)

	if cfg.Output.Save {
		sink, err := stream.NewSink(input, kind, src.Size())

		if err != nil {
			return err
		}

		defer sink.Close()
		pl.SetSink(sink)
	}

	if cfg.Output.Display {
		win := stream.NewWindow(stream.DefaultWindowTitle)
		defer win.Close()
		pl.SetDisplay(win)
	}

	if cfg.Output.PoseLog != "" {
		poses, err := poselog.Create(cfg.Output.PoseLog)

		if err != nil {
			return err
		}

		defer func() {
			if err := poses.Close(); err != nil {
				log.WithError(err).Error("Error closing pose log")
			}
		}()

		pl.SetPoseLogger(poses)
	}

	log.WithFields(log.Fields{
		"session": pl.Session().String(),
		"input":   input,
		"kind":    kind.String(),
	}).Info("Running human detection")

	_, err = pl.Run(ctx)

	if errors.Is(err, context.Canceled) {
		log.Info("Interrupted")
		return nil
	}

	return err
}
