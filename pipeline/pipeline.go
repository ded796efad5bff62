/*
Package pipeline runs the detect then track loop over a stream of frames.
Every Interval frames people are detected and the trackers reinitialised on
them, in between the trackers follow each person from frame to frame.
*/
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/swdee/go-humantrack"
	"github.com/swdee/go-humantrack/postprocess"
	"github.com/swdee/go-humantrack/render"
	"github.com/swdee/go-humantrack/stream"
	"github.com/swdee/go-humantrack/tracker"
	"gocv.io/x/gocv"
)

// Detector finds people in a frame, optionally drawing them onto it
type Detector interface {
	Detect(frame *gocv.Mat) ([]postprocess.DetectResult, error)
}

// Tracker follows a set of people between detections
type Tracker interface {
	Reinitialize(frame gocv.Mat, frameNum int, boxes []image.Rectangle) []tracker.Track
	Update(frame gocv.Mat) []tracker.Track
}

// PoseLogger records the tracks of each frame
type PoseLogger interface {
	Log(frame int, detected bool, tracks []tracker.Track) error
}

// Options are the loop settings
type Options struct {
	// Interval is the frame cadence detection runs at
	Interval int
	// DetectFirst also runs detection on the first frame read.  Single image
	// sources never reach the Interval so need it to detect at all.
	DetectFirst bool
	// EndPause is how long the last frame is held on the display at the end
	// of the stream
	EndPause time.Duration
	// Annotate draws the tracker boxes and poses onto the output frames
	Annotate bool
	// Font for pose labels
	Font render.Font
	// LineThickness of tracker boxes
	LineThickness int
	// TrailLength is the number of poses drawn as a trail behind each
	// track, zero disables trails
	TrailLength int
}

// DefaultOptions returns a detection interval of 45 frames and a 3 second
// end of stream pause
func DefaultOptions() Options {
	return Options{
		Interval:      45,
		EndPause:      3 * time.Second,
		Annotate:      true,
		Font:          render.LabelFont(),
		LineThickness: 2,
	}
}

// Pipeline owns the frame counter and decides per frame whether to detect
// or track
type Pipeline struct {
	det   Detector
	trk   Tracker
	src   stream.Source
	sink  stream.Sink
	disp  stream.Display
	poses PoseLogger
	opts  Options
	trail *tracker.Trail
	// session identifies the run in log entries
	session uuid.UUID
	log     *log.Entry
}

// New returns a pipeline reading frames from src.  Without a sink, display
// or pose logger set frames are processed but not emitted.
func New(det Detector, trk Tracker, src stream.Source, opts Options) *Pipeline {

	if opts.Interval < 1 {
		opts.Interval = 1
	}

	session := uuid.New()

	p := &Pipeline{
		det:     det,
		trk:     trk,
		src:     src,
		disp:    stream.Headless{},
		opts:    opts,
		session: session,
		log:     log.WithField("session", session.String()),
	}

	if opts.TrailLength > 0 {
		p.trail = tracker.NewTrail(opts.TrailLength)
	}

	return p
}

// SetSink sets where annotated frames are written
func (p *Pipeline) SetSink(s stream.Sink) {
	p.sink = s
}

// SetDisplay sets where annotated frames are shown
func (p *Pipeline) SetDisplay(d stream.Display) {
	if d == nil {
		d = stream.Headless{}
	}
	p.disp = d
}

// SetPoseLogger sets where per frame poses are recorded
func (p *Pipeline) SetPoseLogger(l PoseLogger) {
	p.poses = l
}

// Session returns the ID of the run
func (p *Pipeline) Session() uuid.UUID {
	return p.session
}

// Run processes frames until the end of the stream, the display is aborted
// or ctx is cancelled.  The end of the stream and an abort from the display
// return a nil error, cancellation returns the context error.  A detector
// error caused by a Model and label mismatch stops the run and is returned.
func (p *Pipeline) Run(ctx context.Context) (*Stats, error) {

	frame := gocv.NewMat()
	defer frame.Close()

	// canvas is the copy of the frame annotations are drawn on, leaving
	// frame untouched for the trackers
	canvas := gocv.NewMat()
	defer canvas.Close()

	rec := newRecorder()

	// the counter is incremented after every read, before the cadence
	// check, so the first frame read is frame 2
	counter := 1

	p.log.WithFields(log.Fields{
		"interval": p.opts.Interval,
	}).Info("Pipeline started")

	defer func() {
		p.log.WithFields(rec.stats().Fields()).Info("Pipeline finished")
	}()

	for {
		if err := ctx.Err(); err != nil {
			p.log.Info("Pipeline cancelled")
			return rec.stats(), err
		}

		err := p.src.Read(&frame)
		counter++

		if errors.Is(err, stream.ErrEndOfStream) {
			if p.sink != nil {
				p.log.Infof("Output file is stored as %s", p.sink.Path())
			}

			p.disp.Hold(p.opts.EndPause)
			return rec.stats(), nil
		}

		if err != nil {
			return rec.stats(), fmt.Errorf("error reading frame %d: %w", counter, err)
		}

		frame.CopyTo(&canvas)

		detect := counter%p.opts.Interval == 0 ||
			(p.opts.DetectFirst && rec.frames() == 0)

		tracks, detected, err := p.step(frame, &canvas, counter, detect, rec)

		if err != nil {
			return rec.stats(), fmt.Errorf("detection failed on frame %d: %w", counter, err)
		}

		p.emit(&canvas, counter, detected, tracks)

		if p.disp.Show(canvas) {
			p.log.WithField("frame", counter).Info("Pipeline aborted from display")
			rec.aborted = true
			return rec.stats(), nil
		}
	}
}

// step runs detection and tracker reinitialisation when detect is set and a
// tracker update otherwise.  A failed detection falls back to an update,
// unless the failure is a Model error.
func (p *Pipeline) step(frame gocv.Mat, canvas *gocv.Mat, counter int,
	detect bool, rec *recorder) ([]tracker.Track, bool, error) {

	flog := p.log.WithField("frame", counter)

	if detect {

		start := time.Now()
		dets, err := p.det.Detect(canvas)

		if err == nil {
			tracks := p.trk.Reinitialize(frame, counter, tracker.DetectionsToBoxes(dets))
			rec.detected(time.Since(start))

			if len(dets) == 0 {
				flog.Debug("No people detected")
			} else {
				flog.WithField("detections", len(dets)).Debug("People detected")
			}

			return tracks, true, nil
		}

		rec.detectErrors++

		if isModelError(err) {
			flog.WithError(err).Error("Detector output does not match the Model")
			return nil, false, err
		}

		flog.WithError(err).Warn("Detection failed, updating trackers")
	}

	start := time.Now()
	tracks := p.trk.Update(frame)
	rec.tracked(time.Since(start))

	flog.WithField("tracks", len(tracks)).Trace("Trackers updated")

	return tracks, false, nil
}

// isModelError reports whether err comes from output layers that can never
// decode with the loaded Model and labels
func isModelError(err error) bool {
	return errors.Is(err, humantrack.ErrNoOutputLayers) ||
		errors.Is(err, postprocess.ErrClassOutOfRange) ||
		errors.Is(err, postprocess.ErrMalformedOutput)
}

// emit annotates the canvas and writes it and the poses to the outputs
func (p *Pipeline) emit(canvas *gocv.Mat, counter int, detected bool,
	tracks []tracker.Track) {

	if p.trail != nil {
		p.trail.Add(tracks)
	}

	if p.opts.Annotate {
		render.TrackerBoxes(canvas, tracks, p.opts.Font, p.opts.LineThickness)

		if p.trail != nil {
			render.Trail(canvas, tracks, p.trail, render.DefaultTrailStyle())
		}
	}

	if p.sink != nil {
		if err := p.sink.Write(*canvas); err != nil {
			p.log.WithField("frame", counter).WithError(err).Warn("Error writing frame")
		}
	}

	if p.poses != nil {
		if err := p.poses.Log(counter, detected, tracks); err != nil {
			p.log.WithField("frame", counter).WithError(err).Warn("Error logging poses")
		}
	}
}
