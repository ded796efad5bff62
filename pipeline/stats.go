package pipeline

import (
	"time"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// Stats summarise a pipeline run
type Stats struct {
	// Frames is the number of frames processed
	Frames int
	// Detections is the number of successful detection passes
	Detections int
	// DetectErrors is the number of failed detection passes
	DetectErrors int
	// Updates is the number of tracker update passes
	Updates int
	// DetectMean and DetectStdDev are the latency of detection passes
	DetectMean   time.Duration
	DetectStdDev time.Duration
	// TrackMean and TrackStdDev are the latency of tracker updates
	TrackMean   time.Duration
	TrackStdDev time.Duration
	// Aborted is true if the run was stopped from the display
	Aborted bool
}

// Fields returns the stats as log fields
func (s *Stats) Fields() log.Fields {
	return log.Fields{
		"frames":        s.Frames,
		"detections":    s.Detections,
		"detect_errors": s.DetectErrors,
		"updates":       s.Updates,
		"detect_mean":   s.DetectMean,
		"detect_stddev": s.DetectStdDev,
		"track_mean":    s.TrackMean,
		"track_stddev":  s.TrackStdDev,
		"aborted":       s.Aborted,
	}
}

// recorder accumulates latencies during a run
type recorder struct {
	detect       []float64
	track        []float64
	detectErrors int
	aborted      bool
}

func newRecorder() *recorder {
	return &recorder{
		detect: make([]float64, 0),
		track:  make([]float64, 0),
	}
}

func (r *recorder) detected(d time.Duration) {
	r.detect = append(r.detect, float64(d))
}

func (r *recorder) tracked(d time.Duration) {
	r.track = append(r.track, float64(d))
}

// frames is the number of frames processed so far
func (r *recorder) frames() int {
	return len(r.detect) + len(r.track)
}

func (r *recorder) stats() *Stats {

	s := &Stats{
		Frames:       r.frames(),
		Detections:   len(r.detect),
		DetectErrors: r.detectErrors,
		Updates:      len(r.track),
		Aborted:      r.aborted,
	}

	s.DetectMean, s.DetectStdDev = meanStdDev(r.detect)
	s.TrackMean, s.TrackStdDev = meanStdDev(r.track)

	return s
}

// meanStdDev returns the mean and sample standard deviation of the
// durations, the deviation being zero for fewer than two samples
func meanStdDev(xs []float64) (time.Duration, time.Duration) {

	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return time.Duration(xs[0]), 0
	}

	mean, std := stat.MeanStdDev(xs, nil)

	return time.Duration(mean), time.Duration(std)
}
