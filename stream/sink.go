package stream

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

const (
	// videoCodec is the FourCC of the output video
	videoCodec = "MJPG"
	// videoFPS is the output video frame rate
	videoFPS = 28
)

// Sink receives annotated frames
type Sink interface {
	// Write a frame to the sink
	Write(frame gocv.Mat) error
	// Path is the output file
	Path() string
	// Close flushes and closes the sink
	Close() error
}

// to8U converts the frame to 8 bit channels
func to8U(frame gocv.Mat) gocv.Mat {
	out := gocv.NewMat()
	frame.ConvertTo(&out, gocv.MatTypeCV8U)
	return out
}

// ImageSink writes every frame to the same image file, leaving the last
// frame written
type ImageSink struct {
	path string
}

// NewImageSink returns a sink writing to the image file at path
func NewImageSink(path string) *ImageSink {
	return &ImageSink{path: path}
}

// Write encodes the frame to the output image
func (s *ImageSink) Write(frame gocv.Mat) error {

	out := to8U(frame)
	defer out.Close()

	if !gocv.IMWrite(s.path, out) {
		return fmt.Errorf("%w: %s", ErrOpenSink, s.path)
	}

	return nil
}

// Path returns the output file
func (s *ImageSink) Path() string {
	return s.path
}

// Close is a no-op as each frame is written when received
func (s *ImageSink) Close() error {
	return nil
}

// VideoSink encodes frames into an MJPG video
type VideoSink struct {
	path string
	vw   *gocv.VideoWriter
}

// NewVideoSink creates the video file at path for frames of the given size
func NewVideoSink(path string, size image.Point) (*VideoSink, error) {

	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("%w: %s: invalid frame size %v", ErrOpenSink, path, size)
	}

	vw, err := gocv.VideoWriterFile(path, videoCodec, videoFPS, size.X, size.Y, true)

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenSink, path, err)
	}

	if !vw.IsOpened() {
		vw.Close()
		return nil, fmt.Errorf("%w: %s", ErrOpenSink, path)
	}

	return &VideoSink{path: path, vw: vw}, nil
}

// Write appends the frame to the video
func (s *VideoSink) Write(frame gocv.Mat) error {

	out := to8U(frame)
	defer out.Close()

	return s.vw.Write(out)
}

// Path returns the output file
func (s *VideoSink) Path() string {
	return s.path
}

// Close finalises the video file
func (s *VideoSink) Close() error {
	return s.vw.Close()
}

// NewSink returns the sink for the output of an input of the given kind.
// Video sinks need the frame size of the source.
func NewSink(input string, kind Kind, size image.Point) (Sink, error) {

	path := OutputPath(input, kind)

	switch kind {
	case Image:
		return NewImageSink(path), nil
	case Video:
		return NewVideoSink(path, size)
	}

	return nil, errors.New("unknown media kind")
}
