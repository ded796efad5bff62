package stream

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Source is a sequence of frames
type Source interface {
	// Read the next frame into frame, returning ErrEndOfStream when there
	// are no more
	Read(frame *gocv.Mat) error
	// Size is the frame width and height
	Size() image.Point
	// Close the source
	Close() error
}

// ImageSource is a single image presented as a one frame stream
type ImageSource struct {
	img  gocv.Mat
	read bool
}

// OpenImage reads the image file
func OpenImage(path string) (*ImageSource, error) {

	if err := checkFile(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenSource, path, err)
	}

	img := gocv.IMRead(path, gocv.IMReadColor)

	if img.Empty() {
		img.Close()
		return nil, fmt.Errorf("%w: %s: unable to decode image", ErrOpenSource, path)
	}

	return &ImageSource{img: img}, nil
}

// Read copies the image into frame on the first call only
func (s *ImageSource) Read(frame *gocv.Mat) error {

	if s.read {
		return ErrEndOfStream
	}

	s.read = true
	s.img.CopyTo(frame)

	return nil
}

// Size returns the image dimensions
func (s *ImageSource) Size() image.Point {
	return image.Pt(s.img.Cols(), s.img.Rows())
}

// Close frees the image
func (s *ImageSource) Close() error {
	return s.img.Close()
}

// VideoSource reads frames from a video file
type VideoSource struct {
	vc   *gocv.VideoCapture
	size image.Point
}

// OpenVideo opens the video file for reading
func OpenVideo(path string) (*VideoSource, error) {

	if err := checkFile(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenSource, path, err)
	}

	vc, err := gocv.VideoCaptureFile(path)

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenSource, path, err)
	}

	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: %s", ErrOpenSource, path)
	}

	return &VideoSource{
		vc: vc,
		size: image.Pt(
			int(vc.Get(gocv.VideoCaptureFrameWidth)),
			int(vc.Get(gocv.VideoCaptureFrameHeight)),
		),
	}, nil
}

// Read the next video frame.  A failed read or empty frame ends the stream.
func (s *VideoSource) Read(frame *gocv.Mat) error {

	if ok := s.vc.Read(frame); !ok || frame.Empty() {
		return ErrEndOfStream
	}

	return nil
}

// Size returns the frame dimensions reported by the container
func (s *VideoSource) Size() image.Point {
	return s.size
}

// Close releases the capture
func (s *VideoSource) Close() error {
	return s.vc.Close()
}

// Open opens path as the given kind of source
func Open(path string, kind Kind) (Source, error) {
	if kind == Video {
		return OpenVideo(path)
	}
	return OpenImage(path)
}
