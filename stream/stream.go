/*
Package stream provides the frame sources the pipeline reads from, the sinks
annotated frames are written to and the on screen display.
*/
package stream

import (
	"errors"
	"os"
)

var (
	// ErrOpenSource is returned when an input image or video can not be
	// opened
	ErrOpenSource = errors.New("could not open the input image/video stream")
	// ErrOpenSink is returned when the output file can not be created
	ErrOpenSink = errors.New("could not open the output file")
	// ErrEndOfStream is returned by Source.Read once no frames remain
	ErrEndOfStream = errors.New("end of stream")
)

// Kind is the type of media an input is
type Kind int

const (
	Image Kind = iota
	Video
)

// String returns the name of the kind
func (k Kind) String() string {
	if k == Video {
		return "video"
	}
	return "image"
}

// outputSuffix is the text replacing the input file extension to name the
// output file
const outputSuffix = "_YOLOv4_output_cpp"

// OutputPath derives the annotated output file name from the input path by
// replacing its last four characters, normally the extension, with the
// output suffix and the extension for the kind of media.  Paths shorter
// than four characters have the suffix appended.
func OutputPath(input string, kind Kind) string {

	ext := ".jpg"

	if kind == Video {
		ext = ".avi"
	}

	base := input

	if len(base) >= 4 {
		base = base[:len(base)-4]
	}

	return base + outputSuffix + ext
}

// checkFile returns an error if the file does not exist or is a directory
func checkFile(path string) error {

	info, err := os.Stat(path)

	if err != nil {
		return err
	}

	if info.IsDir() {
		return errors.New("is a directory")
	}

	return nil
}
