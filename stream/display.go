package stream

import (
	"time"

	"gocv.io/x/gocv"
)

// DefaultWindowTitle is the title of the display window
const DefaultWindowTitle = "Human Detection"

// Display shows annotated frames to the user
type Display interface {
	// Show the frame, returning true if the user asked to stop
	Show(frame gocv.Mat) bool
	// Hold keeps the last frame on screen for the duration
	Hold(d time.Duration)
	// Close the display
	Close() error
}

// Window is an on screen display.  A key press aborts the run.
type Window struct {
	win *gocv.Window
}

// NewWindow opens a display window with the title
func NewWindow(title string) *Window {
	win := gocv.NewWindow(title)
	win.SetWindowProperty(gocv.WindowPropertyAutosize, gocv.WindowNormal)
	return &Window{win: win}
}

// Show displays the frame and polls the keyboard for one millisecond
func (w *Window) Show(frame gocv.Mat) bool {
	w.win.IMShow(frame)
	return w.win.WaitKey(1) >= 0
}

// Hold waits for the duration or a key press
func (w *Window) Hold(d time.Duration) {
	if ms := int(d.Milliseconds()); ms > 0 {
		w.win.WaitKey(ms)
	}
}

// Close destroys the window
func (w *Window) Close() error {
	return w.win.Close()
}

// Headless is a Display for running without a screen, it never aborts and
// does not hold
type Headless struct{}

// Show does nothing
func (Headless) Show(gocv.Mat) bool { return false }

// Hold does nothing
func (Headless) Hold(time.Duration) {}

// Close does nothing
func (Headless) Close() error { return nil }
