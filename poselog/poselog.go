/*
Package poselog records the pose of every tracked person per frame as JSON
lines, one object per frame:

	{"frame":46,"detected":false,"tracks":[{"id":1,"x":60,"y":56,"box":[20,16,80,80],"lost":false}]}

Each track carries its ID, pose, tracked box as [x,y,width,height] and
whether the tracker lost it on that frame.
*/
package poselog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/swdee/go-humantrack/tracker"
	"github.com/tidwall/sjson"
)

// Logger writes pose records
type Logger struct {
	mu sync.Mutex
	w  *bufio.Writer
	c  io.Closer
}

// New returns a Logger writing to w.  If w is an io.Closer it is closed by
// Close.
func New(w io.Writer) *Logger {

	l := &Logger{w: bufio.NewWriter(w)}

	if c, ok := w.(io.Closer); ok {
		l.c = c
	}

	return l
}

// Create truncates or creates the file at path and returns a Logger writing
// to it
func Create(path string) (*Logger, error) {

	f, err := os.Create(path)

	if err != nil {
		return nil, fmt.Errorf("error creating pose log: %w", err)
	}

	return New(f), nil
}

// Record encodes the tracks of a frame as a single JSON line
func Record(frame int, detected bool, tracks []tracker.Track) (string, error) {

	line := `{}`
	var err error

	set := func(path string, v any) {
		if err != nil {
			return
		}
		line, err = sjson.Set(line, path, v)
	}

	set("frame", frame)
	set("detected", detected)

	if err == nil {
		line, err = sjson.SetRaw(line, "tracks", "[]")
	}

	for i, tr := range tracks {
		set(fmt.Sprintf("tracks.%d.id", i), tr.ID)
		set(fmt.Sprintf("tracks.%d.x", i), tr.Pose.X)
		set(fmt.Sprintf("tracks.%d.y", i), tr.Pose.Y)
		set(fmt.Sprintf("tracks.%d.box", i), []int{
			tr.Box.Min.X, tr.Box.Min.Y, tr.Box.Dx(), tr.Box.Dy(),
		})
		set(fmt.Sprintf("tracks.%d.lost", i), tr.Lost)
	}

	if err != nil {
		return "", fmt.Errorf("error encoding pose record: %w", err)
	}

	return line, nil
}

// Log writes the record for a frame
func (l *Logger) Log(frame int, detected bool, tracks []tracker.Track) error {

	line, err := Record(frame, detected, tracks)

	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.w.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("error writing pose log: %w", err)
	}

	return nil
}

// Close flushes buffered records and closes the underlying writer
func (l *Logger) Close() error {

	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.w.Flush()

	if l.c != nil {
		if cerr := l.c.Close(); err == nil {
			err = cerr
		}
	}

	return err
}
