package tracker

import (
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// step is a scripted tracker update result
type step struct {
	dx int
	ok bool
}

// fakePrimitive is a scripted tracker primitive that moves its box along the
// x axis on each update
type fakePrimitive struct {
	initOK bool
	inits  int
	steps  []step
	box    image.Rectangle
	n      int
	closed bool
}

func (f *fakePrimitive) Init(_ gocv.Mat, box image.Rectangle) bool {
	f.inits++
	f.box = box
	return f.initOK
}

func (f *fakePrimitive) Update(_ gocv.Mat) (image.Rectangle, bool) {

	if f.n >= len(f.steps) {
		return f.box, true
	}

	s := f.steps[f.n]
	f.n++

	if !s.ok {
		return image.Rectangle{}, false
	}

	f.box = f.box.Add(image.Pt(s.dx, 0))

	return f.box, true
}

func (f *fakePrimitive) Close() error {
	f.closed = true
	return nil
}

// fakeFactory hands out primitives built from the scripts in order and
// records every primitive created
type fakeFactory struct {
	sync.Mutex
	initOK  []bool
	scripts [][]step
	made    []*fakePrimitive
}

func (ff *fakeFactory) New() Primitive {
	ff.Lock()
	defer ff.Unlock()

	i := len(ff.made)

	p := &fakePrimitive{initOK: true}

	if i < len(ff.initOK) {
		p.initOK = ff.initOK[i]
	}

	if i < len(ff.scripts) {
		p.steps = ff.scripts[i]
	}

	ff.made = append(ff.made, p)

	return p
}

func TestShrink(t *testing.T) {

	got := Shrink(image.Rect(10, 10, 110, 110), DefaultShrinkRatios())
	assert.Equal(t, image.Rect(20, 16, 100, 96), got)

	// ratios leading to .5 fractions round half to even
	got = Shrink(image.Rect(0, 0, 25, 25), DefaultShrinkRatios())
	// 2.5 -> 2, 1.5 -> 2, 20 -> 20
	assert.Equal(t, image.Rect(2, 2, 22, 22), got)
}

func TestCenter(t *testing.T) {

	p := Center(image.Rect(20, 16, 100, 96))
	assert.Equal(t, Pose{X: 60, Y: 56}, p)
	assert.Equal(t, image.Pt(60, 56), p.Point())

	p = Center(image.Rect(0, 0, 5, 3))
	assert.Equal(t, Pose{X: 2.5, Y: 1.5}, p)
}

func TestIoU(t *testing.T) {

	a := image.Rect(0, 0, 10, 10)

	assert.InDelta(t, 1.0, IoU(a, a), 1e-9)
	assert.InDelta(t, 0.0, IoU(a, image.Rect(20, 20, 30, 30)), 1e-9)
	assert.InDelta(t, 50.0/150.0, IoU(a, image.Rect(5, 0, 15, 10)), 1e-9)
}

func TestSetEmpty(t *testing.T) {

	ff := &fakeFactory{}
	set := NewSet(ff.New, DefaultOptions())
	defer set.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	tracks := set.Reinitialize(frame, 1, nil)
	assert.NotNil(t, tracks)
	assert.Empty(t, tracks)

	tracks = set.Update(frame)
	assert.NotNil(t, tracks)
	assert.Empty(t, tracks)
	assert.Empty(t, ff.made)
}

func TestSetReinitialize(t *testing.T) {

	ff := &fakeFactory{}
	set := NewSet(ff.New, DefaultOptions())
	defer set.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	tracks := set.Reinitialize(frame, 45, []image.Rectangle{
		image.Rect(10, 10, 110, 110),
		image.Rect(200, 0, 300, 200),
	})

	require.Len(t, tracks, 2)
	assert.Equal(t, 2, set.Len())

	assert.Equal(t, int64(1), tracks[0].ID)
	assert.Equal(t, image.Rect(20, 16, 100, 96), tracks[0].Box)
	assert.Equal(t, Pose{X: 60, Y: 56}, tracks[0].Pose)
	assert.Equal(t, 45, tracks[0].StartFrame)

	assert.Equal(t, int64(2), tracks[1].ID)
	assert.Equal(t, image.Rect(210, 12, 290, 172), tracks[1].Box)

	// a second batch replaces the first entirely
	tracks = set.Reinitialize(frame, 90, []image.Rectangle{
		image.Rect(0, 0, 50, 50),
	})

	require.Len(t, tracks, 1)
	assert.Equal(t, int64(3), tracks[0].ID)
	assert.True(t, ff.made[0].closed)
	assert.True(t, ff.made[1].closed)
	assert.False(t, ff.made[2].closed)

	require.NoError(t, set.Close())
	assert.True(t, ff.made[2].closed)
	assert.Equal(t, 0, set.Len())
}

func TestSetUpdate(t *testing.T) {

	ff := &fakeFactory{
		scripts: [][]step{
			{{dx: 5, ok: true}, {dx: 0, ok: false}, {dx: 3, ok: true}},
		},
	}

	set := NewSet(ff.New, DefaultOptions())
	defer set.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	set.Reinitialize(frame, 1, []image.Rectangle{image.Rect(10, 10, 110, 110)})

	tracks := set.Update(frame)
	require.Len(t, tracks, 1)
	assert.Equal(t, image.Rect(25, 16, 105, 96), tracks[0].Box)
	assert.False(t, tracks[0].Lost)

	// failure keeps the last box
	tracks = set.Update(frame)
	require.Len(t, tracks, 1)
	assert.Equal(t, image.Rect(25, 16, 105, 96), tracks[0].Box)
	assert.True(t, tracks[0].Lost)
	assert.Equal(t, 1, tracks[0].Misses)

	tracks = set.Update(frame)
	require.Len(t, tracks, 1)
	assert.Equal(t, image.Rect(28, 16, 108, 96), tracks[0].Box)
	assert.False(t, tracks[0].Lost)
	assert.Equal(t, 0, tracks[0].Misses)
}

func TestSetInitFailure(t *testing.T) {

	ff := &fakeFactory{
		initOK: []bool{false},
	}

	set := NewSet(ff.New, DefaultOptions())
	defer set.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	tracks := set.Reinitialize(frame, 1, []image.Rectangle{image.Rect(10, 10, 110, 110)})

	require.Len(t, tracks, 1)
	assert.True(t, tracks[0].Lost)
	assert.Equal(t, image.Rect(20, 16, 100, 96), tracks[0].Box)
}

func TestSetEmptyBoxNotInitialised(t *testing.T) {

	ff := &fakeFactory{}
	set := NewSet(ff.New, DefaultOptions())
	defer set.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	// zero width box
	tracks := set.Reinitialize(frame, 1, []image.Rectangle{
		image.Rect(50, 50, 50, 120),
		image.Rect(10, 10, 110, 110),
	})

	require.Len(t, tracks, 2)
	assert.True(t, tracks[0].Lost)
	assert.True(t, tracks[0].Box.Empty())
	assert.Equal(t, 0, ff.made[0].inits)

	assert.False(t, tracks[1].Lost)
	assert.Equal(t, 1, ff.made[1].inits)
}

func TestSetMaxMisses(t *testing.T) {

	ff := &fakeFactory{
		scripts: [][]step{
			{{ok: false}, {ok: false}},
			{},
		},
	}

	opts := DefaultOptions()
	opts.MaxMisses = 2

	set := NewSet(ff.New, opts)
	defer set.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	set.Reinitialize(frame, 1, []image.Rectangle{
		image.Rect(10, 10, 110, 110),
		image.Rect(200, 10, 300, 110),
	})

	tracks := set.Update(frame)
	assert.Len(t, tracks, 2)

	tracks = set.Update(frame)
	require.Len(t, tracks, 1)
	assert.Equal(t, int64(2), tracks[0].ID)
	assert.True(t, ff.made[0].closed)
}

func TestSetMatchIoU(t *testing.T) {

	ff := &fakeFactory{}

	opts := DefaultOptions()
	opts.MatchIoU = 0.3

	set := NewSet(ff.New, opts)
	defer set.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	first := set.Reinitialize(frame, 45, []image.Rectangle{
		image.Rect(0, 0, 100, 200),
		image.Rect(400, 0, 500, 200),
	})

	second := set.Reinitialize(frame, 90, []image.Rectangle{
		image.Rect(405, 0, 505, 200),
		image.Rect(800, 0, 900, 200),
		image.Rect(2, 0, 102, 200),
	})

	require.Len(t, second, 3)
	assert.Equal(t, first[1].ID, second[0].ID)
	assert.Equal(t, int64(3), second[1].ID)
	assert.Equal(t, first[0].ID, second[2].ID)
}

func TestSetParallelMatchesSequential(t *testing.T) {

	scripts := [][]step{
		{{dx: 1, ok: true}, {dx: 2, ok: true}},
		{{ok: false}, {dx: 4, ok: true}},
		{{dx: -3, ok: true}, {ok: false}},
	}

	boxes := []image.Rectangle{
		image.Rect(0, 0, 100, 100),
		image.Rect(200, 0, 300, 100),
		image.Rect(400, 0, 500, 100),
	}

	run := func(parallel bool) []Track {
		ff := &fakeFactory{scripts: scripts}

		opts := DefaultOptions()
		opts.Parallel = parallel

		set := NewSet(ff.New, opts)
		defer set.Close()

		frame := gocv.NewMat()
		defer frame.Close()

		set.Reinitialize(frame, 1, boxes)
		set.Update(frame)

		return set.Update(frame)
	}

	seq := run(false)
	par := run(true)

	if diff := cmp.Diff(seq, par); diff != "" {
		t.Errorf("parallel update mismatch (-sequential +parallel):\n%s", diff)
	}
}

func TestKCF(t *testing.T) {

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 240, 320, gocv.MatTypeCV8UC3)
	defer frame.Close()

	box := image.Rect(100, 60, 180, 180)
	gocv.Rectangle(&frame, box, whiteRGBA, -1)

	kcf := NewKCF()
	defer kcf.Close()

	require.True(t, kcf.Init(frame, box))

	got, ok := kcf.Update(frame)

	if ok {
		assert.Greater(t, IoU(box, got), 0.5)
	}
}

var whiteRGBA = color.RGBA{R: 255, G: 255, B: 255, A: 0}
