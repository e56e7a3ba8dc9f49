package test

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// MockFrameGenerator creates deterministic BGR frames: a flat background with
// an optional bright square standing in for a moving object.
//
// @example
// gen := NewMockFrameGenerator(480, 270)
// frame := gen.GenerateStaticFrame()
// defer frame.Close()
type MockFrameGenerator struct {
	width      int
	height     int
	background uint8
	foreground uint8
}

// NewMockFrameGenerator creates a generator for width x height frames with a
// dark background and a near-white foreground.
func NewMockFrameGenerator(width, height int) *MockFrameGenerator {
	return &MockFrameGenerator{
		width:      width,
		height:     height,
		background: 20,
		foreground: 230,
	}
}

// GenerateStaticFrame creates a background-only frame.
func (g *MockFrameGenerator) GenerateStaticFrame() gocv.Mat {
	v := float64(g.background)
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), g.height, g.width, gocv.MatTypeCV8UC3)
}

// GenerateMotionFrame creates a background frame with a filled size x size
// square whose top-left corner is (x, y).
func (g *MockFrameGenerator) GenerateMotionFrame(x, y, size int) gocv.Mat {
	frame := g.GenerateStaticFrame()
	fg := g.foreground
	gocv.Rectangle(&frame, image.Rect(x, y, x+size, y+size), color.RGBA{R: fg, G: fg, B: fg, A: 255}, -1)
	return frame
}

// Step describes one frame of a scripted sequence. A zero Size is a
// background-only frame.
type Step struct {
	X, Y, Size int
}

// Sequence renders the steps in order. The caller closes the frames, for
// example with CloseAll.
func (g *MockFrameGenerator) Sequence(steps ...Step) []gocv.Mat {
	frames := make([]gocv.Mat, 0, len(steps))
	for _, s := range steps {
		if s.Size == 0 {
			frames = append(frames, g.GenerateStaticFrame())
			continue
		}
		frames = append(frames, g.GenerateMotionFrame(s.X, s.Y, s.Size))
	}
	return frames
}

// MovingSquare is four background frames, three frames of a 50px square
// moving right 30px per frame, then three background frames.
func MovingSquare() []Step {
	return []Step{
		{}, {}, {}, {},
		{X: 100, Y: 110, Size: 50},
		{X: 130, Y: 110, Size: 50},
		{X: 160, Y: 110, Size: 50},
		{}, {}, {},
	}
}

// CloseAll releases every frame.
func CloseAll(frames []gocv.Mat) {
	for i := range frames {
		frames[i].Close()
	}
}
