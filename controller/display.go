package controller

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/nvr-ai/go-motion/overlay"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ErrStopped is returned by Display when the user closes the stream from the
// window.
var ErrStopped = errors.New("stopped by user")

// FPSMeter counts frames and recomputes the rate once per second.
type FPSMeter struct {
	frames int
	last   time.Time
	fps    float64
}

// Observe counts one frame at now and returns the current rate.
func (m *FPSMeter) Observe(now time.Time) float64 {
	if m.last.IsZero() {
		m.last = now
	}
	m.frames++
	if elapsed := now.Sub(m.last).Seconds(); elapsed >= 1.0 {
		m.fps = float64(m.frames) / elapsed
		m.frames = 0
		m.last = now
	}
	return m.fps
}

// FPS returns the last computed rate.
func (m *FPSMeter) FPS() float64 {
	return m.fps
}

var (
	staticLabel  = overlay.DefaultLabelStyle()
	changedLabel = overlay.DefaultLabelStyle().WithBackground(color.RGBA{R: 255, A: 255})
)

// Annotate draws the gate status, the frame rate and, when the total motion
// area exceeds reportArea, the motion area in thousands of pixels.
func Annotate(img *gocv.Mat, res Result, fps, reportArea float64) {
	style := staticLabel
	if res.Changed() {
		style = changedLabel
	}
	overlay.DrawLabel(img, image.Pt(20, 40), "MSE: "+res.Phase.String(), style)
	overlay.DrawLabel(img, image.Pt(20, 100), fmt.Sprintf("FPS: %.1f", fps), staticLabel)

	if res.Changed() && res.TotalArea > reportArea {
		overlay.DrawLabel(img, image.Pt(20, 160),
			fmt.Sprintf("Motion detected (%.2f) K/p2", res.TotalArea/1000), changedLabel)
	}
}

// Display is a Sink that shows annotated results in an OpenCV window.
// Pressing q or Esc in the window stops the stream with ErrStopped.
type Display struct {
	Window     *gocv.Window
	ReportArea float64

	meter FPSMeter
}

// NewDisplay opens a window with the given title.
func NewDisplay(title string, reportArea float64) *Display {
	return &Display{Window: gocv.NewWindow(title), ReportArea: reportArea}
}

// Consume implements Sink. It draws on res.Frame, which the pipeline
// overwrites on the next tick anyway.
func (d *Display) Consume(res Result) error {
	fps := d.meter.Observe(time.Now())
	if res.Frame.Empty() {
		return nil
	}
	Annotate(&res.Frame, res, fps, d.ReportArea)
	d.Window.IMShow(res.Frame)

	switch d.Window.WaitKey(1) {
	case 'q', 27:
		return ErrStopped
	}
	return nil
}

// Close closes the window.
func (d *Display) Close() error {
	return d.Window.Close()
}
