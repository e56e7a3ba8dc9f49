// Package controller routes frames through the change gate, the background
// segmenter and the overlay compositor, and drives sources into sinks.
package controller

import (
	"time"

	"github.com/nvr-ai/go-motion/common"
	"gocv.io/x/gocv"
)

// Phase is the gate decision for a tick.
type Phase int

const (
	// PhaseStatic means the gate saw no meaningful change; the heavy path is skipped.
	PhaseStatic Phase = iota
	// PhaseChanged means the frame went through segmentation and compositing.
	PhaseChanged
)

// String returns the display label for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseStatic:
		return "STATIC"
	case PhaseChanged:
		return "CHANGED"
	default:
		return "UNKNOWN"
	}
}

// Decide maps a gate average to a phase. There is no hysteresis: an average
// hovering at the threshold flips the phase on every tick.
func Decide(average, threshold float64) Phase {
	if average > threshold {
		return PhaseChanged
	}
	return PhaseStatic
}

// ChangeGate scores how much a frame differs from the previous one.
type ChangeGate interface {
	Update(frame gocv.Mat) (float64, []float64, error)
	Reset()
	Close()
}

// Segmenter turns a frame into a binary motion mask.
type Segmenter interface {
	Update(frame gocv.Mat) (gocv.Mat, error)
	Reset()
	Close()
}

// Compositor renders a mask onto its source frame.
type Compositor interface {
	Update(source, mask gocv.Mat) (gocv.Mat, error)
	BoundingBoxes() []common.BoundingBox
	TotalArea() float64
	Close()
}

// Result is the outcome of one pipeline tick.
//
// Frame and Mask are owned by the pipeline and stay valid only until the next
// Tick. Clone them to keep them longer.
type Result struct {
	Tick      int64
	Phase     Phase
	Score     float64   // Gate average
	Scores    []float64 // Per-region gate scores, row-major
	Frame     gocv.Mat  // Pass-through copy when static, composite when changed
	Mask      gocv.Mat  // Motion mask; empty when static
	Boxes     []common.BoundingBox
	TotalArea float64
	Elapsed   time.Duration
}

// Changed reports whether the tick went through the heavy path.
func (r Result) Changed() bool {
	return r.Phase == PhaseChanged
}
