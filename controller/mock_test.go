package controller

import (
	"errors"

	"github.com/nvr-ai/go-motion/common"
	"gocv.io/x/gocv"
)

// MockGate replays scripted gate averages.
type MockGate struct {
	averages    []float64
	index       int
	shouldError bool
	resets      int
}

func (m *MockGate) Update(frame gocv.Mat) (float64, []float64, error) {
	if m.shouldError {
		return 0, nil, errors.New("mock gate error")
	}
	if m.index >= len(m.averages) {
		return 0, []float64{0}, nil
	}
	avg := m.averages[m.index]
	m.index++
	return avg, []float64{avg}, nil
}

func (m *MockGate) Reset() { m.resets++ }
func (m *MockGate) Close() {}

// MockSegmenter counts invocations and returns a fixed mask.
type MockSegmenter struct {
	mask   gocv.Mat
	calls  int
	resets int
}

func NewMockSegmenter() *MockSegmenter {
	return &MockSegmenter{mask: gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 27, 48, gocv.MatTypeCV8UC1)}
}

func (m *MockSegmenter) Update(frame gocv.Mat) (gocv.Mat, error) {
	m.calls++
	return m.mask, nil
}

func (m *MockSegmenter) Reset() { m.resets++ }
func (m *MockSegmenter) Close() { m.mask.Close() }

// MockCompositor echoes the source and reports scripted boxes.
type MockCompositor struct {
	out   gocv.Mat
	boxes []common.BoundingBox
	calls int
}

func NewMockCompositor(boxes ...common.BoundingBox) *MockCompositor {
	return &MockCompositor{out: gocv.NewMat(), boxes: boxes}
}

func (m *MockCompositor) Update(source, mask gocv.Mat) (gocv.Mat, error) {
	m.calls++
	source.CopyTo(&m.out)
	return m.out, nil
}

func (m *MockCompositor) BoundingBoxes() []common.BoundingBox { return m.boxes }
func (m *MockCompositor) TotalArea() float64 { return common.TotalRawArea(m.boxes) }
func (m *MockCompositor) Close() { m.out.Close() }
