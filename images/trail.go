package images

import (
	"gocv.io/x/gocv"
)

// TrailBuffer is a bounded FIFO of prior motion masks. It owns every Mat it
// holds: Push stores a clone and evicted masks are closed.
type TrailBuffer struct {
	depth int
	masks []gocv.Mat
}

// NewTrailBuffer returns a buffer holding at most depth masks. A depth of 0
// disables trails: Push becomes a no-op.
func NewTrailBuffer(depth int) *TrailBuffer {
	if depth < 0 {
		depth = 0
	}
	return &TrailBuffer{depth: depth, masks: make([]gocv.Mat, 0, depth)}
}

// Depth returns the configured capacity.
func (t *TrailBuffer) Depth() int {
	return t.depth
}

// Len returns the number of buffered masks.
func (t *TrailBuffer) Len() int {
	return len(t.masks)
}

// Push appends a clone of mask, evicting the oldest entry when full.
func (t *TrailBuffer) Push(mask gocv.Mat) {
	if t.depth == 0 {
		return
	}
	if len(t.masks) == t.depth {
		t.masks[0].Close()
		copy(t.masks, t.masks[1:])
		t.masks = t.masks[:len(t.masks)-1]
	}
	t.masks = append(t.masks, mask.Clone())
}

// Fold erodes every buffered mask with kernel and saturating-adds it into dst,
// oldest first. scratch holds the eroded copy.
func (t *TrailBuffer) Fold(dst *gocv.Mat, kernel gocv.Mat, scratch *gocv.Mat) error {
	for i := range t.masks {
		if err := gocv.Erode(t.masks[i], scratch, kernel); err != nil {
			return err
		}
		gocv.Add(*dst, *scratch, dst)
	}
	return nil
}

// Reset closes and drops every buffered mask.
func (t *TrailBuffer) Reset() {
	for i := range t.masks {
		t.masks[i].Close()
	}
	t.masks = t.masks[:0]
}

// Close releases all buffered masks.
func (t *TrailBuffer) Close() {
	t.Reset()
}
