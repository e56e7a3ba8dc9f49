// Package images - Geometry helpers for mapping mask-space results back to the
// source frame.
package images

import (
	"image"

	"github.com/chewxy/math32"
)

// Ratio is the per-axis scale factor from mask resolution to source resolution.
type Ratio struct {
	X, Y float32
}

// Identity is the ratio between two equal resolutions.
var Identity = Ratio{X: 1, Y: 1}

// ComputeRatio returns source/mask for each axis.
//
// Arguments:
//   - source: The resolution results are mapped into.
//   - mask: The resolution results were measured at.
//
// Returns:
//   - Ratio: The per-axis scale, or the zero Ratio if mask has a zero dimension.
//
// @example
// r := ComputeRatio(Res(1280, 720), Res(480, 270)) // {2.6667, 2.6667}
func ComputeRatio(source, mask ResolutionPixels) Ratio {
	if mask.Width <= 0 || mask.Height <= 0 {
		return Ratio{}
	}
	return Ratio{
		X: float32(source.Width) / float32(mask.Width),
		Y: float32(source.Height) / float32(mask.Height),
	}
}

// ApproxEqual reports whether both axes differ by at most eps.
func (r Ratio) ApproxEqual(o Ratio, eps float32) bool {
	return math32.Abs(r.X-o.X) <= eps && math32.Abs(r.Y-o.Y) <= eps
}

// ScaleRect maps a mask-space rectangle into source space.
//
// The origin and the extent are scaled independently and truncated, then the
// far corner is rebuilt as origin+extent:
//
//	x1 = ⌊x·rx⌋, y1 = ⌊y·ry⌋, x2 = x1 + ⌊w·rx⌋, y2 = y1 + ⌊h·ry⌋
func ScaleRect(r image.Rectangle, ratio Ratio) image.Rectangle {
	r = r.Canon()
	x1 := int(math32.Floor(float32(r.Min.X) * ratio.X))
	y1 := int(math32.Floor(float32(r.Min.Y) * ratio.Y))
	w := int(math32.Floor(float32(r.Dx()) * ratio.X))
	h := int(math32.Floor(float32(r.Dy()) * ratio.Y))
	return image.Rect(x1, y1, x1+w, y1+h)
}

// RatioCache holds the source/mask ratio and only recomputes it when either
// resolution changes.
type RatioCache struct {
	source, mask ResolutionPixels
	ratio        Ratio
	valid        bool
	computations int
}

// Get returns the cached ratio for the pair, recomputing on change.
func (c *RatioCache) Get(source, mask ResolutionPixels) Ratio {
	if c.valid && c.source == source && c.mask == mask {
		return c.ratio
	}
	c.source, c.mask = source, mask
	c.ratio = ComputeRatio(source, mask)
	c.valid = true
	c.computations++
	return c.ratio
}

// Computations returns how many times the ratio has been recomputed.
func (c *RatioCache) Computations() int {
	return c.computations
}

// Invalidate forces the next Get to recompute.
func (c *RatioCache) Invalidate() {
	c.valid = false
}
