package common

import (
	"fmt"
	"image"
)

// BoundingBox is a motion region in source-resolution coordinates.
//
// X2 and Y2 are computed as X1+width and Y1+height of the scaled rectangle, so
// they are exclusive like image.Rectangle. RawArea is the contour area measured
// at mask resolution, before any scaling.
type BoundingBox struct {
	X1, Y1, X2, Y2 int
	RawArea        float64
}

// String formats the bounding box information for display.
//
// @example
// box := BoundingBox{X1: 100, Y1: 100, X2: 200, Y2: 300, RawArea: 2500}
// fmt.Println(box.String()) // Output: Motion (100, 100), (200, 300) raw=2500.0
func (b BoundingBox) String() string {
	return fmt.Sprintf("Motion (%d, %d), (%d, %d) raw=%.1f", b.X1, b.Y1, b.X2, b.Y2, b.RawArea)
}

// ToRect converts the bounding box to a canonical image.Rectangle.
//
// @example
// box := BoundingBox{X1: 10, Y1: 20, X2: 110, Y2: 220}
// rect := box.ToRect() // (10,20)-(110,220)
func (b BoundingBox) ToRect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2).Canon()
}

// Width returns the horizontal extent in source pixels.
func (b BoundingBox) Width() int {
	return b.ToRect().Dx()
}

// Height returns the vertical extent in source pixels.
func (b BoundingBox) Height() int {
	return b.ToRect().Dy()
}

// ScaledArea returns the rectangle area in source pixels.
//
// This is the area of the bounding rectangle, not the contour, so it is
// always at least RawArea scaled by the resolution ratio.
func (b BoundingBox) ScaledArea() int {
	return b.Width() * b.Height()
}

// Contains reports whether other lies entirely inside b.
//
// Arguments:
// - other: The candidate inner box.
//
// Returns:
// - true when both corners of other are within b (edges inclusive).
func (b BoundingBox) Contains(other BoundingBox) bool {
	outer := b.ToRect()
	inner := other.ToRect()
	return inner.Min.X >= outer.Min.X && inner.Min.Y >= outer.Min.Y &&
		inner.Max.X <= outer.Max.X && inner.Max.Y <= outer.Max.Y
}

// TotalRawArea sums RawArea across boxes.
func TotalRawArea(boxes []BoundingBox) float64 {
	var total float64
	for _, b := range boxes {
		total += b.RawArea
	}
	return total
}
