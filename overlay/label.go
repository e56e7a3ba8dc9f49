package overlay

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// LabelStyle controls how DrawLabel renders a status label.
type LabelStyle struct {
	Font       gocv.HersheyFont
	Scale      float64
	Thickness  int
	Padding    image.Point
	Background color.RGBA
	Foreground color.RGBA
}

// DefaultLabelStyle returns white text on a blue box.
func DefaultLabelStyle() LabelStyle {
	return LabelStyle{
		Font:       gocv.FontHersheySimplex,
		Scale:      1,
		Thickness:  2,
		Padding:    image.Pt(20, 20),
		Background: color.RGBA{B: 255, A: 255},
		Foreground: color.RGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

// WithBackground returns a copy of s with a different box color.
func (s LabelStyle) WithBackground(c color.RGBA) LabelStyle {
	s.Background = c
	return s
}

// DrawLabel draws text with a filled background box whose baseline starts at pt.
func DrawLabel(img *gocv.Mat, pt image.Point, text string, style LabelStyle) {
	size := gocv.GetTextSize(text, style.Font, style.Scale, style.Thickness)
	box := image.Rect(
		pt.X-style.Padding.X/2,
		pt.Y-size.Y-style.Padding.Y/2,
		pt.X+size.X+style.Padding.X,
		pt.Y+style.Padding.Y,
	)
	gocv.Rectangle(img, box, style.Background, -1)
	gocv.PutText(img, text, pt, style.Font, style.Scale, style.Foreground, style.Thickness)
}
