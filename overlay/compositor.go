package overlay

import (
	"image"
	"image/color"

	"github.com/nvr-ai/go-motion/common"
	"github.com/nvr-ai/go-motion/images"
	"gocv.io/x/gocv"
)

// Config holds the compositor parameters.
type Config struct {
	Mode              Mode
	MinMotionArea     float64    // Contours below this raw area (mask px²) are ignored
	OverlayColor      color.RGBA // Tint for motion pixels
	BoxColor          color.RGBA
	BoxThickness      int
	OverlayBlurKernel int // Odd Gaussian kernel applied to the upscaled tint
	SourceWeight      float64
	OverlayWeight     float64
	Gamma             float64
	SuppressNested    bool // Drop boxes fully contained in another box
}

// DefaultConfig returns red overlay, green 2px boxes, both drawn.
func DefaultConfig() Config {
	return Config{
		Mode:              ModeBoth,
		MinMotionArea:     200,
		OverlayColor:      color.RGBA{R: 255, A: 255},
		BoxColor:          color.RGBA{G: 255, A: 255},
		BoxThickness:      2,
		OverlayBlurKernel: 31,
		SourceWeight:      1,
		OverlayWeight:     1,
		Gamma:             0,
	}
}

// Validate reports the first invalid parameter as a configuration error.
func (c Config) Validate() error {
	if !c.Mode.Valid() {
		return common.ConfigError("invalid overlay mode %d", int(c.Mode))
	}
	if c.MinMotionArea < 0 {
		return common.ConfigError("min motion area %.1f must not be negative", c.MinMotionArea)
	}
	if c.BoxThickness <= 0 {
		return common.ConfigError("box thickness %d must be positive", c.BoxThickness)
	}
	return images.ValidateKernel("overlay blur", c.OverlayBlurKernel)
}

// Compositor turns a binary motion mask plus its source frame into a rendered
// frame, a list of source-space bounding boxes and the total motion area.
//
// The compositor owns its output buffer; the Mat returned by Update is
// overwritten by the next call. Use it from a single goroutine and Close it
// when done.
type Compositor struct {
	config Config
	ratios images.RatioCache

	output   gocv.Mat
	binary   gocv.Mat
	maskBGR  gocv.Mat
	solid    gocv.Mat
	tint     gocv.Mat
	tintFull gocv.Mat
	tintBlur gocv.Mat

	boxes     []common.BoundingBox
	totalArea float64
}

// NewCompositor validates config and allocates the working buffers.
//
// @example
// comp, err := overlay.NewCompositor(overlay.DefaultConfig())
// defer comp.Close()
// out, err := comp.Update(frame, mask)
func NewCompositor(config Config) (*Compositor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Compositor{
		config:   config,
		output:   gocv.NewMat(),
		binary:   gocv.NewMat(),
		maskBGR:  gocv.NewMat(),
		solid:    gocv.NewMat(),
		tint:     gocv.NewMat(),
		tintFull: gocv.NewMat(),
		tintBlur: gocv.NewMat(),
		boxes:    make([]common.BoundingBox, 0, 16),
	}, nil
}

// Update renders mask onto a fresh copy of source according to the mode.
//
// Arguments:
//   - source: The frame at source resolution. Never modified.
//   - mask: Single-channel motion mask; any non-zero pixel is motion.
//
// Returns:
//   - gocv.Mat: The rendered frame. In ModeNone this is an unmodified copy of
//     source; otherwise it is BGR.
//   - error: An input error for empty or malformed inputs.
func (c *Compositor) Update(source, mask gocv.Mat) (gocv.Mat, error) {
	c.boxes = c.boxes[:0]
	c.totalArea = 0

	if err := images.ValidateFrame(source); err != nil {
		return c.output, err
	}

	if c.config.Mode == ModeNone {
		source.CopyTo(&c.output)
		return c.output, nil
	}

	if err := images.ValidateFrame(mask); err != nil {
		return c.output, err
	}
	if mask.Channels() != 1 {
		return c.output, common.InputError("mask must have 1 channel, got %d", mask.Channels())
	}

	if err := c.copySource(source); err != nil {
		return c.output, err
	}

	gocv.Threshold(mask, &c.binary, 0, 255, gocv.ThresholdBinary)
	ratio := c.ratios.Get(images.FrameResolution(source), images.FrameResolution(mask))

	if c.config.Mode.Overlays() {
		if err := c.drawOverlay(); err != nil {
			return c.output, err
		}
	}

	c.collectBoxes(ratio)

	if c.config.Mode.Boxes() {
		for _, box := range c.boxes {
			gocv.Rectangle(&c.output, box.ToRect(), c.config.BoxColor, c.config.BoxThickness)
		}
	}

	return c.output, nil
}

// copySource writes a BGR copy of source into the output buffer.
func (c *Compositor) copySource(source gocv.Mat) error {
	switch source.Channels() {
	case 1:
		if err := gocv.CvtColor(source, &c.output, gocv.ColorGrayToBGR); err != nil {
			return common.ProcessingError("gray to bgr", err)
		}
	case 4:
		if err := gocv.CvtColor(source, &c.output, gocv.ColorBGRAToBGR); err != nil {
			return common.ProcessingError("bgra to bgr", err)
		}
	default:
		source.CopyTo(&c.output)
	}
	return nil
}

// drawOverlay tints motion pixels at mask resolution, scales the tint to the
// source, softens it and blends it over the output.
func (c *Compositor) drawOverlay() error {
	if err := gocv.CvtColor(c.binary, &c.maskBGR, gocv.ColorGrayToBGR); err != nil {
		return common.ProcessingError("mask to bgr", err)
	}

	if c.solid.Rows() != c.binary.Rows() || c.solid.Cols() != c.binary.Cols() {
		c.solid.Close()
		col := c.config.OverlayColor
		c.solid = gocv.NewMatWithSizeFromScalar(
			gocv.NewScalar(float64(col.B), float64(col.G), float64(col.R), 0),
			c.binary.Rows(), c.binary.Cols(), gocv.MatTypeCV8UC3,
		)
	}
	gocv.BitwiseAnd(c.maskBGR, c.solid, &c.tint)

	size := image.Pt(c.output.Cols(), c.output.Rows())
	if err := gocv.Resize(c.tint, &c.tintFull, size, 0, 0, gocv.InterpolationLinear); err != nil {
		return common.ProcessingError("resize tint", err)
	}
	k := c.config.OverlayBlurKernel
	if err := gocv.GaussianBlur(c.tintFull, &c.tintBlur, image.Pt(k, k), 0, 0, gocv.BorderConstant); err != nil {
		return common.ProcessingError("blur tint", err)
	}

	gocv.AddWeighted(c.output, c.config.SourceWeight, c.tintBlur, c.config.OverlayWeight, c.config.Gamma, &c.output)
	if c.output.Empty() {
		return common.ProcessingError("blend overlay", nil)
	}
	return nil
}

// collectBoxes extracts external contours, drops small ones and scales the
// rest into source space. Raw areas of kept boxes are summed into totalArea.
func (c *Compositor) collectBoxes(ratio images.Ratio) {
	contours := gocv.FindContours(c.binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area < c.config.MinMotionArea {
			continue
		}
		rect := images.ScaleRect(gocv.BoundingRect(contour), ratio)
		c.boxes = append(c.boxes, common.BoundingBox{
			X1:      rect.Min.X,
			Y1:      rect.Min.Y,
			X2:      rect.Max.X,
			Y2:      rect.Max.Y,
			RawArea: area,
		})
	}

	if c.config.SuppressNested {
		c.boxes = suppressNested(c.boxes)
	}

	c.totalArea = common.TotalRawArea(c.boxes)
}

// suppressNested removes boxes contained in another box. Of two identical
// boxes the first is kept.
func suppressNested(boxes []common.BoundingBox) []common.BoundingBox {
	kept := make([]common.BoundingBox, 0, len(boxes))
	for i, box := range boxes {
		nested := false
		for j, other := range boxes {
			if i == j || !other.Contains(box) {
				continue
			}
			if other == box && j > i {
				continue
			}
			nested = true
			break
		}
		if !nested {
			kept = append(kept, box)
		}
	}
	return kept
}

// BoundingBoxes returns the boxes found by the most recent Update.
func (c *Compositor) BoundingBoxes() []common.BoundingBox {
	return c.boxes
}

// TotalArea returns the summed raw area of the most recent Update's boxes.
func (c *Compositor) TotalArea() float64 {
	return c.totalArea
}

// SetMode changes the rendering mode for subsequent updates. An undeclared
// mode is rejected with a configuration error and the current mode is kept.
func (c *Compositor) SetMode(mode Mode) error {
	if !mode.Valid() {
		return common.ConfigError("invalid overlay mode %d", int(mode))
	}
	c.config.Mode = mode
	return nil
}

// Mode returns the current rendering mode.
func (c *Compositor) Mode() Mode {
	return c.config.Mode
}

// Output returns the most recent rendered frame.
func (c *Compositor) Output() gocv.Mat {
	return c.output
}

// Close releases all OpenCV native resources used by the compositor.
func (c *Compositor) Close() {
	c.output.Close()
	c.binary.Close()
	c.maskBGR.Close()
	c.solid.Close()
	c.tint.Close()
	c.tintFull.Close()
	c.tintBlur.Close()
}
