// Package images - This file contains the foreground segmentation stage using
// OpenCV (via gocv).
//
// The BackgroundSegmenter turns a source frame into a clean binary motion mask:
//
// ┌──────────────┐
// │ Input Frame  │
// └──────┬───────┘
// ┌────────────────────────────────────────────┐
// │ Downsample (resize, grayscale, box blur)   │
// └──────┬─────────────────────────────────────┘
// ┌────────────────────────────┐
// │ Background Subtraction     │
// │  (MOG2, shadows)           │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Adaptive threshold (inv)   │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Erode → dilate → close     │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Contour fill               │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Motion trails              │
// └────────────────────────────┘
//
// Usage:
//
//	seg, err := images.NewBackgroundSegmenter(images.DefaultSegmenterConfig())
//	if err != nil {
//	    return err
//	}
//	defer seg.Close()
//
//	mask, err := seg.Update(frame)
//
// Note: You must call Close() when finished to release native resources.
package images

import (
	"image"
	"image/color"

	"github.com/nvr-ai/go-motion/common"
	"gocv.io/x/gocv"
)

// SegmenterConfig holds the tuning parameters of a BackgroundSegmenter.
type SegmenterConfig struct {
	Resolution        ResolutionPixels
	History           int
	VarThreshold      float64
	DetectShadows     bool
	AdaptiveBlockSize int
	AdaptiveC         float32
	BlurKernel        int
	ErodeKernel       int
	DilateKernel      int
	CloseKernel       int
	TrailErodeKernel  int
	TrailDepth        int
	FillColor         uint8
}

// DefaultSegmenterConfig returns the stock tuning for surveillance footage.
func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{
		Resolution:        DefaultProcessingResolution,
		History:           400,
		VarThreshold:      50,
		DetectShadows:     true,
		AdaptiveBlockSize: 21,
		AdaptiveC:         16,
		BlurKernel:        5,
		ErodeKernel:       2,
		DilateKernel:      2,
		CloseKernel:       5,
		TrailErodeKernel:  5,
		TrailDepth:        10,
		FillColor:         255,
	}
}

// Validate reports the first invalid parameter as a configuration error.
func (c SegmenterConfig) Validate() error {
	if err := c.Resolution.Validate(); err != nil {
		return err
	}
	if c.History <= 0 {
		return common.ConfigError("history %d must be positive", c.History)
	}
	if c.VarThreshold <= 0 {
		return common.ConfigError("variance threshold %.2f must be positive", c.VarThreshold)
	}
	if c.AdaptiveBlockSize <= 1 || c.AdaptiveBlockSize%2 == 0 {
		return common.ConfigError("adaptive block size %d must be odd and greater than 1", c.AdaptiveBlockSize)
	}
	kernels := []struct {
		name string
		size int
	}{
		{"blur", c.BlurKernel},
		{"erode", c.ErodeKernel},
		{"dilate", c.DilateKernel},
		{"close", c.CloseKernel},
		{"trail erode", c.TrailErodeKernel},
	}
	for _, k := range kernels {
		if k.size <= 0 {
			return common.ConfigError("%s kernel size %d must be positive", k.name, k.size)
		}
	}
	if c.TrailDepth < 0 {
		return common.ConfigError("trail depth %d must not be negative", c.TrailDepth)
	}
	return nil
}

// BackgroundSegmenter isolates moving foreground from a learned background.
//
// It owns a MOG2 background model that is updated on every call to Update.
// The struct holds native handles: use it by pointer, never copy it, and do
// not share it between goroutines.
type BackgroundSegmenter struct {
	config SegmenterConfig

	downsampler *Downsampler
	model       gocv.BackgroundSubtractorMOG2
	trail       *TrailBuffer

	mask    gocv.Mat // Output mask, the same instance every call
	delta   gocv.Mat // Raw MOG2 foreground (0/127/255)
	scratch gocv.Mat

	erodeKernel      gocv.Mat
	dilateKernel     gocv.Mat
	closeKernel      gocv.Mat
	trailErodeKernel gocv.Mat

	updates int
}

// NewBackgroundSegmenter validates config and allocates the model, buffers and
// structuring elements.
//
// Arguments:
//   - config: The segmenter tuning.
//
// Returns:
//   - *BackgroundSegmenter: The ready segmenter.
//   - error: A configuration error if config is invalid.
func NewBackgroundSegmenter(config SegmenterConfig) (*BackgroundSegmenter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ds, err := NewDownsampler(config.Resolution, config.BlurKernel, BlurBox)
	if err != nil {
		return nil, err
	}

	return &BackgroundSegmenter{
		config:           config,
		downsampler:      ds,
		model:            newModel(config),
		trail:            NewTrailBuffer(config.TrailDepth),
		mask:             gocv.NewMat(),
		delta:            gocv.NewMat(),
		scratch:          gocv.NewMat(),
		erodeKernel:      rectKernel(config.ErodeKernel),
		dilateKernel:     rectKernel(config.DilateKernel),
		closeKernel:      rectKernel(config.CloseKernel),
		trailErodeKernel: rectKernel(config.TrailErodeKernel),
	}, nil
}

func newModel(config SegmenterConfig) gocv.BackgroundSubtractorMOG2 {
	return gocv.NewBackgroundSubtractorMOG2WithParams(config.History, config.VarThreshold, config.DetectShadows)
}

func rectKernel(size int) gocv.Mat {
	return gocv.GetStructuringElement(gocv.MorphRect, image.Pt(size, size))
}

// Config returns the segmenter tuning.
func (s *BackgroundSegmenter) Config() SegmenterConfig {
	return s.config
}

// Update runs one frame through the segmentation pipeline and returns the
// internal mask. The returned Mat is overwritten by the next call; Clone it to
// retain it.
//
// Arguments:
//   - frame: The source frame (BGR, gray or BGRA).
//
// Returns:
//   - gocv.Mat: The binary motion mask at the processing resolution.
//   - error: An input error for a bad frame, a processing error otherwise.
func (s *BackgroundSegmenter) Update(frame gocv.Mat) (gocv.Mat, error) {
	if err := s.downsampler.Apply(frame, &s.mask); err != nil {
		return s.mask, err
	}

	if err := s.model.Apply(s.mask, &s.delta); err != nil {
		return s.mask, common.ProcessingError("background subtraction", err)
	}

	if err := s.removeBackground(); err != nil {
		return s.mask, err
	}

	s.fillContours()

	if err := s.drawTrails(); err != nil {
		return s.mask, err
	}

	s.updates++
	return s.mask, nil
}

// removeBackground thresholds the MOG2 output and cleans it up morphologically.
// The inverted adaptive threshold marks the edges of foreground blobs, which
// the contour fill later closes into solid regions.
func (s *BackgroundSegmenter) removeBackground() error {
	if err := gocv.AdaptiveThreshold(
		s.delta, &s.mask, 255,
		gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv,
		s.config.AdaptiveBlockSize, s.config.AdaptiveC,
	); err != nil {
		return common.ProcessingError("adaptive threshold", err)
	}
	if err := gocv.Erode(s.mask, &s.scratch, s.erodeKernel); err != nil {
		return common.ProcessingError("erode", err)
	}
	if err := gocv.Dilate(s.scratch, &s.mask, s.dilateKernel); err != nil {
		return common.ProcessingError("dilate", err)
	}
	if err := gocv.MorphologyEx(s.mask, &s.scratch, gocv.MorphClose, s.closeKernel); err != nil {
		return common.ProcessingError("close", err)
	}
	s.scratch.CopyTo(&s.mask)
	return nil
}

// fillContours fills every external contour of the mask.
// Contours touching the image border are not closed.
func (s *BackgroundSegmenter) fillContours() {
	contours := gocv.FindContours(s.mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return
	}
	fill := color.RGBA{R: s.config.FillColor, G: s.config.FillColor, B: s.config.FillColor}
	gocv.DrawContours(&s.mask, contours, -1, fill, -1)
}

func (s *BackgroundSegmenter) drawTrails() error {
	if s.trail.Depth() == 0 {
		return nil
	}
	s.trail.Push(s.mask)
	if err := s.trail.Fold(&s.mask, s.trailErodeKernel, &s.scratch); err != nil {
		return common.ProcessingError("motion trails", err)
	}
	return nil
}

// Mask returns the most recent mask.
func (s *BackgroundSegmenter) Mask() gocv.Mat {
	return s.mask
}

// Trail returns the motion trail buffer.
func (s *BackgroundSegmenter) Trail() *TrailBuffer {
	return s.trail
}

// Updates returns how many frames have been applied to the background model
// since construction or the last Reset.
func (s *BackgroundSegmenter) Updates() int {
	return s.updates
}

// Reset discards the learned background and the motion trails.
func (s *BackgroundSegmenter) Reset() {
	s.model.Close()
	s.model = newModel(s.config)
	s.trail.Reset()
	s.updates = 0
}

// Close releases all OpenCV native resources used by the segmenter.
func (s *BackgroundSegmenter) Close() {
	s.downsampler.Close()
	s.model.Close()
	s.trail.Close()
	s.mask.Close()
	s.delta.Close()
	s.scratch.Close()
	s.erodeKernel.Close()
	s.dilateKernel.Close()
	s.closeKernel.Close()
	s.trailErodeKernel.Close()
}
