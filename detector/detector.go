// Package detector implements the cheap change gate that decides whether a
// frame is worth running through foreground segmentation.
//
// The detector keeps a blurred, downsampled copy of the previous frame and
// scores every cell of an N×N grid by the mean squared difference against the
// current frame. The mean over all cells is the global change signal.
package detector

import (
	"github.com/nvr-ai/go-motion/common"
	"github.com/nvr-ai/go-motion/images"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// Config represents the configuration for the region change detector.
type Config struct {
	// Regions is N for the N×N grid.
	Regions int
	// Resolution is the downsampled frame size the grid is built on.
	Resolution images.ResolutionPixels
	// BlurKernel is the Gaussian kernel size; odd, 1 disables blurring.
	BlurKernel int
	// Threshold is the optional per-region and average cutoff.
	Threshold *float64
	// BreakOnThreshold stops the region scan at the first region over Threshold.
	BreakOnThreshold bool
}

// DefaultConfig returns a 4×4 grid at the default processing resolution with
// no threshold.
func DefaultConfig() Config {
	return Config{
		Regions:    4,
		Resolution: images.DefaultProcessingResolution,
		BlurKernel: 5,
	}
}

// WithThreshold returns a copy of c with the threshold set.
func (c Config) WithThreshold(threshold float64) Config {
	c.Threshold = &threshold
	return c
}

// Validate reports the first invalid parameter as a configuration error.
func (c Config) Validate() error {
	if err := c.Resolution.Validate(); err != nil {
		return err
	}
	if c.Regions < 1 {
		return common.ConfigError("region multiplier %d must be at least 1", c.Regions)
	}
	if err := images.ValidateKernel("detector blur", c.BlurKernel); err != nil {
		return err
	}
	if c.Threshold != nil && *c.Threshold < 0 {
		return common.ConfigError("threshold %.3f must not be negative", *c.Threshold)
	}
	if c.BreakOnThreshold && c.Threshold == nil {
		return common.ConfigError("break on threshold requires a threshold")
	}
	return nil
}

// RegionChangeDetector scores frame-to-frame change per grid region.
//
// The struct owns the baseline frame and scratch buffers. Use it by pointer,
// from a single goroutine, and Close it when done.
type RegionChangeDetector struct {
	config      Config
	downsampler *images.Downsampler
	grid        *RegionGrid

	baseline gocv.Mat
	current  gocv.Mat
	diff     gocv.Mat
	diff32   gocv.Mat
	squared  gocv.Mat

	scores      []float64
	average     float64
	hasBaseline bool
}

// New creates a region change detector.
//
// Arguments:
//   - config: Configuration parameters for the detector.
//
// Returns:
//   - *RegionChangeDetector: The initialized detector.
//   - error: A configuration error if config is invalid.
//
// @example
// det, err := detector.New(detector.DefaultConfig().WithThreshold(0.2))
// defer det.Close()
func New(config Config) (*RegionChangeDetector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ds, err := images.NewDownsampler(config.Resolution, config.BlurKernel, images.BlurGaussian)
	if err != nil {
		return nil, err
	}

	return &RegionChangeDetector{
		config:      config,
		downsampler: ds,
		baseline:    gocv.NewMat(),
		current:     gocv.NewMat(),
		diff:        gocv.NewMat(),
		diff32:      gocv.NewMat(),
		squared:     gocv.NewMat(),
		scores:      make([]float64, config.Regions*config.Regions),
	}, nil
}

// Update scores frame against the previous frame and makes it the new
// baseline.
//
// The first call after construction or Reset only establishes the baseline and
// reports an average of 0. When a threshold is set and BreakOnThreshold is on,
// the scan stops at the first region over the threshold and the remaining
// regions keep their previous scores.
//
// Arguments:
//   - frame: The source frame (BGR, gray or BGRA).
//
// Returns:
//   - float64: The mean of all region scores.
//   - []float64: The per-region scores in row-major order. The slice is reused
//     by the next call.
//   - error: An input error for a bad frame, a processing error otherwise.
func (d *RegionChangeDetector) Update(frame gocv.Mat) (float64, []float64, error) {
	if err := d.downsampler.Apply(frame, &d.current); err != nil {
		return d.average, d.scores, err
	}

	if !d.hasBaseline {
		if err := d.establishBaseline(); err != nil {
			return 0, d.scores, err
		}
		return d.average, d.scores, nil
	}

	// |prev - cur| is exact in 8 bits; squaring happens in float.
	gocv.AbsDiff(d.baseline, d.current, &d.diff)
	if err := d.diff.ConvertTo(&d.diff32, gocv.MatTypeCV32F); err != nil {
		return d.average, d.scores, common.ProcessingError("convert difference", err)
	}
	gocv.Multiply(d.diff32, d.diff32, &d.squared)
	if d.squared.Empty() {
		return d.average, d.scores, common.ProcessingError("square difference", nil)
	}

	for i, rect := range d.grid.Regions {
		region := d.squared.Region(rect)
		d.scores[i] = region.Mean().Val1
		region.Close()

		if d.config.BreakOnThreshold && d.config.Threshold != nil && d.scores[i] > *d.config.Threshold {
			break
		}
	}

	d.average = stat.Mean(d.scores, nil)
	d.current.CopyTo(&d.baseline)

	return d.average, d.scores, nil
}

func (d *RegionChangeDetector) establishBaseline() error {
	res := images.FrameResolution(d.current)
	if !d.grid.Matches(res, d.config.Regions) {
		grid, err := NewRegionGrid(res, d.config.Regions)
		if err != nil {
			return err
		}
		d.grid = grid
		if len(d.scores) != grid.Len() {
			d.scores = make([]float64, grid.Len())
		}
	}

	for i := range d.scores {
		d.scores[i] = 0
	}
	d.average = 0
	d.current.CopyTo(&d.baseline)
	d.hasBaseline = true
	return nil
}

// HasBaseline reports whether a baseline frame is held.
func (d *RegionChangeDetector) HasBaseline() bool {
	return d.hasBaseline
}

// Average returns the most recent average score.
func (d *RegionChangeDetector) Average() float64 {
	return d.average
}

// Scores returns a copy of the most recent per-region scores.
func (d *RegionChangeDetector) Scores() []float64 {
	out := make([]float64, len(d.scores))
	copy(out, d.scores)
	return out
}

// Changed reports whether the most recent average exceeds the threshold. With
// no threshold configured any non-zero average counts as change.
func (d *RegionChangeDetector) Changed() bool {
	if d.config.Threshold == nil {
		return d.average > 0
	}
	return d.average > *d.config.Threshold
}

// Grid returns the region grid, or nil before the first frame.
func (d *RegionChangeDetector) Grid() *RegionGrid {
	return d.grid
}

// Config returns the detector configuration.
func (d *RegionChangeDetector) Config() Config {
	return d.config
}

// Reset discards the baseline and scores. The next Update re-establishes the
// baseline.
func (d *RegionChangeDetector) Reset() {
	d.hasBaseline = false
	d.average = 0
	for i := range d.scores {
		d.scores[i] = 0
	}
}

// Close releases all OpenCV native resources used by the detector.
func (d *RegionChangeDetector) Close() {
	d.downsampler.Close()
	d.baseline.Close()
	d.current.Close()
	d.diff.Close()
	d.diff32.Close()
	d.squared.Close()
}
