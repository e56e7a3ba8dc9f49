package images

import (
	"image"

	"github.com/nvr-ai/go-motion/common"
	"gocv.io/x/gocv"
)

// BlurMode selects the smoothing filter applied after grayscale conversion.
type BlurMode int

const (
	// BlurGaussian applies a Gaussian kernel (sigma derived from the kernel size).
	BlurGaussian BlurMode = iota
	// BlurBox applies a normalized box filter.
	BlurBox
)

// String returns the filter name.
func (m BlurMode) String() string {
	switch m {
	case BlurGaussian:
		return "gaussian"
	case BlurBox:
		return "box"
	default:
		return "unknown"
	}
}

// Downsampler reduces a source frame to a blurred single-channel frame at a
// fixed processing resolution: resize → grayscale → blur.
//
// Intermediate buffers are reused across calls, so a Downsampler belongs to a
// single stage and must not be shared. Always call Close() when done.
type Downsampler struct {
	Resolution ResolutionPixels
	Kernel     int
	Mode       BlurMode

	resized gocv.Mat
	gray    gocv.Mat
}

// ValidateKernel returns a configuration error unless k is a positive odd size.
func ValidateKernel(name string, k int) error {
	if k <= 0 {
		return common.ConfigError("%s kernel size %d must be positive", name, k)
	}
	if k%2 == 0 {
		return common.ConfigError("%s kernel size %d must be odd", name, k)
	}
	return nil
}

// NewDownsampler validates the parameters and allocates the working buffers.
//
// Arguments:
//   - res: The processing resolution.
//   - kernel: Blur kernel size, positive and odd. A size of 1 disables blurring.
//   - mode: Gaussian or box blur.
//
// Returns:
//   - *Downsampler: The ready downsampler.
//   - error: A configuration error for invalid parameters.
//
// @example
// ds, err := NewDownsampler(DefaultProcessingResolution, 5, BlurGaussian)
// defer ds.Close()
func NewDownsampler(res ResolutionPixels, kernel int, mode BlurMode) (*Downsampler, error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}
	if mode == BlurGaussian {
		if err := ValidateKernel("blur", kernel); err != nil {
			return nil, err
		}
	} else if kernel <= 0 {
		return nil, common.ConfigError("blur kernel size %d must be positive", kernel)
	}

	return &Downsampler{
		Resolution: res,
		Kernel:     kernel,
		Mode:       mode,
		resized:    gocv.NewMat(),
		gray:       gocv.NewMat(),
	}, nil
}

// Apply downsamples src into dst. dst is (re)allocated by gocv as needed and
// ends up CV_8UC1 at d.Resolution.
func (d *Downsampler) Apply(src gocv.Mat, dst *gocv.Mat) error {
	if err := ValidateFrame(src); err != nil {
		return err
	}

	if err := gocv.Resize(src, &d.resized, d.Resolution.Point(), 0, 0, gocv.InterpolationLinear); err != nil {
		return common.ProcessingError("resize", err)
	}

	switch d.resized.Channels() {
	case 1:
		d.resized.CopyTo(&d.gray)
	case 3:
		if err := gocv.CvtColor(d.resized, &d.gray, gocv.ColorBGRToGray); err != nil {
			return common.ProcessingError("grayscale", err)
		}
	case 4:
		if err := gocv.CvtColor(d.resized, &d.gray, gocv.ColorBGRAToGray); err != nil {
			return common.ProcessingError("grayscale", err)
		}
	}

	if d.Kernel <= 1 {
		d.gray.CopyTo(dst)
	} else {
		ksize := image.Pt(d.Kernel, d.Kernel)
		switch d.Mode {
		case BlurBox:
			if err := gocv.Blur(d.gray, dst, ksize); err != nil {
				return common.ProcessingError("box blur", err)
			}
		default:
			if err := gocv.GaussianBlur(d.gray, dst, ksize, 0, 0, gocv.BorderDefault); err != nil {
				return common.ProcessingError("gaussian blur", err)
			}
		}
	}

	if dst.Empty() || dst.Cols() != d.Resolution.Width || dst.Rows() != d.Resolution.Height {
		return common.ProcessingError("downsample", nil)
	}
	return nil
}

// Close releases the working buffers.
func (d *Downsampler) Close() {
	d.resized.Close()
	d.gray.Close()
}
