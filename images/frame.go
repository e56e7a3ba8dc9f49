package images

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/nvr-ai/go-motion/common"
	"gocv.io/x/gocv"
)

// FrameResolution returns the dimensions of a Mat.
func FrameResolution(m gocv.Mat) ResolutionPixels {
	return ResolutionPixels{Width: m.Cols(), Height: m.Rows()}
}

// ValidateFrame checks that a frame is a non-empty 8-bit buffer with 1, 3 or 4
// channels. Anything else is an input error; stages never substitute a
// placeholder for a bad frame.
func ValidateFrame(m gocv.Mat) error {
	if m.Empty() {
		return common.InputError("frame is empty")
	}
	if m.Cols() <= 0 || m.Rows() <= 0 {
		return common.InputError("frame has invalid size %dx%d", m.Cols(), m.Rows())
	}
	switch m.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
		return nil
	default:
		return common.InputError("unsupported frame type %v (want 8-bit, 1/3/4 channels)", m.Type())
	}
}

// FromImage converts a Go image into a BGR frame, scaling it to res first when
// res is set and differs from the image bounds.
//
// Arguments:
//   - img: The decoded image.
//   - res: Target source resolution, or the zero value to keep the image size.
//
// Returns:
//   - gocv.Mat: A CV_8UC3 frame owned by the caller.
//   - error: An input error for a nil or empty image.
//
// @example
// frame, err := FromImage(img, Res(1280, 720))
// defer frame.Close()
func FromImage(img image.Image, res ResolutionPixels) (gocv.Mat, error) {
	if img == nil {
		return gocv.NewMat(), common.InputError("image is nil")
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return gocv.NewMat(), common.InputError("image bounds %v are empty", bounds)
	}

	if !res.IsZero() {
		if err := res.Validate(); err != nil {
			return gocv.NewMat(), err
		}
		if bounds.Dx() != res.Width || bounds.Dy() != res.Height {
			img = resize.Resize(uint(res.Width), uint(res.Height), img, resize.Bilinear)
		}
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.NewMat(), common.ProcessingError("image to mat", err)
	}
	return mat, nil
}
