package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/nvr-ai/go-motion/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// solidFrame returns a BGR frame filled with a single gray level.
func solidFrame(width, height int, level float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(level, level, level, 0), height, width, gocv.MatTypeCV8UC3)
}

// squareFrame returns a black BGR frame with a filled white square.
func squareFrame(width, height int, square image.Rectangle) gocv.Mat {
	frame := solidFrame(width, height, 0)
	gocv.Rectangle(&frame, square, color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)
	return frame
}

func TestValidateFrame(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	floats := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV32F)
	defer floats.Close()
	two := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC2)
	defer two.Close()
	bgr := solidFrame(16, 9, 10)
	defer bgr.Close()
	gray := gocv.NewMatWithSize(9, 16, gocv.MatTypeCV8UC1)
	defer gray.Close()
	bgra := gocv.NewMatWithSize(9, 16, gocv.MatTypeCV8UC4)
	defer bgra.Close()

	tests := []struct {
		name    string
		frame   gocv.Mat
		wantErr bool
	}{
		{"empty", empty, true},
		{"float depth", floats, true},
		{"two channels", two, true},
		{"bgr", bgr, false},
		{"gray", gray, false},
		{"bgra", bgra, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFrame(tt.frame)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, common.ErrInput))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	t.Run("native size", func(t *testing.T) {
		mat, err := FromImage(img, ResolutionPixels{})
		require.NoError(t, err)
		defer mat.Close()
		assert.Equal(t, Res(64, 48), FrameResolution(mat))
		assert.Equal(t, 3, mat.Channels())
	})

	t.Run("normalised", func(t *testing.T) {
		mat, err := FromImage(img, Res(32, 24))
		require.NoError(t, err)
		defer mat.Close()
		assert.Equal(t, Res(32, 24), FrameResolution(mat))
		assert.NoError(t, ValidateFrame(mat))
	})

	t.Run("nil image", func(t *testing.T) {
		mat, err := FromImage(nil, ResolutionPixels{})
		defer mat.Close()
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrInput))
	})

	t.Run("invalid target", func(t *testing.T) {
		mat, err := FromImage(img, Res(-1, 24))
		defer mat.Close()
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrConfiguration))
	})
}

func TestComputeMatChecksum(t *testing.T) {
	frame := solidFrame(32, 32, 40)
	defer frame.Close()
	clone := frame.Clone()
	defer clone.Close()

	assert.Equal(t, ComputeMatChecksum(frame), ComputeMatChecksum(clone))

	clone.SetUCharAt(3, 3, 41)
	assert.NotEqual(t, ComputeMatChecksum(frame), ComputeMatChecksum(clone))

	empty := gocv.NewMat()
	defer empty.Close()
	assert.Equal(t, "empty", ComputeMatChecksum(empty))
}
