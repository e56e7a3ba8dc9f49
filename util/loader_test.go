package util

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-motion/common"
	"github.com/nvr-ai/go-motion/images"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func writePNG(t *testing.T, path string, level uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 32, 18))
	for i := range img.Pix {
		img.Pix[i] = level
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func TestLoadDirectoryImageFiles_Order(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "frame-10.png"), 10)
	writePNG(t, filepath.Join(dir, "frame-2.png"), 2)
	writePNG(t, filepath.Join(dir, "frame-1.png"), 1)
	writePNG(t, filepath.Join(dir, "still.png"), 99)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o700))

	files, err := LoadDirectoryImageFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 4)

	var frames []int
	for _, f := range files {
		frames = append(frames, f.Frame)
		assert.NotEmpty(t, f.Data)
	}
	assert.Equal(t, []int{1, 2, 10, 11}, frames)
	assert.Equal(t, "still.png", filepath.Base(files[3].Path))
}

func TestLoadDirectoryImageFiles_Missing(t *testing.T) {
	_, err := LoadDirectoryImageFiles(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInput))
}

func TestDirectorySource(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "frame-1.png"), 40)
	writePNG(t, filepath.Join(dir, "frame-2.png"), 80)

	src, err := NewDirectorySource(dir, images.Res(64, 36))
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, 2, src.Len())

	frame := gocv.NewMat()
	defer frame.Close()

	for _, want := range []float64{40, 80} {
		require.NoError(t, src.Read(&frame))
		assert.Equal(t, images.Res(64, 36), images.FrameResolution(frame))
		assert.Equal(t, 3, frame.Channels())
		assert.InDelta(t, want, frame.Mean().Val1, 1)
	}
	assert.ErrorIs(t, src.Read(&frame), ErrEndOfStream)
}

func TestNewDirectorySource_Empty(t *testing.T) {
	_, err := NewDirectorySource(t.TempDir(), images.ResolutionPixels{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInput))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "frame-1.png"), 40)

	src, err := Open(dir, images.ResolutionPixels{})
	require.NoError(t, err)
	defer src.Close()
	assert.IsType(t, &DirectorySource{}, src)

	_, err = Open(filepath.Join(dir, "missing.mp4"), images.ResolutionPixels{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInput))
}

func TestImageSource(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: 9, G: 9, B: 9, A: 255})
		}
	}

	src := NewImageSource([]image.Image{img, img}, images.ResolutionPixels{})
	defer src.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	require.NoError(t, src.Read(&frame))
	assert.Equal(t, images.Res(40, 30), images.FrameResolution(frame))
	require.NoError(t, src.Read(&frame))
	assert.ErrorIs(t, src.Read(&frame), ErrEndOfStream)
}

func TestMatSource(t *testing.T) {
	a := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 1, 1, 0), 4, 4, gocv.MatTypeCV8UC3)
	defer a.Close()

	src := NewMatSource(a)
	frame := gocv.NewMat()
	defer frame.Close()

	require.NoError(t, src.Read(&frame))
	assert.Equal(t, images.ComputeMatChecksum(a), images.ComputeMatChecksum(frame))
	assert.ErrorIs(t, src.Read(&frame), ErrEndOfStream)
}
