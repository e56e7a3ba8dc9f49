package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nvr-ai/go-motion/common"
	"github.com/nvr-ai/go-motion/images"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

func blankMask(width, height int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC1)
}

func blankFrame(width, height int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC3)
}

func newCompositor(t *testing.T, mode Mode) *Compositor {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Mode = mode
	c, err := NewCompositor(cfg)
	require.NoError(t, err)
	return c
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	bad := []func(c *Config){
		func(c *Config) { c.Mode = Mode(9) },
		func(c *Config) { c.MinMotionArea = -1 },
		func(c *Config) { c.BoxThickness = 0 },
		func(c *Config) { c.OverlayBlurKernel = 30 },
	}
	for i, mutate := range bad {
		c := DefaultConfig()
		mutate(&c)
		err := c.Validate()
		require.Error(t, err, "case %d", i)
		assert.True(t, errors.Is(err, common.ErrConfiguration))
	}
}

func TestCompositor_ModeNonePassesThrough(t *testing.T) {
	comp := newCompositor(t, ModeNone)
	defer comp.Close()

	source := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(12, 34, 56, 0), 270, 480, gocv.MatTypeCV8UC3)
	defer source.Close()
	mask := blankMask(480, 270)
	defer mask.Close()
	gocv.Rectangle(&mask, image.Rect(10, 10, 100, 100), white, -1)

	out, err := comp.Update(source, mask)
	require.NoError(t, err)
	assert.Equal(t, images.ComputeMatChecksum(source), images.ComputeMatChecksum(out))
	assert.Empty(t, comp.BoundingBoxes())
	assert.Equal(t, 0.0, comp.TotalArea())
}

func TestCompositor_MinAreaFilter(t *testing.T) {
	comp := newCompositor(t, ModeBoundingBox)
	defer comp.Close()

	source := blankFrame(480, 270)
	defer source.Close()
	mask := blankMask(480, 270)
	defer mask.Close()
	gocv.Rectangle(&mask, image.Rect(20, 20, 60, 60), white, -1)    // 40x40
	gocv.Rectangle(&mask, image.Rect(200, 100, 210, 110), white, -1) // 10x10, below floor
	gocv.Rectangle(&mask, image.Rect(300, 200, 301, 201), white, -1) // single pixel

	_, err := comp.Update(source, mask)
	require.NoError(t, err)

	boxes := comp.BoundingBoxes()
	require.Len(t, boxes, 1)
	for _, b := range boxes {
		assert.GreaterOrEqual(t, b.RawArea, 200.0)
	}
	assert.Equal(t, image.Rect(20, 20, 60, 60), boxes[0].ToRect())
	assert.InDelta(t, 39*39, comp.TotalArea(), 1e-6)
}

func TestCompositor_ScalesBoxesToSource(t *testing.T) {
	comp := newCompositor(t, ModeBoundingBox)
	defer comp.Close()

	source := blankFrame(1280, 720)
	defer source.Close()
	mask := blankMask(480, 270)
	defer mask.Close()
	gocv.Rectangle(&mask, image.Rect(30, 30, 90, 120), white, -1)

	out, err := comp.Update(source, mask)
	require.NoError(t, err)

	want := []common.BoundingBox{{X1: 80, Y1: 80, X2: 240, Y2: 320, RawArea: 59 * 89}}
	if diff := cmp.Diff(want, comp.BoundingBoxes()); diff != "" {
		t.Errorf("bounding boxes mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, images.Res(1280, 720), images.FrameResolution(out))
	edge := out.GetVecbAt(200, 80)
	assert.Equal(t, []uint8{0, 255, 0}, []uint8{edge[0], edge[1], edge[2]})
}

func TestCompositor_TotalAreaIsPerCall(t *testing.T) {
	comp := newCompositor(t, ModeBoth)
	defer comp.Close()

	source := blankFrame(480, 270)
	defer source.Close()
	mask := blankMask(480, 270)
	defer mask.Close()
	gocv.Rectangle(&mask, image.Rect(50, 50, 100, 100), white, -1)

	_, err := comp.Update(source, mask)
	require.NoError(t, err)
	first := comp.TotalArea()
	require.Greater(t, first, 0.0)

	_, err = comp.Update(source, mask)
	require.NoError(t, err)
	assert.Equal(t, first, comp.TotalArea())
	assert.Len(t, comp.BoundingBoxes(), 1)

	empty := blankMask(480, 270)
	defer empty.Close()
	_, err = comp.Update(source, empty)
	require.NoError(t, err)
	assert.Equal(t, 0.0, comp.TotalArea())
	assert.Empty(t, comp.BoundingBoxes())
}

func TestCompositor_OverlayOnlyReportsBoxesWithoutDrawing(t *testing.T) {
	comp := newCompositor(t, ModeOverlay)
	defer comp.Close()

	source := blankFrame(480, 270)
	defer source.Close()
	mask := blankMask(480, 270)
	defer mask.Close()
	gocv.Rectangle(&mask, image.Rect(100, 100, 200, 200), white, -1)
	before := images.ComputeMatChecksum(source)

	out, err := comp.Update(source, mask)
	require.NoError(t, err)
	assert.Len(t, comp.BoundingBoxes(), 1)
	assert.NotEqual(t, images.ComputeMatChecksum(source), images.ComputeMatChecksum(out))

	// The tint is red; no green box edges are drawn.
	centre := out.GetVecbAt(150, 150)
	assert.Equal(t, uint8(0), centre[0])
	assert.Equal(t, uint8(0), centre[1])
	assert.Greater(t, centre[2], uint8(200))

	// The source frame is never touched.
	assert.Equal(t, before, images.ComputeMatChecksum(source))
}

func TestCompositor_SuppressNested(t *testing.T) {
	source := blankFrame(480, 270)
	defer source.Close()
	mask := blankMask(480, 270)
	defer mask.Close()

	// An open "C" whose bounding box contains a separate inner square.
	gocv.Rectangle(&mask, image.Rect(10, 10, 200, 200), white, -1)
	gocv.Rectangle(&mask, image.Rect(40, 40, 200, 170), color.RGBA{}, -1)
	gocv.Rectangle(&mask, image.Rect(100, 80, 140, 120), white, -1)

	for _, tc := range []struct {
		suppress bool
		want     int
	}{
		{false, 2},
		{true, 1},
	} {
		cfg := DefaultConfig()
		cfg.SuppressNested = tc.suppress
		comp, err := NewCompositor(cfg)
		require.NoError(t, err)

		_, err = comp.Update(source, mask)
		require.NoError(t, err)
		boxes := comp.BoundingBoxes()
		assert.Len(t, boxes, tc.want, "suppress=%v", tc.suppress)
		if tc.suppress {
			assert.Equal(t, image.Rect(10, 10, 200, 200), boxes[0].ToRect())
			assert.Equal(t, common.TotalRawArea(boxes), comp.TotalArea())
		}
		comp.Close()
	}
}

func TestCompositor_InvalidInputs(t *testing.T) {
	comp := newCompositor(t, ModeBoth)
	defer comp.Close()

	empty := gocv.NewMat()
	defer empty.Close()
	source := blankFrame(480, 270)
	defer source.Close()
	colorMask := blankFrame(480, 270)
	defer colorMask.Close()

	for name, pair := range map[string][2]gocv.Mat{
		"empty source": {empty, colorMask},
		"empty mask":   {source, empty},
		"color mask":   {source, colorMask},
	} {
		_, err := comp.Update(pair[0], pair[1])
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, common.ErrInput), name)
	}
}

func TestCompositor_SetMode(t *testing.T) {
	comp := newCompositor(t, ModeBoth)
	defer comp.Close()
	assert.Equal(t, ModeBoth, comp.Mode())
	require.NoError(t, comp.SetMode(ModeNone))
	assert.Equal(t, ModeNone, comp.Mode())

	err := comp.SetMode(Mode(7))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConfiguration))
	assert.Equal(t, ModeNone, comp.Mode(), "rejected mode leaves the current one in place")
}
