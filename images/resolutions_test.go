package images

import (
	"image"
	"testing"

	"github.com/nvr-ai/go-motion/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolution_GetMegaPixels performs table-driven tests on the GetMegaPixels method
// to ensure its calculations are accurate across catalogue entries and invalid sizes.
func TestResolution_GetMegaPixels(t *testing.T) {
	testCases := []struct {
		name     string
		res      Resolution
		expected float64
	}{
		{name: "Full HD 1080p", res: resolutions[ResolutionTypeFHD1080p], expected: 2.07},
		{name: "4K UHD", res: resolutions[ResolutionType4KUHD], expected: 8.29},
		{name: "1MP (5:4)", res: resolutions[ResolutionType1MP54], expected: 1.31},
		{name: "Motion 270p", res: resolutions[ResolutionTypeMotion270], expected: 0.13},
		{name: "Zero Width", res: Resolution{Pixels: ResolutionPixels{Width: 0, Height: 1080}}, expected: 0.0},
		{name: "Negative Width", res: Resolution{Pixels: ResolutionPixels{Width: -1920, Height: 1080}}, expected: 0.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, tc.res.GetMegaPixels(), 1e-9)
		})
	}
}

// TestResolution_String verifies the human-readable string output for a resolution.
func TestResolution_String(t *testing.T) {
	res := resolutions[ResolutionTypeFHD1080p]
	assert.Equal(t, "Full HD 1080p (1920x1080, 2.07MP)", res.String())
	assert.Equal(t, "480x270", DefaultProcessingResolution.String())
}

func TestParseResolution(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    ResolutionPixels
		wantErr bool
	}{
		{name: "explicit size", input: "480x270", want: Res(480, 270)},
		{name: "upper case separator", input: "1280X720", want: Res(1280, 720)},
		{name: "padded", input: " 640 x 360 ", want: Res(640, 360)},
		{name: "catalogue name", input: "HD 720p", want: Res(1280, 720)},
		{name: "motion preset", input: "270p", want: Res(480, 270)},
		{name: "unknown name", input: "potato", wantErr: true},
		{name: "zero width", input: "0x270", wantErr: true},
		{name: "negative height", input: "480x-1", wantErr: true},
		{name: "garbage width", input: "abcx270", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseResolution(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, common.ErrConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolutionPixels_Helpers(t *testing.T) {
	r := Res(480, 270)
	assert.Equal(t, image.Pt(480, 270), r.Point())
	assert.Equal(t, 129600, r.Area())
	assert.False(t, r.IsZero())
	assert.True(t, ResolutionPixels{}.IsZero())
	assert.NoError(t, r.Validate())
	assert.Error(t, Res(0, 10).Validate())
}

func TestGetResolutionByType(t *testing.T) {
	res, ok := GetResolutionByType(ResolutionTypeHD720p)
	require.True(t, ok)
	assert.Equal(t, Res(1280, 720), res.Pixels)

	_, ok = GetResolutionByType("InvalidType")
	assert.False(t, ok)

	names := ResolutionNames()
	assert.Len(t, names, len(resolutions))
	assert.Contains(t, names, string(ResolutionTypeMotion270))
}
