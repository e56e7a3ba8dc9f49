package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nvr-ai/go-motion/common"
	"github.com/nvr-ai/go-motion/images"
	"github.com/nvr-ai/go-motion/overlay"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	dc, err := cfg.Detector()
	require.NoError(t, err)
	assert.Equal(t, 4, dc.Regions)
	assert.Equal(t, images.Res(480, 270), dc.Resolution)
	require.NotNil(t, dc.Threshold)
	assert.Equal(t, 0.2, *dc.Threshold)

	sc, err := cfg.BackgroundSegmenter()
	require.NoError(t, err)
	assert.Equal(t, images.DefaultSegmenterConfig(), sc)

	oc, err := cfg.Compositor()
	require.NoError(t, err)
	assert.Equal(t, overlay.DefaultConfig(), oc)

	src, err := cfg.Source()
	require.NoError(t, err)
	assert.True(t, src.IsZero())
}

func TestParse_OverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
downsample_resolution: 640x360
region_multiplier: 8
mse_threshold: 1.5
overlay_mode: bounding_box
source_resolution: HD 720p
profile_interval: 10s
segmenter:
  adaptive_block_size: 31
overlay:
  suppress_nested: true
`))
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.RegionMultiplier)
	assert.Equal(t, 1.5, cfg.MSEThreshold)
	assert.Equal(t, 10*time.Second, cfg.ProfileInterval)
	assert.Equal(t, 400, cfg.HistoryLength, "unset keys keep defaults")
	assert.Equal(t, 5, cfg.Segmenter.CloseKernel)

	res, err := cfg.Resolution()
	require.NoError(t, err)
	assert.Equal(t, images.Res(640, 360), res)

	src, err := cfg.Source()
	require.NoError(t, err)
	assert.Equal(t, images.Res(1280, 720), src)

	sc, err := cfg.BackgroundSegmenter()
	require.NoError(t, err)
	assert.Equal(t, 31, sc.AdaptiveBlockSize)

	oc, err := cfg.Compositor()
	require.NoError(t, err)
	assert.Equal(t, overlay.ModeBoundingBox, oc.Mode)
	assert.True(t, oc.SuppressNested)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero resolution", "downsample_resolution: 0x270"},
		{"unknown resolution", "downsample_resolution: potato"},
		{"even detector kernel", "detector_blur_kernel: 4"},
		{"zero regions", "region_multiplier: 0"},
		{"negative threshold", "mse_threshold: -0.1"},
		{"even adaptive block", "segmenter:\n  adaptive_block_size: 20"},
		{"bad mode", "overlay_mode: glitter"},
		{"negative trail", "trail_depth: -2"},
		{"bad source", "source_resolution: 12"},
		{"malformed yaml", "region_multiplier: [1, 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrConfiguration), "got %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "motion.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trail_depth: 3\ndetect_shadows: false\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.TrailDepth)
	assert.False(t, cfg.DetectShadows)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConfiguration))
}

func TestMarshal_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.OverlayMode = "overlay"
	data, err := cfg.Marshal()
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, parsed)
}
