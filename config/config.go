// Package config loads the pipeline configuration from YAML.
//
// Every key is optional: Load starts from Default() and overlays whatever the
// file sets, then validates the result.
package config

import (
	"os"
	"time"

	"github.com/nvr-ai/go-motion/common"
	"github.com/nvr-ai/go-motion/detector"
	"github.com/nvr-ai/go-motion/images"
	"github.com/nvr-ai/go-motion/overlay"
	"gopkg.in/yaml.v3"
)

// Config represents the complete pipeline configuration.
type Config struct {
	DownsampleResolution string  `yaml:"downsample_resolution"` // "WxH" or a catalogue name
	RegionMultiplier     int     `yaml:"region_multiplier"`     // N for the N×N gate grid
	MSEThreshold         float64 `yaml:"mse_threshold"`         // Average score above this is "changed"
	BreakOnThreshold     bool    `yaml:"break_on_threshold"`
	DetectorBlurKernel   int     `yaml:"detector_blur_kernel"`

	HistoryLength     int     `yaml:"history_length"`
	VarianceThreshold float64 `yaml:"variance_threshold"` // 15-50 works well for most scenes
	DetectShadows     bool    `yaml:"detect_shadows"`
	TrailDepth        int     `yaml:"trail_depth"`

	MinMotionArea float64 `yaml:"min_motion_area"`
	OverlayMode   string  `yaml:"overlay_mode"` // none, bounding_box, overlay, both

	SourceResolution string        `yaml:"source_resolution"` // Optional; frames are normalised to this size
	ReportArea       float64       `yaml:"report_area"`       // Total area above which changed ticks are logged
	ProfileInterval  time.Duration `yaml:"profile_interval"`  // 0 disables periodic profiler reports

	Segmenter SegmenterConfig `yaml:"segmenter"`
	Overlay   OverlayConfig   `yaml:"overlay"`
}

// SegmenterConfig contains the segmentation tuning knobs.
type SegmenterConfig struct {
	AdaptiveBlockSize int     `yaml:"adaptive_block_size"`
	AdaptiveC         float32 `yaml:"adaptive_c"`
	BlurKernel        int     `yaml:"blur_kernel"`
	ErodeKernel       int     `yaml:"erode_kernel"`
	DilateKernel      int     `yaml:"dilate_kernel"`
	CloseKernel       int     `yaml:"close_kernel"`
	TrailErodeKernel  int     `yaml:"trail_erode_kernel"`
	FillColor         uint8   `yaml:"fill_color"`
}

// OverlayConfig contains the rendering knobs.
type OverlayConfig struct {
	BoxThickness   int     `yaml:"box_thickness"`
	BlurKernel     int     `yaml:"blur_kernel"`
	SourceWeight   float64 `yaml:"source_weight"`
	OverlayWeight  float64 `yaml:"overlay_weight"`
	Gamma          float64 `yaml:"gamma"`
	SuppressNested bool    `yaml:"suppress_nested"`
}

// Default returns the stock configuration.
func Default() Config {
	seg := images.DefaultSegmenterConfig()
	ov := overlay.DefaultConfig()

	return Config{
		DownsampleResolution: images.DefaultProcessingResolution.String(),
		RegionMultiplier:     4,
		MSEThreshold:         0.2,
		DetectorBlurKernel:   5,
		HistoryLength:        seg.History,
		VarianceThreshold:    seg.VarThreshold,
		DetectShadows:        seg.DetectShadows,
		TrailDepth:           seg.TrailDepth,
		MinMotionArea:        ov.MinMotionArea,
		OverlayMode:          ov.Mode.String(),
		ReportArea:           600,
		Segmenter: SegmenterConfig{
			AdaptiveBlockSize: seg.AdaptiveBlockSize,
			AdaptiveC:         seg.AdaptiveC,
			BlurKernel:        seg.BlurKernel,
			ErodeKernel:       seg.ErodeKernel,
			DilateKernel:      seg.DilateKernel,
			CloseKernel:       seg.CloseKernel,
			TrailErodeKernel:  seg.TrailErodeKernel,
			FillColor:         seg.FillColor,
		},
		Overlay: OverlayConfig{
			BoxThickness:  ov.BoxThickness,
			BlurKernel:    ov.OverlayBlurKernel,
			SourceWeight:  ov.SourceWeight,
			OverlayWeight: ov.OverlayWeight,
			Gamma:         ov.Gamma,
		},
	}
}

// Load reads, parses and validates a YAML configuration file.
//
// Arguments:
//   - path: Path to the YAML file.
//
// Returns:
//   - Config: The configuration with defaults for every unset key.
//   - error: A configuration error if the file cannot be read, parsed or validated.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, common.ConfigError("read config %s: %v", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, common.ConfigError("parse config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks every stage configuration derived from c.
func (c Config) Validate() error {
	if _, err := c.Detector(); err != nil {
		return err
	}
	if _, err := c.BackgroundSegmenter(); err != nil {
		return err
	}
	if _, err := c.Compositor(); err != nil {
		return err
	}
	if _, err := c.Source(); err != nil {
		return err
	}
	if c.ReportArea < 0 {
		return common.ConfigError("report area %.1f must not be negative", c.ReportArea)
	}
	if c.ProfileInterval < 0 {
		return common.ConfigError("profile interval %s must not be negative", c.ProfileInterval)
	}
	return nil
}

// Resolution parses the processing resolution.
func (c Config) Resolution() (images.ResolutionPixels, error) {
	return images.ParseResolution(c.DownsampleResolution)
}

// Source parses the optional source resolution. The zero value means frames
// keep their native size.
func (c Config) Source() (images.ResolutionPixels, error) {
	if c.SourceResolution == "" {
		return images.ResolutionPixels{}, nil
	}
	return images.ParseResolution(c.SourceResolution)
}

// Detector builds the change gate configuration.
func (c Config) Detector() (detector.Config, error) {
	res, err := c.Resolution()
	if err != nil {
		return detector.Config{}, err
	}
	dc := detector.Config{
		Regions:          c.RegionMultiplier,
		Resolution:       res,
		BlurKernel:       c.DetectorBlurKernel,
		BreakOnThreshold: c.BreakOnThreshold,
	}.WithThreshold(c.MSEThreshold)
	return dc, dc.Validate()
}

// BackgroundSegmenter builds the segmenter configuration.
func (c Config) BackgroundSegmenter() (images.SegmenterConfig, error) {
	res, err := c.Resolution()
	if err != nil {
		return images.SegmenterConfig{}, err
	}
	sc := images.SegmenterConfig{
		Resolution:        res,
		History:           c.HistoryLength,
		VarThreshold:      c.VarianceThreshold,
		DetectShadows:     c.DetectShadows,
		AdaptiveBlockSize: c.Segmenter.AdaptiveBlockSize,
		AdaptiveC:         c.Segmenter.AdaptiveC,
		BlurKernel:        c.Segmenter.BlurKernel,
		ErodeKernel:       c.Segmenter.ErodeKernel,
		DilateKernel:      c.Segmenter.DilateKernel,
		CloseKernel:       c.Segmenter.CloseKernel,
		TrailErodeKernel:  c.Segmenter.TrailErodeKernel,
		TrailDepth:        c.TrailDepth,
		FillColor:         c.Segmenter.FillColor,
	}
	return sc, sc.Validate()
}

// Compositor builds the overlay configuration.
func (c Config) Compositor() (overlay.Config, error) {
	mode, err := overlay.ParseMode(c.OverlayMode)
	if err != nil {
		return overlay.Config{}, err
	}
	oc := overlay.DefaultConfig()
	oc.Mode = mode
	oc.MinMotionArea = c.MinMotionArea
	oc.BoxThickness = c.Overlay.BoxThickness
	oc.OverlayBlurKernel = c.Overlay.BlurKernel
	oc.SourceWeight = c.Overlay.SourceWeight
	oc.OverlayWeight = c.Overlay.OverlayWeight
	oc.Gamma = c.Overlay.Gamma
	oc.SuppressNested = c.Overlay.SuppressNested
	return oc, oc.Validate()
}
