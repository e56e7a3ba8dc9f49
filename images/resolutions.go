// Package images provides type definitions and constants for common security
// surveillance camera resolutions, together with the processing resolution used
// by the motion pipeline. Resolutions can be referenced by catalogue name
// ("HD 720p") or by explicit dimensions ("480x270").
package images

import (
	"fmt"
	"image"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/nvr-ai/go-motion/common"
)

// AspectRatio represents a CCTV aspect ratio by name (e.g., "16:9").
type AspectRatio string

// Defines standard and common aspect ratios for surveillance cameras.
const (
	AspectRatio169 AspectRatio = "16:9"
	AspectRatio43  AspectRatio = "4:3"
	AspectRatio54  AspectRatio = "5:4"
	AspectRatio32  AspectRatio = "3:2"
	AspectRatio179 AspectRatio = "17:9" // Common in some high-end sensors
)

// ResolutionType represents a common name or standard for a CCTV resolution.
type ResolutionType string

// Defines the unique type for each supported resolution.
const (
	ResolutionTypeMotion270 ResolutionType = "270p"
	ResolutionTypeNHD       ResolutionType = "nHD"
	ResolutionTypeFWVGA     ResolutionType = "FWVGA"
	ResolutionTypeQHD540    ResolutionType = "qHD 540p"
	ResolutionTypeHD720p    ResolutionType = "HD 720p"
	ResolutionTypeWXGA      ResolutionType = "WXGA"
	ResolutionTypeHDPlus    ResolutionType = "HD+"
	ResolutionType1MP54     ResolutionType = "1MP (5:4)"
	ResolutionTypeFHD1080p  ResolutionType = "Full HD 1080p"
	ResolutionType2MP43     ResolutionType = "2MP (4:3)"
	ResolutionTypeQHD1440p  ResolutionType = "QHD 1440p"
	ResolutionType3MP43     ResolutionType = "3MP (4:3)"
	ResolutionType4MP169    ResolutionType = "4MP (16:9)"
	ResolutionType6MP32     ResolutionType = "6MP (3:2)"
	ResolutionType4KUHD     ResolutionType = "4K UHD"
	ResolutionType8KUHD     ResolutionType = "8K UHD"
)

// ResolutionPixels describes the exact dimensions of a resolution.
type ResolutionPixels struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// DefaultProcessingResolution is the resolution shared by the change detector
// and the background segmenter unless configured otherwise.
var DefaultProcessingResolution = ResolutionPixels{Width: 480, Height: 270}

// Res is shorthand for ResolutionPixels{Width: w, Height: h}.
func Res(w, h int) ResolutionPixels {
	return ResolutionPixels{Width: w, Height: h}
}

// Validate returns a configuration error when either dimension is not positive.
func (p ResolutionPixels) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return common.ConfigError("resolution %dx%d must be positive", p.Width, p.Height)
	}
	return nil
}

// Point returns the resolution as an image.Point (X=width, Y=height), the
// form gocv expects for target sizes.
func (p ResolutionPixels) Point() image.Point {
	return image.Pt(p.Width, p.Height)
}

// Area returns the pixel count.
func (p ResolutionPixels) Area() int {
	return p.Width * p.Height
}

// IsZero reports whether the resolution is unset.
func (p ResolutionPixels) IsZero() bool {
	return p.Width == 0 && p.Height == 0
}

// String renders the resolution as "WxH".
func (p ResolutionPixels) String() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// Resolution describes the complete set of attributes for a CCTV resolution standard.
type Resolution struct {
	Name        ResolutionType   `json:"name"`
	AspectRatio AspectRatio      `json:"aspectRatio"`
	Pixels      ResolutionPixels `json:"pixels"`
}

// GetMegaPixels calculates the megapixel value based on the resolution's pixel dimensions.
// It returns the value rounded to two decimal places (e.g., 2.07 for 1080p).
func (r Resolution) GetMegaPixels() float64 {
	if r.Pixels.Width <= 0 || r.Pixels.Height <= 0 {
		return 0.0
	}
	mp := float64(r.Pixels.Width*r.Pixels.Height) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Name, r.Pixels.Width, r.Pixels.Height, r.GetMegaPixels())
}

// resolutions is a private map that stores all defined resolution standards,
// keyed by their ResolutionType for efficient lookups.
var resolutions = map[ResolutionType]Resolution{
	ResolutionTypeMotion270: {Name: ResolutionTypeMotion270, AspectRatio: AspectRatio169, Pixels: ResolutionPixels{Width: 480, Height: 270}},
	ResolutionTypeNHD:       {Name: ResolutionTypeNHD, AspectRatio: AspectRatio169, Pixels: ResolutionPixels{Width: 640, Height: 360}},
	ResolutionTypeFWVGA:     {Name: ResolutionTypeFWVGA, AspectRatio: AspectRatio169, Pixels: ResolutionPixels{Width: 854, Height: 480}},
	ResolutionTypeQHD540:    {Name: ResolutionTypeQHD540, AspectRatio: AspectRatio169, Pixels: ResolutionPixels{Width: 960, Height: 540}},
	ResolutionTypeHD720p:    {Name: ResolutionTypeHD720p, AspectRatio: AspectRatio169, Pixels: ResolutionPixels{Width: 1280, Height: 720}},
	ResolutionTypeWXGA:      {Name: ResolutionTypeWXGA, AspectRatio: AspectRatio169, Pixels: ResolutionPixels{Width: 1366, Height: 768}},
	ResolutionTypeHDPlus:    {Name: ResolutionTypeHDPlus, AspectRatio: AspectRatio169, Pixels: ResolutionPixels{Width: 1600, Height: 900}},
	ResolutionType1MP54:     {Name: ResolutionType1MP54, AspectRatio: AspectRatio54, Pixels: ResolutionPixels{Width: 1280, Height: 1024}},
	ResolutionTypeFHD1080p:  {Name: ResolutionTypeFHD1080p, AspectRatio: AspectRatio169, Pixels: ResolutionPixels{Width: 1920, Height: 1080}},
	ResolutionType2MP43:     {Name: ResolutionType2MP43, AspectRatio: AspectRatio43, Pixels: ResolutionPixels{Width: 1600, Height: 1200}},
	ResolutionTypeQHD1440p:  {Name: ResolutionTypeQHD1440p, AspectRatio: AspectRatio169, Pixels: ResolutionPixels{Width: 2560, Height: 1440}},
	ResolutionType3MP43:     {Name: ResolutionType3MP43, AspectRatio: AspectRatio43, Pixels: ResolutionPixels{Width: 2048, Height: 1536}},
	ResolutionType4MP169:    {Name: ResolutionType4MP169, AspectRatio: AspectRatio169, Pixels: ResolutionPixels{Width: 2688, Height: 1520}},
	ResolutionType6MP32:     {Name: ResolutionType6MP32, AspectRatio: AspectRatio32, Pixels: ResolutionPixels{Width: 3072, Height: 2048}},
	ResolutionType4KUHD:     {Name: ResolutionType4KUHD, AspectRatio: AspectRatio169, Pixels: ResolutionPixels{Width: 3840, Height: 2160}},
	ResolutionType8KUHD:     {Name: ResolutionType8KUHD, AspectRatio: AspectRatio169, Pixels: ResolutionPixels{Width: 7680, Height: 4320}},
}

// GetResolutionByType retrieves a specific resolution by its type.
// It returns the Resolution and true if found, otherwise an empty Resolution and false.
func GetResolutionByType(t ResolutionType) (Resolution, bool) {
	res, ok := resolutions[t]
	return res, ok
}

// ResolutionNames returns the catalogue names in lexical order.
func ResolutionNames() []string {
	names := make([]string, 0, len(resolutions))
	for name := range resolutions {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

// ParseResolution resolves either a catalogue name ("HD 720p") or an explicit
// "WIDTHxHEIGHT" string into pixel dimensions.
//
// Arguments:
//   - s: The resolution string.
//
// Returns:
//   - ResolutionPixels: The parsed dimensions.
//   - error: A configuration error when s is neither a known name nor a valid size.
//
// @example
// res, err := ParseResolution("480x270")
// res, err := ParseResolution("Full HD 1080p")
func ParseResolution(s string) (ResolutionPixels, error) {
	s = strings.TrimSpace(s)
	if res, ok := GetResolutionByType(ResolutionType(s)); ok {
		return res.Pixels, nil
	}

	w, h, found := strings.Cut(strings.ToLower(s), "x")
	if !found {
		return ResolutionPixels{}, common.ConfigError("unknown resolution %q (known: %s)", s, strings.Join(ResolutionNames(), ", "))
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return ResolutionPixels{}, common.ConfigError("resolution %q: bad width: %v", s, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return ResolutionPixels{}, common.ConfigError("resolution %q: bad height: %v", s, err)
	}

	res := ResolutionPixels{Width: width, Height: height}
	if err := res.Validate(); err != nil {
		return ResolutionPixels{}, err
	}
	return res, nil
}
