// Package overlay renders motion masks back onto source frames as a tinted
// overlay, bounding boxes, or both.
package overlay

import (
	"strings"

	"github.com/nvr-ai/go-motion/common"
)

// Mode selects what the compositor draws.
type Mode int

const (
	// ModeNone passes the source through untouched and reports nothing.
	ModeNone Mode = iota
	// ModeBoundingBox draws boxes around motion regions.
	ModeBoundingBox
	// ModeOverlay blends a tinted mask onto the source.
	ModeOverlay
	// ModeBoth draws the overlay and the boxes.
	ModeBoth
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeBoundingBox:
		return "bounding_box"
	case ModeOverlay:
		return "overlay"
	case ModeBoth:
		return "both"
	default:
		return "unknown"
	}
}

// Overlays reports whether the mode blends the tinted mask.
func (m Mode) Overlays() bool {
	switch m {
	case ModeOverlay, ModeBoth:
		return true
	default:
		return false
	}
}

// Boxes reports whether the mode draws bounding boxes.
func (m Mode) Boxes() bool {
	switch m {
	case ModeBoundingBox, ModeBoth:
		return true
	default:
		return false
	}
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeNone, ModeBoundingBox, ModeOverlay, ModeBoth:
		return true
	default:
		return false
	}
}

// ParseMode converts a configuration string to a Mode. Matching is case
// insensitive and accepts "-" or " " in place of "_".
func ParseMode(s string) (Mode, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)

	switch norm {
	case "none", "off":
		return ModeNone, nil
	case "bounding_box", "box", "boxes":
		return ModeBoundingBox, nil
	case "overlay":
		return ModeOverlay, nil
	case "both", "bounding_box_overlay":
		return ModeBoth, nil
	default:
		return ModeNone, common.ConfigError("unknown overlay mode %q", s)
	}
}
