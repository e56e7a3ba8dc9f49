package detector

import (
	"image"

	"github.com/nvr-ai/go-motion/common"
	"github.com/nvr-ai/go-motion/images"
)

// RegionGrid partitions a frame into N×N non-overlapping rectangles in
// row-major order. The last row and column absorb any remainder, so the grid
// always covers the frame exactly.
type RegionGrid struct {
	Resolution images.ResolutionPixels
	N          int
	Regions    []image.Rectangle
}

// NewRegionGrid builds the grid for a resolution.
//
// Arguments:
//   - res: The frame size to partition.
//   - n: Regions per axis.
//
// Returns:
//   - *RegionGrid: The grid with n*n regions.
//   - error: A configuration error if n < 1 or a cell would be empty.
//
// @example
// grid, _ := NewRegionGrid(images.Res(480, 270), 4) // 16 cells of 120x67, last row 120x69
func NewRegionGrid(res images.ResolutionPixels, n int) (*RegionGrid, error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, common.ConfigError("region multiplier %d must be at least 1", n)
	}
	if res.Width < n || res.Height < n {
		return nil, common.ConfigError("resolution %s is too small for a %dx%d grid", res, n, n)
	}

	cellW := res.Width / n
	cellH := res.Height / n

	regions := make([]image.Rectangle, 0, n*n)
	for row := 0; row < n; row++ {
		y1 := row * cellH
		y2 := y1 + cellH
		if row == n-1 {
			y2 = res.Height
		}
		for col := 0; col < n; col++ {
			x1 := col * cellW
			x2 := x1 + cellW
			if col == n-1 {
				x2 = res.Width
			}
			regions = append(regions, image.Rect(x1, y1, x2, y2))
		}
	}

	return &RegionGrid{Resolution: res, N: n, Regions: regions}, nil
}

// Len returns the number of regions.
func (g *RegionGrid) Len() int {
	return len(g.Regions)
}

// Matches reports whether the grid was built for res and n.
func (g *RegionGrid) Matches(res images.ResolutionPixels, n int) bool {
	return g != nil && g.Resolution == res && g.N == n
}
