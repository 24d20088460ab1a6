// Package terrain provides the height-field grid the landslide engine
// deforms, plus a procedural hillslope generator.
//
// Grid coordinates: X runs across the slope, Z runs downslope. Row 0 is the
// top of the slope (highest Z, where the scarp forms); the last row is the
// bottom (lowest Z, where debris comes to rest). The grid is centered on the
// world origin.
package terrain

// Grid is a row-major height field of Width × Height vertices spaced
// CellSize world units apart.
type Grid struct {
	Width    int
	Height   int
	CellSize float64
	Heights  []float32
}

// NewGrid allocates a flat grid.
func NewGrid(width, height int, cellSize float64) *Grid {
	return &Grid{
		Width:    width,
		Height:   height,
		CellSize: cellSize,
		Heights:  make([]float32, width*height),
	}
}

// Index returns the flat buffer index for column i, row j.
func (g *Grid) Index(i, j int) int {
	return j*g.Width + i
}

// WorldX maps column i to a world X coordinate, centered on zero.
func (g *Grid) WorldX(i int) float64 {
	return (float64(i) - float64(g.Width-1)/2) * g.CellSize
}

// WorldZ maps row j to a world Z coordinate. Row 0 is the highest Z.
func (g *Grid) WorldZ(j int) float64 {
	return (float64(g.Height-1)/2 - float64(j)) * g.CellSize
}

// ExtentX returns the world-space span across the slope.
func (g *Grid) ExtentX() float64 {
	return float64(g.Width-1) * g.CellSize
}

// ExtentZ returns the world-space span downslope.
func (g *Grid) ExtentZ() float64 {
	return float64(g.Height-1) * g.CellSize
}

// ElevationRange returns the minimum and maximum vertex heights.
func (g *Grid) ElevationRange() (minH, maxH float64) {
	if len(g.Heights) == 0 {
		return 0, 0
	}
	minH, maxH = float64(g.Heights[0]), float64(g.Heights[0])
	for _, h := range g.Heights[1:] {
		v := float64(h)
		if v < minH {
			minH = v
		}
		if v > maxH {
			maxH = v
		}
	}
	return minH, maxH
}
