// Hillslope generation using layered simplex noise over a planar ramp.
package terrain

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds hillslope generation parameters.
type GenConfig struct {
	Width      int     // vertices across the slope
	Height     int     // vertices downslope
	CellSize   float64 // world units between vertices
	Seed       int64   // random seed (0 = random)
	SlopeAngle float64 // degrees, mean gradient of the ramp
	Relief     float64 // amplitude of noise detail, world units
}

// DefaultGenConfig returns a mid-sized hillslope suitable for the default
// scenario.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:      96,
		Height:     96,
		CellSize:   1.0,
		Seed:       0,
		SlopeAngle: 30,
		Relief:     1.5,
	}
}

// Generate builds a hillslope: a planar ramp at the configured slope angle
// with multi-octave simplex detail layered on top. Deterministic for a
// non-zero seed.
func Generate(cfg GenConfig) *Grid {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	noise := opensimplex.NewNormalized(seed)
	g := NewGrid(cfg.Width, cfg.Height, cfg.CellSize)

	slopeRad := cfg.SlopeAngle * math.Pi / 180
	gradient := math.Tan(slopeRad)
	zMin := -g.ExtentZ() / 2

	for j := 0; j < cfg.Height; j++ {
		z := g.WorldZ(j)
		base := gradient * (z - zMin)
		for i := 0; i < cfg.Width; i++ {
			x := g.WorldX(i)

			detail := octaveNoise(noise, x, z, 4, 0.05, 0.5)
			// Noise is normalized to [0,1]; recenter so the ramp gradient
			// stays the mean gradient.
			h := base + cfg.Relief*(detail-0.5)*2

			g.Heights[g.Index(i, j)] = float32(h)
		}
	}

	return g
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
