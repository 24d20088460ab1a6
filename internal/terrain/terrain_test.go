package terrain

import (
	"slices"
	"testing"
)

func TestGenerateDeterministic(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 99

	a := Generate(cfg)
	b := Generate(cfg)
	if !slices.Equal(a.Heights, b.Heights) {
		t.Fatal("generation with the same seed must be deterministic")
	}

	cfg.Seed = 100
	c := Generate(cfg)
	if slices.Equal(a.Heights, c.Heights) {
		t.Fatal("different seeds must produce different terrain")
	}
}

func TestGridCoordinates(t *testing.T) {
	g := NewGrid(5, 7, 2.0)

	if g.ExtentX() != 8 || g.ExtentZ() != 12 {
		t.Fatalf("extents = %v × %v, want 8 × 12", g.ExtentX(), g.ExtentZ())
	}

	// Row 0 is the top of the slope (highest Z); rows descend from there.
	if g.WorldZ(0) <= g.WorldZ(6) {
		t.Fatalf("row 0 must be upslope of the last row: %v <= %v", g.WorldZ(0), g.WorldZ(6))
	}
	if g.WorldZ(0) != 6 || g.WorldZ(6) != -6 {
		t.Fatalf("Z range = [%v, %v], want [-6, 6]", g.WorldZ(6), g.WorldZ(0))
	}

	// X is centered on the origin.
	if g.WorldX(0) != -4 || g.WorldX(4) != 4 {
		t.Fatalf("X range = [%v, %v], want [-4, 4]", g.WorldX(0), g.WorldX(4))
	}

	if g.Index(4, 6) != len(g.Heights)-1 {
		t.Fatalf("last vertex index = %d, want %d", g.Index(4, 6), len(g.Heights)-1)
	}
}

func TestGeneratedSlopeRunsDownhill(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 7
	g := Generate(cfg)

	// Average the top and bottom rows: the ramp must dominate the noise.
	var top, bottom float64
	for i := 0; i < g.Width; i++ {
		top += float64(g.Heights[g.Index(i, 0)])
		bottom += float64(g.Heights[g.Index(i, g.Height-1)])
	}
	top /= float64(g.Width)
	bottom /= float64(g.Width)

	if top <= bottom {
		t.Fatalf("top row (%v) must sit above bottom row (%v)", top, bottom)
	}

	minH, maxH := g.ElevationRange()
	if maxH <= minH {
		t.Fatalf("elevation range degenerate: [%v, %v]", minH, maxH)
	}
}
