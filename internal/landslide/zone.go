// Package landslide drives the failure event: failure-zone geometry, the
// progress-driven phase machine, and per-vertex terrain deformation written
// into caller-supplied buffers.
package landslide

import (
	"github.com/talgya/slopesim/internal/geotech"
	"github.com/talgya/slopesim/internal/hydrology"
	"github.com/talgya/slopesim/internal/terrain"
)

// FailureZone is the geometric region the slide moves through. It is
// computed once at trigger time and immutable for the lifetime of the event.
// ToeZ < HeadZ always holds.
type FailureZone struct {
	StartX float64 // horizontal span, world units
	EndX   float64
	HeadZ  float64 // scarp position, top of slope
	ToeZ   float64 // runout terminus, bottom of slope
	Depth  float64 // failure thickness, world units
	Angle  float64 // degrees
	Width  float64 // EndX − StartX
	Length float64 // HeadZ − ToeZ
}

// Depth clamp as a fraction of the terrain elevation range: the visual
// effect stays proportionate regardless of parameter extremes.
const (
	minDepthFraction = 0.02
	maxDepthFraction = 0.15
)

// ComputeFailureZone derives the slide geometry from the current soil
// parameters, saturation state and terrain. Steeper slopes put the scarp
// higher; steeper plus wetter pushes the runout terminus further downslope
// and thickens the failure surface.
func ComputeFailureZone(p geotech.GeotechnicalParams, hydro hydrology.State, grid *terrain.Grid) FailureZone {
	slope := clamp(p.SlopeAngle, 0, 90) / 90
	sat := hydro.SaturationRatio(p.SoilDepth)

	extentZ := grid.ExtentZ()
	extentX := grid.ExtentX()
	zTop := extentZ / 2
	zBottom := -extentZ / 2

	headZ := zTop * (0.35 + 0.5*slope)

	runout := extentZ * (0.30 + 0.25*slope + 0.20*sat)
	toeZ := headZ - runout
	if toeZ < zBottom+grid.CellSize {
		toeZ = zBottom + grid.CellSize
	}
	if toeZ >= headZ {
		toeZ = headZ - grid.CellSize
	}

	width := extentX * 0.5
	startX := -width / 2
	endX := width / 2

	minH, maxH := grid.ElevationRange()
	relief := maxH - minH

	depth := p.SoilDepth * (0.6 + 0.6*slope) * (1 + 0.8*sat)
	depth = clamp(depth, minDepthFraction*relief, maxDepthFraction*relief)

	return FailureZone{
		StartX: startX,
		EndX:   endX,
		HeadZ:  headZ,
		ToeZ:   toeZ,
		Depth:  depth,
		Angle:  p.SlopeAngle,
		Width:  width,
		Length: headZ - toeZ,
	}
}

// DisplacedVolume is a coarse, monotonically increasing display metric in
// m³. It is not mass-balance accurate.
func DisplacedVolume(zone FailureZone, progress float64) float64 {
	pr := clamp(progress, 0, 1)
	return zone.Width * (zone.Length * 0.5) * (zone.Depth * pr * 0.7)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
