// Per-vertex terrain deformation. Both output buffers are recomputed from
// scratch on every call, so the result is a pure function of
// (zone, progress) and the caller owns double-buffering if it wants change
// detection.
package landslide

import (
	"math"

	"github.com/talgya/slopesim/internal/terrain"
)

// Bands along the normalized downslope coordinate t, where t = 0 at the
// scarp head and t = 1 at the nominal toe.
const (
	headBandEnd = 0.12 // near-vertical back wall
	slumpEnd    = 0.60 // stepped terraces of the slump body
	frontLead   = 1.15 // deposition may overshoot the nominal toe
	frontFade   = 0.08 // soft edge at the advancing front
)

// Fixed fracture lines inside the slump body. Each line past t adds a step,
// producing the stepped-terrace look of internal block rotation.
var fractureLines = [4]float64{0.18, 0.28, 0.40, 0.52}

// Toe deposition bulge: gaussian spread and the migration of its peak
// downslope as progress increases.
const (
	toeBulgeHeight = 0.8  // fraction of zone depth
	toeBulgeSpread = 0.18 // in t units
	toePeakBase    = 0.80
	toePeakShift   = 0.12
)

// ComputeTerrainDeformation writes the scarp (terrain lowered) and
// deposition (terrain raised) depth for every grid vertex. A deformation
// front sweeps from the head toward the toe as progress grows; only vertices
// at or behind the front are touched. Buffers must be grid.Width ×
// grid.Height; mismatched buffers are left untouched.
func ComputeTerrainDeformation(zone FailureZone, progress float64, grid *terrain.Grid, scarp, deposition []float32) {
	w, h := grid.Width, grid.Height
	if len(scarp) != w*h || len(deposition) != w*h || zone.Length <= 0 || zone.Width <= 0 {
		return
	}

	pr := clamp(progress, 0, 1)
	sweep := frontLead * pr
	erodeScale := math.Sqrt(pr)

	for j := 0; j < h; j++ {
		z := grid.WorldZ(j)
		t := (zone.HeadZ - z) / zone.Length
		rowIdx := j * w

		for i := 0; i < w; i++ {
			idx := rowIdx + i
			scarp[idx] = 0
			deposition[idx] = 0

			if t < 0 || t > sweep {
				continue
			}

			x := grid.WorldX(i)
			if x < zone.StartX || x > zone.EndX {
				continue
			}

			// Bell-shaped lateral falloff: full effect mid-span, zero at
			// the flanks.
			u := (x - zone.StartX) / zone.Width
			lateral := 4 * u * (1 - u)

			fade := clamp((sweep-t)/frontFade, 0, 1)

			switch {
			case t < headBandEnd:
				// Head scarp: deepest at the crown, steep power-curve
				// falloff into the slump body.
				ht := t / headBandEnd
				e := zone.Depth * (1 - 0.75*math.Pow(ht, 1.6))
				scarp[idx] = nonNegative(e * lateral * fade * erodeScale)

			case t < slumpEnd:
				// Slump body: shallow base erosion plus fixed fracture
				// steps.
				body := zone.Depth * 0.25 * (1 - 0.5*(t-headBandEnd)/(slumpEnd-headBandEnd))
				for _, f := range fractureLines {
					if t > f {
						body += zone.Depth * 0.05
					}
				}
				scarp[idx] = nonNegative(body * lateral * fade * erodeScale)

			default:
				// Toe: deposition bulge whose peak migrates downslope as
				// the slide progresses.
				peak := toePeakBase + toePeakShift*pr
				d := zone.Depth * toeBulgeHeight * math.Exp(-sqDiff(t, peak))
				deposition[idx] = nonNegative(d * lateral * fade * pr)
			}
		}
	}
}

func sqDiff(t, peak float64) float64 {
	d := (t - peak) / toeBulgeSpread
	return d * d
}

func nonNegative(v float64) float32 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return float32(v)
}
