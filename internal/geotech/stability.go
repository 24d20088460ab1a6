// Infinite-slope Factor of Safety and effective cohesion composition.
package geotech

import "math"

// FoS bounds. Every answer the calculator gives lands inside these, so a
// slider dragged to an extreme can never stall the render loop with a NaN.
const (
	FoSMin = 0.1
	FoSMax = 5.0
)

// Vegetation root reinforcement ceiling and saturation softening fraction
// used by EffectiveCohesion.
const (
	maxRootCohesion       = 10.0 // kPa at full vegetation cover
	saturationSoftening   = 0.3  // cohesion lost at full saturation
	steepDecayThreshold   = 60.0 // degrees
	steepDecayCoefficient = 0.05
)

// ComputeFoS evaluates the infinite-slope Factor of Safety for the given
// parameters and pore water pressure (kPa). The result is always finite and
// clamped to [FoSMin, FoSMax]; degenerate inputs map to a safe bound instead
// of raising.
func ComputeFoS(p GeotechnicalParams, porePressure float64) float64 {
	beta := clamp(p.SlopeAngle, 0, 90)
	phi := clamp(p.FrictionAngle, 0, 90)

	// Flat ground cannot slide; a vertical face cannot stand.
	if beta <= 0 {
		return FoSMax
	}
	if beta >= 90 {
		return FoSMin
	}

	betaRad := beta * math.Pi / 180
	phiRad := phi * math.Pi / 180

	cosBeta := math.Cos(betaRad)
	sinBeta := math.Sin(betaRad)

	normalStress := p.UnitWeight * p.SoilDepth * cosBeta * cosBeta
	effectiveNormal := normalStress - porePressure
	resistance := p.Cohesion + effectiveNormal*math.Tan(phiRad)
	drivingForce := p.UnitWeight * p.SoilDepth * sinBeta * cosBeta

	if drivingForce <= 1e-3 {
		return FoSMax
	}

	fos := resistance / drivingForce

	if p.SteepDecay && beta > steepDecayThreshold {
		fos *= math.Exp(-steepDecayCoefficient * (beta - steepDecayThreshold))
	}

	if math.IsNaN(fos) || math.IsInf(fos, 0) {
		if fos > 0 {
			return FoSMax
		}
		return FoSMin
	}

	return clamp(fos, FoSMin, FoSMax)
}

// EffectiveCohesion composes the cohesion fed into ComputeFoS: the base soil
// cohesion plus root reinforcement from vegetation cover, reduced by a
// saturation-dependent softening factor. Fractions are clamped to [0,1] and
// the result is never negative.
func EffectiveCohesion(base, vegetation, saturationRatio float64) float64 {
	veg := clamp(vegetation, 0, 1)
	sat := clamp(saturationRatio, 0, 1)

	c := (base + maxRootCohesion*veg) * (1 - saturationSoftening*sat)
	if c < 0 || math.IsNaN(c) {
		return 0
	}
	return c
}
