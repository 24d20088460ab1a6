// Package geotech implements the infinite-slope stability model.
// The model is a 1D closed-form approximation: a long, uniform, planar
// failure surface parallel to the ground. It trades rigor for real-time
// evaluation; no circular/Bishop search is attempted.
package geotech

// GeotechnicalParams holds the soil and geometry inputs for one scenario.
// Values arrive straight from UI sliders; out-of-range input is clamped,
// never rejected. The physical validity envelope (slopeAngle < frictionAngle)
// is a modeling assumption, not an enforced invariant; outside it the model
// still returns a clamped number.
type GeotechnicalParams struct {
	SlopeAngle            float64 // degrees, [0, 90]
	SoilDepth             float64 // m, > 0
	UnitWeight            float64 // kN/m³
	Cohesion              float64 // kPa, base value before vegetation/saturation effects
	FrictionAngle         float64 // degrees, [0, 90]
	HydraulicConductivity float64 // mm/s, consumed by the hydrology model

	// SteepDecay enables an extra exponential reduction of FoS for slopes
	// beyond 60°, where the planar assumption degrades fastest. Off by
	// default.
	SteepDecay bool
}

// DefaultParams returns a moderately stable hillslope scenario.
func DefaultParams() GeotechnicalParams {
	return GeotechnicalParams{
		SlopeAngle:            30,
		SoilDepth:             3,
		UnitWeight:            19,
		Cohesion:              15,
		FrictionAngle:         32,
		HydraulicConductivity: 0.005,
	}
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
