// Package hydrology models rainfall infiltration and evapotranspiration on
// a single soil column. It owns the saturation state the stability model
// reads each tick.
//
// Unit convention: hydraulic conductivity is taken in mm/s, so
// conductivity × 3600 is the bare infiltration capacity in mm/hr. The
// upstream UI labeled the same slider "×10⁻⁶ m/s", which disagrees with the
// ×3600 arithmetic by about three orders of magnitude; the mm/s reading is
// the one this package commits to.
package hydrology

import "math"

// WaterUnitWeight is the unit weight of water in kN/m³.
const WaterUnitWeight = 9.81

const (
	maxCanopyInterception = 0.30 // rainfall fraction caught at full cover
	rootCapacityBoost     = 0.50 // infiltration capacity gain at full cover
	minCapacityFraction   = 0.20 // capacity retained at full saturation
	secondsPerHour        = 3600.0
	secondsPerDay         = 86400.0
)

// State is the mutable hydrological state of the soil column. It is created
// once at simulation start and updated every tick; reset is the only way
// back to initial conditions.
type State struct {
	SaturationDepth  float64 // m, always within [0, soil depth]
	PorePressure     float64 // kPa, WaterUnitWeight × SaturationDepth
	Ru               float64 // pore pressure ratio, always within [0, 1]
	InfiltrationRate float64 // mm/hr actually entering the soil
}

// Forcing bundles the per-tick inputs that drive the column.
type Forcing struct {
	RainfallIntensity     float64 // mm/hr reaching the canopy
	HydraulicConductivity float64 // mm/s
	Vegetation            float64 // cover fraction [0, 1]
	SoilDepth             float64 // m
	Porosity              float64 // pore volume fraction (0, 1]
	UnitWeight            float64 // soil unit weight kN/m³, for ru
}

// NewState builds the initial state from a user "initial moisture" fraction
// of the soil depth.
func NewState(initialMoisture, soilDepth, unitWeight float64) State {
	if soilDepth <= 0 {
		return State{}
	}
	s := State{SaturationDepth: clamp(initialMoisture, 0, 1) * soilDepth}
	return derive(s, Forcing{SoilDepth: soilDepth, UnitWeight: unitWeight}, 0)
}

// SaturationRatio returns the filled fraction of the soil column.
func (s State) SaturationRatio(soilDepth float64) float64 {
	if soilDepth <= 0 {
		return 0
	}
	return clamp(s.SaturationDepth/soilDepth, 0, 1)
}

// UpdateInfiltration advances the saturation state by dt seconds of rain.
// It is a pure function of (state, forcing, dt): canopy interception removes
// up to 30% of rainfall, infiltration capacity grows with vegetation and
// with the remaining storage deficit, and water never enters faster than the
// soil can absorb it. The infiltrated column fills pore volume only.
func UpdateInfiltration(s State, f Forcing, dt float64) State {
	if f.SoilDepth <= 0 || dt <= 0 {
		return s
	}

	veg := clamp(f.Vegetation, 0, 1)
	rain := math.Max(f.RainfallIntensity, 0)
	satRatio := s.SaturationRatio(f.SoilDepth)

	effectiveRain := rain * (1 - maxCanopyInterception*veg)

	// Capacity in mm/hr; see the package comment for the ×3600 convention.
	capacity := math.Max(f.HydraulicConductivity, 0) * secondsPerHour
	capacity *= 1 + rootCapacityBoost*veg
	capacity *= minCapacityFraction + (1-minCapacityFraction)*(1-satRatio)

	infiltration := math.Min(effectiveRain, capacity)
	if infiltration < 0 || math.IsNaN(infiltration) {
		infiltration = 0
	}

	// mm/hr → m of water column over dt, then into pore volume.
	column := infiltration / 1000 / secondsPerHour * dt
	s.SaturationDepth += column / porosityOf(f)

	return derive(s, f, infiltration)
}

// ComputeEvapotranspiration returns the actual ET rate in m/s for the given
// vegetation cover, saturation ratio and potential ET (mm/day). Zero when
// there is no vegetation or no water to draw; the square root would
// otherwise go NaN on negative input.
func ComputeEvapotranspiration(vegetation, saturationRatio, potentialET float64) float64 {
	if vegetation <= 0 || saturationRatio <= 0 {
		return 0
	}
	veg := clamp(vegetation, 0, 1)
	sat := clamp(saturationRatio, 0, 1)

	actual := potentialET * veg * math.Sqrt(sat)
	if actual < 0 || math.IsNaN(actual) {
		return 0
	}
	return actual / 1000 / secondsPerDay
}

// ApplyDrying removes water from the column at the given ET rate (m/s) over
// dt seconds. Only pore volume drains, mirroring UpdateInfiltration.
func ApplyDrying(s State, f Forcing, etRate, dt float64) State {
	if f.SoilDepth <= 0 {
		return s
	}
	if etRate > 0 && dt > 0 {
		s.SaturationDepth -= etRate * dt / porosityOf(f)
	}
	return derive(s, f, s.InfiltrationRate)
}

func porosityOf(f Forcing) float64 {
	if f.Porosity <= 0 {
		return 1
	}
	return f.Porosity
}

// derive clamps the saturation depth and recomputes the dependent fields.
func derive(s State, f Forcing, infiltration float64) State {
	s.SaturationDepth = clamp(s.SaturationDepth, 0, f.SoilDepth)
	s.PorePressure = WaterUnitWeight * s.SaturationDepth
	s.InfiltrationRate = infiltration

	total := f.UnitWeight * f.SoilDepth
	if total > 0 {
		s.Ru = clamp(s.PorePressure/total, 0, 1)
	} else {
		s.Ru = 0
	}
	return s
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
