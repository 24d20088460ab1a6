package hydrology

import (
	"math"
	"testing"
)

func testForcing() Forcing {
	return Forcing{
		RainfallIntensity:     20,
		HydraulicConductivity: 0.005,
		Vegetation:            0.5,
		SoilDepth:             3,
		Porosity:              0.4,
		UnitWeight:            19,
	}
}

func TestNewStateClampsMoisture(t *testing.T) {
	s := NewState(0.3, 3, 19)
	if math.Abs(s.SaturationDepth-0.9) > 1e-9 {
		t.Fatalf("initial saturation depth = %v, want 0.9", s.SaturationDepth)
	}

	if s := NewState(1.5, 3, 19); s.SaturationDepth != 3 {
		t.Fatalf("over-wet initial moisture must clamp to soil depth, got %v", s.SaturationDepth)
	}
	if s := NewState(-0.5, 3, 19); s.SaturationDepth != 0 {
		t.Fatalf("negative initial moisture must clamp to zero, got %v", s.SaturationDepth)
	}
	if s := NewState(0.5, 0, 19); s != (State{}) {
		t.Fatalf("zero soil depth must produce the zero state, got %+v", s)
	}
}

func TestInfiltrationInvariantsUnderHeavyRain(t *testing.T) {
	f := testForcing()
	f.RainfallIntensity = 500 // far beyond capacity

	s := NewState(0.1, f.SoilDepth, f.UnitWeight)
	for i := 0; i < 100000; i++ {
		s = UpdateInfiltration(s, f, 1.0)

		if s.SaturationDepth < 0 || s.SaturationDepth > f.SoilDepth {
			t.Fatalf("saturation depth escaped [0, soilDepth] at step %d: %v", i, s.SaturationDepth)
		}
		if s.Ru < 0 || s.Ru > 1 {
			t.Fatalf("ru escaped [0, 1] at step %d: %v", i, s.Ru)
		}
		if math.Abs(s.PorePressure-WaterUnitWeight*s.SaturationDepth) > 1e-9 {
			t.Fatalf("pore pressure inconsistent with saturation depth at step %d", i)
		}
	}

	// A day of extreme rain should have wetted the column substantially.
	if s.SaturationDepth < 1.0 {
		t.Fatalf("column should be much wetter after sustained extreme rain, got %v", s.SaturationDepth)
	}
}

func TestInfiltrationNeverExceedsCapacity(t *testing.T) {
	f := testForcing()
	f.RainfallIntensity = 10000
	s := NewState(0, f.SoilDepth, f.UnitWeight)
	s = UpdateInfiltration(s, f, 1.0)

	// Dry column: capacity = K·3600 · (1 + 0.5·veg) · 1.0.
	capacity := f.HydraulicConductivity * 3600 * (1 + 0.5*f.Vegetation)
	if s.InfiltrationRate > capacity+1e-9 {
		t.Fatalf("infiltration rate %v exceeds capacity %v", s.InfiltrationRate, capacity)
	}
}

func TestCanopyInterceptionLimitsLightRain(t *testing.T) {
	f := testForcing()
	f.RainfallIntensity = 1 // well below capacity
	f.Vegetation = 1

	s := NewState(0, f.SoilDepth, f.UnitWeight)
	s = UpdateInfiltration(s, f, 1.0)

	// Full canopy intercepts 30%: only 0.7 mm/hr reaches the soil.
	if math.Abs(s.InfiltrationRate-0.7) > 1e-9 {
		t.Fatalf("infiltration rate = %v, want 0.7 after full-canopy interception", s.InfiltrationRate)
	}
}

func TestEvapotranspirationGuards(t *testing.T) {
	if et := ComputeEvapotranspiration(0, 0.5, 4); et != 0 {
		t.Fatalf("no vegetation must mean no ET, got %v", et)
	}
	if et := ComputeEvapotranspiration(0.5, 0, 4); et != 0 {
		t.Fatalf("dry soil must mean no ET, got %v", et)
	}
	if et := ComputeEvapotranspiration(0.5, -0.3, 4); et != 0 {
		t.Fatalf("negative saturation must not produce NaN or nonzero ET, got %v", et)
	}
}

func TestEvapotranspirationRate(t *testing.T) {
	// Full cover, saturated: actual = potential. 4 mm/day in m/s.
	want := 4.0 / 1000 / 86400
	got := ComputeEvapotranspiration(1, 1, 4)
	if math.Abs(got-want) > 1e-15 {
		t.Fatalf("ET rate = %v, want %v", got, want)
	}

	// Half-saturated soil draws √0.5 of potential.
	half := ComputeEvapotranspiration(1, 0.5, 4)
	if math.Abs(half-want*math.Sqrt(0.5)) > 1e-15 {
		t.Fatalf("half-saturation ET = %v, want %v", half, want*math.Sqrt(0.5))
	}
}

func TestApplyDryingDrainsAndClamps(t *testing.T) {
	f := testForcing()
	s := NewState(0.5, f.SoilDepth, f.UnitWeight)
	before := s.SaturationDepth

	s = ApplyDrying(s, f, 1e-6, 3600)
	if s.SaturationDepth >= before {
		t.Fatalf("drying must reduce saturation: %v >= %v", s.SaturationDepth, before)
	}

	// Overwhelming ET must clamp at zero, not go negative.
	s = ApplyDrying(s, f, 1.0, 3600)
	if s.SaturationDepth != 0 || s.PorePressure != 0 || s.Ru != 0 {
		t.Fatalf("drained column must zero out, got %+v", s)
	}
}
