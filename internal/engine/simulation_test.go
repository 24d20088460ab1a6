package engine

import (
	"testing"

	"github.com/talgya/slopesim/internal/geotech"
	"github.com/talgya/slopesim/internal/landslide"
	"github.com/talgya/slopesim/internal/terrain"
)

func testSim(t *testing.T, cfg Config) *Simulation {
	t.Helper()
	gen := terrain.DefaultGenConfig()
	gen.Seed = 3
	gen.SlopeAngle = cfg.Geo.SlopeAngle
	return NewSimulation(cfg, terrain.Generate(gen))
}

func TestTickInvariants(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RainfallIntensity = 80
	sim := testSim(t, cfg)
	sim.StartRain()

	for i := 0; i < 5000; i++ {
		sim.Step(SimTimestep)

		if sim.Hydro.Ru < 0 || sim.Hydro.Ru > 1 {
			t.Fatalf("ru escaped [0,1] at tick %d: %v", i, sim.Hydro.Ru)
		}
		if sim.Hydro.SaturationDepth < 0 || sim.Hydro.SaturationDepth > cfg.Geo.SoilDepth {
			t.Fatalf("saturation depth escaped bounds at tick %d: %v", i, sim.Hydro.SaturationDepth)
		}
		if sim.FoS < geotech.FoSMin || sim.FoS > geotech.FoSMax {
			t.Fatalf("FoS escaped bounds at tick %d: %v", i, sim.FoS)
		}
		if sim.PoF < 0 || sim.PoF > 100 {
			t.Fatalf("PoF escaped bounds at tick %d: %v", i, sim.PoF)
		}
	}
}

func TestRainWetsAndDryingDries(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RainfallIntensity = 50
	cfg.AutoTrigger = false
	sim := testSim(t, cfg)

	before := sim.Hydro.SaturationDepth
	sim.StartRain()
	for i := 0; i < 600; i++ {
		sim.Step(SimTimestep)
	}
	afterRain := sim.Hydro.SaturationDepth
	if afterRain <= before {
		t.Fatalf("a minute of rain must wet the column: %v <= %v", afterRain, before)
	}

	sim.StopRain()
	for i := 0; i < 36000; i++ {
		sim.Step(SimTimestep)
	}
	if sim.Hydro.SaturationDepth >= afterRain {
		t.Fatalf("evapotranspiration must dry the column after rain stops: %v >= %v",
			sim.Hydro.SaturationDepth, afterRain)
	}
	if !sim.Raining {
		// Rain state change was recorded.
		found := false
		for _, e := range sim.Events {
			if e.Category == "rain" {
				found = true
				break
			}
		}
		if !found {
			t.Fatal("rain transitions must be recorded as events")
		}
	}
}

func TestManualTriggerAndReset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoTrigger = false
	sim := testSim(t, cfg)

	if !sim.TriggerLandslide() {
		t.Fatal("manual trigger from dormant must succeed")
	}
	if sim.TriggerLandslide() {
		t.Fatal("second trigger must fail while active")
	}

	for i := 0; i < 100; i++ {
		sim.Step(SimTimestep)
	}
	if !sim.Slide.Active() && sim.Slide.Phase != landslide.PhaseComplete {
		t.Fatalf("slide should be running, phase = %s", landslide.PhaseName(sim.Slide.Phase))
	}
	if maxOf(sim.Scarp) <= 0 {
		t.Fatal("deformation buffers must fill while the slide runs")
	}

	sim.ResetLandslide()
	if sim.Slide.Phase != landslide.PhaseDormant {
		t.Fatal("reset must return the slide to dormant")
	}
	for i := range sim.Scarp {
		if sim.Scarp[i] != 0 || sim.Deposition[i] != 0 {
			t.Fatal("reset must zero the deformation buffers")
		}
	}
}

func TestAutoTriggerOnLowFoS(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Geo.SlopeAngle = 55
	cfg.Geo.Cohesion = 0
	cfg.Geo.FrictionAngle = 18
	cfg.Vegetation = 0.2
	cfg.AutoTrigger = true
	sim := testSim(t, cfg)

	sim.Step(SimTimestep)
	if sim.FoS >= 1 {
		t.Fatalf("scenario should be unstable, FoS = %v", sim.FoS)
	}
	if sim.Slide.Phase == landslide.PhaseDormant {
		t.Fatal("auto-trigger must start the slide when FoS < 1")
	}
}

func TestStrictStageOrderingWithinTick(t *testing.T) {
	// The stability outputs of a tick must reflect that tick's hydrology,
	// not the previous tick's.
	cfg := DefaultConfig()
	cfg.RainfallIntensity = 200
	cfg.Geo.HydraulicConductivity = 0.05
	cfg.AutoTrigger = false
	sim := testSim(t, cfg)
	sim.StartRain()

	fosBefore := sim.FoS
	for i := 0; i < 3000; i++ {
		sim.Step(SimTimestep)
	}
	if sim.FoS >= fosBefore {
		t.Fatalf("rising pore pressure must lower FoS: %v >= %v", sim.FoS, fosBefore)
	}

	// Recomputing stability from the current state must be a no-op: the
	// tick already left the outputs consistent.
	fos := sim.FoS
	sim.evaluateStability()
	if sim.FoS != fos {
		t.Fatalf("tick left stale stability outputs: %v != %v", sim.FoS, fos)
	}
}

func maxOf(buf []float32) float32 {
	var m float32
	for _, v := range buf {
		if v > m {
			m = v
		}
	}
	return m
}
