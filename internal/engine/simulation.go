// Simulation ties the slope model's subsystems together and runs them each
// tick in a strict order: hydrology, then cohesion and stability, then
// reliability, then landslide advance and deformation regeneration. Later
// stages always read the already-updated values from earlier stages in the
// same tick.
package engine

import (
	"fmt"

	"github.com/talgya/slopesim/internal/geotech"
	"github.com/talgya/slopesim/internal/hydrology"
	"github.com/talgya/slopesim/internal/landslide"
	"github.com/talgya/slopesim/internal/reliability"
	"github.com/talgya/slopesim/internal/terrain"
)

// Config holds the scenario: soil parameters plus the environmental knobs.
type Config struct {
	Geo               geotech.GeotechnicalParams
	Vegetation        float64 // cover fraction [0, 1]
	Porosity          float64 // pore volume fraction (0, 1]
	InitialMoisture   float64 // initial saturation fraction [0, 1]
	RainfallIntensity float64 // mm/hr while rain is active
	PotentialET       float64 // mm/day
	CoV               float64 // FoS coefficient of variation for FOSM

	// AutoTrigger starts a dormant landslide the moment FoS drops below 1.
	AutoTrigger bool
}

// DefaultConfig returns the default teaching scenario.
func DefaultConfig() Config {
	return Config{
		Geo:               geotech.DefaultParams(),
		Vegetation:        0.5,
		Porosity:          0.4,
		InitialMoisture:   0.3,
		RainfallIntensity: 20,
		PotentialET:       4,
		CoV:               0.15,
		AutoTrigger:       true,
	}
}

// Event is a notable occurrence in the simulation.
type Event struct {
	Tick        uint64 `json:"tick" db:"tick"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"` // "rain", "landslide"
}

// Simulation holds the complete engine state. Single-threaded: a tick must
// fully complete before the next begins, and all mutations are tick-atomic.
// The two deformation buffers are allocated once at construction and reused
// every tick; the engine never allocates after initialization.
type Simulation struct {
	Config Config
	Grid   *terrain.Grid

	Hydro hydrology.State
	Slide landslide.State

	// Per-vertex deformation buffers, same indexing as Grid.Heights.
	Scarp      []float32
	Deposition []float32

	Raining bool
	Tick    uint64

	// Outputs of the most recent tick.
	FoS               float64
	PoF               float64
	EffectiveCohesion float64

	Events []Event

	// TotalEvents counts every event ever recorded, surviving ring trims.
	TotalEvents uint64
}

// NewSimulation builds a simulation over the given terrain, allocating the
// deformation buffers up front.
func NewSimulation(cfg Config, grid *terrain.Grid) *Simulation {
	n := grid.Width * grid.Height
	sim := &Simulation{
		Config:     cfg,
		Grid:       grid,
		Hydro:      hydrology.NewState(cfg.InitialMoisture, cfg.Geo.SoilDepth, cfg.Geo.UnitWeight),
		Slide:      landslide.NewState(),
		Scarp:      make([]float32, n),
		Deposition: make([]float32, n),
	}
	// Prime the outputs so callers see sane numbers before the first tick.
	sim.evaluateStability()
	return sim
}

// Step advances the simulation by dt seconds of simulated time.
func (s *Simulation) Step(dt float64) {
	s.Tick++

	f := s.forcing()

	// Hydrology: rain wets the column, vegetation dries it every tick.
	if s.Raining {
		s.Hydro = hydrology.UpdateInfiltration(s.Hydro, f, dt)
	} else if s.Hydro.InfiltrationRate != 0 {
		dry := f
		dry.RainfallIntensity = 0
		s.Hydro = hydrology.UpdateInfiltration(s.Hydro, dry, dt)
	}
	et := hydrology.ComputeEvapotranspiration(
		s.Config.Vegetation,
		s.Hydro.SaturationRatio(s.Config.Geo.SoilDepth),
		s.Config.PotentialET,
	)
	s.Hydro = hydrology.ApplyDrying(s.Hydro, f, et, dt)

	// Stability and reliability read the just-updated hydrology.
	s.evaluateStability()

	if s.Config.AutoTrigger && s.Slide.Phase == landslide.PhaseDormant && s.FoS < 1 {
		if s.Slide.Trigger(s.Config.Geo, s.Hydro, s.Grid) {
			s.record("slope failure triggered", "landslide")
		}
	}

	if s.Slide.Active() {
		before := s.Slide.Phase
		s.Slide.Advance(dt)
		if s.Slide.Phase != before {
			s.record(fmt.Sprintf("landslide %s", landslide.PhaseName(s.Slide.Phase)), "landslide")
		}
		landslide.ComputeTerrainDeformation(*s.Slide.Zone, s.Slide.Progress, s.Grid, s.Scarp, s.Deposition)
	}

	// Trim old events to prevent unbounded growth (keep last 500).
	if len(s.Events) > 500 {
		s.Events = s.Events[len(s.Events)-500:]
	}
}

// TriggerLandslide starts a landslide from the current conditions. Returns
// false if one is already underway or complete.
func (s *Simulation) TriggerLandslide() bool {
	ok := s.Slide.Trigger(s.Config.Geo, s.Hydro, s.Grid)
	if ok {
		s.record("landslide triggered manually", "landslide")
	}
	return ok
}

// ResetLandslide returns the landslide to dormant and zeroes both
// deformation buffers.
func (s *Simulation) ResetLandslide() {
	s.Slide.Reset()
	for i := range s.Scarp {
		s.Scarp[i] = 0
		s.Deposition[i] = 0
	}
	s.record("landslide reset", "landslide")
}

// StartRain turns rainfall on; takes effect on the next tick boundary.
func (s *Simulation) StartRain() {
	if !s.Raining {
		s.Raining = true
		s.record("rain started", "rain")
	}
}

// StopRain turns rainfall off; takes effect on the next tick boundary.
func (s *Simulation) StopRain() {
	if s.Raining {
		s.Raining = false
		s.record("rain stopped", "rain")
	}
}

func (s *Simulation) forcing() hydrology.Forcing {
	return hydrology.Forcing{
		RainfallIntensity:     s.Config.RainfallIntensity,
		HydraulicConductivity: s.Config.Geo.HydraulicConductivity,
		Vegetation:            s.Config.Vegetation,
		SoilDepth:             s.Config.Geo.SoilDepth,
		Porosity:              s.Config.Porosity,
		UnitWeight:            s.Config.Geo.UnitWeight,
	}
}

// evaluateStability composes effective cohesion and derives FoS and PoF from
// the current hydrological state.
func (s *Simulation) evaluateStability() {
	satRatio := s.Hydro.SaturationRatio(s.Config.Geo.SoilDepth)
	s.EffectiveCohesion = geotech.EffectiveCohesion(s.Config.Geo.Cohesion, s.Config.Vegetation, satRatio)

	p := s.Config.Geo
	p.Cohesion = s.EffectiveCohesion
	s.FoS = geotech.ComputeFoS(p, s.Hydro.PorePressure)
	s.PoF = reliability.ComputePoF(s.FoS, s.Config.CoV)
}

func (s *Simulation) record(description, category string) {
	s.Events = append(s.Events, Event{
		Tick:        s.Tick,
		Description: description,
		Category:    category,
	})
	s.TotalEvents++
}
