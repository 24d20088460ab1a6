// Landslide phase machine. Progress drives everything: the phase is a pure
// function of progress, and progress only moves forward until the event
// completes or is reset.
package landslide

import (
	"github.com/talgya/slopesim/internal/geotech"
	"github.com/talgya/slopesim/internal/hydrology"
	"github.com/talgya/slopesim/internal/terrain"
)

// Phase of the landslide event.
type Phase uint8

const (
	PhaseDormant Phase = iota
	PhaseInitiating
	PhaseFlowing
	PhaseDepositing
	PhaseComplete
)

// Progress thresholds separating the phases.
const (
	initiatingEnd = 0.2
	flowingEnd    = 0.7
)

// Base progress advance rate per second. The effective rate decays as
// progress grows, so motion is fast initially and settles near completion.
const progressRate = 0.1

// PhaseName returns a human-readable phase name.
func PhaseName(p Phase) string {
	switch p {
	case PhaseDormant:
		return "dormant"
	case PhaseInitiating:
		return "initiating"
	case PhaseFlowing:
		return "flowing"
	case PhaseDepositing:
		return "depositing"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// State holds the lifecycle of one landslide event. Created dormant; only
// Trigger leaves dormant, only Reset returns to it.
type State struct {
	Phase          Phase
	Progress       float64 // [0, 1], non-decreasing while active
	Zone           *FailureZone
	TotalVolume    float64 // m³, display metric
	RunoutDistance float64 // world units the front has swept
	ElapsedTime    float64 // seconds since trigger
}

// NewState returns a dormant landslide.
func NewState() State {
	return State{Phase: PhaseDormant}
}

// Active reports whether the event is currently moving material.
func (s *State) Active() bool {
	return s.Phase != PhaseDormant && s.Phase != PhaseComplete
}

// Trigger starts the event from dormant, deriving the failure zone from the
// current conditions. Returns false if the slide is not dormant.
func (s *State) Trigger(p geotech.GeotechnicalParams, hydro hydrology.State, grid *terrain.Grid) bool {
	if s.Phase != PhaseDormant {
		return false
	}
	zone := ComputeFailureZone(p, hydro, grid)
	s.Zone = &zone
	s.Phase = PhaseInitiating
	s.Progress = 0.01
	s.ElapsedTime = 0
	s.TotalVolume = DisplacedVolume(zone, s.Progress)
	s.RunoutDistance = zone.Length * s.Progress
	return true
}

// Advance moves the event forward by dt seconds. The advance rate is
// proportional to (1 − 0.7·progress). No-op unless the event is active.
func (s *State) Advance(dt float64) {
	if !s.Active() || dt <= 0 {
		return
	}

	s.Progress += progressRate * (1 - 0.7*s.Progress) * dt
	if s.Progress > 1 {
		s.Progress = 1
	}
	s.ElapsedTime += dt
	s.Phase = phaseFor(s.Progress)

	if s.Zone != nil {
		s.TotalVolume = DisplacedVolume(*s.Zone, s.Progress)
		s.RunoutDistance = s.Zone.Length * s.Progress
	}
}

// Reset returns the event to dormant from any state, clearing the zone.
func (s *State) Reset() {
	*s = NewState()
}

// phaseFor recomputes the phase from progress using the fixed thresholds.
// Trigger is the only path out of dormant, so progress > 0 here.
func phaseFor(progress float64) Phase {
	switch {
	case progress >= 1:
		return PhaseComplete
	case progress >= flowingEnd:
		return PhaseDepositing
	case progress >= initiatingEnd:
		return PhaseFlowing
	default:
		return PhaseInitiating
	}
}
