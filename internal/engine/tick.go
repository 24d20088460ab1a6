// Tick loop driving the simulation at a fixed simulated timestep.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/talgya/slopesim/internal/landslide"
)

// Tick cadence. The simulated timestep is fixed regardless of wall-clock
// pacing or speed multiplier.
const (
	SimTimestep    = 0.1 // seconds of simulated time per tick
	TicksPerSecond = 10
)

// Engine drives the simulation forward at a configurable wall-clock rate.
// The simulation itself is single-writer; the mutex exists only so the HTTP
// API can take consistent snapshots between ticks.
type Engine struct {
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Wall-clock interval per tick at speed 1

	// Callbacks, invoked on the tick goroutine. Populated during setup.
	OnTick   func(tick uint64) // every tick
	OnSecond func(tick uint64) // every TicksPerSecond ticks

	mu       sync.RWMutex
	sim      *Simulation
	running  bool
	consumed uint64 // events already handed out by ConsumeNewEvents
}

// NewEngine wraps a simulation with the default pacing.
func NewEngine(sim *Simulation) *Engine {
	return &Engine{
		Speed:    1.0,
		Interval: time.Duration(SimTimestep * float64(time.Second)),
		sim:      sim,
	}
}

// Run starts the tick loop. Blocks until Stop is called.
func (e *Engine) Run() {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()

	slog.Info("simulation engine started", "dt", SimTimestep, "speed", e.Speed)

	for e.isRunning() {
		if e.Speed <= 0 {
			// Paused. Sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.mu.Lock()
		e.sim.Step(SimTimestep)
		tick := e.sim.Tick
		e.mu.Unlock()

		if e.OnTick != nil {
			e.OnTick(tick)
		}
		if tick%TicksPerSecond == 0 && e.OnSecond != nil {
			e.OnSecond(tick)
		}

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped")
}

// Stop halts the tick loop.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
}

func (e *Engine) isRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Trigger starts a landslide between ticks.
func (e *Engine) Trigger() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.TriggerLandslide()
}

// Reset returns the landslide to dormant between ticks.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sim.ResetLandslide()
}

// SetRain switches rainfall on or off between ticks.
func (e *Engine) SetRain(active bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if active {
		e.sim.StartRain()
	} else {
		e.sim.StopRain()
	}
}

// SetRainfall changes the rainfall intensity (mm/hr) used while rain is
// active.
func (e *Engine) SetRainfall(intensity float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if intensity >= 0 {
		e.sim.Config.RainfallIntensity = intensity
	}
}

// Metrics is a consistent snapshot of the outputs of one tick.
type Metrics struct {
	Tick              uint64  `json:"tick"`
	SimTime           string  `json:"sim_time"`
	FoS               float64 `json:"fos"`
	PoF               float64 `json:"pof"`
	Ru                float64 `json:"ru"`
	SaturationDepth   float64 `json:"saturation_depth"`
	InfiltrationRate  float64 `json:"infiltration_rate"`
	EffectiveCohesion float64 `json:"effective_cohesion"`
	Raining           bool    `json:"raining"`
	Phase             string  `json:"phase"`
	Progress          float64 `json:"progress"`
	DisplacedVolume   float64 `json:"displaced_volume"`
	RunoutDistance    float64 `json:"runout_distance"`
}

// Snapshot returns the most recent tick's outputs.
func (e *Engine) Snapshot() Metrics {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := e.sim
	return Metrics{
		Tick:              s.Tick,
		SimTime:           SimTime(s.Tick),
		FoS:               s.FoS,
		PoF:               s.PoF,
		Ru:                s.Hydro.Ru,
		SaturationDepth:   s.Hydro.SaturationDepth,
		InfiltrationRate:  s.Hydro.InfiltrationRate,
		EffectiveCohesion: s.EffectiveCohesion,
		Raining:           s.Raining,
		Phase:             landslide.PhaseName(s.Slide.Phase),
		Progress:          s.Slide.Progress,
		DisplacedVolume:   s.Slide.TotalVolume,
		RunoutDistance:    s.Slide.RunoutDistance,
	}
}

// RecentEvents returns up to limit most recent events, newest last.
func (e *Engine) RecentEvents(limit int) []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()

	events := e.sim.Events
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// ConsumeNewEvents returns the events recorded since the previous call,
// oldest first. Used by the telemetry flusher.
func (e *Engine) ConsumeNewEvents() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	newCount := int(e.sim.TotalEvents - e.consumed)
	if newCount <= 0 {
		return nil
	}
	if newCount > len(e.sim.Events) {
		newCount = len(e.sim.Events)
	}
	out := make([]Event, newCount)
	copy(out, e.sim.Events[len(e.sim.Events)-newCount:])
	e.consumed = e.sim.TotalEvents
	return out
}

// SimTime returns a human-readable simulated time string from a tick number.
func SimTime(tick uint64) string {
	totalSeconds := tick / TicksPerSecond
	tenths := tick % TicksPerSecond
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%dm%02d.%ds", minutes, seconds, tenths)
}
