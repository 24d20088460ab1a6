// Command slopesim runs the slope-stability and landslide simulation.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/talgya/slopesim/internal/api"
	"github.com/talgya/slopesim/internal/engine"
	"github.com/talgya/slopesim/internal/persistence"
	"github.com/talgya/slopesim/internal/terrain"
	"github.com/talgya/slopesim/internal/weather"
)

func main() {
	var (
		seed         = flag.Int64("seed", 42, "terrain seed (0 = random)")
		slopeAngle   = flag.Float64("slope", 30, "slope angle in degrees")
		soilDepth    = flag.Float64("soil-depth", 3, "soil depth in m")
		unitWeight   = flag.Float64("unit-weight", 19, "soil unit weight in kN/m³")
		cohesion     = flag.Float64("cohesion", 15, "base cohesion in kPa")
		friction     = flag.Float64("friction", 32, "friction angle in degrees")
		conductivity = flag.Float64("conductivity", 0.005, "hydraulic conductivity in mm/s")
		vegetation   = flag.Float64("vegetation", 0.5, "vegetation cover fraction 0-1")
		porosity     = flag.Float64("porosity", 0.4, "soil porosity 0-1")
		moisture     = flag.Float64("moisture", 0.3, "initial saturation fraction 0-1")
		rainfall     = flag.Float64("rainfall", 20, "rainfall intensity in mm/hr while raining")
		potentialET  = flag.Float64("potential-et", 4, "potential evapotranspiration in mm/day")
		cov          = flag.Float64("cov", 0.15, "FoS coefficient of variation")
		steepDecay   = flag.Bool("steep-decay", false, "enable FoS decay beyond 60 degrees")
		autoTrigger  = flag.Bool("auto-trigger", true, "trigger failure automatically when FoS < 1")
		rainOn       = flag.Bool("rain", false, "start with rain active")
		speed        = flag.Float64("speed", 1.0, "simulation speed multiplier")
		dbPath       = flag.String("db", "data/slopesim.db", "telemetry database path")
		apiPort      = flag.Int("port", 8080, "HTTP API port")
		owmLocation  = flag.String("location", "", "OpenWeatherMap location for live rainfall forcing")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("slopesim: slope stability and landslide simulation")

	// ── Scenario ──────────────────────────────────────────────────────
	cfg := engine.DefaultConfig()
	cfg.Geo.SlopeAngle = *slopeAngle
	cfg.Geo.SoilDepth = *soilDepth
	cfg.Geo.UnitWeight = *unitWeight
	cfg.Geo.Cohesion = *cohesion
	cfg.Geo.FrictionAngle = *friction
	cfg.Geo.HydraulicConductivity = *conductivity
	cfg.Geo.SteepDecay = *steepDecay
	cfg.Vegetation = *vegetation
	cfg.Porosity = *porosity
	cfg.InitialMoisture = *moisture
	cfg.RainfallIntensity = *rainfall
	cfg.PotentialET = *potentialET
	cfg.CoV = *cov
	cfg.AutoTrigger = *autoTrigger

	// ── Terrain (deterministic from seed) ─────────────────────────────
	genCfg := terrain.DefaultGenConfig()
	genCfg.Seed = *seed
	genCfg.SlopeAngle = *slopeAngle
	grid := terrain.Generate(genCfg)
	minH, maxH := grid.ElevationRange()
	slog.Info("terrain generated",
		"vertices", humanize.Comma(int64(grid.Width*grid.Height)),
		"extent_x", grid.ExtentX(),
		"extent_z", grid.ExtentZ(),
		"relief", maxH-minH,
	)

	// ── Telemetry database ────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(*dbPath), 0755)
	db, err := persistence.Open(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", *dbPath)

	runID, err := db.CreateRun(*seed, cfg)
	if err != nil {
		slog.Error("failed to create run", "error", err)
		os.Exit(1)
	}

	// ── Simulation ────────────────────────────────────────────────────
	sim := engine.NewSimulation(cfg, grid)
	if *rainOn {
		sim.StartRain()
	}

	eng := engine.NewEngine(sim)
	eng.Speed = *speed

	// Optional live rainfall forcing.
	owm := weather.NewClient(os.Getenv("OWM_API_KEY"), *owmLocation)
	if owm != nil {
		slog.Info("live rainfall forcing enabled", "location", *owmLocation)
	}

	// Telemetry batching: sample once per sim-second, flush once per
	// sim-minute.
	var pending []persistence.Sample
	eng.OnSecond = func(tick uint64) {
		m := eng.Snapshot()
		pending = append(pending, persistence.SampleFromMetrics(m))

		if tick%(60*engine.TicksPerSecond) == 0 {
			flushTelemetry(db, runID, eng, &pending)

			slog.Info("status",
				"sim_time", m.SimTime,
				"fos", m.FoS,
				"pof", m.PoF,
				"ru", m.Ru,
				"saturation", m.SaturationDepth,
				"raining", m.Raining,
				"phase", m.Phase,
				"progress", m.Progress,
				"volume", humanize.SIWithDigits(m.DisplacedVolume, 1, "m³"),
			)

			if owm != nil {
				conditions, err := owm.Fetch()
				if err != nil {
					slog.Warn("weather fetch failed", "error", err)
				} else {
					intensity := weather.MapToForcing(conditions)
					if intensity > 0 {
						eng.SetRainfall(intensity)
					}
					eng.SetRain(intensity > 0)
					slog.Info("live weather", "desc", conditions.Description, "rain_mm_hr", intensity)
				}
			}
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	server := &api.Server{
		Eng:      eng,
		DB:       db,
		RunID:    runID,
		Port:     *apiPort,
		AdminKey: os.Getenv("SLOPESIM_ADMIN_KEY"),
	}
	server.Start()

	// ── Run until interrupted ─────────────────────────────────────────
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		slog.Info("shutdown requested")
		eng.Stop()
	}()

	eng.Run()

	flushTelemetry(db, runID, eng, &pending)
	slog.Info("telemetry flushed, goodbye", "run_id", runID)
}

// flushTelemetry writes pending samples and any events recorded since the
// previous flush.
func flushTelemetry(db *persistence.DB, runID string, eng *engine.Engine, pending *[]persistence.Sample) {
	if err := db.SaveSamples(runID, *pending); err != nil {
		slog.Error("failed to save samples", "error", err)
	} else {
		*pending = (*pending)[:0]
	}

	if events := eng.ConsumeNewEvents(); len(events) > 0 {
		if err := db.SaveEvents(runID, events); err != nil {
			slog.Error("failed to save events", "error", err)
		}
	}
}
