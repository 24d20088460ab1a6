// Package api serves the simulation over HTTP.
// GET endpoints are public (read-only observation of the slope).
// POST endpoints require a bearer token (control plane: trigger, reset,
// rain, speed).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/slopesim/internal/engine"
	"github.com/talgya/slopesim/internal/persistence"
)

// Server serves live metrics and recorded telemetry.
type Server struct {
	Eng      *engine.Engine
	DB       *persistence.DB
	RunID    string
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	// History queries hit SQLite; keep strangers from hammering it.
	historyLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/history", RateLimitMiddleware(historyLimiter, s.handleHistory))
	mux.HandleFunc("/api/v1/events", s.handleEvents)

	// Control endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/trigger", s.adminOnly(s.handleTrigger))
	mux.HandleFunc("/api/v1/reset", s.adminOnly(s.handleReset))
	mux.HandleFunc("/api/v1/rain", s.adminOnly(s.handleRain))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth and the POST method.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "control endpoints disabled (no SLOPESIM_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	m := s.Eng.Snapshot()

	status := map[string]any{
		"run_id":             s.RunID,
		"tick":               m.Tick,
		"sim_time":           m.SimTime,
		"speed":              s.Eng.Speed,
		"fos":                m.FoS,
		"pof_percent":        m.PoF,
		"ru":                 m.Ru,
		"saturation_depth":   m.SaturationDepth,
		"infiltration_rate":  m.InfiltrationRate,
		"effective_cohesion": m.EffectiveCohesion,
		"raining":            m.Raining,
		"landslide": map[string]any{
			"phase":            m.Phase,
			"progress":         m.Progress,
			"displaced_volume": m.DisplacedVolume,
			"displaced_human":  humanize.SIWithDigits(m.DisplacedVolume, 1, "m³"),
			"runout_distance":  m.RunoutDistance,
		},
	}
	writeJSON(w, status)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 600
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 5000 {
			limit = n
		}
	}

	samples, err := s.DB.RecentSamples(s.RunID, limit)
	if err != nil {
		slog.Error("history query failed", "error", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"run_id": s.RunID, "samples": samples})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"events": s.Eng.RecentEvents(50)})
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	ok := s.Eng.Trigger()
	if !ok {
		http.Error(w, "landslide not dormant", http.StatusConflict)
		return
	}
	slog.Info("landslide triggered via API")
	writeJSON(w, s.Eng.Snapshot())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.Eng.Reset()
	slog.Info("landslide reset via API")
	writeJSON(w, s.Eng.Snapshot())
}

func (s *Server) handleRain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	s.Eng.SetRain(req.Active)
	slog.Info("rain changed via API", "active", req.Active)
	writeJSON(w, s.Eng.Snapshot())
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Speed < 0 || req.Speed > 100 {
		http.Error(w, "speed must be 0-100", http.StatusBadRequest)
		return
	}
	s.Eng.Speed = req.Speed
	slog.Info("speed changed", "speed", req.Speed)
	writeJSON(w, map[string]float64{"speed": s.Eng.Speed})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
