// Package api provides the read-only HTTP API for observing the world.
// All endpoints are GET; the engine exposes no mutating surface.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/talgya/bugworld/internal/engine"
	"github.com/talgya/bugworld/internal/geom"
	"github.com/talgya/bugworld/internal/terrain"
)

// Server serves the world state over HTTP.
type Server struct {
	Sim  *engine.Simulation
	Eng  *engine.Engine
	Port int
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/ecosystem", s.handleEcosystem)
	mux.HandleFunc("/api/v1/zones", s.handleZones)
	mux.HandleFunc("/api/v1/territories", s.handleTerritories)
	mux.HandleFunc("/api/v1/inputs", s.handleInputs)
	mux.HandleFunc("/api/v1/probe", s.handleProbe)

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"tick":    s.Eng.Tick,
		"running": s.Eng.Running,
		"speed":   s.Eng.Speed,
		"stats":   s.Sim.Stats(),
	})
}

func (s *Server) handleEcosystem(w http.ResponseWriter, r *http.Request) {
	inputs := s.Sim.EcosystemInputs()
	writeJSON(w, map[string]any{
		"stats":  s.Sim.Stats(),
		"inputs": inputs[:],
	})
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Export()
	writeJSON(w, map[string]any{
		"tick":  snap.Stats.Tick,
		"zones": snap.Zones,
	})
}

func (s *Server) handleTerritories(w http.ResponseWriter, r *http.Request) {
	type territoryEntry struct {
		PopulationID   uint64             `json:"population_id"`
		Min            geom.Vec3          `json:"min"`
		Max            geom.Vec3          `json:"max"`
		DominantLayer  string             `json:"dominant_layer"`
		OverallQuality float64            `json:"overall_quality"`
		LayerQualities map[string]float64 `json:"layer_qualities"`
		Contested      []string           `json:"contested_layers"`
		LastDefended   uint64             `json:"last_defended"`
	}

	snap := s.Sim.Export()
	entries := make([]territoryEntry, 0, len(snap.Territories))
	for _, t := range snap.Territories {
		qualities := make(map[string]float64, len(t.LayerQualities))
		for l, q := range t.LayerQualities {
			qualities[terrain.LayerName(l)] = q
		}
		contested := make([]string, 0, len(t.Contested))
		for _, l := range terrain.Layers {
			if t.Contested[l] {
				contested = append(contested, terrain.LayerName(l))
			}
		}
		entries = append(entries, territoryEntry{
			PopulationID:   t.PopulationID,
			Min:            t.Min,
			Max:            t.Max,
			DominantLayer:  terrain.LayerName(t.DominantLayer),
			OverallQuality: t.OverallQuality(),
			LayerQualities: qualities,
			Contested:      contested,
			LastDefended:   t.LastDefended,
		})
	}

	writeJSON(w, map[string]any{
		"tick":        snap.Stats.Tick,
		"territories": entries,
	})
}

// handleInputs returns both decision vectors for a position and population:
// GET /api/v1/inputs?x=..&y=..&z=..&population=..
func (s *Server) handleInputs(w http.ResponseWriter, r *http.Request) {
	pos := geom.Vec3{
		X: queryFloat(r, "x"),
		Y: queryFloat(r, "y"),
		Z: queryFloat(r, "z"),
	}
	popID, err := strconv.ParseUint(r.URL.Query().Get("population"), 10, 64)
	if err != nil {
		http.Error(w, "population query parameter required", http.StatusBadRequest)
		return
	}

	eco := s.Sim.EcosystemInputs()
	terr := s.Sim.TerritoryInputsAt(pos, popID)
	writeJSON(w, map[string]any{
		"ecosystem": eco[:],
		"territory": terr[:],
	})
}

// handleProbe returns the scalar point queries:
// GET /api/v1/probe?x=..&y=..
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	p := geom.Vec2{X: queryFloat(r, "x"), Y: queryFloat(r, "y")}
	writeJSON(w, map[string]any{
		"resource_health":     s.Sim.ResourceHealthAt(p),
		"population_pressure": s.Sim.PopulationPressureAt(p),
	})
}

func queryFloat(r *http.Request, key string) float64 {
	v, _ := strconv.ParseFloat(r.URL.Query().Get(key), 64)
	return v
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}
