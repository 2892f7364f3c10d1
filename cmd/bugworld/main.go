// Command bugworld runs the spatial resource-contention simulation: bug
// populations competing for depletable resource zones and 3D territory.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/talgya/bugworld/internal/api"
	"github.com/talgya/bugworld/internal/bugs"
	"github.com/talgya/bugworld/internal/config"
	"github.com/talgya/bugworld/internal/ecosystem"
	"github.com/talgya/bugworld/internal/engine"
	"github.com/talgya/bugworld/internal/entropy"
	"github.com/talgya/bugworld/internal/geom"
	"github.com/talgya/bugworld/internal/persistence"
	"github.com/talgya/bugworld/internal/terrain"
	"github.com/talgya/bugworld/internal/territory"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfgPath := os.Getenv("BUGWORLD_TUNING")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load tuning", "error", err)
		os.Exit(1)
	}
	slog.Info("bugworld starting", "seed", cfg.Seed, "tuning", cfgPath)

	// ── Terrain ───────────────────────────────────────────────────────
	genCfg := terrain.DefaultGenConfig()
	genCfg.W = cfg.TerrainW
	genCfg.H = cfg.TerrainH
	genCfg.CellSize = cfg.TerrainCellSize
	genCfg.Seed = cfg.Seed
	grid := terrain.Generate(genCfg)

	for class, count := range grid.ClassCounts() {
		slog.Info("terrain", "class", terrain.ClassName(class), "tiles", count)
	}

	// ── Randomness ────────────────────────────────────────────────────
	// Seeded PRNG for the core; random.org (when keyed) spices the
	// ecological shock cycle.
	var src entropy.Source = entropy.NewSeeded(cfg.Seed)
	if client := entropy.NewClient(os.Getenv("RANDOM_ORG_KEY")); client.Enabled() {
		slog.Info("random.org entropy enabled for ecological cycles")
		src = client
	}

	// ── Resource field ────────────────────────────────────────────────
	field := ecosystem.NewField(grid.Bounds(), cfg.CarryingCapacity, src)
	field.InitializeZones(grid)

	// ── Populations ───────────────────────────────────────────────────
	spawner := bugs.NewSpawner(cfg.Seed)
	anchorRng := entropy.NewSeeded(cfg.Seed + 100)
	bounds := grid.Bounds()

	var allPops []*bugs.Population
	var allBugs []*bugs.Bug
	for i := 0; i < cfg.Populations; i++ {
		anchor := geom.Vec2{
			X: entropy.Between(anchorRng, bounds.Min.X+100, bounds.Max.X-100),
			Y: entropy.Between(anchorRng, bounds.Min.Y+100, bounds.Max.Y-100),
		}
		pop, members := spawner.SpawnPopulation(
			uint64(i+1),
			fmt.Sprintf("colony-%d", i+1),
			cfg.BugsPerPopulation,
			anchor,
			cfg.SpawnSpread,
		)
		allPops = append(allPops, pop)
		allBugs = append(allBugs, members...)
		slog.Info("population spawned", "name", pop.Name, "bugs", len(members), "anchor_x", anchor.X, "anchor_y", anchor.Y)
	}

	// ── Simulation ────────────────────────────────────────────────────
	claims := territory.NewManager(src)
	sim := engine.NewSimulation(grid, allPops, allBugs, field, claims, src)

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.DBPath, cfg.Seed)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath, "run", db.RunID())

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Interval = time.Duration(cfg.TickIntervalMs) * time.Millisecond
	eng.OnTick = sim.Tick
	eng.OnReport = sim.Report
	eng.OnSnapshot = func(tick uint64) {
		if err := db.SaveSnapshot(sim); err != nil {
			slog.Error("snapshot save failed", "tick", tick, "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	apiServer := &api.Server{Sim: sim, Eng: eng, Port: cfg.APIPort}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("\nBugworld is alive: %d bugs in %d colonies over %d resource zones.\n",
		len(allBugs), len(allPops), len(field.Zones))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.APIPort)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	// Final snapshot on shutdown.
	if err := db.SaveSnapshot(sim); err != nil {
		slog.Error("final snapshot failed", "error", err)
	}
	fmt.Println("Simulation stopped.")
}
