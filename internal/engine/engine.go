// Package engine provides the tick-based simulation loop and the wiring
// between the bug population, the resource field, and the claim manager.
package engine

import (
	"log/slog"
	"time"
)

// Tick cadences. Every tick advances the contention core; reports and
// persistence snapshots run on slower layers.
const (
	TicksPerReport   = 120 // Ecology summary log
	TicksPerSnapshot = 600 // Persistence snapshot

	// TickSeconds is the simulated duration of one tick, fed to the
	// ecosystem regeneration as deltaTime.
	TickSeconds = 1.0
)

// Engine drives the simulation forward.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Base tick interval (default 1 second)
	Running  bool

	// Callbacks for each tick layer — populated during setup.
	OnTick     func(tick uint64) // Every tick
	OnReport   func(tick uint64) // Every TicksPerReport ticks
	OnSnapshot func(tick uint64) // Every TicksPerSnapshot ticks
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Speed:    1.0,
		Interval: time.Second,
	}
}

// Run starts the simulation loop. Blocks until Stop() is called.
func (e *Engine) Run() {
	e.Running = true
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed)

	for e.Running {
		if e.Speed <= 0 {
			// Paused — sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// Stop halts the simulation loop.
func (e *Engine) Stop() {
	e.Running = false
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}
	if e.Tick%TicksPerReport == 0 && e.OnReport != nil {
		e.OnReport(e.Tick)
	}
	if e.Tick%TicksPerSnapshot == 0 && e.OnSnapshot != nil {
		e.OnSnapshot(e.Tick)
	}
}
