// Wander behavior for the harness simulation loop. The contention engine
// itself never moves bugs; this drift exists so a running world exercises
// harvesting and territory churn.
package bugs

import (
	"math"

	"github.com/talgya/bugworld/internal/entropy"
	"github.com/talgya/bugworld/internal/geom"
	"github.com/talgya/bugworld/internal/terrain"
)

const (
	wanderSpeed = 12.0 // World units per second of random drift
	homingSpeed = 20.0 // Pull toward the population anchor when far away
	homingRange = 250.0
)

// Wander drifts a bug randomly, biased back toward its population anchor,
// and settles its height toward the preferred layer. Positions are clamped
// to world bounds.
func Wander(b *Bug, anchor geom.Vec2, src entropy.Source, bounds geom.Box, dt float64) {
	if !b.Alive {
		return
	}

	angle := src.Float64() * 2 * math.Pi
	b.Position.X += math.Cos(angle) * wanderSpeed * dt
	b.Position.Y += math.Sin(angle) * wanderSpeed * dt

	// Pull toward the anchor when the bug strays too far.
	if d := geom.Dist(b.XY(), anchor); d > homingRange {
		b.Position.X += (anchor.X - b.Position.X) / d * homingSpeed * dt
		b.Position.Y += (anchor.Y - b.Position.Y) / d * homingSpeed * dt
	}

	// Settle height toward the preferred layer's representative height.
	target := terrain.LayerHeight(b.PreferredLayer)
	b.Position.Z += (target - b.Position.Z) * 0.5 * dt

	b.Position.X = geom.Clamp(b.Position.X, bounds.Min.X, bounds.Max.X)
	b.Position.Y = geom.Clamp(b.Position.Y, bounds.Min.Y, bounds.Max.Y)
	b.Position.Z = geom.Clamp(b.Position.Z, bounds.Min.Z, bounds.Max.Z)
}
