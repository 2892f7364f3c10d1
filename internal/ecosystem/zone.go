// Package ecosystem provides the depletable resource field: circular
// resource zones harvested by bugs, population density tracking, and the
// global health aggregates fed to the decision system.
package ecosystem

import (
	"github.com/talgya/bugworld/internal/geom"
)

// Zone is a circular depletable resource patch. Health and Depletion are
// dual views of one state: Health == 1 - Depletion always.
type Zone struct {
	ID     uint64    `json:"id"`
	Center geom.Vec2 `json:"center"`
	Radius float64   `json:"radius"`

	Health    float64 `json:"health"`    // 0 depleted .. 1 fully productive
	Depletion float64 `json:"depletion"` // Inverse of health
	RegenRate float64 `json:"regen_rate"` // Fractional recovery per second

	LastActivity uint64 `json:"last_activity"` // Field age at last harvest
}

// NewZone creates a fully productive zone.
func NewZone(id uint64, center geom.Vec2, radius, regenRate float64) *Zone {
	return &Zone{
		ID:        id,
		Center:    center,
		Radius:    radius,
		Health:    1,
		Depletion: 0,
		RegenRate: regenRate,
	}
}

// Contains reports whether p falls inside the zone.
func (z *Zone) Contains(p geom.Vec2) bool {
	return geom.Dist(z.Center, p) <= z.Radius
}

// Harvest increases depletion by intensity, clamped to [0, 1].
func (z *Zone) Harvest(intensity float64) {
	z.Depletion = geom.Clamp01(z.Depletion + intensity)
	z.Health = 1 - z.Depletion
}

// Regenerate recovers depletion at RegenRate per second, clamped to [0, 1].
// Hostile dt values (negative, huge) cannot push the state out of range.
func (z *Zone) Regenerate(dt float64) {
	z.Depletion = geom.Clamp01(z.Depletion - z.RegenRate*dt)
	z.Health = 1 - z.Depletion
}
