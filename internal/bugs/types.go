// Package bugs provides the agent ("bug") and population data model plus
// the spawner that seeds the world. The contention engine reads these
// snapshots each tick; it never mutates them.
package bugs

import (
	"github.com/talgya/bugworld/internal/geom"
	"github.com/talgya/bugworld/internal/terrain"
)

// BugID is a unique identifier for a bug.
type BugID uint64

// Bug is a single autonomous agent competing for resources and territory.
type Bug struct {
	ID   BugID  `json:"id"`
	Name string `json:"name"`

	// Location. Position is full 3D; the horizontal projection is what the
	// resource field sees.
	Position geom.Vec3 `json:"position"`

	// Movement capabilities inflate the vertical reach of a population's
	// territory claim.
	CanFly   bool `json:"can_fly"`
	CanSwim  bool `json:"can_swim"`
	CanClimb bool `json:"can_climb"`

	// PreferredLayer is where this bug spends most of its time.
	PreferredLayer terrain.Layer `json:"preferred_layer"`

	// Membership in exactly one population, or none.
	PopulationID *uint64 `json:"population_id,omitempty"`

	BornTick uint64 `json:"born_tick"`
	Alive    bool   `json:"alive"`
}

// XY returns the bug's horizontal position.
func (b *Bug) XY() geom.Vec2 {
	return b.Position.XY()
}

// Population is a named group of bugs that claims one territory.
type Population struct {
	ID      uint64  `json:"id"`
	Name    string  `json:"name"`
	Members []BugID `json:"members"`

	// Anchor is the point the population drifts around. The migration system
	// retargets it when territory quality collapses.
	Anchor geom.Vec2 `json:"anchor"`
}

// LiveMembers returns the live bugs belonging to pop, in member order.
func LiveMembers(pop *Population, index map[BugID]*Bug) []*Bug {
	out := make([]*Bug, 0, len(pop.Members))
	for _, id := range pop.Members {
		if b, ok := index[id]; ok && b.Alive {
			out = append(out, b)
		}
	}
	return out
}
