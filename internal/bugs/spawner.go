// Bug spawning — creates the initial populations with capabilities and
// layer preferences.
package bugs

import (
	"fmt"
	"math/rand"

	"github.com/talgya/bugworld/internal/geom"
	"github.com/talgya/bugworld/internal/terrain"
)

// Spawner creates bugs for the simulation.
type Spawner struct {
	rng    *rand.Rand
	nextID BugID
}

// NewSpawner creates a bug spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng:    rand.New(rand.NewSource(seed + 300)),
		nextID: 1,
	}
}

// SetNextID sets the next bug ID to be issued.
func (s *Spawner) SetNextID(id BugID) {
	s.nextID = id
}

// SpawnPopulation creates a population of count bugs clustered around anchor.
// Capabilities are drawn per bug; the preferred layer follows from them.
func (s *Spawner) SpawnPopulation(popID uint64, name string, count int, anchor geom.Vec2, spread float64) (*Population, []*Bug) {
	pop := &Population{
		ID:      popID,
		Name:    name,
		Anchor:  anchor,
		Members: make([]BugID, 0, count),
	}

	out := make([]*Bug, 0, count)
	for i := 0; i < count; i++ {
		b := s.spawnOne(popID, name, anchor, spread)
		pop.Members = append(pop.Members, b.ID)
		out = append(out, b)
	}
	return pop, out
}

func (s *Spawner) spawnOne(popID uint64, popName string, anchor geom.Vec2, spread float64) *Bug {
	id := s.nextID
	s.nextID++

	canFly := s.rng.Float64() < 0.25
	canSwim := s.rng.Float64() < 0.20
	canClimb := s.rng.Float64() < 0.35

	layer := s.preferredLayer(canFly, canClimb)

	pid := popID
	return &Bug{
		ID:   id,
		Name: fmt.Sprintf("%s-%d", popName, id),
		Position: geom.Vec3{
			X: anchor.X + (s.rng.Float64()*2-1)*spread,
			Y: anchor.Y + (s.rng.Float64()*2-1)*spread,
			Z: terrain.LayerHeight(layer),
		},
		CanFly:         canFly,
		CanSwim:        canSwim,
		CanClimb:       canClimb,
		PreferredLayer: layer,
		PopulationID:   &pid,
		Alive:          true,
	}
}

// preferredLayer picks a stratum consistent with the bug's capabilities.
func (s *Spawner) preferredLayer(canFly, canClimb bool) terrain.Layer {
	switch {
	case canFly && s.rng.Float64() < 0.7:
		return terrain.LayerAerial
	case canClimb && s.rng.Float64() < 0.6:
		return terrain.LayerCanopy
	case s.rng.Float64() < 0.15:
		return terrain.LayerUnderground
	default:
		return terrain.LayerSurface
	}
}
