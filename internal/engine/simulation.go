// Simulation ties the world systems together and advances them each tick in
// the fixed contention order: bug drift, resource field, territorial claims.
package engine

import (
	"log/slog"
	"math"
	"sync"

	"github.com/talgya/bugworld/internal/bugs"
	"github.com/talgya/bugworld/internal/ecosystem"
	"github.com/talgya/bugworld/internal/entropy"
	"github.com/talgya/bugworld/internal/geom"
	"github.com/talgya/bugworld/internal/terrain"
	"github.com/talgya/bugworld/internal/territory"
)

const (
	foodRefreshTicks = 30  // How often the food target set is reseeded
	foodPerZone      = 3.0 // Base food targets per zone before the modifier
)

// Simulation holds the complete world state and wires systems together.
// Tick runs on the engine goroutine; query methods are safe to call from
// HTTP handlers and never observe a half-updated tick.
type Simulation struct {
	mu sync.RWMutex

	Terrain     *terrain.Grid
	Bugs        []*bugs.Bug
	BugIndex    map[bugs.BugID]*bugs.Bug
	Populations []*bugs.Population
	Food        []geom.Vec2

	Field  *ecosystem.Field
	Claims *territory.Manager

	LastTick uint64

	popIndex map[uint64]*bugs.Population
	rng      entropy.Source
}

// SimStats is the aggregate view exposed to the API and logs.
type SimStats struct {
	Tick            uint64  `json:"tick"`
	Bugs            int     `json:"bugs"`
	Populations     int     `json:"populations"`
	Zones           int     `json:"zones"`
	FoodTargets     int     `json:"food_targets"`
	GlobalHealth    float64 `json:"global_health"`
	MeanZoneHealth  float64 `json:"mean_zone_health"`
	AvgPressure     float64 `json:"avg_pressure"`
	Utilization     float64 `json:"utilization"`
	Territories     int     `json:"territories"`
	ContestedLayers int     `json:"contested_layers"`
}

// NewSimulation assembles a simulation from generated components. Migration
// signals from the claim manager retarget population anchors here — the
// harness is the population-movement system.
func NewSimulation(grid *terrain.Grid, pops []*bugs.Population, bugList []*bugs.Bug, field *ecosystem.Field, claims *territory.Manager, rng entropy.Source) *Simulation {
	index := make(map[bugs.BugID]*bugs.Bug, len(bugList))
	for _, b := range bugList {
		index[b.ID] = b
	}
	popIndex := make(map[uint64]*bugs.Population, len(pops))
	for _, p := range pops {
		popIndex[p.ID] = p
	}

	s := &Simulation{
		Terrain:     grid,
		Bugs:        bugList,
		BugIndex:    index,
		Populations: pops,
		Field:       field,
		Claims:      claims,
		popIndex:    popIndex,
		rng:         rng,
	}
	claims.OnMigration = s.onMigration
	return s
}

// Tick advances the world by one tick in the fixed order: drift, food,
// resource field, territorial claims.
func (s *Simulation) Tick(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastTick = tick

	bounds := s.Terrain.Bounds3D()
	for _, b := range s.Bugs {
		anchor := b.XY()
		if b.PopulationID != nil {
			if p, ok := s.popIndex[*b.PopulationID]; ok {
				anchor = p.Anchor
			}
		}
		bugs.Wander(b, anchor, s.rng, bounds, TickSeconds)
	}

	if tick%foodRefreshTicks == 1 || len(s.Food) == 0 {
		s.refreshFood()
	}

	alive := 0
	for _, b := range s.Bugs {
		if b.Alive {
			alive++
		}
	}

	s.Field.Update(s.Bugs, s.Food, alive, TickSeconds)
	s.Claims.Update(s.Populations, s.BugIndex, bounds, s.Field)
}

// refreshFood reseeds the food target set inside resource zones, scaled by
// the ecosystem's food-spawn modifier.
func (s *Simulation) refreshFood() {
	mod := s.Field.FoodSpawnModifier()
	n := int(math.Round(foodPerZone * mod))
	if n < 1 {
		n = 1
	}

	s.Food = s.Food[:0]
	for _, z := range s.Field.Zones {
		for i := 0; i < n; i++ {
			angle := s.rng.Float64() * 2 * math.Pi
			dist := math.Sqrt(s.rng.Float64()) * z.Radius
			s.Food = append(s.Food, geom.Vec2{
				X: z.Center.X + math.Cos(angle)*dist,
				Y: z.Center.Y + math.Sin(angle)*dist,
			})
		}
	}
}

// onMigration retargets a population's anchor. Called by the claim manager
// during Tick, so the lock is already held.
func (s *Simulation) onMigration(populationID uint64, target geom.Vec2) {
	if p, ok := s.popIndex[populationID]; ok {
		p.Anchor = target
	}
}

// Report logs the periodic ecology summary.
func (s *Simulation) Report(tick uint64) {
	st := s.Stats()
	slog.Info("ecology report",
		"tick", tick,
		"bugs", st.Bugs,
		"zones", st.Zones,
		"global_health", round3(st.GlobalHealth),
		"mean_zone_health", round3(st.MeanZoneHealth),
		"pressure", round3(st.AvgPressure),
		"utilization", round3(st.Utilization),
		"territories", st.Territories,
		"contested_layers", st.ContestedLayers,
	)
}

// Stats returns the aggregate world view.
func (s *Simulation) Stats() SimStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked()
}

func (s *Simulation) statsLocked() SimStats {
	alive := 0
	for _, b := range s.Bugs {
		if b.Alive {
			alive++
		}
	}

	zoneHealth := 0.0
	for _, z := range s.Field.Zones {
		zoneHealth += z.Health
	}
	if len(s.Field.Zones) > 0 {
		zoneHealth /= float64(len(s.Field.Zones))
	}

	contested := 0
	for _, t := range s.Claims.Territories {
		contested += len(t.Contested)
	}

	return SimStats{
		Tick:            s.LastTick,
		Bugs:            alive,
		Populations:     len(s.Populations),
		Zones:           len(s.Field.Zones),
		FoodTargets:     len(s.Food),
		GlobalHealth:    s.Field.GlobalResourceHealth,
		MeanZoneHealth:  zoneHealth,
		AvgPressure:     s.Field.AveragePopulationPressure,
		Utilization:     s.Field.CarryingCapacityUtilization,
		Territories:     len(s.Claims.Territories),
		ContestedLayers: contested,
	}
}

// EcosystemInputs returns the 6-element decision vector for the current tick.
func (s *Simulation) EcosystemInputs() [ecosystem.EcosystemInputCount]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Field.EcosystemInputs()
}

// ResourceHealthAt returns the zone health at a point, 1.0 outside zones.
func (s *Simulation) ResourceHealthAt(p geom.Vec2) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Field.ResourceHealthAt(p)
}

// PopulationPressureAt returns the density count at a point.
func (s *Simulation) PopulationPressureAt(p geom.Vec2) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Field.PopulationPressureAt(p)
}

// TerritoryInputsAt returns the 12-element decision vector for a population
// member at pos.
func (s *Simulation) TerritoryInputsAt(pos geom.Vec3, populationID uint64) [territory.TerritoryInputCount]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Claims.TerritoryInputsAt(pos, populationID)
}

// WorldSnapshot is a consistent copy of one tick's engine state, taken for
// persistence and API bulk reads.
type WorldSnapshot struct {
	Stats       SimStats              `json:"stats"`
	Zones       []ecosystem.Zone      `json:"zones"`
	Territories []territory.Territory `json:"territories"`
}

// Export copies the current tick's state under one lock so consumers never
// observe a half-updated world.
func (s *Simulation) Export() WorldSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := WorldSnapshot{
		Stats:       s.statsLocked(),
		Zones:       make([]ecosystem.Zone, 0, len(s.Field.Zones)),
		Territories: make([]territory.Territory, 0, len(s.Claims.Territories)),
	}
	for _, z := range s.Field.Zones {
		snap.Zones = append(snap.Zones, *z)
	}
	for _, t := range s.Claims.Territories {
		snap.Territories = append(snap.Territories, *t)
	}
	return snap
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
