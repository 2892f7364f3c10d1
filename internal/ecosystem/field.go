// The resource field manager: owns all zones and the population density
// grid, advances harvest/regeneration each tick, and aggregates global
// ecosystem health.
package ecosystem

import (
	"log/slog"

	"github.com/talgya/bugworld/internal/bugs"
	"github.com/talgya/bugworld/internal/entropy"
	"github.com/talgya/bugworld/internal/geom"
	"github.com/talgya/bugworld/internal/terrain"
)

const (
	// GridResolution is the density grid edge length in cells.
	GridResolution = 20

	// DefaultZoneRadius is the radius of zones seeded from resource tiles.
	// Distinct from terrain generation tuning.
	DefaultZoneRadius = 80.0

	// DefaultRegenRate is the per-second fractional recovery of new zones.
	DefaultRegenRate = 0.002

	// consumeDistance is how close a bug must be to a food target to count
	// as actively consuming this tick.
	consumeDistance = 30.0

	// HarvestRatePerBug is the depletion added per actively consuming bug.
	HarvestRatePerBug = 0.004

	// idealFoodRatio is the food-per-bug ratio considered fully healthy.
	idealFoodRatio = 10.0

	// Major cycle interval bounds, in ticks.
	cycleMinTicks = 50
	cycleMaxTicks = 100

	// newZoneChance is the probability a major cycle spawns a fresh zone.
	newZoneChance = 0.3

	// Pressure queries normalize against a fixed reference world size rather
	// than the stored bounds. Preserved from the original behavior; see
	// DESIGN.md before touching.
	pressureRefWidth  = 2000.0
	pressureRefHeight = 1500.0
)

// Field owns the resource zones and the population density grid. It is
// updated once per tick by the simulation loop; queries are pure.
type Field struct {
	Zones   []*Zone
	Density [GridResolution * GridResolution]int

	// Aggregates recomputed each tick.
	GlobalResourceHealth        float64
	AveragePopulationPressure   float64
	CarryingCapacityUtilization float64

	Age               uint64
	LastMajorCycleAge uint64

	bounds   geom.Rect
	capacity int

	src           entropy.Source
	nextZoneID    uint64
	nextCycleTick uint64 // Age at which the next major cycle fires
}

// NewField creates an empty resource field over the given world bounds.
// capacity is the configured maximum sustainable bug count. All randomness
// (cycle timing, shocks, new zones) draws from src.
func NewField(bounds geom.Rect, capacity int, src entropy.Source) *Field {
	f := &Field{
		GlobalResourceHealth: 1,
		bounds:               bounds,
		capacity:             capacity,
		src:                  src,
		nextZoneID:           1,
	}
	f.scheduleNextCycle()
	return f
}

// Bounds returns the world rectangle the field covers.
func (f *Field) Bounds() geom.Rect {
	return f.bounds
}

// InitializeZones seeds one zone per resource-classified tile not already
// covered by an existing zone. The covered check merges clusters of
// adjacent resource tiles into a single zone.
func (f *Field) InitializeZones(g *terrain.Grid) {
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			if g.ClassAt(x, y) != terrain.ClassResource {
				continue
			}
			center := g.TileCenter(x, y)
			if f.zoneCovering(center) != nil {
				continue
			}
			f.Zones = append(f.Zones, NewZone(f.nextZoneID, center, DefaultZoneRadius, DefaultRegenRate))
			f.nextZoneID++
		}
	}
	slog.Info("resource zones seeded", "zones", len(f.Zones))
}

func (f *Field) zoneCovering(p geom.Vec2) *Zone {
	for _, z := range f.Zones {
		if z.Contains(p) {
			return z
		}
	}
	return nil
}

// Update advances the field by one tick: density grid rebuild, per-zone
// harvest and regeneration, aggregate recomputation, and the stochastic
// major-cycle trigger. bugList and food are read-only snapshots;
// populationCount is the total live bug count.
func (f *Field) Update(bugList []*bugs.Bug, food []geom.Vec2, populationCount int, dt float64) {
	f.rebuildDensity(bugList)

	for _, z := range f.Zones {
		active := 0
		for _, b := range bugList {
			if !b.Alive || !z.Contains(b.XY()) {
				continue
			}
			if nearFood(b.XY(), food) {
				active++
			}
		}
		if active > 0 {
			z.Harvest(float64(active) * HarvestRatePerBug)
			z.LastActivity = f.Age
		}
		z.Regenerate(dt)
	}

	f.recomputeAggregates(bugList, food, populationCount)

	f.Age++
	if f.Age >= f.nextCycleTick {
		f.TriggerMajorCycle()
		f.LastMajorCycleAge = f.Age
		f.scheduleNextCycle()
	}
}

// rebuildDensity recomputes the grid from scratch; no stale counts survive
// across ticks. Out-of-bounds bugs clamp into edge cells rather than drop.
func (f *Field) rebuildDensity(bugList []*bugs.Bug) {
	f.Density = [GridResolution * GridResolution]int{}
	for _, b := range bugList {
		if !b.Alive {
			continue
		}
		cx, cy := f.cellFor(b.XY(), f.bounds.Width(), f.bounds.Height(), f.bounds.Min)
		f.Density[cy*GridResolution+cx]++
	}
}

func (f *Field) cellFor(p geom.Vec2, w, h float64, origin geom.Vec2) (int, int) {
	cx, cy := 0, 0
	if w > 0 {
		cx = int((p.X - origin.X) / w * GridResolution)
	}
	if h > 0 {
		cy = int((p.Y - origin.Y) / h * GridResolution)
	}
	return clampIndex(cx), clampIndex(cy)
}

func clampIndex(i int) int {
	if i < 0 {
		return 0
	}
	if i >= GridResolution {
		return GridResolution - 1
	}
	return i
}

func nearFood(p geom.Vec2, food []geom.Vec2) bool {
	for _, t := range food {
		if geom.Dist(p, t) <= consumeDistance {
			return true
		}
	}
	return false
}

func (f *Field) recomputeAggregates(bugList []*bugs.Bug, food []geom.Vec2, populationCount int) {
	alive := 0
	for _, b := range bugList {
		if b.Alive {
			alive++
		}
	}

	// Food availability: food per bug against the ideal ratio. With no bugs
	// the raw food count stands in for the ratio.
	foodAvail := float64(len(food))
	if alive > 0 {
		foodAvail = float64(len(food)) / (float64(alive) * idealFoodRatio)
	}
	if foodAvail > 1 {
		foodAvail = 1
	}

	zoneHealth := 1.0
	if len(f.Zones) > 0 {
		sum := 0.0
		for _, z := range f.Zones {
			sum += z.Health
		}
		zoneHealth = sum / float64(len(f.Zones))
	}

	f.GlobalResourceHealth = foodAvail*0.7 + zoneHealth*0.3

	total := 0
	for _, c := range f.Density {
		total += c
	}
	f.AveragePopulationPressure = float64(total) / float64(GridResolution*GridResolution)

	f.CarryingCapacityUtilization = 0
	if f.capacity > 0 {
		f.CarryingCapacityUtilization = float64(populationCount) / float64(f.capacity)
	}
}

// scheduleNextCycle draws the next major-cycle interval uniformly from the
// configured tick range.
func (f *Field) scheduleNextCycle() {
	interval := cycleMinTicks + entropy.IntN(f.src, cycleMaxTicks-cycleMinTicks+1)
	f.nextCycleTick = f.Age + uint64(interval)
}

// TriggerMajorCycle applies a stochastic ecological regime shift: every zone
// takes a random health delta and regeneration jitter, a new zone may
// appear, and zones that collapsed below 0.1 health are removed. This runs
// independent of bug activity (droughts, blooms).
func (f *Field) TriggerMajorCycle() {
	survivors := f.Zones[:0]
	removed := 0
	for _, z := range f.Zones {
		h := z.Health + entropy.Between(f.src, -0.3, 0.5)
		if h > 1 {
			h = 1
		}
		if h < 0.1 {
			removed++
			continue
		}
		z.Health = h
		z.Depletion = 1 - h
		z.RegenRate *= entropy.Between(f.src, 0.8, 1.4)
		survivors = append(survivors, z)
	}
	f.Zones = survivors

	spawned := false
	if f.src.Float64() < newZoneChance {
		center := geom.Vec2{
			X: entropy.Between(f.src, f.bounds.Min.X, f.bounds.Max.X),
			Y: entropy.Between(f.src, f.bounds.Min.Y, f.bounds.Max.Y),
		}
		radius := entropy.Between(f.src, DefaultZoneRadius*0.5, DefaultZoneRadius*1.5)
		f.Zones = append(f.Zones, NewZone(f.nextZoneID, center, radius, DefaultRegenRate))
		f.nextZoneID++
		spawned = true
	}

	slog.Info("ecological cycle",
		"age", f.Age,
		"zones", len(f.Zones),
		"removed", removed,
		"spawned", spawned,
	)
}

// ResourceHealthAt returns the health of the first zone containing p, or
// 1.0 (pristine default) when no zone covers it. Pure query.
func (f *Field) ResourceHealthAt(p geom.Vec2) float64 {
	if z := f.zoneCovering(p); z != nil {
		return z.Health
	}
	return 1.0
}

// PopulationPressureAt returns the raw density count of the grid cell
// containing p, mapped with the fixed reference world size.
func (f *Field) PopulationPressureAt(p geom.Vec2) float64 {
	cx, cy := f.cellFor(p, pressureRefWidth, pressureRefHeight, geom.Vec2{})
	return float64(f.Density[cy*GridResolution+cx])
}

// FoodSpawnModifier scales external food spawning by ecosystem health.
func (f *Field) FoodSpawnModifier() float64 {
	if f.GlobalResourceHealth < 0.1 {
		return 0.1
	}
	return f.GlobalResourceHealth
}

// SurvivalPressureModifier rises above 1 when the world is over capacity.
func (f *Field) SurvivalPressureModifier() float64 {
	if f.CarryingCapacityUtilization > 1 {
		return 1 + (f.CarryingCapacityUtilization-1)*0.5
	}
	return 1
}

// EcosystemInputCount is the length of the EcosystemInputs vector. The
// order and count are a versioned contract with the decision system.
const EcosystemInputCount = 6

// EcosystemInputs returns the fixed-order normalized feature vector
// consumed by the bug decision system.
func (f *Field) EcosystemInputs() [EcosystemInputCount]float64 {
	stress := 0.0
	if f.GlobalResourceHealth < 0.5 || f.CarryingCapacityUtilization > 1.2 {
		stress = 1
	}

	pressure := f.AveragePopulationPressure / 10
	if pressure > 1 {
		pressure = 1
	}

	return [EcosystemInputCount]float64{
		f.GlobalResourceHealth,
		pressure,
		f.CarryingCapacityUtilization,
		stress,
		f.FoodSpawnModifier(),
		f.SurvivalPressureModifier() - 1,
	}
}
