// The territorial claim manager: recomputes one territory per population
// every tick from member positions, samples layer quality against the
// resource field, and resolves conflicts between overlapping claims.
package territory

import (
	"log/slog"
	"sort"

	"github.com/talgya/bugworld/internal/bugs"
	"github.com/talgya/bugworld/internal/ecosystem"
	"github.com/talgya/bugworld/internal/entropy"
	"github.com/talgya/bugworld/internal/geom"
	"github.com/talgya/bugworld/internal/terrain"
)

const (
	// samplesPerLayer is the Monte-Carlo sample count for layer quality.
	// Repeated updates in one tick will not agree exactly; consumers get an
	// estimate, not a deterministic function.
	samplesPerLayer = 25

	// baseMargin is the horizontal claim margin before population scaling.
	baseMargin = 20.0

	// dominanceBonus favors the incumbent dominant layer during resolution.
	dominanceBonus = 0.2

	// loserPenalty multiplies a losing claimant's layer quality.
	loserPenalty = 0.3

	// Migration policy.
	migrationThreshold  = 0.8
	migrationCandidates = 20

	// Aerial quality improves above this height, underground below this depth.
	aerialBonusHeight   = 30.0
	undergroundBonusCap = -5.0
)

// MigrationFunc receives a population id and a suggested 2D target when
// migration urgency crosses the threshold. The claim manager never moves
// bugs itself.
type MigrationFunc func(populationID uint64, target geom.Vec2)

// Manager owns all territories, keyed by population id.
type Manager struct {
	Territories map[uint64]*Territory

	// OnMigration, when set, is called for populations that should seek new
	// ground.
	OnMigration MigrationFunc

	src         entropy.Source
	nextID      uint64
	age         uint64
	worldBounds geom.Box
}

// NewManager creates an empty claim manager drawing randomness from src.
func NewManager(src entropy.Source) *Manager {
	return &Manager{
		Territories: make(map[uint64]*Territory),
		src:         src,
		nextID:      1,
	}
}

// Update runs the full per-tick claim pass in the fixed order:
// reconciliation, bounds computation, quality sampling, conflict detection,
// conflict resolution, migration check. index maps bug ids to bugs.
func (m *Manager) Update(pops []*bugs.Population, index map[bugs.BugID]*bugs.Bug, worldBounds geom.Box, field *ecosystem.Field) {
	m.age++
	m.worldBounds = worldBounds

	live := make(map[uint64][]*bugs.Bug, len(pops))
	for _, p := range pops {
		members := bugs.LiveMembers(p, index)
		if len(members) > 0 {
			live[p.ID] = members
		}
	}

	// Reconciliation: drop claims of vanished or emptied populations.
	for popID := range m.Territories {
		if _, ok := live[popID]; !ok {
			slog.Debug("territory released", "population", popID)
			delete(m.Territories, popID)
		}
	}

	// Bounds + quality per surviving population.
	for _, p := range pops {
		members, ok := live[p.ID]
		if !ok {
			continue
		}
		m.updateClaim(p.ID, members, worldBounds, field)
	}

	groups := m.detectConflicts()
	m.resolveConflicts(groups)
	m.checkMigration(live, field)
}

// updateClaim recomputes one population's claim in place, creating it on
// first sight.
func (m *Manager) updateClaim(popID uint64, members []*bugs.Bug, worldBounds geom.Box, field *ecosystem.Field) {
	t, ok := m.Territories[popID]
	if !ok {
		t = &Territory{
			ID:           m.nextID,
			PopulationID: popID,
		}
		m.nextID++
		m.Territories[popID] = t
	}

	box := memberBounds(members)

	// Margin scales with population size, capped at 3x.
	sizeScale := 1 + float64(len(members))/10
	if sizeScale > 3 {
		sizeScale = 3
	}
	margin := sizeScale * baseMargin

	// Movement capabilities stretch the vertical reach multiplicatively.
	vmargin := margin
	var fly, swim, climb bool
	for _, b := range members {
		fly = fly || b.CanFly
		swim = swim || b.CanSwim
		climb = climb || b.CanClimb
	}
	if fly {
		vmargin *= 1.5
	}
	if swim {
		vmargin *= 1.3
	}
	if climb {
		vmargin *= 1.2
	}

	box = box.Expand(margin, vmargin).Clamp(worldBounds)
	t.Min = box.Min
	t.Max = box.Max

	// Provisional dominant layer from member preference, replaced by the
	// quality argmax below once layers are scored.
	t.DominantLayer = preferredLayerTally(members)

	t.LayerQualities = make(map[terrain.Layer]float64, len(terrain.Layers))
	for _, l := range terrain.Layers {
		t.LayerQualities[l] = m.sampleLayerQuality(t, l, field)
	}
	t.recomputeDominant()

	t.Contested = make(map[terrain.Layer]bool)
}

// memberBounds returns the tight bounding box of member positions.
func memberBounds(members []*bugs.Bug) geom.Box {
	box := geom.Box{Min: members[0].Position, Max: members[0].Position}
	for _, b := range members[1:] {
		p := b.Position
		if p.X < box.Min.X {
			box.Min.X = p.X
		}
		if p.Y < box.Min.Y {
			box.Min.Y = p.Y
		}
		if p.Z < box.Min.Z {
			box.Min.Z = p.Z
		}
		if p.X > box.Max.X {
			box.Max.X = p.X
		}
		if p.Y > box.Max.Y {
			box.Max.Y = p.Y
		}
		if p.Z > box.Max.Z {
			box.Max.Z = p.Z
		}
	}
	return box
}

// preferredLayerTally returns the most frequent preferred layer among
// members. Ties keep whichever layer reached the winning count first.
func preferredLayerTally(members []*bugs.Bug) terrain.Layer {
	counts := make(map[terrain.Layer]int)
	best := members[0].PreferredLayer
	bestCount := 0
	for _, b := range members {
		counts[b.PreferredLayer]++
		if counts[b.PreferredLayer] > bestCount {
			bestCount = counts[b.PreferredLayer]
			best = b.PreferredLayer
		}
	}
	return best
}

// sampleLayerQuality Monte-Carlo estimates layer quality: uniform points in
// the horizontal extent at the layer's representative height, scored from
// resource health discounted by crowding, then layer-modified.
func (m *Manager) sampleLayerQuality(t *Territory, l terrain.Layer, field *ecosystem.Field) float64 {
	h := terrain.LayerHeight(l)
	var sum float64
	for i := 0; i < samplesPerLayer; i++ {
		p := geom.Vec2{
			X: entropy.Between(m.src, t.Min.X, t.Max.X),
			Y: entropy.Between(m.src, t.Min.Y, t.Max.Y),
		}
		pressure := field.PopulationPressureAt(p) / 10
		if pressure > 1 {
			pressure = 1
		}
		q := field.ResourceHealthAt(p) * (1 - pressure)
		sum += q * layerModifier(l, h)
	}
	return geom.Clamp01(sum / samplesPerLayer)
}

// layerModifier is the fixed per-layer quality scale, with altitude bonuses
// for high aerial and deep underground claims.
func layerModifier(l terrain.Layer, height float64) float64 {
	switch l {
	case terrain.LayerAerial:
		mod := 0.8
		if height > aerialBonusHeight {
			mod += 0.3
		}
		return mod
	case terrain.LayerCanopy:
		return 1.2
	case terrain.LayerSurface:
		return 1.0
	case terrain.LayerUnderground:
		mod := 0.6
		if height < undergroundBonusCap {
			mod += 0.2
		}
		return mod
	}
	return 1.0
}

// detectConflicts marks contested layers on every overlapping pair and
// returns the transitive conflict groups (union-find over contesting pairs).
func (m *Manager) detectConflicts() [][]*Territory {
	ids := sortedPopIDs(m.Territories)

	parent := make(map[uint64]uint64, len(ids))
	for _, id := range ids {
		parent[id] = id
	}
	var find func(uint64) uint64
	find = func(x uint64) uint64 {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b uint64) {
		parent[find(a)] = find(b)
	}

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a := m.Territories[ids[i]]
			b := m.Territories[ids[j]]
			if !a.Bounds().Intersects(b.Bounds()) {
				continue
			}

			aLo, aHi := a.VerticalRange()
			bLo, bHi := b.VerticalRange()
			contested := false
			for _, l := range terrain.Layers {
				if bandIntersects(l, aLo, aHi) && bandIntersects(l, bLo, bHi) {
					a.Contested[l] = true
					b.Contested[l] = true
					contested = true
				}
			}
			if contested {
				union(ids[i], ids[j])
			}
		}
	}

	byRoot := make(map[uint64][]*Territory)
	for _, id := range ids {
		root := find(id)
		byRoot[root] = append(byRoot[root], m.Territories[id])
	}

	var groups [][]*Territory
	for _, members := range byRoot {
		if len(members) > 1 {
			sort.Slice(members, func(i, j int) bool {
				return members[i].PopulationID < members[j].PopulationID
			})
			groups = append(groups, members)
		}
	}
	return groups
}

// resolveConflicts awards each disputed layer to the strongest claimant.
// Winners shed the contested mark; losers take the quality penalty.
func (m *Manager) resolveConflicts(groups [][]*Territory) {
	for _, group := range groups {
		for _, l := range terrain.Layers {
			var claimants []*Territory
			for _, t := range group {
				if t.Contested[l] || t.DominantLayer == l {
					claimants = append(claimants, t)
				}
			}
			if len(claimants) == 0 {
				continue
			}

			var winner *Territory
			bestScore := -1.0
			for _, t := range claimants {
				score := t.QualityAt(l)
				if t.DominantLayer == l {
					score += dominanceBonus
				}
				if score > bestScore {
					bestScore = score
					winner = t
				}
			}

			delete(winner.Contested, l)
			winner.LastDefended = m.age

			for _, t := range claimants {
				if t == winner {
					continue
				}
				if t.Contested[l] {
					t.LayerQualities[l] *= loserPenalty
					delete(t.Contested, l)
				}
			}
			// Penalties may have shifted the quality ordering.
			for _, t := range claimants {
				t.recomputeDominant()
			}
		}
	}
}

// checkMigration computes urgency per population and signals a target when
// it crosses the threshold. Candidate selection is unweighted: the first
// sampled point wins (see DESIGN.md).
func (m *Manager) checkMigration(live map[uint64][]*bugs.Bug, field *ecosystem.Field) {
	if m.OnMigration == nil {
		return
	}

	overUtil := field.CarryingCapacityUtilization - 1
	if overUtil < 0 {
		overUtil = 0
	}

	for _, popID := range sortedPopIDs(m.Territories) {
		t := m.Territories[popID]
		if _, ok := live[popID]; !ok {
			continue
		}

		urgency := 1 - t.OverallQuality()
		if overUtil > urgency {
			urgency = overUtil
		}
		if urgency <= migrationThreshold {
			continue
		}

		candidates := make([]geom.Vec2, 0, migrationCandidates)
		for i := 0; i < migrationCandidates; i++ {
			candidates = append(candidates, geom.Vec2{
				X: entropy.Between(m.src, m.worldBounds.Min.X, m.worldBounds.Max.X),
				Y: entropy.Between(m.src, m.worldBounds.Min.Y, m.worldBounds.Max.Y),
			})
		}

		// Candidate selection is unweighted: the first sample wins.
		target := candidates[0]
		slog.Info("migration signal",
			"population", popID,
			"urgency", urgency,
			"target_x", target.X,
			"target_y", target.Y,
		)
		m.OnMigration(popID, target)
	}
}

// TerritoryInputCount is the length of the TerritoryInputsAt vector. The
// order and count are a versioned contract with the decision system.
const TerritoryInputCount = 12

// TerritoryInputsAt returns the fixed-order feature vector describing the
// territorial situation at pos for a member of the given population.
// All-zero when the population holds no territory.
func (m *Manager) TerritoryInputsAt(pos geom.Vec3, populationID uint64) [TerritoryInputCount]float64 {
	var out [TerritoryInputCount]float64

	own, ok := m.Territories[populationID]
	if !ok {
		return out
	}

	out[0] = own.OverallQuality()
	if own.Contains(pos) {
		out[1] = 1
	}
	for i, l := range terrain.Layers {
		out[2+i] = own.QualityAt(l)
	}

	if wv := m.worldBounds.Volume(); wv > 0 {
		out[6] = geom.Clamp01(own.Bounds().Volume() / wv)
	}
	out[7] = own.ContestedFraction()

	// Foreign territory at this point, if any.
	currentLayer := terrain.LayerAt(pos.Z)
	for _, popID := range sortedPopIDs(m.Territories) {
		t := m.Territories[popID]
		if t.PopulationID == populationID || !t.Contains(pos) {
			continue
		}
		out[8] = 1
		out[9] = t.OverallQuality()
		out[10] = t.QualityAt(currentLayer)
		if t.Contested[currentLayer] {
			out[11] = 1
		}
		break
	}

	return out
}

func sortedPopIDs(ts map[uint64]*Territory) []uint64 {
	ids := make([]uint64, 0, len(ts))
	for id := range ts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
