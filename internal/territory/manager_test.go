package territory

import (
	"testing"

	"github.com/talgya/bugworld/internal/bugs"
	"github.com/talgya/bugworld/internal/ecosystem"
	"github.com/talgya/bugworld/internal/geom"
	"github.com/talgya/bugworld/internal/terrain"
)

// stubSource pins every stochastic draw to a constant.
type stubSource struct{ v float64 }

func (s stubSource) Float64() float64 { return s.v }

var testWorld = geom.Box{
	Min: geom.Vec3{X: 0, Y: 0, Z: terrain.WorldFloor},
	Max: geom.Vec3{X: 2000, Y: 1500, Z: terrain.WorldCeiling},
}

func testField() *ecosystem.Field {
	bounds := geom.Rect{Max: geom.Vec2{X: 2000, Y: 1500}}
	return ecosystem.NewField(bounds, 100, stubSource{0.5})
}

func makePop(id uint64, positions []geom.Vec3, fly, swim, climb bool) (*bugs.Population, map[bugs.BugID]*bugs.Bug) {
	pop := &bugs.Population{ID: id, Name: "test"}
	index := make(map[bugs.BugID]*bugs.Bug)
	for i, p := range positions {
		bid := bugs.BugID(id*1000 + uint64(i))
		popID := id
		index[bid] = &bugs.Bug{
			ID:           bid,
			Position:     p,
			CanFly:       fly,
			CanSwim:      swim,
			CanClimb:     climb,
			PopulationID: &popID,
			Alive:        true,
		}
		pop.Members = append(pop.Members, bid)
	}
	return pop, index
}

func TestClaimLifecycle(t *testing.T) {
	m := NewManager(stubSource{0.5})
	field := testField()
	pop, index := makePop(1, []geom.Vec3{
		{X: 490, Y: 500, Z: 2},
		{X: 510, Y: 500, Z: 2},
		{X: 500, Y: 520, Z: 2},
	}, false, false, false)

	m.Update([]*bugs.Population{pop}, index, testWorld, field)

	terr, ok := m.Territories[1]
	if !ok {
		t.Fatal("expected a territory for population 1")
	}
	if len(terr.LayerQualities) != len(terrain.Layers) {
		t.Errorf("scored %d layers, want %d", len(terr.LayerQualities), len(terrain.Layers))
	}

	// Pristine field, zero crowding: surface quality hits the ceiling and
	// underground is held down only by its layer modifier.
	if got := terr.QualityAt(terrain.LayerSurface); !almostEqual(got, 1.0) {
		t.Errorf("surface quality = %f, want 1.0", got)
	}
	if got := terr.QualityAt(terrain.LayerUnderground); !almostEqual(got, 0.8) {
		t.Errorf("underground quality = %f, want 0.8", got)
	}
	if terr.DominantLayer != terrain.LayerSurface {
		t.Errorf("dominant = %s, want surface", terrain.LayerName(terr.DominantLayer))
	}

	// A population with no live members loses its claim.
	for _, b := range index {
		b.Alive = false
	}
	m.Update([]*bugs.Population{pop}, index, testWorld, field)
	if _, ok := m.Territories[1]; ok {
		t.Error("territory should be released when the population empties")
	}
}

func TestCapabilitiesStretchVerticalReach(t *testing.T) {
	m := NewManager(stubSource{0.5})
	field := testField()

	flyerPop, flyerIndex := makePop(1, []geom.Vec3{{X: 100, Y: 100, Z: 10}}, true, true, true)
	walkerPop, walkerIndex := makePop(2, []geom.Vec3{{X: 900, Y: 900, Z: 10}}, false, false, false)

	index := make(map[bugs.BugID]*bugs.Bug)
	for id, b := range flyerIndex {
		index[id] = b
	}
	for id, b := range walkerIndex {
		index[id] = b
	}
	m.Update([]*bugs.Population{flyerPop, walkerPop}, index, testWorld, field)

	flyer := m.Territories[1]
	walker := m.Territories[2]

	// Same single-member horizontal margin for both.
	if got := walker.Max.X - walker.Min.X; !almostEqual(got, flyer.Max.X-flyer.Min.X) {
		t.Errorf("horizontal extents differ: flyer %f, walker %f", flyer.Max.X-flyer.Min.X, got)
	}

	fLo, fHi := flyer.VerticalRange()
	wLo, wHi := walker.VerticalRange()
	if fHi-fLo <= wHi-wLo {
		t.Errorf("flyer vertical span %f should exceed walker span %f", fHi-fLo, wHi-wLo)
	}
	if fLo >= wLo || fHi <= wHi {
		t.Errorf("flyer range [%f, %f] should strictly contain walker range [%f, %f]", fLo, fHi, wLo, wHi)
	}
}

func newTestTerritory(popID uint64, box geom.Box) *Territory {
	return &Territory{
		ID:             popID,
		PopulationID:   popID,
		Min:            box.Min,
		Max:            box.Max,
		LayerQualities: make(map[terrain.Layer]float64),
		Contested:      make(map[terrain.Layer]bool),
	}
}

func TestConflictDetectionIsSymmetric(t *testing.T) {
	m := NewManager(stubSource{0.5})
	a := newTestTerritory(1, geom.Box{Min: geom.Vec3{X: 0, Y: 0, Z: 1}, Max: geom.Vec3{X: 100, Y: 100, Z: 10}})
	b := newTestTerritory(2, geom.Box{Min: geom.Vec3{X: 50, Y: 0, Z: 2}, Max: geom.Vec3{X: 150, Y: 100, Z: 12}})
	m.Territories[1] = a
	m.Territories[2] = b

	groups := m.detectConflicts()

	if len(groups) != 1 || len(groups[0]) != 2 {
		t.Fatalf("groups = %d, want one group of two", len(groups))
	}
	for _, l := range []terrain.Layer{terrain.LayerSurface, terrain.LayerCanopy} {
		if !a.Contested[l] || !b.Contested[l] {
			t.Errorf("%s should be contested on both sides", terrain.LayerName(l))
		}
	}
	// Both ranges start above ground; no one reaches the aerial band.
	if a.Contested[terrain.LayerUnderground] || a.Contested[terrain.LayerAerial] {
		t.Error("contested marks outside the shared vertical range")
	}
}

func TestConflictGroupsAreTransitive(t *testing.T) {
	m := NewManager(stubSource{0.5})
	boxes := []geom.Box{
		{Min: geom.Vec3{X: 0, Y: 0, Z: 1}, Max: geom.Vec3{X: 100, Y: 100, Z: 10}},
		{Min: geom.Vec3{X: 90, Y: 0, Z: 1}, Max: geom.Vec3{X: 190, Y: 100, Z: 10}},
		{Min: geom.Vec3{X: 180, Y: 0, Z: 1}, Max: geom.Vec3{X: 280, Y: 100, Z: 10}},
	}
	for i, box := range boxes {
		m.Territories[uint64(i+1)] = newTestTerritory(uint64(i+1), box)
	}

	// 1 overlaps 2 and 2 overlaps 3, but 1 and 3 are disjoint.
	if m.Territories[1].Bounds().Intersects(m.Territories[3].Bounds()) {
		t.Fatal("test setup: territories 1 and 3 must not overlap directly")
	}

	groups := m.detectConflicts()
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1 (chained overlap merges transitively)", len(groups))
	}
	if len(groups[0]) != 3 {
		t.Errorf("group size = %d, want 3", len(groups[0]))
	}
	for i, terr := range groups[0] {
		if terr.PopulationID != uint64(i+1) {
			t.Errorf("group[%d] = population %d, want %d (sorted)", i, terr.PopulationID, i+1)
		}
	}
}

func TestResolutionSplitsDisjointDominants(t *testing.T) {
	m := NewManager(stubSource{0.5})
	m.age = 7

	a := newTestTerritory(1, geom.Box{Min: geom.Vec3{X: 0, Y: 0, Z: 1}, Max: geom.Vec3{X: 100, Y: 100, Z: 10}})
	a.LayerQualities = map[terrain.Layer]float64{
		terrain.LayerSurface: 0.9,
		terrain.LayerCanopy:  0.2,
	}
	b := newTestTerritory(2, geom.Box{Min: geom.Vec3{X: 50, Y: 0, Z: 1}, Max: geom.Vec3{X: 150, Y: 100, Z: 10}})
	b.LayerQualities = map[terrain.Layer]float64{
		terrain.LayerSurface: 0.2,
		terrain.LayerCanopy:  0.9,
	}
	a.recomputeDominant()
	b.recomputeDominant()
	m.Territories[1] = a
	m.Territories[2] = b

	m.resolveConflicts(m.detectConflicts())

	// Each side keeps the layer it is strongest at, quality intact.
	if got := a.QualityAt(terrain.LayerSurface); !almostEqual(got, 0.9) {
		t.Errorf("winner's surface quality = %f, want 0.9 (unchanged)", got)
	}
	if got := b.QualityAt(terrain.LayerCanopy); !almostEqual(got, 0.9) {
		t.Errorf("winner's canopy quality = %f, want 0.9 (unchanged)", got)
	}

	// The losing side of each layer takes the penalty.
	if got := a.QualityAt(terrain.LayerCanopy); !almostEqual(got, 0.2*loserPenalty) {
		t.Errorf("a's canopy quality = %f, want %f", got, 0.2*loserPenalty)
	}
	if got := b.QualityAt(terrain.LayerSurface); !almostEqual(got, 0.2*loserPenalty) {
		t.Errorf("b's surface quality = %f, want %f", got, 0.2*loserPenalty)
	}

	if len(a.Contested) != 0 || len(b.Contested) != 0 {
		t.Error("all contested marks should be shed after resolution")
	}
	if a.DominantLayer != terrain.LayerSurface || b.DominantLayer != terrain.LayerCanopy {
		t.Errorf("dominants = %s/%s, want surface/canopy",
			terrain.LayerName(a.DominantLayer), terrain.LayerName(b.DominantLayer))
	}
	if a.LastDefended != 7 || b.LastDefended != 7 {
		t.Errorf("LastDefended = %d/%d, want 7/7", a.LastDefended, b.LastDefended)
	}
}

func TestMigrationSignalOnOvercrowding(t *testing.T) {
	m := NewManager(stubSource{0.5})
	field := testField()
	// Twice the carrying capacity pushes urgency past the threshold even
	// when territory quality is fine.
	field.CarryingCapacityUtilization = 2.0

	var gotPop uint64
	var gotTarget geom.Vec2
	calls := 0
	m.OnMigration = func(popID uint64, target geom.Vec2) {
		gotPop = popID
		gotTarget = target
		calls++
	}

	pop, index := makePop(3, []geom.Vec3{
		{X: 490, Y: 500, Z: 2},
		{X: 510, Y: 500, Z: 2},
	}, false, false, false)
	m.Update([]*bugs.Population{pop}, index, testWorld, field)

	if calls != 1 {
		t.Fatalf("migration callbacks = %d, want 1", calls)
	}
	if gotPop != 3 {
		t.Errorf("signaled population %d, want 3", gotPop)
	}
	// The constant source samples every candidate at the world midpoint and
	// the first one wins.
	if !almostEqual(gotTarget.X, 1000) || !almostEqual(gotTarget.Y, 750) {
		t.Errorf("target = (%f, %f), want (1000, 750)", gotTarget.X, gotTarget.Y)
	}
}

func TestNoMigrationWhenSettled(t *testing.T) {
	m := NewManager(stubSource{0.5})
	field := testField()

	calls := 0
	m.OnMigration = func(uint64, geom.Vec2) { calls++ }

	pop, index := makePop(1, []geom.Vec3{{X: 500, Y: 500, Z: 2}}, false, false, false)
	m.Update([]*bugs.Population{pop}, index, testWorld, field)

	if calls != 0 {
		t.Errorf("migration callbacks = %d, want 0 on a healthy claim", calls)
	}
}

func TestTerritoryInputsAt(t *testing.T) {
	m := NewManager(stubSource{0.5})
	m.worldBounds = testWorld

	pos := geom.Vec3{X: 50, Y: 50, Z: 2}

	// No territory at all: the whole vector stays zero.
	if got := m.TerritoryInputsAt(pos, 1); got != [TerritoryInputCount]float64{} {
		t.Errorf("inputs without a territory = %v, want all zeros", got)
	}

	own := newTestTerritory(1, geom.Box{Min: geom.Vec3{X: 0, Y: 0, Z: 0}, Max: geom.Vec3{X: 100, Y: 100, Z: 10}})
	own.LayerQualities = map[terrain.Layer]float64{
		terrain.LayerUnderground: 0.1,
		terrain.LayerSurface:     0.8,
		terrain.LayerCanopy:      0.4,
		terrain.LayerAerial:      0.2,
	}
	own.Contested[terrain.LayerCanopy] = true
	m.Territories[1] = own

	got := m.TerritoryInputsAt(pos, 1)

	wantOverall := 0.1*0.15 + 0.8*0.40 + 0.4*0.25 + 0.2*0.20
	if !almostEqual(got[0], wantOverall) {
		t.Errorf("inputs[0] = %f, want overall quality %f", got[0], wantOverall)
	}
	if got[1] != 1 {
		t.Error("inputs[1] should flag containment")
	}
	wantLayers := []float64{0.1, 0.8, 0.4, 0.2} // ascending strata order
	for i, want := range wantLayers {
		if !almostEqual(got[2+i], want) {
			t.Errorf("inputs[%d] = %f, want %f", 2+i, got[2+i], want)
		}
	}
	wantVol := own.Bounds().Volume() / testWorld.Volume()
	if !almostEqual(got[6], wantVol) {
		t.Errorf("inputs[6] = %f, want volume fraction %f", got[6], wantVol)
	}
	if !almostEqual(got[7], 0.25) {
		t.Errorf("inputs[7] = %f, want contested fraction 0.25", got[7])
	}
	if got[8] != 0 {
		t.Error("inputs[8] should be zero with no foreign territory at pos")
	}

	// A foreign territory covering pos fills the tail of the vector.
	foreign := newTestTerritory(2, geom.Box{Min: geom.Vec3{X: 0, Y: 0, Z: 0}, Max: geom.Vec3{X: 60, Y: 60, Z: 10}})
	foreign.LayerQualities = map[terrain.Layer]float64{terrain.LayerSurface: 0.5}
	foreign.Contested[terrain.LayerSurface] = true
	m.Territories[2] = foreign

	got = m.TerritoryInputsAt(pos, 1)
	if got[8] != 1 {
		t.Fatal("inputs[8] should flag the foreign territory")
	}
	if !almostEqual(got[9], 0.5) {
		t.Errorf("inputs[9] = %f, want foreign overall 0.5", got[9])
	}
	if !almostEqual(got[10], 0.5) {
		t.Errorf("inputs[10] = %f, want foreign surface quality 0.5", got[10])
	}
	if got[11] != 1 {
		t.Error("inputs[11] should flag the contested foreign layer")
	}
}
