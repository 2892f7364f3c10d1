package territory

import (
	"math"
	"testing"

	"github.com/talgya/bugworld/internal/geom"
	"github.com/talgya/bugworld/internal/terrain"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestOverallQualityWeighted(t *testing.T) {
	terr := &Territory{
		LayerQualities: map[terrain.Layer]float64{
			terrain.LayerSurface:     1.0,
			terrain.LayerCanopy:      0.5,
			terrain.LayerAerial:      0.0,
			terrain.LayerUnderground: 0.0,
		},
	}

	// (1.0*0.40 + 0.5*0.25) / (0.40+0.25+0.20+0.15)
	want := (1.0*0.40 + 0.5*0.25) / 1.0
	if got := terr.OverallQuality(); !almostEqual(got, want) {
		t.Errorf("OverallQuality = %f, want %f", got, want)
	}
}

func TestOverallQualityRenormalizesOverScoredLayers(t *testing.T) {
	terr := &Territory{
		LayerQualities: map[terrain.Layer]float64{
			terrain.LayerSurface: 0.8,
			terrain.LayerCanopy:  0.4,
		},
	}

	want := (0.8*0.40 + 0.4*0.25) / (0.40 + 0.25)
	if got := terr.OverallQuality(); !almostEqual(got, want) {
		t.Errorf("OverallQuality = %f, want %f (renormalized over scored layers)", got, want)
	}
}

func TestOverallQualityEmpty(t *testing.T) {
	terr := &Territory{LayerQualities: map[terrain.Layer]float64{}}
	if got := terr.OverallQuality(); got != 0 {
		t.Errorf("OverallQuality of unscored territory = %f, want 0", got)
	}
}

func TestDominantLayerFollowsQualities(t *testing.T) {
	terr := &Territory{
		LayerQualities: map[terrain.Layer]float64{
			terrain.LayerUnderground: 0.3,
			terrain.LayerSurface:     0.6,
			terrain.LayerCanopy:      0.9,
			terrain.LayerAerial:      0.1,
		},
	}
	terr.recomputeDominant()
	if terr.DominantLayer != terrain.LayerCanopy {
		t.Errorf("dominant = %s, want canopy", terrain.LayerName(terr.DominantLayer))
	}

	// Ties keep the first layer in ascending strata order.
	terr.LayerQualities[terrain.LayerSurface] = 0.9
	terr.recomputeDominant()
	if terr.DominantLayer != terrain.LayerSurface {
		t.Errorf("tie broke to %s, want surface (first encountered)", terrain.LayerName(terr.DominantLayer))
	}
}

func TestVerticalRangeAndContains(t *testing.T) {
	terr := &Territory{
		Min: geom.Vec3{X: 0, Y: 0, Z: -10},
		Max: geom.Vec3{X: 100, Y: 100, Z: 30},
	}

	lo, hi := terr.VerticalRange()
	if lo != -10 || hi != 30 {
		t.Errorf("VerticalRange = [%f, %f], want [-10, 30]", lo, hi)
	}

	if !terr.Contains(geom.Vec3{X: 50, Y: 50, Z: 0}) {
		t.Error("expected point inside territory")
	}
	if terr.Contains(geom.Vec3{X: 50, Y: 50, Z: 50}) {
		t.Error("point above vertical range should be outside")
	}
}

func TestContestedFraction(t *testing.T) {
	terr := &Territory{Contested: map[terrain.Layer]bool{
		terrain.LayerSurface: true,
		terrain.LayerCanopy:  true,
	}}
	if got := terr.ContestedFraction(); !almostEqual(got, 0.5) {
		t.Errorf("ContestedFraction = %f, want 0.5", got)
	}
}
