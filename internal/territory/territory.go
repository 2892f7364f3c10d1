// Package territory provides 3D territorial claims: per-population bounding
// volumes over the vertical strata, stochastic layer quality estimation, and
// quality-weighted conflict resolution between overlapping claims.
package territory

import (
	"github.com/talgya/bugworld/internal/geom"
	"github.com/talgya/bugworld/internal/terrain"
)

// Per-layer importance weights for overall territory quality. Surface
// carries the most weight; the sum is renormalized over the layers a
// territory actually scored.
var layerWeights = map[terrain.Layer]float64{
	terrain.LayerSurface:     0.40,
	terrain.LayerCanopy:      0.25,
	terrain.LayerAerial:      0.20,
	terrain.LayerUnderground: 0.15,
}

// defaultLayerWeight applies to any layer missing from the weight table.
const defaultLayerWeight = 0.1

// Territory is one population's claimed 3D volume with per-layer quality.
type Territory struct {
	ID           uint64 `json:"id"`
	PopulationID uint64 `json:"population_id"`

	Min geom.Vec3 `json:"min"`
	Max geom.Vec3 `json:"max"`

	// DominantLayer is always the layer with the maximum quality entry,
	// recomputed whenever qualities change.
	DominantLayer  terrain.Layer                 `json:"dominant_layer"`
	LayerQualities map[terrain.Layer]float64     `json:"layer_qualities"`
	Contested      map[terrain.Layer]bool        `json:"contested_layers"`

	LastDefended uint64 `json:"last_defended"`
}

// Bounds returns the claimed volume.
func (t *Territory) Bounds() geom.Box {
	return geom.Box{Min: t.Min, Max: t.Max}
}

// VerticalRange returns the claimed height span [Min.Z, Max.Z].
func (t *Territory) VerticalRange() (lo, hi float64) {
	return t.Min.Z, t.Max.Z
}

// Contains reports whether p lies inside the claimed volume.
func (t *Territory) Contains(p geom.Vec3) bool {
	return t.Bounds().Contains(p)
}

// OverallQuality is the importance-weighted mean of the scored layer
// qualities. Zero when nothing has been scored.
func (t *Territory) OverallQuality() float64 {
	var sum, wsum float64
	for layer, q := range t.LayerQualities {
		w, ok := layerWeights[layer]
		if !ok {
			w = defaultLayerWeight
		}
		sum += q * w
		wsum += w
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}

// QualityAt returns the quality scored for a layer, zero when unscored.
func (t *Territory) QualityAt(l terrain.Layer) float64 {
	return t.LayerQualities[l]
}

// ContestedFraction returns how much of the strata set is under dispute.
func (t *Territory) ContestedFraction() float64 {
	return float64(len(t.Contested)) / float64(len(terrain.Layers))
}

// recomputeDominant restores the dominant-layer invariant after any quality
// change. Ties keep the first layer encountered in ascending strata order.
func (t *Territory) recomputeDominant() {
	best := terrain.LayerSurface
	bestQ := -1.0
	for _, l := range terrain.Layers {
		if q, ok := t.LayerQualities[l]; ok && q > bestQ {
			best = l
			bestQ = q
		}
	}
	if bestQ >= 0 {
		t.DominantLayer = best
	}
}

// bandIntersects reports whether a layer's height band overlaps the
// vertical range [lo, hi].
func bandIntersects(l terrain.Layer, lo, hi float64) bool {
	bandLo, bandHi := terrain.LayerBand(l)
	return bandLo <= hi && bandHi >= lo
}
