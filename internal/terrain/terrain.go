// Package terrain provides the tile classification grid and the vertical
// strata model. The engine treats terrain as a read-only provider: tiles are
// consulted once, when resource zones are seeded, and the strata bands are
// fixed for the lifetime of a world.
package terrain

import "github.com/talgya/bugworld/internal/geom"

// TileClass is the ecological classification of one terrain tile.
type TileClass uint8

const (
	ClassBarren   TileClass = iota // Rock and dust, no forage value
	ClassMeadow                    // Sparse vegetation
	ClassResource                  // Dense forage — seeds a resource zone
	ClassWater                     // Open water
)

// ClassName returns a human-readable tile class name.
func ClassName(c TileClass) string {
	switch c {
	case ClassBarren:
		return "barren"
	case ClassMeadow:
		return "meadow"
	case ClassResource:
		return "resource"
	case ClassWater:
		return "water"
	}
	return "unknown"
}

// Layer is one of the fixed vertical strata of the world.
type Layer uint8

const (
	LayerUnderground Layer = iota
	LayerSurface
	LayerCanopy
	LayerAerial
)

// Layers lists all strata in ascending height order.
var Layers = [4]Layer{LayerUnderground, LayerSurface, LayerCanopy, LayerAerial}

// LayerName returns a human-readable layer name.
func LayerName(l Layer) string {
	switch l {
	case LayerUnderground:
		return "underground"
	case LayerSurface:
		return "surface"
	case LayerCanopy:
		return "canopy"
	case LayerAerial:
		return "aerial"
	}
	return "unknown"
}

// Strata height geometry. Bands partition the vertical world extent;
// representative heights are where layer quality is sampled.
const (
	WorldFloor   = -50.0 // Deepest burrow depth
	WorldCeiling = 120.0 // Highest flight ceiling
)

// LayerBand returns the [low, high) height band of a layer.
func LayerBand(l Layer) (lo, hi float64) {
	switch l {
	case LayerUnderground:
		return WorldFloor, 0
	case LayerSurface:
		return 0, 8
	case LayerCanopy:
		return 8, 25
	case LayerAerial:
		return 25, WorldCeiling
	}
	return 0, 0
}

// LayerHeight returns the representative sampling height of a layer.
func LayerHeight(l Layer) float64 {
	switch l {
	case LayerUnderground:
		return -10
	case LayerSurface:
		return 2
	case LayerCanopy:
		return 15
	case LayerAerial:
		return 40
	}
	return 0
}

// LayerAt classifies a height into its containing stratum.
func LayerAt(z float64) Layer {
	switch {
	case z < 0:
		return LayerUnderground
	case z < 8:
		return LayerSurface
	case z < 25:
		return LayerCanopy
	default:
		return LayerAerial
	}
}

// Grid holds the generated tile classifications and world bounds.
type Grid struct {
	W, H     int
	CellSize float64
	Tiles    []TileClass // row-major, y*W+x
}

// ClassAt returns the classification of tile (x, y), ClassBarren out of range.
func (g *Grid) ClassAt(x, y int) TileClass {
	if x < 0 || x >= g.W || y < 0 || y >= g.H {
		return ClassBarren
	}
	return g.Tiles[y*g.W+x]
}

// TileCenter returns the world position of the center of tile (x, y).
func (g *Grid) TileCenter(x, y int) geom.Vec2 {
	return geom.Vec2{
		X: (float64(x) + 0.5) * g.CellSize,
		Y: (float64(y) + 0.5) * g.CellSize,
	}
}

// Bounds returns the horizontal world rectangle covered by the grid.
func (g *Grid) Bounds() geom.Rect {
	return geom.Rect{
		Max: geom.Vec2{X: float64(g.W) * g.CellSize, Y: float64(g.H) * g.CellSize},
	}
}

// Bounds3D returns the full world volume from burrow floor to flight ceiling.
func (g *Grid) Bounds3D() geom.Box {
	r := g.Bounds()
	return geom.Box{
		Min: geom.Vec3{X: r.Min.X, Y: r.Min.Y, Z: WorldFloor},
		Max: geom.Vec3{X: r.Max.X, Y: r.Max.Y, Z: WorldCeiling},
	}
}

// ClassCounts tallies tiles by classification.
func (g *Grid) ClassCounts() map[TileClass]int {
	counts := make(map[TileClass]int)
	for _, t := range g.Tiles {
		counts[t]++
	}
	return counts
}
