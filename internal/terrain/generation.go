// Tile generation using layered simplex noise. Elevation and fertility maps
// are sampled independently, then each tile is classified for the zone
// seeding pass.
package terrain

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds tile generation parameters.
type GenConfig struct {
	W, H     int     // Grid dimensions in tiles
	CellSize float64 // World units per tile edge
	Seed     int64   // Random seed (0 = random)

	WaterLevel    float64 // Elevation threshold for water (0.0–1.0)
	ResourceLevel float64 // Fertility threshold for resource tiles (0.0–1.0)
	MeadowLevel   float64 // Fertility threshold for meadow tiles (0.0–1.0)
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		W:             40,
		H:             30,
		CellSize:      50,
		Seed:          0,
		WaterLevel:    0.22,
		ResourceLevel: 0.68,
		MeadowLevel:   0.40,
	}
}

// Generate creates a classified tile grid from layered noise.
func Generate(cfg GenConfig) *Grid {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	elevNoise := opensimplex.NewNormalized(seed)
	fertNoise := opensimplex.NewNormalized(seed + 1)

	g := &Grid{
		W:        cfg.W,
		H:        cfg.H,
		CellSize: cfg.CellSize,
		Tiles:    make([]TileClass, cfg.W*cfg.H),
	}

	for y := 0; y < cfg.H; y++ {
		for x := 0; x < cfg.W; x++ {
			fx := float64(x)
			fy := float64(y)

			elev := octaveNoise(elevNoise, fx, fy, 4, 0.08, 0.5)
			fert := octaveNoise(fertNoise, fx, fy, 3, 0.06, 0.5)

			var class TileClass
			switch {
			case elev < cfg.WaterLevel:
				class = ClassWater
			case fert >= cfg.ResourceLevel:
				class = ClassResource
			case fert >= cfg.MeadowLevel:
				class = ClassMeadow
			default:
				class = ClassBarren
			}
			g.Tiles[y*cfg.W+x] = class
		}
	}

	return g
}

// octaveNoise samples multi-octave noise normalized to [0, 1].
func octaveNoise(n opensimplex.Noise, x, y float64, octaves int, freq, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxValue := 0.0

	for i := 0; i < octaves; i++ {
		total += n.Eval2(x*freq, y*freq) * amplitude
		maxValue += amplitude
		amplitude *= persistence
		freq *= 2
	}

	return total / maxValue
}
