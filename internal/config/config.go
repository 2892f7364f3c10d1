// Package config loads the simulation tuning file. All values have compiled
// defaults; the YAML file is optional and overrides field by field.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the runner's tunable parameters.
type Tuning struct {
	Seed int64 `yaml:"seed"`

	TerrainW        int     `yaml:"terrain_w"`
	TerrainH        int     `yaml:"terrain_h"`
	TerrainCellSize float64 `yaml:"terrain_cell_size"`

	CarryingCapacity  int     `yaml:"carrying_capacity"`
	Populations       int     `yaml:"populations"`
	BugsPerPopulation int     `yaml:"bugs_per_population"`
	SpawnSpread       float64 `yaml:"spawn_spread"`

	TickIntervalMs int `yaml:"tick_interval_ms"`

	APIPort int    `yaml:"api_port"`
	DBPath  string `yaml:"db_path"`
}

// Default returns the compiled-in tuning.
func Default() Tuning {
	return Tuning{
		Seed:              42,
		TerrainW:          40,
		TerrainH:          30,
		TerrainCellSize:   50,
		CarryingCapacity:  400,
		Populations:       4,
		BugsPerPopulation: 25,
		SpawnSpread:       120,
		TickIntervalMs:    1000,
		APIPort:           8080,
		DBPath:            "data/bugworld.db",
	}
}

// Load reads a tuning file over the defaults. A missing path is not an
// error; a malformed file is.
func Load(path string) (Tuning, error) {
	t := Default()
	if path == "" {
		return t, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}
