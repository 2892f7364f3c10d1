// Package persistence records periodic snapshots of the contention engine
// state into SQLite for offline inspection. The engine core never touches
// this layer; the runner calls Save on the snapshot cadence.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/bugworld/internal/engine"
	"github.com/talgya/bugworld/internal/terrain"
)

// DB wraps a SQLite connection for snapshot storage.
type DB struct {
	conn  *sqlx.DB
	runID string
}

// Open opens or creates a SQLite database at the given path and registers a
// new run row.
func Open(path string, seed int64) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn, runID: uuid.NewString()}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if _, err := conn.Exec(
		"INSERT INTO runs (id, seed, started_at) VALUES (?, ?, ?)",
		db.runID, seed, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("register run: %w", err)
	}

	return db, nil
}

// RunID returns the identity of this simulation run.
func (db *DB) RunID() string {
	return db.runID
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS eco_snapshots (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		bugs INTEGER NOT NULL,
		zones INTEGER NOT NULL,
		global_health REAL NOT NULL,
		mean_zone_health REAL NOT NULL,
		avg_pressure REAL NOT NULL,
		utilization REAL NOT NULL,
		territories INTEGER NOT NULL,
		contested_layers INTEGER NOT NULL,
		PRIMARY KEY (run_id, tick)
	);

	CREATE TABLE IF NOT EXISTS zone_snapshots (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		zone_id INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		radius REAL NOT NULL,
		health REAL NOT NULL,
		regen_rate REAL NOT NULL,
		PRIMARY KEY (run_id, tick, zone_id)
	);

	CREATE TABLE IF NOT EXISTS territory_snapshots (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		population_id INTEGER NOT NULL,
		min_x REAL NOT NULL, min_y REAL NOT NULL, min_z REAL NOT NULL,
		max_x REAL NOT NULL, max_y REAL NOT NULL, max_z REAL NOT NULL,
		dominant_layer TEXT NOT NULL,
		overall_quality REAL NOT NULL,
		contested INTEGER NOT NULL,
		qualities_json TEXT NOT NULL,
		PRIMARY KEY (run_id, tick, population_id)
	);

	CREATE INDEX IF NOT EXISTS idx_eco_tick ON eco_snapshots(tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveSnapshot writes one consistent snapshot of the simulation at its
// current tick.
func (db *DB) SaveSnapshot(sim *engine.Simulation) error {
	return db.save(sim.Export())
}

func (db *DB) save(snap engine.WorldSnapshot) error {
	st := snap.Stats

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO eco_snapshots
		(run_id, tick, bugs, zones, global_health, mean_zone_health,
		 avg_pressure, utilization, territories, contested_layers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		db.runID, st.Tick, st.Bugs, st.Zones, st.GlobalHealth,
		st.MeanZoneHealth, st.AvgPressure, st.Utilization,
		st.Territories, st.ContestedLayers,
	); err != nil {
		return fmt.Errorf("insert eco snapshot: %w", err)
	}

	for _, z := range snap.Zones {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO zone_snapshots
			(run_id, tick, zone_id, x, y, radius, health, regen_rate)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			db.runID, st.Tick, z.ID, z.Center.X, z.Center.Y,
			z.Radius, z.Health, z.RegenRate,
		); err != nil {
			return fmt.Errorf("insert zone %d: %w", z.ID, err)
		}
	}

	for _, t := range snap.Territories {
		qualities := make(map[string]float64, len(t.LayerQualities))
		for l, q := range t.LayerQualities {
			qualities[terrain.LayerName(l)] = q
		}
		qualitiesJSON, _ := json.Marshal(qualities)

		if _, err := tx.Exec(`INSERT OR REPLACE INTO territory_snapshots
			(run_id, tick, population_id,
			 min_x, min_y, min_z, max_x, max_y, max_z,
			 dominant_layer, overall_quality, contested, qualities_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			db.runID, st.Tick, t.PopulationID,
			t.Min.X, t.Min.Y, t.Min.Z, t.Max.X, t.Max.Y, t.Max.Z,
			terrain.LayerName(t.DominantLayer), t.OverallQuality(),
			len(t.Contested), string(qualitiesJSON),
		); err != nil {
			return fmt.Errorf("insert territory for population %d: %w", t.PopulationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Debug("snapshot saved", "tick", st.Tick, "zones", st.Zones, "territories", st.Territories)
	return nil
}
