package database

import (
	"database/sql"
	"fmt"
)

// Migration represents one schema change applied in version order
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations are embedded rather than read from disk so a deployment is a
// single binary plus its data directories.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_grid_cells",
		SQL: `CREATE TABLE IF NOT EXISTS grid_cells (
			grid_id INTEGER PRIMARY KEY,
			lon REAL NOT NULL,
			lat REAL NOT NULL,
			area_name TEXT NOT NULL DEFAULT '',
			city_name TEXT NOT NULL DEFAULT ''
		)`,
	},
	{
		Version: 2,
		Name:    "create_labels",
		SQL: `CREATE TABLE IF NOT EXISTS labels (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			grid_id INTEGER NOT NULL,
			lon REAL NOT NULL,
			lat REAL NOT NULL,
			label INTEGER NOT NULL,
			remark TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	{
		Version: 3,
		Name:    "create_label_queue",
		SQL: `CREATE TABLE IF NOT EXISTS label_queue (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			queue_json TEXT NOT NULL DEFAULT '[]',
			position INTEGER NOT NULL DEFAULT 0,
			filters_json TEXT NOT NULL DEFAULT '{}',
			seed INTEGER,
			debug_json TEXT,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	{
		Version: 4,
		Name:    "index_labels_grid_id",
		SQL:     `CREATE INDEX IF NOT EXISTS idx_labels_grid_id ON labels(grid_id)`,
	},
}

// Migrate applies all pending migrations in version order
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := db.Query("SELECT version FROM migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if _, err := db.Exec(m.SQL); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		if _, err := db.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}
	return nil
}
