package repository

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mobvis/od-backend/internal/models"
)

// GridRepository handles database operations for the grid reference table
type GridRepository struct {
	db *sql.DB
}

// NewGridRepository creates a new grid repository
func NewGridRepository(db *sql.DB) *GridRepository {
	return &GridRepository{db: db}
}

// Count returns the number of reference cells
func (r *GridRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM grid_cells").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count grid cells: %w", err)
	}
	return n, nil
}

// LoadAll reads the full reference set ordered by grid id
func (r *GridRepository) LoadAll() ([]models.GridCell, error) {
	rows, err := r.db.Query("SELECT grid_id, lon, lat, area_name, city_name FROM grid_cells ORDER BY grid_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query grid cells: %w", err)
	}
	defer rows.Close()

	var cells []models.GridCell
	for rows.Next() {
		var c models.GridCell
		if err := rows.Scan(&c.GridID, &c.Lon, &c.Lat, &c.AreaName, &c.CityName); err != nil {
			return nil, fmt.Errorf("failed to scan grid cell: %w", err)
		}
		cells = append(cells, c)
	}
	return cells, rows.Err()
}

// ImportCSV loads the reference metadata CSV into grid_cells. Expected
// columns: grid_id, lon, lat; optional: area_name, city_name. Rows with an
// unparseable id or coordinate are skipped. Returns the number imported.
func (r *GridRepository) ImportCSV(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open metadata CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read metadata header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"grid_id", "lon", "lat"} {
		if _, ok := col[required]; !ok {
			return 0, fmt.Errorf("metadata CSV missing column %q", required)
		}
	}

	field := func(rec []string, name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}

	imported := 0
	err = withTx(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT OR REPLACE INTO grid_cells
			(grid_id, lon, lat, area_name, city_name) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for {
			rec, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("failed to read metadata row: %w", err)
			}
			gid, err := strconv.ParseInt(field(rec, "grid_id"), 10, 64)
			if err != nil {
				continue
			}
			lon, err := strconv.ParseFloat(field(rec, "lon"), 64)
			if err != nil {
				continue
			}
			lat, err := strconv.ParseFloat(field(rec, "lat"), 64)
			if err != nil {
				continue
			}
			if _, err := stmt.Exec(gid, lon, lat, field(rec, "area_name"), field(rec, "city_name")); err != nil {
				return fmt.Errorf("failed to insert grid cell %d: %w", gid, err)
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return imported, nil
}

// withTx runs fn in a transaction, rolling back on error.
func withTx(db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
