package repository

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/mobvis/od-backend/internal/models"
)

// LabelRepository handles database operations for grid annotations
type LabelRepository struct {
	db *sql.DB
}

// NewLabelRepository creates a new label repository
func NewLabelRepository(db *sql.DB) *LabelRepository {
	return &LabelRepository{db: db}
}

// Save appends one label row
func (r *LabelRepository) Save(l models.Label) error {
	_, err := r.db.Exec(
		"INSERT INTO labels (grid_id, lon, lat, label, remark) VALUES (?, ?, ?, ?, ?)",
		l.GridID, l.Lon, l.Lat, l.Label, l.Remark)
	if err != nil {
		return fmt.Errorf("failed to save label: %w", err)
	}
	return nil
}

// List returns all labels in insertion order
func (r *LabelRepository) List() ([]models.Label, error) {
	rows, err := r.db.Query("SELECT grid_id, lon, lat, label, remark FROM labels ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", err)
	}
	defer rows.Close()

	labels := []models.Label{}
	for rows.Next() {
		var l models.Label
		if err := rows.Scan(&l.GridID, &l.Lon, &l.Lat, &l.Label, &l.Remark); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// LabeledGridIDs returns the set of grid ids that already have a label
func (r *LabelRepository) LabeledGridIDs() (map[int64]bool, error) {
	rows, err := r.db.Query("SELECT DISTINCT grid_id FROM labels")
	if err != nil {
		return nil, fmt.Errorf("failed to query labeled grids: %w", err)
	}
	defer rows.Close()

	labeled := make(map[int64]bool)
	for rows.Next() {
		var gid int64
		if err := rows.Scan(&gid); err != nil {
			return nil, fmt.Errorf("failed to scan labeled grid id: %w", err)
		}
		labeled[gid] = true
	}
	return labeled, rows.Err()
}

// Stats counts labels per class 0..9
func (r *LabelRepository) Stats() (*models.LabelStats, error) {
	rows, err := r.db.Query(
		"SELECT label, COUNT(*) FROM labels WHERE label BETWEEN ? AND ? GROUP BY label",
		models.LabelMin, models.LabelMax)
	if err != nil {
		return nil, fmt.Errorf("failed to query label stats: %w", err)
	}
	defer rows.Close()

	stats := &models.LabelStats{ByLabel: make(map[string]int)}
	for l := models.LabelMin; l <= models.LabelMax; l++ {
		stats.ByLabel[strconv.Itoa(l)] = 0
	}
	for rows.Next() {
		var label, count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("failed to scan label stat: %w", err)
		}
		stats.ByLabel[strconv.Itoa(label)] = count
		stats.Total += count
	}
	return stats, rows.Err()
}
