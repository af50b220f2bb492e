package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mobvis/od-backend/internal/models"
)

// QueueRepository persists the single annotation work queue
type QueueRepository struct {
	db *sql.DB
}

// NewQueueRepository creates a new queue repository
func NewQueueRepository(db *sql.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Load returns the persisted queue, or an empty one if none was started
func (r *QueueRepository) Load() (*models.LabelQueue, error) {
	var (
		queueJSON   string
		position    int
		filtersJSON string
		seed        sql.NullInt64
		debugJSON   sql.NullString
	)
	err := r.db.QueryRow(
		"SELECT queue_json, position, filters_json, seed, debug_json FROM label_queue WHERE id = 1").
		Scan(&queueJSON, &position, &filtersJSON, &seed, &debugJSON)
	if err == sql.ErrNoRows {
		return &models.LabelQueue{Queue: []int64{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}

	q := &models.LabelQueue{Index: position}
	if err := json.Unmarshal([]byte(queueJSON), &q.Queue); err != nil {
		return nil, fmt.Errorf("failed to decode queue: %w", err)
	}
	if err := json.Unmarshal([]byte(filtersJSON), &q.Filters); err != nil {
		return nil, fmt.Errorf("failed to decode queue filters: %w", err)
	}
	if seed.Valid {
		s := seed.Int64
		q.Seed = &s
	}
	if debugJSON.Valid && debugJSON.String != "" {
		q.Debug = &models.QueueDebug{}
		if err := json.Unmarshal([]byte(debugJSON.String), q.Debug); err != nil {
			return nil, fmt.Errorf("failed to decode queue debug: %w", err)
		}
	}
	return q, nil
}

// Save upserts the queue state
func (r *QueueRepository) Save(q *models.LabelQueue) error {
	queueJSON, err := json.Marshal(q.Queue)
	if err != nil {
		return fmt.Errorf("failed to encode queue: %w", err)
	}
	filtersJSON, err := json.Marshal(q.Filters)
	if err != nil {
		return fmt.Errorf("failed to encode queue filters: %w", err)
	}

	var seed interface{}
	if q.Seed != nil {
		seed = *q.Seed
	}
	var debug interface{}
	if q.Debug != nil {
		b, err := json.Marshal(q.Debug)
		if err != nil {
			return fmt.Errorf("failed to encode queue debug: %w", err)
		}
		debug = string(b)
	}

	_, err = r.db.Exec(`INSERT INTO label_queue (id, queue_json, position, filters_json, seed, debug_json, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			queue_json = excluded.queue_json,
			position = excluded.position,
			filters_json = excluded.filters_json,
			seed = excluded.seed,
			debug_json = excluded.debug_json,
			updated_at = CURRENT_TIMESTAMP`,
		string(queueJSON), q.Index, string(filtersJSON), seed, debug)
	if err != nil {
		return fmt.Errorf("failed to save queue: %w", err)
	}
	return nil
}

// Reset removes the persisted queue
func (r *QueueRepository) Reset() error {
	if _, err := r.db.Exec("DELETE FROM label_queue WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to reset queue: %w", err)
	}
	return nil
}
