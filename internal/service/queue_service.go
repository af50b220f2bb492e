package service

import (
	"context"
	"math/rand"
	"strings"

	"github.com/mobvis/od-backend/internal/engine"
	"github.com/mobvis/od-backend/internal/models"
	"github.com/mobvis/od-backend/internal/repository"
)

// LowTrafficFilter is the slice of the engine the queue builder depends on.
type LowTrafficFilter interface {
	LowTrafficGrids(ctx context.Context, candidates []int64, year *int, lowValue, lowPct float64) (*engine.LowTrafficReport, error)
}

// LabeledSource yields the set of already-labeled grid ids.
type LabeledSource interface {
	LabeledGridIDs() (map[int64]bool, error)
}

// QueueService builds and steps the annotation work queue
type QueueService struct {
	repo   *repository.QueueRepository
	labels LabeledSource
	index  *models.GridIndex
	filter LowTrafficFilter
}

// NewQueueService creates a new queue service
func NewQueueService(repo *repository.QueueRepository, labels LabeledSource, index *models.GridIndex, filter LowTrafficFilter) *QueueService {
	return &QueueService{repo: repo, labels: labels, index: index, filter: filter}
}

// Start builds a fresh queue: the unlabeled candidate pool is filtered,
// optionally pruned by the low-traffic filter, deterministically shuffled
// with the caller's seed and truncated to the requested count.
func (s *QueueService) Start(ctx context.Context, req models.QueueStartRequest) (*models.LabelQueue, error) {
	count := req.Count
	if count <= 0 {
		count = 20
	}

	filters := models.QueueFilters{
		CityName: req.CityName,
		AreaName: req.AreaName,
		Keyword:  req.Keyword,
	}
	pool, err := s.candidatePool(filters)
	if err != nil {
		return nil, err
	}

	debug := &models.QueueDebug{PoolBefore: len(pool)}

	lowPct := clampPct(req.LowPct)
	if len(pool) > 0 && lowPct > 0 {
		lowValue := 0.0
		if req.LowValue != nil && *req.LowValue > 0 {
			lowValue = *req.LowValue
		}
		// Filter errors are swallowed: queue construction proceeds unpruned
		// rather than failing the whole start request.
		report, err := s.filter.LowTrafficGrids(ctx, pool, req.FilterYear, lowValue, lowPct)
		if err == nil && report.Applied {
			debug.Applied = true
			debug.ChosenYear = report.ChosenYear
			debug.Weeks = report.Weeks
			kept := pool[:0]
			for _, gid := range pool {
				if !report.Flagged[gid] {
					kept = append(kept, gid)
				}
			}
			pool = kept
		}
	}
	debug.PoolAfter = len(pool)
	debug.Removed = debug.PoolBefore - debug.PoolAfter

	q := &models.LabelQueue{
		Queue:   []int64{},
		Filters: filters,
		Seed:    req.Seed,
		Debug:   debug,
	}
	if len(pool) > 0 {
		shufflePool(pool, req.Seed)
		if count > len(pool) {
			count = len(pool)
		}
		q.Queue = pool[:count]
	}

	if err := s.repo.Save(q); err != nil {
		return nil, err
	}
	return q, nil
}

// candidatePool lists unlabeled grids matching the filters. Keyword matches
// case-insensitively against "city area" text.
func (s *QueueService) candidatePool(f models.QueueFilters) ([]int64, error) {
	labeled, err := s.labels.LabeledGridIDs()
	if err != nil {
		return nil, err
	}

	kw := strings.ToLower(strings.TrimSpace(f.Keyword))
	pool := []int64{}
	for _, cell := range s.index.Items() {
		if labeled[cell.GridID] {
			continue
		}
		if f.CityName != "" && cell.CityName != f.CityName {
			continue
		}
		if f.AreaName != "" && cell.AreaName != f.AreaName {
			continue
		}
		if kw != "" {
			text := strings.ToLower(cell.CityName + " " + cell.AreaName)
			if !strings.Contains(text, kw) {
				continue
			}
		}
		pool = append(pool, cell.GridID)
	}
	return pool, nil
}

// shufflePool shuffles in place; a non-nil seed makes the order reproducible.
func shufflePool(pool []int64, seed *int64) {
	var r *rand.Rand
	if seed != nil {
		r = rand.New(rand.NewSource(*seed))
	} else {
		r = rand.New(rand.NewSource(rand.Int63()))
	}
	r.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
}

// Get returns the persisted queue
func (s *QueueService) Get() (*models.LabelQueue, error) {
	return s.repo.Load()
}

// Reset clears the persisted queue
func (s *QueueService) Reset() error {
	return s.repo.Reset()
}

// Advance moves the cursor forward. The index may rest at len(queue) once
// the queue is exhausted.
func (s *QueueService) Advance() (*models.QueueCursor, error) {
	q, err := s.repo.Load()
	if err != nil {
		return nil, err
	}
	if q.Index < len(q.Queue) {
		q.Index++
	}
	if err := s.repo.Save(q); err != nil {
		return nil, err
	}
	return cursor(q), nil
}

// Back moves the cursor backward, clamped at zero.
func (s *QueueService) Back() (*models.QueueCursor, error) {
	q, err := s.repo.Load()
	if err != nil {
		return nil, err
	}
	if q.Index > 0 {
		q.Index--
	}
	if err := s.repo.Save(q); err != nil {
		return nil, err
	}
	return cursor(q), nil
}

// Set positions the cursor at an index, or at a grid id when present in the
// queue. Out-of-range indexes are clamped to [0, len(queue)].
func (s *QueueService) Set(req models.QueueSetRequest) (*models.QueueCursor, error) {
	q, err := s.repo.Load()
	if err != nil {
		return nil, err
	}

	idx := q.Index
	if req.GridID != nil {
		for i, gid := range q.Queue {
			if gid == *req.GridID {
				idx = i
				break
			}
		}
	} else if req.Index != nil {
		idx = *req.Index
	}
	if idx < 0 {
		idx = 0
	}
	if idx > len(q.Queue) {
		idx = len(q.Queue)
	}
	q.Index = idx

	if err := s.repo.Save(q); err != nil {
		return nil, err
	}
	return cursor(q), nil
}

func cursor(q *models.LabelQueue) *models.QueueCursor {
	c := &models.QueueCursor{
		Index:   q.Index,
		HasMore: q.Index < len(q.Queue),
		Total:   len(q.Queue),
	}
	if c.HasMore {
		gid := q.Queue[q.Index]
		c.Current = &gid
	}
	return c
}

// clampPct normalizes an optional percentage into [0,100].
func clampPct(p *float64) float64 {
	if p == nil {
		return 0
	}
	v := *p
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
