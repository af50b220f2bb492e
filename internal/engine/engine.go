// Package engine is the ingestion/indexing/query core. It turns raw per-year
// OD trip records into four immutable parquet aggregates per year (edges by
// origin, edges by destination, hourly per grid/week, per-grid totals) and
// answers flow, hourly, heatmap and low-traffic queries against them.
package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mobvis/od-backend/internal/models"
	"github.com/mobvis/od-backend/internal/schema"
)

// ArtifactKind identifies one of the four persisted aggregates.
type ArtifactKind string

const (
	KindEdgesByO ArtifactKind = "edges_by_o"
	KindEdgesByD ArtifactKind = "edges_by_d"
	KindHourly   ArtifactKind = "hourly"
	KindTotals   ArtifactKind = "totals"
)

func (k ArtifactKind) String() string { return string(k) }

// Config configures the engine. Years is the injected list of supported
// partition years; there is no module-wide year constant.
type Config struct {
	Years      []int
	DataDir    string
	AppDataDir string
}

// Engine owns the aggregate artifacts and answers read queries against them.
// Queries are pure reads over immutable files and safe to run concurrently;
// builds of the same year are serialized by a per-year mutex.
type Engine struct {
	cfg   Config
	grids *models.GridIndex
	db    *sql.DB

	colmapMu sync.Mutex
	colmaps  map[int]schema.Mapping

	buildMu sync.Mutex
	builds  map[int]*sync.Mutex
}

// New creates an engine. Column mappings are resolved eagerly for every
// configured year whose raw source exists, so schema drift fails the build,
// not the query.
func New(cfg Config, grids *models.GridIndex) (*Engine, error) {
	if len(cfg.Years) == 0 {
		return nil, fmt.Errorf("engine requires at least one configured year")
	}
	if err := os.MkdirAll(cfg.AppDataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create appdata dir: %w", err)
	}

	db, err := openDuck()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		grids:   grids,
		db:      db,
		colmaps: make(map[int]schema.Mapping),
		builds:  make(map[int]*sync.Mutex),
	}
	for _, y := range cfg.Years {
		if p := e.sourcePath(y); fileExists(p) {
			m, err := schema.DetectFile(p)
			if err != nil {
				return nil, fmt.Errorf("year %d: %w", y, err)
			}
			e.colmaps[y] = m
		}
	}
	return e, nil
}

// Close releases the backing columnar engine.
func (e *Engine) Close() error {
	return e.db.Close()
}

// Years returns the configured partition years.
func (e *Engine) Years() []int {
	return e.cfg.Years
}

// Grids returns the shared grid reference index.
func (e *Engine) Grids() *models.GridIndex {
	return e.grids
}

func (e *Engine) sourcePath(year int) string {
	return filepath.Join(e.cfg.DataDir, fmt.Sprintf("%d.csv", year))
}

// artifactPath addresses an artifact purely by (kind, year).
func (e *Engine) artifactPath(kind ArtifactKind, year int) string {
	return filepath.Join(e.cfg.AppDataDir, fmt.Sprintf("%s_%d.parquet", kind, year))
}

// HasArtifact reports whether the artifact for (kind, year) is published.
func (e *Engine) HasArtifact(kind ArtifactKind, year int) bool {
	return fileExists(e.artifactPath(kind, year))
}

// colmap returns the cached column mapping for a year, resolving it on first
// use when the source appeared after startup.
func (e *Engine) colmap(year int) (schema.Mapping, error) {
	e.colmapMu.Lock()
	defer e.colmapMu.Unlock()
	if m, ok := e.colmaps[year]; ok {
		return m, nil
	}
	p := e.sourcePath(year)
	if !fileExists(p) {
		return schema.Mapping{}, &MissingSourceError{Year: year, Path: p}
	}
	m, err := schema.DetectFile(p)
	if err != nil {
		return schema.Mapping{}, err
	}
	e.colmaps[year] = m
	return m, nil
}

// yearLock returns the mutex serializing builds of one year.
func (e *Engine) yearLock(year int) *sync.Mutex {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()
	mu, ok := e.builds[year]
	if !ok {
		mu = &sync.Mutex{}
		e.builds[year] = mu
	}
	return mu
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
