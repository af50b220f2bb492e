package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mobvis/od-backend/internal/schema"
)

// BuildOptions selects which artifacts to (re)build. Per-grid totals are
// always rebuilt as a side effect of any build.
type BuildOptions struct {
	EdgesByO bool
	EdgesByD bool
	Hourly   bool
}

// BuildAll requests every artifact.
var BuildAll = BuildOptions{EdgesByO: true, EdgesByD: true, Hourly: true}

func (o BuildOptions) any() bool {
	return o.EdgesByO || o.EdgesByD || o.Hourly
}

// EnsureBuilt builds whichever artifacts are missing for the given years.
// Each year is independent: a failed year does not stop the others, and the
// first error is returned after all years were attempted.
func (e *Engine) EnsureBuilt(ctx context.Context, years []int) error {
	var firstErr error
	for _, y := range years {
		opts := BuildOptions{
			EdgesByO: !e.HasArtifact(KindEdgesByO, y),
			EdgesByD: !e.HasArtifact(KindEdgesByD, y),
			Hourly:   !e.HasArtifact(KindHourly, y),
		}
		if !opts.any() && e.HasArtifact(KindTotals, y) {
			continue
		}
		if err := e.Build(ctx, y, opts); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Build recomputes the requested artifacts for one year from the raw source
// and atomically replaces the published versions. Builds of the same year are
// mutually exclusive; concurrent readers keep seeing the previous artifact
// until the rename lands.
func (e *Engine) Build(ctx context.Context, year int, opts BuildOptions) error {
	mu := e.yearLock(year)
	mu.Lock()
	defer mu.Unlock()

	colmap, err := e.colmap(year)
	if err != nil {
		return err
	}

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get build connection: %w", err)
	}
	defer conn.Close()

	log.Printf("[build] year %d starting", year)

	src := canonicalSelect(e.sourcePath(year), colmap)
	if _, err := conn.ExecContext(ctx, "CREATE OR REPLACE TEMP VIEW src AS "+src); err != nil {
		return fmt.Errorf("year %d: failed to read source: %w", year, err)
	}

	// Edge aggregation runs on the unfiltered stream: a row with a bad date
	// still counts toward edges, only the time-keyed hourly aggregate drops it.
	if _, err := conn.ExecContext(ctx, `
		CREATE OR REPLACE TEMP VIEW edges AS
		SELECT o_grid, d_grid, SUM(num_total) AS num_total
		FROM src
		GROUP BY o_grid, d_grid`); err != nil {
		return fmt.Errorf("year %d: edge aggregation failed: %w", year, err)
	}

	if opts.EdgesByO {
		log.Printf("[build] year %d: writing %s", year, KindEdgesByO)
		if err := e.writeParquet(ctx, conn,
			"SELECT * FROM edges ORDER BY o_grid, num_total DESC, d_grid",
			e.artifactPath(KindEdgesByO, year)); err != nil {
			return fmt.Errorf("year %d: %w", year, err)
		}
	}
	if opts.EdgesByD {
		log.Printf("[build] year %d: writing %s", year, KindEdgesByD)
		if err := e.writeParquet(ctx, conn,
			"SELECT * FROM edges ORDER BY d_grid, num_total DESC, o_grid",
			e.artifactPath(KindEdgesByD, year)); err != nil {
			return fmt.Errorf("year %d: %w", year, err)
		}
	}

	if opts.Hourly {
		log.Printf("[build] year %d: writing %s", year, KindHourly)
		if err := e.buildHourly(ctx, conn, year); err != nil {
			return fmt.Errorf("year %d: %w", year, err)
		}
	}

	if err := e.writeTotalsFromView(ctx, conn, "edges", year); err != nil {
		return fmt.Errorf("year %d: %w", year, err)
	}

	log.Printf("[build] year %d finished", year)
	return nil
}

// buildHourly computes the (grid_id, iso_week, hour) aggregate. Rows whose
// date fails to parse are excluded from this artifact only. Outbound and
// inbound groupings are combined with a full outer join, missing sides
// filled with zero, so total = out + in holds for every emitted row.
func (e *Engine) buildHourly(ctx context.Context, conn execer, year int) error {
	stmts := []string{
		`CREATE OR REPLACE TEMP VIEW dated AS
		SELECT
		  TRY_STRPTIME(CASE WHEN LENGTH(date_dt) = 8 THEN date_dt ELSE NULL END, '%Y%m%d')::DATE AS dt,
		  hour, o_grid, d_grid, num_total
		FROM src
		WHERE dt IS NOT NULL`,
		`CREATE OR REPLACE TEMP VIEW out_by AS
		SELECT o_grid AS grid_id, dt, hour, SUM(num_total) AS out_total
		FROM dated GROUP BY grid_id, dt, hour`,
		`CREATE OR REPLACE TEMP VIEW in_by AS
		SELECT d_grid AS grid_id, dt, hour, SUM(num_total) AS in_total
		FROM dated GROUP BY grid_id, dt, hour`,
		`CREATE OR REPLACE TEMP VIEW merged AS
		SELECT
		  COALESCE(o.grid_id, i.grid_id) AS grid_id,
		  COALESCE(o.dt, i.dt) AS dt,
		  COALESCE(o.hour, i.hour) AS hour,
		  COALESCE(o.out_total, 0) AS out_total,
		  COALESCE(i.in_total, 0) AS in_total
		FROM out_by o
		FULL OUTER JOIN in_by i
		  ON o.grid_id = i.grid_id AND o.dt = i.dt AND o.hour = i.hour`,
		`CREATE OR REPLACE TEMP VIEW hourly AS
		SELECT
		  grid_id,
		  DATE_PART('week', dt)::INTEGER AS week,
		  hour::INTEGER AS hour,
		  SUM(out_total) AS out_total,
		  SUM(in_total) AS in_total,
		  SUM(out_total + in_total) AS total
		FROM merged
		GROUP BY grid_id, week, hour`,
	}
	for _, s := range stmts {
		if _, err := conn.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("hourly aggregation failed: %w", err)
		}
	}
	return e.writeParquet(ctx, conn,
		"SELECT * FROM hourly ORDER BY grid_id, week, hour",
		e.artifactPath(KindHourly, year))
}

// BuildTotals rebuilds the per-grid totals artifact from the two published
// edge artifacts without rereading raw data. When either edge artifact is
// missing it falls back to a full edge build from the raw source.
func (e *Engine) BuildTotals(ctx context.Context, year int) error {
	pOut := e.artifactPath(KindEdgesByO, year)
	pIn := e.artifactPath(KindEdgesByD, year)
	if !fileExists(pOut) || !fileExists(pIn) {
		return e.Build(ctx, year, BuildOptions{
			EdgesByO: !fileExists(pOut),
			EdgesByD: !fileExists(pIn),
		})
	}

	mu := e.yearLock(year)
	mu.Lock()
	defer mu.Unlock()

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get build connection: %w", err)
	}
	defer conn.Close()

	view := fmt.Sprintf(`
		CREATE OR REPLACE TEMP VIEW edges_published AS
		SELECT o_grid, d_grid, num_total FROM read_parquet('%s')`,
		sqlPath(pOut))
	if _, err := conn.ExecContext(ctx, view); err != nil {
		return fmt.Errorf("year %d: failed to read edge artifact: %w", year, err)
	}
	// Outbound totals come from the by-origin copy; inbound ones need the
	// by-destination copy so both sides reflect their own grouping key.
	viewIn := fmt.Sprintf(`
		CREATE OR REPLACE TEMP VIEW edges_published_in AS
		SELECT o_grid, d_grid, num_total FROM read_parquet('%s')`,
		sqlPath(pIn))
	if _, err := conn.ExecContext(ctx, viewIn); err != nil {
		return fmt.Errorf("year %d: failed to read edge artifact: %w", year, err)
	}
	return e.writeTotalsFromViews(ctx, conn, "edges_published", "edges_published_in", year)
}

func (e *Engine) writeTotalsFromView(ctx context.Context, conn execer, view string, year int) error {
	return e.writeTotalsFromViews(ctx, conn, view, view, year)
}

func (e *Engine) writeTotalsFromViews(ctx context.Context, conn execer, outView, inView string, year int) error {
	stmts := []string{
		fmt.Sprintf(`CREATE OR REPLACE TEMP VIEW gout AS
		SELECT o_grid AS grid_id, SUM(num_total) AS out_total
		FROM %s GROUP BY o_grid`, outView),
		fmt.Sprintf(`CREATE OR REPLACE TEMP VIEW gin AS
		SELECT d_grid AS grid_id, SUM(num_total) AS in_total
		FROM %s GROUP BY d_grid`, inView),
		`CREATE OR REPLACE TEMP VIEW gt AS
		SELECT COALESCE(gout.grid_id, gin.grid_id) AS grid_id,
		       COALESCE(gout.out_total, 0) AS out_total,
		       COALESCE(gin.in_total, 0) AS in_total,
		       COALESCE(gout.out_total, 0) + COALESCE(gin.in_total, 0) AS total
		FROM gout FULL OUTER JOIN gin ON gout.grid_id = gin.grid_id`,
	}
	for _, s := range stmts {
		if _, err := conn.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("totals aggregation failed: %w", err)
		}
	}
	return e.writeParquet(ctx, conn,
		"SELECT * FROM gt ORDER BY grid_id",
		e.artifactPath(KindTotals, year))
}

// writeParquet copies a query result to a fresh temp file and renames it over
// the published path. Rename is atomic, so readers either see the old file or
// the new one, never a partial write; an in-flight reader that already opened
// the old file keeps its handle.
func (e *Engine) writeParquet(ctx context.Context, conn execer, sel, dest string) error {
	tmp := fmt.Sprintf("%s.tmp%d", dest, os.Getpid())
	copySQL := fmt.Sprintf("COPY (%s) TO '%s' (FORMAT PARQUET, COMPRESSION ZSTD)", sel, sqlPath(tmp))
	if _, err := conn.ExecContext(ctx, copySQL); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to publish %s: %w", dest, err)
	}
	return nil
}

// canonicalSelect maps a year's raw columns to the canonical row shape.
func canonicalSelect(path string, m schema.Mapping) string {
	return fmt.Sprintf(`SELECT
		"%s"::VARCHAR AS date_dt,
		"%s"::INTEGER AS hour,
		"%s"::BIGINT AS o_grid,
		"%s"::BIGINT AS d_grid,
		"%s"::DOUBLE AS num_total
	FROM read_csv_auto('%s', header=true, sample_size=-1)`,
		m.Date, m.Hour, m.OGrid, m.DGrid, m.Count, sqlPath(path))
}

// sqlPath escapes a filesystem path for embedding in a single-quoted SQL
// string literal.
func sqlPath(p string) string {
	return strings.ReplaceAll(p, "'", "''")
}
