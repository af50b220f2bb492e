package engine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mobvis/od-backend/internal/models"
	"github.com/mobvis/od-backend/internal/spatial"
)

// Direction selects which edge sets a flow query returns.
const (
	DirectionOut  = "out"
	DirectionIn   = "in"
	DirectionBoth = "both"
)

// ValidDirection reports whether d is a supported flow direction.
func ValidDirection(d string) bool {
	return d == DirectionOut || d == DirectionIn || d == DirectionBoth
}

// Flows returns the top edges incident to gridID for one year. With coverage
// disabled (0) it is a plain top-K by flow descending. With coverage in
// (0,1] the descending prefix whose cumulative sum stays within
// coverage*total is kept first, then capped at topK; ties break on the
// counterpart id so results are stable across rebuilds.
//
// Counterparts absent from the grid reference set are dropped, which can
// leave fewer than topK edges.
func (e *Engine) Flows(ctx context.Context, year int, gridID int64, direction string, topK int, coverage float64) (*models.FlowResult, error) {
	if !e.HasArtifact(KindEdgesByO, year) || !e.HasArtifact(KindEdgesByD, year) {
		return nil, &IndexMissingError{Years: []int{year}, Kind: KindEdgesByO}
	}

	if coverage < 0 {
		coverage = 0
	}
	if coverage > 1 {
		coverage = 1
	}
	if topK <= 0 {
		topK = 100
	}

	res := &models.FlowResult{
		Center:   e.grids.Get(gridID),
		OutEdges: []models.FlowEdge{},
		InEdges:  []models.FlowEdge{},
	}

	if direction == DirectionOut || direction == DirectionBoth {
		rows, err := e.edgeScan(ctx, e.artifactPath(KindEdgesByO, year), "o_grid", "d_grid", gridID, topK, coverage)
		if err != nil {
			return nil, fmt.Errorf("year %d out edges: %w", year, err)
		}
		for _, r := range rows {
			if edge, ok := e.resolveEdge(gridID, r.counterpart, r.flow, true); ok {
				res.OutEdges = append(res.OutEdges, edge)
			}
		}
	}
	if direction == DirectionIn || direction == DirectionBoth {
		rows, err := e.edgeScan(ctx, e.artifactPath(KindEdgesByD, year), "d_grid", "o_grid", gridID, topK, coverage)
		if err != nil {
			return nil, fmt.Errorf("year %d in edges: %w", year, err)
		}
		for _, r := range rows {
			if edge, ok := e.resolveEdge(gridID, r.counterpart, r.flow, false); ok {
				res.InEdges = append(res.InEdges, edge)
			}
		}
	}
	return res, nil
}

// FlowsAllYears runs the query independently against every configured year
// whose edge artifacts exist. When no year has them this is the distinct
// "no indexes available" condition, not an empty result.
func (e *Engine) FlowsAllYears(ctx context.Context, gridID int64, direction string, topK int, coverage float64) (*models.FlowAllYearsResult, error) {
	out := &models.FlowAllYearsResult{Years: make(map[int]*models.FlowResult)}
	for _, y := range e.cfg.Years {
		if !e.HasArtifact(KindEdgesByO, y) || !e.HasArtifact(KindEdgesByD, y) {
			continue
		}
		res, err := e.Flows(ctx, y, gridID, direction, topK, coverage)
		if err != nil {
			return nil, err
		}
		out.Years[y] = res
	}
	if len(out.Years) == 0 {
		return nil, ErrNoIndexes
	}
	return out, nil
}

type edgeRow struct {
	counterpart int64
	flow        float64
}

// edgeScan selects a grid's edges from one edge artifact. keyCol is the
// artifact's grouping key, otherCol the counterpart column.
func (e *Engine) edgeScan(ctx context.Context, path, keyCol, otherCol string, gridID int64, topK int, coverage float64) ([]edgeRow, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if coverage > 0 {
		// Running cumulative sum over the descending order; keep rows while
		// the cumulative share stays within coverage, then cap at topK.
		q := fmt.Sprintf(`
			WITH e AS (
			  SELECT %[2]s, num_total FROM read_parquet('%[1]s') WHERE %[3]s = ?
			)
			SELECT %[2]s, num_total
			FROM (
			    SELECT %[2]s, num_total,
			           SUM(num_total) OVER (ORDER BY num_total DESC, %[2]s ROWS UNBOUNDED PRECEDING) AS cs,
			           SUM(num_total) OVER () AS tot
			    FROM e
			)
			WHERE cs <= ? * tot
			ORDER BY num_total DESC, %[2]s
			LIMIT ?`, sqlPath(path), otherCol, keyCol)
		rows, err = e.db.QueryContext(ctx, q, gridID, coverage, topK)
	} else {
		q := fmt.Sprintf(
			"SELECT %[2]s, num_total FROM read_parquet('%[1]s') WHERE %[3]s = ? ORDER BY num_total DESC, %[2]s LIMIT ?",
			sqlPath(path), otherCol, keyCol)
		rows, err = e.db.QueryContext(ctx, q, gridID, topK)
	}
	if err != nil {
		return nil, fmt.Errorf("edge scan failed: %w", err)
	}
	defer rows.Close()

	var out []edgeRow
	for rows.Next() {
		var r edgeRow
		if err := rows.Scan(&r.counterpart, &r.flow); err != nil {
			return nil, fmt.Errorf("failed to scan edge row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// resolveEdge attaches reference coordinates to an edge. Edges whose
// counterpart is unknown to the reference set are dropped.
func (e *Engine) resolveEdge(gridID, counterpart int64, flow float64, outbound bool) (models.FlowEdge, bool) {
	center := e.grids.Get(gridID)
	other := e.grids.Get(counterpart)
	if other == nil {
		return models.FlowEdge{}, false
	}

	var distKm float64
	if center != nil {
		distKm = spatial.HaversineDistance(center.Lat, center.Lon, other.Lat, other.Lon) / 1000.0
	}

	if outbound {
		return models.FlowEdge{
			OGrid: gridID, DGrid: counterpart, NumTotal: flow, DistKm: distKm,
			O: center, D: other,
		}, true
	}
	return models.FlowEdge{
		OGrid: counterpart, DGrid: gridID, NumTotal: flow, DistKm: distKm,
		O: other, D: center,
	}, true
}
