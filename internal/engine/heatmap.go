package engine

import (
	"context"
	"fmt"

	"github.com/mobvis/od-backend/internal/models"
	"github.com/mobvis/od-backend/internal/stats"
)

// Heatmap metrics.
const (
	MetricTotal = "total"
	MetricIn    = "in"
	MetricOut   = "out"
)

// ValidMetric reports whether m is a supported heatmap metric.
func ValidMetric(m string) bool {
	return m == MetricTotal || m == MetricIn || m == MetricOut
}

// Heatmap returns per-grid values for one metric and year plus the 95th
// percentile (nearest-rank) and maximum over the filtered set. The totals
// artifact is derived on demand from the edge artifacts when missing.
// Grids absent from the reference set are excluded; city/area filters are
// exact string matches against the reference metadata.
func (e *Engine) Heatmap(ctx context.Context, year int, metric, cityName, areaName string) (*models.HeatmapResult, error) {
	if !ValidMetric(metric) {
		return nil, fmt.Errorf("metric must be total|in|out, got %q", metric)
	}

	p := e.artifactPath(KindTotals, year)
	if !fileExists(p) {
		if err := e.BuildTotals(ctx, year); err != nil {
			return nil, err
		}
	}

	q := fmt.Sprintf("SELECT grid_id, out_total, in_total, total FROM read_parquet('%s')", sqlPath(p))
	rows, err := e.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("year %d totals scan failed: %w", year, err)
	}
	defer rows.Close()

	values := []models.HeatValue{}
	for rows.Next() {
		var gridID int64
		var outT, inT, tot float64
		if err := rows.Scan(&gridID, &outT, &inT, &tot); err != nil {
			return nil, fmt.Errorf("failed to scan totals row: %w", err)
		}

		cell := e.grids.Get(gridID)
		if cell == nil {
			continue
		}
		if cityName != "" && cell.CityName != cityName {
			continue
		}
		if areaName != "" && cell.AreaName != areaName {
			continue
		}

		v := tot
		switch metric {
		case MetricIn:
			v = inT
		case MetricOut:
			v = outT
		}
		values = append(values, models.HeatValue{GridID: gridID, V: v})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	res := &models.HeatmapResult{Values: values, N: len(values)}
	if len(values) == 0 {
		return res, nil
	}

	vs := make([]float64, len(values))
	for i, it := range values {
		vs[i] = it.V
	}
	res.Q95 = stats.NearestRank(vs, 0.95)
	res.Max = stats.Max(vs)
	return res, nil
}
