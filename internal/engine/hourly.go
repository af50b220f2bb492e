package engine

import (
	"context"
	"fmt"

	"github.com/mobvis/od-backend/internal/models"
)

// HourlySeries extracts the fixed 24-slot out/in/total series per requested
// year for one grid. Only the earliest ISO week present for the grid is used;
// later weeks are discarded so years compare at single-week granularity.
// Years whose hourly artifact is absent are omitted entirely rather than
// returned zero-filled.
func (e *Engine) HourlySeries(ctx context.Context, gridID int64, years []int) (map[int]*models.HourlySeries, error) {
	if len(years) == 0 {
		years = e.cfg.Years
	}

	out := make(map[int]*models.HourlySeries)
	for _, y := range years {
		p := e.artifactPath(KindHourly, y)
		if !fileExists(p) {
			continue
		}

		q := fmt.Sprintf(
			"SELECT week, hour, out_total, in_total, total FROM read_parquet('%s') WHERE grid_id = ? ORDER BY week, hour",
			sqlPath(p))
		rows, err := e.db.QueryContext(ctx, q, gridID)
		if err != nil {
			return nil, fmt.Errorf("year %d hourly scan failed: %w", y, err)
		}

		series := models.NewHourlySeries()
		firstWeek := -1
		for rows.Next() {
			var week, hour int
			var outT, inT, tot float64
			if err := rows.Scan(&week, &hour, &outT, &inT, &tot); err != nil {
				rows.Close()
				return nil, fmt.Errorf("year %d: failed to scan hourly row: %w", y, err)
			}
			if firstWeek == -1 {
				firstWeek = week
			}
			if week != firstWeek {
				continue
			}
			if hour < 0 || hour >= models.HoursPerDay {
				continue
			}
			series.Out[hour] = outT
			series.In[hour] = inT
			series.Total[hour] = tot
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()

		// A grid with no rows at all still yields a zero series for a built
		// year; only unbuilt years disappear from the result.
		out[y] = series
	}
	return out, nil
}
