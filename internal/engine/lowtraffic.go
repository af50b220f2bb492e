package engine

import (
	"context"
	"fmt"

	"github.com/mobvis/od-backend/internal/models"
)

// LowTrafficReport is the outcome of one low-traffic filter evaluation.
// When no hourly artifact exists for any candidate year the filter is a
// no-op: Applied is false and Flagged is empty.
type LowTrafficReport struct {
	Applied    bool
	ChosenYear *int
	Weeks      []int
	Flagged    map[int64]bool
}

// hourKey addresses one synthesized calendar slot.
type hourKey struct {
	gridID int64
	hour   int
}

// LowTrafficGrids flags the subset of candidates whose hourly activity is
// mostly at or below lowValue. For every candidate a full 24-hour calendar is
// synthesized; each hour's value is the average total across all ISO weeks
// containing that grid+hour, and entirely missing combinations average zero.
// A grid is flagged when at least lowPct percent of its 24 hours are low.
// Sparse grids are therefore biased toward being flagged: missing data is
// treated as evidence of low activity.
func (e *Engine) LowTrafficGrids(ctx context.Context, candidates []int64, year *int, lowValue, lowPct float64) (*LowTrafficReport, error) {
	report := &LowTrafficReport{Flagged: make(map[int64]bool)}

	chosen, ok := e.chooseHourlyYear(year)
	if !ok {
		return report, nil
	}
	report.Applied = true
	report.ChosenYear = &chosen

	weeks, avgs, err := e.hourlyAverages(ctx, chosen)
	if err != nil {
		return nil, err
	}
	report.Weeks = weeks
	if len(weeks) == 0 {
		// An hourly artifact with no weeks gives the filter nothing to
		// average over; flag nothing rather than everything.
		return report, nil
	}

	threshold := lowPct / 100.0
	for _, gid := range candidates {
		low := 0
		for h := 0; h < models.HoursPerDay; h++ {
			if avgs[hourKey{gid, h}] <= lowValue {
				low++
			}
		}
		if float64(low)/float64(models.HoursPerDay) >= threshold {
			report.Flagged[gid] = true
		}
	}
	return report, nil
}

// HourAverage is one synthesized calendar hour of the debug report.
type HourAverage struct {
	Hour     int     `json:"hour"`
	AvgTotal float64 `json:"avg_total"`
	LE       bool    `json:"le"`
}

// LowFilterDebug explains the filter decision for a single grid.
type LowFilterDebug struct {
	GridID   int64         `json:"grid_id"`
	Year     int           `json:"year"`
	LowValue float64       `json:"low_value"`
	LowPct   float64       `json:"low_pct"`
	Ratio    float64       `json:"ratio"`
	LECount  int           `json:"le_count"`
	Decision bool          `json:"decision_exclude"`
	Hours    []HourAverage `json:"hours"`
}

// DebugLowFilter computes the per-hour averages and the resulting decision
// for one grid, for inspection from the debug endpoint.
func (e *Engine) DebugLowFilter(ctx context.Context, gridID int64, year *int, lowValue, lowPct float64) (*LowFilterDebug, error) {
	chosen, ok := e.chooseHourlyYear(year)
	if !ok {
		return nil, ErrNoIndexes
	}

	weeks, avgs, err := e.hourlyAverages(ctx, chosen)
	if err != nil {
		return nil, err
	}
	if len(weeks) == 0 {
		return nil, fmt.Errorf("hourly artifact for year %d has no weeks", chosen)
	}

	dbg := &LowFilterDebug{
		GridID:   gridID,
		Year:     chosen,
		LowValue: lowValue,
		LowPct:   lowPct,
		Hours:    make([]HourAverage, 0, models.HoursPerDay),
	}
	for h := 0; h < models.HoursPerDay; h++ {
		avg := avgs[hourKey{gridID, h}]
		le := avg <= lowValue
		if le {
			dbg.LECount++
		}
		dbg.Hours = append(dbg.Hours, HourAverage{Hour: h, AvgTotal: avg, LE: le})
	}
	dbg.Ratio = float64(dbg.LECount) / float64(models.HoursPerDay)
	if lowPct > 0 {
		dbg.Decision = dbg.Ratio >= lowPct/100.0
	}
	return dbg, nil
}

// chooseHourlyYear picks the year whose hourly artifact backs the filter:
// the preferred year if built, else the first configured year that is.
func (e *Engine) chooseHourlyYear(preferred *int) (int, bool) {
	if preferred != nil && e.HasArtifact(KindHourly, *preferred) {
		return *preferred, true
	}
	for _, y := range e.cfg.Years {
		if preferred != nil && y == *preferred {
			continue
		}
		if e.HasArtifact(KindHourly, y) {
			return y, true
		}
	}
	return 0, false
}

// hourlyAverages returns the distinct ISO weeks of a year's hourly artifact
// and the per (grid, hour) average of total flow across those weeks.
func (e *Engine) hourlyAverages(ctx context.Context, year int) ([]int, map[hourKey]float64, error) {
	p := sqlPath(e.artifactPath(KindHourly, year))

	weekRows, err := e.db.QueryContext(ctx,
		fmt.Sprintf("SELECT DISTINCT week FROM read_parquet('%s') ORDER BY week", p))
	if err != nil {
		return nil, nil, fmt.Errorf("year %d week scan failed: %w", year, err)
	}
	defer weekRows.Close()

	weeks := []int{}
	for weekRows.Next() {
		var w int
		if err := weekRows.Scan(&w); err != nil {
			return nil, nil, fmt.Errorf("failed to scan week: %w", err)
		}
		weeks = append(weeks, w)
	}
	if err := weekRows.Err(); err != nil {
		return nil, nil, err
	}
	if len(weeks) == 0 {
		return weeks, nil, nil
	}

	rows, err := e.db.QueryContext(ctx,
		fmt.Sprintf("SELECT grid_id, hour, AVG(total) FROM read_parquet('%s') GROUP BY grid_id, hour", p))
	if err != nil {
		return nil, nil, fmt.Errorf("year %d hourly average scan failed: %w", year, err)
	}
	defer rows.Close()

	avgs := make(map[hourKey]float64)
	for rows.Next() {
		var gid int64
		var hour int
		var avg float64
		if err := rows.Scan(&gid, &hour, &avg); err != nil {
			return nil, nil, fmt.Errorf("failed to scan hourly average: %w", err)
		}
		avgs[hourKey{gid, hour}] = avg
	}
	return weeks, avgs, rows.Err()
}
