package service

import (
	"context"

	"github.com/mobvis/od-backend/internal/engine"
	"github.com/mobvis/od-backend/internal/models"
)

// QueryService fronts the read-only query engines
type QueryService struct {
	engine *engine.Engine
}

// NewQueryService creates a new query service
func NewQueryService(e *engine.Engine) *QueryService {
	return &QueryService{engine: e}
}

// Flows answers a single-year flow query
func (s *QueryService) Flows(ctx context.Context, year int, gridID int64, direction string, topK int, coverage float64) (*models.FlowResult, error) {
	return s.engine.Flows(ctx, year, gridID, direction, topK, coverage)
}

// FlowsAllYears answers a flow query across every built year
func (s *QueryService) FlowsAllYears(ctx context.Context, gridID int64, direction string, topK int, coverage float64) (*models.FlowAllYearsResult, error) {
	return s.engine.FlowsAllYears(ctx, gridID, direction, topK, coverage)
}

// HourlySeries answers an hourly series query for the configured years
func (s *QueryService) HourlySeries(ctx context.Context, gridID int64) (map[int]*models.HourlySeries, error) {
	return s.engine.HourlySeries(ctx, gridID, nil)
}

// Heatmap answers a heatmap query
func (s *QueryService) Heatmap(ctx context.Context, year int, metric, cityName, areaName string) (*models.HeatmapResult, error) {
	return s.engine.Heatmap(ctx, year, metric, cityName, areaName)
}

// DebugLowFilter explains the low-traffic decision for one grid
func (s *QueryService) DebugLowFilter(ctx context.Context, gridID int64, year *int, lowValue, lowPct float64) (*engine.LowFilterDebug, error) {
	return s.engine.DebugLowFilter(ctx, gridID, year, lowValue, lowPct)
}
