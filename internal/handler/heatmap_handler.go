package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/mobvis/od-backend/internal/engine"
	"github.com/mobvis/od-backend/internal/models"
	"github.com/mobvis/od-backend/internal/service"
	"github.com/mobvis/od-backend/pkg/response"
)

// HeatmapHandler handles HTTP requests for per-grid heatmap values
type HeatmapHandler struct {
	query *service.QueryService
}

// NewHeatmapHandler creates a new heatmap handler
func NewHeatmapHandler(query *service.QueryService) *HeatmapHandler {
	return &HeatmapHandler{query: query}
}

// GetHeatmap handles GET /api/heat
func (h *HeatmapHandler) GetHeatmap(c *gin.Context) {
	var q models.HeatQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}
	if q.Year == 0 {
		response.BadRequest(c, "year required")
		return
	}
	if q.Metric == "" {
		q.Metric = engine.MetricTotal
	}
	if !engine.ValidMetric(q.Metric) {
		response.BadRequest(c, "metric must be total|in|out")
		return
	}

	res, err := h.query.Heatmap(c.Request.Context(), q.Year, q.Metric, q.CityName, q.AreaName)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	response.Success(c, res)
}
