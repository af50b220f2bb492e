package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/mobvis/od-backend/internal/models"
	"github.com/mobvis/od-backend/internal/service"
	"github.com/mobvis/od-backend/pkg/response"
)

// HourlyHandler handles HTTP requests for hourly series
type HourlyHandler struct {
	query *service.QueryService
}

// NewHourlyHandler creates a new hourly handler
func NewHourlyHandler(query *service.QueryService) *HourlyHandler {
	return &HourlyHandler{query: query}
}

// GetHourly handles GET /api/hourly. Only years with a built hourly artifact
// appear in the result; an empty map means none are built yet.
func (h *HourlyHandler) GetHourly(c *gin.Context) {
	var q models.HourlyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}
	if q.GridID == 0 {
		response.BadRequest(c, "grid_id required")
		return
	}

	series, err := h.query.HourlySeries(c.Request.Context(), q.GridID)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	response.Success(c, series)
}
