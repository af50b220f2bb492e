package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mobvis/od-backend/internal/engine"
	"github.com/mobvis/od-backend/internal/models"
	"github.com/mobvis/od-backend/internal/service"
	"github.com/mobvis/od-backend/pkg/response"
)

// FlowHandler handles HTTP requests for OD flow queries
type FlowHandler struct {
	query *service.QueryService
}

// NewFlowHandler creates a new flow handler
func NewFlowHandler(query *service.QueryService) *FlowHandler {
	return &FlowHandler{query: query}
}

// GetFlows handles GET /api/flows
func (h *FlowHandler) GetFlows(c *gin.Context) {
	var q models.FlowQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}
	if q.GridID == 0 {
		response.BadRequest(c, "grid_id required")
		return
	}
	if q.Direction == "" {
		q.Direction = engine.DirectionBoth
	}
	if !engine.ValidDirection(q.Direction) {
		response.BadRequest(c, "direction must be out|in|both")
		return
	}
	if q.TopK <= 0 {
		q.TopK = 100
	}

	if q.Year == "all" {
		res, err := h.query.FlowsAllYears(c.Request.Context(), q.GridID, q.Direction, q.TopK, q.Coverage)
		if err != nil {
			respondEngineError(c, err)
			return
		}
		response.Success(c, res)
		return
	}

	year, err := strconv.Atoi(q.Year)
	if err != nil {
		response.BadRequest(c, "year must be an integer or \"all\"")
		return
	}
	res, err := h.query.Flows(c.Request.Context(), year, q.GridID, q.Direction, q.TopK, q.Coverage)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	response.Success(c, res)
}
