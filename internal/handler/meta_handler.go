package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mobvis/od-backend/internal/service"
	"github.com/mobvis/od-backend/pkg/response"
)

// MetaHandler handles HTTP requests for grid reference metadata
type MetaHandler struct {
	meta *service.MetaService
}

// NewMetaHandler creates a new meta handler
func NewMetaHandler(meta *service.MetaService) *MetaHandler {
	return &MetaHandler{meta: meta}
}

// GetCities handles GET /api/meta/cities
func (h *MetaHandler) GetCities(c *gin.Context) {
	response.Success(c, h.meta.Cities())
}

// GetMetadata handles GET /api/metadata
func (h *MetaHandler) GetMetadata(c *gin.Context) {
	city := c.Query("city_name")
	area := c.Query("area_name")
	response.Success(c, h.meta.Filter(city, area))
}

// GetOne handles GET /api/meta/one
func (h *MetaHandler) GetOne(c *gin.Context) {
	gid, err := strconv.ParseInt(c.Query("grid_id"), 10, 64)
	if err != nil || gid == 0 {
		response.BadRequest(c, "grid_id required")
		return
	}
	cell := h.meta.Get(gid)
	if cell == nil {
		response.NotFound(c, "grid_id not in reference metadata")
		return
	}
	response.Success(c, cell)
}
