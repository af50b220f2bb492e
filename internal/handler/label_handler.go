package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/mobvis/od-backend/internal/models"
	"github.com/mobvis/od-backend/internal/service"
	"github.com/mobvis/od-backend/pkg/response"
)

// LabelHandler handles HTTP requests for grid annotations
type LabelHandler struct {
	labels *service.LabelService
}

// NewLabelHandler creates a new label handler
func NewLabelHandler(labels *service.LabelService) *LabelHandler {
	return &LabelHandler{labels: labels}
}

// PostLabel handles POST /api/label
func (h *LabelHandler) PostLabel(c *gin.Context) {
	var req models.LabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "grid_id and label required")
		return
	}
	if err := h.labels.Save(req.GridID, *req.Label, req.Remark); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, gin.H{"grid_id": req.GridID, "label": *req.Label})
}

// GetLabels handles GET /api/labels
func (h *LabelHandler) GetLabels(c *gin.Context) {
	labels, err := h.labels.List()
	if err != nil {
		response.InternalError(c, "failed to list labels")
		return
	}
	response.Success(c, labels)
}

// GetStats handles GET /api/label_stats
func (h *LabelHandler) GetStats(c *gin.Context) {
	stats, err := h.labels.Stats()
	if err != nil {
		response.InternalError(c, "failed to compute label stats")
		return
	}
	response.Success(c, stats)
}
