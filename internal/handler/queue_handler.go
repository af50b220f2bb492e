package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mobvis/od-backend/internal/models"
	"github.com/mobvis/od-backend/internal/service"
	"github.com/mobvis/od-backend/pkg/response"
)

// QueueHandler handles HTTP requests for the annotation work queue
type QueueHandler struct {
	queue *service.QueueService
	query *service.QueryService
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(queue *service.QueueService, query *service.QueryService) *QueueHandler {
	return &QueueHandler{queue: queue, query: query}
}

// PostStart handles POST /api/label_queue/start
func (h *QueueHandler) PostStart(c *gin.Context) {
	var req models.QueueStartRequest
	// Body is optional; an empty body builds an unfiltered queue
	_ = c.ShouldBindJSON(&req)

	q, err := h.queue.Start(c.Request.Context(), req)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, q)
}

// GetQueue handles GET /api/label_queue
func (h *QueueHandler) GetQueue(c *gin.Context) {
	q, err := h.queue.Get()
	if err != nil {
		response.InternalError(c, "failed to load queue")
		return
	}
	response.Success(c, q)
}

// PostAdvance handles POST /api/label_queue/advance
func (h *QueueHandler) PostAdvance(c *gin.Context) {
	cur, err := h.queue.Advance()
	if err != nil {
		response.InternalError(c, "failed to advance queue")
		return
	}
	response.Success(c, cur)
}

// PostBack handles POST /api/label_queue/back
func (h *QueueHandler) PostBack(c *gin.Context) {
	cur, err := h.queue.Back()
	if err != nil {
		response.InternalError(c, "failed to step queue back")
		return
	}
	response.Success(c, cur)
}

// PostSet handles POST /api/label_queue/set
func (h *QueueHandler) PostSet(c *gin.Context) {
	var req models.QueueSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "index or grid_id required")
		return
	}
	if req.Index == nil && req.GridID == nil {
		response.BadRequest(c, "index or grid_id required")
		return
	}
	cur, err := h.queue.Set(req)
	if err != nil {
		response.InternalError(c, "failed to set queue cursor")
		return
	}
	response.Success(c, cur)
}

// PostReset handles POST /api/label_queue/reset
func (h *QueueHandler) PostReset(c *gin.Context) {
	if err := h.queue.Reset(); err != nil {
		response.InternalError(c, "failed to reset queue")
		return
	}
	response.Success(c, gin.H{"reset": true})
}

// GetLowFilterDebug handles GET /api/low_filter_debug. It explains how the
// low-traffic rule would treat one grid under the given thresholds.
func (h *QueueHandler) GetLowFilterDebug(c *gin.Context) {
	gid, err := strconv.ParseInt(c.Query("grid_id"), 10, 64)
	if err != nil || gid == 0 {
		response.BadRequest(c, "grid_id required")
		return
	}

	var year *int
	if ys := c.Query("year"); ys != "" {
		y, err := strconv.Atoi(ys)
		if err != nil {
			response.BadRequest(c, "year must be an integer")
			return
		}
		year = &y
	}
	lowValue := parseFloatDefault(c.Query("low_value"), 0)
	lowPct := parseFloatDefault(c.Query("low_pct"), 0)

	dbg, err := h.query.DebugLowFilter(c.Request.Context(), gid, year, lowValue, lowPct)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	response.Success(c, dbg)
}

func parseFloatDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}
