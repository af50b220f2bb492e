package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/mobvis/od-backend/internal/service"
	"github.com/mobvis/od-backend/pkg/response"
)

// BuildHandler handles HTTP requests that trigger aggregate builds
type BuildHandler struct {
	build *service.BuildService
}

// NewBuildHandler creates a new build handler
func NewBuildHandler(build *service.BuildService) *BuildHandler {
	return &BuildHandler{build: build}
}

type buildRequest struct {
	Years []int `json:"years"`
}

// GetYears handles GET /api/years
func (h *BuildHandler) GetYears(c *gin.Context) {
	response.Success(c, h.build.Years())
}

// PostBuild handles POST /api/build. Builds are long-running and not
// cancellable once started; the request blocks until they finish.
func (h *BuildHandler) PostBuild(c *gin.Context) {
	var req buildRequest
	// Body is optional; no body means build all configured years
	_ = c.ShouldBindJSON(&req)

	if err := h.build.EnsureBuilt(c.Request.Context(), req.Years); err != nil {
		respondEngineError(c, err)
		return
	}
	years := req.Years
	if len(years) == 0 {
		years = h.build.Years()
	}
	response.Success(c, gin.H{"built": years})
}
