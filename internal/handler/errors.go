package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mobvis/od-backend/internal/engine"
	"github.com/mobvis/od-backend/pkg/response"
)

// respondEngineError maps typed engine failures onto the HTTP surface:
// a missing index is a 409 with a rebuild hint and the affected years,
// "no indexes available" is a 404 distinct from an empty result, a missing
// raw source is a 409 naming the year, anything else is a 500.
func respondEngineError(c *gin.Context, err error) {
	if im, ok := engine.IsIndexMissing(err); ok {
		response.ErrorWithData(c, http.StatusConflict, "index missing", gin.H{
			"hint":  engine.BuildHint,
			"years": im.Years,
		})
		return
	}
	if errors.Is(err, engine.ErrNoIndexes) {
		response.ErrorWithData(c, http.StatusNotFound, "no indexes available", gin.H{
			"hint": engine.BuildHint,
		})
		return
	}
	var ms *engine.MissingSourceError
	if errors.As(err, &ms) {
		response.ErrorWithData(c, http.StatusConflict, "missing source", gin.H{
			"year": ms.Year,
		})
		return
	}
	response.InternalError(c, err.Error())
}
