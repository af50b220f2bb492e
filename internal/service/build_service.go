package service

import (
	"context"

	"github.com/mobvis/od-backend/internal/engine"
)

// BuildService triggers aggregate builds
type BuildService struct {
	engine *engine.Engine
}

// NewBuildService creates a new build service
func NewBuildService(e *engine.Engine) *BuildService {
	return &BuildService{engine: e}
}

// Years returns the configured partition years
func (s *BuildService) Years() []int {
	return s.engine.Years()
}

// EnsureBuilt builds missing artifacts for the given years; defaults to all
// configured years when the list is empty.
func (s *BuildService) EnsureBuilt(ctx context.Context, years []int) error {
	if len(years) == 0 {
		years = s.engine.Years()
	}
	return s.engine.EnsureBuilt(ctx, years)
}
