package service

import (
	"fmt"

	"github.com/mobvis/od-backend/internal/models"
	"github.com/mobvis/od-backend/internal/repository"
)

// LabelService handles business logic for grid annotations
type LabelService struct {
	repo  *repository.LabelRepository
	index *models.GridIndex
}

// NewLabelService creates a new label service
func NewLabelService(repo *repository.LabelRepository, index *models.GridIndex) *LabelService {
	return &LabelService{repo: repo, index: index}
}

// Save validates and stores one label, resolving coordinates from the
// reference set.
func (s *LabelService) Save(gridID int64, label int, remark string) error {
	if label < models.LabelMin || label > models.LabelMax {
		return fmt.Errorf("label must be %d..%d", models.LabelMin, models.LabelMax)
	}
	cell := s.index.Get(gridID)
	if cell == nil {
		return fmt.Errorf("grid_id %d not in reference metadata", gridID)
	}
	return s.repo.Save(models.Label{
		GridID: gridID,
		Lon:    cell.Lon,
		Lat:    cell.Lat,
		Label:  label,
		Remark: remark,
	})
}

// List returns all labels
func (s *LabelService) List() ([]models.Label, error) {
	return s.repo.List()
}

// Stats returns labeled counts per class
func (s *LabelService) Stats() (*models.LabelStats, error) {
	return s.repo.Stats()
}
