package service

import (
	"fmt"
	"log"

	"github.com/mobvis/od-backend/internal/models"
	"github.com/mobvis/od-backend/internal/repository"
)

// MetaService serves the static grid reference set
type MetaService struct {
	index *models.GridIndex
}

// NewMetaService creates a new meta service over a loaded index
func NewMetaService(index *models.GridIndex) *MetaService {
	return &MetaService{index: index}
}

// LoadGridIndex bootstraps the reference set: when the grid_cells table is
// empty and a metadata CSV is configured, it is imported first. The returned
// index is immutable for the process lifetime.
func LoadGridIndex(repo *repository.GridRepository, metaCSV string) (*models.GridIndex, error) {
	n, err := repo.Count()
	if err != nil {
		return nil, err
	}
	if n == 0 && metaCSV != "" {
		imported, err := repo.ImportCSV(metaCSV)
		if err != nil {
			return nil, fmt.Errorf("failed to import grid metadata: %w", err)
		}
		log.Printf("Imported %d grid cells from %s", imported, metaCSV)
	}

	cells, err := repo.LoadAll()
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("grid reference set is empty; set META_CSV or preload grid_cells")
	}
	return models.NewGridIndex(cells), nil
}

// Cities returns the distinct city names
func (s *MetaService) Cities() []string {
	return s.index.Cities()
}

// Filter returns cells matching the exact-match filters
func (s *MetaService) Filter(cityName, areaName string) []models.GridCell {
	return s.index.Filter(cityName, areaName)
}

// Get returns one cell or nil
func (s *MetaService) Get(gridID int64) *models.GridCell {
	return s.index.Get(gridID)
}
