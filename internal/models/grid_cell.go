package models

import (
	"sort"
	"strings"
)

// GridCell is one row of the static grid reference table. Cells are loaded
// once at startup and shared read-only by every query engine.
type GridCell struct {
	GridID   int64   `json:"grid_id" db:"grid_id"`
	Lon      float64 `json:"lon" db:"lon"`
	Lat      float64 `json:"lat" db:"lat"`
	AreaName string  `json:"area_name,omitempty" db:"area_name"`
	CityName string  `json:"city_name,omitempty" db:"city_name"`
}

// GridIndex is an immutable in-memory view over the grid reference set.
// Built once from the grid_cells table; never mutated after construction.
type GridIndex struct {
	items []GridCell
	byID  map[int64]*GridCell
}

// NewGridIndex builds an index over the given cells. The slice is kept as-is;
// callers must not modify it afterwards.
func NewGridIndex(cells []GridCell) *GridIndex {
	byID := make(map[int64]*GridCell, len(cells))
	for i := range cells {
		byID[cells[i].GridID] = &cells[i]
	}
	return &GridIndex{items: cells, byID: byID}
}

// Get returns the cell for a grid id, or nil if the id is not in the
// reference set.
func (g *GridIndex) Get(gridID int64) *GridCell {
	return g.byID[gridID]
}

// Items returns all cells in load order.
func (g *GridIndex) Items() []GridCell {
	return g.items
}

// Len returns the number of cells in the reference set.
func (g *GridIndex) Len() int {
	return len(g.items)
}

// Cities returns the sorted list of distinct non-empty city names.
func (g *GridIndex) Cities() []string {
	seen := make(map[string]bool)
	for _, c := range g.items {
		name := strings.TrimSpace(c.CityName)
		if name != "" {
			seen[name] = true
		}
	}
	cities := make([]string, 0, len(seen))
	for name := range seen {
		cities = append(cities, name)
	}
	sort.Strings(cities)
	return cities
}

// Filter returns cells matching the given exact-match city/area filters.
// Empty filter values match everything.
func (g *GridIndex) Filter(cityName, areaName string) []GridCell {
	if cityName == "" && areaName == "" {
		return g.items
	}
	out := []GridCell{}
	for _, c := range g.items {
		if cityName != "" && c.CityName != cityName {
			continue
		}
		if areaName != "" && c.AreaName != areaName {
			continue
		}
		out = append(out, c)
	}
	return out
}
