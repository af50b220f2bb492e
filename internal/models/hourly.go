package models

// HoursPerDay is the fixed length of every hourly series.
const HoursPerDay = 24

// HourlySeries is a single representative week for one grid and year:
// 24 slots each for outbound, inbound and total flow. Hours with no
// observed rows stay zero.
type HourlySeries struct {
	Out   []float64 `json:"out"`
	In    []float64 `json:"in"`
	Total []float64 `json:"total"`
}

// NewHourlySeries returns a zero-filled series.
func NewHourlySeries() *HourlySeries {
	return &HourlySeries{
		Out:   make([]float64, HoursPerDay),
		In:    make([]float64, HoursPerDay),
		Total: make([]float64, HoursPerDay),
	}
}

// HourlyQuery represents query parameters for the hourly endpoint
type HourlyQuery struct {
	GridID int64 `form:"grid_id"` // Required
}
