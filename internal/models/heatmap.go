package models

// HeatQuery represents query parameters for the heatmap endpoint
type HeatQuery struct {
	Year     int    `form:"year"`
	Metric   string `form:"metric"`    // total, in, out (default total)
	CityName string `form:"city_name"` // Exact match filter
	AreaName string `form:"area_name"` // Exact match filter
}

// HeatValue is the scalar heatmap value for one grid cell
type HeatValue struct {
	GridID int64   `json:"grid_id"`
	V      float64 `json:"v"`
}

// HeatmapResult carries the filtered values plus the distribution summary
// used by the client for color scaling.
type HeatmapResult struct {
	Values []HeatValue `json:"values"`
	Q95    float64     `json:"q95"`
	Max    float64     `json:"max"`
	N      int         `json:"n"`
}
