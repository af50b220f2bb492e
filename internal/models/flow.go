package models

// FlowQuery represents query parameters for the flows endpoint
type FlowQuery struct {
	Year      string  `form:"year"`      // Single year or "all"
	GridID    int64   `form:"grid_id"`   // Required
	Direction string  `form:"direction"` // out, in, both (default both)
	TopK      int     `form:"topk"`      // Max edges per direction (default 100)
	Coverage  float64 `form:"cov"`       // 0..1, 0 = disabled
}

// FlowEdge is one aggregated OD edge incident to the queried grid, with both
// endpoints resolved against the grid reference set.
type FlowEdge struct {
	OGrid    int64     `json:"o_grid"`
	DGrid    int64     `json:"d_grid"`
	NumTotal float64   `json:"num_total"`
	DistKm   float64   `json:"dist_km"`
	O        *GridCell `json:"o"`
	D        *GridCell `json:"d"`
}

// FlowResult holds the resolved edges for one grid and year
type FlowResult struct {
	Center   *GridCell  `json:"center"`
	OutEdges []FlowEdge `json:"out_edges"`
	InEdges  []FlowEdge `json:"in_edges"`
}

// FlowAllYearsResult maps year -> per-year flow result for year="all" queries
type FlowAllYearsResult struct {
	Years map[int]*FlowResult `json:"years"`
}
