package models

// Label classes are 0..9, where 0 means "other".
const (
	LabelMin = 0
	LabelMax = 9
)

// Label is one human-entered annotation for a grid cell
type Label struct {
	GridID int64   `json:"grid_id"`
	Lon    float64 `json:"lon"`
	Lat    float64 `json:"lat"`
	Label  int     `json:"label"`
	Remark string  `json:"remark,omitempty"`
}

// LabelRequest is the body of POST /api/label
type LabelRequest struct {
	GridID int64  `json:"grid_id" binding:"required"`
	Label  *int   `json:"label" binding:"required"`
	Remark string `json:"remark"`
}

// LabelStats summarizes labeled counts per class
type LabelStats struct {
	Total   int            `json:"total"`
	ByLabel map[string]int `json:"by_label"`
}
