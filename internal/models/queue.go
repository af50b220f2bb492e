package models

// QueueFilters are the candidate-pool filters a queue was started with
type QueueFilters struct {
	CityName string `json:"city_name"`
	AreaName string `json:"area_name"`
	Keyword  string `json:"keyword"`
}

// QueueDebug records how the low-traffic exclusion affected the pool
type QueueDebug struct {
	Applied    bool  `json:"applied"`
	ChosenYear *int  `json:"chosen_year"`
	Weeks      []int `json:"weeks"`
	PoolBefore int   `json:"pool_before"`
	PoolAfter  int   `json:"pool_after"`
	Removed    int   `json:"removed"`
}

// LabelQueue is the persisted annotation work queue. Index may rest at
// len(Queue) once the queue is exhausted.
type LabelQueue struct {
	Queue   []int64      `json:"queue"`
	Index   int          `json:"index"`
	Filters QueueFilters `json:"filters"`
	Seed    *int64       `json:"seed"`
	Debug   *QueueDebug  `json:"debug,omitempty"`
}

// QueueStartRequest is the body of POST /api/label_queue/start
type QueueStartRequest struct {
	Count      int      `json:"count"`
	CityName   string   `json:"city_name"`
	AreaName   string   `json:"area_name"`
	Keyword    string   `json:"keyword"`
	Seed       *int64   `json:"seed"`
	LowPct     *float64 `json:"low_pct"`
	LowValue   *float64 `json:"low_value"`
	FilterYear *int     `json:"filter_year"`
}

// QueueCursor is the response for queue cursor movements
type QueueCursor struct {
	Index   int    `json:"index"`
	HasMore bool   `json:"has_more"`
	Current *int64 `json:"current"`
	Total   int    `json:"total"`
}

// QueueSetRequest is the body of POST /api/label_queue/set
type QueueSetRequest struct {
	Index  *int   `json:"index"`
	GridID *int64 `json:"grid_id"`
}
