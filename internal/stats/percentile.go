package stats

import (
	"math"
	"sort"
)

// NearestRank returns the q-quantile (0..1) of values using the nearest-rank
// rule without interpolation: the value at index floor(q * (n-1)) of the
// ascending order. A single-element set returns that element; an empty set
// returns 0.
func NearestRank(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := int(math.Floor(q * float64(len(sorted)-1)))
	return sorted[idx]
}

// Max returns the maximum of values, or 0 for an empty set.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}
