// Package schema resolves the heterogeneous column names of yearly OD CSV
// sources to a canonical row shape (date, hour, origin, dest, count).
// Yearly exports drift: some carry date_dt/time_/o_grid, others date/hour/o.
package schema

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Mapping maps the five canonical fields to concrete column names of one
// year's source.
type Mapping struct {
	Date  string
	Hour  string
	OGrid string
	DGrid string
	Count string
}

// Alias priority per canonical field, first match wins. The fallback default
// is a soft contract: a header with none of the aliases yields a mapping that
// fails at read time, surfacing as a failed build for that year.
var (
	dateAliases  = []string{"date_dt", "date"}
	hourAliases  = []string{"time_", "time", "hour"}
	oGridAliases = []string{"o_grid", "o_grid_500", "o"}
	dGridAliases = []string{"d_grid", "d_grid_500", "d"}
	countAliases = []string{"num_total", "flow", "count"}
)

const (
	dateDefault  = "date_dt"
	hourDefault  = "time"
	oGridDefault = "o_grid_500"
	dGridDefault = "d_grid_500"
	countDefault = "num_total"
)

// Detect resolves a header list to a canonical mapping.
func Detect(header []string) Mapping {
	cols := make(map[string]bool, len(header))
	for _, c := range header {
		cols[strings.TrimSpace(c)] = true
	}

	pick := func(aliases []string, def string) string {
		for _, a := range aliases {
			if cols[a] {
				return a
			}
		}
		return def
	}

	return Mapping{
		Date:  pick(dateAliases, dateDefault),
		Hour:  pick(hourAliases, hourDefault),
		OGrid: pick(oGridAliases, oGridDefault),
		DGrid: pick(dGridAliases, dGridDefault),
		Count: pick(countAliases, countDefault),
	}
}

// DetectFile reads the first line of a CSV source and resolves its mapping.
func DetectFile(path string) (Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return Mapping{}, fmt.Errorf("failed to open source %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return Mapping{}, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	return Detect(header), nil
}
