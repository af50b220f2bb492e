package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	t.Run("canonical header", func(t *testing.T) {
		m := Detect([]string{"date_dt", "time_", "o_grid", "d_grid", "num_total"})
		require.Equal(t, Mapping{
			Date: "date_dt", Hour: "time_", OGrid: "o_grid", DGrid: "d_grid", Count: "num_total",
		}, m)
	})

	t.Run("drifted header", func(t *testing.T) {
		m := Detect([]string{"date", "hour", "o", "d", "flow"})
		require.Equal(t, Mapping{
			Date: "date", Hour: "hour", OGrid: "o", DGrid: "d", Count: "flow",
		}, m)
	})

	t.Run("alias priority", func(t *testing.T) {
		// Both forms present: the earlier alias wins.
		m := Detect([]string{"date_dt", "date", "time", "hour", "o_grid", "o", "d_grid", "d", "num_total", "count"})
		require.Equal(t, "date_dt", m.Date)
		require.Equal(t, "time", m.Hour)
		require.Equal(t, "o_grid", m.OGrid)
		require.Equal(t, "d_grid", m.DGrid)
		require.Equal(t, "num_total", m.Count)
	})

	t.Run("unknown header falls back to defaults", func(t *testing.T) {
		m := Detect([]string{"foo", "bar"})
		require.Equal(t, Mapping{
			Date: "date_dt", Hour: "time", OGrid: "o_grid_500", DGrid: "d_grid_500", Count: "num_total",
		}, m)
	})

	t.Run("header whitespace trimmed", func(t *testing.T) {
		m := Detect([]string{" date_dt ", "time_", "o_grid", "d_grid", "num_total"})
		require.Equal(t, "date_dt", m.Date)
	})
}

func TestDetectFile(t *testing.T) {
	t.Run("reads header line", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "2021.csv")
		require.NoError(t, os.WriteFile(path,
			[]byte("date,hour,o,d,flow\n20210101,8,1,2,3\n"), 0o644))

		m, err := DetectFile(path)
		require.NoError(t, err)
		require.Equal(t, "date", m.Date)
		require.Equal(t, "flow", m.Count)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := DetectFile(filepath.Join(t.TempDir(), "nope.csv"))
		require.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.csv")
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		_, err := DetectFile(path)
		require.Error(t, err)
	})
}
