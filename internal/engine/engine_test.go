package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mobvis/od-backend/internal/models"
)

func testGrids() *models.GridIndex {
	return models.NewGridIndex([]models.GridCell{
		{GridID: 100, Lon: 114.05, Lat: 22.54, AreaName: "Futian", CityName: "Shenzhen"},
		{GridID: 200, Lon: 114.11, Lat: 22.55, AreaName: "Luohu", CityName: "Shenzhen"},
		{GridID: 300, Lon: 113.26, Lat: 23.13, AreaName: "Tianhe", CityName: "Guangzhou"},
		{GridID: 400, Lon: 113.27, Lat: 23.14, AreaName: "Yuexiu", CityName: "Guangzhou"},
		{GridID: 500, Lon: 114.06, Lat: 22.56, AreaName: "Nanshan", CityName: "Shenzhen"},
		{GridID: 600, Lon: 114.07, Lat: 22.57, AreaName: "Bao'an", CityName: "Shenzhen"},
	})
}

func newTestEngine(t *testing.T, years []int) (*Engine, string) {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))

	e, err := New(Config{
		Years:      years,
		DataDir:    dataDir,
		AppDataDir: filepath.Join(root, "appdata"),
	}, testGrids())
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e, dataDir
}

// writeSource writes a raw OD CSV for one year. Rows are
// "date,hour,o,d,count" strings.
func writeSource(t *testing.T, dataDir string, year int, rows ...string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("date_dt,time,o_grid_500,d_grid_500,num_total\n")
	for _, r := range rows {
		b.WriteString(r)
		b.WriteString("\n")
	}
	path := filepath.Join(dataDir, fmt.Sprintf("%d.csv", year))
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func TestNewRequiresYears(t *testing.T) {
	_, err := New(Config{DataDir: t.TempDir(), AppDataDir: t.TempDir()}, testGrids())
	require.Error(t, err)
}

func TestBuildAndFlows(t *testing.T) {
	ctx := context.Background()
	e, dataDir := newTestEngine(t, []int{2018})
	writeSource(t, dataDir, 2018,
		"20180101,8,100,200,5",
		"20180101,8,100,300,15",
		"20180101,9,200,100,7",
		"20180101,9,100,999,99", // counterpart not in the reference set
	)
	require.NoError(t, e.Build(ctx, 2018, BuildAll))

	for _, kind := range []ArtifactKind{KindEdgesByO, KindEdgesByD, KindHourly, KindTotals} {
		require.True(t, e.HasArtifact(kind, 2018), "artifact %s should exist", kind)
	}

	t.Run("top-1 outbound", func(t *testing.T) {
		res, err := e.Flows(ctx, 2018, 100, DirectionOut, 1, 0)
		require.NoError(t, err)
		require.Len(t, res.OutEdges, 1)
		require.Equal(t, int64(300), res.OutEdges[0].DGrid)
		require.Equal(t, 15.0, res.OutEdges[0].NumTotal)
		require.Empty(t, res.InEdges)
		require.NotNil(t, res.Center)
	})

	t.Run("both directions", func(t *testing.T) {
		res, err := e.Flows(ctx, 2018, 100, DirectionBoth, 100, 0)
		require.NoError(t, err)
		// The edge to the unknown grid 999 is dropped after ranking.
		require.Len(t, res.OutEdges, 2)
		require.Len(t, res.InEdges, 1)
		require.Equal(t, int64(200), res.InEdges[0].OGrid)
		require.Equal(t, 7.0, res.InEdges[0].NumTotal)
	})

	t.Run("distance attached", func(t *testing.T) {
		res, err := e.Flows(ctx, 2018, 100, DirectionOut, 100, 0)
		require.NoError(t, err)
		for _, edge := range res.OutEdges {
			require.Greater(t, edge.DistKm, 0.0)
			require.NotNil(t, edge.O)
			require.NotNil(t, edge.D)
		}
	})

	t.Run("grid with no flow yields empty edge lists", func(t *testing.T) {
		res, err := e.Flows(ctx, 2018, 400, DirectionBoth, 100, 0)
		require.NoError(t, err)
		require.Empty(t, res.OutEdges)
		require.Empty(t, res.InEdges)
	})
}

func TestFlowsTieBreak(t *testing.T) {
	ctx := context.Background()
	e, dataDir := newTestEngine(t, []int{2018})
	writeSource(t, dataDir, 2018,
		"20180101,8,100,300,10",
		"20180101,8,100,200,10",
	)
	require.NoError(t, e.Build(ctx, 2018, BuildAll))

	// Equal flows order by counterpart id, so results are stable.
	res, err := e.Flows(ctx, 2018, 100, DirectionOut, 10, 0)
	require.NoError(t, err)
	require.Len(t, res.OutEdges, 2)
	require.Equal(t, int64(200), res.OutEdges[0].DGrid)
	require.Equal(t, int64(300), res.OutEdges[1].DGrid)

	// Rebuild and query again: identical result.
	require.NoError(t, e.Build(ctx, 2018, BuildAll))
	again, err := e.Flows(ctx, 2018, 100, DirectionOut, 10, 0)
	require.NoError(t, err)
	require.Equal(t, res.OutEdges, again.OutEdges)
}

func TestFlowsCoverage(t *testing.T) {
	ctx := context.Background()
	e, dataDir := newTestEngine(t, []int{2018})
	writeSource(t, dataDir, 2018,
		"20180101,8,100,200,50",
		"20180101,8,100,300,30",
		"20180101,8,100,400,20",
	)
	require.NoError(t, e.Build(ctx, 2018, BuildAll))

	edges := func(cov float64, topK int) []models.FlowEdge {
		res, err := e.Flows(ctx, 2018, 100, DirectionOut, topK, cov)
		require.NoError(t, err)
		return res.OutEdges
	}

	t.Run("80 percent keeps the top two", func(t *testing.T) {
		got := edges(0.8, 100)
		require.Len(t, got, 2)
		require.Equal(t, int64(200), got[0].DGrid)
		require.Equal(t, int64(300), got[1].DGrid)
	})

	t.Run("50 percent keeps only the largest", func(t *testing.T) {
		got := edges(0.5, 100)
		require.Len(t, got, 1)
		require.Equal(t, 50.0, got[0].NumTotal)
	})

	t.Run("full coverage keeps everything", func(t *testing.T) {
		require.Len(t, edges(1, 100), 3)
	})

	t.Run("topk still caps a coverage query", func(t *testing.T) {
		require.Len(t, edges(1, 2), 2)
	})

	t.Run("out of range coverage clamped", func(t *testing.T) {
		require.Len(t, edges(5, 100), 3)
	})
}

func TestFlowsIndexMissing(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, []int{2018, 2021})

	_, err := e.Flows(ctx, 2018, 100, DirectionBoth, 10, 0)
	im, ok := IsIndexMissing(err)
	require.True(t, ok)
	require.Equal(t, []int{2018}, im.Years)

	_, err = e.FlowsAllYears(ctx, 100, DirectionBoth, 10, 0)
	require.ErrorIs(t, err, ErrNoIndexes)
}

func TestFlowsAllYearsSkipsUnbuilt(t *testing.T) {
	ctx := context.Background()
	e, dataDir := newTestEngine(t, []int{2018, 2021})
	writeSource(t, dataDir, 2018, "20180101,8,100,200,5")
	require.NoError(t, e.Build(ctx, 2018, BuildAll))

	res, err := e.FlowsAllYears(ctx, 100, DirectionOut, 10, 0)
	require.NoError(t, err)
	require.Contains(t, res.Years, 2018)
	require.NotContains(t, res.Years, 2021)
}

func TestBuildMissingSource(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, []int{2018})

	err := e.Build(ctx, 2018, BuildAll)
	var ms *MissingSourceError
	require.ErrorAs(t, err, &ms)
	require.Equal(t, 2018, ms.Year)
}

func TestEnsureBuilt(t *testing.T) {
	ctx := context.Background()
	e, dataDir := newTestEngine(t, []int{2018, 2021})
	writeSource(t, dataDir, 2018, "20180101,8,100,200,5")

	// The year without a source fails, the other is still built.
	err := e.EnsureBuilt(ctx, []int{2018, 2021})
	var ms *MissingSourceError
	require.ErrorAs(t, err, &ms)
	require.Equal(t, 2021, ms.Year)
	require.True(t, e.HasArtifact(KindEdgesByO, 2018))
	require.True(t, e.HasArtifact(KindTotals, 2018))

	// A second call with everything present is a no-op.
	require.NoError(t, e.EnsureBuilt(ctx, []int{2018}))
}

func TestHourlySeries(t *testing.T) {
	ctx := context.Background()
	e, dataDir := newTestEngine(t, []int{2018, 2021})
	writeSource(t, dataDir, 2018,
		"20180101,8,100,200,5",
		"20180101,9,200,100,7",
		"20180115,8,100,200,100", // later ISO week, must not leak into the series
		"20181332,8,100,200,50",  // unparseable date, excluded from hourly only
	)
	require.NoError(t, e.Build(ctx, 2018, BuildAll))

	t.Run("earliest week only, zero filled", func(t *testing.T) {
		series, err := e.HourlySeries(ctx, 100, nil)
		require.NoError(t, err)
		require.Contains(t, series, 2018)
		require.NotContains(t, series, 2021)

		s := series[2018]
		require.Len(t, s.Out, models.HoursPerDay)
		require.Equal(t, 5.0, s.Out[8])
		require.Equal(t, 7.0, s.In[9])
		for h := 0; h < models.HoursPerDay; h++ {
			require.Equal(t, s.Out[h]+s.In[h], s.Total[h], "hour %d", h)
		}
		require.Equal(t, 0.0, s.Out[0])
	})

	t.Run("built year with no rows still yields a zero series", func(t *testing.T) {
		series, err := e.HourlySeries(ctx, 300, nil)
		require.NoError(t, err)
		require.Contains(t, series, 2018)
		for h := 0; h < models.HoursPerDay; h++ {
			require.Equal(t, 0.0, series[2018].Total[h])
		}
	})

	t.Run("unparseable dates still count toward edges", func(t *testing.T) {
		res, err := e.Flows(ctx, 2018, 100, DirectionOut, 10, 0)
		require.NoError(t, err)
		require.Len(t, res.OutEdges, 1)
		require.Equal(t, 155.0, res.OutEdges[0].NumTotal) // 5 + 100 + 50
	})

	t.Run("no built years yields an empty map", func(t *testing.T) {
		series, err := e.HourlySeries(ctx, 100, []int{2021})
		require.NoError(t, err)
		require.Empty(t, series)
	})
}

func TestHeatmap(t *testing.T) {
	ctx := context.Background()
	e, dataDir := newTestEngine(t, []int{2018})
	writeSource(t, dataDir, 2018,
		"20180101,8,100,200,5",
		"20180101,8,100,300,15",
		"20180101,9,200,100,7",
		"20180101,9,100,999,3", // grid 999 not in the reference set
	)
	require.NoError(t, e.Build(ctx, 2018, BuildAll))

	// Totals: 100 -> out 23, in 7; 200 -> out 7, in 5; 300 -> out 0, in 15.
	t.Run("totals with percentile and max", func(t *testing.T) {
		res, err := e.Heatmap(ctx, 2018, MetricTotal, "", "")
		require.NoError(t, err)
		require.Equal(t, 3, res.N)

		byGrid := make(map[int64]float64)
		for _, v := range res.Values {
			byGrid[v.GridID] = v.V
		}
		require.Equal(t, 30.0, byGrid[100])
		require.Equal(t, 12.0, byGrid[200])
		require.Equal(t, 15.0, byGrid[300])

		require.Equal(t, 30.0, res.Max)
		// Sorted totals [12, 15, 30]: nearest-rank 95th is index 1.
		require.Equal(t, 15.0, res.Q95)
	})

	t.Run("out metric", func(t *testing.T) {
		res, err := e.Heatmap(ctx, 2018, MetricOut, "", "")
		require.NoError(t, err)
		byGrid := make(map[int64]float64)
		for _, v := range res.Values {
			byGrid[v.GridID] = v.V
		}
		require.Equal(t, 23.0, byGrid[100])
		require.Equal(t, 0.0, byGrid[300])
	})

	t.Run("city filter", func(t *testing.T) {
		res, err := e.Heatmap(ctx, 2018, MetricTotal, "Guangzhou", "")
		require.NoError(t, err)
		require.Equal(t, 1, res.N)
		require.Equal(t, int64(300), res.Values[0].GridID)
	})

	t.Run("empty filtered set", func(t *testing.T) {
		res, err := e.Heatmap(ctx, 2018, MetricTotal, "Nowhere", "")
		require.NoError(t, err)
		require.Equal(t, 0, res.N)
		require.Equal(t, 0.0, res.Q95)
		require.Equal(t, 0.0, res.Max)
	})

	t.Run("totals rebuilt on demand from edge artifacts", func(t *testing.T) {
		require.NoError(t, os.Remove(e.artifactPath(KindTotals, 2018)))
		res, err := e.Heatmap(ctx, 2018, MetricTotal, "", "")
		require.NoError(t, err)
		require.Equal(t, 3, res.N)
		require.True(t, e.HasArtifact(KindTotals, 2018))
	})

	t.Run("invalid metric", func(t *testing.T) {
		_, err := e.Heatmap(ctx, 2018, "median", "", "")
		require.Error(t, err)
	})

	t.Run("missing year surfaces a build error", func(t *testing.T) {
		_, err := e.Heatmap(ctx, 2021, MetricTotal, "", "")
		var ms *MissingSourceError
		require.ErrorAs(t, err, &ms)
	})
}

func TestLowTrafficGrids(t *testing.T) {
	ctx := context.Background()
	e, dataDir := newTestEngine(t, []int{2018})

	// Grid 500 is active around the clock; grid 700 has no data at all.
	rows := make([]string, 0, 24)
	for h := 0; h < 24; h++ {
		rows = append(rows, fmt.Sprintf("20180101,%d,500,600,10", h))
	}
	writeSource(t, dataDir, 2018, rows...)
	require.NoError(t, e.Build(ctx, 2018, BuildAll))

	t.Run("missing hours count as zero", func(t *testing.T) {
		report, err := e.LowTrafficGrids(ctx, []int64{500, 700}, nil, 0, 50)
		require.NoError(t, err)
		require.True(t, report.Applied)
		require.NotNil(t, report.ChosenYear)
		require.Equal(t, 2018, *report.ChosenYear)
		require.Equal(t, []int{1}, report.Weeks)
		require.True(t, report.Flagged[700])
		require.False(t, report.Flagged[500])
	})

	t.Run("threshold at the low value flags active grids too", func(t *testing.T) {
		report, err := e.LowTrafficGrids(ctx, []int64{500}, nil, 10, 50)
		require.NoError(t, err)
		require.True(t, report.Flagged[500])
	})

	t.Run("stricter percentage flags fewer grids", func(t *testing.T) {
		at50, err := e.LowTrafficGrids(ctx, []int64{500, 600, 700}, nil, 0, 50)
		require.NoError(t, err)
		at100, err := e.LowTrafficGrids(ctx, []int64{500, 600, 700}, nil, 0, 100)
		require.NoError(t, err)
		for gid := range at100.Flagged {
			require.True(t, at50.Flagged[gid], "grid %d flagged at 100%% but not 50%%", gid)
		}
	})

	t.Run("no hourly artifact is a no-op", func(t *testing.T) {
		bare, _ := newTestEngine(t, []int{2018})
		report, err := bare.LowTrafficGrids(ctx, []int64{500}, nil, 0, 50)
		require.NoError(t, err)
		require.False(t, report.Applied)
		require.Empty(t, report.Flagged)
	})
}

func TestDebugLowFilter(t *testing.T) {
	ctx := context.Background()
	e, dataDir := newTestEngine(t, []int{2018})
	writeSource(t, dataDir, 2018, "20180101,8,500,600,10")
	require.NoError(t, e.Build(ctx, 2018, BuildAll))

	t.Run("sparse grid", func(t *testing.T) {
		dbg, err := e.DebugLowFilter(ctx, 500, nil, 0, 50)
		require.NoError(t, err)
		require.Equal(t, 2018, dbg.Year)
		require.Len(t, dbg.Hours, models.HoursPerDay)
		require.Equal(t, 23, dbg.LECount) // only hour 8 is above zero
		require.True(t, dbg.Decision)
		require.Equal(t, 10.0, dbg.Hours[8].AvgTotal)
		require.False(t, dbg.Hours[8].LE)
	})

	t.Run("zero percentage never excludes", func(t *testing.T) {
		dbg, err := e.DebugLowFilter(ctx, 700, nil, 0, 0)
		require.NoError(t, err)
		require.Equal(t, 24, dbg.LECount)
		require.False(t, dbg.Decision)
	})

	t.Run("no artifacts at all", func(t *testing.T) {
		bare, _ := newTestEngine(t, []int{2018})
		_, err := bare.DebugLowFilter(ctx, 500, nil, 0, 50)
		require.ErrorIs(t, err, ErrNoIndexes)
	})
}

func TestColumnAliasBuild(t *testing.T) {
	ctx := context.Background()
	e, dataDir := newTestEngine(t, []int{2021})

	// Drifted export header.
	csv := "date,hour,o,d,flow\n20210104,8,100,200,9\n"
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "2021.csv"), []byte(csv), 0o644))

	require.NoError(t, e.Build(ctx, 2021, BuildAll))
	res, err := e.Flows(ctx, 2021, 100, DirectionOut, 10, 0)
	require.NoError(t, err)
	require.Len(t, res.OutEdges, 1)
	require.Equal(t, 9.0, res.OutEdges[0].NumTotal)

	series, err := e.HourlySeries(ctx, 100, []int{2021})
	require.NoError(t, err)
	require.Equal(t, 9.0, series[2021].Out[8])
}
