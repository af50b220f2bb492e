package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mobvis/od-backend/internal/repository"
)

func TestLabelServiceSave(t *testing.T) {
	repo := repository.NewLabelRepository(newTestDB(t))
	svc := NewLabelService(repo, queueIndex())

	t.Run("stores resolved coordinates", func(t *testing.T) {
		require.NoError(t, svc.Save(1, 3, "business district"))

		labels, err := svc.List()
		require.NoError(t, err)
		require.Len(t, labels, 1)
		require.Equal(t, int64(1), labels[0].GridID)
		require.Equal(t, 3, labels[0].Label)
		require.Equal(t, "business district", labels[0].Remark)
	})

	t.Run("rejects out of range classes", func(t *testing.T) {
		require.Error(t, svc.Save(1, 10, ""))
		require.Error(t, svc.Save(1, -1, ""))
	})

	t.Run("rejects unknown grids", func(t *testing.T) {
		require.Error(t, svc.Save(999, 1, ""))
	})

	t.Run("relabeling appends", func(t *testing.T) {
		require.NoError(t, svc.Save(1, 5, "revised"))
		labels, err := svc.List()
		require.NoError(t, err)
		require.Len(t, labels, 2)
	})
}

func TestLabelServiceStats(t *testing.T) {
	repo := repository.NewLabelRepository(newTestDB(t))
	svc := NewLabelService(repo, queueIndex())

	require.NoError(t, svc.Save(1, 3, ""))
	require.NoError(t, svc.Save(2, 3, ""))
	require.NoError(t, svc.Save(3, 0, ""))

	stats, err := svc.Stats()
	require.NoError(t, err)
	require.Equal(t, 3, stats.Total)
	require.Equal(t, 2, stats.ByLabel["3"])
	require.Equal(t, 1, stats.ByLabel["0"])
	require.Equal(t, 0, stats.ByLabel["9"])
	require.Len(t, stats.ByLabel, 10)
}
