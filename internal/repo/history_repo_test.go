package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quackscience/copilot-extension-duckdb/internal/engine"
	"github.com/quackscience/copilot-extension-duckdb/internal/model"
)

func newTestRepo(t *testing.T, keep int) *HistoryRepo {
	t.Helper()
	eng, err := engine.New(t.TempDir(), 4)
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	return NewHistoryRepo(eng, keep)
}

func TestHistoryRepo_RecordAndList(t *testing.T) {
	repo := newTestRepo(t, 10)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, "octocat", &model.QueryRecord{
		Query: "SELECT 1", Status: model.QueryStatusOK, RowsReturned: 1, Ctime: 100,
	}))
	require.NoError(t, repo.Record(ctx, "octocat", &model.QueryRecord{
		Query: "SELEC 2", Status: model.QueryStatusFailed, Error: "syntax error", Ctime: 200,
	}))

	records, err := repo.List(ctx, "octocat", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "SELEC 2", records[0].Query)
	require.Equal(t, model.QueryStatusFailed, records[0].Status)
	require.Equal(t, "SELECT 1", records[1].Query)
}

func TestHistoryRepo_PrunesToKeepCount(t *testing.T) {
	repo := newTestRepo(t, 2)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, repo.Record(ctx, "octocat", &model.QueryRecord{
			Query: "SELECT 1", Status: model.QueryStatusOK, Ctime: i * 100,
		}))
	}
	records, err := repo.List(ctx, "octocat", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, int64(500), records[0].Ctime)
	require.Equal(t, int64(400), records[1].Ctime)
}

func TestHistoryRepo_ListHonorsLimit(t *testing.T) {
	repo := newTestRepo(t, 10)
	ctx := context.Background()

	for i := int64(1); i <= 4; i++ {
		require.NoError(t, repo.Record(ctx, "octocat", &model.QueryRecord{
			Query: "SELECT 1", Status: model.QueryStatusOK, Ctime: i * 100,
		}))
	}
	records, err := repo.List(ctx, "octocat", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, int64(400), records[0].Ctime)
	require.Equal(t, int64(300), records[1].Ctime)
}

func TestHistoryRepo_IsolatedPerIdentity(t *testing.T) {
	repo := newTestRepo(t, 10)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, "alice", &model.QueryRecord{
		Query: "SELECT 1", Status: model.QueryStatusOK, Ctime: 100,
	}))
	records, err := repo.List(ctx, "bob", 10)
	require.NoError(t, err)
	require.Empty(t, records)
}
