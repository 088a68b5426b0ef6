package exclusion

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pesa/internal/core"
	"pesa/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestIsExcluded(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	f := NewFilter()

	excluded, err := f.IsExcluded(ctx, repo.Queries(), "mary mkulima")
	require.NoError(t, err)
	assert.False(t, excluded)

	require.NoError(t, repo.Queries().AdjustCollectionCount(ctx, core.ExclusionCollection("mary mkulima"), 0))

	excluded, err = f.IsExcluded(ctx, repo.Queries(), "mary mkulima")
	require.NoError(t, err)
	assert.True(t, excluded)

	// Lookup normalizes, so display-cased input hits the same marker.
	excluded, err = f.IsExcluded(ctx, repo.Queries(), "  Mary   MKULIMA ")
	require.NoError(t, err)
	assert.True(t, excluded)

	excluded, err = f.IsExcluded(ctx, repo.Queries(), "")
	require.NoError(t, err)
	assert.False(t, excluded)
}

func TestListExcludedRecipients(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	f := NewFilter()

	require.NoError(t, repo.Queries().AdjustCollectionCount(ctx, core.ExclusionCollection("mary mkulima"), 0))
	require.NoError(t, repo.Queries().AdjustCollectionCount(ctx, core.ExclusionCollection("john juma"), 0))
	// Reserved and user collections never appear in the exclusion list.
	require.NoError(t, repo.Queries().AdjustCollectionCount(ctx, "reimbursable", 1))

	recipients, err := f.ListExcludedRecipients(ctx, repo.Queries())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"mary mkulima", "john juma"}, recipients)
}
