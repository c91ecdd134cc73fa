package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techdoc/pkg/types"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFileRecordRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	rec := &types.FileRecord{
		Path:        "src/app.py",
		ContentHash: types.HashContent([]byte("x = 1\n")),
		Language:    types.LangPython,
	}
	require.NoError(t, s.UpsertFileRecord(ctx, rec))

	got, err := s.GetFileRecord(ctx, "src/app.py")
	require.NoError(t, err)
	assert.Equal(t, rec.Path, got.Path)
	assert.Equal(t, rec.ContentHash, got.ContentHash)
	assert.Equal(t, types.LangPython, got.Language)
	assert.False(t, got.LastAnalyzed.IsZero())
}

func TestFileRecordUpsertReplacesHash(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first := &types.FileRecord{Path: "a.go", ContentHash: "aaa", Language: types.LangGo}
	require.NoError(t, s.UpsertFileRecord(ctx, first))

	second := &types.FileRecord{Path: "a.go", ContentHash: "bbb", Language: types.LangGo}
	require.NoError(t, s.UpsertFileRecord(ctx, second))

	got, err := s.GetFileRecord(ctx, "a.go")
	require.NoError(t, err)
	assert.Equal(t, "bbb", got.ContentHash)

	all, err := s.ListFileRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetFileRecordNotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetFileRecord(context.Background(), "missing.py")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteFileRecord(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertFileRecord(ctx, &types.FileRecord{Path: "gone.py", ContentHash: "h"}))
	require.NoError(t, s.DeleteFileRecord(ctx, "gone.py"))

	_, err := s.GetFileRecord(ctx, "gone.py")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChangeLog(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	changes := []types.ChangeRecord{
		{Path: "a.py", NewHash: "h1", Kind: types.ChangeAdded},
		{Path: "b.py", OldHash: "h2", NewHash: "h3", Kind: types.ChangeModified},
		{Path: "c.py", OldHash: "h4", Kind: types.ChangeDeleted},
	}
	require.NoError(t, s.LogChanges(ctx, changes))

	got, err := s.RecentChanges(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Most recent first.
	assert.Equal(t, "c.py", got[0].Path)
	assert.Equal(t, types.ChangeDeleted, got[0].Kind)
	assert.Equal(t, "a.py", got[2].Path)
}

func TestLogChangesEmptyIsNoop(t *testing.T) {
	s := newTestStorage(t)
	assert.NoError(t, s.LogChanges(context.Background(), nil))
}

func TestDocumentVersioning(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	v1 := &Document{DocType: "readme", Content: "# v1", VersionHash: "h1"}
	require.NoError(t, s.SaveDocument(ctx, v1))
	assert.NotZero(t, v1.ID)

	v2 := &Document{DocType: "readme", Content: "# v2", VersionHash: "h2"}
	require.NoError(t, s.SaveDocument(ctx, v2))

	latest, err := s.LatestDocument(ctx, "readme")
	require.NoError(t, err)
	assert.Equal(t, "# v2", latest.Content)

	all, err := s.ListDocuments(ctx, "readme")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = s.LatestDocument(ctx, "changelog")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeedback(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.AddFeedback(ctx, &Feedback{DocType: "api", Rating: 4, Comment: "add examples"}))
	require.NoError(t, s.AddFeedback(ctx, &Feedback{DocType: "api", Rating: 2, Comment: "too terse"}))
	require.NoError(t, s.AddFeedback(ctx, &Feedback{DocType: "readme", Rating: 5}))

	got, err := s.ListFeedback(ctx, "api", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "too terse", got[0].Comment)

	limited, err := s.ListFeedback(ctx, "api", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	sess := &Session{ID: "run-1"}
	require.NoError(t, s.CreateSession(ctx, sess))
	assert.False(t, sess.StartedAt.IsZero())

	sess.FilesScanned = 12
	sess.FilesReindexed = 3
	sess.Summary = "3 files reindexed"
	require.NoError(t, s.FinishSession(ctx, sess))
	assert.False(t, sess.EndedAt.IsZero())
}

func TestMigrationsIdempotent(t *testing.T) {
	s := newTestStorage(t)

	// Re-running migrations against an up-to-date database is a no-op.
	assert.NoError(t, ApplyMigrations(context.Background(), s.db))
}
