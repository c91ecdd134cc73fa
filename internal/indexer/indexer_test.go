package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techdoc/internal/embedder"
	"techdoc/internal/scanner"
	"techdoc/internal/storage"
	"techdoc/internal/vecindex"
	"techdoc/pkg/types"
)

type testEnv struct {
	ix    *Indexer
	store *storage.SQLiteStorage
	index *vecindex.Index
	root  string
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	root := t.TempDir()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sc, err := scanner.New(root, scanner.Config{})
	require.NoError(t, err)

	emb, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)

	index := vecindex.New(embedder.LocalDimension, zerolog.Nop())
	ix := New(cfg, sc, store, emb, index, zerolog.Nop())

	return &testEnv{ix: ix, store: store, index: index, root: root}
}

func (e *testEnv) writeFile(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(e.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const samplePython = `def greet(name):
    return "hello " + name

def farewell(name):
    return "bye " + name
`

func TestRunIndexesNewFiles(t *testing.T) {
	env := newTestEnv(t, Config{Workers: 2})
	env.writeFile(t, "app.py", samplePython)
	env.writeFile(t, "lib/util.go", "package util\n\nfunc Add(a, b int) int {\n\treturn a + b\n}\n")

	sum, err := env.ix.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, sum.FilesScanned)
	assert.Equal(t, 2, sum.FilesReindexed)
	assert.Greater(t, sum.ChunksIndexed, 2)
	assert.Empty(t, sum.Errors)

	recs, err := env.store.ListFileRecords(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	assert.NotEmpty(t, env.index.SearchByFile("app.py"))
	assert.NotEmpty(t, env.index.SearchByFile("lib/util.go"))

	stats := env.index.GetStats()
	assert.Equal(t, stats.TotalChunks, stats.Embedded)
}

func TestRunIsIdempotent(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.writeFile(t, "app.py", samplePython)

	_, err := env.ix.Run(context.Background(), Options{})
	require.NoError(t, err)

	sum, err := env.ix.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.FilesScanned)
	assert.Equal(t, 0, sum.FilesReindexed)
	assert.Empty(t, sum.Changes)
}

func TestRunReindexesModifiedFile(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.writeFile(t, "app.py", samplePython)

	_, err := env.ix.Run(context.Background(), Options{})
	require.NoError(t, err)
	before := len(env.index.SearchByFile("app.py"))

	env.writeFile(t, "app.py", "def only_one():\n    return 1\n")

	sum, err := env.ix.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.FilesReindexed)
	require.Len(t, sum.Changes, 1)
	assert.Equal(t, types.ChangeModified, sum.Changes[0].Kind)

	after := env.index.SearchByFile("app.py")
	assert.Less(t, len(after), before)
	for _, c := range after {
		assert.NotEqual(t, "farewell", c.Name)
	}
}

func TestRunRemovesDeletedFile(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.writeFile(t, "app.py", samplePython)
	env.writeFile(t, "gone.py", "def gone():\n    pass\n")

	_, err := env.ix.Run(context.Background(), Options{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(env.root, "gone.py")))

	sum, err := env.ix.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.FilesDeleted)
	assert.Empty(t, env.index.SearchByFile("gone.py"))

	_, err = env.store.GetFileRecord(context.Background(), "gone.py")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	changes, err := env.store.RecentChanges(context.Background(), 10)
	require.NoError(t, err)
	var kinds []types.ChangeKind
	for _, c := range changes {
		kinds = append(kinds, c.Kind)
	}
	assert.Contains(t, kinds, types.ChangeDeleted)
}

func TestRunForceFull(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.writeFile(t, "app.py", samplePython)

	_, err := env.ix.Run(context.Background(), Options{})
	require.NoError(t, err)

	sum, err := env.ix.Run(context.Background(), Options{ForceFull: true})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.FilesReindexed)
	assert.Empty(t, sum.Changes)
}

func TestRunPersistsIndex(t *testing.T) {
	persistDir := t.TempDir()
	env := newTestEnv(t, Config{PersistDir: persistDir})
	env.writeFile(t, "app.py", samplePython)

	_, err := env.ix.Run(context.Background(), Options{})
	require.NoError(t, err)

	loaded, err := vecindex.Load(persistDir, embedder.LocalDimension, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, env.index.Count(), loaded.Count())
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	env := newTestEnv(t, Config{})

	require.True(t, env.ix.lock.TryAcquire())
	defer env.ix.lock.Release()

	_, err := env.ix.Run(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrRunInProgress)
}

// failingEmbedder errors on every call so affected files must fail for
// the run and stay eligible for retry.
type failingEmbedder struct{}

func (failingEmbedder) GenerateEmbedding(context.Context, embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	return nil, errors.New("provider down")
}

func (failingEmbedder) GenerateBatch(context.Context, embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	return nil, errors.New("provider down")
}

func (failingEmbedder) Dimension() int   { return embedder.LocalDimension }
func (failingEmbedder) Provider() string { return "failing" }
func (failingEmbedder) Model() string    { return "failing" }
func (failingEmbedder) Close() error     { return nil }

func TestRunEmbeddingFailureRetriesNextRun(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ix.embed = failingEmbedder{}
	env.writeFile(t, "app.py", samplePython)

	sum, err := env.ix.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, sum.FilesReindexed)
	require.Len(t, sum.Errors, 1)
	assert.Contains(t, sum.Errors[0], "app.py")

	// The file record was not advanced, so a healthy run picks the
	// file up again.
	_, err = env.store.GetFileRecord(context.Background(), "app.py")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	emb, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)
	env.ix.embed = emb

	sum, err = env.ix.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.FilesReindexed)
	assert.NotEmpty(t, env.index.SearchByFile("app.py"))
}

func TestRunToleratesUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}

	env := newTestEnv(t, Config{})
	env.writeFile(t, "ok.py", samplePython)
	env.writeFile(t, "locked.py", "def hidden():\n    pass\n")
	require.NoError(t, os.Chmod(filepath.Join(env.root, "locked.py"), 0o000))

	sum, err := env.ix.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.FilesScanned)
	assert.Equal(t, 1, sum.FilesReindexed)
	assert.NotEmpty(t, sum.Errors)
}
