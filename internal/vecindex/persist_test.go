package vecindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	ix := newIndex(2)
	require.NoError(t, ix.Upsert("a.py", []Entry{
		entry("a.py", "f", 1, []float32{0.25, -1.5}),
		entry("a.py", "keyword_only", 5, nil),
	}))
	require.NoError(t, ix.Upsert("b.py", []Entry{
		entry("b.py", "g", 1, []float32{3, 4}),
	}))
	require.NoError(t, ix.Persist(dir))

	loaded, err := Load(dir, 2, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 3, loaded.Count())

	results, err := loaded.Search([]float32{0.25, -1.5}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "f", results[0].Chunk.Name)
	assert.Equal(t, 1.0, results[0].Score)

	// Vectorless entries survive as keyword-only.
	kw, err := loaded.KeywordSearch("keyword_only", 5)
	require.NoError(t, err)
	assert.Len(t, kw, 1)
}

func TestLoadMissingIndexIsEmpty(t *testing.T) {
	loaded, err := Load(t.TempDir(), 4, zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, loaded.Count())
	assert.Equal(t, 4, loaded.Dimension())
}

func TestLoadCountMismatchReinitializes(t *testing.T) {
	dir := t.TempDir()

	ix := newIndex(2)
	require.NoError(t, ix.Upsert("a.py", []Entry{entry("a.py", "f", 1, []float32{1, 2})}))
	require.NoError(t, ix.Persist(dir))

	// Truncate the vector blob so it no longer matches metadata.
	require.NoError(t, os.WriteFile(filepath.Join(dir, vectorFile), []byte{0, 0}, 0o644))

	loaded, err := Load(dir, 2, zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, loaded.Count())
}

func TestLoadUnderstatedCountReinitializes(t *testing.T) {
	dir := t.TempDir()

	// Metadata claims one vector but carries two vector-owning entries;
	// the blob only holds the claimed one. Deserializing the second
	// entry would read past the end of the blob.
	meta := `{
		"dimension": 2,
		"count": 1,
		"entries": [
			{"id": "a.py:function:f:1", "kind": "function", "name": "f",
			 "start_line": 1, "end_line": 2, "content": "def f(): pass",
			 "file_path": "a.py", "has_vector": true},
			{"id": "a.py:function:g:3", "kind": "function", "name": "g",
			 "start_line": 3, "end_line": 4, "content": "def g(): pass",
			 "file_path": "a.py", "has_vector": true}
		]
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, metadataFile), []byte(meta), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, vectorFile), serializeVector([]float32{1, 2}), 0o644))

	loaded, err := Load(dir, 2, zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, loaded.Count())
}

func TestLoadZeroCountWithVectoredEntriesReinitializes(t *testing.T) {
	dir := t.TempDir()

	// A zero count with an empty blob passes a blob-length check alone;
	// the vector-owning entry must still be treated as corruption rather
	// than given a fabricated vector.
	meta := `{
		"dimension": 2,
		"count": 0,
		"entries": [
			{"id": "b.py:function:h:1", "kind": "function", "name": "h",
			 "start_line": 1, "end_line": 2, "content": "def h(): pass",
			 "file_path": "b.py", "has_vector": true}
		]
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, metadataFile), []byte(meta), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, vectorFile), nil, 0o644))

	loaded, err := Load(dir, 2, zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, loaded.Count())
}

func TestLoadCorruptMetadataReinitializes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, metadataFile), []byte("{not json"), 0o644))

	loaded, err := Load(dir, 2, zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, loaded.Count())
}

func TestLoadDimensionChangeReinitializes(t *testing.T) {
	dir := t.TempDir()

	ix := newIndex(2)
	require.NoError(t, ix.Upsert("a.py", []Entry{entry("a.py", "f", 1, []float32{1, 2})}))
	require.NoError(t, ix.Persist(dir))

	loaded, err := Load(dir, 8, zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, loaded.Count())
}

func TestPersistOverwritesPrevious(t *testing.T) {
	dir := t.TempDir()

	ix := newIndex(2)
	require.NoError(t, ix.Upsert("a.py", []Entry{entry("a.py", "f", 1, []float32{1, 2})}))
	require.NoError(t, ix.Persist(dir))

	ix.Remove("a.py")
	require.NoError(t, ix.Upsert("b.py", []Entry{entry("b.py", "g", 1, []float32{5, 6})}))
	require.NoError(t, ix.Persist(dir))

	loaded, err := Load(dir, 2, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Count())
	assert.Empty(t, loaded.SearchByFile("a.py"))
	assert.Len(t, loaded.SearchByFile("b.py"), 1)
}

func TestVectorSerializationRoundTrip(t *testing.T) {
	v := []float32{0, 1.5, -2.25, 3.14159}
	got := deserializeVector(serializeVector(v))
	assert.Equal(t, v, got)
}
