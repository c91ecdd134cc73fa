package vecindex

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"techdoc/pkg/types"
)

var (
	// ErrDimensionMismatch is returned when a vector's length differs
	// from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Entry is one indexed chunk. Vector may be nil when embedding failed;
// such entries are still reachable through keyword search.
type Entry struct {
	ID     string
	Chunk  types.Chunk
	Vector []float32
}

// Result pairs a chunk with its relevance score for one query.
type Result struct {
	Chunk types.Chunk
	Score float64
}

// Index is an in-memory flat vector index over code chunks. All chunk
// state for a path is replaced atomically on upsert, so a reader never
// observes a mix of old and new chunks for the same file. Entries keep
// insertion order, which makes equal-score search results deterministic.
type Index struct {
	mu      sync.RWMutex
	dim     int
	entries []Entry
	log     zerolog.Logger
}

// New creates an empty index for vectors of the given dimension.
func New(dim int, log zerolog.Logger) *Index {
	return &Index{dim: dim, log: log}
}

// Dimension returns the vector dimension the index accepts.
func (ix *Index) Dimension() int {
	return ix.dim
}

// Count returns the number of indexed chunks.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Upsert replaces every entry for the given path with the new entries,
// as a single operation under the write lock. Passing no entries is
// equivalent to Remove. Vectors must match the index dimension; nil
// vectors are accepted for keyword-only entries.
func (ix *Index) Upsert(path string, entries []Entry) error {
	for _, e := range entries {
		if e.Vector != nil && len(e.Vector) != ix.dim {
			return fmt.Errorf("%w: got %d, index dimension %d", ErrDimensionMismatch, len(e.Vector), ix.dim)
		}
		if e.Chunk.FilePath != path {
			return fmt.Errorf("entry %q does not belong to path %q", e.ID, path)
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.removeLocked(path)
	ix.entries = append(ix.entries, entries...)
	return nil
}

// Remove drops every entry for the given path. Removing an unindexed
// path is a no-op.
func (ix *Index) Remove(path string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(path)
}

func (ix *Index) removeLocked(path string) {
	kept := ix.entries[:0]
	for _, e := range ix.entries {
		if e.Chunk.FilePath != path {
			kept = append(kept, e)
		}
	}
	ix.entries = kept
}

// SearchByFile returns all chunks indexed for a path, in insertion order.
func (ix *Index) SearchByFile(path string) []types.Chunk {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var chunks []types.Chunk
	for _, e := range ix.entries {
		if e.Chunk.FilePath == path {
			chunks = append(chunks, e.Chunk)
		}
	}
	return chunks
}

// Paths returns the distinct file paths currently indexed.
func (ix *Index) Paths() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	seen := make(map[string]bool)
	var paths []string
	for _, e := range ix.entries {
		if !seen[e.Chunk.FilePath] {
			seen[e.Chunk.FilePath] = true
			paths = append(paths, e.Chunk.FilePath)
		}
	}
	return paths
}

// Stats summarizes index contents by language and chunk kind.
type Stats struct {
	TotalChunks int
	Embedded    int
	Languages   map[string]int
	ChunkKinds  map[string]int
}

// GetStats returns aggregate statistics about the index.
func (ix *Index) GetStats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	stats := Stats{
		Languages:  make(map[string]int),
		ChunkKinds: make(map[string]int),
	}
	stats.TotalChunks = len(ix.entries)
	for _, e := range ix.entries {
		if e.Vector != nil {
			stats.Embedded++
		}
		stats.Languages[string(e.Chunk.Language)]++
		stats.ChunkKinds[string(e.Chunk.Kind)]++
	}
	return stats
}
