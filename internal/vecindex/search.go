package vecindex

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"techdoc/pkg/types"
)

// Keyword match weights. Content containment dominates, a name match
// counts half, and a path match less again.
const (
	weightContent = 1.0
	weightName    = 0.5
	weightPath    = 0.3
)

// Search returns the top k chunks by vector similarity. Distance is
// Euclidean and scores are 1/(1+distance), so a score of 1.0 means an
// exact vector match and scores decay toward zero with distance. Ties
// resolve by insertion order. Entries without a vector, and entries
// whose dimension differs from the query, are skipped.
func (ix *Index) Search(queryVector []float32, k int) ([]Result, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidTopK, k)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	results := make([]Result, 0, len(ix.entries))
	for _, e := range ix.entries {
		if e.Vector == nil || len(e.Vector) != len(queryVector) {
			continue
		}
		dist := l2Distance(queryVector, e.Vector)
		results = append(results, Result{Chunk: e.Chunk, Score: 1.0 / (1.0 + dist)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// KeywordSearch is the degraded search mode used when no query vector is
// available. It scores substring containment in chunk content, name, and
// path, returns only positive scores, and resolves ties by insertion
// order.
func (ix *Index) KeywordSearch(query string, k int) ([]Result, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidTopK, k)
	}

	needle := strings.ToLower(query)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	results := make([]Result, 0)
	for _, e := range ix.entries {
		score := 0.0
		if strings.Contains(strings.ToLower(e.Chunk.Content), needle) {
			score += weightContent
		}
		if e.Chunk.Name != "" && strings.Contains(strings.ToLower(e.Chunk.Name), needle) {
			score += weightName
		}
		if strings.Contains(strings.ToLower(e.Chunk.FilePath), needle) {
			score += weightPath
		}
		if score > 0 {
			results = append(results, Result{Chunk: e.Chunk, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
