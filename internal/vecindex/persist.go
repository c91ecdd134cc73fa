package vecindex

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"techdoc/pkg/types"
)

const (
	vectorFile   = "vectors.bin"
	metadataFile = "metadata.json"
)

// entryMeta is the JSON shape of one entry in the metadata file. The
// vector itself lives in the binary blob; HasVector says whether this
// entry owns a slot there.
type entryMeta struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Name      string `json:"name,omitempty"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Content   string `json:"content"`
	FilePath  string `json:"file_path"`
	Language  string `json:"language,omitempty"`
	Parent    string `json:"parent,omitempty"`
	HasVector bool   `json:"has_vector"`
}

type indexMeta struct {
	Dimension int         `json:"dimension"`
	Count     int         `json:"count"`
	Entries   []entryMeta `json:"entries"`
}

// Persist writes the index to dir as two co-located files: a metadata
// JSON document and a binary blob of little-endian float32 vectors in
// entry order. Both are written to temp files and renamed into place, so
// a crash mid-write never corrupts an existing index.
func (ix *Index) Persist(dir string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	meta := indexMeta{Dimension: ix.dim, Entries: make([]entryMeta, 0, len(ix.entries))}
	var blob []byte
	for _, e := range ix.entries {
		em := entryMeta{
			ID:        e.ID,
			Kind:      string(e.Chunk.Kind),
			Name:      e.Chunk.Name,
			StartLine: e.Chunk.StartLine,
			EndLine:   e.Chunk.EndLine,
			Content:   e.Chunk.Content,
			FilePath:  e.Chunk.FilePath,
			Language:  string(e.Chunk.Language),
			Parent:    e.Chunk.Parent,
			HasVector: e.Vector != nil,
		}
		if e.Vector != nil {
			blob = append(blob, serializeVector(e.Vector)...)
			meta.Count++
		}
		meta.Entries = append(meta.Entries, em)
	}

	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	if err := writeAtomic(filepath.Join(dir, vectorFile), blob); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, metadataFile), metaBytes); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	ix.log.Debug().Int("entries", len(ix.entries)).Str("dir", dir).Msg("index persisted")
	return nil
}

// Load reads a persisted index from dir. A missing index yields an empty
// one. When the vector blob and metadata disagree on vector count, both
// are discarded and an empty index is returned with a warning; the next
// full indexing run rebuilds it.
func Load(dir string, dim int, log zerolog.Logger) (*Index, error) {
	ix := New(dim, log)

	metaBytes, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if os.IsNotExist(err) {
		return ix, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var meta indexMeta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		log.Warn().Err(err).Msg("corrupt index metadata, starting empty")
		return ix, nil
	}

	blob, err := os.ReadFile(filepath.Join(dir, vectorFile))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read vectors: %w", err)
	}

	if meta.Dimension != dim {
		log.Warn().
			Int("stored", meta.Dimension).
			Int("expected", dim).
			Msg("index dimension changed, starting empty")
		return ix, nil
	}

	// The blob must account for exactly one vector per has_vector entry.
	// Trusting meta.Count alone would let corrupt metadata drive the
	// deserialization loop past the end of the blob.
	vectored := 0
	for _, em := range meta.Entries {
		if em.HasVector {
			vectored++
		}
	}
	if vectored != meta.Count || len(blob) != vectored*dim*4 {
		log.Warn().
			Int("recorded_count", meta.Count).
			Int("vectored_entries", vectored).
			Int("blob_bytes", len(blob)).
			Msg("vector blob does not match metadata, starting empty")
		return ix, nil
	}

	offset := 0
	for _, em := range meta.Entries {
		e := Entry{
			ID: em.ID,
			Chunk: types.Chunk{
				Kind:      types.ChunkKind(em.Kind),
				Name:      em.Name,
				StartLine: em.StartLine,
				EndLine:   em.EndLine,
				Content:   em.Content,
				FilePath:  em.FilePath,
				Language:  types.Language(em.Language),
				Parent:    em.Parent,
			},
		}
		if em.HasVector {
			e.Vector = deserializeVector(blob[offset : offset+dim*4])
			offset += dim * 4
		}
		ix.entries = append(ix.entries, e)
	}

	log.Debug().Int("entries", len(ix.entries)).Str("dir", dir).Msg("index loaded")
	return ix, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}
