package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"techdoc/internal/chunker"
	"techdoc/internal/detector"
	"techdoc/internal/embedder"
	"techdoc/internal/scanner"
	"techdoc/internal/storage"
	"techdoc/internal/vecindex"
	"techdoc/pkg/types"
)

// ErrRunInProgress is returned when a Run starts while another is active.
var ErrRunInProgress = errors.New("indexing already in progress")

// Store is the persistence surface the orchestrator needs. Satisfied by
// storage.SQLiteStorage.
type Store interface {
	UpsertFileRecord(ctx context.Context, rec *types.FileRecord) error
	ListFileRecords(ctx context.Context) ([]*types.FileRecord, error)
	DeleteFileRecord(ctx context.Context, path string) error
	LogChanges(ctx context.Context, changes []types.ChangeRecord) error
	CreateSession(ctx context.Context, s *storage.Session) error
	FinishSession(ctx context.Context, s *storage.Session) error
}

// DefaultEmbedTimeout bounds one embedding batch call.
const DefaultEmbedTimeout = 60 * time.Second

// Config contains orchestrator configuration.
type Config struct {
	// Workers bounds concurrent file processing (default runtime.NumCPU()).
	Workers int
	// PersistDir is where the vector index is saved after a run. Empty
	// disables persistence.
	PersistDir string
	// EmbedTimeout bounds each embedding batch call (default
	// DefaultEmbedTimeout). A file whose embedding times out fails for
	// this run and is retried on the next one.
	EmbedTimeout time.Duration
}

// Options controls a single Run.
type Options struct {
	// ForceFull re-chunks and re-embeds every discovered file, even ones
	// whose content hash is unchanged.
	ForceFull bool
}

// Summary reports what one Run did.
type Summary struct {
	FilesScanned   int
	FilesReindexed int
	FilesDeleted   int
	ChunksIndexed  int
	Changes        []types.ChangeRecord
	Errors         []string
	Duration       time.Duration
}

// Indexer coordinates the incremental pipeline: scan, detect changes,
// chunk, embed, and reconcile the vector index and file records. At most
// one Run executes at a time.
type Indexer struct {
	cfg     Config
	scanner *scanner.Scanner
	store   Store
	detect  *detector.Detector
	chunk   *chunker.Chunker
	embed   embedder.Embedder
	index   *vecindex.Index
	log     zerolog.Logger

	lock runLock
}

// New creates an Indexer over an already-constructed pipeline.
func New(cfg Config, sc *scanner.Scanner, store Store, embed embedder.Embedder, index *vecindex.Index, log zerolog.Logger) *Indexer {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = DefaultEmbedTimeout
	}
	return &Indexer{
		cfg:     cfg,
		scanner: sc,
		store:   store,
		detect:  detector.New(sc.Root(), recordSource{store}, log),
		chunk:   chunker.New(),
		embed:   embed,
		index:   index,
		log:     log,
	}
}

// recordSource adapts Store to the detector's narrower interface.
type recordSource struct{ s Store }

func (r recordSource) ListFileRecords(ctx context.Context) ([]*types.FileRecord, error) {
	return r.s.ListFileRecords(ctx)
}

// Run executes one indexing pass. Individual file failures are collected
// in the summary and never abort the run; only scan, detection, and
// persistence failures are fatal.
func (ix *Indexer) Run(ctx context.Context, opts Options) (*Summary, error) {
	if !ix.lock.TryAcquire() {
		return nil, ErrRunInProgress
	}
	defer ix.lock.Release()

	start := time.Now()
	session := &storage.Session{ID: uuid.NewString(), StartedAt: start}
	if err := ix.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	summary, runErr := ix.run(ctx, opts)
	if summary == nil {
		summary = &Summary{}
	}
	summary.Duration = time.Since(start)

	session.EndedAt = time.Now()
	session.FilesScanned = summary.FilesScanned
	session.FilesReindexed = summary.FilesReindexed
	session.Summary = describeRun(summary, runErr)
	if err := ix.store.FinishSession(ctx, session); err != nil {
		ix.log.Warn().Err(err).Str("session", session.ID).Msg("failed to finish session")
	}

	if runErr != nil {
		return nil, runErr
	}

	ix.log.Info().
		Int("scanned", summary.FilesScanned).
		Int("reindexed", summary.FilesReindexed).
		Int("deleted", summary.FilesDeleted).
		Int("chunks", summary.ChunksIndexed).
		Dur("duration", summary.Duration).
		Msg("indexing run complete")
	return summary, nil
}

func (ix *Indexer) run(ctx context.Context, opts Options) (*Summary, error) {
	paths, err := ix.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	result, err := ix.detect.Detect(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("detect changes: %w", err)
	}

	summary := &Summary{
		FilesScanned: len(paths),
		Changes:      result.Changes,
	}
	for _, derr := range result.Errors {
		summary.Errors = append(summary.Errors, derr.Error())
	}

	work, err := ix.buildWorkList(paths, result, opts)
	if err != nil {
		return summary, err
	}

	if err := ix.processFiles(ctx, work, summary); err != nil {
		return summary, err
	}

	for _, c := range result.Changes {
		if c.Kind != types.ChangeDeleted {
			continue
		}
		ix.index.Remove(c.Path)
		if err := ix.store.DeleteFileRecord(ctx, c.Path); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("delete record %s: %v", c.Path, err))
			continue
		}
		summary.FilesDeleted++
	}

	if len(result.Changes) > 0 {
		if err := ix.store.LogChanges(ctx, result.Changes); err != nil {
			return summary, fmt.Errorf("log changes: %w", err)
		}
	}

	if ix.cfg.PersistDir != "" {
		if err := ix.index.Persist(ix.cfg.PersistDir); err != nil {
			return summary, fmt.Errorf("persist index: %w", err)
		}
	}

	return summary, nil
}

// buildWorkList maps each path that needs reindexing to its content hash.
// Normally that is the added and modified paths; a forced run covers every
// scanned path.
func (ix *Indexer) buildWorkList(paths []string, result *detector.Result, opts Options) (map[string]string, error) {
	work := make(map[string]string)
	for _, c := range result.Changes {
		if c.Kind == types.ChangeAdded || c.Kind == types.ChangeModified {
			work[c.Path] = c.NewHash
		}
	}

	if !opts.ForceFull {
		return work, nil
	}

	for _, path := range paths {
		if _, ok := work[path]; ok {
			continue
		}
		content, err := os.ReadFile(filepath.Join(ix.scanner.Root(), path))
		if err != nil {
			// Already reported by the detector.
			continue
		}
		work[path] = types.HashContent(content)
	}
	return work, nil
}

// processFiles chunks, embeds, and indexes each work item using a bounded
// worker pool. A failed file is skipped and reported; the index and file
// record for it keep their previous state.
func (ix *Indexer) processFiles(ctx context.Context, work map[string]string, summary *Summary) error {
	var (
		reindexed int32
		chunks    int32
		mu        sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.Workers)

	for path, hash := range work {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := ix.processFile(gctx, path, hash)
			if err != nil {
				ix.log.Warn().Err(err).Str("path", path).Msg("file indexing failed")
				mu.Lock()
				summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", path, err))
				mu.Unlock()
				return nil
			}
			atomic.AddInt32(&reindexed, 1)
			atomic.AddInt32(&chunks, int32(n))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	summary.FilesReindexed = int(reindexed)
	summary.ChunksIndexed = int(chunks)
	return nil
}

// processFile runs the chunk-embed-upsert pipeline for one file and
// returns the number of chunks indexed.
func (ix *Indexer) processFile(ctx context.Context, path, hash string) (int, error) {
	content, err := os.ReadFile(filepath.Join(ix.scanner.Root(), path))
	if err != nil {
		return 0, fmt.Errorf("read: %w", err)
	}

	lang := types.DetectLanguage(path)
	fileChunks := ix.chunk.Chunk(path, string(content), lang)

	entries := make([]vecindex.Entry, len(fileChunks))
	for i := range fileChunks {
		entries[i] = vecindex.Entry{
			ID:    fileChunks[i].ID(),
			Chunk: fileChunks[i],
		}
	}

	if err := ix.embedEntries(ctx, fileChunks, entries); err != nil {
		// The file record is left untouched, so the next run sees the
		// file as still changed and retries it.
		return 0, fmt.Errorf("embed: %w", err)
	}

	if err := ix.index.Upsert(path, entries); err != nil {
		return 0, fmt.Errorf("upsert index: %w", err)
	}

	rec := &types.FileRecord{
		Path:         path,
		ContentHash:  hash,
		Language:     lang,
		LastAnalyzed: time.Now().UTC(),
	}
	if err := ix.store.UpsertFileRecord(ctx, rec); err != nil {
		return 0, fmt.Errorf("upsert record: %w", err)
	}

	return len(entries), nil
}

// embedEntries fills entry vectors in provider-sized batches, each
// bounded by the configured timeout.
func (ix *Indexer) embedEntries(ctx context.Context, chunks []types.Chunk, entries []vecindex.Entry) error {
	for start := 0; start < len(chunks); start += embedder.MaxBatchSize {
		end := start + embedder.MaxBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			texts = append(texts, embedder.ChunkText(&chunks[i]))
		}

		batchCtx, cancel := context.WithTimeout(ctx, ix.cfg.EmbedTimeout)
		resp, err := ix.embed.GenerateBatch(batchCtx, embedder.BatchEmbeddingRequest{
			Texts: texts,
			Task:  embedder.TaskDocument,
		})
		cancel()
		if err != nil {
			return err
		}

		for i, emb := range resp.Embeddings {
			if emb != nil {
				entries[start+i].Vector = emb.Vector
			}
		}
	}
	return nil
}

func describeRun(s *Summary, runErr error) string {
	if runErr != nil {
		return fmt.Sprintf("failed: %v", runErr)
	}
	return fmt.Sprintf("reindexed %d of %d files, %d deleted, %d chunks, %d errors",
		s.FilesReindexed, s.FilesScanned, s.FilesDeleted, s.ChunksIndexed, len(s.Errors))
}
