package detector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/rs/zerolog"

	"techdoc/pkg/types"
)

// RecordSource supplies the last analyzed state of every tracked file.
// Satisfied by storage.SQLiteStorage.
type RecordSource interface {
	ListFileRecords(ctx context.Context) ([]*types.FileRecord, error)
}

// Detector compares the filesystem against stored file records and
// classifies each divergence as added, modified, or deleted.
type Detector struct {
	root    string
	records RecordSource
	log     zerolog.Logger
}

// Result is the outcome of one detection pass.
type Result struct {
	// Changes holds one record per divergent path, sorted by path.
	Changes []types.ChangeRecord
	// Hashes maps added/modified paths to their new content hash, so
	// callers don't hash the same content twice.
	Hashes map[string]string
	// Errors collects per-file read failures. They skip the file but
	// never abort the pass.
	Errors []error
}

// New creates a Detector rooted at the given directory.
func New(root string, records RecordSource, log zerolog.Logger) *Detector {
	return &Detector{root: root, records: records, log: log}
}

// Detect classifies every divergence between currentPaths (relative,
// slash-separated, as produced by the scanner) and the stored records.
// A path with no record is added, a hash mismatch is modified, and a
// record whose path is absent from currentPaths is deleted. Identical
// hashes produce no change.
//
// When the root is a git repository, the worktree status refines the
// classification: a file git reports as untracked is added even if a
// stale record exists for it. The content hash alone still decides
// whether re-embedding happens.
func (d *Detector) Detect(ctx context.Context, currentPaths []string) (*Result, error) {
	stored, err := d.records.ListFileRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list file records: %w", err)
	}

	known := make(map[string]*types.FileRecord, len(stored))
	for _, rec := range stored {
		known[rec.Path] = rec
	}

	gitStatus := d.worktreeStatus()

	result := &Result{Hashes: make(map[string]string)}
	seen := make(map[string]bool, len(currentPaths))

	for _, path := range currentPaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seen[path] = true

		content, readErr := os.ReadFile(filepath.Join(d.root, path))
		if readErr != nil {
			d.log.Warn().Err(readErr).Str("path", path).Msg("skipping unreadable file")
			result.Errors = append(result.Errors, fmt.Errorf("read %s: %w", path, readErr))
			continue
		}

		hash := types.HashContent(content)
		rec, exists := known[path]

		switch {
		case !exists:
			result.Changes = append(result.Changes, types.ChangeRecord{
				Path: path, NewHash: hash, Kind: types.ChangeAdded,
			})
			result.Hashes[path] = hash
		case rec.ContentHash == hash:
			// Unchanged.
		default:
			kind := types.ChangeModified
			oldHash := rec.ContentHash
			if untracked(gitStatus, path) {
				// The stored record is stale: git has never seen this
				// file, so the earlier record belongs to a removed
				// incarnation of the path.
				kind = types.ChangeAdded
				oldHash = ""
			}
			result.Changes = append(result.Changes, types.ChangeRecord{
				Path: path, OldHash: oldHash, NewHash: hash, Kind: kind,
			})
			result.Hashes[path] = hash
		}
	}

	for path, rec := range known {
		if !seen[path] {
			result.Changes = append(result.Changes, types.ChangeRecord{
				Path: path, OldHash: rec.ContentHash, Kind: types.ChangeDeleted,
			})
		}
	}

	sort.Slice(result.Changes, func(i, j int) bool {
		return result.Changes[i].Path < result.Changes[j].Path
	})

	d.log.Debug().
		Int("changes", len(result.Changes)).
		Int("errors", len(result.Errors)).
		Msg("change detection complete")

	return result, nil
}

// worktreeStatus returns the git worktree status for the root, or nil
// when the root is not a repository or status is unavailable. Detection
// degrades to pure hash comparison in that case.
func (d *Detector) worktreeStatus() git.Status {
	repo, err := git.PlainOpenWithOptions(d.root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil
	}
	status, err := wt.Status()
	if err != nil {
		d.log.Debug().Err(err).Msg("git status unavailable, using hashes only")
		return nil
	}
	return status
}

func untracked(status git.Status, path string) bool {
	if status == nil {
		return false
	}
	fs, ok := status[path]
	return ok && fs.Worktree == git.Untracked
}
