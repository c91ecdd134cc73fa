package types

import "time"

// ChangeKind classifies how a file differs from the last analyzed state
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
)

// ChangeRecord is the per-run output of change detection for one path.
// It is ephemeral: it drives the reconciliation plan and may be logged,
// but nothing depends on it persisting.
type ChangeRecord struct {
	Path    string
	OldHash string // Empty for added files
	NewHash string // Empty for deleted files
	Kind    ChangeKind
}

// FileRecord tracks a path's last analyzed state. One record per tracked
// path, unique on path. Created on first analysis, updated whenever content
// changes, removed only by explicit reconciliation.
type FileRecord struct {
	Path         string
	ContentHash  string
	Language     Language
	LastAnalyzed time.Time
}

// Valid reports whether the change kind is one of the declared constants.
func (k ChangeKind) Valid() bool {
	switch k {
	case ChangeAdded, ChangeModified, ChangeDeleted:
		return true
	default:
		return false
	}
}
