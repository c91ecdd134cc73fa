// Package detector implements content-addressed change detection.
//
// Each detection pass hashes the current files and compares against the
// records persisted from the previous run. Modification time and size
// are never consulted: a touched but unmodified file produces no change.
// When the scanned root is a git repository, the worktree status is used
// to refine classification of edge cases, but the hash comparison alone
// decides whether a file is reprocessed.
package detector
