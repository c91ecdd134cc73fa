package storage

import (
	"context"
	"errors"
	"time"

	"techdoc/pkg/types"
)

// ErrNotFound is returned when a requested entity doesn't exist.
var ErrNotFound = errors.New("not found")

// Document is a generated documentation artifact. Each generation run
// inserts a new row; LatestDocument returns the most recent one per type.
type Document struct {
	ID          int64
	DocType     string
	FilePath    string
	Content     string
	VersionHash string
	GeneratedAt time.Time
}

// Feedback is a user note attached to a generated document. Feedback for a
// doc type is folded into the next generation prompt for that type.
type Feedback struct {
	ID        int64
	DocType   string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// Session records one orchestrator run for auditability.
type Session struct {
	ID             string
	StartedAt      time.Time
	EndedAt        time.Time
	FilesScanned   int
	FilesReindexed int
	Summary        string
}

// Storage is the metadata persistence contract. Vector data lives in the
// vecindex package; this layer holds file records, the change log,
// generated documents, feedback, and run sessions.
type Storage interface {
	// File records
	UpsertFileRecord(ctx context.Context, rec *types.FileRecord) error
	GetFileRecord(ctx context.Context, path string) (*types.FileRecord, error)
	ListFileRecords(ctx context.Context) ([]*types.FileRecord, error)
	DeleteFileRecord(ctx context.Context, path string) error

	// Change log
	LogChanges(ctx context.Context, changes []types.ChangeRecord) error
	RecentChanges(ctx context.Context, limit int) ([]types.ChangeRecord, error)

	// Documents
	SaveDocument(ctx context.Context, doc *Document) error
	LatestDocument(ctx context.Context, docType string) (*Document, error)
	ListDocuments(ctx context.Context, docType string) ([]*Document, error)

	// Feedback
	AddFeedback(ctx context.Context, fb *Feedback) error
	ListFeedback(ctx context.Context, docType string, limit int) ([]*Feedback, error)

	// Sessions
	CreateSession(ctx context.Context, s *Session) error
	FinishSession(ctx context.Context, s *Session) error

	Close() error
}
