package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"techdoc/pkg/types"
)

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings.
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage opens (or creates) the metadata database at dbPath and
// applies any pending migrations.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// File record operations

func (s *SQLiteStorage) UpsertFileRecord(ctx context.Context, rec *types.FileRecord) error {
	query := `
		INSERT INTO files (file_path, content_hash, language, last_analyzed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			language = excluded.language,
			last_analyzed = excluded.last_analyzed,
			updated_at = excluded.updated_at
	`
	now := time.Now()
	if rec.LastAnalyzed.IsZero() {
		rec.LastAnalyzed = now
	}
	_, err := s.db.ExecContext(ctx, query,
		rec.Path, rec.ContentHash, string(rec.Language), rec.LastAnalyzed, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert file record: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetFileRecord(ctx context.Context, path string) (*types.FileRecord, error) {
	query := `
		SELECT file_path, content_hash, language, last_analyzed
		FROM files
		WHERE file_path = ?
	`
	var rec types.FileRecord
	var lang string
	err := s.db.QueryRowContext(ctx, query, path).Scan(
		&rec.Path, &rec.ContentHash, &lang, &rec.LastAnalyzed)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.Language = types.Language(lang)
	return &rec, nil
}

func (s *SQLiteStorage) ListFileRecords(ctx context.Context) ([]*types.FileRecord, error) {
	query := `
		SELECT file_path, content_hash, language, last_analyzed
		FROM files
		ORDER BY file_path
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := make([]*types.FileRecord, 0)
	for rows.Next() {
		var rec types.FileRecord
		var lang string
		if err := rows.Scan(&rec.Path, &rec.ContentHash, &lang, &rec.LastAnalyzed); err != nil {
			return nil, err
		}
		rec.Language = types.Language(lang)
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStorage) DeleteFileRecord(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE file_path = ?`, path)
	return err
}

// Change log operations

func (s *SQLiteStorage) LogChanges(ctx context.Context, changes []types.ChangeRecord) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO changes (file_path, old_hash, new_hash, kind, detected_at)
		VALUES (?, ?, ?, ?, ?)
	`
	now := time.Now()
	for _, c := range changes {
		if _, err := tx.ExecContext(ctx, query,
			c.Path, c.OldHash, c.NewHash, string(c.Kind), now); err != nil {
			return fmt.Errorf("failed to log change for %s: %w", c.Path, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStorage) RecentChanges(ctx context.Context, limit int) ([]types.ChangeRecord, error) {
	query := `
		SELECT file_path, old_hash, new_hash, kind
		FROM changes
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	changes := make([]types.ChangeRecord, 0)
	for rows.Next() {
		var c types.ChangeRecord
		var kind string
		if err := rows.Scan(&c.Path, &c.OldHash, &c.NewHash, &kind); err != nil {
			return nil, err
		}
		c.Kind = types.ChangeKind(kind)
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// Document operations

func (s *SQLiteStorage) SaveDocument(ctx context.Context, doc *Document) error {
	query := `
		INSERT INTO documents (doc_type, file_path, content, version_hash, generated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := s.db.ExecContext(ctx, query,
		doc.DocType, doc.FilePath, doc.Content, doc.VersionHash, now)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	doc.ID = id
	doc.GeneratedAt = now
	return nil
}

func (s *SQLiteStorage) LatestDocument(ctx context.Context, docType string) (*Document, error) {
	query := `
		SELECT id, doc_type, file_path, content, version_hash, generated_at
		FROM documents
		WHERE doc_type = ?
		ORDER BY id DESC
		LIMIT 1
	`
	var doc Document
	err := s.db.QueryRowContext(ctx, query, docType).Scan(
		&doc.ID, &doc.DocType, &doc.FilePath, &doc.Content,
		&doc.VersionHash, &doc.GeneratedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *SQLiteStorage) ListDocuments(ctx context.Context, docType string) ([]*Document, error) {
	query := `
		SELECT id, doc_type, file_path, content, version_hash, generated_at
		FROM documents
		WHERE doc_type = ?
		ORDER BY id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, docType)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	docs := make([]*Document, 0)
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.DocType, &doc.FilePath, &doc.Content,
			&doc.VersionHash, &doc.GeneratedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// Feedback operations

func (s *SQLiteStorage) AddFeedback(ctx context.Context, fb *Feedback) error {
	query := `
		INSERT INTO feedback (doc_type, rating, comment, created_at)
		VALUES (?, ?, ?, ?)
	`
	now := time.Now()
	result, err := s.db.ExecContext(ctx, query, fb.DocType, fb.Rating, fb.Comment, now)
	if err != nil {
		return fmt.Errorf("failed to add feedback: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	fb.ID = id
	fb.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) ListFeedback(ctx context.Context, docType string, limit int) ([]*Feedback, error) {
	query := `
		SELECT id, doc_type, rating, comment, created_at
		FROM feedback
		WHERE doc_type = ?
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, docType, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := make([]*Feedback, 0)
	for rows.Next() {
		var fb Feedback
		if err := rows.Scan(&fb.ID, &fb.DocType, &fb.Rating, &fb.Comment, &fb.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &fb)
	}
	return items, rows.Err()
}

// Session operations

func (s *SQLiteStorage) CreateSession(ctx context.Context, sess *Session) error {
	query := `
		INSERT INTO sessions (id, started_at)
		VALUES (?, ?)
	`
	now := time.Now()
	if sess.StartedAt.IsZero() {
		sess.StartedAt = now
	}
	_, err := s.db.ExecContext(ctx, query, sess.ID, sess.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) FinishSession(ctx context.Context, sess *Session) error {
	query := `
		UPDATE sessions
		SET ended_at = ?, files_scanned = ?, files_reindexed = ?, summary = ?
		WHERE id = ?
	`
	now := time.Now()
	if sess.EndedAt.IsZero() {
		sess.EndedAt = now
	}
	_, err := s.db.ExecContext(ctx, query,
		sess.EndedAt, sess.FilesScanned, sess.FilesReindexed, sess.Summary, sess.ID)
	if err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}
	return nil
}
