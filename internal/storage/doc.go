// Package storage provides SQLite-based persistence for indexing metadata.
//
// The storage layer manages:
//   - File records (path, content hash, language, last analyzed time)
//   - The append-only change log
//   - Generated documents and their versions
//   - User feedback on documents
//   - Orchestrator run sessions
//
// Vector embeddings are NOT stored here; they live in the vecindex
// package's flat-file index. The split keeps the metadata database small
// and lets the vector index be rebuilt from scratch without touching
// file history.
//
// # Build Tags
//
// Two driver configurations are supported:
//
// CGO build (cgo_sqlite tag), using github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags "cgo_sqlite" ./...
//
// Pure Go build (default), using modernc.org/sqlite:
//
//	CGO_ENABLED=0 go build ./...
package storage
