// Package types provides shared type definitions for the techdoc agent.
//
// This package defines the domain types used across the indexing core:
// languages, chunks, and change records.
//
// # Chunks
//
// Chunk represents a contiguous line range of source text treated as one
// semantic unit (module, class, or function-like declaration). Boundaries
// are detected heuristically, not parsed:
//
//	chunk := &types.Chunk{
//	    Kind:      types.ChunkFunction,
//	    Name:      "handleRequest",
//	    StartLine: 12,
//	    EndLine:   40,
//	    FilePath:  "server/handler.go",
//	    Language:  types.LangGo,
//	}
//
// A chunk's identity is derived deterministically from its path, kind,
// name, and start line:
//
//	id := chunk.ID() // "server/handler.go:function:handleRequest:12"
//
// The same declaration at the same position always produces the same ID
// across runs; a moved or renamed declaration produces a new one.
//
// # Languages
//
// Language is a closed enum. Each language maps to one of two
// boundary-detection strategies (indentation-based or brace-based), with a
// whole-file fallback for everything else:
//
//	lang := types.DetectLanguage("app/models.py") // LangPython
//	lang.Boundary()                               // BoundaryIndent
//
// # Change records
//
// ChangeRecord classifies one path as added, modified, or deleted relative
// to the persisted FileRecord table. Records are per-run and ephemeral.
package types
