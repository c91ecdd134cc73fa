package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ChunkKind represents the kind of logical unit a chunk covers
type ChunkKind string

const (
	ChunkModule   ChunkKind = "module"
	ChunkClass    ChunkKind = "class"
	ChunkFunction ChunkKind = "function"
)

// Chunk represents a contiguous line range of source text treated as one
// semantic unit. Boundaries come from heuristic scanning, not parsing, so
// they are approximate by contract.
type Chunk struct {
	// Identification
	Kind ChunkKind
	Name string // Empty for module chunks

	// Location. StartLine is 1-based and inclusive. EndLine is an
	// exclusive bound over 0-based line indices, which makes it equal to
	// the 1-based number of the chunk's final line: lines[StartLine-1:EndLine]
	// is the chunk body.
	StartLine int
	EndLine   int

	// Content
	Content string

	// Ownership
	FilePath string
	Language Language

	// Parent is the name of the enclosing declaration when the chunk was
	// detected as nested (a method inside a class). Nesting is tracked by
	// indentation/brace-depth comparison only.
	Parent string
}

// ID returns the chunk's stable identifier, derived deterministically from
// path, kind, name, and start line. It is recomputed on every re-chunking:
// if a declaration's name or position changed, the old ID disappears and a
// new one appears (a rename is delete+add, not a tracked rename).
func (c *Chunk) ID() string {
	name := c.Name
	if name == "" {
		name = "unknown"
	}
	return fmt.Sprintf("%s:%s:%s:%d", c.FilePath, c.Kind, name, c.StartLine)
}

// ValidateKind checks if the chunk kind is valid
func (c *Chunk) ValidateKind() error {
	switch c.Kind {
	case ChunkModule, ChunkClass, ChunkFunction:
		return nil
	default:
		return fmt.Errorf("invalid chunk kind %q", c.Kind)
	}
}

// Validate performs comprehensive validation of the chunk.
// A start line past the end line signals a caller bug, not a runtime
// condition, so it fails here rather than being silently repaired.
func (c *Chunk) Validate() error {
	if err := c.ValidateKind(); err != nil {
		return err
	}

	if c.StartLine <= 0 {
		return ErrInvalidLineRange
	}

	if c.StartLine > c.EndLine {
		return ErrInvalidLineRange
	}

	if c.FilePath == "" {
		return ErrMissingFilePath
	}

	return nil
}

// HashContent computes the hex-encoded SHA-256 digest of arbitrary content.
// Used for both file-level change detection and chunk deduplication.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
