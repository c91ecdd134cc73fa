// Package docgen turns indexed code into documentation artifacts.
//
// Each doc type (README, API, onboarding, changelog, architecture) has a
// prompt template. Generation retrieves the most relevant chunks from
// the vector index, folds in stored user feedback, calls the configured
// LLM, then persists the result both as a versioned document row and as
// a Markdown file on disk.
package docgen
