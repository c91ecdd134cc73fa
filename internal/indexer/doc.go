// Package indexer orchestrates incremental indexing runs: file discovery,
// content-hash change detection, chunking, embedding, and reconciliation
// of the vector index and the metadata store. Unchanged files are never
// re-embedded; only changed files flow through the pipeline.
package indexer
