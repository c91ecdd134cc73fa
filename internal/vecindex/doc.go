// Package vecindex implements the flat vector index over code chunks.
//
// The index is an exact-search structure: every query compares against
// every stored vector. That keeps behavior simple and deterministic at
// the corpus sizes this tool targets. Mutations are path-scoped: an
// upsert removes all of a file's chunks and inserts the new set under
// one write lock, so searches never see a file half-updated.
//
// Persistence uses two co-located files, a JSON metadata document and a
// raw little-endian float32 blob. Either file missing or inconsistent
// degrades to an empty index rather than an error; the orchestrator's
// next run repopulates it.
package vecindex
