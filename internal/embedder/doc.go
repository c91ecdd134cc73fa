// Package embedder generates vector embeddings for code chunks.
//
// Three providers are supported: Gemini (default when GEMINI_API_KEY is
// set), OpenAI, and a deterministic local fallback that needs no network.
// All remote calls go through exponential-backoff retry, and document
// embeddings are cached in-memory by content hash, so re-embedding an
// unchanged chunk never hits the API.
package embedder
