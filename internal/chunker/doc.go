// Package chunker splits source files into logical chunks (module, class,
// and function granularity) using heuristic boundary detection.
//
// The chunker deliberately does not parse. Declarations are found by
// regex-level keyword matching at line starts, and block extents come from
// one of two strategies selected by the language:
//
//   - Indentation-delimited (Python, Ruby): a body ends at the first
//     subsequent non-blank line indented no deeper than the declaration.
//   - Brace-delimited (Go, C-family, JS/TS, Rust, ...): a body ends when
//     the running brace count returns to zero after going positive.
//
// Languages without a mapped strategy, and files in which no declaration
// is detected, fall back to a single whole-file chunk of kind module.
// Mis-detection on unusual formatting is an accepted limitation of this
// contract; it degrades chunk quality but never fails.
package chunker
