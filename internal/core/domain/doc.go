// Package domain defines the core business entities for Athena.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ChunkRecord: A tagged, embedded slice of a policy document
//   - Match: A chunk scored against a query
//   - AssembledContext: Formatted snippets plus citations for an LLM prompt
//   - IngestState: Per-document hashes and statuses gating re-embedding
//   - Settings: Typed configuration with defaults
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
