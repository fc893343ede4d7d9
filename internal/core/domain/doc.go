// Package domain defines the core business entities for the transcript pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Source: A video transcript with descriptive metadata
//   - Chunk: An overlapping window of cleaned transcript text
//   - EmbeddingRecord: A chunk paired with its vector, as stored
//   - RetrievedChunk: A ranked match returned by a vector store query
//   - LedgerEntry: A record that a source finished ingestion
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
