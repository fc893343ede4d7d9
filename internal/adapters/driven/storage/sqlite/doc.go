// Package sqlite provides a SQLite-based implementation of the storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements three ports over a single
// database connection:
//
//   - VectorStore: Embedding records with exact cosine similarity search
//   - DedupLedger: Processed sources
//   - ChunkStore: Cleaned text and chunk strings per source
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The database is stored at <data dir>/metadata.db.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
