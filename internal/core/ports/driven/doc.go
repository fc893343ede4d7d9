// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Maps text to vectors
//   - VectorStore: Persists embedding records and answers nearest-neighbour queries
//   - DedupLedger: Records which sources finished ingestion
//   - ChunkStore: Keeps the pre-embedding chunk document per source
//   - TranscriptSource: Lists transcripts waiting to be ingested
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Required for answers, optional for ingestion (chunk compression)
//   - VideoCatalog: Enriches metadata and lists new videos
//   - PromptStore: Overrides the built-in prompts
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
