// Package services holds the ingestion, query and settings logic.
//
// Ingestion turns transcripts into embedded chunks and records finished
// sources in the dedup ledger. Queries embed a question, retrieve the
// nearest chunks and ask the language model. Both talk to infrastructure
// only through the driven ports, so tests run on the in-memory stores.
package services
