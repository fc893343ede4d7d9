package domain

import "time"

// LedgerEntry records that a source completed ingestion.
// An entry exists only after every chunk of the source was stored.
type LedgerEntry struct {
	// SourceID is the processed source.
	SourceID string `json:"source_id"`

	// Title is the source title at ingestion time.
	Title string `json:"title,omitempty"`

	// ProcessedAt is when the source was marked processed.
	ProcessedAt time.Time `json:"processed_at"`

	// RunID identifies the ingestion run that processed the source.
	RunID string `json:"run_id,omitempty"`

	// Chunks is the number of chunks stored for the source.
	Chunks int `json:"chunks"`
}
