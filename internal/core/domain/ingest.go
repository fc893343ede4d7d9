package domain

// SkipReason explains why a source was not ingested.
type SkipReason string

// Skip reasons reported by the ingestion pipeline.
const (
	// SkipNone means the source was ingested.
	SkipNone SkipReason = ""

	// SkipAlreadyProcessed means the ledger already holds the source.
	SkipAlreadyProcessed SkipReason = "already_processed"

	// SkipFiltered means a skip predicate matched the source metadata.
	SkipFiltered SkipReason = "filtered"

	// SkipEmpty means the cleaned transcript was empty.
	SkipEmpty SkipReason = "empty"

	// SkipClaimed means another ingestion run holds the source.
	SkipClaimed SkipReason = "claimed"
)

// IngestResult describes the outcome of ingesting one source.
type IngestResult struct {
	SourceID string
	Title    string
	Skipped  SkipReason
	Chunks   int
}

// IngestSummary aggregates the outcome of an ingestion run.
type IngestSummary struct {
	RunID     string
	Ingested  int
	Skipped   int
	Failed    int
	Chunks    int
	Results   []IngestResult
	FailedIDs []string
}
