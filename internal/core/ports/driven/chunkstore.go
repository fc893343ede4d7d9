package driven

import "context"

// ChunkStore keeps the pre-embedding output of a source: the cleaned text
// and its ordered chunk strings.
type ChunkStore interface {
	// Save replaces the stored document for the source.
	Save(ctx context.Context, sourceID, cleaned string, chunks []string) error

	// Load returns the ordered chunks of the source.
	// Returns domain.ErrNotFound if nothing was saved.
	Load(ctx context.Context, sourceID string) ([]string, error)
}
