package domain

import "strconv"

// NoRelevantContent is the answer returned when retrieval finds nothing.
// The language model is not consulted in that case.
const NoRelevantContent = "No relevant content found."

// Chunk is a contiguous window of a cleaned source document.
// Consecutive chunks of the same source overlap by a fixed number of bytes.
type Chunk struct {
	// ID is derived from SourceID and Index; see ChunkID.
	ID string

	// SourceID links to the Source the chunk was cut from.
	SourceID string

	// Index is the ordinal position within the source, starting at 0.
	Index int

	// Offset is the byte offset of the chunk within the cleaned text.
	Offset int

	// Text is the chunk content.
	Text string
}

// ChunkID returns the deterministic identifier for chunk i of a source.
// Re-ingesting a source yields the same ids, so vector store writes are upserts.
func ChunkID(sourceID string, i int) string {
	return sourceID + "_" + strconv.Itoa(i)
}

// EmbeddingRecord is the unit persisted in a vector store.
type EmbeddingRecord struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]string
}

// RetrievedChunk is a vector store match, ranked nearest first.
type RetrievedChunk struct {
	// ID is the chunk id.
	ID string

	// Text is the stored chunk text.
	Text string

	// Metadata is the stored chunk metadata.
	Metadata map[string]string

	// Score is the similarity to the query vector. Higher is nearer.
	Score float64
}

// Title returns the title stored with the chunk, if any.
func (r RetrievedChunk) Title() string {
	return r.Metadata[MetaTitle]
}

// SourceID returns the source the chunk belongs to.
func (r RetrievedChunk) SourceID() string {
	return r.Metadata[MetaSourceID]
}

// Answer is the result of a query.
type Answer struct {
	// Query is the question as asked.
	Query string

	// Text is the model response, trimmed.
	Text string

	// Sources are the chunks the answer was grounded on, nearest first.
	Sources []RetrievedChunk

	// Model is the language model that produced Text. Empty when retrieval was empty.
	Model string
}
