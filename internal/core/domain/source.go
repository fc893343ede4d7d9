package domain

import (
	"strconv"
	"time"
)

// Metadata keys written alongside every stored chunk.
const (
	MetaSourceID    = "source_id"
	MetaTitle       = "title"
	MetaPublishedAt = "published_at"
	MetaURI         = "uri"
	MetaChunkIndex  = "chunk_index"
)

// Source is a single video transcript as produced by an external fetch step.
// It is read once by the ingestion pipeline and never mutated.
type Source struct {
	// ID is the stable external identifier (e.g. a YouTube video id).
	ID string

	// Text is the raw transcript, possibly carrying timestamp prefixes.
	Text string

	// Metadata describes the video.
	Metadata SourceMetadata
}

// SourceMetadata holds the descriptive fields of a source.
type SourceMetadata struct {
	// Title is the video title.
	Title string

	// PublishedAt is when the video was published. Zero when unknown.
	PublishedAt time.Time

	// Description is the video description, if fetched.
	Description string

	// URI is where the transcript came from (file path or watch URL).
	URI string

	// Extra carries connector-specific values copied into chunk metadata.
	Extra map[string]string
}

// Flatten converts metadata into the string map stored with each chunk.
// Empty fields are omitted.
func (m SourceMetadata) Flatten(sourceID string, chunkIndex int) map[string]string {
	out := make(map[string]string, len(m.Extra)+5)
	for k, v := range m.Extra {
		out[k] = v
	}
	out[MetaSourceID] = sourceID
	out[MetaChunkIndex] = strconv.Itoa(chunkIndex)
	if m.Title != "" {
		out[MetaTitle] = m.Title
	}
	if !m.PublishedAt.IsZero() {
		out[MetaPublishedAt] = m.PublishedAt.UTC().Format(time.RFC3339)
	}
	if m.URI != "" {
		out[MetaURI] = m.URI
	}
	return out
}
