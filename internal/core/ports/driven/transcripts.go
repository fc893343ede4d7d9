package driven

import (
	"context"
	"iter"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

// TranscriptSource lists transcripts available for ingestion.
type TranscriptSource interface {
	// Name identifies the source for logging.
	Name() string

	// Sources yields every available transcript. Iteration stops at the
	// first error, which is yielded with a zero Source.
	Sources(ctx context.Context) iter.Seq2[domain.Source, error]
}

// VideoCatalog looks up video metadata on the hosting platform.
type VideoCatalog interface {
	// ChannelVideos lists up to max videos of a channel, newest first.
	ChannelVideos(ctx context.Context, channelID string, max int) ([]domain.Source, error)

	// Videos returns metadata for the given ids keyed by id.
	// Unknown ids are absent from the result.
	Videos(ctx context.Context, ids []string) (map[string]domain.SourceMetadata, error)
}
