// Package chunker splits cleaned transcript text into overlapping windows
// that break on paragraph, sentence or word boundaries where possible.
package chunker

import (
	"context"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

// DefaultChunkSize is the default maximum number of bytes per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of bytes shared by consecutive chunks.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor splits source text into chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in bytes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a new chunker processor with the given options.
// It returns a *domain.ConfigurationError unless 0 < overlap < size.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := Validate(p.chunkSize, p.overlap); err != nil {
		return nil, err
	}
	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Size returns the configured maximum chunk size.
func (p *Processor) Size() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the source text into chunks with deterministic ids.
// Input chunks are ignored; this processor creates new chunks from the text.
func (p *Processor) Process(ctx context.Context, src *domain.Source, _ []domain.Chunk) ([]domain.Chunk, error) {
	if src.Text == "" {
		return nil, nil
	}

	spans, err := Spans(src.Text, p.chunkSize, p.overlap)
	if err != nil {
		return nil, err
	}

	estimatedChunks := len(src.Text)/(p.chunkSize-p.overlap) + 1
	chunks := make([]domain.Chunk, 0, estimatedChunks)

	for i, s := range spans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks = append(chunks, domain.Chunk{
			ID:       domain.ChunkID(src.ID, i),
			SourceID: src.ID,
			Index:    i,
			Offset:   s.Start,
			Text:     src.Text[s.Start:s.End],
		})
	}

	return chunks, nil
}
