// Package postprocessors provides the cleaning and chunking pipeline that runs
// before embedding.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline normalises source text and chains PostProcessors.
// It implements the PostProcessorPipeline interface.
type Pipeline struct {
	normaliser driven.Normaliser
	processors []driven.PostProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided. A nil normaliser leaves the
// text untouched.
func NewPipeline(normaliser driven.Normaliser, processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{
		normaliser: normaliser,
		processors: processors,
	}
}

// Process cleans the source text and runs it through all processors in order.
// The first processor receives nil chunks and should create them.
// Subsequent processors receive and may modify the chunks.
func (p *Pipeline) Process(ctx context.Context, src *domain.Source) (string, []domain.Chunk, error) {
	if src == nil {
		return "", nil, fmt.Errorf("source is nil")
	}

	cleaned := src.Text
	if p.normaliser != nil {
		cleaned = p.normaliser.Normalise(src.Text)
	}
	working := *src
	working.Text = cleaned

	var chunks []domain.Chunk

	for _, processor := range p.processors {
		var err error
		chunks, err = processor.Process(ctx, &working, chunks)
		if err != nil {
			return "", nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return cleaned, chunks, nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// Names returns the processor names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, 0, len(p.processors))
	for _, proc := range p.processors {
		names = append(names, proc.Name())
	}
	return names
}
