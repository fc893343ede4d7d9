// Package compress rewrites chunks through a language model, removing filler
// and sponsor segments while keeping the trading context.
package compress

import (
	"context"
	"fmt"
	"strings"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
	"github.com/s7ventures/trading-nlp-pipeline/internal/logger"
)

// DefaultPrompt is used when no prompt store overrides PromptCompress.
const DefaultPrompt = `You are an expert content editor. Remove irrelevant fluff, filler words, disclaimers, or sponsor messages, and keep the trading context. Make the text concise:

%s`

// Temperature used for compression requests.
const Temperature = 0.3

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor condenses each chunk with an LLM.
type Processor struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// Option configures the processor.
type Option func(*Processor)

// WithPromptStore loads the compression prompt from store.
func WithPromptStore(store driven.PromptStore) Option {
	return func(p *Processor) {
		p.prompts = store
	}
}

// New creates a compression processor backed by llm.
func New(llm driven.LLMService, opts ...Option) *Processor {
	p := &Processor{llm: llm}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "compress"
}

// Process rewrites chunk text in place. Ids, indexes and offsets are kept so
// the stored records still map to the original transcript window. A chunk the
// model returns empty keeps its original text.
func (p *Processor) Process(ctx context.Context, src *domain.Source, chunks []domain.Chunk) ([]domain.Chunk, error) {
	template := p.prompt()
	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		text, err := p.llm.Generate(ctx, fmt.Sprintf(template, c.Text), driven.GenerateOptions{Temperature: Temperature})
		if err != nil {
			return nil, fmt.Errorf("%w: compress chunk %s: %w", domain.ErrGeneration, c.ID, err)
		}
		out[i] = c
		if text = strings.TrimSpace(text); text != "" {
			out[i].Text = text
		} else {
			logger.Warn("compress: empty response for %s, keeping original", c.ID)
		}
	}
	logger.Debug("compress: rewrote %d chunks of %s", len(chunks), src.ID)
	return out, nil
}

func (p *Processor) prompt() string {
	if p.prompts == nil {
		return DefaultPrompt
	}
	tmpl, err := p.prompts.Load(driven.PromptCompress)
	if err != nil || !strings.Contains(tmpl, "%s") {
		return DefaultPrompt
	}
	return tmpl
}
