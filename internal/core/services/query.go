package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driving"
	"github.com/s7ventures/trading-nlp-pipeline/internal/logger"
	"github.com/s7ventures/trading-nlp-pipeline/internal/metrics"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryOptions configures the query service.
type QueryOptions struct {
	// TopK is used when a call passes topK <= 0.
	TopK int

	// Temperature is passed to the language model.
	Temperature float64

	// MaxTokens bounds the answer length. Zero uses the provider default.
	MaxTokens int

	// Metrics records query latency. Optional.
	Metrics *metrics.Metrics
}

// QueryService answers questions by retrieving transcript excerpts and
// asking a language model to answer from them.
type QueryService struct {
	embedder driven.EmbeddingService
	vectors  driven.VectorStore
	llm      driven.LLMService
	prompts  driven.PromptStore
	opts     QueryOptions
}

// NewQueryService creates a new query service.
// llm may be nil, in which case only Retrieve is available.
func NewQueryService(
	embedder driven.EmbeddingService,
	vectors driven.VectorStore,
	llm driven.LLMService,
	prompts driven.PromptStore,
	opts QueryOptions,
) *QueryService {
	if opts.TopK <= 0 {
		opts.TopK = domain.DefaultTopK
	}
	return &QueryService{
		embedder: embedder,
		vectors:  vectors,
		llm:      llm,
		prompts:  prompts,
		opts:     opts,
	}
}

// Retrieve returns the topK chunks nearest to the query, nearest first.
func (s *QueryService) Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievedChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = s.opts.TopK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, classify(domain.ErrEmbedding, "embed query", err)
	}

	results, err := s.vectors.Query(ctx, vector, topK)
	if err != nil {
		return nil, classify(domain.ErrRetrieval, "query vector store", err)
	}
	if len(results) > topK {
		results = results[:topK]
	}

	logger.Debug("retrieved %d chunks for %q", len(results), query)
	return results, nil
}

// Answer retrieves excerpts and asks the language model to answer from them.
// When nothing is retrieved the model is not called.
func (s *QueryService) Answer(ctx context.Context, query string, topK int) (answer *domain.Answer, err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeAnswered
		switch {
		case err != nil:
			outcome = metrics.OutcomeError
		case answer.Model == "":
			outcome = metrics.OutcomeNoContent
		}
		s.opts.Metrics.ObserveQuery(outcome, time.Since(start))
	}()

	if s.llm == nil {
		return nil, fmt.Errorf("%w: answering needs a language model", domain.ErrLLMUnavailable)
	}

	results, err := s.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	answer = &domain.Answer{Query: strings.TrimSpace(query), Sources: results}
	if len(results) == 0 {
		answer.Text = domain.NoRelevantContent
		return answer, nil
	}

	messages, err := s.messages(answer.Query, results)
	if err != nil {
		return nil, err
	}

	text, err := s.llm.Chat(ctx, messages, driven.ChatOptions{
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
	})
	if err != nil {
		return nil, classify(domain.ErrGeneration, "generate answer", err)
	}

	answer.Text = strings.TrimSpace(text)
	answer.Model = s.llm.ModelName()
	return answer, nil
}

// messages builds the system persona and the user turn holding the
// numbered excerpts and the question.
func (s *QueryService) messages(query string, results []domain.RetrievedChunk) ([]driven.ChatMessage, error) {
	system, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return nil, fmt.Errorf("load prompt: %w", err)
	}
	user, err := s.prompts.Load(driven.PromptAnswerUser)
	if err != nil {
		return nil, fmt.Errorf("load prompt: %w", err)
	}

	return []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: system},
		{Role: driven.RoleUser, Content: fmt.Sprintf(user, FormatExcerpts(results), query)},
	}, nil
}

// FormatExcerpts numbers chunks in the given order, starting at 1.
// Each header carries the title and publish date when known.
func FormatExcerpts(results []domain.RetrievedChunk) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Excerpt %d", i+1)
		if label := excerptLabel(r); label != "" {
			fmt.Fprintf(&b, " (%s)", label)
		}
		b.WriteString(":\n")
		b.WriteString(strings.TrimSpace(r.Text))
	}
	return b.String()
}

func excerptLabel(r domain.RetrievedChunk) string {
	var parts []string
	if title := r.Title(); title != "" {
		parts = append(parts, title)
	}
	if published := r.Metadata[domain.MetaPublishedAt]; published != "" {
		if t, err := time.Parse(time.RFC3339, published); err == nil {
			published = t.Format(time.DateOnly)
		}
		parts = append(parts, published)
	}
	return strings.Join(parts, ", ")
}
