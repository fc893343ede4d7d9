package services

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

// stubEmbedder returns a deterministic vector per text and counts calls.
type stubEmbedder struct {
	mu         sync.Mutex
	calls      int
	texts      int
	err        error
	failAfter  int // fail batches after this many succeeded; 0 never
	shortBatch bool
}

func (e *stubEmbedder) vector(text string) []float32 {
	var sum float32
	for _, b := range []byte(text) {
		sum += float32(b)
	}
	return []float32{float32(len(text)), sum, 1}
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	e.texts++
	return e.vector(text), nil
}

func (e *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	if e.failAfter > 0 && e.calls > e.failAfter {
		return nil, errors.New("connection reset")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	e.texts += len(texts)
	if e.shortBatch {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (e *stubEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *stubEmbedder) Dimensions() int              { return 3 }
func (e *stubEmbedder) ModelName() string            { return "stub-embed" }
func (e *stubEmbedder) Ping(_ context.Context) error { return nil }
func (e *stubEmbedder) Close() error                 { return nil }

// countingVectors wraps a vector store to count writes and inject failures.
type countingVectors struct {
	driven.VectorStore
	upserts   int
	upsertErr error
	queryErr  error
	results   []domain.RetrievedChunk
}

func (v *countingVectors) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	v.upserts++
	if v.upsertErr != nil {
		return v.upsertErr
	}
	return v.VectorStore.Upsert(ctx, records)
}

func (v *countingVectors) Query(ctx context.Context, vector []float32, topK int) ([]domain.RetrievedChunk, error) {
	if v.queryErr != nil {
		return nil, v.queryErr
	}
	if v.results != nil {
		return v.results, nil
	}
	return v.VectorStore.Query(ctx, vector, topK)
}

// brokenLedger fails every call with a storage error.
type brokenLedger struct{}

func (brokenLedger) IsProcessed(context.Context, string) (bool, error) {
	return false, errors.New("ledger.json: permission denied")
}
func (brokenLedger) MarkProcessed(context.Context, domain.LedgerEntry) error {
	return errors.New("ledger.json: permission denied")
}
func (brokenLedger) Forget(context.Context, string) error { return nil }
func (brokenLedger) List(context.Context) ([]domain.LedgerEntry, error) {
	return nil, nil
}
func (brokenLedger) Close() error { return nil }

// sliceSource yields fixed transcripts, then err if set.
type sliceSource struct {
	sources []domain.Source
	err     error
}

func (s *sliceSource) Name() string { return "test" }

func (s *sliceSource) Sources(_ context.Context) iter.Seq2[domain.Source, error] {
	return func(yield func(domain.Source, error) bool) {
		for _, src := range s.sources {
			if !yield(src, nil) {
				return
			}
		}
		if s.err != nil {
			yield(domain.Source{}, s.err)
		}
	}
}

// stubLLM records chat calls.
type stubLLM struct {
	reply    string
	err      error
	calls    int
	messages []driven.ChatMessage
	opts     driven.ChatOptions
}

func (l *stubLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	l.calls++
	return l.reply, l.err
}

func (l *stubLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	l.calls++
	l.messages = messages
	l.opts = opts
	return l.reply, l.err
}

func (l *stubLLM) ModelName() string            { return "stub-llm" }
func (l *stubLLM) Ping(_ context.Context) error { return nil }
func (l *stubLLM) Close() error                 { return nil }

// mapPrompts serves prompts from a map.
type mapPrompts map[string]string

func (p mapPrompts) Load(name string) (string, error) {
	prompt, ok := p[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return prompt, nil
}
