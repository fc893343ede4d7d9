package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/storage/memory"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
	"github.com/s7ventures/trading-nlp-pipeline/internal/metrics"
)

var testPrompts = mapPrompts{
	driven.PromptAnswerSystem: "You are an expert options trader.",
	driven.PromptAnswerUser:   "--- Retrieved Data ---\n%s\n\n--- User Query ---\n%s",
}

func retrieved(texts ...string) []domain.RetrievedChunk {
	out := make([]domain.RetrievedChunk, len(texts))
	for i, text := range texts {
		out[i] = domain.RetrievedChunk{
			ID:    domain.ChunkID("v", i),
			Text:  text,
			Score: 1 - float64(i)/10,
			Metadata: map[string]string{
				domain.MetaSourceID: "v",
				domain.MetaTitle:    "Video " + text,
			},
		}
	}
	return out
}

func newQueryFixture(results []domain.RetrievedChunk, llm *stubLLM) (*QueryService, *countingVectors) {
	vectors := &countingVectors{VectorStore: memory.NewVectorStore(), results: results}
	svc := NewQueryService(&stubEmbedder{}, vectors, llm, testPrompts, QueryOptions{
		Temperature: domain.DefaultTemperature,
	})
	return svc, vectors
}

func TestAnswer_EmptyStoreSkipsModel(t *testing.T) {
	llm := &stubLLM{reply: "should not be used"}
	svc := NewQueryService(&stubEmbedder{}, memory.NewVectorStore(), llm, testPrompts, QueryOptions{})

	answer, err := svc.Answer(context.Background(), "What is theta?", 5)

	require.NoError(t, err)
	assert.Equal(t, domain.NoRelevantContent, answer.Text)
	assert.Empty(t, answer.Sources)
	assert.Empty(t, answer.Model)
	assert.Zero(t, llm.calls)
}

func TestAnswer_BuildsPromptNearestFirst(t *testing.T) {
	llm := &stubLLM{reply: "  Sell premium when IV is high.\n"}
	svc, _ := newQueryFixture(retrieved("nearest", "middle", "farthest"), llm)

	answer, err := svc.Answer(context.Background(), "  When do I sell premium?  ", 3)

	require.NoError(t, err)
	assert.Equal(t, "Sell premium when IV is high.", answer.Text)
	assert.Equal(t, "stub-llm", answer.Model)
	assert.Equal(t, "When do I sell premium?", answer.Query)
	require.Len(t, answer.Sources, 3)

	require.Len(t, llm.messages, 2)
	assert.Equal(t, driven.RoleSystem, llm.messages[0].Role)
	assert.Equal(t, "You are an expert options trader.", llm.messages[0].Content)
	assert.Equal(t, driven.RoleUser, llm.messages[1].Role)

	user := llm.messages[1].Content
	first := strings.Index(user, "Excerpt 1 (Video nearest):\nnearest")
	second := strings.Index(user, "Excerpt 2 (Video middle):\nmiddle")
	third := strings.Index(user, "Excerpt 3 (Video farthest):\nfarthest")
	assert.True(t, first >= 0 && first < second && second < third, user)
	assert.True(t, strings.HasSuffix(user, "--- User Query ---\nWhen do I sell premium?"), user)
	assert.InDelta(t, 0.2, llm.opts.Temperature, 1e-9)
}

func TestAnswer_EndToEndWithMemoryStore(t *testing.T) {
	ctx := context.Background()
	embedder := &stubEmbedder{}
	store := memory.NewVectorStore()
	for i, text := range []string{"short", "a considerably longer excerpt"} {
		vec, err := embedder.Embed(ctx, text)
		require.NoError(t, err)
		require.NoError(t, store.Upsert(ctx, []domain.EmbeddingRecord{{
			ID: domain.ChunkID("v", i), Vector: vec, Text: text,
			Metadata: map[string]string{domain.MetaSourceID: "v"},
		}}))
	}
	llm := &stubLLM{reply: "answer"}
	svc := NewQueryService(embedder, store, llm, testPrompts, QueryOptions{})

	answer, err := svc.Answer(ctx, "short", 1)

	require.NoError(t, err)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "v_0", answer.Sources[0].ID)
	assert.Equal(t, 1, llm.calls)
}

func TestAnswer_Errors(t *testing.T) {
	tests := []struct {
		name     string
		embedErr error
		queryErr error
		llm      *stubLLM
		want     error
	}{
		{
			name:     "embedding",
			embedErr: errors.New("timeout"),
			llm:      &stubLLM{reply: "x"},
			want:     domain.ErrEmbedding,
		},
		{
			name:     "retrieval",
			queryErr: errors.New("connection refused"),
			llm:      &stubLLM{reply: "x"},
			want:     domain.ErrRetrieval,
		},
		{
			name: "generation",
			llm:  &stubLLM{err: errors.New("500 internal")},
			want: domain.ErrGeneration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vectors := &countingVectors{
				VectorStore: memory.NewVectorStore(),
				results:     retrieved("one"),
				queryErr:    tt.queryErr,
			}
			svc := NewQueryService(&stubEmbedder{err: tt.embedErr}, vectors, tt.llm, testPrompts, QueryOptions{})

			answer, err := svc.Answer(context.Background(), "q", 0)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, answer)
		})
	}
}

func TestAnswer_ReturnsTrimmedReplyVerbatim(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"padded", "\n  Sell the 30 delta put.  \n", "Sell the 30 delta put."},
		{"blank", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newQueryFixture(retrieved("one"), &stubLLM{reply: tt.reply})

			answer, err := svc.Answer(context.Background(), "q", 0)

			require.NoError(t, err)
			assert.Equal(t, tt.want, answer.Text)
			assert.Len(t, answer.Sources, 1)
		})
	}
}

func TestAnswer_KeepsExistingClassification(t *testing.T) {
	llm := &stubLLM{err: domain.Retryable(errors.Join(domain.ErrGeneration, errors.New("529 overloaded")))}
	svc, _ := newQueryFixture(retrieved("one"), llm)

	_, err := svc.Answer(context.Background(), "q", 0)

	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(err.Error(), domain.ErrGeneration.Error()))
}

func TestAnswer_BlankQuery(t *testing.T) {
	svc, _ := newQueryFixture(retrieved("one"), &stubLLM{reply: "x"})

	_, err := svc.Answer(context.Background(), " \n\t", 5)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnswer_WithoutLLM(t *testing.T) {
	svc := NewQueryService(&stubEmbedder{}, memory.NewVectorStore(), nil, testPrompts, QueryOptions{})

	_, err := svc.Answer(context.Background(), "q", 5)

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestAnswer_RecordsMetrics(t *testing.T) {
	m := metrics.New()
	svc := NewQueryService(&stubEmbedder{}, memory.NewVectorStore(), &stubLLM{}, testPrompts, QueryOptions{Metrics: m})

	_, err := svc.Answer(context.Background(), "q", 5)
	require.NoError(t, err)
	_, err = svc.Answer(context.Background(), "", 5)
	require.Error(t, err)

	assert.Equal(t, 2, testutil.CollectAndCount(m.QueryDuration))
}

func TestRetrieve_DefaultTopK(t *testing.T) {
	ctx := context.Background()
	store := memory.NewVectorStore()
	embedder := &stubEmbedder{}
	for i := range 8 {
		text := strings.Repeat("a", i+1)
		vec, err := embedder.Embed(ctx, text)
		require.NoError(t, err)
		require.NoError(t, store.Upsert(ctx, []domain.EmbeddingRecord{{ID: domain.ChunkID("v", i), Vector: vec, Text: text}}))
	}
	svc := NewQueryService(embedder, store, nil, testPrompts, QueryOptions{})

	results, err := svc.Retrieve(ctx, "aaa", 0)

	require.NoError(t, err)
	assert.Len(t, results, domain.DefaultTopK)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestRetrieve_TruncatesToTopK(t *testing.T) {
	svc, _ := newQueryFixture(retrieved("a", "b", "c"), nil)

	results, err := svc.Retrieve(context.Background(), "q", 2)

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFormatExcerpts(t *testing.T) {
	chunks := []domain.RetrievedChunk{
		{Text: " first ", Metadata: map[string]string{
			domain.MetaTitle:       "Wheel strategy",
			domain.MetaPublishedAt: "2024-03-01T15:04:05Z",
		}},
		{Text: "second", Metadata: map[string]string{}},
		{Text: "third", Metadata: map[string]string{domain.MetaPublishedAt: "last spring"}},
	}

	got := FormatExcerpts(chunks)

	want := "Excerpt 1 (Wheel strategy, 2024-03-01):\nfirst\n\n" +
		"Excerpt 2:\nsecond\n\n" +
		"Excerpt 3 (last spring):\nthird"
	assert.Equal(t, want, got)
	assert.Empty(t, FormatExcerpts(nil))
}
