package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/storage/memory"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/services"
	"github.com/s7ventures/trading-nlp-pipeline/internal/metrics"
	"github.com/s7ventures/trading-nlp-pipeline/internal/normalisers/transcript"
	"github.com/s7ventures/trading-nlp-pipeline/internal/postprocessors"
	"github.com/s7ventures/trading-nlp-pipeline/internal/postprocessors/chunker"
)

// fakeEmbedder maps text to a letter-frequency vector.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	vec[0]++
	return vec, nil
}

func (e fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i], _ = e.Embed(ctx, text)
	}
	return out, nil
}

func (fakeEmbedder) Dimensions() int              { return 26 }
func (fakeEmbedder) ModelName() string            { return "fake-embed" }
func (fakeEmbedder) Ping(_ context.Context) error { return nil }
func (fakeEmbedder) Close() error                 { return nil }

// fakeLLM returns a fixed reply and counts calls.
type fakeLLM struct {
	reply string
	calls int
}

func (l *fakeLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	l.calls++
	return l.reply, nil
}

func (l *fakeLLM) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	l.calls++
	return l.reply, nil
}

func (l *fakeLLM) ModelName() string            { return "fake-llm" }
func (l *fakeLLM) Ping(_ context.Context) error { return nil }
func (l *fakeLLM) Close() error                 { return nil }

type fakePrompts map[string]string

func (p fakePrompts) Load(name string) (string, error) { return p[name], nil }

// fakeCatalog returns fixed channel videos.
type fakeCatalog struct {
	videos  []domain.Source
	channel string
	max     int
}

func (c *fakeCatalog) ChannelVideos(_ context.Context, channelID string, max int) ([]domain.Source, error) {
	c.channel, c.max = channelID, max
	return c.videos, nil
}

func (c *fakeCatalog) Videos(context.Context, []string) (map[string]domain.SourceMetadata, error) {
	return nil, nil
}

// testEnv is the service graph installed by setupTestServices.
type testEnv struct {
	dir     string
	vectors *memory.VectorStore
	ledger  *memory.Ledger
	llm     *fakeLLM
	metrics *metrics.Metrics
}

// setupTestServices installs in-memory services and returns a cleanup func
// restoring package state.
func setupTestServices(t *testing.T) (*testEnv, func()) {
	t.Helper()

	c, err := chunker.New()
	require.NoError(t, err)

	env := &testEnv{
		dir:     t.TempDir(),
		vectors: memory.NewVectorStore(),
		ledger:  memory.NewLedger(),
		llm:     &fakeLLM{reply: "Sell premium when implied volatility is high."},
		metrics: metrics.New(),
	}
	chunks := memory.NewChunkStore()
	embedder := fakeEmbedder{}

	oldSettings, oldWiring := settingsService, wiring
	wiring = nil
	settingsService = services.NewSettingsService(memory.NewConfigStore(),
		services.WithEnvLookup(func(string) (string, bool) { return "", false }))
	useServices(&Services{
		Ingestion: services.NewIngestionService(
			postprocessors.NewPipeline(transcript.New(), c),
			embedder, env.vectors, env.ledger,
			services.WithChunkStore(chunks),
			services.WithSkipPredicate(services.TitleContains("live")),
			services.WithMetrics(env.metrics),
			services.WithProgress(progress.report),
		),
		Query: services.NewQueryService(embedder, env.vectors, env.llm, fakePrompts{
			driven.PromptAnswerSystem: "You are an options trader.",
			driven.PromptAnswerUser:   "%s\n\n%s",
		}, services.QueryOptions{Metrics: env.metrics}),
		Ledger:         env.ledger,
		Chunks:         chunks,
		Metrics:        env.metrics,
		TranscriptsDir: env.dir,
	})

	return env, func() {
		settingsService, wiring = oldSettings, oldWiring
		useServices(&Services{})
		resetFlags()
	}
}

// resetFlags restores command flag variables to their defaults.
func resetFlags() {
	ingestAll, ingestForce, ingestWatch, ingestDryRun = false, false, false, false
	askTopK, askJSON, askSources = 0, false, false
	retrieveTopK, retrieveJSON = 0, false
	catalogChannel, catalogMax, catalogJSON = "", 0, false
	ledgerJSON = false
	settingsCheckPing = false
}

// writeTranscript writes a transcript file into dir.
func writeTranscript(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
