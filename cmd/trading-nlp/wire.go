package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/ai"
	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/config/file"
	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/resilient"
	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/storage/jsonfile"
	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/storage/memory"
	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/storage/pgvector"
	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/storage/redis"
	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/storage/sqlite"
	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driving/cli"
	"github.com/s7ventures/trading-nlp-pipeline/internal/connectors/youtube"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driving"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/services"
	"github.com/s7ventures/trading-nlp-pipeline/internal/logger"
	"github.com/s7ventures/trading-nlp-pipeline/internal/metrics"
	"github.com/s7ventures/trading-nlp-pipeline/internal/normalisers/transcript"
	"github.com/s7ventures/trading-nlp-pipeline/internal/postprocessors"
)

// Layout of the data directory.
const (
	transcriptsDirName = "transcripts"
	chunksDirName      = "chunks"
	promptsDirName     = "prompts"
)

// wiring builds the service graph from settings.
type wiring struct {
	// configDir is resolved by Settings and reused for prompts.
	configDir string
}

var _ cli.Wiring = (*wiring)(nil)

func (w *wiring) Settings(configDir string) (driving.SettingsService, error) {
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		configDir = dir
	}
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, err
	}
	w.configDir = configDir
	logger.Debug("config file: %s", store.Path())
	return services.NewSettingsService(store), nil
}

func (w *wiring) Services(ctx context.Context, settings *domain.AppSettings, opts cli.WireOptions) (_ *cli.Services, err error) {
	dataDir := settings.Storage.DataDir
	if opts.DataDir != "" {
		dataDir = opts.DataDir
	}
	if dataDir == "" {
		dataDir = domain.DefaultAppSettings().Storage.DataDir
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: create data directory: %w", domain.ErrStorage, err)
	}

	var res resources
	defer func() {
		if err != nil {
			res.Close()
		}
	}()
	res.dataDir = dataDir

	m := metrics.New()
	svc := &cli.Services{
		Metrics:        m,
		TranscriptsDir: filepath.Join(dataDir, transcriptsDirName),
	}

	ledger, chunks, err := res.openLedger(ctx, settings)
	if err != nil {
		return nil, err
	}
	svc.Ledger = ledger
	svc.Chunks = chunks

	if settings.YouTube.APIKey != "" {
		catalog, err := youtube.New(ctx, settings.YouTube.APIKey)
		if err != nil {
			return nil, err
		}
		svc.Catalog = catalog
	}

	limiter := resilient.NewLimiter(settings.RateLimit.RequestsPerSecond, settings.RateLimit.Burst)

	inner, err := ai.CreateEmbeddingService(settings.Embedding, settings.Timeouts.Embedding)
	if err != nil {
		// Ledger and catalog commands still work without embeddings.
		logger.Debug("embedding service unavailable: %v", err)
		svc.Unavailable = err
		svc.Close = res.Close
		return svc, nil
	}
	res.add(inner.Close)
	embedder := resilient.NewEmbedding(inner, retryPolicy(limiter, settings.Timeouts.Embedding, m, "embedding"))

	var llm driven.LLMService
	if innerLLM, err := ai.CreateLLMService(settings.LLM, settings.Timeouts.LLM); err != nil {
		logger.Debug("language model unavailable: %v", err)
	} else {
		res.add(innerLLM.Close)
		llm = resilient.NewLLM(innerLLM, retryPolicy(limiter, settings.Timeouts.LLM, m, "llm"))
	}
	prompts, err := file.NewPromptStore(filepath.Join(w.configDir, promptsDirName))
	if err != nil {
		return nil, err
	}
	logger.Debug("prompts: %s", prompts.Dir())

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry, llm, prompts)
	if settings.Ingest.Compress && !registry.Has(postprocessors.CompressName) {
		return nil, domain.NewConfigurationError("ingest.compress", "requires a configured language model")
	}
	names, configs := postprocessors.PipelineConfig(*settings)
	var cleanOpts []transcript.Option
	if settings.Ingest.StripBracketStamps {
		cleanOpts = append(cleanOpts, transcript.WithBracketStamps())
	}
	pipeline, err := registry.BuildPipeline(transcript.New(cleanOpts...), names, configs)
	if err != nil {
		return nil, err
	}

	vectors, err := res.openVectors(ctx, settings, embedder.Dimensions())
	if err != nil {
		return nil, err
	}

	svc.Ingestion = services.NewIngestionService(pipeline, embedder, vectors, ledger,
		services.WithChunkStore(chunks),
		services.WithSkipPredicate(services.IngestFilter(settings.Ingest)),
		services.WithBatchSize(settings.Ingest.BatchSize),
		services.WithMetrics(m),
		services.WithProgress(opts.Progress),
	)
	svc.Query = services.NewQueryService(embedder, vectors, llm, prompts, services.QueryOptions{
		TopK:        settings.Query.TopK,
		Temperature: settings.LLM.Temperature,
		Metrics:     m,
	})
	svc.Close = res.Close
	return svc, nil
}

// Check pings the embedding and language model providers.
func (w *wiring) Check(ctx context.Context, settings *domain.AppSettings) error {
	return errors.Join(
		ai.ValidateEmbeddingConfig(ctx, settings.Embedding),
		ai.ValidateLLMConfig(ctx, settings.LLM),
	)
}

// retryPolicy is the default schedule with a shared limiter and a
// per-attempt timeout.
func retryPolicy(limiter *rate.Limiter, timeout time.Duration, m *metrics.Metrics, service string) resilient.Policy {
	p := resilient.DefaultPolicy()
	p.Limiter = limiter
	p.Timeout = timeout
	p.OnRetry = func(error, time.Duration) {
		m.Retried(service)
	}
	return p
}

// resources tracks what Services opened so it can be released in reverse.
type resources struct {
	dataDir string
	sqlite  *sqlite.Store
	closers []func() error
}

func (r *resources) add(fn func() error) {
	r.closers = append(r.closers, fn)
}

// Close releases everything in reverse order of opening.
func (r *resources) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// metadataDB opens the shared SQLite database once.
func (r *resources) metadataDB() (*sqlite.Store, error) {
	if r.sqlite != nil {
		return r.sqlite, nil
	}
	store, err := sqlite.NewStore(r.dataDir)
	if err != nil {
		return nil, err
	}
	r.add(store.Close)
	r.sqlite = store
	return store, nil
}

// openLedger returns the configured ledger and the chunk store kept
// beside it. Chunk documents live in SQLite with the sqlite ledger and as
// JSON files otherwise.
func (r *resources) openLedger(ctx context.Context, settings *domain.AppSettings) (driven.DedupLedger, driven.ChunkStore, error) {
	jsonChunks := jsonfile.NewChunkStore(filepath.Join(r.dataDir, chunksDirName))

	switch settings.Storage.LedgerBackend {
	case domain.LedgerBackendJSON, "":
		ledger, err := jsonfile.OpenLedger(filepath.Join(r.dataDir, jsonfile.DefaultLedgerFile))
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("ledger: %s, chunk documents: %s", ledger.Path(), jsonChunks.Dir())
		r.add(ledger.Close)
		return ledger, jsonChunks, nil

	case domain.LedgerBackendSQLite:
		store, err := r.metadataDB()
		if err != nil {
			return nil, nil, err
		}
		ledger := store.Ledger()
		r.add(ledger.Close)
		return ledger, store.ChunkStore(), nil

	case domain.LedgerBackendRedis:
		ledger, err := redis.Open(ctx, settings.Storage.RedisURL, redis.WithPrefix(settings.Storage.Collection))
		if err != nil {
			return nil, nil, err
		}
		r.add(ledger.Close)
		return ledger, jsonChunks, nil

	default:
		return nil, nil, domain.NewConfigurationError("ledger.backend",
			fmt.Sprintf("unknown backend %q", settings.Storage.LedgerBackend))
	}
}

func (r *resources) openVectors(ctx context.Context, settings *domain.AppSettings, dimensions int) (driven.VectorStore, error) {
	var vectors driven.VectorStore
	switch settings.Storage.VectorBackend {
	case domain.VectorBackendSQLite, "":
		store, err := r.metadataDB()
		if err != nil {
			return nil, err
		}
		vectors = store.VectorStore(settings.Storage.Collection)

	case domain.VectorBackendPostgres:
		store, err := pgvector.Open(ctx, pgvector.Config{
			DatabaseURL: settings.Storage.DatabaseURL,
			Collection:  settings.Storage.Collection,
			Dimensions:  dimensions,
		})
		if err != nil {
			return nil, err
		}
		vectors = store

	case domain.VectorBackendMemory:
		vectors = memory.NewVectorStore()

	default:
		return nil, domain.NewConfigurationError("vector_store.backend",
			fmt.Sprintf("unknown backend %q", settings.Storage.VectorBackend))
	}
	r.add(vectors.Close)
	return vectors, nil
}
