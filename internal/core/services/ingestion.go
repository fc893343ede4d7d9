package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driving"
	"github.com/s7ventures/trading-nlp-pipeline/internal/logger"
	"github.com/s7ventures/trading-nlp-pipeline/internal/metrics"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// ProgressFunc is called once per source after it has been handled.
// err is non-nil when the source failed.
type ProgressFunc func(result domain.IngestResult, err error)

// IngestionService cleans, chunks, embeds and stores transcripts.
// A source is marked processed only after all of its records are stored.
type IngestionService struct {
	pipeline driven.PostProcessorPipeline
	embedder driven.EmbeddingService
	vectors  driven.VectorStore
	ledger   driven.DedupLedger

	chunks    driven.ChunkStore
	skip      SkipPredicate
	batchSize int
	metrics   *metrics.Metrics
	progress  ProgressFunc
}

// IngestionOption configures the ingestion service.
type IngestionOption func(*IngestionService)

// WithChunkStore saves each source's cleaned text and chunks before embedding.
func WithChunkStore(store driven.ChunkStore) IngestionOption {
	return func(s *IngestionService) {
		s.chunks = store
	}
}

// WithSkipPredicate leaves out sources whose metadata matches.
func WithSkipPredicate(skip SkipPredicate) IngestionOption {
	return func(s *IngestionService) {
		s.skip = skip
	}
}

// WithBatchSize sets the number of chunks per embedding request.
// Values below 1 are ignored.
func WithBatchSize(n int) IngestionOption {
	return func(s *IngestionService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithMetrics records ingestion counters.
func WithMetrics(m *metrics.Metrics) IngestionOption {
	return func(s *IngestionService) {
		s.metrics = m
	}
}

// WithProgress registers a per-source callback.
func WithProgress(fn ProgressFunc) IngestionOption {
	return func(s *IngestionService) {
		s.progress = fn
	}
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	vectors driven.VectorStore,
	ledger driven.DedupLedger,
	opts ...IngestionOption,
) *IngestionService {
	s := &IngestionService{
		pipeline:  pipeline,
		embedder:  embedder,
		vectors:   vectors,
		ledger:    ledger,
		batchSize: domain.DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestSource ingests one source under a fresh run id.
func (s *IngestionService) IngestSource(
	ctx context.Context,
	src domain.Source,
	opts driving.IngestOptions,
) (domain.IngestResult, error) {
	return s.ingest(ctx, src, opts, uuid.NewString())
}

// IngestAll ingests every transcript in order. A failed source is counted
// and the run continues; ledger failures, configuration errors and
// cancellation stop it.
func (s *IngestionService) IngestAll(
	ctx context.Context,
	transcripts driven.TranscriptSource,
	opts driving.IngestOptions,
) (domain.IngestSummary, error) {
	runID := uuid.NewString()
	summary := domain.IngestSummary{RunID: runID}
	var errs []error

	logger.Section("Ingest " + transcripts.Name())
	logger.Debug("run %s (force=%t, dry-run=%t)", runID, opts.Force, opts.DryRun)
	defer logger.Timed("run " + runID)()

	for src, err := range transcripts.Sources(ctx) {
		if err != nil {
			errs = append(errs, fmt.Errorf("list %s: %w", transcripts.Name(), err))
			break
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		res, err := s.ingest(ctx, src, opts, runID)
		if err != nil {
			summary.Failed++
			summary.FailedIDs = append(summary.FailedIDs, src.ID)
			errs = append(errs, fmt.Errorf("ingest %s: %w", src.ID, err))
			if s.fatal(ctx, err) {
				logger.Error("stopping run: %v", err)
				break
			}
			continue
		}

		summary.Results = append(summary.Results, res)
		if res.Skipped != domain.SkipNone {
			summary.Skipped++
			continue
		}
		summary.Ingested++
		summary.Chunks += res.Chunks
	}

	logger.Info("Run %s: %d ingested, %d skipped, %d failed, %d chunks",
		runID, summary.Ingested, summary.Skipped, summary.Failed, summary.Chunks)

	return summary, errors.Join(errs...)
}

func (s *IngestionService) fatal(ctx context.Context, err error) bool {
	return IsLedgerFailure(err) || errors.Is(err, domain.ErrConfiguration) || ctx.Err() != nil
}

//nolint:gocyclo // Sequential ingestion steps with early exits
func (s *IngestionService) ingest(
	ctx context.Context,
	src domain.Source,
	opts driving.IngestOptions,
	runID string,
) (result domain.IngestResult, err error) {
	result = domain.IngestResult{SourceID: src.ID, Title: src.Metadata.Title}
	if src.ID == "" {
		return result, fmt.Errorf("%w: source id is empty", domain.ErrInvalidInput)
	}

	defer func() {
		s.record(result, err, opts.DryRun)
	}()

	if s.skip != nil && s.skip(src.Metadata) {
		logger.Debug("skipping %s (%q): filtered", src.ID, src.Metadata.Title)
		result.Skipped = domain.SkipFiltered
		return result, nil
	}

	if !opts.DryRun {
		if claimer, ok := s.ledger.(driven.SourceClaimer); ok {
			release, err := claimer.Claim(ctx, src.ID)
			if errors.Is(err, domain.ErrAlreadyClaimed) {
				logger.Debug("skipping %s: claimed by another run", src.ID)
				result.Skipped = domain.SkipClaimed
				return result, nil
			}
			if err != nil {
				return result, wrapLedger("claim "+src.ID, err)
			}
			defer release()
		}
	}

	if opts.Force {
		if !opts.DryRun {
			// A source that was never ingested has nothing to forget.
			if err := s.ledger.Forget(ctx, src.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return result, wrapLedger("forget "+src.ID, err)
			}
			if err := s.vectors.DeleteSource(ctx, src.ID); err != nil {
				return result, classify(domain.ErrStorage, "delete vectors of "+src.ID, err)
			}
		}
	} else {
		processed, err := s.ledger.IsProcessed(ctx, src.ID)
		if err != nil {
			return result, wrapLedger("check "+src.ID, err)
		}
		if processed {
			logger.Debug("skipping %s: already processed", src.ID)
			result.Skipped = domain.SkipAlreadyProcessed
			return result, nil
		}
	}

	cleaned, chunks, err := s.pipeline.Process(ctx, &src)
	if err != nil {
		return result, fmt.Errorf("process %s: %w", src.ID, err)
	}
	if len(chunks) == 0 {
		logger.Warn("skipping %s: transcript is empty after cleaning", src.ID)
		result.Skipped = domain.SkipEmpty
		return result, nil
	}
	result.Chunks = len(chunks)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	if opts.DryRun {
		logger.Debug("dry run: %s would store %d chunks", src.ID, len(chunks))
		return result, nil
	}

	if s.chunks != nil {
		if err := s.chunks.Save(ctx, src.ID, cleaned, texts); err != nil {
			return result, classify(domain.ErrStorage, "save chunks of "+src.ID, err)
		}
	}

	vectors, err := s.embed(ctx, texts)
	if err != nil {
		return result, err
	}

	records := make([]domain.EmbeddingRecord, len(chunks))
	for i, c := range chunks {
		records[i] = domain.EmbeddingRecord{
			ID:       domain.ChunkID(src.ID, c.Index),
			Vector:   vectors[i],
			Text:     c.Text,
			Metadata: src.Metadata.Flatten(src.ID, c.Index),
		}
	}

	if err := s.vectors.Upsert(ctx, records); err != nil {
		return result, classify(domain.ErrStorage, "store vectors of "+src.ID, err)
	}

	entry := domain.LedgerEntry{
		SourceID:    src.ID,
		Title:       src.Metadata.Title,
		ProcessedAt: time.Now().UTC(),
		RunID:       runID,
		Chunks:      len(records),
	}
	if err := s.ledger.MarkProcessed(ctx, entry); err != nil {
		return result, wrapLedger("mark "+src.ID, err)
	}

	logger.Info("Ingested %s (%d chunks)", src.ID, len(records))
	return result, nil
}

// embed sends texts in batches and checks that every text got a vector.
func (s *IngestionService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		batch, err := s.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, classify(domain.ErrEmbedding, fmt.Sprintf("embed chunks %d-%d", start, end-1), err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbedding, len(batch), end-start)
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (s *IngestionService) record(result domain.IngestResult, err error, dryRun bool) {
	switch {
	case dryRun:
	case err != nil:
		s.metrics.SourceProcessed(metrics.ResultFailed)
	case result.Skipped != domain.SkipNone:
		s.metrics.SourceProcessed(metrics.ResultSkipped)
	default:
		s.metrics.SourceProcessed(metrics.ResultIngested)
		s.metrics.ChunksIngested(result.Chunks)
	}
	if s.progress != nil {
		s.progress(result, err)
	}
}
