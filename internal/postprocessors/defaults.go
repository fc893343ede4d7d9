package postprocessors

import (
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
	"github.com/s7ventures/trading-nlp-pipeline/internal/postprocessors/chunker"
	"github.com/s7ventures/trading-nlp-pipeline/internal/postprocessors/compress"
)

// Processor names.
const (
	ChunkerName  = "chunker"
	CompressName = "compress"
)

// RegisterDefaults registers all built-in processors with the registry.
// The compress processor is only available when llm is non-nil.
func RegisterDefaults(r *Registry, llm driven.LLMService, prompts driven.PromptStore) {
	r.Register(ChunkerName, buildChunker)
	if llm != nil {
		r.Register(CompressName, func(cfg map[string]any) (driven.PostProcessor, error) {
			var opts []compress.Option
			if prompts != nil {
				opts = append(opts, compress.WithPromptStore(prompts))
			}
			return compress.New(llm, opts...), nil
		})
	}
}

// PipelineConfig returns the processor names and configs implied by settings.
func PipelineConfig(s domain.AppSettings) ([]string, map[string]map[string]any) {
	names := []string{ChunkerName}
	if s.Ingest.Compress {
		names = append(names, CompressName)
	}
	return names, map[string]map[string]any{
		ChunkerName: {
			"chunk_size": s.Chunking.Size,
			"overlap":    s.Chunking.Overlap,
		},
	}
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Bytes per chunk (default: 500)
//   - overlap (int): Overlapping bytes between chunks (default: 50)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size, ok := getIntFromConfig(cfg, "chunk_size"); ok {
			opts = append(opts, chunker.WithChunkSize(size))
		}
		if overlap, ok := getIntFromConfig(cfg, "overlap"); ok {
			opts = append(opts, chunker.WithOverlap(overlap))
		}
	}

	return chunker.New(opts...)
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
