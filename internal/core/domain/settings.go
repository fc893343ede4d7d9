package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// VectorBackend selects the vector store implementation.
type VectorBackend string

// Available vector store backends.
const (
	// VectorBackendSQLite keeps vectors in the local metadata database.
	VectorBackendSQLite VectorBackend = "sqlite"

	// VectorBackendPostgres uses Postgres with the pgvector extension.
	VectorBackendPostgres VectorBackend = "postgres"

	// VectorBackendMemory keeps vectors in process memory only.
	VectorBackendMemory VectorBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendSQLite, VectorBackendPostgres, VectorBackendMemory:
		return true
	default:
		return false
	}
}

// LedgerBackend selects the dedup ledger implementation.
type LedgerBackend string

// Available ledger backends.
const (
	// LedgerBackendJSON is a JSON document rewritten on every mark.
	LedgerBackendJSON LedgerBackend = "json"

	// LedgerBackendSQLite is a table in the local metadata database.
	LedgerBackendSQLite LedgerBackend = "sqlite"

	// LedgerBackendRedis supports concurrent ingestion runs.
	LedgerBackendRedis LedgerBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b LedgerBackend) IsValid() bool {
	switch b {
	case LedgerBackendJSON, LedgerBackendSQLite, LedgerBackendRedis:
		return true
	default:
		return false
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Temperature is used when answering queries.
	Temperature float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings controls how cleaned transcripts are split.
type ChunkingSettings struct {
	// Size is the maximum chunk length in bytes.
	Size int

	// Overlap is the number of bytes shared by consecutive chunks.
	Overlap int
}

// Validate checks 0 < Overlap < Size.
func (c ChunkingSettings) Validate() error {
	if c.Size <= 0 {
		return NewConfigurationError("chunking.size", "must be positive")
	}
	if c.Overlap <= 0 {
		return NewConfigurationError("chunking.overlap", "must be positive")
	}
	if c.Overlap >= c.Size {
		return NewConfigurationError("chunking.overlap", "must be less than chunking.size")
	}
	return nil
}

// StorageSettings locates persisted state.
type StorageSettings struct {
	// DataDir holds transcripts, chunk documents, the ledger and the database.
	DataDir string

	// VectorBackend selects the vector store.
	VectorBackend VectorBackend

	// LedgerBackend selects the dedup ledger.
	LedgerBackend LedgerBackend

	// DatabaseURL is the Postgres connection string for the postgres backend.
	DatabaseURL string

	// RedisURL is the Redis connection string for the redis ledger.
	RedisURL string

	// Collection names the logical vector collection.
	Collection string
}

// IngestSettings controls the ingestion pipeline.
type IngestSettings struct {
	// BatchSize is the number of chunks sent per embedding request.
	BatchSize int

	// SkipTitleWords skips sources whose title contains any of the words.
	SkipTitleWords []string

	// Compress rewrites chunks through the LLM before embedding.
	Compress bool

	// PublishedAfter skips sources published before it. Zero keeps all.
	PublishedAfter time.Time

	// StripBracketStamps removes "[hh:mm:ss]" stamps while cleaning.
	StripBracketStamps bool
}

// QuerySettings controls retrieval.
type QuerySettings struct {
	// TopK is the default number of chunks retrieved per query.
	TopK int
}

// YouTubeSettings configures the video catalog.
type YouTubeSettings struct {
	APIKey     string
	ChannelID  string
	MaxResults int
}

// TimeoutSettings bounds outbound calls.
type TimeoutSettings struct {
	Embedding time.Duration
	LLM       time.Duration
}

// RateLimitSettings throttles outbound AI calls.
type RateLimitSettings struct {
	// RequestsPerSecond is the sustained request rate. Zero disables limiting.
	RequestsPerSecond float64

	// Burst is the token bucket size.
	Burst int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chunking  ChunkingSettings
	Storage   StorageSettings
	Ingest    IngestSettings
	Query     QuerySettings
	YouTube   YouTubeSettings
	Timeouts  TimeoutSettings
	RateLimit RateLimitSettings
}

// Defaults used when no configuration overrides them.
const (
	DefaultChunkSize      = 500
	DefaultChunkOverlap   = 50
	DefaultTopK           = 5
	DefaultBatchSize      = 64
	DefaultCollection     = "trading_transcripts"
	DefaultTemperature    = 0.2
	DefaultYouTubeChannel = "UCLJiSMXJ9K-1AOTqIqdXJgQ"
	DefaultYouTubeMax     = 300
)

// DefaultAppSettings returns settings with sensible defaults.
// API keys are left empty; they come from the environment or config file.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultEmbeddingModels()[AIProviderOpenAI],
		},
		LLM: LLMSettings{
			Provider:    AIProviderOpenAI,
			Model:       DefaultLLMModels()[AIProviderOpenAI],
			Temperature: DefaultTemperature,
		},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Storage: StorageSettings{
			DataDir:       "data",
			VectorBackend: VectorBackendSQLite,
			LedgerBackend: LedgerBackendJSON,
			Collection:    DefaultCollection,
		},
		Ingest: IngestSettings{
			BatchSize:      DefaultBatchSize,
			SkipTitleWords: []string{"live"},
		},
		Query: QuerySettings{TopK: DefaultTopK},
		YouTube: YouTubeSettings{
			ChannelID:  DefaultYouTubeChannel,
			MaxResults: DefaultYouTubeMax,
		},
		Timeouts: TimeoutSettings{
			Embedding: 30 * time.Second,
			LLM:       120 * time.Second,
		},
		RateLimit: RateLimitSettings{
			RequestsPerSecond: 5,
			Burst:             5,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-ada-002",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4-turbo",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
