package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driving"
	"github.com/s7ventures/trading-nlp-pipeline/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Setting sources reported by Values.
const (
	SourceDefault = "default"
	SourceConfig  = "config"
	SourceEnv     = "env"
)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindList
)

// setting describes one dotted config key: how to read it from AppSettings
// and how to parse a string into it.
type setting struct {
	key    string
	kind   settingKind
	secret bool
	get    func(*domain.AppSettings) string
	set    func(*domain.AppSettings, string) error
}

// envBinding maps an environment variable onto a key. When is optional and
// restricts the binding to matching settings (e.g. the provider in use).
type envBinding struct {
	name string
	key  string
	when func(*domain.AppSettings) bool
}

// SettingsService manages application settings stored in a ConfigStore,
// with environment variables layered on top.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
	table       []setting
	index       map[string]int
}

// SettingsOption configures the settings service.
type SettingsOption func(*SettingsService)

// WithEnvLookup replaces os.LookupEnv. Tests use it.
func WithEnvLookup(fn func(string) (string, bool)) SettingsOption {
	return func(s *SettingsService) {
		s.lookupEnv = fn
	}
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, opts ...SettingsOption) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
		table:       settingsTable(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.index = make(map[string]int, len(s.table))
	for i, st := range s.table {
		s.index[st.key] = i
	}
	return s
}

//nolint:gosec // G101: These are environment variable names, not credentials.
var envBindings = []envBinding{
	{name: "OPENAI_API_KEY", key: "embedding.api_key", when: embeddingProvider(domain.AIProviderOpenAI)},
	{name: "OPENAI_API_KEY", key: "llm.api_key", when: llmProvider(domain.AIProviderOpenAI)},
	{name: "ANTHROPIC_API_KEY", key: "llm.api_key", when: llmProvider(domain.AIProviderAnthropic)},
	{name: "OLLAMA_HOST", key: "embedding.base_url", when: embeddingProvider(domain.AIProviderOllama)},
	{name: "OLLAMA_HOST", key: "llm.base_url", when: llmProvider(domain.AIProviderOllama)},
	{name: "YOUTUBE_API_KEY", key: "youtube.api_key"},
	{name: "DATABASE_URL", key: "vector_store.database_url"},
	{name: "REDIS_URL", key: "ledger.redis_url"},
}

func embeddingProvider(p domain.AIProvider) func(*domain.AppSettings) bool {
	return func(s *domain.AppSettings) bool { return s.Embedding.Provider == p }
}

func llmProvider(p domain.AIProvider) func(*domain.AppSettings) bool {
	return func(s *domain.AppSettings) bool { return s.LLM.Provider == p }
}

// Get retrieves current application settings.
// Stored values that fail to parse are ignored with a warning.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings, _ := s.resolve()
	return settings, nil
}

// resolve builds the effective settings and records where each key came from.
func (s *SettingsService) resolve() (*domain.AppSettings, map[string]string) {
	settings := domain.DefaultAppSettings()
	sources := make(map[string]string, len(s.table))

	for _, st := range s.table {
		raw, ok := s.configStore.Get(st.key)
		if !ok {
			continue
		}
		if err := st.set(&settings, stringify(raw)); err != nil {
			logger.Warn("ignoring stored %s: %v", st.key, err)
			continue
		}
		sources[st.key] = SourceConfig
	}

	for _, b := range envBindings {
		val, ok := s.lookupEnv(b.name)
		if !ok || strings.TrimSpace(val) == "" {
			continue
		}
		if b.when != nil && !b.when(&settings) {
			continue
		}
		st := s.table[s.index[b.key]]
		if err := st.set(&settings, strings.TrimSpace(val)); err != nil {
			logger.Warn("ignoring %s: %v", b.name, err)
			continue
		}
		sources[b.key] = SourceEnv
	}

	return &settings, sources
}

// Set validates and stores a single setting.
func (s *SettingsService) Set(key, value string) error {
	i, ok := s.index[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	st := s.table[i]

	candidate, _ := s.resolve()
	if err := st.set(candidate, value); err != nil {
		return err
	}
	if strings.HasPrefix(key, "chunking.") {
		if err := candidate.Chunking.Validate(); err != nil {
			return err
		}
	}

	typed, err := toStored(st.kind, value)
	if err != nil {
		return domain.NewConfigurationError(key, err.Error())
	}
	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("%w: save %s: %w", domain.ErrStorage, key, err)
	}
	return nil
}

// Reset removes a stored setting.
func (s *SettingsService) Reset(key string) error {
	if _, ok := s.index[key]; !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err := s.configStore.Delete(key); err != nil {
		return fmt.Errorf("%w: reset %s: %w", domain.ErrStorage, key, err)
	}
	return nil
}

// Keys returns the recognised setting keys in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(s.table))
	for i, st := range s.table {
		keys[i] = st.key
	}
	return keys
}

// Values returns every setting with its effective value and origin.
func (s *SettingsService) Values() ([]driving.Setting, error) {
	settings, sources := s.resolve()

	out := make([]driving.Setting, 0, len(s.table))
	for _, st := range s.table {
		source := sources[st.key]
		if source == "" {
			source = SourceDefault
		}
		out = append(out, driving.Setting{
			Key:    st.key,
			Value:  st.get(settings),
			Secret: st.secret,
			Source: source,
		})
	}
	return out, nil
}

// Validate checks that the effective settings can run ingestion and queries.
// All problems are reported together.
func (s *SettingsService) Validate() error {
	settings, _ := s.resolve()
	return ValidateSettings(*settings)
}

// ValidateSettings checks a complete settings value.
func ValidateSettings(settings domain.AppSettings) error {
	var errs []error

	if err := settings.Chunking.Validate(); err != nil {
		errs = append(errs, err)
	}

	switch {
	case !settings.Embedding.Provider.IsValid():
		errs = append(errs, domain.NewConfigurationError("embedding.provider",
			fmt.Sprintf("unknown provider %q", settings.Embedding.Provider)))
	case settings.Embedding.Provider == domain.AIProviderAnthropic:
		errs = append(errs, domain.NewConfigurationError("embedding.provider", "anthropic does not support embeddings"))
	case !settings.Embedding.IsConfigured():
		errs = append(errs, domain.NewConfigurationError("embedding.api_key", "required for "+settings.Embedding.Provider.String()))
	}

	if !settings.LLM.Provider.IsValid() {
		errs = append(errs, domain.NewConfigurationError("llm.provider",
			fmt.Sprintf("unknown provider %q", settings.LLM.Provider)))
	}

	if !settings.Storage.VectorBackend.IsValid() {
		errs = append(errs, domain.NewConfigurationError("vector_store.backend",
			fmt.Sprintf("unknown backend %q", settings.Storage.VectorBackend)))
	}
	if settings.Storage.VectorBackend == domain.VectorBackendPostgres && settings.Storage.DatabaseURL == "" {
		errs = append(errs, domain.NewConfigurationError("vector_store.database_url", "required for the postgres backend (set DATABASE_URL)"))
	}
	if !settings.Storage.LedgerBackend.IsValid() {
		errs = append(errs, domain.NewConfigurationError("ledger.backend",
			fmt.Sprintf("unknown backend %q", settings.Storage.LedgerBackend)))
	}
	if settings.Storage.LedgerBackend == domain.LedgerBackendRedis && settings.Storage.RedisURL == "" {
		errs = append(errs, domain.NewConfigurationError("ledger.redis_url", "required for the redis ledger (set REDIS_URL)"))
	}

	if settings.Query.TopK <= 0 {
		errs = append(errs, domain.NewConfigurationError("query.top_k", "must be positive"))
	}
	if settings.Ingest.BatchSize <= 0 {
		errs = append(errs, domain.NewConfigurationError("ingest.batch_size", "must be positive"))
	}

	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// stringify renders a stored TOML value in the form the setters parse.
func stringify(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ",")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// toStored converts a validated string into the value written to TOML.
func toStored(kind settingKind, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch kind {
	case kindInt:
		return strconv.Atoi(value)
	case kindFloat:
		return strconv.ParseFloat(value, 64)
	case kindBool:
		return strconv.ParseBool(value)
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, err
		}
		return d.String(), nil
	case kindList:
		return splitList(value), nil
	default:
		return value, nil
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Field helpers. Each returns a setting bound to one AppSettings field.

func stringSetting(key string, field func(*domain.AppSettings) *string) setting {
	return setting{
		key:  key,
		kind: kindString,
		get:  func(s *domain.AppSettings) string { return *field(s) },
		set: func(s *domain.AppSettings, v string) error {
			*field(s) = strings.TrimSpace(v)
			return nil
		},
	}
}

func secretSetting(key string, field func(*domain.AppSettings) *string) setting {
	st := stringSetting(key, field)
	st.secret = true
	return st
}

func intSetting(key string, minimum int, field func(*domain.AppSettings) *int) setting {
	return setting{
		key:  key,
		kind: kindInt,
		get:  func(s *domain.AppSettings) string { return strconv.Itoa(*field(s)) },
		set: func(s *domain.AppSettings, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return domain.NewConfigurationError(key, "must be an integer")
			}
			if n < minimum {
				return domain.NewConfigurationError(key, fmt.Sprintf("must be at least %d", minimum))
			}
			*field(s) = n
			return nil
		},
	}
}

func floatSetting(key string, minimum, maximum float64, field func(*domain.AppSettings) *float64) setting {
	return setting{
		key:  key,
		kind: kindFloat,
		get:  func(s *domain.AppSettings) string { return strconv.FormatFloat(*field(s), 'f', -1, 64) },
		set: func(s *domain.AppSettings, v string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return domain.NewConfigurationError(key, "must be a number")
			}
			if f < minimum || f > maximum {
				return domain.NewConfigurationError(key, fmt.Sprintf("must be between %g and %g", minimum, maximum))
			}
			*field(s) = f
			return nil
		},
	}
}

func boolSetting(key string, field func(*domain.AppSettings) *bool) setting {
	return setting{
		key:  key,
		kind: kindBool,
		get:  func(s *domain.AppSettings) string { return strconv.FormatBool(*field(s)) },
		set: func(s *domain.AppSettings, v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return domain.NewConfigurationError(key, "must be true or false")
			}
			*field(s) = b
			return nil
		},
	}
}

func durationSetting(key string, field func(*domain.AppSettings) *time.Duration) setting {
	return setting{
		key:  key,
		kind: kindDuration,
		get:  func(s *domain.AppSettings) string { return field(s).String() },
		set: func(s *domain.AppSettings, v string) error {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil || d <= 0 {
				return domain.NewConfigurationError(key, "must be a positive duration such as 30s")
			}
			*field(s) = d
			return nil
		},
	}
}

// dateLayout is the form of date settings.
const dateLayout = "2006-01-02"

// dateSetting holds a day in UTC. An empty value clears it.
func dateSetting(key string, field func(*domain.AppSettings) *time.Time) setting {
	return setting{
		key:  key,
		kind: kindString,
		get: func(s *domain.AppSettings) string {
			if field(s).IsZero() {
				return ""
			}
			return field(s).Format(dateLayout)
		},
		set: func(s *domain.AppSettings, v string) error {
			v = strings.TrimSpace(v)
			if v == "" {
				*field(s) = time.Time{}
				return nil
			}
			t, err := time.Parse(dateLayout, v)
			if err != nil {
				return domain.NewConfigurationError(key, "must be a date such as 2024-01-31")
			}
			*field(s) = t
			return nil
		},
	}
}

func listSetting(key string, field func(*domain.AppSettings) *[]string) setting {
	return setting{
		key:  key,
		kind: kindList,
		get:  func(s *domain.AppSettings) string { return strings.Join(*field(s), ",") },
		set: func(s *domain.AppSettings, v string) error {
			*field(s) = splitList(v)
			return nil
		},
	}
}

func providerSetting(key string, allowed []domain.AIProvider, field func(*domain.AppSettings) *domain.AIProvider) setting {
	return setting{
		key:  key,
		kind: kindString,
		get:  func(s *domain.AppSettings) string { return field(s).String() },
		set: func(s *domain.AppSettings, v string) error {
			p := domain.AIProvider(strings.ToLower(strings.TrimSpace(v)))
			for _, a := range allowed {
				if p == a {
					*field(s) = p
					return nil
				}
			}
			return domain.NewConfigurationError(key, fmt.Sprintf("unsupported provider %q", v))
		},
	}
}

func settingsTable() []setting {
	return []setting{
		providerSetting("embedding.provider", domain.AllEmbeddingProviders(),
			func(s *domain.AppSettings) *domain.AIProvider { return &s.Embedding.Provider }),
		stringSetting("embedding.model", func(s *domain.AppSettings) *string { return &s.Embedding.Model }),
		stringSetting("embedding.base_url", func(s *domain.AppSettings) *string { return &s.Embedding.BaseURL }),
		secretSetting("embedding.api_key", func(s *domain.AppSettings) *string { return &s.Embedding.APIKey }),

		providerSetting("llm.provider", domain.AllLLMProviders(),
			func(s *domain.AppSettings) *domain.AIProvider { return &s.LLM.Provider }),
		stringSetting("llm.model", func(s *domain.AppSettings) *string { return &s.LLM.Model }),
		stringSetting("llm.base_url", func(s *domain.AppSettings) *string { return &s.LLM.BaseURL }),
		secretSetting("llm.api_key", func(s *domain.AppSettings) *string { return &s.LLM.APIKey }),
		floatSetting("llm.temperature", 0, 2, func(s *domain.AppSettings) *float64 { return &s.LLM.Temperature }),

		intSetting("chunking.size", 1, func(s *domain.AppSettings) *int { return &s.Chunking.Size }),
		intSetting("chunking.overlap", 1, func(s *domain.AppSettings) *int { return &s.Chunking.Overlap }),

		stringSetting("storage.data_dir", func(s *domain.AppSettings) *string { return &s.Storage.DataDir }),
		{
			key:  "vector_store.backend",
			kind: kindString,
			get:  func(s *domain.AppSettings) string { return string(s.Storage.VectorBackend) },
			set: func(s *domain.AppSettings, v string) error {
				b := domain.VectorBackend(strings.ToLower(strings.TrimSpace(v)))
				if !b.IsValid() {
					return domain.NewConfigurationError("vector_store.backend", fmt.Sprintf("unsupported backend %q", v))
				}
				s.Storage.VectorBackend = b
				return nil
			},
		},
		stringSetting("vector_store.collection", func(s *domain.AppSettings) *string { return &s.Storage.Collection }),
		secretSetting("vector_store.database_url", func(s *domain.AppSettings) *string { return &s.Storage.DatabaseURL }),
		{
			key:  "ledger.backend",
			kind: kindString,
			get:  func(s *domain.AppSettings) string { return string(s.Storage.LedgerBackend) },
			set: func(s *domain.AppSettings, v string) error {
				b := domain.LedgerBackend(strings.ToLower(strings.TrimSpace(v)))
				if !b.IsValid() {
					return domain.NewConfigurationError("ledger.backend", fmt.Sprintf("unsupported backend %q", v))
				}
				s.Storage.LedgerBackend = b
				return nil
			},
		},
		secretSetting("ledger.redis_url", func(s *domain.AppSettings) *string { return &s.Storage.RedisURL }),

		intSetting("ingest.batch_size", 1, func(s *domain.AppSettings) *int { return &s.Ingest.BatchSize }),
		listSetting("ingest.skip_title_words", func(s *domain.AppSettings) *[]string { return &s.Ingest.SkipTitleWords }),
		boolSetting("ingest.compress", func(s *domain.AppSettings) *bool { return &s.Ingest.Compress }),
		dateSetting("ingest.published_after", func(s *domain.AppSettings) *time.Time { return &s.Ingest.PublishedAfter }),
		boolSetting("ingest.strip_bracket_stamps", func(s *domain.AppSettings) *bool { return &s.Ingest.StripBracketStamps }),

		intSetting("query.top_k", 1, func(s *domain.AppSettings) *int { return &s.Query.TopK }),

		secretSetting("youtube.api_key", func(s *domain.AppSettings) *string { return &s.YouTube.APIKey }),
		stringSetting("youtube.channel_id", func(s *domain.AppSettings) *string { return &s.YouTube.ChannelID }),
		intSetting("youtube.max_results", 1, func(s *domain.AppSettings) *int { return &s.YouTube.MaxResults }),

		durationSetting("timeouts.embedding", func(s *domain.AppSettings) *time.Duration { return &s.Timeouts.Embedding }),
		durationSetting("timeouts.llm", func(s *domain.AppSettings) *time.Duration { return &s.Timeouts.LLM }),
		floatSetting("ratelimit.rps", 0, 1000, func(s *domain.AppSettings) *float64 { return &s.RateLimit.RequestsPerSecond }),
		intSetting("ratelimit.burst", 1, func(s *domain.AppSettings) *int { return &s.RateLimit.Burst }),
	}
}
