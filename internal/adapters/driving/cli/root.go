// Package cli implements the trading-nlp command line.
//
// Commands read their services from package state. The composition root
// in cmd/trading-nlp supplies a Wiring that builds them once flags are
// parsed; tests assign the services directly.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driving"
	"github.com/s7ventures/trading-nlp-pipeline/internal/logger"
	"github.com/s7ventures/trading-nlp-pipeline/internal/metrics"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

// annotationServices marks commands that need the full service graph.
const annotationServices = "services"

// Global flags.
var (
	verbose   bool
	configDir string
	dataDir   string
	envFile   string
)

// Services is the service graph built for commands that ingest or query.
type Services struct {
	Ingestion driving.IngestionService
	Query     driving.QueryService
	Ledger    driven.DedupLedger
	Chunks    driven.ChunkStore
	Catalog   driven.VideoCatalog
	Metrics   *metrics.Metrics

	// TranscriptsDir is where transcript files are read from.
	TranscriptsDir string

	// Unavailable explains why Ingestion and Query are nil.
	Unavailable error

	// Close releases stores and clients. May be nil.
	Close func() error
}

// WireOptions carries command-line state into the service graph.
type WireOptions struct {
	// DataDir overrides storage.data_dir when non-empty.
	DataDir string

	// Progress is called after each ingested source.
	Progress func(domain.IngestResult, error)
}

// Wiring builds the services used by commands.
type Wiring interface {
	// Settings opens the settings service over the config directory.
	// An empty dir uses the default location.
	Settings(configDir string) (driving.SettingsService, error)

	// Services builds the ingestion and query graph from settings.
	Services(ctx context.Context, settings *domain.AppSettings, opts WireOptions) (*Services, error)

	// Check connects to the configured AI providers.
	Check(ctx context.Context, settings *domain.AppSettings) error
}

// Package state shared by commands.
var (
	wiring Wiring

	settingsService  driving.SettingsService
	ingestionService driving.IngestionService
	queryService     driving.QueryService
	ledgerStore      driven.DedupLedger
	chunkStore       driven.ChunkStore
	videoCatalog     driven.VideoCatalog
	appMetrics       *metrics.Metrics
	transcriptsDir   string
	unavailable      error
	closeServices    func() error
)

// SetWiring installs the builder used for settings and services.
func SetWiring(w Wiring) {
	wiring = w
}

var rootCmd = &cobra.Command{
	Use:   "trading-nlp",
	Short: "Ask questions about trading video transcripts",
	Long: `trading-nlp ingests trading video transcripts into a vector store and
answers questions from them with a language model.

Transcripts are cleaned, split into overlapping chunks, embedded and stored.
Each video is ingested once; a ledger records what has been processed.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "print debug output to stderr")
	flags.StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.trading-nlp)")
	flags.StringVar(&dataDir, "data-dir", "", "data directory (overrides storage.data_dir)")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading settings")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRunE is skipped when a command fails.
	if cerr := teardown(rootCmd, nil); err == nil {
		err = cerr
	}
	if errors.Is(err, domain.ErrConfiguration) {
		fmt.Fprintln(rootCmd.ErrOrStderr(),
			"Hint: run 'trading-nlp settings check' and 'trading-nlp settings set <key> <value>' to fix the configuration.")
	}
	return err
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	progress.reset(cmd.ErrOrStderr())

	if err := loadEnvFile(envFile); err != nil {
		return err
	}

	if wiring == nil {
		return nil
	}

	if settingsService == nil {
		svc, err := wiring.Settings(configDir)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		settingsService = svc
	}

	if cmd.Annotations[annotationServices] == "" || queryService != nil {
		return nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	svc, err := wiring.Services(cmd.Context(), settings, WireOptions{
		DataDir:  dataDir,
		Progress: progress.report,
	})
	if err != nil {
		return err
	}
	useServices(svc)
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

// useServices publishes svc to the commands.
func useServices(svc *Services) {
	ingestionService = svc.Ingestion
	queryService = svc.Query
	ledgerStore = svc.Ledger
	chunkStore = svc.Chunks
	videoCatalog = svc.Catalog
	appMetrics = svc.Metrics
	transcriptsDir = svc.TranscriptsDir
	unavailable = svc.Unavailable
	closeServices = svc.Close
}

// notConfigured reports a missing service with the reason it was not built.
func notConfigured(service string) error {
	if unavailable != nil {
		return fmt.Errorf("%s not configured: %w", service, unavailable)
	}
	return fmt.Errorf("%s not configured", service)
}

// loadEnvFile loads variables from path without overriding the environment.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	logger.Debug("loaded environment from %s", path)
	return nil
}

// needsServices marks cmd as requiring the service graph.
func needsServices(cmd *cobra.Command) {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationServices] = "true"
}
