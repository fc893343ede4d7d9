package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s7ventures/trading-nlp-pipeline/internal/connectors/filesystem"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driving"
)

var (
	ingestAll    bool
	ingestForce  bool
	ingestWatch  bool
	ingestDryRun bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest transcripts into the vector store",
	Long: `Cleans, chunks and embeds transcript files, then stores the chunks in the
vector store. Transcripts are named "<videoID>_<title>.txt".

Videos already recorded in the ledger are skipped unless --force is given.
With --watch, new files in the transcripts directory are ingested as they
appear until interrupted.

Examples:
  trading-nlp ingest --all
  trading-nlp ingest data/transcripts/dQw4w9WgXcQ_Iron_Condors.txt
  trading-nlp ingest --all --watch`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestAll, "all", false, "ingest every transcript in the transcripts directory")
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "re-ingest videos already in the ledger")
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "keep running and ingest new transcripts as they appear")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "clean and chunk without embedding or storing")
	needsServices(ingestCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return notConfigured("ingestion service")
	}
	if len(args) > 0 && ingestAll {
		return errors.New("--all cannot be combined with file arguments")
	}
	if len(args) == 0 && !ingestAll && !ingestWatch {
		return errors.New("specify transcript files, --all or --watch")
	}

	opts := driving.IngestOptions{Force: ingestForce, DryRun: ingestDryRun}

	var sourceOpts []filesystem.Option
	if videoCatalog != nil {
		sourceOpts = append(sourceOpts, filesystem.WithCatalog(videoCatalog))
	}

	if len(args) > 0 || ingestAll {
		source := filesystem.New(transcriptsDir, sourceOpts...)
		if len(args) > 0 {
			source = filesystem.NewFiles(args, sourceOpts...)
		}

		summary, err := ingestionService.IngestAll(cmd.Context(), source, opts)
		progress.finish()
		printSummary(cmd, summary, ingestDryRun)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
	}

	if ingestWatch {
		return watchTranscripts(cmd, opts, sourceOpts)
	}
	return nil
}

// watchTranscripts ingests transcripts as they appear until the command's
// context is cancelled. Failures are reported and watching continues.
func watchTranscripts(cmd *cobra.Command, opts driving.IngestOptions, sourceOpts []filesystem.Option) error {
	ctx := cmd.Context()
	sources, err := filesystem.New(transcriptsDir, sourceOpts...).Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	cmd.Printf("Watching %s for new transcripts (Ctrl+C to stop)...\n", transcriptsDir)
	for src := range sources {
		// The progress printer reports the outcome, including failures.
		_, _ = ingestionService.IngestSource(ctx, src, opts)
	}
	progress.finish()
	return nil
}

func printSummary(cmd *cobra.Command, summary domain.IngestSummary, dryRun bool) {
	verb := "Ingested"
	if dryRun {
		verb = "Chunked (dry run)"
	}
	cmd.Printf("%s %d, skipped %d, failed %d. %d chunks.\n",
		verb, summary.Ingested, summary.Skipped, summary.Failed, summary.Chunks)
	for _, id := range summary.FailedIDs {
		cmd.Printf("  failed: %s\n", id)
	}
}
