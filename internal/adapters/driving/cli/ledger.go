package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

var ledgerJSON bool

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the record of ingested videos",
	Long: `The ledger records every video whose transcript was fully ingested.
Ingestion skips videos found here unless --force is given.`,
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested videos",
	Args:  cobra.NoArgs,
	RunE:  runLedgerList,
}

var ledgerForgetCmd = &cobra.Command{
	Use:   "forget [video-id...]",
	Short: "Remove videos from the ledger so they are ingested again",
	Long: `Removes videos from the ledger. Stored vectors are kept until the video is
ingested again, which replaces them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLedgerForget,
}

func init() {
	ledgerListCmd.Flags().BoolVar(&ledgerJSON, "json", false, "output entries as JSON")
	needsServices(ledgerListCmd)
	needsServices(ledgerForgetCmd)
	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerCmd.AddCommand(ledgerForgetCmd)
	rootCmd.AddCommand(ledgerCmd)
}

func runLedgerList(cmd *cobra.Command, _ []string) error {
	if ledgerStore == nil {
		return errors.New("ledger not configured")
	}

	entries, err := ledgerStore.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list ledger: %w", err)
	}

	if ledgerJSON {
		return printJSON(cmd, entries)
	}

	if len(entries) == 0 {
		cmd.Println("No videos ingested yet.")
		return nil
	}

	cmd.Printf("Ingested videos (%d):\n", len(entries))
	for _, e := range entries {
		processed := "-"
		if !e.ProcessedAt.IsZero() {
			processed = e.ProcessedAt.Local().Format(time.DateTime)
		}
		cmd.Printf("  %s  %s  %4d chunks  %s\n", e.SourceID, processed, e.Chunks, e.Title)
	}
	return nil
}

func runLedgerForget(cmd *cobra.Command, args []string) error {
	if ledgerStore == nil {
		return errors.New("ledger not configured")
	}

	var errs []error
	for _, id := range args {
		err := ledgerStore.Forget(cmd.Context(), id)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			cmd.Printf("%s is not in the ledger.\n", id)
		case err != nil:
			errs = append(errs, fmt.Errorf("forget %s: %w", id, err))
		default:
			cmd.Printf("Forgot %s.\n", id)
		}
	}
	return errors.Join(errs...)
}
