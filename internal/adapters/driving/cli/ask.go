package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

// snippetLen bounds excerpt text printed by retrieve.
const snippetLen = 240

var (
	askTopK    int
	askJSON    bool
	askSources bool

	retrieveTopK int
	retrieveJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Answer a question from the ingested transcripts",
	Long: `Retrieves the transcript excerpts nearest to the question and asks the
language model to answer from them. When nothing relevant is stored the
model is not called.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Show the transcript excerpts nearest to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRetrieve,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of excerpts to retrieve (default query.top_k)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "list the excerpts the answer used")
	needsServices(askCmd)
	rootCmd.AddCommand(askCmd)

	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", 0, "number of excerpts to retrieve (default query.top_k)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output results as JSON")
	needsServices(retrieveCmd)
	rootCmd.AddCommand(retrieveCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return notConfigured("query service")
	}

	answer, err := queryService.Answer(cmd.Context(), strings.Join(args, " "), askTopK)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return printJSON(cmd, answer)
	}

	cmd.Println(answer.Text)
	if askSources && len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, src := range answer.Sources {
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, excerptTitle(src), src.Score)
			if uri := src.Metadata[domain.MetaURI]; uri != "" {
				cmd.Printf("      %s\n", uri)
			}
		}
	}
	return nil
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return notConfigured("query service")
	}

	results, err := queryService.Retrieve(cmd.Context(), strings.Join(args, " "), retrieveTopK)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if retrieveJSON {
		return printJSON(cmd, results)
	}

	if len(results) == 0 {
		cmd.Println(domain.NoRelevantContent)
		return nil
	}

	for i, r := range results {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, excerptTitle(r), r.Score)
		cmd.Printf("      %s\n", snippet(r.Text, snippetLen))
		cmd.Println()
	}
	return nil
}

// excerptTitle labels a chunk with its title and publish date.
func excerptTitle(r domain.RetrievedChunk) string {
	title := r.Title()
	if title == "" {
		title = r.SourceID()
	}
	if title == "" {
		title = r.ID
	}
	if t, err := time.Parse(time.RFC3339, r.Metadata[domain.MetaPublishedAt]); err == nil {
		title += ", " + t.Format(time.DateOnly)
	}
	return title
}

// snippet collapses whitespace and truncates to n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
