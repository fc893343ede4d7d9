package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/s7ventures/trading-nlp-pipeline/internal/connectors/filesystem"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/services"
)

// Catalog status labels.
const (
	statusIngested   = "ingested"
	statusDownloaded = "downloaded"
	statusSkipped    = "skipped"
	statusNew        = "new"
)

var (
	catalogChannel string
	catalogMax     int
	catalogJSON    bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List channel videos and their ingestion status",
	Long: `Lists the newest videos of a YouTube channel and shows, for each one,
whether it is already ingested, has a transcript file waiting, is skipped by
ingest.skip_title_words, or is new.

Requires youtube.api_key (or YOUTUBE_API_KEY).`,
	Args: cobra.NoArgs,
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().StringVar(&catalogChannel, "channel", "", "channel id (default youtube.channel_id)")
	catalogCmd.Flags().IntVar(&catalogMax, "max", 0, "maximum number of videos (default youtube.max_results)")
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "output videos as JSON")
	needsServices(catalogCmd)
	rootCmd.AddCommand(catalogCmd)
}

// catalogEntry is one video with its local status.
type catalogEntry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
	URI         string    `json:"uri"`
	Status      string    `json:"status"`
	FileName    string    `json:"file_name"`
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if videoCatalog == nil {
		return domain.NewConfigurationError("youtube.api_key", "required to list channel videos")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	channel := catalogChannel
	if channel == "" {
		channel = settings.YouTube.ChannelID
	}
	limit := catalogMax
	if limit <= 0 {
		limit = settings.YouTube.MaxResults
	}

	ctx := cmd.Context()
	videos, err := videoCatalog.ChannelVideos(ctx, channel, limit)
	if err != nil {
		return fmt.Errorf("catalog failed: %w", err)
	}

	downloaded := localTranscripts(transcriptsDir)
	skip := services.IngestFilter(settings.Ingest)

	entries := make([]catalogEntry, 0, len(videos))
	counts := map[string]int{}
	for _, v := range videos {
		status := statusNew
		switch {
		case skip(v.Metadata):
			status = statusSkipped
		case ledgerStore != nil && isProcessed(cmd, v.ID):
			status = statusIngested
		case downloaded[v.ID]:
			status = statusDownloaded
		}
		counts[status]++
		entries = append(entries, catalogEntry{
			ID:          v.ID,
			Title:       v.Metadata.Title,
			PublishedAt: v.Metadata.PublishedAt,
			URI:         v.Metadata.URI,
			Status:      status,
			FileName:    filesystem.FileName(v.ID, v.Metadata.Title),
		})
	}

	if catalogJSON {
		return printJSON(cmd, entries)
	}

	for _, e := range entries {
		date := ""
		if !e.PublishedAt.IsZero() {
			date = e.PublishedAt.Format(time.DateOnly)
		}
		cmd.Printf("  %-10s  %s  %-10s  %s\n", e.Status, e.ID, date, e.Title)
	}
	cmd.Printf("\n%d videos: %d ingested, %d downloaded, %d new, %d skipped.\n",
		len(entries), counts[statusIngested], counts[statusDownloaded], counts[statusNew], counts[statusSkipped])
	if counts[statusNew] > 0 {
		cmd.Printf("Save new transcripts to %s as <id>_<title>.txt, then run 'trading-nlp ingest --all'.\n", transcriptsDir)
	}
	return nil
}

func isProcessed(cmd *cobra.Command, id string) bool {
	ok, err := ledgerStore.IsProcessed(cmd.Context(), id)
	if err != nil {
		cmd.PrintErrf("Warning: ledger lookup for %s failed: %v\n", id, err)
		return false
	}
	return ok
}

// localTranscripts returns the video ids with a transcript file in dir.
func localTranscripts(dir string) map[string]bool {
	ids := map[string]bool{}
	if dir == "" {
		return ids
	}
	files, err := filesystem.New(dir).Files()
	if err != nil {
		return ids
	}
	for _, f := range files {
		id, _ := filesystem.ParseFileName(filepath.Base(f))
		ids[id] = true
	}
	return ids
}
