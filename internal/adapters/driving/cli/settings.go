package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driving"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, storage backends, chunking and other options.

Settings are stored in config.toml in the configuration directory.
Environment variables such as OPENAI_API_KEY override stored values.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a setting",
	Long: `Set a setting by its dotted key, for example:

  trading-nlp settings set chunking.size 800
  trading-nlp settings set llm.provider anthropic
  trading-nlp settings set ingest.skip_title_words live,shorts

When the value of a secret such as llm.api_key is omitted it is read from
the terminal without echo.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset [key]",
	Short: "Restore a setting to its default",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsReset,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that settings allow ingestion and queries",
	Long: `Check that settings allow ingestion and queries.

With --ping the embedding and language model providers are contacted to
confirm the credentials and endpoints work.`,
	Args: cobra.NoArgs,
	RunE: runSettingsCheck,
}

var settingsCheckPing bool

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	settingsCheckCmd.Flags().BoolVar(&settingsCheckPing, "ping", false, "contact the AI providers")
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func pingProviders(cmd *cobra.Command) error {
	if wiring == nil {
		return errors.New("provider checks are not available")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	return wiring.Check(cmd.Context(), settings)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	values, err := settingsService.Values()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")

	section := ""
	for _, v := range values {
		group, _, _ := strings.Cut(v.Key, ".")
		if group != section {
			section = group
			cmd.Println()
			cmd.Printf("[%s]\n", section)
		}
		cmd.Printf("  %-28s %s%s\n", v.Key, displayValue(v), sourceNote(v.Source))
	}
	cmd.Println()

	// Validation
	if err := settingsService.Validate(); err != nil {
		cmd.Println("Warning: configuration is incomplete. Run 'trading-nlp settings check' for details.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	if !slices.Contains(settingsService.Keys(), key) {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		cmd.Printf("%s: ", key)
		value = readPassword()
		cmd.Println()
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	shown := value
	if isSecretKey(key) {
		shown = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, shown)
	return nil
}

func runSettingsReset(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Reset(args[0]); err != nil {
		return fmt.Errorf("failed to reset %s: %w", args[0], err)
	}
	cmd.Printf("Reset %s to its default.\n", args[0])
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	err := settingsService.Validate()
	if err == nil && settingsCheckPing {
		err = pingProviders(cmd)
	}
	if err == nil {
		cmd.Println("Configuration is valid.")
		return nil
	}

	cmd.Println("Configuration problems:")
	for _, problem := range unjoin(err) {
		var ce *domain.ConfigurationError
		if errors.As(problem, &ce) {
			cmd.Printf("  %s: %s\n", ce.Field, ce.Reason)
			continue
		}
		cmd.Printf("  %v\n", problem)
	}
	return err
}

// unjoin splits an errors.Join result into its parts.
func unjoin(err error) []error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}
	return []error{err}
}

func displayValue(s driving.Setting) string {
	switch {
	case s.Value == "":
		return "(not set)"
	case s.Secret:
		return maskAPIKey(s.Value)
	default:
		return s.Value
	}
}

func sourceNote(source string) string {
	if source == "" || source == "default" {
		return ""
	}
	return "  (" + source + ")"
}

func isSecretKey(key string) bool {
	values, err := settingsService.Values()
	if err != nil {
		return true
	}
	for _, v := range values {
		if v.Key == key {
			return v.Secret
		}
	}
	return false
}

func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
