package driving

import "github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"

// Setting is one key of the settings table as shown to the user.
type Setting struct {
	Key   string
	Value string

	// Secret values should be masked when displayed.
	Secret bool

	// Source is "default", "config" or "env".
	Source string
}

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, with environment
	// variables applied over the stored configuration.
	Get() (*domain.AppSettings, error)

	// Set validates and stores a single setting by dotted key.
	Set(key, value string) error

	// Reset removes a stored setting so its default applies again.
	Reset(key string) error

	// Keys returns the recognised setting keys in display order.
	Keys() []string

	// Values returns every setting with its effective value.
	Values() ([]Setting, error)

	// Validate checks that settings allow ingestion and queries to run.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
