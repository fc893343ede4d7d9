package driven

// ConfigStore holds raw configuration values under dot-separated keys such
// as "chunking.size". Typing and validation belong to the settings service.
type ConfigStore interface {
	// Get returns the stored value and whether the key is set.
	Get(key string) (any, bool)

	// Set stores value and persists it.
	Set(key string, value any) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}
