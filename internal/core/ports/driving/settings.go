package driving

import "github.com/custodia-labs/athena/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get materialises the typed settings, applying defaults for missing keys.
	// Returns an error if the resulting settings are invalid.
	Get() (*domain.Settings, error)

	// Set validates and persists a single dotted key.
	Set(key, value string) error

	// Keys lists every recognised configuration key.
	Keys() []string

	// Path returns where the configuration is stored.
	Path() string
}
