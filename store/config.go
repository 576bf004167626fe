package store

import "github.com/rs/zerolog"

// Config holds configuration for the KeyValueStore.
type Config struct {
	// RetryCount bounds the reconnect attempts performed before an
	// operation fails with ErrConnectivity.
	// Default: 3
	RetryCount int

	// Logger receives reconnect and data-integrity diagnostics.
	// Default: a no-op logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RetryCount: 3,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.RetryCount < 1 {
		c.RetryCount = 3
	}
}
