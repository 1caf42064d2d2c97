package conduct

import "time"

// Config holds configuration for the Conductor.
type Config struct {
	// TickInterval is how often the scheduler checks for due schedules.
	TickInterval time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration

	// InferenceURL is the base URL of the external inference service the
	// API proxies to. Empty disables the proxy endpoints.
	InferenceURL string

	// StaticDir is the directory the API serves the front-end from.
	// Empty disables static file serving.
	StaticDir string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval:    1 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}
