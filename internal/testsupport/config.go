package testsupport

import (
	"path/filepath"
	"testing"

	"hermes/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ProjectsDir = filepath.Join(base, "projects")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ScratchDir = filepath.Join(base, "scratch")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithExportMode sets the default export mode.
func WithExportMode(mode string) ConfigOption {
	return func(c *config.Config) {
		c.Export.Mode = mode
	}
}

// WithAutosaveSeconds sets the autosave interval.
func WithAutosaveSeconds(seconds int) ConfigOption {
	return func(c *config.Config) {
		c.Session.AutosaveIntervalSeconds = seconds
	}
}
