package testsupport

import (
	"path/filepath"
	"testing"

	"podium/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.UploadDir = filepath.Join(base, "uploads")
	cfg.Paths.ChunkDir = filepath.Join(base, "chunks")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Upload.MinFreeBytesMargin = 0

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithChunkSize overrides the configured chunk size on the test config.
func WithChunkSize(size int64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Upload.ChunkSizeBytes = size
	}
}

// WithMaxFileBytes overrides the upload size ceiling on the test config.
func WithMaxFileBytes(size int64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Upload.MaxFileBytes = size
	}
}

// WithWorkers overrides the pipeline worker count on the test config.
func WithWorkers(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.Workers = n
	}
}
