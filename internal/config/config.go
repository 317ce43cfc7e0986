package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StateDir  string `toml:"state_dir"`
	UploadDir string `toml:"upload_dir"`
	ChunkDir  string `toml:"chunk_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
}

// Upload contains limits and retention settings for chunked uploads.
type Upload struct {
	MaxFileBytes       int64    `toml:"max_file_bytes"`
	ChunkSizeBytes     int64    `toml:"chunk_size_bytes"`
	AllowedExtensions  []string `toml:"allowed_extensions"`
	SessionTTLMinutes  int      `toml:"session_ttl_minutes"`
	RetentionMinutes   int      `toml:"retention_minutes"`
	SweepIntervalSecs  int      `toml:"sweep_interval_seconds"`
	MinFreeBytesMargin int64    `toml:"min_free_bytes_margin"`
}

// Analysis configures the external analyzer commands invoked per stage.
type Analysis struct {
	AudioCommand        []string `toml:"audio_command"`
	VisualCommand       []string `toml:"visual_command"`
	NarrativeCommand    []string `toml:"narrative_command"`
	StageTimeoutSeconds int      `toml:"stage_timeout_seconds"`
}

// Pipeline contains worker pool and polling settings.
type Pipeline struct {
	Workers            int `toml:"workers"`
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// LLM contains connection settings for the coaching report model.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completion     bool   `toml:"completion"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the root configuration for the podium daemon.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Upload        Upload        `toml:"upload"`
	Analysis      Analysis      `toml:"analysis"`
	Pipeline      Pipeline      `toml:"pipeline"`
	LLM           LLM           `toml:"llm"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the location used when no explicit path is given.
func DefaultConfigPath() string {
	return expandPath("~/.config/podium/config.toml")
}

// Load reads configuration from path, or defaults when path is empty and no
// file exists at the default location. The returned path is the file that was
// consulted (even if absent).
func Load(path string) (*Config, string, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		resolved = DefaultConfigPath()
	} else {
		resolved = expandPath(resolved)
	}

	cfg := Default()
	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Missing file means defaults; an explicit path must exist.
		if strings.TrimSpace(path) != "" {
			return nil, resolved, fmt.Errorf("config file %s: %w", resolved, err)
		}
	case err != nil:
		return nil, resolved, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, resolved, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, resolved, err
	}
	return &cfg, resolved, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	resolved := expandPath(path)
	if _, err := os.Stat(resolved); err == nil {
		return fmt.Errorf("config file already exists at %s", resolved)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(resolved, []byte(sampleConfig), 0o644)
}

// DatabasePath returns the SQLite database location under the state directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "podium.db")
}

// EnsureDirectories creates the directories podium writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.UploadDir, c.Paths.ChunkDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) normalize() {
	c.Paths.StateDir = expandPath(c.Paths.StateDir)
	c.Paths.UploadDir = expandPath(c.Paths.UploadDir)
	c.Paths.ChunkDir = expandPath(c.Paths.ChunkDir)
	c.Paths.LogDir = expandPath(c.Paths.LogDir)

	normalized := make([]string, 0, len(c.Upload.AllowedExtensions))
	for _, ext := range c.Upload.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	c.Upload.AllowedExtensions = normalized
}

func expandPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return trimmed
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
		}
	}
	return trimmed
}
