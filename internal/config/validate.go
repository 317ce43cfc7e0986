package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.StateDir) == "" {
		problems = append(problems, "paths.state_dir is required")
	}
	if strings.TrimSpace(c.Paths.UploadDir) == "" {
		problems = append(problems, "paths.upload_dir is required")
	}
	if strings.TrimSpace(c.Paths.ChunkDir) == "" {
		problems = append(problems, "paths.chunk_dir is required")
	}
	if c.Upload.MaxFileBytes <= 0 {
		problems = append(problems, "upload.max_file_bytes must be positive")
	}
	if c.Upload.ChunkSizeBytes <= 0 {
		problems = append(problems, "upload.chunk_size_bytes must be positive")
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		problems = append(problems, "upload.allowed_extensions must not be empty")
	}
	if c.Upload.SessionTTLMinutes <= 0 {
		problems = append(problems, "upload.session_ttl_minutes must be positive")
	}
	if len(c.Analysis.AudioCommand) == 0 {
		problems = append(problems, "analysis.audio_command is required")
	}
	if len(c.Analysis.VisualCommand) == 0 {
		problems = append(problems, "analysis.visual_command is required")
	}
	if len(c.Analysis.NarrativeCommand) == 0 {
		problems = append(problems, "analysis.narrative_command is required")
	}
	if c.Analysis.StageTimeoutSeconds <= 0 {
		problems = append(problems, "analysis.stage_timeout_seconds must be positive")
	}
	if c.Pipeline.Workers <= 0 {
		problems = append(problems, "pipeline.workers must be positive")
	}
	if c.Pipeline.QueuePollInterval <= 0 {
		problems = append(problems, "pipeline.queue_poll_interval must be positive")
	}

	if len(problems) == 0 {
		return nil
	}
	if len(problems) == 1 {
		return errors.New(problems[0])
	}
	return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
}
