package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"podium/internal/config"
	"podium/internal/logging"
	"podium/internal/services"
)

// Toolchain runs the configured analyzer commands. Each analyzer is an
// external program that receives its input as arguments (and stdin for the
// narrative stage) and prints a single JSON document on stdout.
type Toolchain struct {
	audioCmd     []string
	visualCmd    []string
	narrativeCmd []string
	timeout      time.Duration
	logger       *slog.Logger
}

// NewToolchain constructs analyzers from the configured commands.
func NewToolchain(cfg *config.Config, logger *slog.Logger) *Toolchain {
	timeout := time.Duration(cfg.Analysis.StageTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Toolchain{
		audioCmd:     cfg.Analysis.AudioCommand,
		visualCmd:    cfg.Analysis.VisualCommand,
		narrativeCmd: cfg.Analysis.NarrativeCommand,
		timeout:      timeout,
		logger:       logging.NewComponentLogger(logger, "analysis"),
	}
}

// AnalyzeAudio runs the audio analyzer against the video file.
func (t *Toolchain) AnalyzeAudio(ctx context.Context, videoPath string) (*AudioFeatures, error) {
	var features AudioFeatures
	if err := t.runJSON(ctx, "audio-analysis", t.audioCmd, "", &features, videoPath); err != nil {
		return nil, err
	}
	return &features, nil
}

// AnalyzeVisual runs the visual analyzer against the video file.
func (t *Toolchain) AnalyzeVisual(ctx context.Context, videoPath string) (*VisualFeatures, error) {
	var features VisualFeatures
	if err := t.runJSON(ctx, "visual-analysis", t.visualCmd, "", &features, videoPath); err != nil {
		return nil, err
	}
	return &features, nil
}

// AnalyzeNarrative runs the narrative analyzer. The transcript is passed on
// stdin; the spoken duration rides along as a flag.
func (t *Toolchain) AnalyzeNarrative(ctx context.Context, transcript string, duration float64) (*NarrativeFeatures, error) {
	var features NarrativeFeatures
	args := []string{"--duration", strconv.FormatFloat(duration, 'f', 2, 64)}
	if err := t.runJSON(ctx, "narrative-analysis", t.narrativeCmd, transcript, &features, args...); err != nil {
		return nil, err
	}
	return &features, nil
}

func (t *Toolchain) runJSON(ctx context.Context, stage string, command []string, stdin string, target any, extraArgs ...string) error {
	if len(command) == 0 {
		return services.Wrap(services.ErrConfiguration, stage, "run", "analyzer command not configured", nil)
	}

	runCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	args := append(append([]string{}, command[1:]...), extraArgs...)
	cmd := exec.CommandContext(runCtx, command[0], args...) //nolint:gosec
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	elapsed := time.Since(started)

	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, stage, "run",
				fmt.Sprintf("analyzer exceeded %s", t.timeout), err)
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return services.Wrap(services.ErrExternalTool, stage, "run", detail, err)
	}

	if err := json.Unmarshal(stdout.Bytes(), target); err != nil {
		return services.Wrap(services.ErrExternalTool, stage, "parse output",
			"analyzer produced invalid JSON", err)
	}

	t.logger.Debug("analyzer finished",
		logging.String("stage", stage),
		logging.Duration("elapsed", elapsed),
	)
	return nil
}
