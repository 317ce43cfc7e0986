package analysis_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"podium/internal/analysis"
	"podium/internal/logging"
	"podium/internal/services"
	"podium/internal/testsupport"
)

func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestAnalyzeAudioParsesOutput(t *testing.T) {
	script := writeScript(t, "audio.sh", `cat <<'JSON'
{"transcript":"hello there","duration":42.5,"speaking_rate":{"score":7.1,"wpm":145},"pitch":{"pitch_score":6.0,"variety_score":5.5},"volume":{"score":8.0},"pauses":{"score":6.5},"fillers":{"score":7.0,"filler_count":3},"clarity":{"score":8.2},"confidence":{"score":7.4}}
JSON`)

	cfg := testsupport.NewConfig(t)
	cfg.Analysis.AudioCommand = []string{script}
	tc := analysis.NewToolchain(cfg, logging.NewNop())

	features, err := tc.AnalyzeAudio(context.Background(), "/tmp/video.mp4")
	if err != nil {
		t.Fatalf("AnalyzeAudio: %v", err)
	}
	if features.Transcript != "hello there" || features.Duration != 42.5 {
		t.Fatalf("features = %+v", features)
	}
	scores := features.ParameterScores()
	if len(scores) != 8 {
		t.Fatalf("parameter scores = %v, want 8 values", scores)
	}
	if scores[0] != 7.1 || scores[7] != 7.4 {
		t.Fatalf("unexpected scores: %v", scores)
	}
}

func TestAnalyzeVisualReceivesVideoPath(t *testing.T) {
	script := writeScript(t, "visual.sh", `printf '{"posture":{"score":6.0},"expansiveness":{"score":5.0},"eye_contact":{"score":7.0},"expressions":{"score":6.5},"gestures":{"score":5.5},"first_impression":{"score":%s}}' "$#"`)

	cfg := testsupport.NewConfig(t)
	cfg.Analysis.VisualCommand = []string{script}
	tc := analysis.NewToolchain(cfg, logging.NewNop())

	features, err := tc.AnalyzeVisual(context.Background(), "/tmp/video.mp4")
	if err != nil {
		t.Fatalf("AnalyzeVisual: %v", err)
	}
	// The script reports its argument count as the last score.
	if features.FirstImpression.Score != 1 {
		t.Fatalf("expected exactly one argument, score = %v", features.FirstImpression.Score)
	}
}

func TestAnalyzeNarrativeStreamsTranscript(t *testing.T) {
	script := writeScript(t, "narrative.sh", `words=$(wc -w)
printf '{"has_story":true,"story_count":%s,"narrative_structure":{"score":6.0},"cognitive_ease":{"score":7.0},"self_disclosure":{"score":5.0},"memorability":{"score":6.0},"story_metrics":{"score":5.5},"story_placement":{"score":6.5}}' "$words"`)

	cfg := testsupport.NewConfig(t)
	cfg.Analysis.NarrativeCommand = []string{script}
	tc := analysis.NewToolchain(cfg, logging.NewNop())

	features, err := tc.AnalyzeNarrative(context.Background(), "once upon a time", 30)
	if err != nil {
		t.Fatalf("AnalyzeNarrative: %v", err)
	}
	if features.StoryCount != 4 {
		t.Fatalf("story count = %d, want word count 4", features.StoryCount)
	}
	if got := features.ParameterScores(); len(got) != 6 {
		t.Fatalf("parameter scores = %v, want 6 values", got)
	}
}

func TestNarrativeWithoutStoryHasNoParameters(t *testing.T) {
	features := analysis.NarrativeFeatures{HasStory: false}
	if got := features.ParameterScores(); got != nil {
		t.Fatalf("scores = %v, want nil", got)
	}
}

func TestAnalyzerFailureIsExternalToolError(t *testing.T) {
	script := writeScript(t, "broken.sh", `echo "model load failed" >&2; exit 3`)

	cfg := testsupport.NewConfig(t)
	cfg.Analysis.AudioCommand = []string{script}
	tc := analysis.NewToolchain(cfg, logging.NewNop())

	_, err := tc.AnalyzeAudio(context.Background(), "/tmp/video.mp4")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("err = %v, want ErrExternalTool", err)
	}
}

func TestAnalyzerTimeoutIsTimeoutError(t *testing.T) {
	script := writeScript(t, "slow.sh", `sleep 5`)

	cfg := testsupport.NewConfig(t)
	cfg.Analysis.AudioCommand = []string{script}
	cfg.Analysis.StageTimeoutSeconds = 1
	tc := analysis.NewToolchain(cfg, logging.NewNop())

	_, err := tc.AnalyzeAudio(context.Background(), "/tmp/video.mp4")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestUnconfiguredAnalyzerFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Analysis.AudioCommand = nil
	tc := analysis.NewToolchain(cfg, logging.NewNop())

	_, err := tc.AnalyzeAudio(context.Background(), "/tmp/video.mp4")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestInvalidAnalyzerOutputFails(t *testing.T) {
	script := writeScript(t, "garbage.sh", `echo "not json"`)

	cfg := testsupport.NewConfig(t)
	cfg.Analysis.VisualCommand = []string{script}
	tc := analysis.NewToolchain(cfg, logging.NewNop())

	_, err := tc.AnalyzeVisual(context.Background(), "/tmp/video.mp4")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("err = %v, want ErrExternalTool", err)
	}
}
