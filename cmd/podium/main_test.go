package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"podium/internal/config"
	"podium/internal/report"
	"podium/internal/scoring"
	"podium/internal/store"
	"podium/internal/testsupport"
)

// writeConfigFile serializes cfg to a TOML file the CLI can load with --config.
func writeConfigFile(t *testing.T, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "podium", "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output %q should name the target path", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	// A second init must refuse to overwrite.
	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init over an existing file to fail")
	}
}

func TestConfigShowPrintsEffectiveConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeConfigFile(t, cfg)

	out, err := runCommand(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, cfg.Paths.StateDir) {
		t.Fatalf("output should include the state dir, got:\n%s", out)
	}
}

func TestConfigValidateReportsValid(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeConfigFile(t, cfg)

	out, err := runCommand(t, "--config", path, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestStatusCommandCountsAssessments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeConfigFile(t, cfg)

	st := testsupport.MustOpenStore(t, cfg)
	session := testsupport.NewSession(t, st, 1)
	testsupport.NewAssessment(t, st, session.ID, "/tmp/a.mp4")
	testsupport.NewAssessment(t, st, session.ID, "/tmp/b.mp4")

	out, err := runCommand(t, "--config", path, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "queued") || !strings.Contains(out, "2") {
		t.Fatalf("status output should show two queued assessments, got:\n%s", out)
	}
}

func TestReportCommandStates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeConfigFile(t, cfg)

	st := testsupport.MustOpenStore(t, cfg)
	session := testsupport.NewSession(t, st, 1)
	pending := testsupport.NewAssessment(t, st, session.ID, "/tmp/p.mp4")

	out, err := runCommand(t, "--config", path, "report", pending.ID)
	if err != nil {
		t.Fatalf("report (pending): %v", err)
	}
	if !strings.Contains(out, "queued") {
		t.Fatalf("pending report output = %q, want queued notice", out)
	}

	done := testsupport.NewAssessment(t, st, session.ID, "/tmp/d.mp4")
	claimTwice(t, st)
	doc := report.AssessmentReport{
		AssessmentID: done.ID,
		OverallScore: 63.0,
		Buckets: []scoring.BucketScore{
			{Name: scoring.BucketCommunication, Score: 80, Parameters: []scoring.ParameterScore{
				{Name: "Speaking Rate", Score: 80, RawValue: 140, Unit: "WPM"},
			}},
		},
		Narrative:   "Strong delivery overall.",
		GeneratedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}
	if err := st.CompleteAssessment(context.Background(), done.ID, string(payload)); err != nil {
		t.Fatalf("complete: %v", err)
	}

	out, err = runCommand(t, "--config", path, "report", done.ID)
	if err != nil {
		t.Fatalf("report (completed): %v", err)
	}
	for _, want := range []string{"63.0", "Speaking Rate", "Strong delivery overall."} {
		if !strings.Contains(out, want) {
			t.Fatalf("report output missing %q:\n%s", want, out)
		}
	}

	if _, err := runCommand(t, "--config", path, "report", "missing-id"); err == nil {
		t.Fatal("expected report of an unknown assessment to fail")
	}
}

// claimTwice claims both queued assessments so the second can be completed.
func claimTwice(t *testing.T, st *store.Store) {
	t.Helper()
	for i := 0; i < 2; i++ {
		if _, err := st.ClaimNextQueued(context.Background()); err != nil {
			t.Fatalf("claim %d: %v", i, err)
		}
	}
}
