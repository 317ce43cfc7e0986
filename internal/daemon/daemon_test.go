package daemon

import (
	"context"
	"net/http"
	"testing"

	"podium/internal/analysis"
	"podium/internal/logging"
	"podium/internal/pipeline"
	"podium/internal/report"
	"podium/internal/store"
	"podium/internal/testsupport"
	"podium/internal/upload"
)

type stubAnalyzers struct{}

func (stubAnalyzers) AnalyzeAudio(context.Context, string) (*analysis.AudioFeatures, error) {
	return &analysis.AudioFeatures{Transcript: "hello", Duration: 30}, nil
}

func (stubAnalyzers) AnalyzeVisual(context.Context, string) (*analysis.VisualFeatures, error) {
	return &analysis.VisualFeatures{}, nil
}

func (stubAnalyzers) AnalyzeNarrative(context.Context, string, float64) (*analysis.NarrativeFeatures, error) {
	return &analysis.NarrativeFeatures{}, nil
}

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	uploads := upload.NewManager(cfg, st, logging.NewNop())

	fakes := stubAnalyzers{}
	orch := pipeline.NewOrchestrator(st, fakes, fakes, fakes,
		report.NewGenerator(nil, logging.NewNop()), nil, logging.NewNop())
	pm := pipeline.NewManager(cfg, st, orch, logging.NewNop())

	d, err := New(cfg, st, uploads, pm, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestDaemonStartServesAPI(t *testing.T) {
	d := newTestDaemon(t)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	addr := d.Addr()
	if addr == "" {
		t.Fatal("expected a listener address")
	}
	resp, err := http.Get("http://" + addr + "/api/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp.StatusCode)
	}

	status, err := d.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.DBPath == "" {
		t.Fatalf("status = %+v, want running with a db path", status)
	}
	if got := status.Assessments[store.AssessmentQueued]; got != 0 {
		t.Fatalf("queued = %d, want 0", got)
	}
}

func TestDaemonLockPreventsSecondInstance(t *testing.T) {
	first := newTestDaemon(t)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop()

	// Second daemon on the same state directory must refuse to start.
	st := testsupport.MustOpenStore(t, first.cfg)
	uploads := upload.NewManager(first.cfg, st, logging.NewNop())
	fakes := stubAnalyzers{}
	orch := pipeline.NewOrchestrator(st, fakes, fakes, fakes,
		report.NewGenerator(nil, logging.NewNop()), nil, logging.NewNop())
	pm := pipeline.NewManager(first.cfg, st, orch, logging.NewNop())

	second, err := New(first.cfg, st, uploads, pm, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second instance to fail on the lock")
	}
}

func TestDaemonStopReleasesLock(t *testing.T) {
	d := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	d.Stop()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("restart after Stop: %v", err)
	}
	d.Stop()
}
