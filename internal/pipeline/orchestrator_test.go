package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"podium/internal/analysis"
	"podium/internal/logging"
	"podium/internal/pipeline"
	"podium/internal/report"
	"podium/internal/services"
	"podium/internal/store"
	"podium/internal/testsupport"
)

type fakeAnalyzers struct {
	audioErr     error
	visualErr    error
	narrativeErr error
	hasStory     bool

	narrativeTranscript string
	narrativeDuration   float64
}

func (f *fakeAnalyzers) AnalyzeAudio(ctx context.Context, videoPath string) (*analysis.AudioFeatures, error) {
	if f.audioErr != nil {
		return nil, f.audioErr
	}
	return &analysis.AudioFeatures{
		Transcript:   "today I want to tell you a story",
		Duration:     90,
		SpeakingRate: analysis.SpeakingRate{Score: 80},
		Pitch:        analysis.Pitch{PitchScore: 80, VarietyScore: 80},
		Volume:       analysis.Volume{Score: 80},
		Pauses:       analysis.Pauses{Score: 80},
		Fillers:      analysis.Fillers{Score: 80},
		Clarity:      analysis.Clarity{Score: 80},
		Confidence:   analysis.Confidence{Score: 80},
	}, nil
}

func (f *fakeAnalyzers) AnalyzeVisual(ctx context.Context, videoPath string) (*analysis.VisualFeatures, error) {
	if f.visualErr != nil {
		return nil, f.visualErr
	}
	return &analysis.VisualFeatures{
		Posture:         analysis.Posture{Score: 60},
		Expansiveness:   analysis.Expansiveness{Score: 60},
		EyeContact:      analysis.EyeContact{Score: 60},
		Expressions:     analysis.Expressions{Score: 60},
		Gestures:        analysis.Gestures{Score: 60},
		FirstImpression: analysis.FirstImpression{Score: 60},
	}, nil
}

func (f *fakeAnalyzers) AnalyzeNarrative(ctx context.Context, transcript string, duration float64) (*analysis.NarrativeFeatures, error) {
	f.narrativeTranscript = transcript
	f.narrativeDuration = duration
	if f.narrativeErr != nil {
		return nil, f.narrativeErr
	}
	return &analysis.NarrativeFeatures{
		HasStory:           f.hasStory,
		NarrativeStructure: analysis.NarrativeStructure{Score: 40},
		CognitiveEase:      analysis.CognitiveEase{Score: 40},
		SelfDisclosure:     analysis.SelfDisclosure{Score: 40},
		Memorability:       analysis.Memorability{Score: 40},
		StoryMetrics:       analysis.StoryMetrics{Score: 40},
		StoryPlacement:     analysis.StoryPlacement{Score: 40},
	}, nil
}

func newRun(t *testing.T, fakes *fakeAnalyzers) (*pipeline.Orchestrator, *store.Store, *store.Assessment) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(cfg.Paths.UploadDir, "video.mp4")
	testsupport.WriteVideoFile(t, source, 64)

	session := testsupport.NewSession(t, st, 1)
	_ = testsupport.NewAssessment(t, st, session.ID, source)

	claimed, err := st.ClaimNextQueued(context.Background())
	if err != nil || claimed == nil {
		t.Fatalf("claim assessment: %v %v", claimed, err)
	}

	orch := pipeline.NewOrchestrator(st, fakes, fakes, fakes,
		report.NewGenerator(nil, logging.NewNop()), nil, logging.NewNop())
	return orch, st, claimed
}

func TestRunCompletesAssessment(t *testing.T) {
	fakes := &fakeAnalyzers{hasStory: true}
	orch, st, assessment := newRun(t, fakes)

	if err := orch.Run(context.Background(), assessment); err != nil {
		t.Fatalf("Run: %v", err)
	}

	done, err := st.GetAssessment(context.Background(), assessment.ID)
	if err != nil {
		t.Fatalf("GetAssessment: %v", err)
	}
	if done.Status != store.AssessmentCompleted || done.Progress != 100 {
		t.Fatalf("assessment = %+v, want completed at 100", done)
	}

	var doc report.AssessmentReport
	if err := json.Unmarshal([]byte(done.ResultJSON), &doc); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	// 0.40*80 + 0.35*60 + 0.25*40 = 63.0
	if doc.OverallScore != 63.0 {
		t.Fatalf("overall = %v, want 63.0", doc.OverallScore)
	}
	if doc.Narrative == "" {
		t.Fatal("expected a narrative")
	}

	if _, err := os.Stat(assessment.SourcePath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("source file should be deleted, stat err = %v", err)
	}

	if fakes.narrativeTranscript == "" || fakes.narrativeDuration != 90 {
		t.Fatalf("narrative input = %q/%v, want transcript and duration from audio",
			fakes.narrativeTranscript, fakes.narrativeDuration)
	}
}

func TestRunNoStoryZeroesStorytelling(t *testing.T) {
	fakes := &fakeAnalyzers{hasStory: false}
	orch, st, assessment := newRun(t, fakes)

	if err := orch.Run(context.Background(), assessment); err != nil {
		t.Fatalf("Run: %v", err)
	}

	done, err := st.GetAssessment(context.Background(), assessment.ID)
	if err != nil {
		t.Fatalf("GetAssessment: %v", err)
	}
	var doc report.AssessmentReport
	if err := json.Unmarshal([]byte(done.ResultJSON), &doc); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if doc.StorytellingScore != 0 {
		t.Fatalf("storytelling = %v, want 0", doc.StorytellingScore)
	}
	// 0.40*80 + 0.35*60 = 53.0, zero story bucket still in the sum.
	if doc.OverallScore != 53.0 {
		t.Fatalf("overall = %v, want 53.0", doc.OverallScore)
	}
}

func TestRunVisualFailureFailsAssessment(t *testing.T) {
	fakes := &fakeAnalyzers{
		hasStory:  true,
		visualErr: services.Wrap(services.ErrExternalTool, "visual-analysis", "run", "pose model crashed", nil),
	}
	orch, st, assessment := newRun(t, fakes)

	if err := orch.Run(context.Background(), assessment); err == nil {
		t.Fatal("expected Run to return the stage error")
	}

	failed, err := st.GetAssessment(context.Background(), assessment.ID)
	if err != nil {
		t.Fatalf("GetAssessment: %v", err)
	}
	if failed.Status != store.AssessmentFailed {
		t.Fatalf("status = %s, want failed", failed.Status)
	}
	if failed.ErrorMessage == "" || failed.ResultJSON != "" {
		t.Fatalf("assessment = %+v, want error message and no report", failed)
	}
	if _, err := os.Stat(assessment.SourcePath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("source file should be deleted on failure, stat err = %v", err)
	}
}

func TestRunProgressIsMonotone(t *testing.T) {
	fakes := &fakeAnalyzers{hasStory: true}
	orch, st, assessment := newRun(t, fakes)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = orch.Run(context.Background(), assessment)
	}()

	last := -1
	for {
		select {
		case <-done:
			final, err := st.GetAssessment(context.Background(), assessment.ID)
			if err != nil {
				t.Fatalf("GetAssessment: %v", err)
			}
			if final.Progress != 100 {
				t.Fatalf("final progress = %d, want 100", final.Progress)
			}
			return
		default:
		}

		current, err := st.GetAssessment(context.Background(), assessment.ID)
		if err != nil {
			t.Fatalf("GetAssessment: %v", err)
		}
		if current.Progress < last {
			t.Fatalf("progress went backwards: %d after %d", current.Progress, last)
		}
		last = current.Progress
		time.Sleep(time.Millisecond)
	}
}
