package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"podium/internal/analysis"
	"podium/internal/logging"
	"podium/internal/notifications"
	"podium/internal/report"
	"podium/internal/scoring"
	"podium/internal/store"
)

// Progress checkpoints recorded as each stage finishes.
const (
	progressAudioDone     = 40
	progressVisualDone    = 70
	progressNarrativeDone = 85
	progressScoringDone   = 95
	progressReportDone    = 100
)

// Orchestrator runs one assessment through analysis, scoring, and report
// generation, persisting progress checkpoints along the way.
type Orchestrator struct {
	store     *store.Store
	audio     analysis.AudioAnalyzer
	visual    analysis.VisualAnalyzer
	narrative analysis.NarrativeAnalyzer
	reports   *report.Generator
	notifier  notifications.Service
	logger    *slog.Logger
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(
	st *store.Store,
	audio analysis.AudioAnalyzer,
	visual analysis.VisualAnalyzer,
	narrative analysis.NarrativeAnalyzer,
	reports *report.Generator,
	notifier notifications.Service,
	logger *slog.Logger,
) *Orchestrator {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Orchestrator{
		store:     st,
		audio:     audio,
		visual:    visual,
		narrative: narrative,
		reports:   reports,
		notifier:  notifier,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run processes a claimed assessment to completion or failure. The source
// video is deleted on every exit path.
func (o *Orchestrator) Run(ctx context.Context, assessment *store.Assessment) error {
	logger := o.logger.With(logging.String("assessment_id", assessment.ID))
	defer func() {
		if err := os.Remove(assessment.SourcePath); err != nil && !os.IsNotExist(err) {
			logger.Warn("source cleanup failed", logging.Error(err))
		}
	}()

	result, err := o.analyze(ctx, assessment, logger)
	if err != nil {
		return o.fail(ctx, assessment, logger, err)
	}

	card := scoring.Compute(result.audio, result.visual, result.narrative)
	if err := o.store.SetAssessmentProgress(ctx, assessment.ID, progressScoringDone); err != nil {
		return o.fail(ctx, assessment, logger, err)
	}

	// Report generation never fails the assessment; the generator degrades
	// to its deterministic template internally.
	doc := o.reports.Generate(ctx, assessment.ID, card, result.audio, result.narrative)
	encoded, err := json.Marshal(doc)
	if err != nil {
		return o.fail(ctx, assessment, logger, fmt.Errorf("encode report: %w", err))
	}

	if err := o.store.CompleteAssessment(ctx, assessment.ID, string(encoded)); err != nil {
		return o.fail(ctx, assessment, logger, err)
	}

	logger.Info("assessment completed", logging.Float64("overall_score", doc.OverallScore))
	if err := o.notifier.NotifyAssessmentCompleted(ctx, assessment.ID, doc.OverallScore); err != nil {
		logger.Warn("completion notification failed", logging.Error(err))
	}
	return nil
}

type analysisResult struct {
	audio     *analysis.AudioFeatures
	visual    *analysis.VisualFeatures
	narrative *analysis.NarrativeFeatures
}

func (o *Orchestrator) analyze(ctx context.Context, assessment *store.Assessment, logger *slog.Logger) (*analysisResult, error) {
	var result analysisResult

	// Audio and visual read the same file independently; run them
	// concurrently. Narrative needs the transcript, so it waits for both.
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		features, err := o.audio.AnalyzeAudio(groupCtx, assessment.SourcePath)
		if err != nil {
			return err
		}
		result.audio = features
		return o.store.SetAssessmentProgress(groupCtx, assessment.ID, progressAudioDone)
	})
	group.Go(func() error {
		features, err := o.visual.AnalyzeVisual(groupCtx, assessment.SourcePath)
		if err != nil {
			return err
		}
		result.visual = features
		return o.store.SetAssessmentProgress(groupCtx, assessment.ID, progressVisualDone)
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	logger.Debug("audio and visual analysis finished")

	features, err := o.narrative.AnalyzeNarrative(ctx, result.audio.Transcript, result.audio.Duration)
	if err != nil {
		return nil, err
	}
	result.narrative = features
	if err := o.store.SetAssessmentProgress(ctx, assessment.ID, progressNarrativeDone); err != nil {
		return nil, err
	}

	return &result, nil
}

func (o *Orchestrator) fail(ctx context.Context, assessment *store.Assessment, logger *slog.Logger, cause error) error {
	logger.Error("assessment failed", logging.Error(cause))
	if err := o.store.FailAssessment(ctx, assessment.ID, cause.Error()); err != nil {
		logger.Error("failed to persist failure", logging.Error(err))
	}
	if err := o.notifier.NotifyAssessmentFailed(ctx, assessment.ID, cause.Error()); err != nil {
		logger.Warn("failure notification failed", logging.Error(err))
	}
	return cause
}

type noopNotifier struct{}

func (noopNotifier) NotifyAssessmentCompleted(context.Context, string, float64) error { return nil }
func (noopNotifier) NotifyAssessmentFailed(context.Context, string, string) error     { return nil }
func (noopNotifier) TestNotification(context.Context) error                           { return nil }
