package report

import (
	"context"
	"log/slog"
	"time"

	"podium/internal/analysis"
	"podium/internal/logging"
	"podium/internal/scoring"
)

// textCompleter is the slice of the LLM client the generator needs.
type textCompleter interface {
	CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Configured() bool
}

// Generator turns a scorecard into a coaching report. When the LLM is
// unconfigured or fails, it falls back to a deterministic template so report
// generation never fails an assessment.
type Generator struct {
	completer textCompleter
	logger    *slog.Logger
}

// NewGenerator constructs a report generator. completer may be nil.
func NewGenerator(completer textCompleter, logger *slog.Logger) *Generator {
	return &Generator{
		completer: completer,
		logger:    logging.NewComponentLogger(logger, "report"),
	}
}

// Generate builds the final report for an assessment. The narrative comes
// from the LLM when available, otherwise from the deterministic template.
func (g *Generator) Generate(ctx context.Context, assessmentID string, card scoring.Scorecard, audio *analysis.AudioFeatures, narrative *analysis.NarrativeFeatures) AssessmentReport {
	text := g.narrativeText(ctx, card, audio, narrative)

	return AssessmentReport{
		AssessmentID:       assessmentID,
		OverallScore:       card.OverallScore,
		CommunicationScore: card.Bucket(scoring.BucketCommunication).Score,
		AppearanceScore:    card.Bucket(scoring.BucketAppearance).Score,
		StorytellingScore:  card.Bucket(scoring.BucketStorytelling).Score,
		Buckets:            card.Buckets,
		Narrative:          text,
		GeneratedAt:        time.Now().UTC(),
	}
}

func (g *Generator) narrativeText(ctx context.Context, card scoring.Scorecard, audio *analysis.AudioFeatures, narrative *analysis.NarrativeFeatures) string {
	if g.completer == nil || !g.completer.Configured() {
		return TemplateNarrative(card, narrative)
	}

	text, err := g.completer.CompleteText(ctx, coachSystemPrompt, BuildPrompt(card, audio, narrative))
	if err != nil {
		g.logger.Warn("llm narrative failed, using template", logging.Error(err))
		return TemplateNarrative(card, narrative)
	}
	return text
}
