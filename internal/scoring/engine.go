package scoring

import (
	"math"

	"podium/internal/analysis"
)

// Bucket names are fixed; clients key off them.
const (
	BucketCommunication = "Communication"
	BucketAppearance    = "Appearance & Nonverbal"
	BucketStorytelling  = "Storytelling"
)

// Overall score weights. An empty Storytelling bucket contributes 0 and the
// remaining weights are never renormalized.
const (
	weightCommunication = 0.40
	weightAppearance    = 0.35
	weightStorytelling  = 0.25
)

// ParameterScore is one named measurement with its 0-100 score.
type ParameterScore struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	RawValue    float64 `json:"raw_value,omitempty"`
	Unit        string  `json:"unit,omitempty"`
	Description string  `json:"description,omitempty"`
}

// BucketScore groups related parameters under a single averaged score.
type BucketScore struct {
	Name       string           `json:"name"`
	Score      float64          `json:"score"`
	Parameters []ParameterScore `json:"parameters"`
}

// Scorecard is the full scoring output for one assessment.
type Scorecard struct {
	OverallScore float64       `json:"overall_score"`
	Buckets      []BucketScore `json:"buckets"`
}

// Bucket returns the named bucket, or a zero value when absent.
func (s Scorecard) Bucket(name string) BucketScore {
	for _, bucket := range s.Buckets {
		if bucket.Name == name {
			return bucket
		}
	}
	return BucketScore{Name: name}
}

// Compute aggregates the three feature bags into bucket and overall scores.
// Pure and deterministic. Bucket score is the arithmetic mean of its
// parameters (exactly 0 for an empty bucket); the overall score is the
// weighted sum of unrounded bucket means, rounded to one decimal only at
// the edge.
func Compute(audio *analysis.AudioFeatures, visual *analysis.VisualFeatures, narrative *analysis.NarrativeFeatures) Scorecard {
	communication := communicationParameters(audio)
	appearance := appearanceParameters(visual)
	storytelling := storytellingParameters(narrative)

	// Means use the raw feature scores; the rounded ParameterScore values
	// are display copies and never feed aggregation.
	var commMean, appearMean, storyMean float64
	if audio != nil {
		commMean = mean(audio.ParameterScores())
	}
	if visual != nil {
		appearMean = mean(visual.ParameterScores())
	}
	if narrative != nil {
		storyMean = mean(narrative.ParameterScores())
	}

	overall := weightCommunication*commMean +
		weightAppearance*appearMean +
		weightStorytelling*storyMean

	return Scorecard{
		OverallScore: round1(overall),
		Buckets: []BucketScore{
			{Name: BucketCommunication, Score: round1(commMean), Parameters: communication},
			{Name: BucketAppearance, Score: round1(appearMean), Parameters: appearance},
			{Name: BucketStorytelling, Score: round1(storyMean), Parameters: storytelling},
		},
	}
}

func communicationParameters(f *analysis.AudioFeatures) []ParameterScore {
	if f == nil {
		return nil
	}
	return []ParameterScore{
		{Name: "Speaking Rate", Score: round1(f.SpeakingRate.Score), RawValue: f.SpeakingRate.WPM, Unit: "WPM", Description: f.SpeakingRate.Description},
		{Name: "Vocal Pitch", Score: round1(f.Pitch.PitchScore), RawValue: f.Pitch.MeanPitchHz, Unit: "Hz"},
		{Name: "Vocal Variety", Score: round1(f.Pitch.VarietyScore), RawValue: f.Pitch.PitchStd, Unit: "Hz std"},
		{Name: "Volume Control", Score: round1(f.Volume.Score), RawValue: f.Volume.MeanDB, Unit: "dB"},
		{Name: "Pauses", Score: round1(f.Pauses.Score), RawValue: f.Pauses.PerMinute, Unit: "per min"},
		{Name: "Filler Words", Score: round1(f.Fillers.Score), RawValue: f.Fillers.Per100Words, Unit: "per 100 words"},
		{Name: "Verbal Clarity", Score: round1(f.Clarity.Score), RawValue: f.Clarity.WordsPerSentence, Unit: "words per sentence"},
		{Name: "Confidence Language", Score: round1(f.Confidence.Score), RawValue: f.Confidence.Ratio, Unit: "ratio"},
	}
}

func appearanceParameters(f *analysis.VisualFeatures) []ParameterScore {
	if f == nil {
		return nil
	}
	return []ParameterScore{
		{Name: "Posture", Score: round1(f.Posture.Score), RawValue: f.Posture.UprightRatio, Unit: "ratio"},
		{Name: "Body Expansiveness", Score: round1(f.Expansiveness.Score)},
		{Name: "Eye Contact", Score: round1(f.EyeContact.Score)},
		{Name: "Facial Expressions", Score: round1(f.Expressions.Score)},
		{Name: "Gestures", Score: round1(f.Gestures.Score)},
		{Name: "First Impression", Score: round1(f.FirstImpression.Score)},
	}
}

func storytellingParameters(f *analysis.NarrativeFeatures) []ParameterScore {
	if f == nil || !f.HasStory {
		return nil
	}
	return []ParameterScore{
		{Name: "Narrative Structure", Score: round1(f.NarrativeStructure.Score)},
		{Name: "Cognitive Ease", Score: round1(f.CognitiveEase.Score), RawValue: f.CognitiveEase.FleschScore, Unit: "Flesch"},
		{Name: "Self-Disclosure", Score: round1(f.SelfDisclosure.Score)},
		{Name: "Memorability", Score: round1(f.Memorability.Score)},
		{Name: "Story Pacing", Score: round1(f.StoryMetrics.Score)},
		{Name: "Story Placement", Score: round1(f.StoryPlacement.Score)},
	}
}

func mean(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
