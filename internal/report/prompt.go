package report

import (
	"fmt"
	"strings"

	"podium/internal/analysis"
	"podium/internal/scoring"
)

const coachSystemPrompt = `You are an experienced presentation coach. You will receive the measured scores for one recorded presentation. Write a concise, encouraging coaching report in plain prose: a short overall impression, the speaker's two clearest strengths, and the two highest-impact improvements with concrete practice advice. Do not invent measurements that are not provided.`

// BuildPrompt renders the scorecard into the user prompt for the coach model.
func BuildPrompt(card scoring.Scorecard, audio *analysis.AudioFeatures, narrative *analysis.NarrativeFeatures) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Overall score: %.1f/100\n\n", card.OverallScore)
	for _, bucket := range card.Buckets {
		fmt.Fprintf(&b, "%s: %.1f\n", bucket.Name, bucket.Score)
		for _, param := range bucket.Parameters {
			if param.Unit != "" && param.RawValue != 0 {
				fmt.Fprintf(&b, "  - %s: %.1f (%.1f %s)\n", param.Name, param.Score, param.RawValue, param.Unit)
			} else {
				fmt.Fprintf(&b, "  - %s: %.1f\n", param.Name, param.Score)
			}
		}
		b.WriteString("\n")
	}

	if narrative != nil && !narrative.HasStory {
		b.WriteString("Note: no personal story was detected in the talk; the Storytelling score is 0 for that reason.\n")
	}
	if audio != nil && strings.TrimSpace(audio.Transcript) != "" {
		transcript := audio.Transcript
		const limit = 2000
		if len(transcript) > limit {
			transcript = transcript[:limit] + "..."
		}
		fmt.Fprintf(&b, "\nTranscript excerpt:\n%s\n", transcript)
	}

	return b.String()
}
