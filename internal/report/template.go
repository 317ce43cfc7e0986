package report

import (
	"fmt"
	"sort"
	"strings"

	"podium/internal/analysis"
	"podium/internal/scoring"
)

// TemplateNarrative produces a deterministic coaching narrative from the
// scorecard alone. Used when no LLM is configured or the call fails.
func TemplateNarrative(card scoring.Scorecard, narrative *analysis.NarrativeFeatures) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Your presentation scored %.1f out of 100 overall. ", card.OverallScore)
	fmt.Fprintf(&b, "Communication: %.1f, Appearance & Nonverbal: %.1f, Storytelling: %.1f.\n\n",
		card.Bucket(scoring.BucketCommunication).Score,
		card.Bucket(scoring.BucketAppearance).Score,
		card.Bucket(scoring.BucketStorytelling).Score,
	)

	if strongest, weakest, ok := extremes(card); ok {
		fmt.Fprintf(&b, "Your strongest area was %s (%.1f). ", strongest.Name, strongest.Score)
		fmt.Fprintf(&b, "The biggest opportunity for improvement is %s (%.1f); focused practice there will raise your overall score fastest.\n", weakest.Name, weakest.Score)
	}

	if narrative != nil && !narrative.HasStory {
		b.WriteString("\nNo personal story was detected in this talk. Adding a short, concrete anecdote is the single most effective way to lift your Storytelling score.\n")
	}

	return b.String()
}

// extremes returns the highest and lowest scored parameters across all
// buckets. Ties resolve to the first parameter in bucket order, keeping the
// output deterministic.
func extremes(card scoring.Scorecard) (strongest, weakest scoring.ParameterScore, ok bool) {
	var all []scoring.ParameterScore
	for _, bucket := range card.Buckets {
		all = append(all, bucket.Parameters...)
	}
	if len(all) == 0 {
		return strongest, weakest, false
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	return all[0], all[len(all)-1], true
}
