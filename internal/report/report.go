package report

import (
	"time"

	"podium/internal/scoring"
)

// AssessmentReport is the final immutable document produced for a completed
// assessment.
type AssessmentReport struct {
	AssessmentID       string                `json:"assessment_id"`
	OverallScore       float64               `json:"overall_score"`
	CommunicationScore float64               `json:"communication_score"`
	AppearanceScore    float64               `json:"appearance_score"`
	StorytellingScore  float64               `json:"storytelling_score"`
	Buckets            []scoring.BucketScore `json:"buckets"`
	Narrative          string                `json:"narrative"`
	GeneratedAt        time.Time             `json:"generated_at"`
}
