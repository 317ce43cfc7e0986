package analysis

import "context"

// AudioAnalyzer extracts vocal delivery features from a video file.
type AudioAnalyzer interface {
	AnalyzeAudio(ctx context.Context, videoPath string) (*AudioFeatures, error)
}

// VisualAnalyzer extracts body language features from a video file.
type VisualAnalyzer interface {
	AnalyzeVisual(ctx context.Context, videoPath string) (*VisualFeatures, error)
}

// NarrativeAnalyzer derives storytelling features from a transcript.
type NarrativeAnalyzer interface {
	AnalyzeNarrative(ctx context.Context, transcript string, duration float64) (*NarrativeFeatures, error)
}
