// Package pipeline turns uploaded videos into completed assessments. A
// bounded worker pool claims queued assessments from the store; each run
// fans audio and visual analysis out concurrently, feeds the transcript to
// the narrative analyzer, scores the results, and persists the report.
package pipeline
