package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const assessmentColumns = "id, session_id, source_path, status, progress, result_json, error_message, created_at, updated_at"

// CreateAssessment enqueues a new assessment for processing.
func (s *Store) CreateAssessment(ctx context.Context, assessment *Assessment) error {
	if assessment == nil {
		return errors.New("nil assessment")
	}
	now := time.Now()
	if assessment.CreatedAt.IsZero() {
		assessment.CreatedAt = now
	}
	assessment.UpdatedAt = now
	if assessment.Status == "" {
		assessment.Status = AssessmentQueued
	}

	_, err := s.execWithRetry(ctx, `
		INSERT INTO assessments (id, session_id, source_path, status, progress, result_json, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		assessment.ID, assessment.SessionID, assessment.SourcePath,
		string(assessment.Status), assessment.Progress, assessment.ResultJSON,
		assessment.ErrorMessage, timestamp(assessment.CreatedAt), timestamp(assessment.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

// GetAssessment loads an assessment by id. Returns ErrNotFound when missing.
func (s *Store) GetAssessment(ctx context.Context, id string) (*Assessment, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+assessmentColumns+" FROM assessments WHERE id = ?", id)
	assessment, err := scanAssessment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assessment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	return assessment, nil
}

// GetAssessmentBySession loads the assessment created for an upload session.
func (s *Store) GetAssessmentBySession(ctx context.Context, sessionID string) (*Assessment, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+assessmentColumns+" FROM assessments WHERE session_id = ? ORDER BY created_at DESC LIMIT 1", sessionID)
	assessment, err := scanAssessment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assessment for session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get assessment by session: %w", err)
	}
	return assessment, nil
}

// ClaimNextQueued atomically claims the oldest queued assessment for a
// worker, moving it to processing. Returns nil when the queue is empty.
func (s *Store) ClaimNextQueued(ctx context.Context) (*Assessment, error) {
	ctx = ensureContext(ctx)
	for {
		row := s.db.QueryRowContext(ctx,
			"SELECT id FROM assessments WHERE status = ? ORDER BY created_at LIMIT 1",
			string(AssessmentQueued))
		var id string
		err := row.Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("peek queued assessment: %w", err)
		}

		res, err := s.execWithRetry(ctx, `
			UPDATE assessments SET status = ?, updated_at = ?
			WHERE id = ? AND status = ?`,
			string(AssessmentProcessing), timestamp(time.Now()), id, string(AssessmentQueued),
		)
		if err != nil {
			return nil, fmt.Errorf("claim assessment: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("claim assessment rows: %w", err)
		}
		if affected == 0 {
			// Another worker claimed it between peek and update; retry.
			continue
		}
		return s.GetAssessment(ctx, id)
	}
}

// SetAssessmentProgress raises an assessment's progress checkpoint. Progress
// never moves backwards.
func (s *Store) SetAssessmentProgress(ctx context.Context, id string, progress int) error {
	_, err := s.execWithRetry(ctx, `
		UPDATE assessments SET progress = MAX(progress, ?), updated_at = ?
		WHERE id = ?`,
		progress, timestamp(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("set progress: %w", err)
	}
	return nil
}

// CompleteAssessment stores the final result document and marks the
// assessment completed at full progress.
func (s *Store) CompleteAssessment(ctx context.Context, id string, resultJSON string) error {
	_, err := s.execWithRetry(ctx, `
		UPDATE assessments SET status = ?, progress = 100, result_json = ?, error_message = '', updated_at = ?
		WHERE id = ?`,
		string(AssessmentCompleted), resultJSON, timestamp(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("complete assessment: %w", err)
	}
	return nil
}

// FailAssessment marks an assessment failed with a diagnostic message.
func (s *Store) FailAssessment(ctx context.Context, id string, message string) error {
	_, err := s.execWithRetry(ctx, `
		UPDATE assessments SET status = ?, error_message = ?, updated_at = ?
		WHERE id = ?`,
		string(AssessmentFailed), message, timestamp(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("fail assessment: %w", err)
	}
	return nil
}

// ResetStuckAssessments requeues assessments left in processing by a previous
// run. Called once at daemon startup before workers start.
func (s *Store) ResetStuckAssessments(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `
		UPDATE assessments SET status = ?, updated_at = ?
		WHERE status = ?`,
		string(AssessmentQueued), timestamp(time.Now()), string(AssessmentProcessing),
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck assessments: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset stuck rows: %w", err)
	}
	return affected, nil
}

// Stats summarizes assessment counts by status.
func (s *Store) Stats(ctx context.Context) (map[AssessmentStatus]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(1) FROM assessments GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("assessment stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stats := make(map[AssessmentStatus]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[AssessmentStatus(status)] = count
	}
	return stats, rows.Err()
}

func scanAssessment(row rowScanner) (*Assessment, error) {
	var (
		assessment       Assessment
		status           string
		created, updated string
	)
	err := row.Scan(&assessment.ID, &assessment.SessionID, &assessment.SourcePath,
		&status, &assessment.Progress, &assessment.ResultJSON,
		&assessment.ErrorMessage, &created, &updated)
	if err != nil {
		return nil, err
	}
	assessment.Status = AssessmentStatus(status)
	assessment.CreatedAt = parseTimestamp(created)
	assessment.UpdatedAt = parseTimestamp(updated)
	return &assessment, nil
}
