package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sessionColumns = "id, filename, file_ext, file_size_bytes, chunk_size, total_chunks, status, created_at, updated_at"

// CreateSession persists a new active upload session.
func (s *Store) CreateSession(ctx context.Context, session *UploadSession) error {
	if session == nil {
		return errors.New("nil session")
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if session.Status == "" {
		session.Status = SessionActive
	}

	_, err := s.execWithRetry(ctx, `
		INSERT INTO upload_sessions (id, filename, file_ext, file_size_bytes, chunk_size, total_chunks, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.Filename, session.FileExt, session.FileSizeBytes,
		session.ChunkSize, session.TotalChunks, string(session.Status),
		timestamp(session.CreatedAt), timestamp(session.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession loads a session by id. Returns ErrNotFound when missing.
func (s *Store) GetSession(ctx context.Context, id string) (*UploadSession, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM upload_sessions WHERE id = ?", id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// TransitionSession moves an active session to a terminal status. It returns
// false without error when the session exists but is no longer active.
func (s *Store) TransitionSession(ctx context.Context, id string, to SessionStatus) (bool, error) {
	res, err := s.execWithRetry(ctx, `
		UPDATE upload_sessions SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(to), timestamp(time.Now()), id, string(SessionActive),
	)
	if err != nil {
		return false, fmt.Errorf("transition session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition session rows: %w", err)
	}
	return affected > 0, nil
}

// CompleteSessionWithAssessment marks an active session completed and
// enqueues its assessment in a single transaction. It returns false without
// error when the session is no longer active; in that case no assessment row
// is written, so a failed insert can never strand a completed session without
// a queued assessment.
func (s *Store) CompleteSessionWithAssessment(ctx context.Context, sessionID string, assessment *Assessment) (bool, error) {
	if assessment == nil {
		return false, errors.New("nil assessment")
	}
	ctx = ensureContext(ctx)

	now := time.Now()
	if assessment.CreatedAt.IsZero() {
		assessment.CreatedAt = now
	}
	assessment.UpdatedAt = now
	if assessment.Status == "" {
		assessment.Status = AssessmentQueued
	}

	var completed bool
	err := retryOnBusy(ctx, func() error {
		completed = false
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin complete tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx, `
			UPDATE upload_sessions SET status = ?, updated_at = ?
			WHERE id = ? AND status = ?`,
			string(SessionCompleted), timestamp(now), sessionID, string(SessionActive),
		)
		if err != nil {
			return fmt.Errorf("complete session: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("complete session rows: %w", err)
		}
		if affected == 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO assessments (id, session_id, source_path, status, progress, result_json, error_message, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			assessment.ID, assessment.SessionID, assessment.SourcePath,
			string(assessment.Status), assessment.Progress, assessment.ResultJSON,
			assessment.ErrorMessage, timestamp(assessment.CreatedAt), timestamp(assessment.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert assessment: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit complete: %w", err)
		}
		completed = true
		return nil
	})
	return completed, err
}

// TouchSession bumps a session's updated_at so active uploads aren't swept.
func (s *Store) TouchSession(ctx context.Context, id string) error {
	_, err := s.execWithRetry(ctx,
		"UPDATE upload_sessions SET updated_at = ? WHERE id = ?",
		timestamp(time.Now()), id)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// MarkChunkReceived records a chunk arrival. Re-recording the same index
// replaces the previous row, so retried uploads stay idempotent.
func (s *Store) MarkChunkReceived(ctx context.Context, sessionID string, index int, sizeBytes int64) error {
	_, err := s.execWithRetry(ctx, `
		INSERT OR REPLACE INTO upload_chunks (session_id, chunk_index, size_bytes, received_at)
		VALUES (?, ?, ?, ?)`,
		sessionID, index, sizeBytes, timestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("record chunk: %w", err)
	}
	return nil
}

// ReceivedIndices returns the sorted chunk indices recorded for a session.
func (s *Store) ReceivedIndices(ctx context.Context, sessionID string) ([]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT chunk_index FROM upload_chunks WHERE session_id = ? ORDER BY chunk_index", sessionID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var indices []int
	for rows.Next() {
		var idx int
		if err := rows.Scan(&idx); err != nil {
			return nil, fmt.Errorf("scan chunk index: %w", err)
		}
		indices = append(indices, idx)
	}
	return indices, rows.Err()
}

// ReceivedCount returns the number of distinct chunks recorded for a session.
func (s *Store) ReceivedCount(ctx context.Context, sessionID string) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM upload_chunks WHERE session_id = ?", sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

// DeleteChunks removes all chunk rows for a session.
func (s *Store) DeleteChunks(ctx context.Context, sessionID string) error {
	_, err := s.execWithRetry(ctx,
		"DELETE FROM upload_chunks WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

// SessionsByStatusUpdatedBefore lists sessions in the given status whose
// updated_at is older than the cutoff. The sweeper uses it to expire stale
// uploads and prune finished ones.
func (s *Store) SessionsByStatusUpdatedBefore(ctx context.Context, status SessionStatus, cutoff time.Time) ([]*UploadSession, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM upload_sessions WHERE status = ? AND updated_at < ? ORDER BY updated_at",
		string(status), timestamp(cutoff))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*UploadSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// DeleteSession removes a session row and its chunk rows.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.execWithRetry(ctx, "DELETE FROM upload_sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*UploadSession, error) {
	var (
		session          UploadSession
		status           string
		created, updated string
	)
	err := row.Scan(&session.ID, &session.Filename, &session.FileExt,
		&session.FileSizeBytes, &session.ChunkSize, &session.TotalChunks,
		&status, &created, &updated)
	if err != nil {
		return nil, err
	}
	session.Status = SessionStatus(status)
	session.CreatedAt = parseTimestamp(created)
	session.UpdatedAt = parseTimestamp(updated)
	return &session, nil
}
