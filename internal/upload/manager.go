package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"podium/internal/config"
	"podium/internal/logging"
	"podium/internal/store"
)

// Manager drives the chunked upload session lifecycle: init, chunk receipt,
// assembly on completion, and cancellation.
//
// Distinct chunks of one session may arrive concurrently; PutChunk takes a
// shared lock per session so Complete and Cancel (which take the exclusive
// lock) serialize against all in-flight chunk writes.
type Manager struct {
	cfg    *config.Config
	store  *store.Store
	chunks *ChunkStore
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// NewManager constructs an upload manager.
func NewManager(cfg *config.Config, st *store.Store, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		store:  st,
		chunks: NewChunkStore(cfg.Paths.ChunkDir),
		logger: logging.NewComponentLogger(logger, "upload-manager"),
		locks:  make(map[string]*sync.RWMutex),
	}
}

func (m *Manager) sessionLock(id string) *sync.RWMutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[id]
	if !ok {
		lock = new(sync.RWMutex)
		m.locks[id] = lock
	}
	return lock
}

func (m *Manager) dropLock(id string) {
	m.mu.Lock()
	delete(m.locks, id)
	m.mu.Unlock()
}

// InitSession validates the declared upload and creates an active session.
// The client declares its own chunk count; chunks may be any size, and the
// configured chunk size is only the recommendation echoed back at init.
func (m *Manager) InitSession(ctx context.Context, filename string, fileSize int64, totalChunks int) (*store.UploadSession, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !m.extensionAllowed(ext) {
		return nil, fmt.Errorf("%w: %q (allowed: %s)", ErrInvalidFileType, ext,
			strings.Join(m.cfg.Upload.AllowedExtensions, ", "))
	}
	if fileSize <= 0 {
		return nil, ErrEmptyFile
	}
	if fileSize > m.cfg.Upload.MaxFileBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge,
			fileSize, m.cfg.Upload.MaxFileBytes)
	}
	if totalChunks <= 0 || int64(totalChunks) > fileSize {
		return nil, fmt.Errorf("%w: %d chunks for %d bytes", ErrInvalidChunkCount,
			totalChunks, fileSize)
	}
	if err := checkFreeSpace(m.cfg.Paths.ChunkDir, fileSize, m.cfg.Upload.MinFreeBytesMargin); err != nil {
		return nil, err
	}

	session := &store.UploadSession{
		ID:            uuid.NewString(),
		Filename:      filepath.Base(filename),
		FileExt:       ext,
		FileSizeBytes: fileSize,
		ChunkSize:     m.cfg.Upload.ChunkSizeBytes,
		TotalChunks:   totalChunks,
	}
	if err := m.chunks.EnsureDir(session.ID); err != nil {
		return nil, err
	}
	if err := m.store.CreateSession(ctx, session); err != nil {
		_ = m.chunks.Remove(session.ID)
		return nil, err
	}

	m.logger.Info("session created",
		logging.String("session_id", session.ID),
		logging.String("filename", session.Filename),
		logging.Int64("file_size", fileSize),
		logging.Int("total_chunks", totalChunks),
	)
	return session, nil
}

// PutChunk stores one chunk body. Re-uploading an index replaces the previous
// copy. Returns the distinct received count and the session total.
func (m *Manager) PutChunk(ctx context.Context, sessionID string, index int, body io.Reader) (received, total int, err error) {
	lock := m.sessionLock(sessionID)
	lock.RLock()
	defer lock.RUnlock()

	session, err := m.activeSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			m.dropLock(sessionID)
		}
		return 0, 0, err
	}
	if index < 0 || index >= session.TotalChunks {
		return 0, 0, &InvalidChunkIndexError{Index: index, TotalChunks: session.TotalChunks}
	}

	written, err := m.chunks.Write(sessionID, index, body)
	if err != nil {
		return 0, 0, err
	}
	if err := m.store.MarkChunkReceived(ctx, sessionID, index, written); err != nil {
		return 0, 0, err
	}
	if err := m.store.TouchSession(ctx, sessionID); err != nil {
		return 0, 0, err
	}

	count, err := m.store.ReceivedCount(ctx, sessionID)
	if err != nil {
		return 0, 0, err
	}

	m.logger.Debug("chunk received",
		logging.String("session_id", sessionID),
		logging.Int("chunk_index", index),
		logging.Int64("bytes", written),
		logging.Int("received", count),
		logging.Int("total", session.TotalChunks),
	)
	return count, session.TotalChunks, nil
}

// Complete verifies every chunk arrived, assembles the video, marks the
// session completed, and enqueues an assessment. Chunk files are removed once
// assembly succeeds.
func (m *Manager) Complete(ctx context.Context, sessionID string) (*store.Assessment, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.activeSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			m.dropLock(sessionID)
		}
		return nil, err
	}

	indices, err := m.store.ReceivedIndices(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if missing := missingIndices(indices, session.TotalChunks); len(missing) > 0 {
		return nil, &IncompleteUploadError{Missing: missing, Total: session.TotalChunks}
	}

	dest := filepath.Join(m.cfg.Paths.UploadDir, session.ID+session.FileExt)
	if err := m.chunks.Assemble(sessionID, session.TotalChunks, dest); err != nil {
		return nil, fmt.Errorf("assemble upload: %w", err)
	}

	// The terminal transition and the assessment insert commit together, so
	// a failure here leaves the session active and removes the assembled file
	// rather than stranding a completed session with no assessment.
	assessment := &store.Assessment{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		SourcePath: dest,
	}
	ok, err := m.store.CompleteSessionWithAssessment(ctx, sessionID, assessment)
	if err != nil {
		_ = os.Remove(dest)
		return nil, err
	}
	if !ok {
		_ = os.Remove(dest)
		return nil, ErrSessionNotActive
	}

	m.cleanupChunks(ctx, sessionID)
	m.dropLock(sessionID)

	m.logger.Info("upload completed",
		logging.String("session_id", sessionID),
		logging.String("assessment_id", assessment.ID),
		logging.String("path", dest),
	)
	return assessment, nil
}

// Cancel aborts an active session and discards its chunks. Cancelling an
// already cancelled or expired session is a no-op; a completed session cannot
// be cancelled.
func (m *Manager) Cancel(ctx context.Context, sessionID string) error {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.store.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		m.dropLock(sessionID)
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return err
	}

	switch session.Status {
	case store.SessionCancelled, store.SessionExpired:
		return nil
	case store.SessionCompleted:
		return ErrSessionNotActive
	}

	if _, err := m.store.TransitionSession(ctx, sessionID, store.SessionCancelled); err != nil {
		return err
	}
	m.cleanupChunks(ctx, sessionID)
	m.dropLock(sessionID)

	m.logger.Info("session cancelled", logging.String("session_id", sessionID))
	return nil
}

// ExpireStale moves active sessions idle past the TTL to expired and discards
// their chunks. Returns how many sessions were expired.
func (m *Manager) ExpireStale(ctx context.Context) (int, error) {
	ttl := time.Duration(m.cfg.Upload.SessionTTLMinutes) * time.Minute
	cutoff := time.Now().Add(-ttl)

	stale, err := m.store.SessionsByStatusUpdatedBefore(ctx, store.SessionActive, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, session := range stale {
		lock := m.sessionLock(session.ID)
		lock.Lock()
		ok, err := m.store.TransitionSession(ctx, session.ID, store.SessionExpired)
		if err != nil {
			lock.Unlock()
			return expired, err
		}
		if ok {
			m.cleanupChunks(ctx, session.ID)
			expired++
			m.logger.Info("session expired",
				logging.String("session_id", session.ID),
				logging.Duration("idle", time.Since(session.UpdatedAt)),
			)
		}
		lock.Unlock()
		m.dropLock(session.ID)
	}
	return expired, nil
}

// PruneTerminal deletes terminal sessions (and any leftover chunk state)
// past the retention window. Returns how many sessions were removed.
func (m *Manager) PruneTerminal(ctx context.Context) (int, error) {
	retention := time.Duration(m.cfg.Upload.RetentionMinutes) * time.Minute
	cutoff := time.Now().Add(-retention)

	pruned := 0
	for _, status := range []store.SessionStatus{store.SessionCompleted, store.SessionCancelled, store.SessionExpired} {
		sessions, err := m.store.SessionsByStatusUpdatedBefore(ctx, status, cutoff)
		if err != nil {
			return pruned, err
		}
		for _, session := range sessions {
			if err := m.chunks.Remove(session.ID); err != nil {
				m.logger.Warn("prune chunk cleanup failed",
					logging.String("session_id", session.ID), logging.Error(err))
			}
			if err := m.store.DeleteSession(ctx, session.ID); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}

func (m *Manager) activeSession(ctx context.Context, sessionID string) (*store.UploadSession, error) {
	session, err := m.store.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, err
	}
	if session.Status != store.SessionActive {
		return nil, fmt.Errorf("%w: status is %s", ErrSessionNotActive, session.Status)
	}
	return session, nil
}

func (m *Manager) cleanupChunks(ctx context.Context, sessionID string) {
	if err := m.chunks.Remove(sessionID); err != nil {
		m.logger.Warn("chunk cleanup failed",
			logging.String("session_id", sessionID), logging.Error(err))
	}
	if err := m.store.DeleteChunks(ctx, sessionID); err != nil {
		m.logger.Warn("chunk row cleanup failed",
			logging.String("session_id", sessionID), logging.Error(err))
	}
}

func (m *Manager) extensionAllowed(ext string) bool {
	for _, allowed := range m.cfg.Upload.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func missingIndices(received []int, total int) []int {
	present := make(map[int]struct{}, len(received))
	for _, idx := range received {
		present[idx] = struct{}{}
	}
	var missing []int
	for i := 0; i < total; i++ {
		if _, ok := present[i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}
