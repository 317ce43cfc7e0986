package testsupport

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"podium/internal/config"
	"podium/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewSession creates an active upload session for tests.
func NewSession(t testing.TB, st *store.Store, totalChunks int) *store.UploadSession {
	t.Helper()

	session := &store.UploadSession{
		ID:            uuid.NewString(),
		Filename:      "talk.mp4",
		FileExt:       ".mp4",
		FileSizeBytes: int64(totalChunks) * 1024,
		ChunkSize:     1024,
		TotalChunks:   totalChunks,
	}
	if err := st.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("store.CreateSession: %v", err)
	}
	return session
}

// NewAssessment enqueues an assessment for tests.
func NewAssessment(t testing.TB, st *store.Store, sessionID, sourcePath string) *store.Assessment {
	t.Helper()

	assessment := &store.Assessment{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		SourcePath: sourcePath,
	}
	if err := st.CreateAssessment(context.Background(), assessment); err != nil {
		t.Fatalf("store.CreateAssessment: %v", err)
	}
	return assessment
}
