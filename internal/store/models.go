package store

import "time"

// SessionStatus tracks an upload session through its lifecycle.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
	SessionExpired   SessionStatus = "expired"
)

// TerminalSession reports whether a session can no longer accept chunks.
func TerminalSession(status SessionStatus) bool {
	switch status {
	case SessionCompleted, SessionCancelled, SessionExpired:
		return true
	default:
		return false
	}
}

// AssessmentStatus tracks an assessment through the analysis pipeline.
type AssessmentStatus string

const (
	AssessmentQueued     AssessmentStatus = "queued"
	AssessmentProcessing AssessmentStatus = "processing"
	AssessmentCompleted  AssessmentStatus = "completed"
	AssessmentFailed     AssessmentStatus = "failed"
)

// UploadSession is one chunked upload in flight or finished.
type UploadSession struct {
	ID            string
	Filename      string
	FileExt       string
	FileSizeBytes int64
	ChunkSize     int64
	TotalChunks   int
	Status        SessionStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Assessment is one queued or finished analysis of an uploaded video.
type Assessment struct {
	ID           string
	SessionID    string
	SourcePath   string
	Status       AssessmentStatus
	Progress     int
	ResultJSON   string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
