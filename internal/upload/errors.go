package upload

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSessionNotFound indicates the referenced upload session doesn't exist.
	ErrSessionNotFound = errors.New("upload session not found")
	// ErrSessionNotActive indicates the session has already completed,
	// cancelled, or expired.
	ErrSessionNotActive = errors.New("upload session is not active")
	// ErrInvalidFileType indicates the filename extension isn't accepted.
	ErrInvalidFileType = errors.New("invalid file type")
	// ErrFileTooLarge indicates the declared size exceeds the configured ceiling.
	ErrFileTooLarge = errors.New("file too large")
	// ErrEmptyFile indicates a declared size of zero or less.
	ErrEmptyFile = errors.New("file size must be positive")
	// ErrInvalidChunkCount indicates a declared chunk count that is not
	// positive or exceeds one chunk per byte of the declared size.
	ErrInvalidChunkCount = errors.New("invalid chunk count")
	// ErrInsufficientSpace indicates the chunk directory lacks room for the upload.
	ErrInsufficientSpace = errors.New("insufficient disk space")
)

// InvalidChunkIndexError reports a chunk index outside the session's range.
type InvalidChunkIndexError struct {
	Index       int
	TotalChunks int
}

func (e *InvalidChunkIndexError) Error() string {
	return fmt.Sprintf("chunk index %d out of range [0, %d)", e.Index, e.TotalChunks)
}

// IncompleteUploadError reports completion attempted before every chunk arrived.
type IncompleteUploadError struct {
	Missing []int
	Total   int
}

func (e *IncompleteUploadError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, idx := range e.Missing {
		parts = append(parts, fmt.Sprintf("%d", idx))
	}
	return fmt.Sprintf("upload incomplete: missing %d of %d chunks (indices: %s)",
		len(e.Missing), e.Total, strings.Join(parts, ", "))
}
