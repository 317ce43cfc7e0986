package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"podium/internal/fileutil"
)

// ChunkStore manages per-session chunk files on disk.
type ChunkStore struct {
	root string
}

// NewChunkStore creates a chunk store rooted at dir.
func NewChunkStore(dir string) *ChunkStore {
	return &ChunkStore{root: dir}
}

// Dir returns the directory holding a session's chunk files.
func (cs *ChunkStore) Dir(sessionID string) string {
	return filepath.Join(cs.root, sessionID)
}

func (cs *ChunkStore) chunkPath(sessionID string, index int) string {
	return filepath.Join(cs.Dir(sessionID), fmt.Sprintf("chunk_%04d", index))
}

// EnsureDir creates the session's chunk directory.
func (cs *ChunkStore) EnsureDir(sessionID string) error {
	if err := os.MkdirAll(cs.Dir(sessionID), 0o755); err != nil {
		return fmt.Errorf("create chunk directory: %w", err)
	}
	return nil
}

// Write streams a chunk body to disk, replacing any previous copy of the same
// index. Returns the number of bytes written.
func (cs *ChunkStore) Write(sessionID string, index int, body io.Reader) (int64, error) {
	var written int64
	err := fileutil.AtomicWrite(cs.chunkPath(sessionID, index), func(w io.Writer) error {
		n, copyErr := io.Copy(w, body)
		written = n
		return copyErr
	})
	if err != nil {
		return 0, fmt.Errorf("write chunk %d: %w", index, err)
	}
	return written, nil
}

// Assemble concatenates chunks 0..totalChunks-1 into dest atomically.
func (cs *ChunkStore) Assemble(sessionID string, totalChunks int, dest string) error {
	return fileutil.AtomicWrite(dest, func(w io.Writer) error {
		for index := 0; index < totalChunks; index++ {
			if err := cs.copyChunk(sessionID, index, w); err != nil {
				return err
			}
		}
		return nil
	})
}

func (cs *ChunkStore) copyChunk(sessionID string, index int, w io.Writer) error {
	f, err := os.Open(cs.chunkPath(sessionID, index))
	if err != nil {
		return fmt.Errorf("open chunk %d: %w", index, err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copy chunk %d: %w", index, err)
	}
	return nil
}

// Remove deletes a session's chunk directory and everything in it.
func (cs *ChunkStore) Remove(sessionID string) error {
	if err := os.RemoveAll(cs.Dir(sessionID)); err != nil {
		return fmt.Errorf("remove chunk directory: %w", err)
	}
	return nil
}
