package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"podium/internal/logging"
	"podium/internal/testsupport"
)

func lockCount(m *Manager) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

func TestUnknownSessionsDoNotAccumulateLocks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	m := NewManager(cfg, st, logging.NewNop())

	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("ghost-%d", i)
		if _, _, err := m.PutChunk(context.Background(), id, 0, strings.NewReader("x")); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("PutChunk(%s) err = %v, want ErrSessionNotFound", id, err)
		}
		if _, err := m.Complete(context.Background(), id); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("Complete(%s) err = %v, want ErrSessionNotFound", id, err)
		}
		if err := m.Cancel(context.Background(), id); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("Cancel(%s) err = %v, want ErrSessionNotFound", id, err)
		}
	}

	if n := lockCount(m); n != 0 {
		t.Fatalf("lock registry holds %d entries after unknown-session calls, want 0", n)
	}
}

func TestTerminalSessionDropsLockEntry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	m := NewManager(cfg, st, logging.NewNop())

	session, err := m.InitSession(context.Background(), "talk.mp4", 4, 1)
	if err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	if _, _, err := m.PutChunk(context.Background(), session.ID, 0, strings.NewReader("data")); err != nil {
		t.Fatalf("PutChunk: %v", err)
	}
	if err := m.Cancel(context.Background(), session.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if n := lockCount(m); n != 0 {
		t.Fatalf("lock registry holds %d entries after cancel, want 0", n)
	}
}
