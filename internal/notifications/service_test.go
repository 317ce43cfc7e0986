package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"podium/internal/notifications"
	"podium/internal/testsupport"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(cfg)
	if err := svc.NotifyAssessmentCompleted(context.Background(), "a-1", 70.5); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsCompletion(t *testing.T) {
	var captured struct {
		title    string
		tags     string
		priority string
		body     string
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		captured.title = r.Header.Get("Title")
		captured.tags = r.Header.Get("Tags")
		captured.priority = r.Header.Get("Priority")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		captured.body = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Completion = true
	cfg.Notifications.Errors = true

	svc := notifications.NewService(cfg)
	if err := svc.NotifyAssessmentCompleted(context.Background(), "a-42", 68.3); err != nil {
		t.Fatalf("notification returned error: %v", err)
	}

	if captured.title != "Podium - Assessment Complete" {
		t.Fatalf("title = %q", captured.title)
	}
	if captured.body != "Assessment a-42 finished with overall score 68.3" {
		t.Fatalf("body = %q", captured.body)
	}
	if captured.tags != "podium,assessment,completed" {
		t.Fatalf("tags = %q", captured.tags)
	}

	if err := svc.NotifyAssessmentFailed(context.Background(), "a-42", "visual stage crashed"); err != nil {
		t.Fatalf("failure notification: %v", err)
	}
	if captured.priority != "high" {
		t.Fatalf("priority = %q, want high", captured.priority)
	}
}

func TestNtfyServiceRespectsToggles(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Completion = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(cfg)
	if err := svc.NotifyAssessmentCompleted(context.Background(), "a-1", 50); err != nil {
		t.Fatalf("completion: %v", err)
	}
	if err := svc.NotifyAssessmentFailed(context.Background(), "a-1", "boom"); err != nil {
		t.Fatalf("failure: %v", err)
	}
	if calls != 0 {
		t.Fatalf("calls = %d, want 0 with toggles off", calls)
	}
}
