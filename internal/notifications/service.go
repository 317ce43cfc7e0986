package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podium/internal/config"
)

const userAgent = "Podium/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyAssessmentCompleted(ctx context.Context, assessmentID string, overallScore float64) error
	NotifyAssessmentFailed(ctx context.Context, assessmentID, reason string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:        topic,
		client:          &http.Client{Timeout: timeout},
		sendCompletions: cfg.Notifications.Completion,
		sendErrors:      cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint        string
	client          *http.Client
	sendCompletions bool
	sendErrors      bool
}

func (n *ntfyService) NotifyAssessmentCompleted(ctx context.Context, assessmentID string, overallScore float64) error {
	if !n.sendCompletions {
		return nil
	}
	data := payload{
		title:   "Podium - Assessment Complete",
		message: fmt.Sprintf("Assessment %s finished with overall score %.1f", assessmentID, overallScore),
		tags:    []string{"podium", "assessment", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAssessmentFailed(ctx context.Context, assessmentID, reason string) error {
	if !n.sendErrors {
		return nil
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	data := payload{
		title:    "Podium - Assessment Failed",
		message:  fmt.Sprintf("Assessment %s failed: %s", assessmentID, reason),
		tags:     []string{"podium", "assessment", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Podium - Test",
		message:  "Notification system test",
		tags:     []string{"podium", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyAssessmentCompleted(context.Context, string, float64) error { return nil }
func (noopService) NotifyAssessmentFailed(context.Context, string, string) error     { return nil }
func (noopService) TestNotification(context.Context) error                           { return nil }
