package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(
		Config{APIKey: "test-key", BaseURL: server.URL, Model: "test-model"},
		WithRetry(3, time.Millisecond, 5*time.Millisecond),
		WithSleeper(func(time.Duration) {}),
	)
}

func TestCompleteTextReturnsContent(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Great talk overall."}}]}`))
	}))

	got, err := client.CompleteText(context.Background(), "You are a coach.", "Summarize.")
	if err != nil {
		t.Fatalf("CompleteText: %v", err)
	}
	if got != "Great talk overall." {
		t.Fatalf("content = %q", got)
	}
}

func TestCompleteTextRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))

	got, err := client.CompleteText(context.Background(), "", "hello")
	if err != nil {
		t.Fatalf("CompleteText: %v", err)
	}
	if got != "ok" {
		t.Fatalf("content = %q", got)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestCompleteTextDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad model", http.StatusBadRequest)
	}))

	if _, err := client.CompleteText(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestCompleteTextRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{Model: "m"})
	if _, err := client.CompleteText(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if client.Configured() {
		t.Fatal("expected Configured to be false")
	}
}

func TestCompleteTextSurfacesAPIError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"model not found"}}`))
	}))

	_, err := client.CompleteText(context.Background(), "", "hello")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseRetryAfterSeconds(t *testing.T) {
	delay, ok := parseRetryAfter("2")
	if !ok || delay != 2*time.Second {
		t.Fatalf("delay = %v ok = %v", delay, ok)
	}
	if _, ok := parseRetryAfter("garbage"); ok {
		t.Fatal("expected parse failure")
	}
}
