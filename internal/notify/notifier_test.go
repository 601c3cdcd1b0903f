package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mediahaul/mediahaul/internal/config"
	"github.com/mediahaul/mediahaul/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testNotifier(baseURL string) *HTTPNotifier {
	return NewHTTPNotifier(config.NotifyConfig{
		BaseURL: baseURL,
		APIKey:  "secret-key",
		Timeout: 5 * time.Second,
	}, testLogger())
}

func TestHTTPNotifier_Register(t *testing.T) {
	var got domain.CompletedArtifact
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/internal/register-download" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret-key" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	artifact := domain.CompletedArtifact{
		Filename:  "Concert Night.mp4",
		RemoteURL: "https://youtu.be/abc123",
		SizeBytes: 4096,
		Author:    "Space Channel",
		Duration:  134,
	}

	n := testNotifier(server.URL)
	if err := n.Register(context.Background(), artifact); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if got.Filename != artifact.Filename || got.SizeBytes != artifact.SizeBytes {
		t.Errorf("received = %+v", got)
	}
	if got.Author != "Space Channel" {
		t.Errorf("author = %q", got.Author)
	}
}

func TestHTTPNotifier_Register_OmitsEmptyOptionalFields(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode body: %v", err)
		}
	}))
	defer server.Close()

	n := testNotifier(server.URL)
	err := n.Register(context.Background(), domain.CompletedArtifact{
		Filename:  "clip.mp4",
		RemoteURL: "https://example.com/clip.mp4",
		SizeBytes: 10,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	for _, key := range []string{"source_url", "thumbnail", "duration", "author", "tags", "publish_date"} {
		if _, present := raw[key]; present {
			t.Errorf("optional field %q should be omitted when empty", key)
		}
	}
	for _, key := range []string{"filename", "remote_url", "size_bytes"} {
		if _, present := raw[key]; !present {
			t.Errorf("required field %q missing", key)
		}
	}
}

func TestHTTPNotifier_Register_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	n := testNotifier(server.URL)
	err := n.Register(context.Background(), domain.CompletedArtifact{Filename: "x.mp4"})
	if !errors.Is(err, domain.ErrRegistrationFailed) {
		t.Errorf("error = %v, want ErrRegistrationFailed", err)
	}
}

func TestHTTPNotifier_Register_ConnectionRefused(t *testing.T) {
	n := testNotifier("http://127.0.0.1:1")

	err := n.Register(context.Background(), domain.CompletedArtifact{Filename: "x.mp4"})
	if !errors.Is(err, domain.ErrRegistrationFailed) {
		t.Errorf("error = %v, want ErrRegistrationFailed", err)
	}
}

func TestHTTPNotifier_Disabled(t *testing.T) {
	n := NewHTTPNotifier(config.NotifyConfig{}, testLogger())

	if n.Enabled() {
		t.Error("notifier without a base URL should be disabled")
	}
	if err := n.Register(context.Background(), domain.CompletedArtifact{Filename: "x.mp4"}); err != nil {
		t.Errorf("disabled Register should be a no-op, got %v", err)
	}
}

func TestHTTPNotifier_NoAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("Authorization = %q, want unset", auth)
		}
	}))
	defer server.Close()

	n := NewHTTPNotifier(config.NotifyConfig{BaseURL: server.URL, Timeout: time.Second}, testLogger())
	if err := n.Register(context.Background(), domain.CompletedArtifact{Filename: "x.mp4"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
}
