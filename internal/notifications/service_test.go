package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"scribe/internal/config"
	"scribe/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyProcessingCompleted(context.Background(), "Example", ""); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "started",
			notify: func(svc notifications.Service) error {
				return svc.NotifyProcessingStarted(context.Background(), "DnD 2025-01-10")
			},
			expectTitle:   "Scribe - Processing Started",
			expectMessage: "Started processing: DnD 2025-01-10",
			expectTags:    "scribe,processing,started",
		},
		{
			name: "completed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyProcessingCompleted(context.Background(), "DnD 2025-01-10", "/artifacts/abc/bundle.json")
			},
			expectTitle:    "Scribe - Complete",
			expectMessage:  "Notes ready: DnD 2025-01-10\nBundle: /artifacts/abc/bundle.json",
			expectTags:     "scribe,processing,completed",
			expectPriority: "high",
		},
		{
			name: "failed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyProcessingFailed(context.Background(), "DnD 2025-01-10", errors.New("transcription failed"))
			},
			expectTitle:    "Scribe - Error",
			expectMessage:  "Processing failed for DnD 2025-01-10: transcription failed",
			expectTags:     "scribe,error,alert",
			expectPriority: "high",
		},
		{
			name: "test",
			notify: func(svc notifications.Service) error {
				return svc.TestNotification(context.Background())
			},
			expectTitle:    "Scribe - Test",
			expectMessage:  "Notification system test",
			expectTags:     "scribe,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
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
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5
			cfg.Notifications.Started = true
			cfg.Notifications.Completed = true
			cfg.Notifications.Errors = true

			svc := notifications.NewService(&cfg)
			if err := tc.notify(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonorsToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for disabled event: %s", r.Header.Get("Title"))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Started = false
	cfg.Notifications.Completed = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	if err := svc.NotifyProcessingStarted(context.Background(), "x"); err != nil {
		t.Fatalf("started: %v", err)
	}
	if err := svc.NotifyProcessingCompleted(context.Background(), "x", ""); err != nil {
		t.Fatalf("completed: %v", err)
	}
	if err := svc.NotifyProcessingFailed(context.Background(), "x", errors.New("boom")); err != nil {
		t.Fatalf("failed: %v", err)
	}
}

func TestNtfyServiceSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("access denied"))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from ntfy failure")
	}
}
