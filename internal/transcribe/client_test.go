package transcribe_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scribe/internal/testsupport"
	"scribe/internal/transcribe"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	testsupport.WriteFile(t, path, 2048)
	return path
}

func newClient(t *testing.T, baseURL string) *transcribe.Client {
	t.Helper()
	return transcribe.NewClient(transcribe.Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "whisper-1",
	},
		transcribe.WithRetryBackoff(time.Millisecond, 5*time.Millisecond),
		transcribe.WithSleeper(func(time.Duration) {}),
	)
}

func TestTranscribeUploadsMultipart(t *testing.T) {
	var gotAuth, gotModel, gotFilename string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotModel = r.FormValue("model")
		if file, header, err := r.FormFile("file"); err == nil {
			gotFilename = header.Filename
			_, _ = io.Copy(io.Discard, file)
			_ = file.Close()
		} else {
			t.Errorf("form file: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": "  hello from the meeting  "}`))
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	text, err := client.Transcribe(context.Background(), writeAudio(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "hello from the meeting" {
		t.Fatalf("unexpected transcript %q", text)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotModel != "whisper-1" {
		t.Fatalf("unexpected model %q", gotModel)
	}
	if gotFilename != "audio.wav" {
		t.Fatalf("unexpected filename %q", gotFilename)
	}
}

func TestTranscribeRetriesRateLimit(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"text": "eventually"}`))
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	text, err := client.Transcribe(context.Background(), writeAudio(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "eventually" {
		t.Fatalf("unexpected transcript %q", text)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestTranscribeDoesNotRetryAuthFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key"}}`))
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	_, err := client.Transcribe(context.Background(), writeAudio(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected single attempt, got %d", attempts)
	}
}

func TestTranscribeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": {"message": "model overloaded"}}`))
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	_, err := client.Transcribe(context.Background(), writeAudio(t))
	if err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("expected api error surfaced, got %v", err)
	}
}

func TestTranscribeRequiresConfiguration(t *testing.T) {
	client := transcribe.NewClient(transcribe.Config{BaseURL: "https://example.com"})
	if _, err := client.Transcribe(context.Background(), writeAudio(t)); err == nil {
		t.Fatal("expected error for missing api key")
	}

	client = transcribe.NewClient(transcribe.Config{APIKey: "k", BaseURL: "https://example.com"})
	if _, err := client.Transcribe(context.Background(), ""); err == nil {
		t.Fatal("expected error for missing audio path")
	}
}
