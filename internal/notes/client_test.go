package notes_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scribe/internal/notes"
)

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newClient(t *testing.T, baseURL string) *notes.Client {
	t.Helper()
	return notes.NewClient(notes.Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "gpt-4o",
	},
		notes.WithRetryBackoff(time.Millisecond, 5*time.Millisecond),
		notes.WithSleeper(func(time.Duration) {}),
	)
}

func completionBody(content string) string {
	encoded, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(encoded)
}

func TestGenerateSingleChunk(t *testing.T) {
	var captured capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(completionBody("The party gathered at dusk.")))
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	result, err := client.Generate(context.Background(), "Alice: hello. Bob: hi.")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result != "The party gathered at dusk." {
		t.Fatalf("unexpected notes %q", result)
	}
	if captured.Model != "gpt-4o" {
		t.Fatalf("unexpected model %q", captured.Model)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Role != "user" {
		t.Fatalf("unexpected message shape: %+v", captured.Messages)
	}
	if !strings.Contains(captured.Messages[1].Content, "Alice: hello.") {
		t.Fatal("expected transcript in user message")
	}
}

func TestGenerateChunksLongTranscript(t *testing.T) {
	var systemPrompts []string
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var captured capturedRequest
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		systemPrompts = append(systemPrompts, captured.Messages[0].Content)
		_, _ = w.Write([]byte(completionBody(fmt.Sprintf("summary %d", calls))))
	}))
	defer server.Close()

	// Two paragraphs of ~40k chars each force two chunks plus a combine pass.
	paragraph := strings.Repeat("The heroes debated their next move. ", 1100)
	transcript := paragraph + "\n\n" + paragraph

	client := newClient(t, server.URL)
	result, err := client.Generate(context.Background(), transcript)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 2 chunk calls plus combine, got %d", calls)
	}
	if !strings.Contains(systemPrompts[0], "part 1 of 2") || !strings.Contains(systemPrompts[1], "part 2 of 2") {
		t.Fatalf("unexpected chunk prompts: %v", systemPrompts[:2])
	}
	if !strings.Contains(systemPrompts[2], "Combine these into one cohesive") {
		t.Fatalf("unexpected combine prompt: %q", systemPrompts[2])
	}
	if result != "summary 3" {
		t.Fatalf("expected combined summary, got %q", result)
	}
}

func TestGenerateRetriesServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(completionBody("recovered")))
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	result, err := client.Generate(context.Background(), "short transcript")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result != "recovered" || attempts != 2 {
		t.Fatalf("expected retry then success, got %q after %d attempts", result, attempts)
	}
}

func TestGenerateEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	if _, err := client.Generate(context.Background(), "short transcript"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestGenerateRequiresInput(t *testing.T) {
	client := notes.NewClient(notes.Config{APIKey: "k", BaseURL: "https://example.com"})
	if _, err := client.Generate(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty transcript")
	}
	client = notes.NewClient(notes.Config{BaseURL: "https://example.com"})
	if _, err := client.Generate(context.Background(), "text"); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
