package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scribe/internal/httpretry"
)

const (
	defaultHTTPTimeout  = 5 * time.Minute
	chatCompletionsPath = "/chat/completions"

	// Transcripts beyond this size are summarized in chunks and the chunk
	// summaries merged in a final pass. Roughly 12k tokens of text.
	maxChunkChars = 48000
)

// Config captures the runtime settings required to reach the notes LLM.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client generates narrative meeting notes through an OpenAI-compatible
// chat-completions endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	retry      *httpretry.Policy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retry.MaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retry.BaseDelay = baseDelay
		c.retry.MaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.retry.Sleeper = sleeper
	}
}

// NewClient constructs a notes client from the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		retry:      httpretry.NewPolicy(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Generate turns a transcript into flowing narrative notes. Long transcripts
// are summarized chunk by chunk and the partial summaries merged.
func (c *Client) Generate(ctx context.Context, transcript string) (string, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return "", errors.New("notes: transcript required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("notes: api key required")
	}
	if c.cfg.BaseURL == "" {
		return "", errors.New("notes: base url required")
	}

	chunks := splitTranscript(transcript, maxChunkChars)
	if len(chunks) == 1 {
		return c.complete(ctx, narrativePrompt, "Please summarize this meeting transcript:\n\n"+chunks[0])
	}

	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		summary, err := c.complete(ctx,
			chunkPrompt(i+1, len(chunks)),
			"Summarize this meeting segment:\n\n"+chunk)
		if err != nil {
			return "", fmt.Errorf("notes: chunk %d/%d: %w", i+1, len(chunks), err)
		}
		summaries = append(summaries, summary)
	}
	return c.complete(ctx, combinePrompt, "Combine these meeting summaries:\n\n"+strings.Join(summaries, "\n\n"))
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.7,
	}

	var content string
	err := c.retry.Do(ctx, "notes", func() error {
		result, err := c.completeOnce(ctx, payload)
		if err != nil {
			return err
		}
		content = result
		return nil
	})
	return content, err
}

func (c *Client) completeOnce(ctx context.Context, payload chatRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("notes: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+chatCompletionsPath, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("notes: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("notes: http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("notes: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", httpretry.StatusError(resp.StatusCode, body, resp.Header.Get("Retry-After"))
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("notes: decode response: %w", err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("notes: api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("notes: empty choices")
	}
	content := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("notes: empty content")
	}
	return content, nil
}

// splitTranscript breaks text into chunks at paragraph boundaries where
// possible, falling back to a hard split for oversized paragraphs.
func splitTranscript(transcript string, maxChars int) []string {
	if len(transcript) <= maxChars {
		return []string{transcript}
	}

	var chunks []string
	var current strings.Builder
	for _, paragraph := range strings.Split(transcript, "\n\n") {
		for len(paragraph) > maxChars {
			if current.Len() > 0 {
				chunks = append(chunks, strings.TrimSpace(current.String()))
				current.Reset()
			}
			chunks = append(chunks, strings.TrimSpace(paragraph[:maxChars]))
			paragraph = paragraph[maxChars:]
		}
		if current.Len() > 0 && current.Len()+len(paragraph)+2 > maxChars {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}
	if text := strings.TrimSpace(current.String()); text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
