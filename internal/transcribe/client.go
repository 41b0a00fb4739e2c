package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scribe/internal/httpretry"
)

const (
	defaultHTTPTimeout = 10 * time.Minute
	transcriptionsPath = "/audio/transcriptions"
)

// Config captures the runtime settings required to reach the speech-to-text API.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client uploads audio to an OpenAI-compatible transcriptions endpoint.
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

// NewClient constructs a transcription client from the supplied configuration.
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

type transcriptionResponse struct {
	Text  string `json:"text"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Transcribe uploads the audio file and returns the transcript text. Rate
// limits, server errors, and network timeouts are retried with backoff; the
// upload body is rebuilt from disk on each attempt.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if strings.TrimSpace(audioPath) == "" {
		return "", errors.New("transcribe: audio path required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("transcribe: api key required")
	}
	if c.cfg.BaseURL == "" {
		return "", errors.New("transcribe: base url required")
	}

	var text string
	err := c.retry.Do(ctx, "transcribe", func() error {
		result, err := c.uploadOnce(ctx, audioPath)
		if err != nil {
			return err
		}
		text = result
		return nil
	})
	return text, err
}

func (c *Client) uploadOnce(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("transcribe: open audio: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("transcribe: build form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("transcribe: read audio: %w", err)
	}
	if err := writer.WriteField("model", c.cfg.Model); err != nil {
		return "", fmt.Errorf("transcribe: build form: %w", err)
	}
	if err := writer.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("transcribe: build form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("transcribe: finish form: %w", err)
	}

	endpoint := c.cfg.BaseURL + transcriptionsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("transcribe: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe: http error: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("transcribe: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", httpretry.StatusError(resp.StatusCode, payload, resp.Header.Get("Retry-After"))
	}

	var decoded transcriptionResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("transcribe: decode response: %w", err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("transcribe: api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	text := strings.TrimSpace(decoded.Text)
	if text == "" {
		return "", errors.New("transcribe: empty transcript in response")
	}
	return text, nil
}
