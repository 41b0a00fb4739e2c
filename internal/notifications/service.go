package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scribe/internal/config"
)

const userAgent = "Scribe-Go/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyProcessingStarted(ctx context.Context, displayName string) error
	NotifyProcessingCompleted(ctx context.Context, displayName, bundlePath string) error
	NotifyProcessingFailed(ctx context.Context, displayName string, err error) error
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
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		started:   cfg.Notifications.Started,
		completed: cfg.Notifications.Completed,
		errors:    cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	started   bool
	completed bool
	errors    bool
}

func (n *ntfyService) NotifyProcessingStarted(ctx context.Context, displayName string) error {
	if !n.started {
		return nil
	}
	displayName = strings.TrimSpace(displayName)
	data := payload{
		title:   "Scribe - Processing Started",
		message: fmt.Sprintf("Started processing: %s", displayName),
		tags:    []string{"scribe", "processing", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyProcessingCompleted(ctx context.Context, displayName, bundlePath string) error {
	if !n.completed {
		return nil
	}
	displayName = strings.TrimSpace(displayName)
	message := fmt.Sprintf("Notes ready: %s", displayName)
	if bundlePath = strings.TrimSpace(bundlePath); bundlePath != "" {
		message = fmt.Sprintf("%s\nBundle: %s", message, bundlePath)
	}
	data := payload{
		title:    "Scribe - Complete",
		message:  message,
		tags:     []string{"scribe", "processing", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyProcessingFailed(ctx context.Context, displayName string, err error) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Processing failed")
	if displayName = strings.TrimSpace(displayName); displayName != "" {
		builder.WriteString(" for ")
		builder.WriteString(displayName)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Scribe - Error",
		message:  builder.String(),
		tags:     []string{"scribe", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Scribe - Test",
		message:  "Notification system test",
		tags:     []string{"scribe", "test"},
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

func (noopService) NotifyProcessingStarted(context.Context, string) error           { return nil }
func (noopService) NotifyProcessingCompleted(context.Context, string, string) error { return nil }
func (noopService) NotifyProcessingFailed(context.Context, string, error) error     { return nil }
func (noopService) TestNotification(context.Context) error                          { return nil }
