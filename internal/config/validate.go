package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateIdentity(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateTranscriber(); err != nil {
		return err
	}
	if err := c.validateNotes(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.RecordingsDir) == "" {
		return errors.New("paths.recordings_dir must be set")
	}
	if strings.TrimSpace(c.Paths.ArtifactsDir) == "" {
		return errors.New("paths.artifacts_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateIdentity() error {
	switch c.Identity.Strategy {
	case IdentityStrategyHash, IdentityStrategyExternalID:
		return nil
	default:
		return fmt.Errorf("identity.strategy must be %q or %q, got %q",
			IdentityStrategyHash, IdentityStrategyExternalID, c.Identity.Strategy)
	}
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.PollInterval <= 0 {
		return errors.New("workflow.poll_interval must be positive")
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		return errors.New("workflow.error_retry_interval must be positive")
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.StaleClaimTimeout <= 0 {
		return errors.New("workflow.stale_claim_timeout must be positive")
	}
	if c.Workflow.StaleClaimTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.stale_claim_timeout must exceed workflow.heartbeat_interval")
	}
	if c.Workflow.SettleSeconds < 0 {
		return errors.New("workflow.settle_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateTranscriber() error {
	if strings.TrimSpace(c.Transcriber.BaseURL) == "" {
		return errors.New("transcriber.base_url must be set")
	}
	if strings.TrimSpace(c.Transcriber.Model) == "" {
		return errors.New("transcriber.model must be set")
	}
	if c.Transcriber.TimeoutSeconds <= 0 {
		return errors.New("transcriber.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateNotes() error {
	if strings.TrimSpace(c.Notes.BaseURL) == "" {
		return errors.New("notes.base_url must be set")
	}
	if strings.TrimSpace(c.Notes.Model) == "" {
		return errors.New("notes.model must be set")
	}
	if c.Notes.TimeoutSeconds <= 0 {
		return errors.New("notes.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if strings.TrimSpace(c.Notifications.NtfyTopic) == "" {
		return nil
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive when ntfy_topic is set")
	}
	return nil
}
