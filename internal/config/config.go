package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	RecordingsDir string `toml:"recordings_dir"`
	ArtifactsDir  string `toml:"artifacts_dir"`
	LogDir        string `toml:"log_dir"`
}

// Identity selects how recordings are keyed for processing tracking.
// "hash" reads the full file and keys by SHA-256, so renames never create
// duplicate records. "external_id" keys by the discovery source's file ID,
// which is cheap but cannot detect re-uploads with changed content.
type Identity struct {
	Strategy string `toml:"strategy"`
}

// Workflow contains daemon timing and pipeline behavior.
type Workflow struct {
	PollInterval       int  `toml:"poll_interval"`
	ErrorRetryInterval int  `toml:"error_retry_interval"`
	HeartbeatInterval  int  `toml:"heartbeat_interval"`
	StaleClaimTimeout  int  `toml:"stale_claim_timeout"`
	SettleSeconds      int  `toml:"settle_seconds"`
	DryRun             bool `toml:"dry_run"`
}

// Transcriber contains the speech-to-text API connection settings.
type Transcriber struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Notes contains the LLM connection settings for note generation.
type Notes struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Started        bool   `toml:"started"`
	Completed      bool   `toml:"completed"`
	Errors         bool   `toml:"errors"`
}

// Tools contains external binary configuration.
type Tools struct {
	FFmpegBinary string `toml:"ffmpeg_binary"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root configuration for scribe.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Identity      Identity      `toml:"identity"`
	Workflow      Workflow      `toml:"workflow"`
	Transcriber   Transcriber   `toml:"transcriber"`
	Notes         Notes         `toml:"notes"`
	Notifications Notifications `toml:"notifications"`
	Tools         Tools         `toml:"tools"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scribe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("scribe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.RecordingsDir, err = expandPath(c.Paths.RecordingsDir); err != nil {
		return fmt.Errorf("paths.recordings_dir: %w", err)
	}
	if c.Paths.ArtifactsDir, err = expandPath(c.Paths.ArtifactsDir); err != nil {
		return fmt.Errorf("paths.artifacts_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	c.Identity.Strategy = strings.ToLower(strings.TrimSpace(c.Identity.Strategy))
	if c.Identity.Strategy == "" {
		c.Identity.Strategy = defaultIdentityStrategy
	}

	if strings.TrimSpace(c.Tools.FFmpegBinary) == "" {
		c.Tools.FFmpegBinary = defaultFFmpegBinary
	}

	c.Transcriber.BaseURL = strings.TrimRight(strings.TrimSpace(c.Transcriber.BaseURL), "/")
	c.Notes.BaseURL = strings.TrimRight(strings.TrimSpace(c.Notes.BaseURL), "/")

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	return nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.RecordingsDir, c.Paths.ArtifactsDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to the given path.
func WriteSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath resolves ~ and relative segments into an absolute path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
