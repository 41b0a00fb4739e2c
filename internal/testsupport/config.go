package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RecordingsDir = filepath.Join(base, "recordings")
	cfgVal.Paths.ArtifactsDir = filepath.Join(base, "artifacts")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Transcriber.APIKey = "test"
	cfgVal.Notes.APIKey = "test"
	cfgVal.Workflow.SettleSeconds = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithIdentityStrategy overrides the identity strategy on the test config.
func WithIdentityStrategy(strategy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Identity.Strategy = strategy
	}
}

// WithStaleClaimTimeout overrides the stale-claim threshold, in seconds.
func WithStaleClaimTimeout(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.StaleClaimTimeout = seconds
	}
}

// WithDryRun enables dry-run mode on the test config.
func WithDryRun() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.DryRun = true
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.RecordingsDir)
}
