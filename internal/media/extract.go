package media

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"scribe/internal/services"
)

// Extractor pulls the audio track out of a meeting recording with ffmpeg.
// Output is mono 16 kHz PCM WAV, the format speech-to-text services expect.
type Extractor struct {
	ffmpegBinary  string
	ffprobeBinary string
	commandRunner func(ctx context.Context, name string, args ...string) error
	probeRunner   func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewExtractor builds an extractor around the configured ffmpeg binary. The
// matching ffprobe binary is assumed to live beside it.
func NewExtractor(ffmpegBinary string) *Extractor {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &Extractor{
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: siblingProbe(ffmpegBinary),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Extractor) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	e.commandRunner = runner
}

// WithProbeRunner sets a custom probe runner returning raw output (for testing).
func (e *Extractor) WithProbeRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	e.probeRunner = runner
}

// Available reports whether the ffmpeg binary can be resolved.
func (e *Extractor) Available() bool {
	_, err := exec.LookPath(e.ffmpegBinary)
	return err == nil
}

// Binary returns the configured ffmpeg binary name.
func (e *Extractor) Binary() string {
	return e.ffmpegBinary
}

// ExtractAudio writes the recording's audio track to dest.
func (e *Extractor) ExtractAudio(ctx context.Context, source, dest string) error {
	if source == "" || dest == "" {
		return services.Wrap(services.ErrValidation, "extract_audio", "extract",
			"source and destination paths are required", nil)
	}
	args := buildExtractArgs(source, dest)
	if err := e.run(ctx, e.ffmpegBinary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "extract_audio", "ffmpeg", "", err)
	}
	return nil
}

func buildExtractArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}

func (e *Extractor) run(ctx context.Context, name string, args ...string) error {
	if e.commandRunner != nil {
		return e.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func siblingProbe(ffmpegBinary string) string {
	dir, base := filepath.Split(ffmpegBinary)
	probe := strings.Replace(base, "ffmpeg", "ffprobe", 1)
	if probe == base {
		probe = "ffprobe"
	}
	return dir + probe
}
