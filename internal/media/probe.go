package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"scribe/internal/services"
)

// Info summarizes the parts of an ffprobe inspection the pipeline cares about.
type Info struct {
	HasAudio        bool
	HasVideo        bool
	DurationSeconds float64
}

type probePayload struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe inspects a recording and reports its stream layout. A recording with
// no audio stream cannot be transcribed, so callers check HasAudio before
// spending time on extraction.
func (e *Extractor) Probe(ctx context.Context, path string) (Info, error) {
	if path == "" {
		return Info{}, services.Wrap(services.ErrValidation, "extract_audio", "probe", "path is required", nil)
	}
	args := []string{
		"-v", "error",
		"-hide_banner",
		"-show_format",
		"-show_streams",
		"-of", "json",
		"--", path,
	}
	output, err := e.probeOutput(ctx, e.ffprobeBinary, args...)
	if err != nil {
		return Info{}, services.Wrap(services.ErrExternalTool, "extract_audio", "ffprobe", "", err)
	}

	var payload probePayload
	if err := json.Unmarshal(output, &payload); err != nil {
		return Info{}, services.Wrap(services.ErrExternalTool, "extract_audio", "ffprobe", "unparseable output", err)
	}

	info := Info{}
	for _, stream := range payload.Streams {
		switch strings.ToLower(stream.CodecType) {
		case "audio":
			info.HasAudio = true
		case "video":
			info.HasVideo = true
		}
	}
	if duration := strings.TrimSpace(payload.Format.Duration); duration != "" {
		if parsed, err := strconv.ParseFloat(duration, 64); err == nil && parsed > 0 {
			info.DurationSeconds = parsed
		}
	}
	return info, nil
}

func (e *Extractor) probeOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	if e.probeRunner != nil {
		return e.probeRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}
