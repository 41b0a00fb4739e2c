package deps

import (
	"path/filepath"
	"strings"

	"scribe/internal/config"
)

// Requirements lists the external binaries the pipeline shells out to.
// The ffprobe binary is expected beside the configured ffmpeg binary, the
// same resolution the media extractor uses.
func Requirements(cfg *config.Config) []Requirement {
	ffmpeg := strings.TrimSpace(cfg.Tools.FFmpegBinary)
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpeg,
			Description: "Extracts audio tracks from recordings",
		},
		{
			Name:        "FFprobe",
			Command:     siblingProbe(ffmpeg),
			Description: "Inspects recording stream layout",
		},
	}
}

func siblingProbe(ffmpegBinary string) string {
	dir, base := filepath.Split(ffmpegBinary)
	probe := strings.Replace(base, "ffmpeg", "ffprobe", 1)
	if probe == base {
		probe = "ffprobe"
	}
	return dir + probe
}
