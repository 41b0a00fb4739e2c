package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"scribe/internal/artifacts"
	"scribe/internal/config"
	"scribe/internal/media"
	"scribe/internal/notes"
	"scribe/internal/services"
	"scribe/internal/stage"
	"scribe/internal/tracker"
	"scribe/internal/transcribe"
)

// Stage names in execution order.
const (
	StageDownload      = "download"
	StageExtractAudio  = "extract_audio"
	StageTranscribe    = "transcribe"
	StageGenerateNotes = "generate_notes"
	StagePublish       = "publish"
)

const fetchTimeout = 10 * time.Minute

// DefaultStages wires the production stage sequence from configuration.
func DefaultStages(cfg *config.Config) ([]Stage, error) {
	store, err := artifacts.NewStore(cfg)
	if err != nil {
		return nil, err
	}
	extractor := media.NewExtractor(cfg.Tools.FFmpegBinary)
	transcriber := transcribe.NewClient(transcribe.Config{
		APIKey:         cfg.Transcriber.APIKey,
		BaseURL:        cfg.Transcriber.BaseURL,
		Model:          cfg.Transcriber.Model,
		TimeoutSeconds: cfg.Transcriber.TimeoutSeconds,
	})
	notesClient := notes.NewClient(notes.Config{
		APIKey:         cfg.Notes.APIKey,
		BaseURL:        cfg.Notes.BaseURL,
		Model:          cfg.Notes.Model,
		TimeoutSeconds: cfg.Notes.TimeoutSeconds,
	})
	return BuildStages(cfg, store, extractor, transcriber, notesClient), nil
}

// Transcriber converts an audio file into transcript text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// NotesGenerator turns a transcript into narrative notes.
type NotesGenerator interface {
	Generate(ctx context.Context, transcript string) (string, error)
}

// BuildStages assembles the stage sequence from explicit collaborators.
// Tests inject fakes here; DefaultStages passes the production clients.
func BuildStages(cfg *config.Config, store *artifacts.Store, extractor *media.Extractor, transcriber Transcriber, notesClient NotesGenerator) []Stage {
	fetcher := &http.Client{Timeout: fetchTimeout}
	return []Stage{
		{
			Name: StageDownload,
			Work: func(ctx context.Context, record *tracker.Record, input string) (string, error) {
				return downloadRecording(ctx, store, fetcher, record, input)
			},
			Health: func(ctx context.Context) stage.Health {
				if _, err := store.EnsureDir(".healthcheck"); err == nil {
					_ = os.Remove(store.Dir(".healthcheck"))
					return stage.Healthy(StageDownload)
				}
				return stage.Unhealthy(StageDownload, "artifacts directory not writable")
			},
		},
		{
			Name: StageExtractAudio,
			Work: func(ctx context.Context, record *tracker.Record, input string) (string, error) {
				return extractAudio(ctx, store, extractor, record, input)
			},
			Health: func(ctx context.Context) stage.Health {
				if extractor.Available() {
					return stage.Healthy(StageExtractAudio)
				}
				return stage.Unhealthy(StageExtractAudio, fmt.Sprintf("%s not found in PATH", extractor.Binary()))
			},
		},
		{
			Name: StageTranscribe,
			Work: func(ctx context.Context, record *tracker.Record, input string) (string, error) {
				return transcribeAudio(ctx, store, transcriber, record, input)
			},
			Health: func(ctx context.Context) stage.Health {
				if strings.TrimSpace(cfg.Transcriber.APIKey) != "" {
					return stage.Healthy(StageTranscribe)
				}
				return stage.Unhealthy(StageTranscribe, "transcriber api key not configured")
			},
		},
		{
			Name: StageGenerateNotes,
			Work: func(ctx context.Context, record *tracker.Record, input string) (string, error) {
				return generateNotes(ctx, store, notesClient, record, input)
			},
			Health: func(ctx context.Context) stage.Health {
				if strings.TrimSpace(cfg.Notes.APIKey) != "" {
					return stage.Healthy(StageGenerateNotes)
				}
				return stage.Unhealthy(StageGenerateNotes, "notes api key not configured")
			},
		},
		{
			Name: StagePublish,
			Work: func(ctx context.Context, record *tracker.Record, input string) (string, error) {
				path, err := store.WriteBundle(record.Identity, record.DisplayName)
				if err != nil {
					return "", services.Wrap(services.ErrStageExecution, StagePublish, "write bundle", "", err)
				}
				return path, nil
			},
		},
	}
}

func downloadRecording(ctx context.Context, store *artifacts.Store, fetcher *http.Client, record *tracker.Record, input string) (string, error) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return fetchRecording(ctx, store, fetcher, record.Identity, input)
	}
	path, err := store.Save(record.Identity, artifacts.FileRecording, input)
	if err != nil {
		return "", services.Wrap(services.ErrStageExecution, StageDownload, "copy recording", input, err)
	}
	return path, nil
}

func fetchRecording(ctx context.Context, store *artifacts.Store, fetcher *http.Client, identityKey, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", services.Wrap(services.ErrStageExecution, StageDownload, "build request", url, err)
	}
	resp, err := fetcher.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, StageDownload, "fetch recording", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrStageExecution, StageDownload, "fetch recording",
			fmt.Sprintf("%s returned %d", url, resp.StatusCode), nil)
	}

	if _, err := store.EnsureDir(identityKey); err != nil {
		return "", err
	}
	dest := store.Path(identityKey, artifacts.FileRecording)
	out, err := os.Create(dest)
	if err != nil {
		return "", services.Wrap(services.ErrStageExecution, StageDownload, "create file", dest, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = os.Remove(dest)
		return "", services.Wrap(services.ErrTransient, StageDownload, "stream recording", url, err)
	}
	if err := out.Close(); err != nil {
		return "", services.Wrap(services.ErrStageExecution, StageDownload, "flush file", dest, err)
	}
	return dest, nil
}

func extractAudio(ctx context.Context, store *artifacts.Store, extractor *media.Extractor, record *tracker.Record, input string) (string, error) {
	info, err := extractor.Probe(ctx, input)
	if err != nil {
		return "", err
	}
	if !info.HasAudio {
		return "", services.Wrap(services.ErrValidation, StageExtractAudio, "probe",
			"recording has no audio stream", nil)
	}
	if _, err := store.EnsureDir(record.Identity); err != nil {
		return "", err
	}
	dest := store.Path(record.Identity, artifacts.FileAudio)
	if err := extractor.ExtractAudio(ctx, input, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func transcribeAudio(ctx context.Context, store *artifacts.Store, transcriber Transcriber, record *tracker.Record, input string) (string, error) {
	text, err := transcriber.Transcribe(ctx, input)
	if err != nil {
		return "", services.Wrap(services.ErrStageExecution, StageTranscribe, "transcribe audio", "", err)
	}
	path, err := store.WriteFile(record.Identity, artifacts.FileTranscript, []byte(text+"\n"))
	if err != nil {
		return "", services.Wrap(services.ErrStageExecution, StageTranscribe, "store transcript", "", err)
	}
	return path, nil
}

func generateNotes(ctx context.Context, store *artifacts.Store, notesClient NotesGenerator, record *tracker.Record, input string) (string, error) {
	transcript, err := os.ReadFile(input)
	if err != nil {
		return "", services.Wrap(services.ErrStageExecution, StageGenerateNotes, "read transcript", input, err)
	}
	content, err := notesClient.Generate(ctx, string(transcript))
	if err != nil {
		return "", services.Wrap(services.ErrStageExecution, StageGenerateNotes, "generate notes", "", err)
	}
	title := strings.TrimSpace(record.DisplayName)
	if title == "" {
		title = record.Identity
	}
	document := fmt.Sprintf("# %s\n\n%s\n", title, strings.TrimSpace(content))
	path, err := store.WriteFile(record.Identity, artifacts.FileNotes, []byte(document))
	if err != nil {
		return "", services.Wrap(services.ErrStageExecution, StageGenerateNotes, "store notes", "", err)
	}
	return path, nil
}
