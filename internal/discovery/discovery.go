// Package discovery finds new meeting recordings to process.
//
// The folder source polls a watched directory and reports video files that
// have stopped growing. Remote sources (drive exports, upload buckets) can
// implement Source behind the same contract.
package discovery

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"scribe/internal/config"
	"scribe/internal/identity"
	"scribe/internal/logging"
)

// Candidate is a recording a source believes is ready for processing.
type Candidate struct {
	ExternalID   string
	DisplayName  string
	ContentRef   string
	ModifiedTime time.Time
	SizeBytes    int64
}

// Source lists candidates ready for the pipeline.
type Source interface {
	Discover(ctx context.Context) ([]Candidate, error)
}

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".mkv":  {},
	".mov":  {},
	".webm": {},
	".avi":  {},
}

// FolderSource polls a local directory for settled video files. A file whose
// modification time is within the settle window is still being written and is
// skipped until a later poll.
type FolderSource struct {
	dir    string
	settle time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewFolderSource builds a folder source from the configured recordings dir.
func NewFolderSource(cfg *config.Config, logger *slog.Logger) *FolderSource {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FolderSource{
		dir:    cfg.Paths.RecordingsDir,
		settle: time.Duration(cfg.Workflow.SettleSeconds) * time.Second,
		logger: logger,
		now:    time.Now,
	}
}

// Discover walks the watched directory and returns settled video files in
// name order. A missing directory yields no candidates rather than an error,
// since the recordings share may not be mounted yet.
func (f *FolderSource) Discover(ctx context.Context) ([]Candidate, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	cutoff := f.now().Add(-f.settle)
	var candidates []Candidate
	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := videoExtensions[strings.ToLower(filepath.Ext(name))]; !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if _, ok := err.(*fs.PathError); ok {
				// File vanished between readdir and stat.
				continue
			}
			return nil, err
		}
		if f.settle > 0 && info.ModTime().After(cutoff) {
			f.logger.Debug("recording still settling",
				logging.String("file", name),
				logging.Duration("age", f.now().Sub(info.ModTime())),
			)
			continue
		}
		candidates = append(candidates, Candidate{
			ExternalID:   name,
			DisplayName:  identity.NormalizeDisplayName(name),
			ContentRef:   filepath.Join(f.dir, name),
			ModifiedTime: info.ModTime(),
			SizeBytes:    info.Size(),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ExternalID < candidates[j].ExternalID
	})
	return candidates, nil
}
