package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"scribe/internal/fileutil"
)

// BundleFile describes one produced artifact inside a bundle manifest.
type BundleFile struct {
	Name  string `json:"name"`
	Bytes int64  `json:"bytes"`
	Size  string `json:"size"`
}

// Bundle is the manifest written alongside a completed recording's artifacts.
// It lists every file the pipeline produced with human-readable sizes.
type Bundle struct {
	ID          string                `json:"id"`
	Identity    string                `json:"identity"`
	DisplayName string                `json:"display_name,omitempty"`
	Created     time.Time             `json:"created"`
	Files       map[string]BundleFile `json:"files"`
}

// bundleRoles maps manifest keys to the artifact names they describe.
var bundleRoles = map[string]string{
	"recording":  FileRecording,
	"audio":      FileAudio,
	"transcript": FileTranscript,
	"notes":      FileNotes,
}

// WriteBundle builds the manifest from whichever artifacts exist for the
// identity and writes it as bundle.json. It returns the manifest path.
func (s *Store) WriteBundle(identity, displayName string) (string, error) {
	if _, err := s.EnsureDir(identity); err != nil {
		return "", err
	}

	bundle := Bundle{
		ID:          uuid.NewString()[:8],
		Identity:    identity,
		DisplayName: displayName,
		Created:     time.Now().UTC(),
		Files:       make(map[string]BundleFile, len(bundleRoles)),
	}
	for role, name := range bundleRoles {
		info, err := os.Stat(s.Path(identity, name))
		if err != nil || info.IsDir() {
			continue
		}
		bundle.Files[role] = BundleFile{
			Name:  name,
			Bytes: info.Size(),
			Size:  fileutil.HumanSize(info.Size()),
		}
	}

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode bundle: %w", err)
	}
	return s.WriteFile(identity, FileBundle, data)
}

// ReadBundle loads a previously written manifest.
func (s *Store) ReadBundle(identity string) (*Bundle, error) {
	data, err := s.ReadFile(identity, FileBundle)
	if err != nil {
		return nil, err
	}
	var bundle Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return &bundle, nil
}
