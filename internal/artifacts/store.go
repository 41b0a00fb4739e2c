package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"scribe/internal/config"
	"scribe/internal/fileutil"
	"scribe/internal/services"
)

// Well-known artifact names within a recording's directory.
const (
	FileRecording  = "meeting.mp4"
	FileAudio      = "audio.wav"
	FileTranscript = "transcript.txt"
	FileNotes      = "notes.md"
	FileBundle     = "bundle.json"
)

// Store lays out pipeline artifacts on the local filesystem. Every identity
// owns one directory with deterministic file names, so a restarted run finds
// earlier outputs exactly where the previous run left them.
type Store struct {
	root string
}

// NewStore roots an artifact store at the configured artifacts directory.
func NewStore(cfg *config.Config) (*Store, error) {
	if err := os.MkdirAll(cfg.Paths.ArtifactsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifacts dir: %w", err)
	}
	return &Store{root: cfg.Paths.ArtifactsDir}, nil
}

// Root returns the base artifacts directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory owned by an identity.
func (s *Store) Dir(identity string) string {
	return filepath.Join(s.root, identity)
}

// Path returns the location a named artifact occupies for an identity.
func (s *Store) Path(identity, name string) string {
	return filepath.Join(s.root, identity, name)
}

// EnsureDir creates the identity's directory if needed and returns it.
func (s *Store) EnsureDir(identity string) (string, error) {
	if err := validIdentity(identity); err != nil {
		return "", err
	}
	dir := s.Dir(identity)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	return dir, nil
}

// Exists reports whether a named artifact is present for an identity.
func (s *Store) Exists(identity, name string) bool {
	info, err := os.Stat(s.Path(identity, name))
	return err == nil && !info.IsDir()
}

// Save copies an external file into the store under the given artifact name.
// The copy is hash-verified so a truncated source never masquerades as a
// completed download.
func (s *Store) Save(identity, name, src string) (string, error) {
	if _, err := s.EnsureDir(identity); err != nil {
		return "", err
	}
	dst := s.Path(identity, name)
	if err := fileutil.CopyFileVerified(src, dst); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return dst, nil
}

// WriteFile stores raw bytes under the given artifact name.
func (s *Store) WriteFile(identity, name string, data []byte) (string, error) {
	if _, err := s.EnsureDir(identity); err != nil {
		return "", err
	}
	dst := s.Path(identity, name)
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return dst, nil
}

// ReadFile returns a stored artifact's contents.
func (s *Store) ReadFile(identity, name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(identity, name))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func validIdentity(identity string) error {
	if identity == "" || strings.ContainsAny(identity, "/\\") || identity == "." || identity == ".." {
		return services.Wrap(services.ErrValidation, "artifacts", "validate identity",
			fmt.Sprintf("identity %q is not usable as a directory name", identity), nil)
	}
	return nil
}
