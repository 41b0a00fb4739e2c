package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"scribe/internal/services"
	"scribe/internal/textutil"
)

// Strategy selects how a recording's primary key is derived.
type Strategy string

const (
	// StrategyHash keys by SHA-256 of the file bytes. Deterministic across
	// renames; costs a full read of the file.
	StrategyHash Strategy = "hash"
	// StrategyExternalID keys by the discovery source's file identifier.
	// Zero-cost, but a re-upload with the same ID and different content maps
	// to the same record.
	StrategyExternalID Strategy = "external_id"
)

// ParseStrategy converts a config string into a known Strategy.
func ParseStrategy(value string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(value))) {
	case StrategyHash:
		return StrategyHash, nil
	case StrategyExternalID:
		return StrategyExternalID, nil
	default:
		return "", services.Wrap(services.ErrConfiguration, "identity", "parse strategy",
			fmt.Sprintf("unknown strategy %q", value), nil)
	}
}

// Identity is the stable key a recording is tracked under. PrimaryKey is the
// tracking key; DisplayName is presentation-only and never compared.
type Identity struct {
	PrimaryKey  string
	DisplayName string
}

// Input describes a discovered recording for identity computation.
type Input struct {
	ExternalID string
	Name       string
	Path       string
}

// Compute derives an Identity from an input using the given strategy.
// An unreadable file is an identity error; an empty file is valid and hashes
// to the empty-input digest.
func Compute(strategy Strategy, in Input) (Identity, error) {
	display := NormalizeDisplayName(in.Name)
	switch strategy {
	case StrategyHash:
		sum, err := HashFile(in.Path)
		if err != nil {
			return Identity{}, err
		}
		return Identity{PrimaryKey: sum, DisplayName: display}, nil
	case StrategyExternalID:
		// The key doubles as the artifact directory name, so scrub
		// filesystem-unsafe characters from source-provided ids.
		id := textutil.SanitizeFileName(in.ExternalID)
		if id == "" {
			return Identity{}, services.Wrap(services.ErrIdentity, "identity", "external id",
				"candidate has no external id", nil)
		}
		return Identity{PrimaryKey: id, DisplayName: display}, nil
	default:
		return Identity{}, services.Wrap(services.ErrConfiguration, "identity", "compute",
			fmt.Sprintf("unknown strategy %q", strategy), nil)
	}
}

// HashFile computes the SHA-256 digest of a file's bytes.
func HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrIdentity, "identity", "open input", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", services.Wrap(services.ErrIdentity, "identity", "read input", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
