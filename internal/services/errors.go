package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIdentity marks failures to compute a content identity. Fatal for the
	// candidate only; no tracking record is created.
	ErrIdentity = errors.New("identity error")
	// ErrTrackingStore marks tracking-store failures. Fatal for the whole
	// process: a lost tracker write can cause double-processing or a
	// permanent skip, so callers must propagate rather than swallow it.
	ErrTrackingStore = errors.New("tracking store error")
	// ErrStageExecution marks stage work failures (network, subprocess, API).
	ErrStageExecution = errors.New("stage execution error")
	// ErrExternalTool marks subprocess failures from external binaries.
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks invalid input or state.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks configuration problems.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks retryable failures without a more specific class.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error must terminate the process rather than
// fail a single candidate.
func IsFatal(err error) bool {
	return errors.Is(err, ErrTrackingStore)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
