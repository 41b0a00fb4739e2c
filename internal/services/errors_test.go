package services_test

import (
	"errors"
	"strings"
	"testing"

	"scribe/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "extract_audio", "ffmpeg", "exit 1", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"extract_audio", "ffmpeg", "exit 1"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "transcribe", "upload", "timeout", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	storeErr := services.Wrap(services.ErrTrackingStore, "tracker", "claim", "disk full", nil)
	if !services.IsFatal(storeErr) {
		t.Fatal("expected tracking store error to be fatal")
	}
	stageErr := services.Wrap(services.ErrStageExecution, "download", "copy", "io", nil)
	if services.IsFatal(stageErr) {
		t.Fatal("expected stage error to be non-fatal")
	}
}
