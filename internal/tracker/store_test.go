package tracker_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"scribe/internal/services"
	"scribe/internal/testsupport"
	"scribe/internal/tracker"
)

func TestRecordStageCompleteIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenTracker(t, cfg)

	ctx := context.Background()
	testsupport.MustClaim(t, store, "sha256:abc", "Session")

	if err := store.RecordStageComplete(ctx, "sha256:abc", "download", "meeting.mp4", map[string]string{"source": "drive"}); err != nil {
		t.Fatalf("RecordStageComplete: %v", err)
	}
	if err := store.RecordStageComplete(ctx, "sha256:abc", "download", "meeting-other.mp4", nil); err != nil {
		t.Fatalf("repeat RecordStageComplete: %v", err)
	}
	if err := store.RecordStageComplete(ctx, "sha256:abc", "extract_audio", "audio.wav", nil); err != nil {
		t.Fatalf("RecordStageComplete second stage: %v", err)
	}

	record, err := store.Get(ctx, "sha256:abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(record.StageCompletions) != 2 {
		t.Fatalf("expected 2 completions, got %d", len(record.StageCompletions))
	}
	download, ok := record.CompletionFor("download")
	if !ok {
		t.Fatal("expected download completion")
	}
	if download.OutputRef != "meeting.mp4" {
		t.Fatalf("expected first recording to win, got %q", download.OutputRef)
	}
	if got := record.StageNames(); got[0] != "download" || got[1] != "extract_audio" {
		t.Fatalf("expected execution order preserved, got %v", got)
	}
	if record.Metadata["source"] != "drive" {
		t.Fatalf("expected metadata merged, got %v", record.Metadata)
	}
}

func TestRecordStageCompleteUnknownIdentity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenTracker(t, cfg)

	err := store.RecordStageComplete(context.Background(), "sha256:missing", "download", "", nil)
	if err == nil {
		t.Fatal("expected error for unknown identity")
	}
	if !errors.Is(err, services.ErrTrackingStore) {
		t.Fatalf("expected tracking store error, got %v", err)
	}
}

func TestRecordFailurePreservesCheckpoints(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenTracker(t, cfg)

	ctx := context.Background()
	testsupport.MustClaim(t, store, "sha256:abc", "Session")
	if err := store.RecordStageComplete(ctx, "sha256:abc", "download", "meeting.mp4", nil); err != nil {
		t.Fatalf("RecordStageComplete: %v", err)
	}
	if err := store.RecordFailure(ctx, "sha256:abc", errors.New("transcription service unavailable")); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}

	record, err := store.Get(ctx, "sha256:abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record.Status != tracker.StatusFailed {
		t.Fatalf("expected failed, got %s", record.Status)
	}
	if record.ErrorMessage != "transcription service unavailable" {
		t.Fatalf("unexpected error message %q", record.ErrorMessage)
	}
	if record.Metadata["error"] != "transcription service unavailable" {
		t.Fatalf("expected error captured in metadata, got %v", record.Metadata)
	}
	if record.LastHeartbeat != nil {
		t.Fatal("expected heartbeat cleared on failure")
	}
	if _, ok := record.CompletionFor("download"); !ok {
		t.Fatal("expected stage checkpoint preserved through failure")
	}
}

func TestRecordSuccess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenTracker(t, cfg)

	ctx := context.Background()
	testsupport.MustClaim(t, store, "sha256:abc", "Session")
	if err := store.RecordSuccess(ctx, "sha256:abc"); err != nil {
		t.Fatalf("RecordSuccess: %v", err)
	}

	record, err := store.Get(ctx, "sha256:abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record.Status != tracker.StatusCompleted {
		t.Fatalf("expected completed, got %s", record.Status)
	}
	if record.LastHeartbeat != nil {
		t.Fatal("expected heartbeat cleared on success")
	}

	if err := store.RecordSuccess(ctx, "sha256:missing"); err == nil {
		t.Fatal("expected error for unknown identity")
	}
}

func TestIsStageDone(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenTracker(t, cfg)

	ctx := context.Background()
	testsupport.MustClaim(t, store, "sha256:abc", "Session")
	if err := store.RecordStageComplete(ctx, "sha256:abc", "download", "meeting.mp4", nil); err != nil {
		t.Fatalf("RecordStageComplete: %v", err)
	}

	done, err := store.IsStageDone(ctx, "sha256:abc", "download")
	if err != nil {
		t.Fatalf("IsStageDone: %v", err)
	}
	if !done {
		t.Fatal("expected download stage done")
	}
	done, err = store.IsStageDone(ctx, "sha256:abc", "transcribe")
	if err != nil {
		t.Fatalf("IsStageDone: %v", err)
	}
	if done {
		t.Fatal("expected transcribe stage not done")
	}
	done, err = store.IsStageDone(ctx, "sha256:other", "download")
	if err != nil {
		t.Fatalf("IsStageDone unknown identity: %v", err)
	}
	if done {
		t.Fatal("expected unknown identity to report no stages done")
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenTracker(t, cfg)

	record, err := store.Get(context.Background(), "sha256:missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil record, got %#v", record)
	}
}

func TestListSupportsStatusFilter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenTracker(t, cfg)

	ctx := context.Background()
	testsupport.MustClaim(t, store, "id-a", "A")
	testsupport.MustClaim(t, store, "id-b", "B")
	testsupport.MustClaim(t, store, "id-c", "C")
	if err := store.RecordSuccess(ctx, "id-b"); err != nil {
		t.Fatalf("RecordSuccess: %v", err)
	}
	if err := store.RecordFailure(ctx, "id-c", errors.New("boom")); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	if all[0].Identity != "id-a" || all[1].Identity != "id-b" || all[2].Identity != "id-c" {
		t.Fatalf("expected creation order, got %s,%s,%s", all[0].Identity, all[1].Identity, all[2].Identity)
	}

	filtered, err := store.List(ctx, tracker.StatusCompleted, tracker.StatusFailed)
	if err != nil {
		t.Fatalf("filtered List: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 records, got %d", len(filtered))
	}
	if filtered[0].Identity != "id-b" || filtered[1].Identity != "id-c" {
		t.Fatalf("unexpected filtered order: %s,%s", filtered[0].Identity, filtered[1].Identity)
	}

	failed, err := store.ByStatus(ctx, tracker.StatusFailed)
	if err != nil {
		t.Fatalf("ByStatus: %v", err)
	}
	if len(failed) != 1 || failed[0].Identity != "id-c" {
		t.Fatalf("unexpected failed set: %#v", failed)
	}
}

func TestStatsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenTracker(t, cfg)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		testsupport.MustClaim(t, store, fmt.Sprintf("id-%d", i), fmt.Sprintf("Session %d", i))
	}
	if err := store.RecordSuccess(ctx, "id-0"); err != nil {
		t.Fatalf("RecordSuccess: %v", err)
	}
	if err := store.RecordFailure(ctx, "id-1", errors.New("boom")); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[tracker.StatusCompleted] != 1 || stats[tracker.StatusFailed] != 1 || stats[tracker.StatusInProgress] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 3 || health.Completed != 1 || health.Failed != 1 || health.InProgress != 1 {
		t.Fatalf("unexpected health summary: %+v", health)
	}
}

func TestRetryFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenTracker(t, cfg)

	ctx := context.Background()
	testsupport.MustClaim(t, store, "id-a", "A")
	testsupport.MustClaim(t, store, "id-b", "B")
	for _, id := range []string{"id-a", "id-b"} {
		if err := store.RecordFailure(ctx, id, errors.New("boom")); err != nil {
			t.Fatalf("RecordFailure %s: %v", id, err)
		}
	}

	updated, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed all: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 records retried, got %d", updated)
	}
	record, err := store.Get(ctx, "id-a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record.Status != tracker.StatusPending {
		t.Fatalf("expected pending, got %s", record.Status)
	}
	if record.ErrorMessage != "" {
		t.Fatalf("expected error cleared, got %q", record.ErrorMessage)
	}

	// Fail B again and retry only B.
	testsupport.MustClaim(t, store, "id-b", "B")
	if err := store.RecordFailure(ctx, "id-b", errors.New("boom again")); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	updated, err = store.RetryFailed(ctx, "id-b")
	if err != nil {
		t.Fatalf("RetryFailed targeted: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 record retried, got %d", updated)
	}
}

func TestRemoveAndClearCompleted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenTracker(t, cfg)

	ctx := context.Background()
	testsupport.MustClaim(t, store, "id-a", "A")
	testsupport.MustClaim(t, store, "id-b", "B")
	if err := store.RecordSuccess(ctx, "id-a"); err != nil {
		t.Fatalf("RecordSuccess: %v", err)
	}

	removed, err := store.Remove(ctx, "id-missing")
	if err != nil {
		t.Fatalf("Remove missing: %v", err)
	}
	if removed {
		t.Fatal("expected no removal for unknown identity")
	}

	cleared, err := store.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("expected 1 record cleared, got %d", cleared)
	}

	removed, err = store.Remove(ctx, "id-b")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Fatal("expected id-b removed")
	}

	remaining, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected empty store, got %d records", len(remaining))
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := tracker.ParseStatus(" Failed "); !ok || status != tracker.StatusFailed {
		t.Fatalf("expected failed, got %q ok=%v", status, ok)
	}
	if _, ok := tracker.ParseStatus("exploded"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if _, ok := tracker.ParseStatus(""); ok {
		t.Fatal("expected empty status to be rejected")
	}
}
