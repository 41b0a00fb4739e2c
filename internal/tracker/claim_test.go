package tracker_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"scribe/internal/testsupport"
	"scribe/internal/tracker"
)

func TestClaimNewIdentity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenTracker(t, cfg)

	ctx := context.Background()
	result, err := store.Claim(ctx, "sha256:abc", "Session One")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !result.Claimed {
		t.Fatalf("expected claim granted, refused with %s", result.Reason)
	}
	if result.Record == nil {
		t.Fatal("expected record on claim result")
	}
	if result.Record.Status != tracker.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", result.Record.Status)
	}
	if result.Record.AttemptCount != 1 {
		t.Fatalf("expected attempt 1, got %d", result.Record.AttemptCount)
	}
	if result.Record.DisplayName != "Session One" {
		t.Fatalf("unexpected display name %q", result.Record.DisplayName)
	}
	if result.Record.LastHeartbeat == nil {
		t.Fatal("expected heartbeat set on claim")
	}
}

func TestClaimRefusesActiveRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenTracker(t, cfg)

	ctx := context.Background()
	testsupport.MustClaim(t, store, "sha256:abc", "Session")

	second, err := store.Claim(ctx, "sha256:abc", "Session")
	if err != nil {
		t.Fatalf("second Claim: %v", err)
	}
	if second.Claimed {
		t.Fatal("expected second claim refused while first is active")
	}
	if second.Reason != tracker.ReasonAlreadyInProgress {
		t.Fatalf("expected already_in_progress, got %s", second.Reason)
	}
}

func TestClaimRefusesCompletedRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenTracker(t, cfg)

	ctx := context.Background()
	testsupport.MustClaim(t, store, "sha256:abc", "Session")
	if err := store.RecordSuccess(ctx, "sha256:abc"); err != nil {
		t.Fatalf("RecordSuccess: %v", err)
	}

	result, err := store.Claim(ctx, "sha256:abc", "Session")
	if err != nil {
		t.Fatalf("Claim after completion: %v", err)
	}
	if result.Claimed {
		t.Fatal("expected claim refused for completed record")
	}
	if result.Reason != tracker.ReasonAlreadyCompleted {
		t.Fatalf("expected already_completed, got %s", result.Reason)
	}
}

func TestClaimResumesFailedRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenTracker(t, cfg)

	ctx := context.Background()
	testsupport.MustClaim(t, store, "sha256:abc", "Session")
	if err := store.RecordStageComplete(ctx, "sha256:abc", "download", "meeting.mp4", nil); err != nil {
		t.Fatalf("RecordStageComplete: %v", err)
	}
	if err := store.RecordFailure(ctx, "sha256:abc", context.DeadlineExceeded); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}

	result, err := store.Claim(ctx, "sha256:abc", "Session")
	if err != nil {
		t.Fatalf("Claim after failure: %v", err)
	}
	if !result.Claimed {
		t.Fatalf("expected failed record reclaimed, refused with %s", result.Reason)
	}
	if result.Record.AttemptCount != 2 {
		t.Fatalf("expected attempt 2, got %d", result.Record.AttemptCount)
	}
	if result.Record.ErrorMessage != "" {
		t.Fatalf("expected error cleared, got %q", result.Record.ErrorMessage)
	}
	if _, ok := result.Record.CompletionFor("download"); !ok {
		t.Fatal("expected completed stage preserved across retry")
	}
}

func TestClaimConcurrentSingleWinner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenTracker(t, cfg)

	const claimers = 8
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]tracker.ClaimResult, claimers)
	errs := make([]error, claimers)
	start := make(chan struct{})
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			results[idx], errs[idx] = store.Claim(ctx, "sha256:contended", "Contended")
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for i := 0; i < claimers; i++ {
		if errs[i] != nil {
			t.Fatalf("claimer %d: %v", i, errs[i])
		}
		if results[i].Claimed {
			winners++
		} else if results[i].Reason != tracker.ReasonAlreadyInProgress {
			t.Fatalf("claimer %d: unexpected refusal reason %s", i, results[i].Reason)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}

	record, err := store.Get(ctx, "sha256:contended")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record.AttemptCount != 1 {
		t.Fatalf("expected single attempt recorded, got %d", record.AttemptCount)
	}
}

func TestClaimTakesOverStaleRecord(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tracker.db")
	store, err := tracker.OpenPath(dbPath, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	testsupport.MustClaim(t, store, "sha256:stale", "Stale Session")

	time.Sleep(150 * time.Millisecond)

	result, err := store.Claim(ctx, "sha256:stale", "Stale Session")
	if err != nil {
		t.Fatalf("Claim stale: %v", err)
	}
	if !result.Claimed {
		t.Fatalf("expected stale claim taken over, refused with %s", result.Reason)
	}
	if result.Record.AttemptCount != 2 {
		t.Fatalf("expected attempt 2 after takeover, got %d", result.Record.AttemptCount)
	}
}

func TestTouchKeepsClaimFresh(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tracker.db")
	store, err := tracker.OpenPath(dbPath, 200*time.Millisecond)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	testsupport.MustClaim(t, store, "sha256:fresh", "Fresh Session")

	// Heartbeat twice across what would otherwise be the stale window.
	for i := 0; i < 2; i++ {
		time.Sleep(120 * time.Millisecond)
		if err := store.Touch(ctx, "sha256:fresh"); err != nil {
			t.Fatalf("Touch: %v", err)
		}
	}

	result, err := store.Claim(ctx, "sha256:fresh", "Fresh Session")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if result.Claimed {
		t.Fatal("expected touched claim to stay exclusive")
	}
	if result.Reason != tracker.ReasonAlreadyInProgress {
		t.Fatalf("expected already_in_progress, got %s", result.Reason)
	}
}

func TestReclaimStale(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tracker.db")
	store, err := tracker.OpenPath(dbPath, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	testsupport.MustClaim(t, store, "sha256:abandoned", "Abandoned")

	time.Sleep(150 * time.Millisecond)

	count, err := store.ReclaimStale(ctx)
	if err != nil {
		t.Fatalf("ReclaimStale: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record reclaimed, got %d", count)
	}

	record, err := store.Get(ctx, "sha256:abandoned")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record.Status != tracker.StatusPending {
		t.Fatalf("expected pending after reclaim, got %s", record.Status)
	}
	if record.LastHeartbeat != nil {
		t.Fatalf("expected heartbeat cleared, got %v", record.LastHeartbeat)
	}
}

func TestClaimRequiresIdentity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenTracker(t, cfg)

	if _, err := store.Claim(context.Background(), "", "No Identity"); err == nil {
		t.Fatal("expected error for empty identity")
	}
}
