package testsupport

import (
	"context"
	"testing"

	"scribe/internal/config"
	"scribe/internal/tracker"
)

// MustOpenTracker opens a tracker.Store for tests and registers cleanup.
func MustOpenTracker(t testing.TB, cfg *config.Config) *tracker.Store {
	t.Helper()

	store, err := tracker.Open(cfg)
	if err != nil {
		t.Fatalf("tracker.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustClaim claims an identity for tests and fails unless the claim succeeds.
func MustClaim(t testing.TB, store *tracker.Store, identity, displayName string) *tracker.Record {
	t.Helper()

	result, err := store.Claim(context.Background(), identity, displayName)
	if err != nil {
		t.Fatalf("store.Claim: %v", err)
	}
	if !result.Claimed {
		t.Fatalf("expected claim for %q, refused with %s", identity, result.Reason)
	}
	return result.Record
}
