package tracker

import (
	"context"
	"fmt"
	"time"
)

// Claim atomically grants exclusive processing rights for an identity.
//
// A fresh identity gets a new in_progress record with attempt_count 1. An
// existing pending or failed record transitions to in_progress with the
// attempt count incremented; completed stage checkpoints survive. An
// in_progress record whose updated_at is older than the stale-claim threshold
// is treated as abandoned by a crashed run and is taken over the same way.
// Anything else refuses the claim with the blocking status.
//
// Both mutations are single guarded statements, so two racing claimers see
// exactly one success regardless of interleaving.
func (s *Store) Claim(ctx context.Context, identity, displayName string) (ClaimResult, error) {
	if identity == "" {
		return ClaimResult{}, storeErr("claim", fmt.Errorf("identity is required"))
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO tracking_records (
            identity, display_name, status, attempt_count,
            stage_completions, metadata, last_heartbeat, created_at, updated_at
        ) VALUES (?, ?, ?, 1, '[]', '{}', ?, ?, ?)
        ON CONFLICT(identity) DO NOTHING`,
		identity,
		nullableString(displayName),
		StatusInProgress,
		timestamp,
		timestamp,
		timestamp,
	)
	if err != nil {
		return ClaimResult{}, storeErr("claim insert", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return ClaimResult{}, storeErr("claim insert", err)
	} else if affected == 1 {
		return s.claimedResult(ctx, identity)
	}

	cutoff := now.Add(-s.staleAfter).Format(time.RFC3339Nano)
	res, err = s.execWithRetry(
		ctx,
		`UPDATE tracking_records
         SET status = ?, attempt_count = attempt_count + 1, error_message = NULL,
             last_heartbeat = ?, updated_at = ?
         WHERE identity = ?
           AND (status IN (?, ?) OR (status = ? AND updated_at < ?))`,
		StatusInProgress,
		timestamp,
		timestamp,
		identity,
		StatusPending,
		StatusFailed,
		StatusInProgress,
		cutoff,
	)
	if err != nil {
		return ClaimResult{}, storeErr("claim update", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return ClaimResult{}, storeErr("claim update", err)
	} else if affected == 1 {
		return s.claimedResult(ctx, identity)
	}

	record, err := s.Get(ctx, identity)
	if err != nil {
		return ClaimResult{}, err
	}
	if record == nil {
		// Record vanished between statements; treat as contended.
		return ClaimResult{Claimed: false, Reason: ReasonAlreadyInProgress}, nil
	}
	reason := ReasonAlreadyInProgress
	if record.Status == StatusCompleted {
		reason = ReasonAlreadyCompleted
	}
	return ClaimResult{Claimed: false, Reason: reason, Record: record}, nil
}

func (s *Store) claimedResult(ctx context.Context, identity string) (ClaimResult, error) {
	record, err := s.Get(ctx, identity)
	if err != nil {
		return ClaimResult{}, err
	}
	if record == nil {
		return ClaimResult{}, storeErr("claim readback", fmt.Errorf("record %q missing after claim", identity))
	}
	return ClaimResult{Claimed: true, Record: record}, nil
}

// Touch refreshes the heartbeat of a claimed record so the claim is not
// considered stale during long-running stage work.
func (s *Store) Touch(ctx context.Context, identity string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(
		ctx,
		`UPDATE tracking_records SET last_heartbeat = ?, updated_at = ? WHERE identity = ? AND status = ?`,
		now,
		now,
		identity,
		StatusInProgress,
	)
	if err != nil {
		return storeErr("touch", err)
	}
	return nil
}

// ReclaimStale returns abandoned in_progress records to pending so status
// queries reflect reality between claims. Claim also takes stale records over
// directly; this pass exists for records nobody re-submits.
func (s *Store) ReclaimStale(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-s.staleAfter).Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE tracking_records
         SET status = ?, last_heartbeat = NULL, updated_at = ?
         WHERE status = ? AND updated_at < ?`,
		StatusPending,
		now.Format(time.RFC3339Nano),
		StatusInProgress,
		cutoff,
	)
	if err != nil {
		return 0, storeErr("reclaim stale", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("reclaim stale", err)
	}
	return affected, nil
}
