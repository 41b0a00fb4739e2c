package tracker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RecordStageComplete appends a stage checkpoint and merges the metadata
// patch. Recording the same stage twice is a no-op on the second call, so
// stage work that straddles a crash can be re-recorded safely.
func (s *Store) RecordStageComplete(ctx context.Context, identity, stage, outputRef string, metadataPatch map[string]string) error {
	if stage == "" {
		return storeErr("record stage", fmt.Errorf("stage name is required"))
	}
	ctx = ensureContext(ctx)
	err := retryOnBusy(ctx, func() error {
		return s.appendCompletion(ctx, identity, stage, outputRef, metadataPatch)
	})
	if err != nil {
		return storeErr("record stage", err)
	}
	return nil
}

func (s *Store) appendCompletion(ctx context.Context, identity, stage, outputRef string, metadataPatch map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var completionsRaw, metadataRaw sql.NullString
	row := tx.QueryRowContext(ctx,
		`SELECT stage_completions, metadata FROM tracking_records WHERE identity = ?`, identity)
	if err := row.Scan(&completionsRaw, &metadataRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no record for identity %q", identity)
		}
		return fmt.Errorf("read record: %w", err)
	}

	var completions []StageCompletion
	if completionsRaw.Valid && completionsRaw.String != "" {
		if err := json.Unmarshal([]byte(completionsRaw.String), &completions); err != nil {
			return fmt.Errorf("decode stage completions: %w", err)
		}
	}
	for _, c := range completions {
		if c.Stage == stage {
			return nil
		}
	}
	completions = append(completions, StageCompletion{
		Stage:       stage,
		CompletedAt: time.Now().UTC(),
		OutputRef:   outputRef,
	})

	metadata := map[string]string{}
	if metadataRaw.Valid && metadataRaw.String != "" {
		if err := json.Unmarshal([]byte(metadataRaw.String), &metadata); err != nil {
			return fmt.Errorf("decode metadata: %w", err)
		}
	}
	for key, value := range metadataPatch {
		metadata[key] = value
	}

	completionsJSON, err := json.Marshal(completions)
	if err != nil {
		return fmt.Errorf("encode stage completions: %w", err)
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`UPDATE tracking_records
         SET stage_completions = ?, metadata = ?, last_heartbeat = ?, updated_at = ?
         WHERE identity = ?`,
		string(completionsJSON), string(metadataJSON), now, now, identity,
	); err != nil {
		return fmt.Errorf("update record: %w", err)
	}

	return tx.Commit()
}

// RecordFailure marks a record failed and stores the error. Completed stage
// checkpoints are preserved so a retry re-runs only the remaining stages.
func (s *Store) RecordFailure(ctx context.Context, identity string, failure error) error {
	message := ""
	if failure != nil {
		message = failure.Error()
	}
	ctx = ensureContext(ctx)
	err := retryOnBusy(ctx, func() error {
		return s.markFailed(ctx, identity, message)
	})
	if err != nil {
		return storeErr("record failure", err)
	}
	return nil
}

func (s *Store) markFailed(ctx context.Context, identity, message string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var metadataRaw sql.NullString
	row := tx.QueryRowContext(ctx, `SELECT metadata FROM tracking_records WHERE identity = ?`, identity)
	if err := row.Scan(&metadataRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no record for identity %q", identity)
		}
		return fmt.Errorf("read record: %w", err)
	}

	metadata := map[string]string{}
	if metadataRaw.Valid && metadataRaw.String != "" {
		if err := json.Unmarshal([]byte(metadataRaw.String), &metadata); err != nil {
			return fmt.Errorf("decode metadata: %w", err)
		}
	}
	metadata["error"] = message
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`UPDATE tracking_records
         SET status = ?, error_message = ?, metadata = ?, last_heartbeat = NULL, updated_at = ?
         WHERE identity = ?`,
		StatusFailed, nullableString(message), string(metadataJSON), now, identity,
	); err != nil {
		return fmt.Errorf("update record: %w", err)
	}

	return tx.Commit()
}

// RecordSuccess marks a record completed.
func (s *Store) RecordSuccess(ctx context.Context, identity string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE tracking_records
         SET status = ?, error_message = NULL, last_heartbeat = NULL, updated_at = ?
         WHERE identity = ?`,
		StatusCompleted,
		now,
		identity,
	)
	if err != nil {
		return storeErr("record success", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storeErr("record success", err)
	}
	if affected == 0 {
		return storeErr("record success", fmt.Errorf("no record for identity %q", identity))
	}
	return nil
}

// StageCompletionFor returns the recorded completion for a stage, if any.
func (s *Store) StageCompletionFor(ctx context.Context, identity, stage string) (*StageCompletion, error) {
	record, err := s.Get(ctx, identity)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	if completion, ok := record.CompletionFor(stage); ok {
		return &completion, nil
	}
	return nil, nil
}

// IsStageDone reports whether a stage checkpoint exists for an identity.
func (s *Store) IsStageDone(ctx context.Context, identity, stage string) (bool, error) {
	completion, err := s.StageCompletionFor(ctx, identity, stage)
	if err != nil {
		return false, err
	}
	return completion != nil, nil
}
