package tracker

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Get reads the current record for an identity, or nil when none exists.
func (s *Store) Get(ctx context.Context, identity string) (*Record, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+recordColumns+` FROM tracking_records WHERE identity = ?`, identity)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get", err)
	}
	return record, nil
}

// ByStatus returns records matching a status ordered by creation time.
func (s *Store) ByStatus(ctx context.Context, status Status) ([]*Record, error) {
	return s.list(ctx, `SELECT `+recordColumns+` FROM tracking_records WHERE status = ? ORDER BY created_at`, status)
}

// List returns records filtered by status set (or all records when no status
// is provided), ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Record, error) {
	if len(statuses) == 0 {
		return s.list(ctx, `SELECT `+recordColumns+` FROM tracking_records ORDER BY created_at`)
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	return s.list(ctx,
		`SELECT `+recordColumns+` FROM tracking_records WHERE status IN (`+placeholders+`) ORDER BY created_at`,
		args...)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*Record, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, storeErr("list", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, storeErr("list", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list", err)
	}
	return records, nil
}

// Stats returns a count of records grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT status, COUNT(1) FROM tracking_records GROUP BY status`)
	if err != nil {
		return nil, storeErr("stats", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, storeErr("stats", err)
		}
		stats[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("stats", err)
	}
	return stats, nil
}

// Health aggregates record state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusInProgress:
			health.InProgress += count
		case StatusCompleted:
			health.Completed += count
		case StatusFailed:
			health.Failed += count
		}
	}
	return health, nil
}

// RetryFailed moves failed records back to pending for reprocessing. With no
// identities, all failed records are retried.
func (s *Store) RetryFailed(ctx context.Context, identities ...string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if len(identities) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE tracking_records
             SET status = ?, error_message = NULL, updated_at = ?
             WHERE status = ?`,
			StatusPending, now, StatusFailed,
		)
		if err != nil {
			return 0, storeErr("retry failed", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, storeErr("retry failed", err)
		}
		return affected, nil
	}

	placeholders := makePlaceholders(len(identities))
	args := make([]any, 0, len(identities)+3)
	args = append(args, StatusPending, now)
	for _, id := range identities {
		args = append(args, id)
	}
	args = append(args, StatusFailed)
	res, err := s.execWithRetry(ctx,
		`UPDATE tracking_records
         SET status = ?, error_message = NULL, updated_at = ?
         WHERE identity IN (`+placeholders+`) AND status = ?`,
		args...)
	if err != nil {
		return 0, storeErr("retry failed", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("retry failed", err)
	}
	return affected, nil
}

// Remove deletes a record by identity.
func (s *Store) Remove(ctx context.Context, identity string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM tracking_records WHERE identity = ?`, identity)
	if err != nil {
		return false, storeErr("remove", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, storeErr("remove", err)
	}
	return affected > 0, nil
}

// ClearCompleted removes only completed records.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM tracking_records WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, storeErr("clear completed", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("clear completed", err)
	}
	return affected, nil
}
