package tracker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"scribe/internal/config"
	"scribe/internal/services"
)

// Store manages processing-tracker persistence backed by SQLite.
type Store struct {
	db         *sql.DB
	path       string
	staleAfter time.Duration
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the tracker database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "tracker.db")
	store, err := OpenPath(dbPath, time.Duration(cfg.Workflow.StaleClaimTimeout)*time.Second)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// OpenPath opens the tracker database at an explicit path with the given
// stale-claim threshold.
func OpenPath(dbPath string, staleAfter time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, staleAfter: staleAfter}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// storeErr tags storage failures so callers can recognize them as fatal.
func storeErr(operation string, err error) error {
	return services.Wrap(services.ErrTrackingStore, "tracker", operation, "", err)
}

const recordColumns = "identity, display_name, status, attempt_count, stage_completions, metadata, error_message, last_heartbeat, created_at, updated_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		identityVal      string
		displayName      sql.NullString
		statusStr        string
		attemptCount     int
		completionsRaw   sql.NullString
		metadataRaw      sql.NullString
		errorMessage     sql.NullString
		lastHeartbeatRaw sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
	)

	if err := scanner.Scan(
		&identityVal,
		&displayName,
		&statusStr,
		&attemptCount,
		&completionsRaw,
		&metadataRaw,
		&errorMessage,
		&lastHeartbeatRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	record := &Record{
		Identity:     identityVal,
		DisplayName:  displayName.String,
		Status:       Status(statusStr),
		AttemptCount: attemptCount,
		Metadata:     map[string]string{},
		ErrorMessage: errorMessage.String,
	}

	if completionsRaw.Valid && completionsRaw.String != "" {
		if err := json.Unmarshal([]byte(completionsRaw.String), &record.StageCompletions); err != nil {
			return nil, fmt.Errorf("decode stage completions for %q: %w", identityVal, err)
		}
	}
	if metadataRaw.Valid && metadataRaw.String != "" {
		if err := json.Unmarshal([]byte(metadataRaw.String), &record.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %q: %w", identityVal, err)
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		record.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			record.LastHeartbeat = &heartbeat
		}
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
