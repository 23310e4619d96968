package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tali/internal/config"
	"tali/internal/failures"
	"tali/internal/record"
)

// Store holds the records of one split backed by SQLite. Records are
// addressed by their dense 0-based position.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

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

// Open connects to the store of the named split, creating it when missing.
// An empty setName selects dataset.set_name.
func Open(cfg *config.Config, setName string) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, failures.Wrap(failures.ErrStore, "store", "open", "ensure directories", err)
	}
	return OpenPath(cfg.StorePath(setName))
}

// OpenPath connects to the store at path.
func OpenPath(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, failures.Wrap(failures.ErrStore, "store", "open", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, failures.Wrap(failures.ErrStore, "store", "open", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, failures.Wrap(failures.ErrStore, "store", "open", fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, failures.Wrap(failures.ErrStore, "store", "open", "schema", err)
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
func (s *Store) Path() string { return s.path }

// Len returns the number of stored records.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM records").Scan(&n)
	})
	if err != nil {
		return 0, failures.Wrap(failures.ErrStore, "store", "len", "", err)
	}
	return n, nil
}

// Get returns the record at position idx.
func (s *Store) Get(ctx context.Context, idx int) (record.Raw, error) {
	var payload []byte
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT payload FROM records WHERE position = ?", idx).Scan(&payload)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return record.Raw{}, failures.Wrap(failures.ErrStore, "store", "get", fmt.Sprintf("no record at position %d", idx), nil)
	}
	if err != nil {
		return record.Raw{}, failures.Wrap(failures.ErrStore, "store", "get", fmt.Sprintf("position %d", idx), err)
	}
	raw, err := record.Decode(payload)
	if err != nil {
		return record.Raw{}, failures.Wrap(failures.ErrStore, "store", "get", fmt.Sprintf("position %d", idx), err)
	}
	return raw, nil
}

// FindByWitIdx returns the position of the first record with the given WIT
// index, or -1.
func (s *Store) FindByWitIdx(ctx context.Context, witIdx int64) (int, error) {
	var position int
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT position FROM records WHERE wit_idx = ? ORDER BY position LIMIT 1", witIdx).Scan(&position)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return -1, nil
	}
	if err != nil {
		return -1, failures.Wrap(failures.ErrStore, "store", "find", fmt.Sprintf("wit_idx %d", witIdx), err)
	}
	return position, nil
}
