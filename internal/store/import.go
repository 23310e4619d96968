package store

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"time"

	"github.com/gofrs/flock"

	"tali/internal/failures"
	"tali/internal/record"
)

const importBatchSize = 256

// ImportOptions tunes Import.
type ImportOptions struct {
	// Replace removes existing records before importing.
	Replace bool
	// Progress is called every importBatchSize staged records and once after
	// commit with the running total.
	Progress func(imported int)
}

// Import appends records at the next free positions, or replaces the split
// when opts.Replace is set. The whole import is one transaction: a read or
// insert failure rolls back and leaves the previous records untouched. A lock
// file next to the database prevents concurrent imports into the same split.
func (s *Store) Import(ctx context.Context, records iter.Seq2[record.Raw, error], opts ImportOptions) (int, error) {
	lock := flock.New(s.path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return 0, failures.Wrap(failures.ErrStore, "store", "import", "acquire lock", err)
	}
	if !ok {
		return 0, failures.Wrap(failures.ErrStore, "store", "import", fmt.Sprintf("another import into %s is running", s.path), nil)
	}
	defer func() { _ = lock.Unlock() }()

	tx, next, err := s.beginImport(ctx, opts.Replace)
	if err != nil {
		return 0, failures.Wrap(failures.ErrStore, "store", "import", "begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO records (position, wit_idx, payload, imported_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, failures.Wrap(failures.ErrStore, "store", "import", "prepare insert", err)
	}
	defer stmt.Close()

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	imported := 0
	for raw, readErr := range records {
		if readErr != nil {
			return 0, failures.Wrap(failures.ErrStore, "store", "import", "read", readErr)
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		payload, err := record.Encode(raw)
		if err != nil {
			return 0, failures.Wrap(failures.ErrStore, "store", "import", fmt.Sprintf("wit_idx %d", raw.WitIdx), err)
		}
		if _, err := stmt.ExecContext(ctx, next+imported, raw.WitIdx, payload, timestamp); err != nil {
			return 0, failures.Wrap(failures.ErrStore, "store", "import", fmt.Sprintf("insert at %d", next+imported), err)
		}
		imported++
		if imported%importBatchSize == 0 && opts.Progress != nil {
			opts.Progress(imported)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, failures.Wrap(failures.ErrStore, "store", "import", "commit", err)
	}
	if imported%importBatchSize != 0 && opts.Progress != nil {
		opts.Progress(imported)
	}
	return imported, nil
}

// beginImport opens the import transaction and takes the write lock with its
// first statement: the delete in replace mode, else the position count.
func (s *Store) beginImport(ctx context.Context, replace bool) (*sql.Tx, int, error) {
	var tx *sql.Tx
	next := 0
	err := retryOnBusy(ctx, func() error {
		candidate, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if replace {
			_, err = candidate.ExecContext(ctx, "DELETE FROM records")
		} else {
			err = candidate.QueryRowContext(ctx, "SELECT COUNT(1) FROM records").Scan(&next)
		}
		if err != nil {
			_ = candidate.Rollback()
			return err
		}
		tx = candidate
		return nil
	})
	return tx, next, err
}
