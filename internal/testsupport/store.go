package testsupport

import (
	"context"
	"slices"
	"testing"

	"tali/internal/config"
	"tali/internal/record"
	"tali/internal/store"
)

// MustOpenStore opens the configured split's store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg, "")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedRecords imports records into st and fails the test on error.
func SeedRecords(t testing.TB, st *store.Store, records ...record.Raw) {
	t.Helper()

	n, err := st.Import(context.Background(), func(yield func(record.Raw, error) bool) {
		for _, raw := range slices.Clone(records) {
			if !yield(raw, nil) {
				return
			}
		}
	}, store.ImportOptions{})
	if err != nil {
		t.Fatalf("store.Import: %v", err)
	}
	if n != len(records) {
		t.Fatalf("store.Import imported %d of %d records", n, len(records))
	}
}
