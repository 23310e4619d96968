// Package store persists raw TALI records in one SQLite database per split.
//
// Records are stored as JSON payloads keyed by a dense 0-based position so the
// dataset can address them by index. Imports append at the end of the table
// under a file lock; reads are safe from many goroutines at once. The schema
// is versioned and a mismatch asks the operator to re-import.
package store
