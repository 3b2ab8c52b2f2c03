// Package store provides SQLite-backed compile history.
//
// Every compile run can be recorded with its profile hash, outcome,
// diagnostics and peak rates. Compiled programs are not persisted.
//
// # Ordering
//
//   - seq INTEGER is a logical clock assigned by RecordRun (MAX(seq)+1)
//   - All queries order by seq, then id COLLATE BINARY
//   - created_at is informational and never used for ordering
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Diagnostics are stored as canonical JSON produced by ir.MarshalCanonical.
package store
