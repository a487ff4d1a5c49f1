// Package store provides SQLite-backed durable storage for the ledger host.
//
// Two tables:
//   - cells: the fixed-capacity state cells commands execute against
//   - executions: an append-only log of every submitted command and its outcome
//
// # Ordering
//
// Ordering uses the logical seq column of the execution log, never wall time.
// Cell listings order by (created_seq, address) so results are identical
// across replays.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Schema changes are goose migrations embedded from migrations/.
package store
