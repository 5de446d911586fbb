// Package store provides the SQLite-backed Local Store: the durable copy of
// every class-record collection that the in-memory state is loaded from at
// boot and written back to after every mutation and reconciliation.
//
// The store is a key/value table. Each key holds one JSON-serialized
// collection (students, attendance, accounts, ...) together with a digest of
// its canonical form and a revision counter.
//
// # Tolerant reads
//
// Get never fails on bad data. A missing row, a null or blank value, invalid
// JSON, or an empty array where the caller's default is non-empty all yield
// the default. This is what keeps a wiped or half-written accounts entry from
// locking every user out.
//
// # Idempotent writes
//
// Set compares the digest of the new value with the stored one and leaves the
// row (and its revision) alone when nothing changed.
//
// # Seeding
//
// Bootstrap fills built-in defaults on first run and again whenever the
// accounts entry is missing or empty, guarded by a version-tagged
// initialization flag.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
