// Package sqlite provides a SQLite-based implementation of the storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database file backs both stores:
//
//   - SnapshotStore: the chunk collection, replaced in a single transaction
//   - IngestStateStore: per-document hashes and the schema version
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The database is stored at <data_dir>/athena.db.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
