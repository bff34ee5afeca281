// Package sqlite provides a SQLite-based implementation of the metadata
// store ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. It implements both
// metadata store interfaces through a single database connection:
//
//   - DocumentStore: document record persistence
//   - QueryStore: query history persistence and query-document links
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory.
//
// # Data Location
//
// By default, the database is stored at ~/.docqa/metadata.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
