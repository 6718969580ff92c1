// Package database manages the embedded SQLite store Keyline uses for its
// activity log.
//
// The store is a single file opened with WAL mode and a busy timeout so the
// sync engine's writer and the API's readers can share it safely. Schema
// changes ship as embedded SQL migrations applied at startup; each migration
// runs in its own transaction and is recorded in schema_migrations, so a
// failed upgrade leaves the store on the last good version.
package database
