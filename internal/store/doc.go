// Package store persists upload sessions, chunk receipts, and assessment
// records in a SQLite database. All mutating queries retry on SQLITE_BUSY
// so concurrent API handlers and pipeline workers can share one database.
package store
