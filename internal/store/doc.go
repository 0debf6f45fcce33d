// Package store defines the relational persistence contracts used by the
// loader, the REST facade and the reports, plus the SQL shared by the
// Postgres and SQLite implementations. Implementations live in
// internal/storage; this package must not import database drivers.
package store
