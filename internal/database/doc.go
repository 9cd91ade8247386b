// Package database keeps the run history of secretgarden in SQLite
// (modernc.org/sqlite, no cgo). Only statistics are stored: requested and
// produced counts, exit reasons and discoverability estimates. Sequence
// values and credentials never reach the database.
package database
