// Package testdb provides helpers for tests that need a real PostgreSQL
// database. Tests call Open, which skips the test unless a database URL is
// configured, migrates the schema and truncates every table.
package testdb
