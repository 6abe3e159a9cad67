// Package postgres provides PostgreSQL implementations of the store
// interfaces. Queries run through sqlx over the pgx stdlib driver, and the
// schema is managed by goose migrations embedded in the binary.
package postgres
