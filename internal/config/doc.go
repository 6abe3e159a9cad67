// Package config loads the server, database, review, scoring, ranking and
// rate limit settings from defaults, an optional config.yaml and TRAINER_
// environment variables, and validates them before anything is wired.
package config
