package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when a user or question identifier is empty or malformed.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidQuality is returned when a quality rating is missing or outside 0..5.
	// Callers must reject such ratings before they reach the scheduler.
	ErrInvalidQuality = errors.New("invalid quality rating")

	// ErrInvalidDate is returned when a calendar date string cannot be parsed.
	ErrInvalidDate = errors.New("invalid calendar date")

	// ErrInvalidVariant is returned for an unknown ranking variant.
	ErrInvalidVariant = errors.New("invalid ranking variant")

	// ErrAggregationWindowIncomplete marks an aggregation run that skipped some
	// upstream data. The run still completes; the next run recomputes the day.
	ErrAggregationWindowIncomplete = errors.New("aggregation window incomplete")
)
