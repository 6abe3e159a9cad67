package aggregation

import (
	"fmt"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
)

// RunReport summarizes one job run.
type RunReport struct {
	Job         string    `json:"job"`
	WindowStart time.Time `json:"window_start,omitempty"`
	WindowEnd   time.Time `json:"window_end,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`

	EventsInWindow       int `json:"events_in_window"`
	UsersProcessed       int `json:"users_processed"`
	PartitionsRecomputed int `json:"partitions_recomputed"`
	StatsWritten         int `json:"stats_written"`
	SkippedEvents        int `json:"skipped_events"`
	ProfilesReset        int `json:"profiles_reset"`

	PublishedVersion int64    `json:"published_version"`
	Warnings         []string `json:"warnings,omitempty"`
}

// Incomplete reports whether the run skipped upstream data.
func (r *RunReport) Incomplete() bool {
	return r.SkippedEvents > 0
}

// Err returns domain.ErrAggregationWindowIncomplete when events were
// skipped, and nil otherwise. It never signals a failed run.
func (r *RunReport) Err() error {
	if !r.Incomplete() {
		return nil
	}
	return fmt.Errorf("%w: %d events skipped", domain.ErrAggregationWindowIncomplete, r.SkippedEvents)
}
