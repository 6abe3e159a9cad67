package aggregation

import (
	"fmt"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/domain/scoring"
	"github.com/google/uuid"
)

// skippedEvent explains why an event was left out of a daily stat.
type skippedEvent struct {
	EventID uuid.UUID
	Reason  string
}

// computeDailyStat recomputes one (user, date) partition from all of its
// events. Duplicate ids count once; events that fail validation, carry a
// different user, or fall on another calendar day are skipped.
func computeDailyStat(
	userID, date string,
	partition []*domain.ActivityEvent,
	policy *scoring.Policy,
	loc *time.Location,
) (*domain.DailyStat, []skippedEvent) {
	stat := &domain.DailyStat{UserID: userID, Date: date}
	var skipped []skippedEvent

	seen := make(map[uuid.UUID]struct{}, len(partition))
	qualitySum := 0
	for _, e := range partition {
		if e == nil {
			continue
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}

		if err := e.Validate(); err != nil {
			skipped = append(skipped, skippedEvent{e.ID, err.Error()})
			continue
		}
		if e.UserID != userID {
			skipped = append(skipped, skippedEvent{e.ID, "event belongs to another user"})
			continue
		}
		if d := e.Date(loc); d != date {
			skipped = append(skipped, skippedEvent{e.ID, fmt.Sprintf("event dated %s in partition %s", d, date)})
			continue
		}

		points, err := policy.EventPoints(e)
		if err != nil {
			skipped = append(skipped, skippedEvent{e.ID, err.Error()})
			continue
		}

		stat.QuestionsAnswered++
		if e.IsCorrect {
			stat.CorrectAnswers++
		}
		stat.PointsEarned += points
		qualitySum += e.Quality
	}

	if stat.QuestionsAnswered > 0 {
		stat.Accuracy = float64(stat.CorrectAnswers) / float64(stat.QuestionsAnswered)
		stat.AverageQuality = float64(qualitySum) / float64(stat.QuestionsAnswered)
	}
	return stat, skipped
}
