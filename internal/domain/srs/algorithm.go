package srs

import (
	"math"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
)

// calculateNewEaseFactor applies the SM-2 easiness update for a quality rating.
//
// Parameters:
//   - currentEF: The card's easiness factor before this review
//   - quality: The normalized quality rating (0-5)
//   - params: Configuration parameters for the SRS algorithm
//
// Returns:
//   - The new easiness factor, never below params.MinEaseFactor
//
// Algorithm behavior:
//   - ef' = ef + (0.1 - (5-q) * (0.08 + (5-q) * 0.02))
//   - Quality 5 raises ef by 0.1, quality 4 leaves it unchanged, lower ratings shrink it
//   - The floor is applied after every update, including repeated failures
func calculateNewEaseFactor(currentEF float64, quality int, params *Params) float64 {
	miss := float64(5 - quality)
	newEF := currentEF + (0.1 - miss*(0.08+miss*0.02))

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}

	return newEF
}

// calculateNewInterval determines the next interval and repetition count.
//
// Parameters:
//   - currentInterval: The interval in days before this review
//   - repetitions: Consecutive successful reviews before this review
//   - easeFactor: The easiness factor before this review
//   - quality: The normalized quality rating (0-5)
//   - params: Configuration parameters for the SRS algorithm
//
// Returns:
//   - The new interval in days and the new repetition count
//
// Algorithm behavior:
//   - Failure (quality below params.PassingQuality): repetitions reset to 0, interval 1
//   - First success: params.FirstInterval
//   - Second consecutive success: params.SecondInterval
//   - Later successes: round(interval * easeFactor), never below 1
func calculateNewInterval(
	currentInterval int,
	repetitions int,
	easeFactor float64,
	quality int,
	params *Params,
) (int, int) {
	if quality < params.PassingQuality {
		return 1, 0
	}

	var interval int
	switch repetitions {
	case 0:
		interval = params.FirstInterval
	case 1:
		interval = params.SecondInterval
	default:
		interval = int(math.Round(float64(currentInterval) * easeFactor))
	}

	if interval < 1 {
		interval = 1
	}

	return interval, repetitions + 1
}

// calculateMasteryLevel maps (repetitions, easeFactor) onto the mastery table.
// The level is the number of consecutive table steps the card satisfies, so
// meeting the final step yields domain.MasteryExpert with the default table.
func calculateMasteryLevel(repetitions int, easeFactor float64, params *Params) domain.MasteryLevel {
	level := 0
	for _, step := range params.MasteryThresholds {
		if easeFactor < step.MinEaseFactor || repetitions < step.MinRepetitions {
			break
		}
		level++
	}
	return domain.MasteryLevel(level)
}

// calculateNextCard builds the state of card after one review at now.
//
// The input card is never modified: the result is a deep copy with the new
// scheduling fields and one more history entry. Version is carried over
// unchanged so the caller can compare-and-swap against it.
func calculateNextCard(
	card *domain.ReviewCard,
	quality int,
	now time.Time,
	params *Params,
) *domain.ReviewCard {
	next := card.Clone()

	efBefore := card.EasinessFactor
	if efBefore < params.MinEaseFactor {
		efBefore = params.MinEaseFactor
	}
	intervalBefore := card.IntervalDays

	// The interval grows with the easiness factor in effect before this review
	next.IntervalDays, next.RepetitionCount = calculateNewInterval(
		intervalBefore,
		card.RepetitionCount,
		efBefore,
		quality,
		params,
	)
	next.EasinessFactor = calculateNewEaseFactor(efBefore, quality, params)

	due := now.AddDate(0, 0, next.IntervalDays)
	studied := now
	next.DueDate = &due
	next.LastStudied = &studied

	next.MasteryLevel = calculateMasteryLevel(next.RepetitionCount, next.EasinessFactor, params)

	next.History = append(next.History, domain.ReviewHistoryEntry{
		Timestamp:      now,
		Quality:        quality,
		IntervalBefore: intervalBefore,
		IntervalAfter:  next.IntervalDays,
		EFBefore:       efBefore,
		EFAfter:        next.EasinessFactor,
	})

	return next
}
