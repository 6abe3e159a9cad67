package ranking

import (
	"sort"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
)

// SnapshotOptions controls how profiles are scored.
type SnapshotOptions struct {
	// WeekStart is the current weekly window. Profiles still holding points
	// from an older window score 0 on the weekly board.
	WeekStart time.Time

	// MasteryMinQuestions is the number of answered questions a user needs
	// before their accuracy counts on the mastery board. Users below it
	// score 0 there.
	MasteryMinQuestions int
}

type scored struct {
	profile *domain.UserProfile
	score   float64
}

// BuildSnapshots produces the weekly, lifetime and mastery boards from
// profiles. Users who opted out are left off every board. Each board is
// sorted independently and ranked 1..N in sort order; ties fall back to the
// user id so the order is stable.
func BuildSnapshots(profiles []*domain.UserProfile, now time.Time, opts SnapshotOptions) []*domain.RankingSnapshot {
	visible := make([]*domain.UserProfile, 0, len(profiles))
	for _, p := range profiles {
		if p != nil && p.ShowOnLeaderboard {
			visible = append(visible, p)
		}
	}

	weekly := make([]scored, len(visible))
	lifetime := make([]scored, len(visible))
	mastery := make([]scored, len(visible))
	for i, p := range visible {
		weeklyPoints := p.WeeklyPoints
		if p.WeekStart.Before(opts.WeekStart) {
			weeklyPoints = 0
		}
		weekly[i] = scored{p, float64(weeklyPoints)}
		lifetime[i] = scored{p, float64(p.TotalPoints)}

		m := p.MasteryScore
		if p.TotalQuestions < opts.MasteryMinQuestions {
			m = 0
		}
		mastery[i] = scored{p, m}
	}

	byScore := func(rows []scored) func(i, j int) bool {
		return func(i, j int) bool {
			if rows[i].score != rows[j].score {
				return rows[i].score > rows[j].score
			}
			return rows[i].profile.UserID < rows[j].profile.UserID
		}
	}
	sort.SliceStable(weekly, byScore(weekly))
	sort.SliceStable(lifetime, byScore(lifetime))
	sort.SliceStable(mastery, func(i, j int) bool {
		a, b := mastery[i], mastery[j]
		if a.score != b.score {
			return a.score > b.score
		}
		// more answers means a more trustworthy accuracy
		if a.profile.TotalQuestions != b.profile.TotalQuestions {
			return a.profile.TotalQuestions > b.profile.TotalQuestions
		}
		return a.profile.UserID < b.profile.UserID
	})

	generated := now.UTC()
	return []*domain.RankingSnapshot{
		toSnapshot(domain.RankingWeekly, weekly, generated),
		toSnapshot(domain.RankingLifetime, lifetime, generated),
		toSnapshot(domain.RankingMastery, mastery, generated),
	}
}

func toSnapshot(variant domain.RankingVariant, rows []scored, generated time.Time) *domain.RankingSnapshot {
	entries := make([]domain.RankingEntry, len(rows))
	for i, r := range rows {
		entries[i] = domain.RankingEntry{
			UserID:      r.profile.UserID,
			DisplayName: r.profile.DisplayName,
			Score:       r.score,
			Rank:        i + 1,
		}
	}
	return &domain.RankingSnapshot{
		Variant:           variant,
		GeneratedAt:       generated,
		TotalParticipants: len(rows),
		Entries:           entries,
	}
}

// Percentile is the "top X%" position of rank among total users.
func Percentile(rank, total int) float64 {
	if total <= 0 || rank <= 0 {
		return 0
	}
	return float64(rank) / float64(total) * 100
}
