package domain

import (
	"fmt"
	"time"
)

// RankingVariant names one of the published leaderboards.
type RankingVariant string

// Ranking variants.
const (
	RankingWeekly   RankingVariant = "weekly"
	RankingLifetime RankingVariant = "lifetime"
	RankingMastery  RankingVariant = "mastery"
)

// RankingVariants lists every variant in publish order.
var RankingVariants = []RankingVariant{RankingWeekly, RankingLifetime, RankingMastery}

// ParseRankingVariant validates a variant name.
func ParseRankingVariant(s string) (RankingVariant, error) {
	switch v := RankingVariant(s); v {
	case RankingWeekly, RankingLifetime, RankingMastery:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidVariant, s)
	}
}

// RankingEntry is one row of a leaderboard.
type RankingEntry struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
	Rank        int     `json:"rank"`
}

// RankingSnapshot is an immutable, fully sorted leaderboard.
// Snapshots are regenerated wholesale and published by swapping the
// current version pointer; they are never edited in place.
type RankingSnapshot struct {
	Variant           RankingVariant `json:"variant"`
	Version           int64          `json:"version"`
	GeneratedAt       time.Time      `json:"generated_at"`
	TotalParticipants int            `json:"total_participants"`
	Entries           []RankingEntry `json:"entries"`
}

// Find returns the entry for userID, if present.
func (s *RankingSnapshot) Find(userID string) (RankingEntry, bool) {
	for _, e := range s.Entries {
		if e.UserID == userID {
			return e, true
		}
	}
	return RankingEntry{}, false
}

// UserRank is a user's position within one snapshot.
type UserRank struct {
	Variant    RankingVariant `json:"variant"`
	Version    int64          `json:"version"`
	UserID     string         `json:"user_id"`
	Rank       int            `json:"rank"`
	Score      float64        `json:"score"`
	TotalUsers int            `json:"total_users"`
	Percentile float64        `json:"percentile"`
}
