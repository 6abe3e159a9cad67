package srs

import (
	"sort"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
)

// DefaultRecentSubjectPenalty lowers the score of new questions whose subject
// the user studied recently.
const DefaultRecentSubjectPenalty = 0.15

// SlateOptions bounds and shapes a study session.
type SlateOptions struct {
	// ReviewLimit caps the review bucket. Zero or less yields no review cards.
	ReviewLimit int

	// NewLimit caps the new-card bucket. Zero or less yields no new cards.
	NewLimit int

	// Catalog lists questions that may be introduced as new cards even when the
	// user has no card for them yet. Without a catalog only stored cards with
	// an empty history are new-card candidates.
	Catalog []domain.Question

	// RecentQuestionIDs are the user's most recently studied questions; new
	// questions sharing a subject with them are penalized.
	RecentQuestionIDs []string

	// RecentSubjectPenalty overrides DefaultRecentSubjectPenalty when positive.
	RecentSubjectPenalty float64
}

// daysOverdue is the number of whole days since the card fell due, floored at 0.
func daysOverdue(card *domain.ReviewCard, now time.Time) int {
	d := int(now.Sub(*card.DueDate).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// SelectDue returns the ids of cards due at now, most overdue first.
//
// Cards without a due date never qualify. Ties on days overdue go to the less
// mastered card, then to the lower question id so the order is deterministic.
func SelectDue(cards []*domain.ReviewCard, now time.Time, limit int) []string {
	if limit <= 0 {
		return []string{}
	}

	type dueCard struct {
		card    *domain.ReviewCard
		overdue int
	}

	due := make([]dueCard, 0, len(cards))
	for _, c := range cards {
		if c == nil || !c.IsDue(now) {
			continue
		}
		due = append(due, dueCard{card: c, overdue: daysOverdue(c, now)})
	}

	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i], due[j]
		if a.overdue != b.overdue {
			return a.overdue > b.overdue
		}
		if a.card.MasteryLevel != b.card.MasteryLevel {
			return a.card.MasteryLevel < b.card.MasteryLevel
		}
		return a.card.QuestionID < b.card.QuestionID
	})

	if len(due) > limit {
		due = due[:limit]
	}

	ids := make([]string, len(due))
	for i, d := range due {
		ids[i] = d.card.QuestionID
	}
	return ids
}

// BuildSlate returns the review bucket followed by the new-card bucket.
// The two buckets are never interleaved and never share a question.
func BuildSlate(cards []*domain.ReviewCard, now time.Time, opts SlateOptions) []string {
	review := SelectDue(cards, now, opts.ReviewLimit)
	if opts.NewLimit <= 0 {
		return review
	}

	taken := make(map[string]struct{}, len(review))
	for _, id := range review {
		taken[id] = struct{}{}
	}

	return append(review, SelectNew(cards, taken, opts)...)
}

// SelectNew picks up to opts.NewLimit never-studied questions.
//
// With a catalog, candidates are chosen greedily by subject balance: each pick
// goes to the subject furthest below an even share of introduced questions,
// minus the recent-subject penalty. Ties keep catalog order.
func SelectNew(cards []*domain.ReviewCard, exclude map[string]struct{}, opts SlateOptions) []string {
	if opts.NewLimit <= 0 {
		return []string{}
	}

	byID := make(map[string]*domain.ReviewCard, len(cards))
	for _, c := range cards {
		if c != nil {
			byID[c.QuestionID] = c
		}
	}

	isCandidate := func(id string) bool {
		if _, skip := exclude[id]; skip {
			return false
		}
		c, ok := byID[id]
		return !ok || (c.IsNew() && c.RepetitionCount == 0)
	}

	if len(opts.Catalog) == 0 {
		ids := make([]string, 0, len(cards))
		for _, c := range cards {
			if c != nil && isCandidate(c.QuestionID) {
				ids = append(ids, c.QuestionID)
			}
		}
		sort.Strings(ids)
		if len(ids) > opts.NewLimit {
			ids = ids[:opts.NewLimit]
		}
		return ids
	}

	return selectBalanced(opts, byID, isCandidate)
}

func selectBalanced(
	opts SlateOptions,
	byID map[string]*domain.ReviewCard,
	isCandidate func(string) bool,
) []string {
	penalty := opts.RecentSubjectPenalty
	if penalty <= 0 {
		penalty = DefaultRecentSubjectPenalty
	}

	subjectOf := make(map[string]string, len(opts.Catalog))
	totals := make(map[string]int)
	introduced := make(map[string]int)
	for _, q := range opts.Catalog {
		subjectOf[q.ID] = q.Subject
		totals[q.Subject]++
		if c, ok := byID[q.ID]; ok && (!c.IsNew() || c.RepetitionCount > 0) {
			introduced[q.Subject]++
		}
	}

	recent := make(map[string]bool)
	for _, id := range opts.RecentQuestionIDs {
		if s, ok := subjectOf[id]; ok {
			recent[s] = true
		}
	}

	target := 1 / float64(len(totals))
	score := func(subject string) float64 {
		share := float64(introduced[subject]) / float64(totals[subject])
		s := target - share
		if recent[subject] {
			s -= penalty
		}
		return s
	}

	// candidate queues per subject, in catalog order
	queues := make(map[string][]string)
	var subjects []string
	for _, q := range opts.Catalog {
		if !isCandidate(q.ID) {
			continue
		}
		if _, ok := queues[q.Subject]; !ok {
			subjects = append(subjects, q.Subject)
		}
		queues[q.Subject] = append(queues[q.Subject], q.ID)
	}

	picked := make([]string, 0, opts.NewLimit)
	for len(picked) < opts.NewLimit {
		best := ""
		bestScore := 0.0
		for _, s := range subjects {
			if len(queues[s]) == 0 {
				continue
			}
			if sc := score(s); best == "" || sc > bestScore {
				best, bestScore = s, sc
			}
		}
		if best == "" {
			break
		}
		picked = append(picked, queues[best][0])
		queues[best] = queues[best][1:]
		introduced[best]++
	}

	return picked
}
