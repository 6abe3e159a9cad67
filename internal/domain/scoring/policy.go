// Package scoring computes the points awarded for each answer.
package scoring

import (
	"fmt"
	"math"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
)

// Policy defines the point formula applied to every activity event:
//
//	points = floor(base * multiplier[quality] + newCardBonus)
//
// where base is CorrectBase for correct answers and IncorrectBase otherwise.
type Policy struct {
	CorrectBase       float64
	IncorrectBase     float64
	NewCardBonus      float64
	QualityMultiplier map[int]float64
}

// PolicyConfig overrides parts of the default policy. Zero values keep the default.
type PolicyConfig struct {
	CorrectBase       float64
	IncorrectBase     float64
	NewCardBonus      float64
	QualityMultiplier map[int]float64
}

// NewDefaultPolicy returns the standard five-point table. Ratings 3 and 4 share
// the normal multiplier; rating 0 is scored like rating 1.
func NewDefaultPolicy() *Policy {
	return &Policy{
		CorrectBase:   10,
		IncorrectBase: 2,
		NewCardBonus:  5,
		QualityMultiplier: map[int]float64{
			0: 0.5,
			1: 0.5,
			2: 0.8,
			3: 1.0,
			4: 1.0,
			5: 1.5,
		},
	}
}

// NewPolicy applies config on top of the default policy.
func NewPolicy(config PolicyConfig) (*Policy, error) {
	p := NewDefaultPolicy()

	if config.CorrectBase > 0 {
		p.CorrectBase = config.CorrectBase
	}
	if config.IncorrectBase > 0 {
		p.IncorrectBase = config.IncorrectBase
	}
	if config.NewCardBonus > 0 {
		p.NewCardBonus = config.NewCardBonus
	}
	for q, m := range config.QualityMultiplier {
		if q < 0 || q > 5 {
			return nil, fmt.Errorf("%w: multiplier for quality %d", domain.ErrInvalidQuality, q)
		}
		if m < 0 {
			return nil, fmt.Errorf("%w: negative multiplier for quality %d", domain.ErrValidation, q)
		}
		p.QualityMultiplier[q] = m
	}

	return p, nil
}

// Points returns the points for one answer.
func (p *Policy) Points(quality int, isCorrect, isNewCard bool) (int, error) {
	multiplier, ok := p.QualityMultiplier[quality]
	if !ok {
		return 0, fmt.Errorf("%w: %d", domain.ErrInvalidQuality, quality)
	}

	base := p.IncorrectBase
	if isCorrect {
		base = p.CorrectBase
	}

	bonus := 0.0
	if isNewCard {
		bonus = p.NewCardBonus
	}

	return int(math.Floor(base*multiplier + bonus)), nil
}

// EventPoints returns the points for a stored activity event.
func (p *Policy) EventPoints(e *domain.ActivityEvent) (int, error) {
	return p.Points(e.Quality, e.IsCorrect, e.IsNewCard)
}
