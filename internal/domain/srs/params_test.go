package srs

import (
	"testing"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
)

func TestNewDefaultParams(t *testing.T) {
	params := NewDefaultParams()

	if params.MinEaseFactor != domain.MinEasinessFactor {
		t.Errorf("MinEaseFactor should be %v, got %v", domain.MinEasinessFactor, params.MinEaseFactor)
	}
	if params.FirstInterval != 1 || params.SecondInterval != 6 {
		t.Errorf("Expected intervals 1 and 6, got %d and %d", params.FirstInterval, params.SecondInterval)
	}
	if len(params.MasteryThresholds) != int(domain.MasteryExpert) {
		t.Errorf("Expected %d mastery steps, got %d", domain.MasteryExpert, len(params.MasteryThresholds))
	}

	for i := 1; i < len(params.MasteryThresholds); i++ {
		prev, cur := params.MasteryThresholds[i-1], params.MasteryThresholds[i]
		if cur.MinEaseFactor <= prev.MinEaseFactor || cur.MinRepetitions <= prev.MinRepetitions {
			t.Errorf("Mastery step %d is not stricter than step %d", i, i-1)
		}
	}
}

func TestNewParams(t *testing.T) {
	params := NewParams(ParamsConfig{
		MinEaseFactor:  1.0, // below the invariant, ignored
		SecondInterval: 4,
		PassingQuality: 4,
	})

	if params.MinEaseFactor != domain.MinEasinessFactor {
		t.Errorf("MinEaseFactor must not drop below %v, got %v", domain.MinEasinessFactor, params.MinEaseFactor)
	}
	if params.SecondInterval != 4 {
		t.Errorf("Expected SecondInterval 4, got %d", params.SecondInterval)
	}
	if params.PassingQuality != 4 {
		t.Errorf("Expected PassingQuality 4, got %d", params.PassingQuality)
	}
	if params.FirstInterval != 1 {
		t.Errorf("Expected default FirstInterval 1, got %d", params.FirstInterval)
	}

	short := NewParams(ParamsConfig{MasteryThresholds: []MasteryThreshold{{MinEaseFactor: 1.5}}})
	if len(short.MasteryThresholds) != 5 {
		t.Errorf("Partial mastery table should be ignored, got %d steps", len(short.MasteryThresholds))
	}
}
