package srs

import (
	"github.com/eddy80524/dental-quiz-app/internal/domain"
)

// MasteryThreshold is one step of the mastery table: a card reaches the step
// once its easiness factor and consecutive-success count both meet it.
type MasteryThreshold struct {
	MinEaseFactor  float64
	MinRepetitions int
}

// Params defines all configurable parameters for the SRS algorithm
type Params struct {
	// Core limits
	MinEaseFactor     float64
	InitialEaseFactor float64

	// Quality at or above which a review counts as a success
	PassingQuality int

	// Fixed intervals for the first and second consecutive success
	FirstInterval  int
	SecondInterval int

	// Ordered from lowest to highest; the last step maps to domain.MasteryExpert
	MasteryThresholds []MasteryThreshold
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	MinEaseFactor     float64
	InitialEaseFactor float64
	PassingQuality    int
	FirstInterval     int
	SecondInterval    int

	// MasteryThresholds replaces the whole table when it has exactly as many
	// steps as the default one.
	MasteryThresholds []MasteryThreshold
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:     domain.MinEasinessFactor,
		InitialEaseFactor: domain.DefaultEasinessFactor,
		PassingQuality:    3,
		FirstInterval:     1,
		SecondInterval:    6,
		MasteryThresholds: []MasteryThreshold{
			{MinEaseFactor: 1.8, MinRepetitions: 2},
			{MinEaseFactor: 2.0, MinRepetitions: 3},
			{MinEaseFactor: 2.2, MinRepetitions: 5},
			{MinEaseFactor: 2.4, MinRepetitions: 8},
			{MinEaseFactor: 2.6, MinRepetitions: 12},
		},
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	// The floor can be raised but never lowered below the domain invariant
	if config.MinEaseFactor > domain.MinEasinessFactor {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.InitialEaseFactor > 0 {
		params.InitialEaseFactor = config.InitialEaseFactor
	}
	if params.InitialEaseFactor < params.MinEaseFactor {
		params.InitialEaseFactor = params.MinEaseFactor
	}

	if config.PassingQuality > 0 && config.PassingQuality <= 5 {
		params.PassingQuality = config.PassingQuality
	}
	if config.FirstInterval > 0 {
		params.FirstInterval = config.FirstInterval
	}
	if config.SecondInterval > 0 {
		params.SecondInterval = config.SecondInterval
	}

	if len(config.MasteryThresholds) == len(params.MasteryThresholds) {
		params.MasteryThresholds = append([]MasteryThreshold(nil), config.MasteryThresholds...)
	}

	return params
}
