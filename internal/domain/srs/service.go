package srs

import (
	"errors"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
)

// Common errors
var (
	ErrNilCard        = errors.New("review card cannot be nil")
	ErrInvalidQuality = domain.ErrInvalidQuality
)

// Service defines the interface for SRS algorithm operations
type Service interface {
	// NewCard returns the implicit state of a question the user has never studied
	NewCard(userID, questionID string) (*domain.ReviewCard, error)

	// ApplyReview computes the next card state for a normalized quality rating.
	// It is deterministic and never touches storage.
	ApplyReview(card *domain.ReviewCard, quality int, now time.Time) (*domain.ReviewCard, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{
		params: params,
	}
}

// NewCard implements Service.NewCard
func (s *defaultService) NewCard(userID, questionID string) (*domain.ReviewCard, error) {
	card, err := domain.NewReviewCard(userID, questionID)
	if err != nil {
		return nil, err
	}
	card.EasinessFactor = s.params.InitialEaseFactor
	return card, nil
}

// ApplyReview implements Service.ApplyReview
func (s *defaultService) ApplyReview(
	card *domain.ReviewCard,
	quality int,
	now time.Time,
) (*domain.ReviewCard, error) {
	if card == nil {
		return nil, ErrNilCard
	}

	if !isValidQuality(quality) {
		return nil, ErrInvalidQuality
	}

	return calculateNextCard(card, quality, now, s.params), nil
}

// isValidQuality checks if the rating is on the 0-5 SM-2 scale
func isValidQuality(quality int) bool {
	return quality >= 0 && quality <= 5
}
