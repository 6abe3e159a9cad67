package srs

import (
	"testing"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultService(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	require.NotNil(t, service)

	impl, ok := service.(*defaultService)
	require.True(t, ok, "Expected *defaultService type")
	require.NotNil(t, impl.params)
}

func TestApplyReviewValidation(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	now := time.Now().UTC()

	_, err := service.ApplyReview(nil, 4, now)
	assert.ErrorIs(t, err, ErrNilCard)

	card, err := service.NewCard("user-1", "q-1")
	require.NoError(t, err)

	for _, q := range []int{-1, 6, 100} {
		_, err = service.ApplyReview(card, q, now)
		assert.ErrorIs(t, err, domain.ErrInvalidQuality, "quality %d", q)
	}
}

func TestApplyReviewIsDeterministic(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	now := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

	card, err := service.NewCard("user-1", "q-1")
	require.NoError(t, err)
	card.Version = 7

	a, err := service.ApplyReview(card, 4, now)
	require.NoError(t, err)
	b, err := service.ApplyReview(card, 4, now)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, int64(7), a.Version, "version is left for the store to bump")
}

func TestNewCardUsesConfiguredInitialEase(t *testing.T) {
	t.Parallel()
	service := NewServiceWithParams(NewParams(ParamsConfig{InitialEaseFactor: 2.3}))

	card, err := service.NewCard("user-1", "q-1")
	require.NoError(t, err)
	assert.InDelta(t, 2.3, card.EasinessFactor, 1e-9)

	_, err = service.NewCard("", "q-1")
	assert.ErrorIs(t, err, domain.ErrEmptyCardUserID)
}
