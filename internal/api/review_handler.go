package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/api/shared"
	"github.com/eddy80524/dental-quiz-app/internal/platform/logger"
	"github.com/eddy80524/dental-quiz-app/internal/service/review"
)

// Slate limits.
const (
	DefaultReviewLimit = 50
	DefaultNewLimit    = 10
	MaxSlateLimit      = 500
)

// SlateLimits are the defaults used when a slate request omits its limits.
type SlateLimits struct {
	Review int
	New    int
}

// ReviewHandler serves answer submission and study slates.
type ReviewHandler struct {
	service review.Service
	limits  SlateLimits
	clock   func() time.Time
	logger  *slog.Logger
}

// NewReviewHandler creates a ReviewHandler.
func NewReviewHandler(service review.Service, limits SlateLimits, clock func() time.Time, logger *slog.Logger) *ReviewHandler {
	if service == nil {
		panic("review service cannot be nil for ReviewHandler")
	}
	if logger == nil {
		panic("logger cannot be nil for ReviewHandler")
	}
	if limits.Review <= 0 {
		limits.Review = DefaultReviewLimit
	}
	if limits.New < 0 {
		limits.New = DefaultNewLimit
	}
	if clock == nil {
		clock = time.Now
	}

	return &ReviewHandler{
		service: service,
		limits:  limits,
		clock:   clock,
		logger:  logger.With(slog.String("component", "review_handler")),
	}
}

// SubmitAnswer handles POST /api/users/{userID}/answers.
func (h *ReviewHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, err := getPathID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req SubmitAnswerRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	card, err := h.service.SubmitAnswer(r.Context(), review.SubmitAnswerInput{
		UserID:          userID,
		QuestionID:      req.QuestionID,
		Quality:         req.Quality,
		IsCorrect:       req.IsCorrect,
		IsNewCard:       req.IsNewCard,
		ClientTimestamp: req.Timestamp,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit answer")
		return
	}

	log.Debug("answer accepted",
		slog.String("user_id", userID),
		slog.String("question_id", req.QuestionID))
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// GetDueSlate handles GET /api/users/{userID}/slate.
func (h *ReviewHandler) GetDueSlate(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	reviewLimit, err := getQueryInt(r, "review_limit", h.limits.Review, 0, MaxSlateLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	newLimit, err := getQueryInt(r, "new_limit", h.limits.New, 0, MaxSlateLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	ids, err := h.service.GetDueSlate(r.Context(), userID, h.clock(), reviewLimit, newLimit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to build study slate")
		return
	}
	if ids == nil {
		ids = []string{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SlateResponse{UserID: userID, QuestionIDs: ids})
}
