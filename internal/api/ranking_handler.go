package api

import (
	"log/slog"
	"net/http"

	"github.com/eddy80524/dental-quiz-app/internal/api/shared"
	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/platform/logger"
	"github.com/eddy80524/dental-quiz-app/internal/service/ranking"
)

// Leaderboard page sizes.
const (
	DefaultRankingLimit = 20
	MaxRankingLimit     = 100
)

// RankingHandler serves leaderboards and leaderboard settings.
type RankingHandler struct {
	builder *ranking.Builder
	logger  *slog.Logger
}

// NewRankingHandler creates a RankingHandler.
func NewRankingHandler(builder *ranking.Builder, logger *slog.Logger) *RankingHandler {
	if builder == nil {
		panic("builder cannot be nil for RankingHandler")
	}
	if logger == nil {
		panic("logger cannot be nil for RankingHandler")
	}
	return &RankingHandler{
		builder: builder,
		logger:  logger.With(slog.String("component", "ranking_handler")),
	}
}

// GetRanking handles GET /api/rankings/{variant}.
func (h *RankingHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	variant, err := getPathVariant(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	limit, err := getQueryInt(r, "limit", DefaultRankingLimit, 1, MaxRankingLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	snap, err := h.builder.Current(r.Context(), variant, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load ranking")
		return
	}
	if snap.Entries == nil {
		snap.Entries = []domain.RankingEntry{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, snap)
}

// GetUserRank handles GET /api/rankings/{variant}/users/{userID}.
func (h *RankingHandler) GetUserRank(w http.ResponseWriter, r *http.Request) {
	variant, err := getPathVariant(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	userID, err := getPathID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	rank, err := h.builder.UserRank(r.Context(), variant, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load rank")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, rank)
}

// GetProfile handles GET /api/users/{userID}/profile.
func (h *RankingHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	profile, err := h.builder.Profile(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load profile")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/users/{userID}/profile.
func (h *RankingHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, err := getPathID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req UpdateProfileRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if req.DisplayName == nil && req.ShowOnLeaderboard == nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Nothing to update")
		return
	}

	profile, err := h.builder.UpdateProfile(r.Context(), userID, req.DisplayName, req.ShowOnLeaderboard)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update profile")
		return
	}

	log.Info("profile updated", slog.String("user_id", userID))
	shared.RespondWithJSON(w, r, http.StatusOK, profile)
}
