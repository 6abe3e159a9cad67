package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/go-chi/chi/v5"
)

const maxIDLength = 128

// getPathID extracts a non-empty identifier from the URL path.
func getPathID(r *http.Request, paramName string) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, paramName))
	if id == "" || len(id) > maxIDLength {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidID, paramName)
	}
	return id, nil
}

// getPathVariant extracts and validates the ranking variant path parameter.
func getPathVariant(r *http.Request) (domain.RankingVariant, error) {
	return domain.ParseRankingVariant(chi.URLParam(r, "variant"))
}

// getQueryInt reads an optional integer query parameter within [lo, hi].
func getQueryInt(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%w: %s must be between %d and %d", domain.ErrValidation, name, lo, hi)
	}
	return n, nil
}
