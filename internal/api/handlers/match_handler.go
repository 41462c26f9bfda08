package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/healthreach/careaccess-backend/internal/application/services"
)

// MatchService defines the matching operations used by the handler.
type MatchService interface {
	Match(ctx context.Context, requestID string, algorithm services.MatchAlgorithm) (*services.MatchResult, error)
	Recommend(ctx context.Context, requestID string, algorithm services.MatchAlgorithm, limit int) ([]services.RankedCandidate, error)
}

// MatchHandler handles provider matching HTTP endpoints
type MatchHandler struct {
	service MatchService
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(service MatchService) *MatchHandler {
	return &MatchHandler{service: service}
}

// MatchRequest handles POST /api/requests/{id}/match
func (h *MatchHandler) MatchRequest(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")
	if requestID == "" {
		respondWithError(w, http.StatusBadRequest, "request ID is required")
		return
	}

	result, err := h.service.Match(r.Context(), requestID, queryAlgorithm(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// GetRecommendations handles GET /api/requests/{id}/recommendations
func (h *MatchHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")
	if requestID == "" {
		respondWithError(w, http.StatusBadRequest, "request ID is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	candidates, err := h.service.Recommend(r.Context(), requestID, queryAlgorithm(r), limit)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"request_id":      requestID,
		"recommendations": candidates,
		"count":           len(candidates),
	})
}

// queryAlgorithm reads the algorithm query parameter, defaulting to smart.
// Unknown values pass through so the service can reject them uniformly.
func queryAlgorithm(r *http.Request) services.MatchAlgorithm {
	raw := r.URL.Query().Get("algorithm")
	if raw == "" {
		return services.AlgorithmSmart
	}
	return services.MatchAlgorithm(raw)
}
