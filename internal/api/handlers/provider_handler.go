package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/healthreach/careaccess-backend/internal/domain/entities"
	"github.com/healthreach/careaccess-backend/internal/domain/repositories"
)

const defaultProviderListLimit = 30

// ProviderService defines the provider operations used by the handler.
type ProviderService interface {
	Create(ctx context.Context, provider *entities.Provider) error
	GetByID(ctx context.Context, id string) (*entities.Provider, error)
	Update(ctx context.Context, provider *entities.Provider) error
	List(ctx context.Context, filter repositories.ProviderFilter) ([]*entities.Provider, error)
	FindNearby(ctx context.Context, params repositories.NearbyParams) ([]*entities.Provider, error)
}

// ProviderHandler handles provider HTTP endpoints
type ProviderHandler struct {
	service ProviderService
}

// NewProviderHandler creates a new provider handler
func NewProviderHandler(service ProviderService) *ProviderHandler {
	return &ProviderHandler{service: service}
}

type providerPayload struct {
	Name               string   `json:"name"`
	Type               string   `json:"type"`
	Latitude           float64  `json:"lat"`
	Longitude          float64  `json:"lng"`
	ServiceCategories  []string `json:"service_categories"`
	Capacity           *int     `json:"capacity"`
	CurrentWaitMinutes *int     `json:"current_wait_minutes"`
	IsActive           *bool    `json:"is_active"`
}

func (p providerPayload) toEntity() *entities.Provider {
	categories := make([]entities.ServiceCategory, len(p.ServiceCategories))
	for i, c := range p.ServiceCategories {
		categories[i] = entities.ServiceCategory(c)
	}

	provider := &entities.Provider{
		Name:               p.Name,
		Type:               entities.ProviderType(p.Type),
		Location:           entities.Location{Latitude: p.Latitude, Longitude: p.Longitude},
		ServiceCategories:  categories,
		Capacity:           p.Capacity,
		CurrentWaitMinutes: p.CurrentWaitMinutes,
		IsActive:           true,
	}
	if p.IsActive != nil {
		provider.IsActive = *p.IsActive
	}
	return provider
}

// CreateProvider handles POST /api/providers
func (h *ProviderHandler) CreateProvider(w http.ResponseWriter, r *http.Request) {
	var payload providerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	provider := payload.toEntity()
	if err := h.service.Create(r.Context(), provider); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, provider)
}

// GetProvider handles GET /api/providers/{id}
func (h *ProviderHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if providerID == "" {
		respondWithError(w, http.StatusBadRequest, "provider ID is required")
		return
	}

	provider, err := h.service.GetByID(r.Context(), providerID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, provider)
}

// UpdateProvider handles PUT /api/providers/{id}
func (h *ProviderHandler) UpdateProvider(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if providerID == "" {
		respondWithError(w, http.StatusBadRequest, "provider ID is required")
		return
	}

	var payload providerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	provider := payload.toEntity()
	provider.ID = providerID
	if err := h.service.Update(r.Context(), provider); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, provider)
}

// ListProviders handles GET /api/providers
func (h *ProviderHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ProviderFilter{
		ProviderType: entities.ProviderType(r.URL.Query().Get("type")),
		Limit:        defaultProviderListLimit,
	}

	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "active must be true or false")
			return
		}
		filter.IsActive = &active
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			respondWithError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		filter.Offset = offset
	}

	providerList, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"providers": providerList,
		"count":     len(providerList),
	})
}

// FindNearbyProviders handles GET /api/providers/nearby
func (h *ProviderHandler) FindNearbyProviders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	lat, err := strconv.ParseFloat(query.Get("lat"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "lat is required and must be a number")
		return
	}
	lng, err := strconv.ParseFloat(query.Get("lng"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "lng is required and must be a number")
		return
	}

	params := repositories.NearbyParams{
		Latitude:        lat,
		Longitude:       lng,
		ServiceCategory: entities.ServiceCategory(query.Get("category")),
	}

	if raw := query.Get("radius_miles"); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			respondWithError(w, http.StatusBadRequest, "radius_miles must be a positive number")
			return
		}
		params.RadiusMiles = radius
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		params.Limit = limit
	}

	providerList, err := h.service.FindNearby(r.Context(), params)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"providers": providerList,
		"count":     len(providerList),
	})
}
