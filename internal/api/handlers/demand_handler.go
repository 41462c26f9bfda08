package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/healthreach/careaccess-backend/internal/application/services"
	"github.com/healthreach/careaccess-backend/internal/domain/entities"
)

// DemandService defines the heatmap operation used by the handler.
type DemandService interface {
	Heatmap(ctx context.Context, params services.HeatmapParams) ([]services.DemandCell, error)
}

// DemandHandler handles demand heatmap HTTP endpoints
type DemandHandler struct {
	service DemandService
}

// NewDemandHandler creates a new demand handler
func NewDemandHandler(service DemandService) *DemandHandler {
	return &DemandHandler{service: service}
}

// GetHeatmap handles GET /api/demand/heatmap
func (h *DemandHandler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	bounds := entities.BoundingBox{}
	for _, edge := range []struct {
		name string
		dest *float64
	}{
		{"north", &bounds.North},
		{"south", &bounds.South},
		{"east", &bounds.East},
		{"west", &bounds.West},
	} {
		value, err := strconv.ParseFloat(query.Get(edge.name), 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, edge.name+" is required and must be a number")
			return
		}
		*edge.dest = value
	}

	params := services.HeatmapParams{
		Bounds: bounds,
		Metric: services.DemandMetric(query.Get("metric")),
	}

	// An explicitly supplied grid size must be positive; absence means the
	// service default applies.
	if raw := query.Get("grid_size"); raw != "" {
		gridSize, err := strconv.ParseFloat(raw, 64)
		if err != nil || gridSize <= 0 {
			respondWithError(w, http.StatusBadRequest, "grid_size must be a positive number")
			return
		}
		params.GridSizeDegrees = gridSize
	}

	cells, err := h.service.Heatmap(r.Context(), params)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"cells": cells,
		"count": len(cells),
	})
}
