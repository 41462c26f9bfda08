package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/healthreach/careaccess-backend/internal/domain/entities"
)

// RequestService defines the request lifecycle operations used by the handler.
type RequestService interface {
	Create(ctx context.Context, request *entities.Request) error
	GetByID(ctx context.Context, id string) (*entities.Request, error)
	Cancel(ctx context.Context, id string) error
	Fulfill(ctx context.Context, id string) error
}

// RequestHandler handles service-request HTTP endpoints
type RequestHandler struct {
	service RequestService
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(service RequestService) *RequestHandler {
	return &RequestHandler{service: service}
}

type createRequestPayload struct {
	PatientID       string  `json:"patient_id"`
	Latitude        float64 `json:"lat"`
	Longitude       float64 `json:"lng"`
	ServiceCategory string  `json:"service_category"`
	UrgencyLevel    int     `json:"urgency_level"`
}

// CreateRequest handles POST /api/requests
func (h *RequestHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var payload createRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	request := &entities.Request{
		PatientID:       payload.PatientID,
		Location:        entities.Location{Latitude: payload.Latitude, Longitude: payload.Longitude},
		ServiceCategory: entities.ServiceCategory(payload.ServiceCategory),
		UrgencyLevel:    payload.UrgencyLevel,
	}

	if err := h.service.Create(r.Context(), request); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, request)
}

// GetRequest handles GET /api/requests/{id}
func (h *RequestHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")
	if requestID == "" {
		respondWithError(w, http.StatusBadRequest, "request ID is required")
		return
	}

	request, err := h.service.GetByID(r.Context(), requestID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, request)
}

// CancelRequest handles POST /api/requests/{id}/cancel
func (h *RequestHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel, string(entities.RequestStatusCancelled))
}

// FulfillRequest handles POST /api/requests/{id}/fulfill
func (h *RequestHandler) FulfillRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Fulfill, string(entities.RequestStatusFulfilled))
}

func (h *RequestHandler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, string) error, status string) {
	requestID := r.PathValue("id")
	if requestID == "" {
		respondWithError(w, http.StatusBadRequest, "request ID is required")
		return
	}

	if err := op(r.Context(), requestID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"id":     requestID,
		"status": status,
	})
}
