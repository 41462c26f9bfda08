package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/healthreach/careaccess-backend/internal/api/handlers"
	"github.com/healthreach/careaccess-backend/internal/domain/entities"
	apperrors "github.com/healthreach/careaccess-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRequestService struct {
	requests  map[string]*entities.Request
	cancelErr error
}

func newStubRequestService() *stubRequestService {
	return &stubRequestService{requests: make(map[string]*entities.Request)}
}

func (s *stubRequestService) Create(ctx context.Context, request *entities.Request) error {
	if request.UrgencyLevel < entities.UrgencyMin || request.UrgencyLevel > entities.UrgencyMax {
		return apperrors.NewValidationError("urgency level must be between 1 and 5")
	}
	request.ID = "req-1"
	request.Status = entities.RequestStatusPending
	s.requests[request.ID] = request
	return nil
}

func (s *stubRequestService) GetByID(ctx context.Context, id string) (*entities.Request, error) {
	if request, ok := s.requests[id]; ok {
		return request, nil
	}
	return nil, apperrors.NewNotFoundError("request not found")
}

func (s *stubRequestService) Cancel(ctx context.Context, id string) error {
	return s.cancelErr
}

func (s *stubRequestService) Fulfill(ctx context.Context, id string) error {
	return nil
}

func newRequestMux(service handlers.RequestService) *http.ServeMux {
	h := handlers.NewRequestHandler(service)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/requests", h.CreateRequest)
	mux.HandleFunc("GET /api/requests/{id}", h.GetRequest)
	mux.HandleFunc("POST /api/requests/{id}/cancel", h.CancelRequest)
	mux.HandleFunc("POST /api/requests/{id}/fulfill", h.FulfillRequest)
	return mux
}

func TestRequestHandler_CreateRequest(t *testing.T) {
	service := newStubRequestService()
	mux := newRequestMux(service)

	body := `{"patient_id":"patient-1","lat":39.29,"lng":-76.61,"service_category":"dental","urgency_level":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/requests", strings.NewReader(body))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created entities.Request
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "req-1", created.ID)
	assert.Equal(t, entities.RequestStatusPending, created.Status)
	assert.Equal(t, entities.ServiceCategoryDental, created.ServiceCategory)
	assert.InDelta(t, 39.29, created.Location.Latitude, 1e-9)
}

func TestRequestHandler_CreateRequest_InvalidJSON(t *testing.T) {
	mux := newRequestMux(newStubRequestService())

	req := httptest.NewRequest(http.MethodPost, "/api/requests", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestHandler_CreateRequest_ValidationError(t *testing.T) {
	mux := newRequestMux(newStubRequestService())

	body := `{"patient_id":"patient-1","lat":39.29,"lng":-76.61,"service_category":"dental","urgency_level":9}`
	req := httptest.NewRequest(http.MethodPost, "/api/requests", strings.NewReader(body))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "urgency")
}

func TestRequestHandler_GetRequest_NotFound(t *testing.T) {
	mux := newRequestMux(newStubRequestService())

	req := httptest.NewRequest(http.MethodGet, "/api/requests/missing", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestHandler_CancelRequest(t *testing.T) {
	mux := newRequestMux(newStubRequestService())

	req := httptest.NewRequest(http.MethodPost, "/api/requests/req-1/cancel", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cancelled")
}

func TestRequestHandler_CancelRequest_Conflict(t *testing.T) {
	service := newStubRequestService()
	service.cancelErr = apperrors.NewConflictError("request is not in the expected status")
	mux := newRequestMux(service)

	req := httptest.NewRequest(http.MethodPost, "/api/requests/req-1/cancel", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
