package services

import (
	"context"
	"testing"

	"github.com/healthreach/careaccess-backend/internal/domain/entities"
	"github.com/healthreach/careaccess-backend/internal/domain/repositories"
	apperrors "github.com/healthreach/careaccess-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRequestRepo struct {
	requests  map[string]*entities.Request
	created   []*entities.Request
	settled   []string
	settleErr error
}

func newStubRequestRepo() *stubRequestRepo {
	return &stubRequestRepo{requests: make(map[string]*entities.Request)}
}

func (s *stubRequestRepo) Create(ctx context.Context, request *entities.Request) error {
	s.created = append(s.created, request)
	s.requests[request.ID] = request
	return nil
}

func (s *stubRequestRepo) GetByID(ctx context.Context, id string) (*entities.Request, error) {
	if request, ok := s.requests[id]; ok {
		return request, nil
	}
	return nil, apperrors.NewNotFoundError("request not found")
}

func (s *stubRequestRepo) ListPending(ctx context.Context, filter repositories.PendingRequestFilter) ([]*entities.Request, error) {
	var pending []*entities.Request
	for _, request := range s.requests {
		if request.Status == entities.RequestStatusPending {
			pending = append(pending, request)
		}
	}
	return pending, nil
}

func (s *stubRequestRepo) SettleMatch(ctx context.Context, requestID, providerID string, score float64) error {
	if s.settleErr != nil {
		return s.settleErr
	}
	request, ok := s.requests[requestID]
	if !ok || request.Status != entities.RequestStatusPending {
		return apperrors.NewConflictError("request is no longer pending")
	}
	request.Status = entities.RequestStatusMatched
	request.MatchedProviderID = &providerID
	request.MatchScore = &score
	s.settled = append(s.settled, requestID)
	return nil
}

func (s *stubRequestRepo) TransitionStatus(ctx context.Context, requestID string, from, to entities.RequestStatus) error {
	request, ok := s.requests[requestID]
	if !ok {
		return apperrors.NewNotFoundError("request not found")
	}
	if request.Status != from {
		return apperrors.NewConflictError("request status changed")
	}
	request.Status = to
	return nil
}

type stubProviderRepo struct {
	nearby []*entities.Provider
}

func (s *stubProviderRepo) Create(ctx context.Context, provider *entities.Provider) error { return nil }

func (s *stubProviderRepo) GetByID(ctx context.Context, id string) (*entities.Provider, error) {
	return nil, apperrors.NewNotFoundError("provider not found")
}

func (s *stubProviderRepo) GetByIDs(ctx context.Context, ids []string) ([]*entities.Provider, error) {
	return nil, nil
}

func (s *stubProviderRepo) Update(ctx context.Context, provider *entities.Provider) error { return nil }

func (s *stubProviderRepo) List(ctx context.Context, filter repositories.ProviderFilter) ([]*entities.Provider, error) {
	return s.nearby, nil
}

func (s *stubProviderRepo) FindNearby(ctx context.Context, params repositories.NearbyParams) ([]*entities.Provider, error) {
	return s.nearby, nil
}

func (s *stubProviderRepo) FindInBounds(ctx context.Context, bounds entities.BoundingBox) ([]*entities.Provider, error) {
	return s.nearby, nil
}

func newTestRequestService(requestRepo *stubRequestRepo, providerRepo *stubProviderRepo, miles map[entities.Location]float64) *RequestService {
	matcher := NewMatchingService(&stubDistance{miles: miles}, DefaultMatchingOptions())
	return NewRequestService(requestRepo, providerRepo, matcher, nil, DefaultSearchRadiusMiles, 3)
}

func TestRequestService_Create(t *testing.T) {
	repo := newStubRequestRepo()
	svc := newTestRequestService(repo, &stubProviderRepo{}, nil)

	request := &entities.Request{
		PatientID:       "patient-1",
		Location:        entities.Location{Latitude: 39.29, Longitude: -76.61},
		ServiceCategory: entities.ServiceCategoryDental,
		UrgencyLevel:    3,
	}

	err := svc.Create(context.Background(), request)
	require.NoError(t, err)
	assert.NotEmpty(t, request.ID)
	assert.Equal(t, entities.RequestStatusPending, request.Status)
	assert.Len(t, repo.created, 1)
}

func TestRequestService_Create_Invalid(t *testing.T) {
	svc := newTestRequestService(newStubRequestRepo(), &stubProviderRepo{}, nil)

	cases := []struct {
		name    string
		request *entities.Request
	}{
		{
			name: "urgency out of range",
			request: &entities.Request{
				Location:        entities.Location{Latitude: 39.29, Longitude: -76.61},
				ServiceCategory: entities.ServiceCategoryGeneral,
				UrgencyLevel:    6,
			},
		},
		{
			name: "latitude out of range",
			request: &entities.Request{
				Location:        entities.Location{Latitude: 91, Longitude: -76.61},
				ServiceCategory: entities.ServiceCategoryGeneral,
				UrgencyLevel:    3,
			},
		},
		{
			name: "unknown category",
			request: &entities.Request{
				Location:        entities.Location{Latitude: 39.29, Longitude: -76.61},
				ServiceCategory: entities.ServiceCategory("cosmetic"),
				UrgencyLevel:    3,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Create(context.Background(), tc.request)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestRequestService_Match_SettlesTopCandidate(t *testing.T) {
	repo := newStubRequestRepo()
	request := &entities.Request{
		ID:              "req-1",
		Location:        entities.Location{Latitude: 39.29, Longitude: -76.61},
		ServiceCategory: entities.ServiceCategoryUrgentCare,
		UrgencyLevel:    2,
		Status:          entities.RequestStatusPending,
	}
	repo.requests[request.ID] = request

	locNear := entities.Location{Latitude: 39.30, Longitude: -76.60}
	locFar := entities.Location{Latitude: 39.35, Longitude: -76.55}
	providerRepo := &stubProviderRepo{nearby: []*entities.Provider{
		{ID: "far", Name: "Far Clinic", Type: entities.ProviderTypeClinic, Location: locFar, CurrentWaitMinutes: intPtr(50)},
		{ID: "near", Name: "Near Clinic", Type: entities.ProviderTypeClinic, Location: locNear, CurrentWaitMinutes: intPtr(10)},
	}}

	svc := newTestRequestService(repo, providerRepo, map[entities.Location]float64{locNear: 2, locFar: 9})

	result, err := svc.Match(context.Background(), "req-1", AlgorithmSmart)
	require.NoError(t, err)
	assert.True(t, result.Matched)
	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "near", result.Candidates[0].ProviderID)

	assert.Equal(t, entities.RequestStatusMatched, request.Status)
	require.NotNil(t, request.MatchedProviderID)
	assert.Equal(t, "near", *request.MatchedProviderID)
	require.NotNil(t, request.MatchScore)
	assert.Equal(t, result.Candidates[0].Score, *request.MatchScore)
}

func TestRequestService_Match_NoCoverage(t *testing.T) {
	repo := newStubRequestRepo()
	repo.requests["req-1"] = &entities.Request{
		ID:              "req-1",
		Location:        entities.Location{Latitude: 39.29, Longitude: -76.61},
		ServiceCategory: entities.ServiceCategoryDental,
		UrgencyLevel:    4,
		Status:          entities.RequestStatusPending,
	}

	svc := newTestRequestService(repo, &stubProviderRepo{}, nil)

	result, err := svc.Match(context.Background(), "req-1", AlgorithmSmart)
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Empty(t, result.Candidates)
	assert.Empty(t, repo.settled)
}

func TestRequestService_Match_AlreadySettled(t *testing.T) {
	repo := newStubRequestRepo()
	matched := "other-provider"
	repo.requests["req-1"] = &entities.Request{
		ID:                "req-1",
		Location:          entities.Location{Latitude: 39.29, Longitude: -76.61},
		ServiceCategory:   entities.ServiceCategoryDental,
		UrgencyLevel:      4,
		Status:            entities.RequestStatusMatched,
		MatchedProviderID: &matched,
	}

	svc := newTestRequestService(repo, &stubProviderRepo{}, nil)

	_, err := svc.Match(context.Background(), "req-1", AlgorithmSmart)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestRequestService_Match_ConcurrentSettleLoses(t *testing.T) {
	repo := newStubRequestRepo()
	repo.requests["req-1"] = &entities.Request{
		ID:              "req-1",
		Location:        entities.Location{Latitude: 39.29, Longitude: -76.61},
		ServiceCategory: entities.ServiceCategoryGeneral,
		UrgencyLevel:    3,
		Status:          entities.RequestStatusPending,
	}
	repo.settleErr = apperrors.NewConflictError("request is no longer pending")

	loc := entities.Location{Latitude: 39.30, Longitude: -76.60}
	providerRepo := &stubProviderRepo{nearby: []*entities.Provider{
		{ID: "p1", Name: "Clinic", Type: entities.ProviderTypeClinic, Location: loc},
	}}

	svc := newTestRequestService(repo, providerRepo, map[entities.Location]float64{loc: 3})

	_, err := svc.Match(context.Background(), "req-1", AlgorithmSmart)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestRequestService_Recommend_TruncatesToLimit(t *testing.T) {
	repo := newStubRequestRepo()
	repo.requests["req-1"] = &entities.Request{
		ID:              "req-1",
		Location:        entities.Location{Latitude: 39.29, Longitude: -76.61},
		ServiceCategory: entities.ServiceCategoryGeneral,
		UrgencyLevel:    3,
		Status:          entities.RequestStatusPending,
	}

	miles := make(map[entities.Location]float64)
	var nearby []*entities.Provider
	for i := 0; i < 5; i++ {
		loc := entities.Location{Latitude: 39.30 + float64(i)*0.01, Longitude: -76.60}
		miles[loc] = float64(i + 1)
		nearby = append(nearby, &entities.Provider{
			ID: string(rune('a' + i)), Name: "Clinic", Type: entities.ProviderTypeClinic, Location: loc,
		})
	}

	svc := newTestRequestService(repo, &stubProviderRepo{nearby: nearby}, miles)

	ranked, err := svc.Recommend(context.Background(), "req-1", AlgorithmSmart, 0)
	require.NoError(t, err)
	assert.Len(t, ranked, 3)
	assert.Equal(t, "a", ranked[0].ProviderID)
}

func TestRequestService_Recommend_UnknownAlgorithm(t *testing.T) {
	svc := newTestRequestService(newStubRequestRepo(), &stubProviderRepo{}, nil)

	_, err := svc.Recommend(context.Background(), "req-1", MatchAlgorithm("random"), 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestRequestService_CancelAndFulfill(t *testing.T) {
	repo := newStubRequestRepo()
	repo.requests["req-1"] = &entities.Request{ID: "req-1", Status: entities.RequestStatusPending}
	repo.requests["req-2"] = &entities.Request{ID: "req-2", Status: entities.RequestStatusMatched}

	svc := newTestRequestService(repo, &stubProviderRepo{}, nil)

	require.NoError(t, svc.Cancel(context.Background(), "req-1"))
	assert.Equal(t, entities.RequestStatusCancelled, repo.requests["req-1"].Status)

	require.NoError(t, svc.Fulfill(context.Background(), "req-2"))
	assert.Equal(t, entities.RequestStatusFulfilled, repo.requests["req-2"].Status)

	// No reverse transitions
	err := svc.Cancel(context.Background(), "req-2")
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}
