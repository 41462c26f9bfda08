package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/healthreach/careaccess-backend/internal/domain/entities"
	domainproviders "github.com/healthreach/careaccess-backend/internal/domain/providers"
	"github.com/healthreach/careaccess-backend/internal/domain/repositories"
	"github.com/healthreach/careaccess-backend/internal/infrastructure/observability"
	apperrors "github.com/healthreach/careaccess-backend/pkg/errors"
)

// MatchResult carries the outcome of a settlement attempt
type MatchResult struct {
	Matched    bool              `json:"matched"`
	Candidates []RankedCandidate `json:"candidates"`
}

// RequestService handles the service-request lifecycle and orchestrates
// matching against nearby providers
type RequestService struct {
	requestRepo  repositories.RequestRepository
	providerRepo repositories.ProviderRepository
	matcher      *MatchingService
	bus          domainproviders.EventBus
	radiusMiles  float64
	recommendN   int
}

// NewRequestService creates a new request service. The event bus is
// optional; lifecycle events are skipped when it is nil.
func NewRequestService(
	requestRepo repositories.RequestRepository,
	providerRepo repositories.ProviderRepository,
	matcher *MatchingService,
	bus domainproviders.EventBus,
	radiusMiles float64,
	recommendN int,
) *RequestService {
	if radiusMiles <= 0 {
		radiusMiles = DefaultSearchRadiusMiles
	}
	if recommendN <= 0 {
		recommendN = 3
	}
	return &RequestService{
		requestRepo:  requestRepo,
		providerRepo: providerRepo,
		matcher:      matcher,
		bus:          bus,
		radiusMiles:  radiusMiles,
		recommendN:   recommendN,
	}
}

// Create validates and persists a new pending request
func (s *RequestService) Create(ctx context.Context, request *entities.Request) error {
	if err := validateRequest(request); err != nil {
		return err
	}

	now := time.Now()
	request.ID = uuid.New().String()
	request.Status = entities.RequestStatusPending
	request.MatchedProviderID = nil
	request.MatchScore = nil
	request.CreatedAt = now
	request.UpdatedAt = now

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return err
	}

	s.publish(ctx, entities.NewRequestEvent(request.ID, entities.RequestEventTypeCreated, request.Location))
	return nil
}

// GetByID retrieves a request by ID
func (s *RequestService) GetByID(ctx context.Context, id string) (*entities.Request, error) {
	return s.requestRepo.GetByID(ctx, id)
}

// Cancel transitions a pending request to cancelled
func (s *RequestService) Cancel(ctx context.Context, id string) error {
	if err := s.requestRepo.TransitionStatus(ctx, id, entities.RequestStatusPending, entities.RequestStatusCancelled); err != nil {
		return err
	}
	s.publish(ctx, entities.NewRequestEvent(id, entities.RequestEventTypeCancelled, entities.Location{}))
	return nil
}

// Fulfill transitions a matched request to fulfilled
func (s *RequestService) Fulfill(ctx context.Context, id string) error {
	if err := s.requestRepo.TransitionStatus(ctx, id, entities.RequestStatusMatched, entities.RequestStatusFulfilled); err != nil {
		return err
	}
	s.publish(ctx, entities.NewRequestEvent(id, entities.RequestEventTypeFulfilled, entities.Location{}))
	return nil
}

// Recommend ranks nearby providers for a request without settling it.
// The returned list is truncated to limit (the configured default when
// limit is not positive).
func (s *RequestService) Recommend(ctx context.Context, requestID string, algorithm MatchAlgorithm, limit int) ([]RankedCandidate, error) {
	request, candidates, err := s.loadCandidates(ctx, requestID, algorithm)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.recommendN
	}

	scored := s.matcher.Rank(request, candidates, algorithm)
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return toRanked(scored), nil
}

// Match ranks nearby providers and settles the request on the top
// candidate. Settlement is a conditional pending-to-matched transition;
// when a concurrent match wins the race a conflict error is returned and
// the request is left untouched. An empty candidate set is a normal
// no-coverage outcome, returned as an unmatched result.
func (s *RequestService) Match(ctx context.Context, requestID string, algorithm MatchAlgorithm) (*MatchResult, error) {
	request, candidates, err := s.loadCandidates(ctx, requestID, algorithm)
	if err != nil {
		return nil, err
	}

	scored := s.matcher.Rank(request, candidates, algorithm)
	if len(scored) == 0 {
		return &MatchResult{Matched: false, Candidates: []RankedCandidate{}}, nil
	}

	best := scored[0]
	if err := s.requestRepo.SettleMatch(ctx, request.ID, best.Provider.ID, best.Score); err != nil {
		return nil, err
	}

	event := entities.NewRequestEvent(request.ID, entities.RequestEventTypeMatched, request.Location)
	event.ProviderID = best.Provider.ID
	score := best.Score
	event.MatchScore = &score
	s.publish(ctx, event)

	return &MatchResult{Matched: true, Candidates: toRanked(scored)}, nil
}

// loadCandidates fetches the request and its geo-filtered candidate set
func (s *RequestService) loadCandidates(ctx context.Context, requestID string, algorithm MatchAlgorithm) (*entities.Request, []*entities.Provider, error) {
	if !algorithm.Valid() {
		return nil, nil, apperrors.NewValidationError("unknown matching algorithm")
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if request.Status != entities.RequestStatusPending {
		return nil, nil, apperrors.NewConflictError("request is no longer pending")
	}
	if !request.Location.Valid() {
		return nil, nil, apperrors.NewValidationError("request has invalid coordinates")
	}

	candidates, err := s.providerRepo.FindNearby(ctx, repositories.NearbyParams{
		Latitude:        request.Location.Latitude,
		Longitude:       request.Location.Longitude,
		RadiusMiles:     s.radiusMiles,
		ServiceCategory: request.ServiceCategory,
	})
	if err != nil {
		return nil, nil, err
	}

	return request, candidates, nil
}

func (s *RequestService) publish(ctx context.Context, event *entities.RequestEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, domainproviders.EventChannelRequestUpdates, event); err != nil {
		observability.GetLogger().Warn().
			Err(err).
			Str("request_id", event.RequestID).
			Str("event_type", string(event.EventType)).
			Msg("failed to publish request event")
	}
}

func validateRequest(request *entities.Request) error {
	if !request.Location.Valid() {
		return apperrors.NewValidationError("latitude must be in [-90,90] and longitude in [-180,180]")
	}
	if !request.ServiceCategory.Valid() {
		return apperrors.NewValidationError("unknown service category")
	}
	if request.UrgencyLevel < entities.UrgencyMin || request.UrgencyLevel > entities.UrgencyMax {
		return apperrors.NewValidationError("urgency level must be between 1 and 5")
	}
	return nil
}

func toRanked(scored []ScoredCandidate) []RankedCandidate {
	ranked := make([]RankedCandidate, len(scored))
	for i, c := range scored {
		ranked[i] = c.Ranked()
	}
	return ranked
}
