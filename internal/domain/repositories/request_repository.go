package repositories

import (
	"context"

	"github.com/healthreach/careaccess-backend/internal/domain/entities"
)

// RequestRepository defines the interface for service-request data operations
type RequestRepository interface {
	// Create creates a new service request
	Create(ctx context.Context, request *entities.Request) error

	// GetByID retrieves a request by ID
	GetByID(ctx context.Context, id string) (*entities.Request, error)

	// ListPending retrieves pending requests matching the filter
	ListPending(ctx context.Context, filter PendingRequestFilter) ([]*entities.Request, error)

	// SettleMatch transitions a request from pending to matched and records
	// the winning provider and score. The update is conditional on the
	// request still being pending; a conflict error is returned otherwise.
	SettleMatch(ctx context.Context, requestID, providerID string, score float64) error

	// TransitionStatus performs a conditional status transition, failing
	// with a conflict error when the request is no longer in the expected
	// prior status.
	TransitionStatus(ctx context.Context, requestID string, from, to entities.RequestStatus) error
}

// PendingRequestFilter defines filters for listing pending requests
type PendingRequestFilter struct {
	Bounds          *entities.BoundingBox
	ServiceCategory entities.ServiceCategory
	Limit           int
}
