package repositories

import (
	"context"

	"github.com/healthreach/careaccess-backend/internal/domain/entities"
)

// ProviderRepository defines the interface for provider data operations
type ProviderRepository interface {
	// Create creates a new provider
	Create(ctx context.Context, provider *entities.Provider) error

	// GetByID retrieves a provider by ID
	GetByID(ctx context.Context, id string) (*entities.Provider, error)

	// GetByIDs retrieves multiple providers by their IDs
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Provider, error)

	// Update updates a provider
	Update(ctx context.Context, provider *entities.Provider) error

	// List retrieves providers with filters
	List(ctx context.Context, filter ProviderFilter) ([]*entities.Provider, error)

	// FindNearby retrieves active providers within a search radius,
	// ordered by distance. This is the geo-query used to build the
	// candidate set for matching.
	FindNearby(ctx context.Context, params NearbyParams) ([]*entities.Provider, error)

	// FindInBounds retrieves active providers inside a bounding box
	FindInBounds(ctx context.Context, bounds entities.BoundingBox) ([]*entities.Provider, error)
}

// ProviderFilter defines filters for listing providers
type ProviderFilter struct {
	ProviderType entities.ProviderType
	IsActive     *bool
	Limit        int
	Offset       int
}

// NearbyParams defines parameters for a nearby-provider search
type NearbyParams struct {
	Latitude        float64
	Longitude       float64
	RadiusMiles     float64
	ServiceCategory entities.ServiceCategory
	Limit           int
}
