package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/healthreach/careaccess-backend/internal/domain/entities"
	"github.com/healthreach/careaccess-backend/internal/domain/repositories"
	apperrors "github.com/healthreach/careaccess-backend/pkg/errors"
)

// ProviderService handles business logic for provider management
type ProviderService struct {
	repo repositories.ProviderRepository
}

// NewProviderService creates a new provider service
func NewProviderService(repo repositories.ProviderRepository) *ProviderService {
	return &ProviderService{repo: repo}
}

// Create validates and persists a new provider
func (s *ProviderService) Create(ctx context.Context, provider *entities.Provider) error {
	if err := validateProvider(provider); err != nil {
		return err
	}

	now := time.Now()
	if provider.ID == "" {
		provider.ID = uuid.New().String()
	}
	provider.CreatedAt = now
	provider.UpdatedAt = now

	return s.repo.Create(ctx, provider)
}

// GetByID retrieves a provider by ID
func (s *ProviderService) GetByID(ctx context.Context, id string) (*entities.Provider, error) {
	return s.repo.GetByID(ctx, id)
}

// Update validates and updates an existing provider
func (s *ProviderService) Update(ctx context.Context, provider *entities.Provider) error {
	if provider.ID == "" {
		return apperrors.NewValidationError("provider ID is required")
	}
	if err := validateProvider(provider); err != nil {
		return err
	}
	provider.UpdatedAt = time.Now()
	return s.repo.Update(ctx, provider)
}

// List retrieves providers with filters
func (s *ProviderService) List(ctx context.Context, filter repositories.ProviderFilter) ([]*entities.Provider, error) {
	return s.repo.List(ctx, filter)
}

// FindNearby retrieves active providers within a search radius
func (s *ProviderService) FindNearby(ctx context.Context, params repositories.NearbyParams) ([]*entities.Provider, error) {
	if params.RadiusMiles <= 0 {
		params.RadiusMiles = DefaultSearchRadiusMiles
	}
	point := entities.Location{Latitude: params.Latitude, Longitude: params.Longitude}
	if !point.Valid() {
		return nil, apperrors.NewValidationError("latitude must be in [-90,90] and longitude in [-180,180]")
	}
	if params.ServiceCategory != "" && !params.ServiceCategory.Valid() {
		return nil, apperrors.NewValidationError("unknown service category")
	}
	return s.repo.FindNearby(ctx, params)
}

func validateProvider(provider *entities.Provider) error {
	if provider.Name == "" {
		return apperrors.NewValidationError("provider name is required")
	}
	if !provider.Type.Valid() {
		return apperrors.NewValidationError("unknown provider type")
	}
	if !provider.Location.Valid() {
		return apperrors.NewValidationError("latitude must be in [-90,90] and longitude in [-180,180]")
	}
	for _, c := range provider.ServiceCategories {
		if !c.Valid() {
			return apperrors.NewValidationError("unknown service category")
		}
	}
	if provider.Capacity != nil && *provider.Capacity <= 0 {
		return apperrors.NewValidationError("capacity must be positive when set")
	}
	if provider.CurrentWaitMinutes != nil && *provider.CurrentWaitMinutes < 0 {
		return apperrors.NewValidationError("wait time must be non-negative when set")
	}
	return nil
}
