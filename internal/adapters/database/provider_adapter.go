package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/healthreach/careaccess-backend/internal/domain/entities"
	"github.com/healthreach/careaccess-backend/internal/domain/repositories"
	"github.com/healthreach/careaccess-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/healthreach/careaccess-backend/pkg/errors"
	"github.com/lib/pq"
)

// Mean earth radius in miles, for the SQL haversine distance
const earthRadiusMiles = 3958.8

var providerColumns = []interface{}{
	"id", "name", "provider_type", "latitude", "longitude",
	"service_categories", "capacity", "current_wait_minutes",
	"is_active", "created_at", "updated_at",
}

// ProviderAdapter implements the ProviderRepository interface
type ProviderAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProviderAdapter creates a new provider adapter
func NewProviderAdapter(client *postgres.Client) repositories.ProviderRepository {
	return &ProviderAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new provider
func (a *ProviderAdapter) Create(ctx context.Context, provider *entities.Provider) error {
	query, args, err := a.db.Insert("providers").Rows(providerRecord(provider)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create provider", err)
	}

	return nil
}

// GetByID retrieves a provider by ID
func (a *ProviderAdapter) GetByID(ctx context.Context, id string) (*entities.Provider, error) {
	query, args, err := a.db.Select(providerColumns...).
		From("providers").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	provider, err := scanProvider(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("provider not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get provider", err)
	}

	return provider, nil
}

// GetByIDs retrieves multiple providers by their IDs
func (a *ProviderAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Provider, error) {
	if len(ids) == 0 {
		return []*entities.Provider{}, nil
	}

	query, args, err := a.db.Select(providerColumns...).
		From("providers").
		Where(goqu.Ex{"id": ids}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryProviders(ctx, query, args...)
}

// Update updates a provider
func (a *ProviderAdapter) Update(ctx context.Context, provider *entities.Provider) error {
	record := providerRecord(provider)
	delete(record, "id")
	delete(record, "created_at")

	query, args, err := a.db.Update("providers").
		Set(record).
		Where(goqu.Ex{"id": provider.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update provider", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to read update result", err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError("provider not found")
	}

	return nil
}

// List retrieves providers with filters
func (a *ProviderAdapter) List(ctx context.Context, filter repositories.ProviderFilter) ([]*entities.Provider, error) {
	ds := a.db.Select(providerColumns...).From("providers")

	if filter.ProviderType != "" {
		ds = ds.Where(goqu.Ex{"provider_type": string(filter.ProviderType)})
	}
	if filter.IsActive != nil {
		ds = ds.Where(goqu.Ex{"is_active": *filter.IsActive})
	}
	ds = ds.Order(goqu.I("name").Asc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	return a.queryProviders(ctx, query, args...)
}

// FindNearby retrieves active providers within a search radius, ordered by
// distance. This is a haversine approximation in SQL; a PostGIS geography
// index would replace it at larger provider counts.
func (a *ProviderAdapter) FindNearby(ctx context.Context, params repositories.NearbyParams) ([]*entities.Provider, error) {
	query := fmt.Sprintf(`
		SELECT id, name, provider_type, latitude, longitude,
			service_categories, capacity, current_wait_minutes,
			is_active, created_at, updated_at
		FROM (
			SELECT *,
				(%f * acos(least(1.0, cos(radians($1)) * cos(radians(latitude)) *
				cos(radians(longitude) - radians($2)) + sin(radians($1)) *
				sin(radians(latitude))))) AS distance_miles
			FROM providers
			WHERE is_active = true
		) nearby
		WHERE distance_miles <= $3
	`, earthRadiusMiles)

	args := []interface{}{params.Latitude, params.Longitude, params.RadiusMiles}
	argCount := 4

	if params.ServiceCategory != "" {
		query += fmt.Sprintf(" AND $%d = ANY(service_categories)", argCount)
		args = append(args, string(params.ServiceCategory))
		argCount++
	}

	query += " ORDER BY distance_miles"

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, params.Limit)
	}

	return a.queryProviders(ctx, query, args...)
}

// FindInBounds retrieves active providers inside a bounding box
func (a *ProviderAdapter) FindInBounds(ctx context.Context, bounds entities.BoundingBox) ([]*entities.Provider, error) {
	query, args, err := a.db.Select(providerColumns...).
		From("providers").
		Where(
			goqu.Ex{"is_active": true},
			goqu.C("latitude").Between(goqu.Range(bounds.South, bounds.North)),
			goqu.C("longitude").Between(goqu.Range(bounds.West, bounds.East)),
		).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build bounds query", err)
	}

	return a.queryProviders(ctx, query, args...)
}

func (a *ProviderAdapter) queryProviders(ctx context.Context, query string, args ...interface{}) ([]*entities.Provider, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query providers", err)
	}
	defer rows.Close()

	providerList := []*entities.Provider{}
	for rows.Next() {
		provider, err := scanProvider(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan provider", err)
		}
		providerList = append(providerList, provider)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating providers", err)
	}

	return providerList, nil
}

func providerRecord(provider *entities.Provider) goqu.Record {
	categories := make([]string, len(provider.ServiceCategories))
	for i, c := range provider.ServiceCategories {
		categories[i] = string(c)
	}

	return goqu.Record{
		"id":                   provider.ID,
		"name":                 provider.Name,
		"provider_type":        string(provider.Type),
		"latitude":             provider.Location.Latitude,
		"longitude":            provider.Location.Longitude,
		"service_categories":   pq.Array(categories),
		"capacity":             nullableInt(provider.Capacity),
		"current_wait_minutes": nullableInt(provider.CurrentWaitMinutes),
		"is_active":            provider.IsActive,
		"created_at":           provider.CreatedAt,
		"updated_at":           provider.UpdatedAt,
	}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProvider(row rowScanner) (*entities.Provider, error) {
	provider := &entities.Provider{}
	var categories []string
	var capacity, waitMinutes sql.NullInt64

	err := row.Scan(
		&provider.ID,
		&provider.Name,
		&provider.Type,
		&provider.Location.Latitude,
		&provider.Location.Longitude,
		pq.Array(&categories),
		&capacity,
		&waitMinutes,
		&provider.IsActive,
		&provider.CreatedAt,
		&provider.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	provider.ServiceCategories = make([]entities.ServiceCategory, len(categories))
	for i, c := range categories {
		provider.ServiceCategories[i] = entities.ServiceCategory(c)
	}
	if capacity.Valid {
		v := int(capacity.Int64)
		provider.Capacity = &v
	}
	if waitMinutes.Valid {
		v := int(waitMinutes.Int64)
		provider.CurrentWaitMinutes = &v
	}

	return provider, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
