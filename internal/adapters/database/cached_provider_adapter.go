package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/healthreach/careaccess-backend/internal/domain/entities"
	"github.com/healthreach/careaccess-backend/internal/domain/providers"
	"github.com/healthreach/careaccess-backend/internal/domain/repositories"
)

// CachedProviderAdapter wraps a ProviderRepository with cache-aside reads.
// Provider records change far less often than they are read by matching
// and nearby queries, so short TTLs buy a lot.
type CachedProviderAdapter struct {
	adapter repositories.ProviderRepository
	cache   providers.CacheProvider
}

// NewCachedProviderAdapter creates a new cached provider adapter
func NewCachedProviderAdapter(adapter repositories.ProviderRepository, cache providers.CacheProvider) repositories.ProviderRepository {
	return &CachedProviderAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// Cache TTLs (in seconds)
const (
	providerByIDTTL  = 300 // 5 minutes for single provider
	nearbyResultsTTL = 120 // 2 minutes for nearby queries
	providersListTTL = 180 // 3 minutes for lists
)

func providerCacheKey(id string) string {
	return fmt.Sprintf("provider:%s", id)
}

func nearbyCacheKey(params repositories.NearbyParams) string {
	return fmt.Sprintf("providers:nearby:%.4f:%.4f:%.1f:%s:%d",
		params.Latitude, params.Longitude, params.RadiusMiles, params.ServiceCategory, params.Limit)
}

func providersListCacheKey(filter repositories.ProviderFilter) string {
	active := "any"
	if filter.IsActive != nil {
		active = fmt.Sprintf("%t", *filter.IsActive)
	}
	return fmt.Sprintf("providers:list:%s:%s:%d:%d", filter.ProviderType, active, filter.Limit, filter.Offset)
}

// Create creates a provider and warms its cache entry
func (a *CachedProviderAdapter) Create(ctx context.Context, provider *entities.Provider) error {
	if err := a.adapter.Create(ctx, provider); err != nil {
		return err
	}
	a.cacheProvider(provider)
	return nil
}

// GetByID retrieves a provider by ID with caching
func (a *CachedProviderAdapter) GetByID(ctx context.Context, id string) (*entities.Provider, error) {
	cacheKey := providerCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var provider entities.Provider
		if err := json.Unmarshal(cached, &provider); err == nil {
			return &provider, nil
		}
		log.Printf("Failed to unmarshal cached provider %s: %v", id, err)
	}

	provider, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.cacheProvider(provider)
	return provider, nil
}

// GetByIDs retrieves multiple providers by IDs with batch caching
func (a *CachedProviderAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Provider, error) {
	if len(ids) == 0 {
		return []*entities.Provider{}, nil
	}

	cacheKeys := make([]string, len(ids))
	for i, id := range ids {
		cacheKeys[i] = providerCacheKey(id)
	}

	cached, _ := a.cache.GetMulti(ctx, cacheKeys)

	found := make([]*entities.Provider, 0, len(ids))
	missing := make([]string, 0)
	for i, id := range ids {
		if data, ok := cached[cacheKeys[i]]; ok {
			var provider entities.Provider
			if err := json.Unmarshal(data, &provider); err == nil {
				found = append(found, &provider)
				continue
			}
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return found, nil
	}

	fetched, err := a.adapter.GetByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, provider := range fetched {
		a.cacheProvider(provider)
	}

	return append(found, fetched...), nil
}

// Update updates a provider and invalidates its cache entry
func (a *CachedProviderAdapter) Update(ctx context.Context, provider *entities.Provider) error {
	if err := a.adapter.Update(ctx, provider); err != nil {
		return err
	}
	if err := a.cache.Delete(ctx, providerCacheKey(provider.ID)); err != nil {
		log.Printf("Failed to invalidate cached provider %s: %v", provider.ID, err)
	}
	return nil
}

// List retrieves providers with caching
func (a *CachedProviderAdapter) List(ctx context.Context, filter repositories.ProviderFilter) ([]*entities.Provider, error) {
	cacheKey := providersListCacheKey(filter)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var providerList []*entities.Provider
		if err := json.Unmarshal(cached, &providerList); err == nil {
			return providerList, nil
		}
	}

	providerList, err := a.adapter.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	a.cacheSet(cacheKey, providerList, providersListTTL)
	return providerList, nil
}

// FindNearby retrieves nearby providers with short-TTL caching. Wait times
// move quickly, so this trades a little staleness for latency.
func (a *CachedProviderAdapter) FindNearby(ctx context.Context, params repositories.NearbyParams) ([]*entities.Provider, error) {
	cacheKey := nearbyCacheKey(params)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var providerList []*entities.Provider
		if err := json.Unmarshal(cached, &providerList); err == nil {
			return providerList, nil
		}
	}

	providerList, err := a.adapter.FindNearby(ctx, params)
	if err != nil {
		return nil, err
	}

	a.cacheSet(cacheKey, providerList, nearbyResultsTTL)
	return providerList, nil
}

// FindInBounds is a heatmap-path read; results are not cached because the
// HTTP cache middleware already covers the heatmap endpoint
func (a *CachedProviderAdapter) FindInBounds(ctx context.Context, bounds entities.BoundingBox) ([]*entities.Provider, error) {
	return a.adapter.FindInBounds(ctx, bounds)
}

// cacheProvider updates a single provider's cache entry asynchronously to
// avoid blocking the response
func (a *CachedProviderAdapter) cacheProvider(provider *entities.Provider) {
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(provider); err == nil {
			if err := a.cache.Set(bgCtx, providerCacheKey(provider.ID), data, providerByIDTTL); err != nil {
				log.Printf("Failed to cache provider %s: %v", provider.ID, err)
			}
		}
	}()
}

func (a *CachedProviderAdapter) cacheSet(key string, value interface{}, ttl int) {
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(value); err == nil {
			if err := a.cache.Set(bgCtx, key, data, ttl); err != nil {
				log.Printf("Failed to cache %s: %v", key, err)
			}
		}
	}()
}
