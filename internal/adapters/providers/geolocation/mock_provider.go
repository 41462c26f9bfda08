package geolocation

import (
	"github.com/healthreach/careaccess-backend/internal/domain/entities"
	"github.com/healthreach/careaccess-backend/internal/domain/providers"
)

// MockProvider returns scripted distances for tests and local development.
// When no override matches it falls back to the haversine computation.
type MockProvider struct {
	Overrides map[entities.Location]float64
	fallback  HaversineProvider
}

// NewMockProvider creates a new mock distance provider
func NewMockProvider() *MockProvider {
	return &MockProvider{Overrides: make(map[entities.Location]float64)}
}

// DistanceMiles returns the override for the destination point when one is
// set, and the real haversine distance otherwise
func (p *MockProvider) DistanceMiles(from, to entities.Location) float64 {
	if d, ok := p.Overrides[to]; ok {
		return d
	}
	return p.fallback.DistanceMiles(from, to)
}

var _ providers.DistanceCalculator = (*MockProvider)(nil)
