package geolocation

import (
	"math"

	"github.com/healthreach/careaccess-backend/internal/domain/entities"
	"github.com/healthreach/careaccess-backend/internal/domain/providers"
)

const earthRadiusMiles = 3958.8

// HaversineProvider computes great-circle distances locally. It is pure and
// deterministic, which keeps scoring calls testable.
type HaversineProvider struct{}

// NewHaversineProvider creates a new haversine distance provider
func NewHaversineProvider() providers.DistanceCalculator {
	return &HaversineProvider{}
}

// DistanceMiles returns the great-circle distance between two points in miles
func (p *HaversineProvider) DistanceMiles(from, to entities.Location) float64 {
	dLat := degreesToRadians(to.Latitude - from.Latitude)
	dLon := degreesToRadians(to.Longitude - from.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(from.Latitude))*math.Cos(degreesToRadians(to.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
