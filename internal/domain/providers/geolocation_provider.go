package providers

import (
	"github.com/healthreach/careaccess-backend/internal/domain/entities"
)

// DistanceCalculator computes the great-circle distance between two points.
// Implementations must be pure and deterministic: the result is non-negative,
// symmetric, and zero only when both points are identical.
type DistanceCalculator interface {
	// DistanceMiles returns the distance between two points in miles
	DistanceMiles(from, to entities.Location) float64
}
