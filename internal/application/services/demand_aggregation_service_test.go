package services

import (
	"testing"

	"github.com/healthreach/careaccess-backend/internal/domain/entities"
	apperrors "github.com/healthreach/careaccess-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAggregator() *DemandAggregationService {
	return NewDemandAggregationService(nil, nil, AssumedAvgProviderCapacity, DefaultGridSizeDegrees)
}

func testBounds() entities.BoundingBox {
	return entities.BoundingBox{North: 39.5, South: 39.0, East: -76.0, West: -77.0}
}

func pendingRequestAt(lat, lng float64) *entities.Request {
	return &entities.Request{
		ID:              "r",
		Location:        entities.Location{Latitude: lat, Longitude: lng},
		ServiceCategory: entities.ServiceCategoryGeneral,
		UrgencyLevel:    3,
		Status:          entities.RequestStatusPending,
	}
}

func providerAt(lat, lng float64) *entities.Provider {
	return &entities.Provider{
		ID:       "p",
		Type:     entities.ProviderTypeClinic,
		Location: entities.Location{Latitude: lat, Longitude: lng},
		IsActive: true,
	}
}

func TestAggregate_RequestsInSameCell(t *testing.T) {
	svc := newTestAggregator()

	requests := []*entities.Request{
		pendingRequestAt(39.291, -76.612),
		pendingRequestAt(39.292, -76.613),
		pendingRequestAt(39.294, -76.618),
	}

	cells, err := svc.Aggregate(requests, nil, testBounds(), 0.01, MetricRequests)
	require.NoError(t, err)
	require.Len(t, cells, 1)

	assert.Equal(t, 3, cells[0].RequestCount)
	assert.Equal(t, float64(3), cells[0].Value)
	assert.InDelta(t, 39.295, cells[0].Latitude, 1e-9)
	assert.InDelta(t, -76.615, cells[0].Longitude, 1e-9)
}

func TestAggregate_UnmetDemand(t *testing.T) {
	svc := newTestAggregator()

	requests := make([]*entities.Request, 25)
	for i := range requests {
		requests[i] = pendingRequestAt(39.291, -76.612)
	}
	providerList := []*entities.Provider{providerAt(39.293, -76.614)}

	cells, err := svc.Aggregate(requests, providerList, testBounds(), 0.01, MetricUnmetDemand)
	require.NoError(t, err)
	require.Len(t, cells, 1)

	// 25 requests against one provider at the assumed capacity of 10
	assert.Equal(t, float64(15), cells[0].Value)
	assert.Equal(t, 25, cells[0].RequestCount)
	assert.Equal(t, 1, cells[0].ProviderCount)
}

func TestAggregate_WaitTimeIsLoadProxy(t *testing.T) {
	svc := newTestAggregator()

	requests := []*entities.Request{
		pendingRequestAt(39.291, -76.612),
		pendingRequestAt(39.292, -76.613),
		pendingRequestAt(39.293, -76.614),
		pendingRequestAt(39.294, -76.618),
	}
	providerList := []*entities.Provider{
		providerAt(39.291, -76.611),
		providerAt(39.295, -76.617),
	}

	cells, err := svc.Aggregate(requests, providerList, testBounds(), 0.01, MetricWaitTime)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, float64(2), cells[0].Value)
}

func TestAggregate_CapacityMetricKeepsProviderOnlyCells(t *testing.T) {
	svc := newTestAggregator()

	providerList := []*entities.Provider{
		providerAt(39.291, -76.612),
		providerAt(39.292, -76.613),
	}

	cells, err := svc.Aggregate(nil, providerList, testBounds(), 0.01, MetricCapacity)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, float64(20), cells[0].Value)
	assert.Equal(t, 0, cells[0].RequestCount)
	assert.Equal(t, 2, cells[0].ProviderCount)
}

func TestAggregate_ProviderOnlyCellsExcludedFromRequestMetric(t *testing.T) {
	svc := newTestAggregator()

	requests := []*entities.Request{pendingRequestAt(39.291, -76.612)}
	providerList := []*entities.Provider{providerAt(39.45, -76.05)}

	cells, err := svc.Aggregate(requests, providerList, testBounds(), 0.01, MetricRequests)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, 1, cells[0].RequestCount)
}

func TestAggregate_Idempotent(t *testing.T) {
	svc := newTestAggregator()

	requests := []*entities.Request{
		pendingRequestAt(39.291, -76.612),
		pendingRequestAt(39.32, -76.71),
		pendingRequestAt(39.44, -76.08),
	}
	providerList := []*entities.Provider{
		providerAt(39.293, -76.614),
		providerAt(39.33, -76.72),
	}

	first, err := svc.Aggregate(requests, providerList, testBounds(), 0.01, MetricUnmetDemand)
	require.NoError(t, err)
	second, err := svc.Aggregate(requests, providerList, testBounds(), 0.01, MetricUnmetDemand)
	require.NoError(t, err)

	assert.ElementsMatch(t, first, second)
}

func TestAggregate_RequestCountConserved(t *testing.T) {
	svc := newTestAggregator()

	requests := []*entities.Request{
		pendingRequestAt(39.291, -76.612),
		pendingRequestAt(39.292, -76.613),
		pendingRequestAt(39.32, -76.71),
		pendingRequestAt(39.44, -76.08),
		pendingRequestAt(39.11, -76.91),
	}

	cells, err := svc.Aggregate(requests, nil, testBounds(), 0.01, MetricRequests)
	require.NoError(t, err)

	total := 0
	for _, cell := range cells {
		total += cell.RequestCount
	}
	assert.Equal(t, len(requests), total)
}

func TestAggregate_RejectsNonPositiveGridSize(t *testing.T) {
	svc := newTestAggregator()

	_, err := svc.Aggregate(nil, nil, testBounds(), 0, MetricRequests)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Aggregate(nil, nil, testBounds(), -0.01, MetricRequests)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestAggregate_RejectsMalformedBounds(t *testing.T) {
	svc := newTestAggregator()

	flipped := entities.BoundingBox{North: 39.0, South: 39.5, East: -76.0, West: -77.0}
	_, err := svc.Aggregate(nil, nil, flipped, 0.01, MetricRequests)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	crossed := entities.BoundingBox{North: 39.5, South: 39.0, East: -77.0, West: -76.0}
	_, err = svc.Aggregate(nil, nil, crossed, 0.01, MetricRequests)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestAggregate_RejectsUnknownMetric(t *testing.T) {
	svc := newTestAggregator()

	_, err := svc.Aggregate(nil, nil, testBounds(), 0.01, DemandMetric("population"))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
