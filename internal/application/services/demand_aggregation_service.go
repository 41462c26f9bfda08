package services

import (
	"context"
	"math"
	"sort"

	"github.com/healthreach/careaccess-backend/internal/domain/entities"
	"github.com/healthreach/careaccess-backend/internal/domain/repositories"
	apperrors "github.com/healthreach/careaccess-backend/pkg/errors"
)

// DemandMetric selects how cell intensity is computed
type DemandMetric string

const (
	MetricRequests    DemandMetric = "requests"
	MetricWaitTime    DemandMetric = "wait_time"
	MetricCapacity    DemandMetric = "capacity"
	MetricUnmetDemand DemandMetric = "unmet_demand"
)

// Valid reports whether the metric is a known one
func (m DemandMetric) Valid() bool {
	switch m {
	case MetricRequests, MetricWaitTime, MetricCapacity, MetricUnmetDemand:
		return true
	}
	return false
}

// Grid defaults. AssumedAvgProviderCapacity stands in for real per-provider
// capacity aggregation, which is not wired yet.
const (
	DefaultGridSizeDegrees     = 0.01
	AssumedAvgProviderCapacity = 10
)

// DemandCell is one grid cell's aggregated demand, keyed by its center point
type DemandCell struct {
	Latitude      float64 `json:"lat"`
	Longitude     float64 `json:"lng"`
	Value         float64 `json:"value"`
	RequestCount  int     `json:"request_count"`
	ProviderCount int     `json:"provider_count"`
}

// HeatmapParams defines a demand heatmap query
type HeatmapParams struct {
	Bounds          entities.BoundingBox
	GridSizeDegrees float64
	Metric          DemandMetric
}

// DemandAggregationService grids pending requests (and providers) inside a
// bounding box into intensity buckets for heatmap rendering
type DemandAggregationService struct {
	requestRepo     repositories.RequestRepository
	providerRepo    repositories.ProviderRepository
	assumedCapacity int
	defaultGridSize float64
}

// NewDemandAggregationService creates a new demand aggregation service
func NewDemandAggregationService(requestRepo repositories.RequestRepository, providerRepo repositories.ProviderRepository, assumedCapacity int, defaultGridSize float64) *DemandAggregationService {
	if assumedCapacity <= 0 {
		assumedCapacity = AssumedAvgProviderCapacity
	}
	if defaultGridSize <= 0 {
		defaultGridSize = DefaultGridSizeDegrees
	}
	return &DemandAggregationService{
		requestRepo:     requestRepo,
		providerRepo:    providerRepo,
		assumedCapacity: assumedCapacity,
		defaultGridSize: defaultGridSize,
	}
}

// Heatmap fetches pending requests and active providers inside the bounds
// and aggregates them. Cells are returned sorted by value descending for
// rendering, with a deterministic coordinate tie-break.
func (s *DemandAggregationService) Heatmap(ctx context.Context, params HeatmapParams) ([]DemandCell, error) {
	if params.GridSizeDegrees == 0 {
		params.GridSizeDegrees = s.defaultGridSize
	}
	if params.Metric == "" {
		params.Metric = MetricRequests
	}
	if err := validateAggregationInputs(params.Bounds, params.GridSizeDegrees, params.Metric); err != nil {
		return nil, err
	}

	requests, err := s.requestRepo.ListPending(ctx, repositories.PendingRequestFilter{
		Bounds: &params.Bounds,
	})
	if err != nil {
		return nil, err
	}

	providerList, err := s.providerRepo.FindInBounds(ctx, params.Bounds)
	if err != nil {
		return nil, err
	}

	cells, err := s.Aggregate(requests, providerList, params.Bounds, params.GridSizeDegrees, params.Metric)
	if err != nil {
		return nil, err
	}

	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Value != cells[j].Value {
			return cells[i].Value > cells[j].Value
		}
		if cells[i].Latitude != cells[j].Latitude {
			return cells[i].Latitude < cells[j].Latitude
		}
		return cells[i].Longitude < cells[j].Longitude
	})

	return cells, nil
}

// cellKey identifies a grid cell by its integer row/column indices.
// Integer keys avoid float rounding drift when bucketing.
type cellKey struct {
	row int64
	col int64
}

type cellAccumulator struct {
	requestCount  int
	providerCount int
}

// Aggregate quantizes request and provider coordinates into a grid of
// gridSize-degree cells and computes an intensity value per cell.
// Inputs are expected to be pre-filtered to the bounds; points are bucketed
// as given. Only cells with a positive value are returned.
func (s *DemandAggregationService) Aggregate(requests []*entities.Request, providerList []*entities.Provider, bounds entities.BoundingBox, gridSize float64, metric DemandMetric) ([]DemandCell, error) {
	if err := validateAggregationInputs(bounds, gridSize, metric); err != nil {
		return nil, err
	}

	cells := make(map[cellKey]*cellAccumulator)

	accumulate := func(loc entities.Location) *cellAccumulator {
		key := cellKey{
			row: int64(math.Floor(loc.Latitude / gridSize)),
			col: int64(math.Floor(loc.Longitude / gridSize)),
		}
		acc, ok := cells[key]
		if !ok {
			acc = &cellAccumulator{}
			cells[key] = acc
		}
		return acc
	}

	for _, r := range requests {
		accumulate(r.Location).requestCount++
	}
	for _, p := range providerList {
		accumulate(p.Location).providerCount++
	}

	result := make([]DemandCell, 0, len(cells))
	for key, acc := range cells {
		value := s.cellValue(acc, metric)
		if value <= 0 {
			continue
		}
		result = append(result, DemandCell{
			Latitude:      float64(key.row)*gridSize + gridSize/2,
			Longitude:     float64(key.col)*gridSize + gridSize/2,
			Value:         value,
			RequestCount:  acc.requestCount,
			ProviderCount: acc.providerCount,
		})
	}

	return result, nil
}

func (s *DemandAggregationService) cellValue(acc *cellAccumulator, metric DemandMetric) float64 {
	switch metric {
	case MetricUnmetDemand:
		return math.Max(0, float64(acc.requestCount-acc.providerCount*s.assumedCapacity))
	case MetricCapacity:
		return float64(acc.providerCount * s.assumedCapacity)
	case MetricWaitTime:
		// Per-provider load proxy until real wait aggregation is wired
		return float64(acc.requestCount) / math.Max(1, float64(acc.providerCount))
	default:
		return float64(acc.requestCount)
	}
}

func validateAggregationInputs(bounds entities.BoundingBox, gridSize float64, metric DemandMetric) error {
	if gridSize <= 0 {
		return apperrors.NewValidationError("grid size must be positive")
	}
	if !bounds.Valid() {
		return apperrors.NewValidationError("invalid bounding box: south must not exceed north and west must not exceed east")
	}
	if !metric.Valid() {
		return apperrors.NewValidationError("unknown demand metric")
	}
	return nil
}
