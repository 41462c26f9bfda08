package services

import (
	"testing"

	"github.com/healthreach/careaccess-backend/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDistance returns pre-set distances keyed by the destination point
type stubDistance struct {
	miles map[entities.Location]float64
}

func (s *stubDistance) DistanceMiles(from, to entities.Location) float64 {
	if d, ok := s.miles[to]; ok {
		return d
	}
	return 0
}

func intPtr(v int) *int {
	return &v
}

func newTestMatcher(miles map[entities.Location]float64) *MatchingService {
	return NewMatchingService(&stubDistance{miles: miles}, DefaultMatchingOptions())
}

func testRequest(urgency int) *entities.Request {
	return &entities.Request{
		ID:              "req-1",
		Location:        entities.Location{Latitude: 39.29, Longitude: -76.61},
		ServiceCategory: entities.ServiceCategoryUrgentCare,
		UrgencyLevel:    urgency,
		Status:          entities.RequestStatusPending,
	}
}

func TestRank_EmptyCandidates(t *testing.T) {
	svc := newTestMatcher(nil)
	results := svc.Rank(testRequest(3), []*entities.Provider{}, AlgorithmSmart)
	assert.Empty(t, results)
}

func TestRank_UrgentCareScenario(t *testing.T) {
	locX := entities.Location{Latitude: 39.30, Longitude: -76.60}
	locY := entities.Location{Latitude: 39.35, Longitude: -76.55}
	svc := newTestMatcher(map[entities.Location]float64{
		locX: 2,
		locY: 8,
	})

	providerX := &entities.Provider{
		ID: "x", Name: "Midtown Clinic", Type: entities.ProviderTypeClinic,
		Location: locX, CurrentWaitMinutes: intPtr(15), IsActive: true,
	}
	providerY := &entities.Provider{
		ID: "y", Name: "Eastside Mobile Unit", Type: entities.ProviderTypeMobile,
		Location: locY, CurrentWaitMinutes: intPtr(45), IsActive: true,
	}

	results := svc.Rank(testRequest(1), []*entities.Provider{providerY, providerX}, AlgorithmSmart)
	require.Len(t, results, 2)

	// X: (0.3+0.7*0.9) * (0.5+0.5*(1-15/120)) * 1.2 = 1.04625, clamped to 1
	assert.Equal(t, "x", results[0].Provider.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)

	// Y: (0.3+0.7*0.6) * (0.5+0.5*(1-45/120)) * 1.2 * 0.8 = 0.5616
	assert.Equal(t, "y", results[1].Provider.ID)
	assert.InDelta(t, 0.5616, results[1].Score, 1e-9)
}

func TestRank_Deterministic(t *testing.T) {
	locA := entities.Location{Latitude: 39.31, Longitude: -76.62}
	locB := entities.Location{Latitude: 39.32, Longitude: -76.63}
	svc := newTestMatcher(map[entities.Location]float64{locA: 4, locB: 11})

	candidates := []*entities.Provider{
		{ID: "a", Type: entities.ProviderTypeClinic, Location: locA, CurrentWaitMinutes: intPtr(20)},
		{ID: "b", Type: entities.ProviderTypePopUp, Location: locB, CurrentWaitMinutes: intPtr(70)},
	}

	first := svc.Rank(testRequest(2), candidates, AlgorithmSmart)
	second := svc.Rank(testRequest(2), candidates, AlgorithmSmart)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Provider.ID, second[i].Provider.ID)
		assert.Equal(t, first[i].Score, second[i].Score)
	}
}

func TestRank_ScoresWithinBounds(t *testing.T) {
	locA := entities.Location{Latitude: 39.1, Longitude: -76.1}
	locB := entities.Location{Latitude: 39.2, Longitude: -76.2}
	locC := entities.Location{Latitude: 39.3, Longitude: -76.3}
	svc := newTestMatcher(map[entities.Location]float64{locA: 0, locB: 19, locC: 45})

	candidates := []*entities.Provider{
		{ID: "a", Type: entities.ProviderTypeMobile, Location: locA, CurrentWaitMinutes: intPtr(5)},
		{ID: "b", Type: entities.ProviderTypeClinic, Location: locB, CurrentWaitMinutes: intPtr(200)},
		{ID: "c", Type: entities.ProviderTypePopUp, Location: locC},
	}

	for _, algorithm := range []MatchAlgorithm{AlgorithmDistance, AlgorithmCapacity, AlgorithmFragility, AlgorithmSmart} {
		for _, result := range svc.Rank(testRequest(1), candidates, algorithm) {
			assert.GreaterOrEqual(t, result.Score, 0.0)
			assert.LessOrEqual(t, result.Score, 1.0)
		}
	}
}

func TestRank_FartherNeverScoresHigher(t *testing.T) {
	locNear := entities.Location{Latitude: 39.1, Longitude: -76.1}
	locFar := entities.Location{Latitude: 39.2, Longitude: -76.2}
	svc := newTestMatcher(map[entities.Location]float64{locNear: 5, locFar: 10})

	candidates := []*entities.Provider{
		{ID: "far", Type: entities.ProviderTypeClinic, Location: locFar},
		{ID: "near", Type: entities.ProviderTypeClinic, Location: locNear},
	}

	results := svc.Rank(testRequest(3), candidates, AlgorithmSmart)
	require.Len(t, results, 2)
	assert.Equal(t, "near", results[0].Provider.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestRank_UrgencyRewardsFastProviders(t *testing.T) {
	locFast := entities.Location{Latitude: 39.1, Longitude: -76.1}
	locSlow := entities.Location{Latitude: 39.2, Longitude: -76.2}
	svc := newTestMatcher(map[entities.Location]float64{locFast: 5, locSlow: 5})

	candidates := []*entities.Provider{
		{ID: "slow", Type: entities.ProviderTypeClinic, Location: locSlow, CurrentWaitMinutes: intPtr(60)},
		{ID: "fast", Type: entities.ProviderTypeClinic, Location: locFast, CurrentWaitMinutes: intPtr(10)},
	}

	results := svc.Rank(testRequest(1), candidates, AlgorithmSmart)
	require.Len(t, results, 2)
	assert.Equal(t, "fast", results[0].Provider.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestRank_TieBrokenByDistance(t *testing.T) {
	locNear := entities.Location{Latitude: 39.1, Longitude: -76.1}
	locFar := entities.Location{Latitude: 39.2, Longitude: -76.2}
	svc := newTestMatcher(map[entities.Location]float64{locNear: 1, locFar: 3})

	// Fragility-only scoring leaves both clinics at the neutral score
	candidates := []*entities.Provider{
		{ID: "far", Type: entities.ProviderTypeClinic, Location: locFar},
		{ID: "near", Type: entities.ProviderTypeClinic, Location: locNear},
	}

	results := svc.Rank(testRequest(4), candidates, AlgorithmFragility)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Equal(t, "near", results[0].Provider.ID)
}

func TestRank_SingleFactorAlgorithms(t *testing.T) {
	locClose := entities.Location{Latitude: 39.1, Longitude: -76.1}
	locMobile := entities.Location{Latitude: 39.2, Longitude: -76.2}
	svc := newTestMatcher(map[entities.Location]float64{locClose: 2, locMobile: 15})

	clinic := &entities.Provider{ID: "clinic", Type: entities.ProviderTypeClinic, Location: locClose, CurrentWaitMinutes: intPtr(90)}
	mobile := &entities.Provider{ID: "mobile", Type: entities.ProviderTypeMobile, Location: locMobile, CurrentWaitMinutes: intPtr(10)}
	candidates := []*entities.Provider{clinic, mobile}

	byDistance := svc.Rank(testRequest(3), candidates, AlgorithmDistance)
	assert.Equal(t, "clinic", byDistance[0].Provider.ID)

	byCapacity := svc.Rank(testRequest(3), candidates, AlgorithmCapacity)
	assert.Equal(t, "mobile", byCapacity[0].Provider.ID)

	// With only the fragility boost active both scores clamp to 1,
	// so the distance tie-break decides
	byFragility := svc.Rank(testRequest(3), candidates, AlgorithmFragility)
	assert.Equal(t, byFragility[0].Score, byFragility[1].Score)
	assert.Equal(t, "clinic", byFragility[0].Provider.ID)
}

func TestRank_FragilityBoostFavorsOutreachModels(t *testing.T) {
	locMobile := entities.Location{Latitude: 39.1, Longitude: -76.1}
	locClinic := entities.Location{Latitude: 39.2, Longitude: -76.2}
	svc := newTestMatcher(map[entities.Location]float64{locMobile: 10, locClinic: 10})

	candidates := []*entities.Provider{
		{ID: "clinic", Type: entities.ProviderTypeClinic, Location: locClinic, CurrentWaitMinutes: intPtr(60)},
		{ID: "mobile", Type: entities.ProviderTypeMobile, Location: locMobile, CurrentWaitMinutes: intPtr(60)},
	}

	results := svc.Rank(testRequest(3), candidates, AlgorithmSmart)
	require.Len(t, results, 2)
	assert.Equal(t, "mobile", results[0].Provider.ID)
	// 0.65 * 0.75 * 1.2 vs 0.65 * 0.75
	assert.InDelta(t, 0.585, results[0].Score, 1e-9)
	assert.InDelta(t, 0.4875, results[1].Score, 1e-9)
}

func TestRank_ZeroWeightDisablesFactor(t *testing.T) {
	loc := entities.Location{Latitude: 39.1, Longitude: -76.1}
	opts := DefaultMatchingOptions()
	opts.Weights.Distance = 0
	svc := NewMatchingService(&stubDistance{miles: map[entities.Location]float64{loc: 18}}, opts)

	candidates := []*entities.Provider{
		{ID: "a", Type: entities.ProviderTypeClinic, Location: loc},
	}

	results := svc.Rank(testRequest(4), candidates, AlgorithmSmart)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestRank_UnknownWaitTimeSkipsWaitFactor(t *testing.T) {
	loc := entities.Location{Latitude: 39.1, Longitude: -76.1}
	svc := newTestMatcher(map[entities.Location]float64{loc: 10})

	candidates := []*entities.Provider{
		{ID: "a", Type: entities.ProviderTypeClinic, Location: loc},
	}

	results := svc.Rank(testRequest(1), candidates, AlgorithmSmart)
	require.Len(t, results, 1)
	// Only the distance factor applies: 0.3 + 0.7*(1-10/20)
	assert.InDelta(t, 0.65, results[0].Score, 1e-9)
	assert.NotContains(t, results[0].Breakdown, "wait")
	assert.NotContains(t, results[0].Breakdown, "urgency")
}
