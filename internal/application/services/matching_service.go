package services

import (
	"math"
	"sort"

	"github.com/healthreach/careaccess-backend/internal/domain/entities"
	"github.com/healthreach/careaccess-backend/internal/domain/providers"
	"github.com/healthreach/careaccess-backend/pkg/config"
)

// MatchAlgorithm selects which scoring factors apply when ranking providers
type MatchAlgorithm string

const (
	AlgorithmDistance  MatchAlgorithm = "distance"
	AlgorithmCapacity  MatchAlgorithm = "capacity"
	AlgorithmFragility MatchAlgorithm = "fragility"
	AlgorithmSmart     MatchAlgorithm = "smart"
)

// Valid reports whether the algorithm is a known one
func (a MatchAlgorithm) Valid() bool {
	switch a {
	case AlgorithmDistance, AlgorithmCapacity, AlgorithmFragility, AlgorithmSmart:
		return true
	}
	return false
}

// factorSet marks which scoring factors an algorithm activates.
// Inactive factors contribute a neutral 1.0 multiplier.
type factorSet struct {
	distance  bool
	capacity  bool
	fragility bool
}

func (a MatchAlgorithm) factors() factorSet {
	switch a {
	case AlgorithmDistance:
		return factorSet{distance: true}
	case AlgorithmCapacity:
		return factorSet{capacity: true}
	case AlgorithmFragility:
		return factorSet{fragility: true}
	default:
		return factorSet{distance: true, capacity: true, fragility: true}
	}
}

// ScoreWeights sets the relative influence of each factor in smart mode.
// A factor's pull away from the neutral 1.0 multiplier scales linearly
// with its weight; at the default weights the scoring reduces to the
// base formulas, and a zero weight disables the factor entirely.
type ScoreWeights struct {
	Distance  float64 `json:"distance"`
	Capacity  float64 `json:"capacity"`
	Fragility float64 `json:"fragility"`
	WaitTime  float64 `json:"waitTime"`
}

// DefaultScoreWeights returns the production default weights
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Distance:  0.3,
		Capacity:  0.3,
		Fragility: 0.2,
		WaitTime:  0.2,
	}
}

// Base scoring constants. These are hand-tuned business heuristics;
// runtime overrides come through config.MatchingConfig.
const (
	DefaultSearchRadiusMiles = 20.0

	// distanceScoreFloor is how much score survives at the radius edge
	distanceScoreFloor = 0.3

	// waitScoreFloor is how much score survives at the wait ceiling
	waitScoreFloor = 0.5

	defaultWaitCeilingMinutes         = 120.0
	defaultFragilityBoost             = 1.2
	defaultUrgentFastBoost            = 1.2
	defaultUrgentSlowPenalty          = 0.8
	defaultUrgentWaitThresholdMinutes = 30
)

// MatchingOptions tunes the scoring heuristics for one service instance
type MatchingOptions struct {
	SearchRadiusMiles          float64
	WaitCeilingMinutes         float64
	FragilityBoost             float64
	UrgentFastBoost            float64
	UrgentSlowPenalty          float64
	UrgentWaitThresholdMinutes int
	Weights                    ScoreWeights
}

// DefaultMatchingOptions returns options carrying the base constants
func DefaultMatchingOptions() MatchingOptions {
	return MatchingOptions{
		SearchRadiusMiles:          DefaultSearchRadiusMiles,
		WaitCeilingMinutes:         defaultWaitCeilingMinutes,
		FragilityBoost:             defaultFragilityBoost,
		UrgentFastBoost:            defaultUrgentFastBoost,
		UrgentSlowPenalty:          defaultUrgentSlowPenalty,
		UrgentWaitThresholdMinutes: defaultUrgentWaitThresholdMinutes,
		Weights:                    DefaultScoreWeights(),
	}
}

// MatchingOptionsFromConfig builds options from application configuration
func MatchingOptionsFromConfig(cfg config.MatchingConfig) MatchingOptions {
	return MatchingOptions{
		SearchRadiusMiles:          cfg.SearchRadiusMiles,
		WaitCeilingMinutes:         cfg.WaitCeilingMinutes,
		FragilityBoost:             cfg.FragilityBoost,
		UrgentFastBoost:            cfg.UrgentFastBoost,
		UrgentSlowPenalty:          cfg.UrgentSlowPenalty,
		UrgentWaitThresholdMinutes: cfg.UrgentWaitThresholdMinutes,
		Weights: ScoreWeights{
			Distance:  cfg.DistanceWeight,
			Capacity:  cfg.CapacityWeight,
			Fragility: cfg.FragilityWeight,
			WaitTime:  cfg.WaitTimeWeight,
		},
	}
}

// ScoredCandidate is one provider's computed suitability for one request
type ScoredCandidate struct {
	Provider      *entities.Provider `json:"provider"`
	DistanceMiles float64            `json:"distance_miles"`
	Score         float64            `json:"score"`
	// Breakdown records the multiplier each factor contributed
	Breakdown map[string]float64 `json:"breakdown"`
}

// RankedCandidate is the wire shape consumed by the recommendation API
type RankedCandidate struct {
	ProviderID    string  `json:"provider_id"`
	ProviderName  string  `json:"provider_name"`
	DistanceMiles float64 `json:"distance_miles"`
	WaitMinutes   *int    `json:"wait_minutes,omitempty"`
	Score         float64 `json:"score"`
}

// Ranked converts a scored candidate to its API representation
func (c ScoredCandidate) Ranked() RankedCandidate {
	return RankedCandidate{
		ProviderID:    c.Provider.ID,
		ProviderName:  c.Provider.Name,
		DistanceMiles: c.DistanceMiles,
		WaitMinutes:   c.Provider.CurrentWaitMinutes,
		Score:         c.Score,
	}
}

// MatchingService scores and ranks candidate providers against a request.
// Candidates are expected to be pre-filtered by the geo query (active and
// within the search radius); no status or radius filtering happens here.
type MatchingService struct {
	opts     MatchingOptions
	distance providers.DistanceCalculator
}

// NewMatchingService creates a new matching service
func NewMatchingService(distance providers.DistanceCalculator, opts MatchingOptions) *MatchingService {
	if opts.SearchRadiusMiles <= 0 {
		opts.SearchRadiusMiles = DefaultSearchRadiusMiles
	}
	if opts.WaitCeilingMinutes <= 0 {
		opts.WaitCeilingMinutes = defaultWaitCeilingMinutes
	}
	return &MatchingService{
		opts:     opts,
		distance: distance,
	}
}

// Rank scores every candidate and returns them ordered by score descending,
// ties broken by ascending distance. An empty candidate list yields an
// empty result: no coverage is a normal outcome, not an error.
func (s *MatchingService) Rank(request *entities.Request, candidates []*entities.Provider, algorithm MatchAlgorithm) []ScoredCandidate {
	if len(candidates) == 0 {
		return nil
	}

	active := algorithm.factors()
	smart := algorithm == AlgorithmSmart

	scored := make([]ScoredCandidate, len(candidates))
	for i, p := range candidates {
		scored[i] = s.scoreCandidate(request, p, active, smart)
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].DistanceMiles < scored[j].DistanceMiles
	})

	return scored
}

// scoreCandidate runs the multiplicative factor pipeline for one provider.
// The score starts at 1.0 and each active factor applies a multiplier;
// the result is clamped to [0,1].
func (s *MatchingService) scoreCandidate(request *entities.Request, provider *entities.Provider, active factorSet, smart bool) ScoredCandidate {
	dist := s.distance.DistanceMiles(request.Location, provider.Location)
	breakdown := make(map[string]float64, 4)
	defaults := DefaultScoreWeights()
	score := 1.0

	if active.distance {
		factor := math.Max(0, 1-dist/s.opts.SearchRadiusMiles)
		m := distanceScoreFloor + (1-distanceScoreFloor)*factor
		if smart {
			m = scaleMultiplier(m, s.opts.Weights.Distance, defaults.Distance)
		}
		breakdown["distance"] = m
		score *= m
	}

	if active.capacity && provider.CurrentWaitMinutes != nil {
		factor := math.Max(0, 1-float64(*provider.CurrentWaitMinutes)/s.opts.WaitCeilingMinutes)
		m := waitScoreFloor + (1-waitScoreFloor)*factor
		if smart {
			m = scaleMultiplier(m, s.opts.Weights.Capacity, defaults.Capacity)
		}
		breakdown["wait"] = m
		score *= m
	}

	if active.fragility && provider.IsOutreachModel() {
		m := s.opts.FragilityBoost
		if smart {
			m = scaleMultiplier(m, s.opts.Weights.Fragility, defaults.Fragility)
		}
		breakdown["fragility"] = m
		score *= m
	}

	// Urgent requests reward fast providers and penalize slow ones,
	// whatever factor set is active.
	if request.IsHighUrgency() && provider.CurrentWaitMinutes != nil {
		m := s.opts.UrgentSlowPenalty
		if *provider.CurrentWaitMinutes < s.opts.UrgentWaitThresholdMinutes {
			m = s.opts.UrgentFastBoost
		}
		if smart {
			m = scaleMultiplier(m, s.opts.Weights.WaitTime, defaults.WaitTime)
		}
		breakdown["urgency"] = m
		score *= m
	}

	return ScoredCandidate{
		Provider:      provider,
		DistanceMiles: dist,
		Score:         clampScore(score),
		Breakdown:     breakdown,
	}
}

// scaleMultiplier scales a factor's deviation from the neutral 1.0
// multiplier by weight relative to its default. At the default weight the
// multiplier is unchanged; at weight zero the factor becomes a no-op.
func scaleMultiplier(m, weight, defaultWeight float64) float64 {
	if defaultWeight <= 0 {
		return m
	}
	return 1 + (m-1)*(weight/defaultWeight)
}

func clampScore(score float64) float64 {
	return math.Min(1, math.Max(0, score))
}
