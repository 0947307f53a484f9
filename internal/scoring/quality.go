package scoring

import (
	"fmt"
	"math"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/store"
)

// Recommendation tells the adaptive executor whether gathering more
// results for the current query is worth another provider call.
type Recommendation string

const (
	RecommendStop     Recommendation = "stop"
	RecommendMaybe    Recommendation = "maybe"
	RecommendContinue Recommendation = "continue"
)

// Appraisal summarizes the quality of the results gathered so far for one
// query.
type Appraisal struct {
	OverallQuality float64
	Confidence     float64
	Diversity      float64
	Recommendation Recommendation
	Reason         string
}

// diversityProviderTarget is the provider count at which diversity saturates.
const diversityProviderTarget = 5

// maybeQualityFraction scales the stop threshold down to the "good enough
// if we've already done the minimum" band.
const maybeQualityFraction = 0.85

// AppraiseSet evaluates results gathered for a single query against the
// minimum quality the executor wants before stopping early. An empty set
// always recommends continue.
func AppraiseSet(results []store.Result, minQuality float64) Appraisal {
	if len(results) == 0 {
		return Appraisal{
			Recommendation: RecommendContinue,
			Reason:         "no results yet",
		}
	}

	var sum float64
	providers := make(map[string]struct{})
	for _, r := range results {
		sum += r.ConfidenceScore
		if r.OriginProvider != "" {
			providers[r.OriginProvider] = struct{}{}
		}
	}
	mean := sum / float64(len(results))

	var variance float64
	for _, r := range results {
		d := r.ConfidenceScore - mean
		variance += d * d
	}
	spread := math.Sqrt(variance / float64(len(results)))

	diversity := float64(len(providers)) / diversityProviderTarget
	if diversity > 1 {
		diversity = 1
	}

	confidence := clamp01(0.5*mean + 0.5*(1-spread))
	overall := clamp01(0.7*mean + 0.3*diversity)

	switch {
	case overall >= minQuality:
		return Appraisal{
			OverallQuality: overall,
			Confidence:     confidence,
			Diversity:      diversity,
			Recommendation: RecommendStop,
			Reason:         fmt.Sprintf("quality %.2f meets threshold %.2f over %d results", overall, minQuality, len(results)),
		}
	case overall >= minQuality*maybeQualityFraction:
		return Appraisal{
			OverallQuality: overall,
			Confidence:     confidence,
			Diversity:      diversity,
			Recommendation: RecommendMaybe,
			Reason:         fmt.Sprintf("quality %.2f is close to threshold %.2f", overall, minQuality),
		}
	default:
		return Appraisal{
			OverallQuality: overall,
			Confidence:     confidence,
			Diversity:      diversity,
			Recommendation: RecommendContinue,
			Reason:         fmt.Sprintf("quality %.2f below threshold %.2f", overall, minQuality),
		}
	}
}
