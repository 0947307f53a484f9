package research

import (
	"context"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/config"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/providers"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/scoring"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/store"
)

// StopReason records why the adaptive loop stopped calling providers.
type StopReason string

const (
	StopQualityMet         StopReason = "quality_threshold_met"
	StopMaybeAfterMinimum  StopReason = "maybe_after_minimum"
	StopMaxReached         StopReason = "max_reached"
	StopProvidersExhausted StopReason = "providers_exhausted"
)

// Outcome is the result of executing one query across the provider chain.
type Outcome struct {
	Hits         []providers.SearchHit
	NumCalls     int
	FinalQuality float64
	StopReason   StopReason

	// Statuses records the per-provider call status, keyed by provider name.
	Statuses map[string]providers.Status
}

// Executor walks the provider chain for one query, stopping early when the
// gathered set is good enough. Provider calls are serial; the adaptive
// stop condition depends on everything gathered so far.
type Executor struct {
	registry *providers.Registry
	scorer   *scoring.Scorer
	limiter  *Limiter

	adaptive   bool
	minCalls   int
	maxCalls   int
	minQuality float64
	maxResults int
}

// NewExecutor builds an executor from the search config.
func NewExecutor(registry *providers.Registry, scorer *scoring.Scorer, limiter *Limiter, search config.SearchConfig) *Executor {
	return &Executor{
		registry:   registry,
		scorer:     scorer,
		limiter:    limiter,
		adaptive:   search.AdaptiveSearchEnabled,
		minCalls:   search.MinCallsPerQuery,
		maxCalls:   search.MaxCallsPerQuery,
		minQuality: search.MinQualityToStop,
		maxResults: search.MaxResultsPerCall,
	}
}

// Execute runs query through the chain in the given provider order. In
// adaptive mode the quality-of-set appraisal can stop the loop after
// minCalls; non-adaptive mode simply iterates every provider.
func (e *Executor) Execute(ctx context.Context, query, lang string, providerOrder []string) (*Outcome, error) {
	outcome := &Outcome{
		StopReason: StopProvidersExhausted,
		Statuses:   make(map[string]providers.Status),
	}

	for _, name := range providerOrder {
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}

		provider := e.registry.Get(name)
		if provider == nil {
			continue
		}

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return outcome, err
			}
		}

		hits, status, err := provider.Search(ctx, query, lang, e.maxResults)
		outcome.Statuses[name] = status
		if err != nil {
			// Degraded and failing providers are skipped, not fatal: the
			// rest of the chain still gets its turn.
			logging.SearchDebug("Provider %s failed (%s): %v", name, status, err)
		}
		// A degraded provider returns (nil, ok) without a call; only real
		// calls count against the budget.
		if err == nil && status == providers.StatusOK && len(hits) == 0 {
			continue
		}
		outcome.NumCalls++
		outcome.Hits = append(outcome.Hits, hits...)

		if !e.adaptive {
			continue
		}

		if outcome.NumCalls >= e.minCalls {
			appraisal := e.appraise(ctx, outcome.Hits, query, lang)
			outcome.FinalQuality = appraisal.OverallQuality

			if appraisal.Recommendation == scoring.RecommendStop {
				outcome.StopReason = StopQualityMet
				logging.Search("Adaptive stop after %d calls: %s", outcome.NumCalls, appraisal.Reason)
				return outcome, nil
			}
			if appraisal.Recommendation == scoring.RecommendMaybe && outcome.NumCalls > e.minCalls {
				outcome.StopReason = StopMaybeAfterMinimum
				logging.Search("Adaptive stop (maybe) after %d calls: %s", outcome.NumCalls, appraisal.Reason)
				return outcome, nil
			}
		}

		if e.maxCalls > 0 && outcome.NumCalls >= e.maxCalls {
			outcome.StopReason = StopMaxReached
			return outcome, nil
		}
	}

	if e.adaptive && len(outcome.Hits) > 0 && outcome.FinalQuality == 0 {
		outcome.FinalQuality = e.appraise(ctx, outcome.Hits, query, lang).OverallQuality
	}
	return outcome, nil
}

// appraise scores the gathered hits as transient results and runs the
// quality-of-set appraisal. Scores are cached by (url, query), so the
// worker's later definitive scoring does not recompute.
func (e *Executor) appraise(ctx context.Context, hits []providers.SearchHit, query, lang string) scoring.Appraisal {
	results := make([]store.Result, len(hits))
	for i, h := range hits {
		r := store.Result{
			Title:          h.Title,
			Description:    h.Description,
			URL:            h.URL,
			ProviderType:   h.Provider,
			OriginProvider: h.Provider,
			Language:       lang,
			Query:          query,
			Occurrences:    1,
		}
		r.ConfidenceScore = e.scorer.Score(ctx, &r, query, 1, false)
		results[i] = r
	}
	return scoring.AppraiseSet(results, e.minQuality)
}
