// Package scoring computes multi-factor confidence scores for search hits
// and appraises whole result sets for the adaptive search loop.
package scoring

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/config"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/embedding"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/language"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/store"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/vector"
)

// Composition weights. Relevance carries the score; the rest refine it.
const (
	relevanceWeight   = 0.55
	occurrenceWeight  = 0.15
	trustWeight       = 0.20
	titleMatchWeight  = 0.10
	occurrenceCap     = 10
	brazilBonusFactor = 1.20
)

// RAG adjustment bounds and the neighbour evidence needed to apply them.
const (
	ragBoost        = 0.20
	ragCut          = 0.30
	ragNeighbours   = 5
	ragMinEvidence  = 2
	ragHighScore    = 0.70
	ragLowScore     = 0.30
	ragScoreMetaKey = "score"
)

// Substrings marking Brazilian sources. The whole pipeline exists to find
// policy for Brazilian small business, so these get a flat multiplier.
var brazilMarkers = []string{
	".gov.br",
	".leg.br",
	".jus.br",
	".org.br",
	".com.br",
	"brasil",
	"brazil",
	"brasileir",
	"sebrae",
	"bndes",
}

type cacheKey struct {
	url    string
	query  string
	useRAG bool
}

// Scorer computes confidence scores. Safe for concurrent use.
type Scorer struct {
	trust     trustTable
	curve     []CurvePoint
	canonical string

	ragEnabled    bool
	simThreshold  float64
	engine        embedding.Engine
	resultVectors *vector.Collection

	mu    sync.Mutex
	cache map[cacheKey]float64
}

// NewScorer builds a scorer from config. engine and results may be nil when
// the semantic layer is disabled; RAG adjustment is then skipped.
func NewScorer(search config.SearchConfig, rag config.RAGConfig, engine embedding.Engine, results *vector.Collection) *Scorer {
	canonical := "pt"
	if len(search.Languages) > 0 {
		canonical = search.Languages[0]
	}
	return &Scorer{
		trust:         newTrustTable(search.ProviderTrustWeights),
		curve:         DefaultCurve,
		canonical:     canonical,
		ragEnabled:    rag.Enabled && engine != nil && results != nil,
		simThreshold:  rag.SimilarityThreshold,
		engine:        engine,
		resultVectors: results,
		cache:         make(map[cacheKey]float64),
	}
}

// SetCurve replaces the expansion curve. Points must be sorted and monotone.
func (s *Scorer) SetCurve(curve []CurvePoint) {
	s.curve = curve
}

// Score computes the confidence score for result against query, in [0,1].
// occurrences is the deduplicated observation count (>= 1). When useRAG is
// set and the semantic layer is available, similar previously-scored
// results shift the score by at most +0.20 / -0.30.
func (s *Scorer) Score(ctx context.Context, result *store.Result, query string, occurrences int, useRAG bool) float64 {
	key := cacheKey{url: result.URL, query: query, useRAG: useRAG}
	s.mu.Lock()
	if cached, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	score := s.compute(ctx, result, query, occurrences, useRAG)

	s.mu.Lock()
	s.cache[key] = score
	s.mu.Unlock()
	return score
}

// ScoreBatch scores results in order against the same query. Occurrence
// counts are taken from each result.
func (s *Scorer) ScoreBatch(ctx context.Context, results []*store.Result, query string, useRAG bool) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		occ := r.Occurrences
		if occ < 1 {
			occ = 1
		}
		out[i] = s.Score(ctx, r, query, occ, useRAG)
	}
	return out
}

func (s *Scorer) compute(ctx context.Context, result *store.Result, query string, occurrences int, useRAG bool) float64 {
	if occurrences < 1 {
		occurrences = 1
	}

	// Score against canonical-language text when the hit was translated,
	// so scores stay comparable across languages.
	title, description, lang := s.comparableText(result)

	// No keywords survive stopword filtering: nothing to measure against.
	if len(language.Keywords(query, lang)) == 0 {
		return 0
	}
	rel := relevance(query, title, description, lang)

	occ := math.Sqrt(float64(occurrences)) / math.Sqrt(float64(occurrenceCap))
	if occ > 1 {
		occ = 1
	}

	composed := relevanceWeight*rel +
		occurrenceWeight*occ +
		trustWeight*s.trust.weight(result.ProviderType) +
		titleMatchWeight*titleMatch(query, title, lang)

	if isBrazilian(result.URL, title+" "+description) {
		composed *= brazilBonusFactor
	}

	composed = applyCurve(s.curve, clamp01(composed))
	composed *= penaltyFactor(result.Title, result.Description)

	if useRAG && s.ragEnabled {
		composed += s.ragAdjustment(ctx, title, description)
	}

	final := clamp01(composed)
	logging.ScoringDebug("Scored %q provider=%s occ=%d rel=%.3f final=%.3f",
		truncateForLog(result.Title), result.ProviderType, occurrences, rel, final)
	return final
}

// comparableText returns the text to score and its language, preferring the
// canonical-language translation when the original is foreign.
func (s *Scorer) comparableText(result *store.Result) (title, description, lang string) {
	if !strings.EqualFold(result.Language, s.canonical) &&
		result.TitlePT != nil && *result.TitlePT != "" {
		title = *result.TitlePT
		description = result.Description
		if result.DescriptionPT != nil && *result.DescriptionPT != "" {
			description = *result.DescriptionPT
		}
		return title, description, s.canonical
	}
	return result.Title, result.Description, result.Language
}

// ragAdjustment looks up semantically similar previously-scored results.
// Consistent high-quality neighbours boost, consistent low-quality
// neighbours cut. Mixed or thin evidence changes nothing.
func (s *Scorer) ragAdjustment(ctx context.Context, title, description string) float64 {
	v, err := s.engine.Embed(ctx, title+" "+description)
	if err != nil || embedding.IsZero(v) {
		return 0
	}

	matches, err := s.resultVectors.Query(ctx, v, ragNeighbours, nil)
	if err != nil {
		logging.ScoringDebug("RAG lookup failed: %v", err)
		return 0
	}

	var high, low int
	for _, m := range matches {
		if m.Similarity < s.simThreshold {
			continue
		}
		score, err := strconv.ParseFloat(m.Metadata[ragScoreMetaKey], 64)
		if err != nil {
			continue
		}
		if score >= ragHighScore {
			high++
		} else if score <= ragLowScore {
			low++
		}
	}

	if high >= ragMinEvidence && low < ragMinEvidence {
		return ragBoost
	}
	if low >= ragMinEvidence && high < ragMinEvidence {
		return -ragCut
	}
	return 0
}

// RAGMetadata returns the metadata map to store alongside a result's
// vector so later RAG lookups can read its score.
func RAGMetadata(failureID int64, score float64) map[string]string {
	return map[string]string{
		"failure_id":    fmt.Sprintf("%d", failureID),
		ragScoreMetaKey: strconv.FormatFloat(score, 'f', 4, 64),
	}
}

func isBrazilian(url, text string) bool {
	haystack := strings.ToLower(url + " " + text)
	for _, marker := range brazilMarkers {
		if strings.Contains(haystack, marker) {
			return true
		}
	}
	return false
}

func truncateForLog(s string) string {
	const max = 60
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
