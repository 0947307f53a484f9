package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/config"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/store"
)

func newTestScorer() *Scorer {
	return NewScorer(config.DefaultSearchConfig(), config.DefaultRAGConfig(), nil, nil)
}

func hit(title, description, url, provider string) *store.Result {
	return &store.Result{
		Title:        title,
		Description:  description,
		URL:          url,
		ProviderType: provider,
		Language:     "pt",
		Occurrences:  1,
	}
}

const query = "acesso crédito pequenas empresas"

func TestScoreInRange(t *testing.T) {
	s := newTestScorer()
	r := hit("Acesso a crédito para pequenas empresas",
		"Como as pequenas empresas conseguem acesso a crédito e financiamento",
		"https://example.org/credito", "serper")

	score := s.Score(context.Background(), r, query, 1, false)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
	assert.Greater(t, score, 0.5, "a fully matching hit from a trusted provider should score well")
}

func TestScoreOccurrenceMonotonicity(t *testing.T) {
	s := newTestScorer()

	var prev float64
	for occ := 1; occ <= 12; occ++ {
		r := hit("Acesso a crédito para pequenas empresas",
			"Financiamento para pequenas empresas",
			// Distinct URLs keep the (url, query) cache out of the way.
			"https://example.org/credito/"+string(rune('a'+occ)), "serper")
		score := s.Score(context.Background(), r, query, occ, false)
		assert.GreaterOrEqual(t, score, prev, "score must not decrease with occurrences (occ=%d)", occ)
		prev = score
	}
}

func TestScoreMetaAnswerPenalty(t *testing.T) {
	s := newTestScorer()
	r := hit("Here are five relevant sources",
		"acesso crédito pequenas empresas financiamento",
		"https://example.gov.br/credito", "serper")

	score := s.Score(context.Background(), r, "acesso crédito pequenas empresas financiamento", 10, false)
	assert.Less(t, score, 0.3, "meta-answer must score below 0.3 even with maximal factors")
}

func TestScoreEmptyMarkerPenalty(t *testing.T) {
	s := newTestScorer()
	clean := hit("Acesso a crédito para pequenas empresas", "Financiamento inicial",
		"https://example.org/a", "serper")
	notFound := hit("Acesso a crédito para pequenas empresas", "Página não encontrada",
		"https://example.org/b", "serper")

	cleanScore := s.Score(context.Background(), clean, query, 1, false)
	penalized := s.Score(context.Background(), notFound, query, 1, false)
	assert.Less(t, penalized, cleanScore, "penalties never increase a score")
}

func TestScoreBrazilBonus(t *testing.T) {
	s := newTestScorer()
	foreign := hit("Acesso a crédito para pequenas empresas", "Financiamento",
		"https://example.org/credito", "serper")
	brazilian := hit("Acesso a crédito para pequenas empresas", "Financiamento",
		"https://www.bndes.gov.br/credito", "serper")

	fs := s.Score(context.Background(), foreign, query, 1, false)
	bs := s.Score(context.Background(), brazilian, query, 1, false)
	assert.Greater(t, bs, fs)
}

func TestScoreNoKeywordsIsZero(t *testing.T) {
	s := newTestScorer()
	r := hit("Qualquer título", "qualquer descrição", "https://example.org/x", "serper")
	score := s.Score(context.Background(), r, "de da do", 1, false)
	assert.Zero(t, score)
}

func TestScoreUnknownProviderUsesDefaultTrust(t *testing.T) {
	s := newTestScorer()
	known := hit("Acesso a crédito para pequenas empresas", "Financiamento",
		"https://example.org/a2", "serper")
	unknown := hit("Acesso a crédito para pequenas empresas", "Financiamento",
		"https://example.org/b2", "mystery")

	ks := s.Score(context.Background(), known, query, 1, false)
	us := s.Score(context.Background(), unknown, query, 1, false)
	assert.Greater(t, ks, us, "serper trust 0.90 must beat the 0.40 default")
}

func TestScoreCacheHit(t *testing.T) {
	s := newTestScorer()
	r := hit("Acesso a crédito", "Financiamento", "https://example.org/cached", "serper")

	first := s.Score(context.Background(), r, query, 1, false)
	second := s.Score(context.Background(), r, query, 1, false)
	assert.Equal(t, first, second)
}

func TestScorePrefersPortugueseTranslation(t *testing.T) {
	s := newTestScorer()

	titlePT := "Acesso a crédito para pequenas empresas"
	descPT := "Financiamento para pequenas empresas"
	translated := &store.Result{
		Title:         "Access to credit for small businesses",
		Description:   "Financing for small businesses",
		URL:           "https://example.org/en",
		ProviderType:  "serper",
		Language:      "en",
		TitlePT:       &titlePT,
		DescriptionPT: &descPT,
	}
	untranslated := &store.Result{
		Title:        "Access to credit for small businesses",
		Description:  "Financing for small businesses",
		URL:          "https://example.org/en2",
		ProviderType: "serper",
		Language:     "en",
	}

	ts := s.Score(context.Background(), translated, query, 1, false)
	us := s.Score(context.Background(), untranslated, query, 1, false)
	assert.Greater(t, ts, us, "PT query must match the PT translation better than the EN original")
}

func TestApplyCurveMonotone(t *testing.T) {
	var prev float64 = -1
	for v := 0.0; v <= 1.0; v += 0.01 {
		out := applyCurve(DefaultCurve, v)
		require.GreaterOrEqual(t, out, prev)
		require.GreaterOrEqual(t, out, 0.0)
		require.LessOrEqual(t, out, 1.0)
		prev = out
	}
	assert.Zero(t, applyCurve(DefaultCurve, 0))
	assert.Equal(t, 1.0, applyCurve(DefaultCurve, 1))
}

func TestApplyCurveExpandsMiddle(t *testing.T) {
	assert.Greater(t, applyCurve(DefaultCurve, 0.5), 0.5)
}

func TestIsMetaAnswer(t *testing.T) {
	assert.True(t, IsMetaAnswer("Here are five relevant sources"))
	assert.True(t, IsMetaAnswer("Aquí tienes los mejores resultados"))
	assert.True(t, IsMetaAnswer("Voici les meilleures sources"))
	assert.False(t, IsMetaAnswer("Acesso a crédito para pequenas empresas"))
}

func TestIsEmptyMarker(t *testing.T) {
	assert.True(t, IsEmptyMarker("", ""))
	assert.True(t, IsEmptyMarker("404 Not Found", ""))
	assert.True(t, IsEmptyMarker("Resultados", "Nenhum resultado encontrado"))
	assert.False(t, IsEmptyMarker("Acesso a crédito", "Guia completo de financiamento"))
}

func TestPenaltyFactor(t *testing.T) {
	assert.Equal(t, 1.0, penaltyFactor("Acesso a crédito", "Guia completo de financiamento"))
	assert.Equal(t, MetaAnswerPenalty, penaltyFactor("Here are five relevant sources", "Detailed guide to credit programs"))
	assert.Equal(t, EmptyPenalty, penaltyFactor("Acesso a crédito", "Página não encontrada"))
	assert.Equal(t, CombinedPenalty, penaltyFactor("Here are the results", "No results found"),
		"meta-answer plus empty marker gets the combined penalty, not the product")
}

func TestAppraiseSetEmpty(t *testing.T) {
	a := AppraiseSet(nil, 0.75)
	assert.Equal(t, RecommendContinue, a.Recommendation)
}

func TestAppraiseSetStopsOnHighQuality(t *testing.T) {
	results := []store.Result{
		{ConfidenceScore: 0.95, OriginProvider: "serper"},
		{ConfidenceScore: 0.92, OriginProvider: "brave"},
		{ConfidenceScore: 0.96, OriginProvider: "tavily"},
		{ConfidenceScore: 0.94, OriginProvider: "duckduckgo"},
		{ConfidenceScore: 0.93, OriginProvider: "serper"},
	}
	a := AppraiseSet(results, 0.75)
	assert.Equal(t, RecommendStop, a.Recommendation)
	assert.GreaterOrEqual(t, a.OverallQuality, 0.75)
	assert.NotEmpty(t, a.Reason)
}

func TestAppraiseSetContinuesOnLowQuality(t *testing.T) {
	results := []store.Result{
		{ConfidenceScore: 0.1, OriginProvider: "serper"},
		{ConfidenceScore: 0.2, OriginProvider: "serper"},
	}
	a := AppraiseSet(results, 0.75)
	assert.Equal(t, RecommendContinue, a.Recommendation)
}

func TestAppraiseSetDiversity(t *testing.T) {
	one := AppraiseSet([]store.Result{{ConfidenceScore: 0.8, OriginProvider: "serper"}}, 0.99)
	assert.InDelta(t, 0.2, one.Diversity, 1e-9)

	five := AppraiseSet([]store.Result{
		{ConfidenceScore: 0.8, OriginProvider: "a"},
		{ConfidenceScore: 0.8, OriginProvider: "b"},
		{ConfidenceScore: 0.8, OriginProvider: "c"},
		{ConfidenceScore: 0.8, OriginProvider: "d"},
		{ConfidenceScore: 0.8, OriginProvider: "e"},
		{ConfidenceScore: 0.8, OriginProvider: "e"},
	}, 0.99)
	assert.InDelta(t, 1.0, five.Diversity, 1e-9)
}
