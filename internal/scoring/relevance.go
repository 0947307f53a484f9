package scoring

import (
	"strings"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/language"
)

// Relevance weights. Exact keyword matches dominate; partial matches and
// whole-phrase presence add on top. The sum can exceed 1 and is clamped.
const (
	exactMatchWeight    = 0.75
	partialMatchWeight  = 0.10
	phraseTitleBonus    = 0.25
	phraseBodyBonus     = 0.15
	minPartialRuneCount = 4
)

// relevance computes the keyword-overlap relevance of (title, description)
// against the query, in [0,1]. Stopwords are filtered per lang. A query
// with no keywords left scores zero.
func relevance(query, title, description, lang string) float64 {
	keywords := language.Keywords(query, lang)
	if len(keywords) == 0 {
		return 0
	}

	content := title + " " + description
	tokens := language.Tokenize(content)
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = struct{}{}
	}

	var exact, partial int
	for _, kw := range keywords {
		if _, ok := tokenSet[kw]; ok {
			exact++
			continue
		}
		if len([]rune(kw)) < minPartialRuneCount {
			continue
		}
		for t := range tokenSet {
			if len([]rune(t)) >= minPartialRuneCount &&
				(strings.Contains(t, kw) || strings.Contains(kw, t)) {
				partial++
				break
			}
		}
	}

	n := float64(len(keywords))
	score := exactMatchWeight*float64(exact)/n + partialMatchWeight*float64(partial)/n

	phrase := normalizePhrase(query)
	if phrase != "" {
		if strings.Contains(normalizePhrase(title), phrase) {
			score += phraseTitleBonus
		} else if strings.Contains(normalizePhrase(description), phrase) {
			score += phraseBodyBonus
		}
	}

	return clamp01(score)
}

// titleMatch returns the fraction of query keywords present in the title.
func titleMatch(query, title, lang string) float64 {
	keywords := language.Keywords(query, lang)
	if len(keywords) == 0 {
		return 0
	}
	tokens := language.Tokenize(title)
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = struct{}{}
	}
	hits := 0
	for _, kw := range keywords {
		if _, ok := tokenSet[kw]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}

func normalizePhrase(s string) string {
	return strings.Join(language.Tokenize(s), " ")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
