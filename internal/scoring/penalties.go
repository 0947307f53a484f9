package scoring

import "strings"

// Penalty multipliers for degenerate content. A hit that is both a
// meta-answer and an empty marker gets the combined penalty, harsher
// than the product of the two.
const (
	MetaAnswerPenalty = 0.30
	EmptyPenalty      = 0.20
	CombinedPenalty   = 0.05
)

// Assistant-preamble openings in the pipeline's working languages. A real
// source title never starts like this; an LLM-generated answer page does.
var metaAnswerPrefixes = []string{
	"here are",
	"here is",
	"these are",
	"below are",
	"i found",
	"i've found",
	"sure, here",
	"voici",
	"aquí tienes",
	"aquí están",
	"aqui estão",
	"aqui está",
	"confira a seguir",
	"veja a seguir",
	"seguem abaixo",
}

// Placeholder fragments that mark a no-content page.
var emptyMarkers = []string{
	"no results",
	"no results found",
	"nothing found",
	"not found",
	"page not found",
	"404",
	"nenhum resultado",
	"não encontrado",
	"não encontrada",
	"página não encontrada",
	"sem resultados",
	"sin resultados",
	"no se encontr",
	"página no encontrada",
}

// IsMetaAnswer reports whether text opens like an assistant preamble
// rather than a source title.
func IsMetaAnswer(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, prefix := range metaAnswerPrefixes {
		if strings.HasPrefix(t, prefix) {
			return true
		}
	}
	return false
}

// IsEmptyMarker reports whether title or description reads as a
// placeholder/not-found page.
func IsEmptyMarker(title, description string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	d := strings.ToLower(strings.TrimSpace(description))
	if t == "" && d == "" {
		return true
	}
	for _, marker := range emptyMarkers {
		if strings.Contains(t, marker) || strings.Contains(d, marker) {
			return true
		}
	}
	return false
}

// penaltyFactor composes the penalties for title/description.
func penaltyFactor(title, description string) float64 {
	meta := IsMetaAnswer(title) || IsMetaAnswer(description)
	empty := IsEmptyMarker(title, description)
	switch {
	case meta && empty:
		return CombinedPenalty
	case meta:
		return MetaAnswerPenalty
	case empty:
		return EmptyPenalty
	default:
		return 1.0
	}
}
