// Package language provides lightweight language detection for short text.
// Detection is a keyword-frequency heuristic over a small set of languages;
// it is cheap enough to run on every search hit and translation result. For
// longer or ambiguous text the LLM-based detect-and-translate path is
// authoritative and overrides this detector.
package language

import (
	"strings"
	"unicode"
)

// Unknown is reported when no language clears the confidence floor.
const Unknown = "unknown"

// MinDetectLength is the minimum string length (in runes) for detection.
// Below it the marker-word heuristic is statistically meaningless, so
// Detect reports Unknown and translation validation is skipped.
const MinDetectLength = 20

// ConfidenceFloor is the minimum marker-token ratio required to report a
// language instead of Unknown.
const ConfidenceFloor = 0.15

// markers holds high-frequency function words per supported language.
// Words Portuguese and Spanish share verbatim (de, que, para, como, por,
// entre, sobre, and the articles a/o) are omitted from both sets so they
// cannot vote either way; each set keeps only words distinctive for it.
var markers = map[string]map[string]struct{}{
	"pt": wordSet("o os do da dos das em no na nos nas um uma uns umas não com mais mas foi são ser tem está é você também já ou seu sua isso esse essa quando muito pelo pela até depois sem mesmo ao aos às ainda onde"),
	"en": wordSet("the of and to in is was for on are as with his they at be this have from or had by word but not what all were when your can there use how their will each about out many then them these"),
	"es": wordSet("el la los las en y es un una con su al lo más pero sus le ya fue este ha sí porque esta son cuando muy sin también me hasta hay donde"),
	"fr": wordSet("le la les de des un une et à est dans que qui pour sur avec ne pas ce cette son ses au aux par plus mais ou comme même aussi être avoir fait tout nous vous ils elles"),
	"de": wordSet("der die das und in den von zu mit sich des auf für ist im dem nicht ein eine als auch es an werden aus er hat dass sie nach wird bei einer um am sind noch wie"),
}

// detectOrder fixes the iteration order so score ties resolve the same
// way on every run.
var detectOrder = []string{"pt", "en", "es", "fr", "de"}

func wordSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}

// Detection is the outcome of a detection pass.
type Detection struct {
	Language   string
	Confidence float64
}

// Detect guesses the language of text. Confidence is the ratio of marker
// tokens for the winning language to total tokens.
func Detect(text string) Detection {
	if len([]rune(text)) < MinDetectLength {
		return Detection{Language: Unknown}
	}

	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return Detection{Language: Unknown}
	}

	counts := make(map[string]int, len(markers))
	for _, tok := range tokens {
		for lang, set := range markers {
			if _, ok := set[tok]; ok {
				counts[lang]++
			}
		}
	}

	best, bestCount := Unknown, 0
	for _, lang := range detectOrder {
		if n := counts[lang]; n > bestCount {
			best, bestCount = lang, n
		}
	}

	confidence := float64(bestCount) / float64(len(tokens))
	if confidence < ConfidenceFloor {
		return Detection{Language: Unknown, Confidence: confidence}
	}
	return Detection{Language: best, Confidence: confidence}
}

// Is reports whether text is detected as lang with at least the given
// confidence.
func Is(text, lang string, minConfidence float64) bool {
	d := Detect(text)
	return d.Language == lang && d.Confidence >= minConfidence
}

// Tokenize lowercases text and splits it on every non-letter rune.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
