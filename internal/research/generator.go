// Package research orchestrates the pipeline: query generation, queue
// population, the adaptive provider loop, and the worker pool that drives
// items from pending to done.
package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/language"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/store"
)

// MaxVariantsPerFailure caps how many query phrasings one failure spawns
// before language expansion.
const MaxVariantsPerFailure = 6

// baseLanguage is the language failures are written in.
const baseLanguage = "pt"

// descriptionTokenCount is how many leading description keywords join the
// title in the second variant.
const descriptionTokenCount = 6

// Variant is one generated query phrasing in one target language.
type Variant struct {
	FailureID      int64
	Text           string
	Language       string
	VariationIndex int
}

// Translator is the slice of the translation service the generator needs.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (*string, error)
}

// Generator derives search query variants from failures and expands them
// across target languages.
type Generator struct {
	translator Translator
	languages  []string
}

// NewGenerator builds a generator for the given target languages. The
// translator may be nil; generation then falls back to tagged originals
// for non-base languages.
func NewGenerator(translator Translator, languages []string) *Generator {
	if len(languages) == 0 {
		languages = []string{baseLanguage}
	}
	return &Generator{translator: translator, languages: languages}
}

// Variants produces the base-language query phrasings for one failure,
// deduplicated and capped at MaxVariantsPerFailure.
func (g *Generator) Variants(failure *store.Failure) []string {
	title := strings.TrimSpace(failure.Title)
	if title == "" {
		return nil
	}

	candidates := []string{title}

	if keywords := language.Keywords(failure.Description, baseLanguage); len(keywords) > 0 {
		n := descriptionTokenCount
		if n > len(keywords) {
			n = len(keywords)
		}
		candidates = append(candidates, title+" "+strings.Join(keywords[:n], " "))
	}

	if hint := strings.TrimSpace(failure.SearchHint); hint != "" {
		candidates = append(candidates, hint)
	}

	candidates = append(candidates, "como resolver "+strings.ToLower(title))

	if keywords := language.Keywords(title, baseLanguage); len(keywords) > 0 {
		candidates = append(candidates, "política pública para "+keywords[0])
	}

	if pillar := strings.TrimSpace(failure.Pillar); pillar != "" {
		candidates = append(candidates, title+" "+strings.ToLower(pillar))
	}

	seen := make(map[string]struct{}, len(candidates))
	variants := make([]string, 0, MaxVariantsPerFailure)
	for _, c := range candidates {
		key := strings.ToLower(strings.TrimSpace(c))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		variants = append(variants, strings.TrimSpace(c))
		if len(variants) >= MaxVariantsPerFailure {
			break
		}
	}
	return variants
}

// Generate expands the failure's variants across all target languages.
// When translation fails for a (variant, language) pair, the original text
// is emitted with a language-tag prefix so queue population never blocks;
// the worker's language validation catches these later.
func (g *Generator) Generate(ctx context.Context, failure *store.Failure) []Variant {
	base := g.Variants(failure)
	out := make([]Variant, 0, len(base)*len(g.languages))

	for idx, text := range base {
		for _, lang := range g.languages {
			out = append(out, Variant{
				FailureID:      failure.ID,
				Text:           g.inLanguage(ctx, text, lang),
				Language:       lang,
				VariationIndex: idx,
			})
		}
	}

	logging.Search("Generated %d query variants for failure %d across %d languages",
		len(out), failure.ID, len(g.languages))
	return out
}

func (g *Generator) inLanguage(ctx context.Context, text, lang string) string {
	if strings.EqualFold(lang, baseLanguage) {
		return text
	}
	if g.translator != nil {
		translated, err := g.translator.Translate(ctx, text, baseLanguage, lang)
		if err == nil && translated != nil && *translated != "" {
			return *translated
		}
		logging.SearchDebug("Variant translation to %s failed, emitting tagged original", lang)
	}
	return fmt.Sprintf("[%s] %s", lang, text)
}
