package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/store"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/translate"
)

// Retranslate fills missing PT translations for non-PT results whose
// earlier translation attempt failed or was rejected by validation.
// Returns how many rows gained at least one translation.
func Retranslate(ctx context.Context, st *store.LocalStore, svc *translate.Service, limit int) (int, error) {
	results, err := st.ListUntranslatedResults(limit)
	if err != nil {
		return 0, fmt.Errorf("retranslate: list: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}

	logging.Translate("Retranslating %d results", len(results))
	updated := 0
	for i := range results {
		if ctx.Err() != nil {
			return updated, ctx.Err()
		}
		r := &results[i]

		titlePT, _ := svc.Translate(ctx, r.Title, r.Language, canonicalLang)
		descPT, _ := svc.Translate(ctx, r.Description, r.Language, canonicalLang)

		var titleEN, descEN *string
		if !strings.EqualFold(r.Language, "en") {
			titleEN, _ = svc.Translate(ctx, r.Title, r.Language, "en")
			descEN, _ = svc.Translate(ctx, r.Description, r.Language, "en")
		}

		if titlePT == nil && descPT == nil && titleEN == nil && descEN == nil {
			continue
		}
		if err := st.UpdateResultTranslations(r.ID, titlePT, descPT, titleEN, descEN); err != nil {
			return updated, fmt.Errorf("retranslate: update result %d: %w", r.ID, err)
		}
		updated++
	}

	logging.Translate("Retranslation done: %d of %d rows updated", updated, len(results))
	return updated, nil
}
