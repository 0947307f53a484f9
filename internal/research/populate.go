package research

import (
	"context"
	"fmt"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/config"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/store"
)

// defaultMaxAttempts is how many claims an item gets before error is final.
const defaultMaxAttempts = 3

// Populate generates query variants for every failure and enqueues one
// item per variant. Providers rotate round-robin across successive items
// so no single provider is exhausted on one failure before the others get
// a turn. Returns the number of items enqueued.
func Populate(ctx context.Context, st *store.LocalStore, gen *Generator, search config.SearchConfig) (int, error) {
	failures, err := st.ListFailures()
	if err != nil {
		return 0, fmt.Errorf("populate: list failures: %w", err)
	}
	if len(failures) == 0 {
		return 0, fmt.Errorf("populate: no failures seeded")
	}

	providers := search.EnabledProviders()
	if len(providers) == 0 {
		return 0, fmt.Errorf("populate: no providers enabled")
	}

	limit := 0
	if search.TestMode.Enabled && search.TestMode.Limit > 0 {
		limit = search.TestMode.Limit
		logging.Queue("Test mode: capping populate at %d items", limit)
	}

	enqueued := 0
	rotation := 0
	for i := range failures {
		if ctx.Err() != nil {
			return enqueued, ctx.Err()
		}
		for _, variant := range gen.Generate(ctx, &failures[i]) {
			if limit > 0 && enqueued >= limit {
				logging.Queue("Populate stopped at test-mode limit: %d items", enqueued)
				return enqueued, nil
			}

			item := &store.QueueItem{
				FailureID:   variant.FailureID,
				Query:       variant.Text,
				Language:    variant.Language,
				Provider:    providers[rotation%len(providers)],
				MaxAttempts: defaultMaxAttempts,
				Status:      store.StatusPending,
			}
			rotation++

			if _, err := st.Enqueue(item); err != nil {
				return enqueued, fmt.Errorf("populate: enqueue: %w", err)
			}
			enqueued++
		}
	}

	logging.Queue("Populated queue: %d items from %d failures across %d providers",
		enqueued, len(failures), len(providers))
	return enqueued, nil
}
