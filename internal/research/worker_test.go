package research

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/config"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/dedup"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/llm"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/providers"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/store"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/translate"
)

// languageAwareGateway answers translation prompts with fixed text in the
// requested target language so validation passes.
type languageAwareGateway struct{}

func (g *languageAwareGateway) Complete(ctx context.Context, tier llm.Tier, system, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "to Portuguese"):
		return "Como as pequenas empresas conseguem acesso ao crédito no país", nil
	case strings.Contains(prompt, "to English"):
		return "How small businesses can obtain access to credit in the country", nil
	case strings.Contains(prompt, "to Spanish"):
		return "Cómo las pequeñas empresas pueden obtener acceso al crédito en el país", nil
	default:
		return "How small businesses can obtain access to credit in the country", nil
	}
}

func seedFailure(t *testing.T, st *store.LocalStore) {
	t.Helper()
	require.NoError(t, st.SeedFailures([]store.Failure{{
		ID:          1,
		Title:       "Acesso a crédito",
		Pillar:      "Financiamento",
		Description: "Startups enfrentam dificuldade para obter financiamento inicial",
		SearchHint:  "crédito, financiamento, startup",
	}}))
}

// perLanguageHits returns one hit matching the query's language so the
// contamination guard has nothing to drop.
func perLanguageHits(provider string) func(query, lang string) []providers.SearchHit {
	return func(query, lang string) []providers.SearchHit {
		if lang == "en" {
			return []providers.SearchHit{{
				Title:       "Access to credit guide for small businesses",
				Description: "How startups can obtain initial financing from public programs in the country",
				URL:         "https://" + provider + ".example.org/en",
			}}
		}
		return []providers.SearchHit{{
			Title:       "Guia de acesso ao crédito para pequenas empresas",
			Description: "Como as startups conseguem obter o financiamento inicial em programas do país",
			URL:         "https://" + provider + ".example.org/pt",
		}}
	}
}

type poolFixture struct {
	store *store.LocalStore
	pool  *Pool
	gen   *Generator
	cfg   config.SearchConfig
}

func newPoolFixture(t *testing.T, ps ...providers.Provider) *poolFixture {
	t.Helper()

	st, err := store.NewLocalStore(filepath.Join(t.TempDir(), "worker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.DefaultSearchConfig()
	cfg.AdaptiveSearchEnabled = false
	cfg.Languages = []string{"pt", "en"}
	cfg.Providers = nil
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		cfg.Providers = append(cfg.Providers, config.ProviderConfig{Name: p.Name(), Enabled: true})
		names = append(names, p.Name())
	}

	translator := translate.NewService(&languageAwareGateway{})
	scorer := newTestScorer(cfg)
	deduper := dedup.New(st, nil, nil, 0.80, 0.85)
	registry := providers.NewRegistryFromProviders(ps...)
	exec := NewExecutor(registry, scorer, nil, cfg)

	pool := NewPool(PoolOptions{
		Store:         st,
		Executor:      exec,
		Translator:    translator,
		Scorer:        scorer,
		Dedup:         deduper,
		ProviderOrder: names,
		Workers:       2,
		StuckTimeout:  time.Minute,
	})

	return &poolFixture{
		store: st,
		pool:  pool,
		gen:   NewGenerator(translator, cfg.Languages),
		cfg:   cfg,
	}
}

func TestPopulateAndDrainSingleFailure(t *testing.T) {
	// opencensus starts an unstoppable background worker at init.
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)

	alpha := &fakeProvider{name: "alpha", hitsFor: perLanguageHits("alpha")}
	beta := &fakeProvider{name: "beta", hitsFor: perLanguageHits("beta")}
	fx := newPoolFixture(t, alpha, beta)
	seedFailure(t, fx.store)

	ctx := context.Background()
	n, err := Populate(ctx, fx.store, fx.gen, fx.cfg)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 4, "at least 2 variants x 2 languages")

	// Round-robin assignment touches both providers.
	pending, err := fx.store.ListQueue(store.StatusPending)
	require.NoError(t, err)
	assigned := map[string]bool{}
	for _, item := range pending {
		assigned[item.Provider] = true
	}
	assert.True(t, assigned["alpha"] && assigned["beta"])

	summary, err := fx.pool.ProcessUntilEmpty(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(n), summary.Processed)
	assert.Zero(t, summary.Errors)

	counts, err := fx.store.QueueCounts()
	require.NoError(t, err)
	assert.Zero(t, counts[store.StatusPending])
	assert.Zero(t, counts[store.StatusInProgress])
	assert.Equal(t, n, counts[store.StatusDone])

	results, err := fx.store.ListResults(1)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Contains(t, []string{"pt", "en"}, r.Language)
		assert.GreaterOrEqual(t, r.ConfidenceScore, 0.0)
		assert.LessOrEqual(t, r.ConfidenceScore, 1.0)
		assert.GreaterOrEqual(t, r.Occurrences, 1)
		if r.Language != "pt" {
			assert.NotNil(t, r.TitlePT, "non-PT result must carry a PT title translation")
		}
	}

	// The deferred leak check runs before the fixture cleanup, so the
	// sqlite pool must already be closed here.
	require.NoError(t, fx.store.Close())
}

func TestWorkerDropsContaminatedHits(t *testing.T) {
	// Provider ignores the locale and answers in PT on an EN item.
	stubborn := &fakeProvider{name: "alpha", hitsFor: func(query, lang string) []providers.SearchHit {
		return []providers.SearchHit{{
			Title:       "Guia de acesso ao crédito para as pequenas empresas do país",
			Description: "Como as startups conseguem obter o financiamento inicial que não encontram nos bancos",
			URL:         "https://alpha.example.org/pt",
		}}
	}}
	fx := newPoolFixture(t, stubborn)
	seedFailure(t, fx.store)

	_, err := fx.store.Enqueue(&store.QueueItem{
		FailureID:   1,
		Query:       "access to credit for small businesses",
		Language:    "en",
		Provider:    "alpha",
		MaxAttempts: 3,
		Status:      store.StatusPending,
	})
	require.NoError(t, err)

	ok, err := fx.pool.ProcessOne(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	results, err := fx.store.ListResults(1)
	require.NoError(t, err)
	assert.Empty(t, results, "PT hit on an EN item must be dropped, not persisted")

	counts, err := fx.store.QueueCounts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts[store.StatusDone])
}

func TestWorkerIngestIdempotence(t *testing.T) {
	alpha := &fakeProvider{name: "alpha", hitsFor: perLanguageHits("alpha")}
	fx := newPoolFixture(t, alpha)
	seedFailure(t, fx.store)

	enqueue := func() {
		_, err := fx.store.Enqueue(&store.QueueItem{
			FailureID:   1,
			Query:       "acesso a crédito para pequenas empresas",
			Language:    "pt",
			Provider:    "alpha",
			MaxAttempts: 3,
			Status:      store.StatusPending,
		})
		require.NoError(t, err)
	}

	ctx := context.Background()
	enqueue()
	ok, err := fx.pool.ProcessOne(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	enqueue()
	ok, err = fx.pool.ProcessOne(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	results, err := fx.store.ListResults(1)
	require.NoError(t, err)
	require.Len(t, results, 1, "reprocessing the same content must merge, not duplicate")
	assert.Equal(t, 2, results[0].Occurrences)
}

func TestWorkerTranslatesSpanishResult(t *testing.T) {
	spanish := &fakeProvider{name: "alpha", hitsFor: func(query, lang string) []providers.SearchHit {
		return []providers.SearchHit{{
			Title:       "Guía de acceso al crédito en las pequeñas empresas del país",
			Description: "Cómo las empresas pueden obtener el financiamiento en los programas públicos",
			URL:         "https://alpha.example.org/es",
		}}
	}}
	fx := newPoolFixture(t, spanish)
	seedFailure(t, fx.store)

	_, err := fx.store.Enqueue(&store.QueueItem{
		FailureID:   1,
		Query:       "acceso al crédito para las pequeñas empresas",
		Language:    "es",
		Provider:    "alpha",
		MaxAttempts: 3,
		Status:      store.StatusPending,
	})
	require.NoError(t, err)

	ok, err := fx.pool.ProcessOne(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	results, err := fx.store.ListResults(1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "es", r.Language)
	require.NotNil(t, r.TitlePT)
	require.NotNil(t, r.DescriptionPT)
	require.NotNil(t, r.TitleEN, "non-EN results get an English title")
	require.NotNil(t, r.DescriptionEN, "non-EN results get an English description")
	assert.Contains(t, *r.TitlePT, "pequenas empresas")
	assert.Contains(t, *r.TitleEN, "small businesses")
}

func TestWorkerInvalidItemGoesToError(t *testing.T) {
	alpha := &fakeProvider{name: "alpha", hitsFor: perLanguageHits("alpha")}
	fx := newPoolFixture(t, alpha)
	seedFailure(t, fx.store)

	_, err := fx.store.Enqueue(&store.QueueItem{
		FailureID:   1,
		Query:       "   ",
		Language:    "pt",
		Provider:    "alpha",
		MaxAttempts: 3,
		Status:      store.StatusPending,
	})
	require.NoError(t, err)

	ok, err := fx.pool.ProcessOne(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	counts, err := fx.store.QueueCounts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts[store.StatusError])

	history, err := fx.store.ListHistory(1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Contains(t, history[0].ErrorMessage, "invalid item")
}

func TestPoolPauseRevertsInProgress(t *testing.T) {
	alpha := &fakeProvider{name: "alpha", hitsFor: perLanguageHits("alpha")}
	fx := newPoolFixture(t, alpha)
	seedFailure(t, fx.store)

	id, err := fx.store.Enqueue(&store.QueueItem{
		FailureID:   1,
		Query:       "acesso a crédito",
		Language:    "pt",
		Provider:    "alpha",
		MaxAttempts: 3,
		Status:      store.StatusPending,
	})
	require.NoError(t, err)
	require.NoError(t, fx.store.UpdateQueueStatus(id, store.StatusInProgress))

	fx.pool.Pause()
	assert.False(t, fx.pool.Active())

	counts, err := fx.store.QueueCounts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts[store.StatusPending])

	fx.pool.Resume()
	assert.True(t, fx.pool.Active())
}
