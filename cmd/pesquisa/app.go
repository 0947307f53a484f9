package main

import (
	"fmt"
	"path/filepath"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/config"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/dedup"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/embedding"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/llm"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/providers"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/research"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/scoring"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/store"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/translate"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/vector"
)

// App wires the pipeline together for one CLI invocation.
type App struct {
	Config    *config.Config
	Store     *store.LocalStore
	Registry  *providers.Registry
	Engine    embedding.Engine
	Vectors   *vector.Store
	Translate *translate.Service
	Scorer    *scoring.Scorer
	Dedup     *dedup.Deduplicator
	Generator *research.Generator
	Pool      *research.Pool
}

// newApp loads config and builds every component. The semantic layer
// (embedding + vector store) stays nil when RAG is disabled or no GenAI
// key is configured; everything downstream degrades gracefully.
func newApp() (*App, error) {
	cfg, err := config.Load(workspace)
	if err != nil {
		return nil, err
	}

	st, err := store.NewLocalStore(filepath.Join(workspace, cfg.DatabasePath))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	registry, err := providers.NewRegistry(cfg.Search, cfg.Limits)
	if err != nil {
		st.Close()
		return nil, err
	}

	var engine embedding.Engine
	var vectors *vector.Store
	var resultVectors *vector.Collection
	if cfg.RAG.Enabled && cfg.RAG.GenAIAPIKey != "" {
		engine, err = embedding.NewEngine(cfg.RAG)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to build embedding engine: %w", err)
		}
		vectors = vector.Shared(cfg.RAG.EmbeddingDim)
		resultVectors = vectors.Collection(vector.CollectionResults)
	} else {
		logging.Boot("Semantic layer disabled (rag.enabled=%v, genai key set=%v)",
			cfg.RAG.Enabled, cfg.RAG.GenAIAPIKey != "")
	}

	gateway := llm.NewGateway(cfg.LLM, cfg.Limits.MaxRetries)
	translator := translate.NewService(gateway)
	scorer := scoring.NewScorer(cfg.Search, cfg.RAG, engine, resultVectors)
	deduper := dedup.New(st, engine, resultVectors, cfg.RAG.DedupJaccardThreshold, cfg.RAG.DedupThreshold)
	generator := research.NewGenerator(translator, cfg.Search.Languages)

	limiter := research.NewLimiter(cfg.Limits.MinInterCallDelayDuration(), cfg.Limits.MaxRequestsPerMinute)
	executor := research.NewExecutor(registry, scorer, limiter, cfg.Search)

	pool := research.NewPool(research.PoolOptions{
		Store:         st,
		Executor:      executor,
		Translator:    translator,
		Scorer:        scorer,
		Dedup:         deduper,
		Engine:        engine,
		Vectors:       resultVectors,
		ProviderOrder: registry.Names(),
		Workers:       cfg.Limits.MaxWorkers,
		RAGEnabled:    engine != nil,
		StuckTimeout:  cfg.Limits.StuckTimeoutDuration(),
	})

	return &App{
		Config:    cfg,
		Store:     st,
		Registry:  registry,
		Engine:    engine,
		Vectors:   vectors,
		Translate: translator,
		Scorer:    scorer,
		Dedup:     deduper,
		Generator: generator,
		Pool:      pool,
	}, nil
}

// Close releases the store.
func (a *App) Close() {
	if a.Store != nil {
		a.Store.Close()
	}
}
