package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/dedup"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/embedding"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/language"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/providers"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/scoring"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/store"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/translate"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/vector"
)

// canonicalLang is the language results are normalized into.
const canonicalLang = "pt"

// contaminationConfidence is the detector confidence above which a hit in
// the wrong language is dropped.
const contaminationConfidence = 0.15

// Summary aggregates one processing run.
type Summary struct {
	Processed  int64
	Errors     int64
	NewResults int64
	Duplicates int64
}

// SuccessRate returns processed-without-error over processed, in [0,1].
func (s Summary) SuccessRate() float64 {
	if s.Processed == 0 {
		return 0
	}
	return float64(s.Processed-s.Errors) / float64(s.Processed)
}

// Pool drives queue items through the full pipeline: claim, translate the
// query if needed, execute the provider chain, then score, dedup, persist,
// translate, and index every hit. At-least-once: a crashed worker's item
// is recovered to pending and the content-hash merge keeps reruns
// convergent.
type Pool struct {
	store      *store.LocalStore
	executor   *Executor
	translator *translate.Service
	scorer     *scoring.Scorer
	dedup      *dedup.Deduplicator
	engine     embedding.Engine
	vectors    *vector.Collection

	providerOrder []string
	workers       int
	ragEnabled    bool
	stuckTimeout  time.Duration

	active atomic.Bool

	processed  atomic.Int64
	errors     atomic.Int64
	newResults atomic.Int64
	duplicates atomic.Int64
}

// PoolOptions carries the pool's collaborators and knobs.
type PoolOptions struct {
	Store         *store.LocalStore
	Executor      *Executor
	Translator    *translate.Service
	Scorer        *scoring.Scorer
	Dedup         *dedup.Deduplicator
	Engine        embedding.Engine
	Vectors       *vector.Collection
	ProviderOrder []string
	Workers       int
	RAGEnabled    bool
	StuckTimeout  time.Duration
}

// NewPool builds a worker pool. Engine and Vectors may be nil when the
// semantic layer is disabled.
func NewPool(opts PoolOptions) *Pool {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	p := &Pool{
		store:         opts.Store,
		executor:      opts.Executor,
		translator:    opts.Translator,
		scorer:        opts.Scorer,
		dedup:         opts.Dedup,
		engine:        opts.Engine,
		vectors:       opts.Vectors,
		providerOrder: opts.ProviderOrder,
		workers:       workers,
		ragEnabled:    opts.RAGEnabled,
		stuckTimeout:  opts.StuckTimeout,
	}
	p.active.Store(true)
	return p
}

// Pause stops workers after their current item and reverts any item still
// held in_progress back to pending so no progress is lost.
func (p *Pool) Pause() {
	p.active.Store(false)
	if n, err := p.store.ResetInProgress(); err != nil {
		logging.Get(logging.CategoryWorker).Error("Pause: reset in_progress failed: %v", err)
	} else if n > 0 {
		logging.Worker("Pause: reverted %d in_progress items to pending", n)
	}
}

// Resume re-enables processing after Pause.
func (p *Pool) Resume() {
	p.active.Store(true)
}

// Active reports whether the pool accepts new items.
func (p *Pool) Active() bool {
	return p.active.Load()
}

// Summary returns the counters accumulated since pool creation.
func (p *Pool) Summary() Summary {
	return Summary{
		Processed:  p.processed.Load(),
		Errors:     p.errors.Load(),
		NewResults: p.newResults.Load(),
		Duplicates: p.duplicates.Load(),
	}
}

// ProcessOne claims and processes a single pending item. Returns false
// when the queue has no pending items.
func (p *Pool) ProcessOne(ctx context.Context) (bool, error) {
	return p.step(ctx, uuid.NewString())
}

// ProcessBatch processes up to n items serially.
func (p *Pool) ProcessBatch(ctx context.Context, n int) (Summary, error) {
	runID := uuid.NewString()
	for i := 0; i < n; i++ {
		if !p.active.Load() {
			break
		}
		ok, err := p.step(ctx, runID)
		if err != nil {
			return p.Summary(), err
		}
		if !ok {
			break
		}
	}
	return p.Summary(), nil
}

// ProcessUntilEmpty recovers stuck items, then drains the queue with the
// configured number of parallel workers. Each worker claims items
// independently; claiming doubles as the row lock.
func (p *Pool) ProcessUntilEmpty(ctx context.Context) (Summary, error) {
	if p.stuckTimeout > 0 {
		if n, err := p.store.RecoverStuck(p.stuckTimeout); err != nil {
			return p.Summary(), fmt.Errorf("recover stuck: %w", err)
		} else if n > 0 {
			logging.Worker("Recovered %d stuck items to pending", n)
		}
	}

	runID := uuid.NewString()
	logging.Worker("Starting %d workers (run %s)", p.workers, runID)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < p.workers; w++ {
		g.Go(func() error {
			for p.active.Load() {
				ok, err := p.step(ctx, runID)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}
			return nil
		})
	}

	err := g.Wait()
	summary := p.Summary()
	logging.Worker("Run %s finished: processed=%d errors=%d new=%d duplicates=%d",
		runID, summary.Processed, summary.Errors, summary.NewResults, summary.Duplicates)
	return summary, err
}

// step claims the next pending item and processes it. Returns false when
// nothing is pending. Fatal errors (store unreachable) propagate; per-item
// failures are absorbed into the item's error status.
func (p *Pool) step(ctx context.Context, runID string) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	item, err := p.store.ClaimNext()
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claim: %w", err)
	}

	p.processItem(ctx, item, runID)
	return true, nil
}

// processItem owns item from in_progress to its terminal transition.
func (p *Pool) processItem(ctx context.Context, item *store.QueueItem, runID string) {
	started := time.Now()
	logging.WorkerDebug("Processing item %d: failure=%d provider=%s lang=%s",
		item.ID, item.FailureID, item.Provider, item.Language)

	if reason := validateItem(item); reason != "" {
		p.finishItem(ctx, item, runID, store.StatusError, 0, reason, started)
		return
	}

	query := p.effectiveQuery(ctx, item)

	outcome, err := p.executor.Execute(ctx, query, item.Language, p.orderFor(item.Provider))
	if err != nil {
		p.retryOrFail(ctx, item, runID, fmt.Sprintf("execute: %v", err), started)
		return
	}

	newResults := 0
	for _, hit := range outcome.Hits {
		if ctx.Err() != nil {
			p.retryOrFail(ctx, item, runID, "canceled mid-item", started)
			return
		}
		isNew, err := p.processHit(ctx, item, query, hit)
		if err != nil {
			p.retryOrFail(ctx, item, runID, fmt.Sprintf("persist hit: %v", err), started)
			return
		}
		if isNew {
			newResults++
		}
	}

	logging.Worker("Item %d done: %d hits, %d new, %d calls, stop=%s",
		item.ID, len(outcome.Hits), newResults, outcome.NumCalls, outcome.StopReason)
	p.finishItem(ctx, item, runID, store.StatusDone, len(outcome.Hits), "", started)
}

// effectiveQuery translates the query when the item targets a non-PT
// language but the text still reads as Portuguese (a generator fallback
// that slipped through). Failure keeps the original text.
func (p *Pool) effectiveQuery(ctx context.Context, item *store.QueueItem) string {
	if strings.EqualFold(item.Language, canonicalLang) {
		return item.Query
	}
	if !language.Is(item.Query, canonicalLang, contaminationConfidence) {
		return item.Query
	}

	translated, err := p.translator.Translate(ctx, item.Query, canonicalLang, item.Language)
	if err != nil || translated == nil || *translated == "" {
		logging.WorkerDebug("Query translation for item %d failed, using original", item.ID)
		return item.Query
	}
	logging.WorkerDebug("Translated PT query for item %d into %s", item.ID, item.Language)
	return *translated
}

// processHit scores, dedups, persists, translates, and indexes one hit.
// Contaminated hits are dropped silently.
func (p *Pool) processHit(ctx context.Context, item *store.QueueItem, query string, hit providers.SearchHit) (bool, error) {
	// Cross-language contamination guard: a PT hit on a non-PT item means
	// the provider ignored the locale. Keeping it would skew per-language
	// coverage stats.
	if !strings.EqualFold(item.Language, canonicalLang) &&
		language.Is(hit.Title+" "+hit.Description, canonicalLang, contaminationConfidence) {
		logging.WorkerDebug("Dropped PT-contaminated hit on %s item: %q", item.Language, hit.Title)
		return false, nil
	}

	result := &store.Result{
		FailureID:      item.FailureID,
		Title:          hit.Title,
		Description:    hit.Description,
		URL:            hit.URL,
		ProviderType:   hit.Provider,
		Language:       item.Language,
		Query:          query,
		OriginProvider: hit.Provider,
		URLValid:       providers.ValidURL(hit.URL),
		Occurrences:    1,
	}
	result.ConfidenceScore = p.scorer.Score(ctx, result, query, 1, p.ragEnabled)

	surviving, isNew, err := p.dedup.Process(ctx, result)
	if err != nil {
		return false, err
	}
	if isNew {
		p.newResults.Add(1)
	} else {
		p.duplicates.Add(1)
	}

	if isNew && !strings.EqualFold(item.Language, canonicalLang) {
		p.translateResult(ctx, surviving)
	}

	p.indexResult(ctx, surviving)
	return isNew, nil
}

// translateResult fills the PT (and opportunistically EN) translation
// columns. Title and description run in parallel; the row is updated only
// when at least one translation validated.
func (p *Pool) translateResult(ctx context.Context, result *store.Result) {
	var titlePT, descPT, titleEN, descEN *string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		titlePT, _ = p.translator.Translate(gctx, result.Title, result.Language, canonicalLang)
		return nil
	})
	g.Go(func() error {
		descPT, _ = p.translator.Translate(gctx, result.Description, result.Language, canonicalLang)
		return nil
	})
	if !strings.EqualFold(result.Language, "en") {
		g.Go(func() error {
			titleEN, _ = p.translator.Translate(gctx, result.Title, result.Language, "en")
			return nil
		})
		g.Go(func() error {
			descEN, _ = p.translator.Translate(gctx, result.Description, result.Language, "en")
			return nil
		})
	}
	_ = g.Wait()

	if titlePT == nil && descPT == nil && titleEN == nil && descEN == nil {
		logging.TranslateDebug("No translation validated for result %d", result.ID)
		return
	}

	if err := p.store.UpdateResultTranslations(result.ID, titlePT, descPT, titleEN, descEN); err != nil {
		logging.Get(logging.CategoryTranslate).Warn("Storing translations for result %d failed: %v", result.ID, err)
		return
	}
	result.TitlePT, result.DescriptionPT = titlePT, descPT
	result.TitleEN, result.DescriptionEN = titleEN, descEN
}

// indexResult adds the result's embedding to the vector store, keyed by
// content hash so reruns overwrite instead of duplicating.
func (p *Pool) indexResult(ctx context.Context, result *store.Result) {
	if p.engine == nil || p.vectors == nil {
		return
	}

	text := result.Title + " " + result.Description
	v, err := p.engine.Embed(ctx, text)
	if err != nil || embedding.IsZero(v) {
		return
	}

	err = p.vectors.Add(
		[]string{result.ContentHash},
		[][]float32{v},
		[]map[string]string{scoring.RAGMetadata(result.FailureID, result.ConfidenceScore)},
		[]string{text},
	)
	if err != nil {
		logging.Get(logging.CategoryVector).Warn("Indexing result %d failed: %v", result.ID, err)
	}
}

// retryOrFail increments attempts and either releases the item back to
// pending or marks it error when the budget is spent.
func (p *Pool) retryOrFail(ctx context.Context, item *store.QueueItem, runID, reason string, started time.Time) {
	attempts, err := p.store.IncrementAttempts(item.ID)
	if err != nil {
		logging.Get(logging.CategoryWorker).Error("Increment attempts for item %d failed: %v", item.ID, err)
		attempts = item.Attempts + 1
	}

	maxAttempts := item.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	if attempts >= maxAttempts {
		logging.Worker("Item %d failed permanently after %d attempts: %s", item.ID, attempts, reason)
		p.finishItem(ctx, item, runID, store.StatusError, 0, reason, started)
		return
	}

	logging.WorkerDebug("Item %d released for retry (%d/%d): %s", item.ID, attempts, maxAttempts, reason)
	if err := p.store.UpdateQueueStatus(item.ID, store.StatusPending); err != nil {
		logging.Get(logging.CategoryWorker).Error("Releasing item %d failed: %v", item.ID, err)
	}
	p.processed.Add(1)
	p.recordHistory(item, runID, string(store.StatusPending), 0, reason, started)
}

// finishItem performs the terminal transition and writes the audit row.
func (p *Pool) finishItem(ctx context.Context, item *store.QueueItem, runID string, status store.QueueStatus, found int, errMsg string, started time.Time) {
	_ = ctx
	if err := p.store.UpdateQueueStatus(item.ID, status); err != nil {
		logging.Get(logging.CategoryWorker).Error("Transition of item %d to %s failed: %v", item.ID, status, err)
	}

	p.processed.Add(1)
	if status == store.StatusError {
		p.errors.Add(1)
	}
	p.recordHistory(item, runID, string(status), found, errMsg, started)
}

func (p *Pool) recordHistory(item *store.QueueItem, runID, status string, found int, errMsg string, started time.Time) {
	entry := &store.HistoryEntry{
		FailureID:      item.FailureID,
		Query:          item.Query,
		Language:       item.Language,
		Provider:       item.Provider,
		Status:         status,
		ResultsFound:   found,
		ErrorMessage:   errMsg,
		ElapsedSeconds: time.Since(started).Seconds(),
		RunID:          runID,
	}
	if err := p.store.InsertHistory(entry); err != nil {
		logging.Get(logging.CategoryWorker).Error("History write for item %d failed: %v", item.ID, err)
	}
}

// orderFor puts the item's assigned provider first, then the rest of the
// chain in config order. The round-robin assignment spreads first calls;
// the adaptive loop still gets the whole chain.
func (p *Pool) orderFor(assigned string) []string {
	order := make([]string, 0, len(p.providerOrder))
	order = append(order, assigned)
	for _, name := range p.providerOrder {
		if name != assigned {
			order = append(order, name)
		}
	}
	return order
}

func validateItem(item *store.QueueItem) string {
	switch {
	case item.FailureID <= 0:
		return "invalid item: missing failure_id"
	case strings.TrimSpace(item.Query) == "":
		return "invalid item: empty query"
	case strings.TrimSpace(item.Language) == "":
		return "invalid item: empty language"
	case strings.TrimSpace(item.Provider) == "":
		return "invalid item: empty provider"
	default:
		return ""
	}
}
