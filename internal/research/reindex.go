package research

import (
	"context"
	"fmt"
	"strconv"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/embedding"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/scoring"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/store"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/vector"
)

// Reindex rebuilds the vector store's results and failures collections
// from the persisted tables. The store is disposable by design; this is
// the recovery path after a restart or an embedding model change.
func Reindex(ctx context.Context, st *store.LocalStore, engine embedding.Engine, vs *vector.Store) (indexed int, err error) {
	vs.Reset()

	failures, err := st.ListFailures()
	if err != nil {
		return 0, fmt.Errorf("reindex: list failures: %w", err)
	}
	n, err := indexFailures(ctx, engine, vs.Collection(vector.CollectionFailures), failures)
	if err != nil {
		return n, err
	}
	indexed += n

	results, err := st.ListResults(0)
	if err != nil {
		return indexed, fmt.Errorf("reindex: list results: %w", err)
	}
	n, err = indexResults(ctx, engine, vs.Collection(vector.CollectionResults), results)
	if err != nil {
		return indexed + n, err
	}
	indexed += n

	logging.Vector("Reindex complete: %d entries (%d failures, %d results)",
		indexed, len(failures), len(results))
	return indexed, nil
}

func indexFailures(ctx context.Context, engine embedding.Engine, col *vector.Collection, failures []store.Failure) (int, error) {
	if len(failures) == 0 {
		return 0, nil
	}

	texts := make([]string, len(failures))
	ids := make([]string, len(failures))
	metadatas := make([]map[string]string, len(failures))
	for i, f := range failures {
		texts[i] = f.Title + " " + f.Description
		ids[i] = "failure-" + strconv.FormatInt(f.ID, 10)
		metadatas[i] = map[string]string{
			"failure_id": strconv.FormatInt(f.ID, 10),
			"pillar":     f.Pillar,
		}
	}

	vectors, err := engine.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("reindex: embed failures: %w", err)
	}
	if err := col.Add(ids, vectors, metadatas, texts); err != nil {
		return 0, err
	}
	return col.Count(), nil
}

func indexResults(ctx context.Context, engine embedding.Engine, col *vector.Collection, results []store.Result) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}

	texts := make([]string, len(results))
	ids := make([]string, len(results))
	metadatas := make([]map[string]string, len(results))
	for i, r := range results {
		texts[i] = r.Title + " " + r.Description
		ids[i] = r.ContentHash
		metadatas[i] = scoring.RAGMetadata(r.FailureID, r.ConfidenceScore)
	}

	vectors, err := engine.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("reindex: embed results: %w", err)
	}
	if err := col.Add(ids, vectors, metadatas, texts); err != nil {
		return 0, err
	}
	return col.Count(), nil
}
