package embedding

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
)

// CachedEngine wraps a backend with a bounded process-local text->vector
// cache and absorbs backend failures: callers always get a vector of the
// right dimension, with the zero vector standing in for "no useful
// embedding". A concurrent double-miss merely duplicates one API call.
type CachedEngine struct {
	backend Engine

	mu    sync.RWMutex
	cache map[string][]float32

	maxEntries  int
	batchSize   int
	parallelism int

	hits   int64
	misses int64
}

// NewCachedEngine wraps backend. maxEntries bounds the cache; batchSize
// and parallelism shape EmbedBatch API traffic.
func NewCachedEngine(backend Engine, maxEntries, batchSize, parallelism int) *CachedEngine {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	if batchSize <= 0 {
		batchSize = 32
	}
	if parallelism <= 0 {
		parallelism = 4
	}
	return &CachedEngine{
		backend:     backend,
		cache:       make(map[string][]float32),
		maxEntries:  maxEntries,
		batchSize:   batchSize,
		parallelism: parallelism,
	}
}

// Embed returns the cached vector for text, calling the backend on a miss.
// Backend failures are logged and yield the zero vector, never an error.
func (c *CachedEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.lookup(text); ok {
		return v, nil
	}

	v, err := c.backend.Embed(ctx, text)
	if err != nil {
		logging.Get(logging.CategoryEmbedding).Warn("Embed failed, returning zero vector: %v", err)
		return ZeroVector(c.backend.Dimensions()), nil
	}
	c.insert(text, v)
	return v, nil
}

// EmbedBatch embeds texts, serving cached entries and calling the backend
// for the misses in groups of batchSize with bounded parallelism across
// groups. A failed group degrades to zero vectors for its texts only.
func (c *CachedEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	// Serve hits and collect miss positions.
	var missIdx []int
	for i, text := range texts {
		if v, ok := c.lookup(text); ok {
			out[i] = v
		} else {
			missIdx = append(missIdx, i)
		}
	}
	if len(missIdx) == 0 {
		return out, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)

	var outMu sync.Mutex
	for start := 0; start < len(missIdx); start += c.batchSize {
		end := start + c.batchSize
		if end > len(missIdx) {
			end = len(missIdx)
		}
		group := missIdx[start:end]

		g.Go(func() error {
			groupTexts := make([]string, len(group))
			for j, idx := range group {
				groupTexts[j] = texts[idx]
			}

			vectors, err := c.backend.EmbedBatch(ctx, groupTexts)
			if err != nil || len(vectors) != len(group) {
				logging.Get(logging.CategoryEmbedding).Warn("Batch embed failed for %d texts, using zero vectors: %v", len(group), err)
				outMu.Lock()
				for _, idx := range group {
					out[idx] = ZeroVector(c.backend.Dimensions())
				}
				outMu.Unlock()
				return nil
			}

			outMu.Lock()
			for j, idx := range group {
				out[idx] = vectors[j]
			}
			outMu.Unlock()
			for j, idx := range group {
				c.insert(texts[idx], vectors[j])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Dimensions returns the backend dimensionality.
func (c *CachedEngine) Dimensions() int {
	return c.backend.Dimensions()
}

// Name returns the backend name with a cache marker.
func (c *CachedEngine) Name() string {
	return c.backend.Name() + "+cache"
}

// Stats returns cache hit/miss counters and current size.
func (c *CachedEngine) Stats() (hits, misses int64, size int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, len(c.cache)
}

func (c *CachedEngine) lookup(text string) ([]float32, bool) {
	c.mu.RLock()
	v, ok := c.cache[text]
	c.mu.RUnlock()

	c.mu.Lock()
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
	return v, ok
}

func (c *CachedEngine) insert(text string, v []float32) {
	// Never cache the zero vector: it is a failure marker, not a value.
	if IsZero(v) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cache) >= c.maxEntries {
		// Evict one arbitrary entry. Random-ish eviction is fine for a
		// workload dominated by unique snippets.
		for k := range c.cache {
			delete(c.cache, k)
			break
		}
	}
	c.cache[text] = v
}

var _ Engine = (*CachedEngine)(nil)
