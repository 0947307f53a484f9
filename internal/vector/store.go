// Package vector implements the in-process vector store backing semantic
// dedup, RAG score adjustment, and similarity search. Collections live in
// memory and are rebuilt from sqlite on demand; there is no ANN index, a
// linear scan over a few thousand vectors is fast enough and exact.
package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/embedding"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
)

// Collection names known to the store.
const (
	CollectionResults   = "results"
	CollectionFailures  = "failures"
	CollectionQueries   = "queries"
	CollectionDocuments = "documents"
)

// Match is one ranked answer from Query.
type Match struct {
	ID         string
	Distance   float64
	Similarity float64
	Metadata   map[string]string
	Text       string
}

type entry struct {
	id       string
	vector   []float32
	metadata map[string]string
	text     string
}

// Collection is a named set of vectors with equality-filterable metadata.
type Collection struct {
	name string
	dim  int

	mu      sync.RWMutex
	entries []entry
	byID    map[string]int
}

// Store owns the process's collections.
type Store struct {
	dim int

	mu          sync.Mutex
	collections map[string]*Collection
}

var (
	instance *Store
	once     sync.Once
)

// Shared returns the process-wide store, creating it on first use with the
// given dimensionality. Later calls ignore dim.
func Shared(dim int) *Store {
	once.Do(func() {
		instance = NewStore(dim)
	})
	return instance
}

// NewStore creates an empty store for vectors of the given dimension.
func NewStore(dim int) *Store {
	return &Store{
		dim:         dim,
		collections: make(map[string]*Collection),
	}
}

// Collection returns the named collection, creating it if needed.
func (s *Store) Collection(name string) *Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[name]; ok {
		return c
	}
	c := &Collection{
		name: name,
		dim:  s.dim,
		byID: make(map[string]int),
	}
	s.collections[name] = c
	logging.Vector("Created collection %q (dim=%d)", name, s.dim)
	return c
}

// Reset drops every collection. Used by reindexing before a rebuild.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = make(map[string]*Collection)
	logging.Vector("Store reset")
}

// Dimensions returns the vector dimensionality the store expects.
func (s *Store) Dimensions() int {
	return s.dim
}

// Counts returns entry counts per collection.
func (s *Store) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.collections))
	for name, c := range s.collections {
		out[name] = c.Count()
	}
	return out
}

// Add upserts parallel slices of ids, vectors, metadata, and texts. Zero
// vectors are skipped: they mark embedding failures and would pollute
// nearest-neighbour answers with false matches.
func (c *Collection) Add(ids []string, vectors [][]float32, metadatas []map[string]string, texts []string) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("vector: ids/vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	if metadatas != nil && len(metadatas) != len(ids) {
		return fmt.Errorf("vector: ids/metadatas length mismatch: %d != %d", len(ids), len(metadatas))
	}
	if texts != nil && len(texts) != len(ids) {
		return fmt.Errorf("vector: ids/texts length mismatch: %d != %d", len(ids), len(texts))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	skipped := 0
	for i, id := range ids {
		v := vectors[i]
		if len(v) != c.dim {
			return fmt.Errorf("vector: %q has dimension %d, collection %q expects %d", id, len(v), c.name, c.dim)
		}
		if embedding.IsZero(v) {
			skipped++
			continue
		}

		e := entry{id: id, vector: v}
		if metadatas != nil {
			e.metadata = metadatas[i]
		}
		if texts != nil {
			e.text = texts[i]
		}

		if idx, ok := c.byID[id]; ok {
			c.entries[idx] = e
		} else {
			c.byID[id] = len(c.entries)
			c.entries = append(c.entries, e)
		}
	}

	if skipped > 0 {
		logging.VectorDebug("Collection %q skipped %d zero vectors on add", c.name, skipped)
	}
	return nil
}

// Delete removes ids from the collection. Unknown ids are ignored.
func (c *Collection) Delete(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		idx, ok := c.byID[id]
		if !ok {
			continue
		}
		last := len(c.entries) - 1
		if idx != last {
			c.entries[idx] = c.entries[last]
			c.byID[c.entries[idx].id] = idx
		}
		c.entries = c.entries[:last]
		delete(c.byID, id)
	}
}

// Count returns the number of entries.
func (c *Collection) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Get returns the stored text and metadata for id.
func (c *Collection) Get(id string) (text string, metadata map[string]string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byID[id]
	if !ok {
		return "", nil, false
	}
	e := c.entries[idx]
	return e.text, e.metadata, true
}

// Query returns the k nearest entries to vector by Euclidean distance,
// restricted to entries whose metadata matches every key in filter. A zero
// query vector matches nothing.
func (c *Collection) Query(ctx context.Context, vector []float32, k int, filter map[string]string) ([]Match, error) {
	if len(vector) != c.dim {
		return nil, fmt.Errorf("vector: query has dimension %d, collection %q expects %d", len(vector), c.name, c.dim)
	}
	if k <= 0 {
		return nil, nil
	}
	if embedding.IsZero(vector) {
		return nil, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	matches := make([]Match, 0, k)
	for i := range c.entries {
		if i%1024 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e := &c.entries[i]
		if !metadataMatches(e.metadata, filter) {
			continue
		}
		d, err := embedding.EuclideanDistance(vector, e.vector)
		if err != nil {
			return nil, err
		}
		matches = append(matches, Match{
			ID:         e.id,
			Distance:   d,
			Similarity: embedding.Similarity(d),
			Metadata:   e.metadata,
			Text:       e.text,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func metadataMatches(metadata, filter map[string]string) bool {
	for key, want := range filter {
		if metadata[key] != want {
			return false
		}
	}
	return true
}
