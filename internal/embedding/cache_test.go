package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend embeds text length into the vector so tests can tell
// entries apart, and can be told to fail for specific texts.
type fakeBackend struct {
	mu         sync.Mutex
	dim        int
	embedCalls int
	batchCalls [][]string
	failFor    map[string]bool
}

func newFakeBackend(dim int) *fakeBackend {
	return &fakeBackend{dim: dim, failFor: map[string]bool{}}
}

func (f *fakeBackend) vectorFor(text string) []float32 {
	v := make([]float32, f.dim)
	v[0] = float32(len(text))
	v[1] = 1
	return v
}

func (f *fakeBackend) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedCalls++
	if f.failFor[text] {
		return nil, errors.New("backend unavailable")
	}
	return f.vectorFor(text), nil
}

func (f *fakeBackend) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls = append(f.batchCalls, append([]string(nil), texts...))
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if f.failFor[text] {
			return nil, errors.New("backend unavailable")
		}
		out[i] = f.vectorFor(text)
	}
	return out, nil
}

func (f *fakeBackend) Dimensions() int { return f.dim }
func (f *fakeBackend) Name() string    { return "fake" }

func (f *fakeBackend) batches() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batchCalls
}

func TestCacheServesRepeatEmbeds(t *testing.T) {
	backend := newFakeBackend(4)
	c := NewCachedEngine(backend, 100, 8, 2)
	ctx := context.Background()

	first, err := c.Embed(ctx, "acesso a crédito")
	require.NoError(t, err)
	second, err := c.Embed(ctx, "acesso a crédito")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.embedCalls)

	hits, misses, size := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1, size)
}

func TestCacheAbsorbsBackendFailure(t *testing.T) {
	backend := newFakeBackend(4)
	backend.failFor["ruim"] = true
	c := NewCachedEngine(backend, 100, 8, 2)
	ctx := context.Background()

	v, err := c.Embed(ctx, "ruim")
	require.NoError(t, err, "callers never see embedding errors")
	assert.True(t, IsZero(v))
	assert.Len(t, v, 4)

	// Failure markers are not cached: a later call retries the backend.
	backend.failFor["ruim"] = false
	v, err = c.Embed(ctx, "ruim")
	require.NoError(t, err)
	assert.False(t, IsZero(v))
	assert.Equal(t, 2, backend.embedCalls)
}

func TestBatchFailureIsolatedPerGroup(t *testing.T) {
	backend := newFakeBackend(4)
	backend.failFor["b"] = true
	c := NewCachedEngine(backend, 100, 1, 1)

	out, err := c.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.False(t, IsZero(out[0]))
	assert.True(t, IsZero(out[1]), "only the failed group degrades to zero vectors")
	assert.False(t, IsZero(out[2]))
}

func TestBatchServesCachedEntries(t *testing.T) {
	backend := newFakeBackend(4)
	c := NewCachedEngine(backend, 100, 8, 2)
	ctx := context.Background()

	_, err := c.Embed(ctx, "a")
	require.NoError(t, err)

	out, err := c.EmbedBatch(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, out, 2)

	batches := backend.batches()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"b"}, batches[0], "cached text must not reach the backend")
}

func TestBatchAllCachedSkipsBackend(t *testing.T) {
	backend := newFakeBackend(4)
	c := NewCachedEngine(backend, 100, 8, 2)
	ctx := context.Background()

	_, err := c.EmbedBatch(ctx, []string{"a", "b"})
	require.NoError(t, err)
	_, err = c.EmbedBatch(ctx, []string{"b", "a"})
	require.NoError(t, err)

	assert.Len(t, backend.batches(), 1)
}

func TestCacheEviction(t *testing.T) {
	backend := newFakeBackend(4)
	c := NewCachedEngine(backend, 2, 8, 2)
	ctx := context.Background()

	for _, text := range []string{"um", "dois", "três"} {
		_, err := c.Embed(ctx, text)
		require.NoError(t, err)
	}

	_, _, size := c.Stats()
	assert.Equal(t, 2, size)
}

func TestZeroVectorHelpers(t *testing.T) {
	assert.True(t, IsZero(ZeroVector(8)))
	assert.True(t, IsZero(nil))
	assert.False(t, IsZero([]float32{0, 0.5, 0}))
}

func TestSimilarityFromDistance(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity(0), 1e-9)
	assert.InDelta(t, 0.5, Similarity(1), 1e-9)
	assert.Greater(t, Similarity(0.5), Similarity(2.0))
}
