package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionAddAndQuery(t *testing.T) {
	s := NewStore(3)
	col := s.Collection(CollectionResults)

	err := col.Add(
		[]string{"a", "b", "c"},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0.9, 0.1, 0},
		},
		[]map[string]string{
			{"failure_id": "1"},
			{"failure_id": "2"},
			{"failure_id": "1"},
		},
		[]string{"alpha", "beta", "gamma"},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, col.Count())

	matches, err := col.Query(context.Background(), []float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID, "exact vector is nearest")
	assert.Equal(t, "c", matches[1].ID)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-9)
	assert.Greater(t, matches[0].Similarity, matches[1].Similarity)
}

func TestCollectionMetadataFilter(t *testing.T) {
	s := NewStore(3)
	col := s.Collection(CollectionResults)

	require.NoError(t, col.Add(
		[]string{"a", "b"},
		[][]float32{{1, 0, 0}, {1, 0, 0.01}},
		[]map[string]string{{"failure_id": "1"}, {"failure_id": "2"}},
		nil,
	))

	matches, err := col.Query(context.Background(), []float32{1, 0, 0}, 5, map[string]string{"failure_id": "2"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "b", matches[0].ID)
}

func TestCollectionSkipsZeroVectors(t *testing.T) {
	s := NewStore(3)
	col := s.Collection(CollectionResults)

	require.NoError(t, col.Add(
		[]string{"zero", "real"},
		[][]float32{{0, 0, 0}, {1, 2, 3}},
		nil, nil,
	))
	assert.Equal(t, 1, col.Count(), "zero vectors are failure markers and must not be indexed")
}

func TestCollectionZeroQueryMatchesNothing(t *testing.T) {
	s := NewStore(3)
	col := s.Collection(CollectionResults)
	require.NoError(t, col.Add([]string{"a"}, [][]float32{{1, 0, 0}}, nil, nil))

	matches, err := col.Query(context.Background(), []float32{0, 0, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCollectionUpsert(t *testing.T) {
	s := NewStore(2)
	col := s.Collection(CollectionResults)

	require.NoError(t, col.Add([]string{"a"}, [][]float32{{1, 0}}, nil, []string{"old"}))
	require.NoError(t, col.Add([]string{"a"}, [][]float32{{0, 1}}, nil, []string{"new"}))

	assert.Equal(t, 1, col.Count())
	text, _, ok := col.Get("a")
	require.True(t, ok)
	assert.Equal(t, "new", text)
}

func TestCollectionDelete(t *testing.T) {
	s := NewStore(2)
	col := s.Collection(CollectionResults)

	require.NoError(t, col.Add([]string{"a", "b"}, [][]float32{{1, 0}, {0, 1}}, nil, nil))
	col.Delete([]string{"a", "missing"})

	assert.Equal(t, 1, col.Count())
	_, _, ok := col.Get("a")
	assert.False(t, ok)
	_, _, ok = col.Get("b")
	assert.True(t, ok)
}

func TestCollectionDimensionMismatch(t *testing.T) {
	s := NewStore(3)
	col := s.Collection(CollectionResults)

	err := col.Add([]string{"a"}, [][]float32{{1, 0}}, nil, nil)
	assert.Error(t, err)

	_, err = col.Query(context.Background(), []float32{1, 0}, 1, nil)
	assert.Error(t, err)
}

func TestStoreResetAndCounts(t *testing.T) {
	s := NewStore(2)
	require.NoError(t, s.Collection(CollectionResults).Add([]string{"a"}, [][]float32{{1, 0}}, nil, nil))
	require.NoError(t, s.Collection(CollectionFailures).Add([]string{"f"}, [][]float32{{0, 1}}, nil, nil))

	counts := s.Counts()
	assert.Equal(t, 1, counts[CollectionResults])
	assert.Equal(t, 1, counts[CollectionFailures])

	s.Reset()
	assert.Empty(t, s.Counts())
	assert.Equal(t, 0, s.Collection(CollectionResults).Count())
}
