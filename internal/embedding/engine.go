// Package embedding provides vector embedding generation for the semantic
// layer (RAG score adjustment, semantic dedup, vector search).
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/config"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
)

// Engine generates vector embeddings for text.
type Engine interface {
	// Embed generates an embedding for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of embeddings
	Dimensions() int

	// Name returns the engine name
	Name() string
}

// NewEngine creates the configured embedding backend wrapped in the
// process-local cache. Callers of the returned engine never see an error:
// failures yield the zero vector, which the semantic layer treats as "no
// useful embedding".
func NewEngine(cfg config.RAGConfig) (Engine, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "NewEngine")
	defer timer.Stop()

	backend, err := NewGenAIEngine(cfg.GenAIAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDim)
	if err != nil {
		return nil, err
	}

	logging.Embedding("Embedding engine ready: name=%s, dimensions=%d", backend.Name(), backend.Dimensions())
	return NewCachedEngine(backend, cfg.EmbeddingCacheSize, cfg.EmbeddingBatchSize, cfg.EmbeddingParallelism), nil
}

// ZeroVector returns the all-zeros vector of the given dimension.
func ZeroVector(dim int) []float32 {
	return make([]float32, dim)
}

// IsZero reports whether v carries no signal.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// EuclideanDistance computes the L2 distance between two vectors.
func EuclideanDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Similarity maps a Euclidean distance into (0,1]: identical vectors get
// 1, and similarity decays as distance grows.
func Similarity(distance float64) float64 {
	return 1.0 / (1.0 + distance)
}
