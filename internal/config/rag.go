package config

// RAGConfig configures embeddings, the vector store, and the
// similarity-based score adjustment and dedup thresholds.
type RAGConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Similar past results above this similarity participate in the RAG
	// score adjustment.
	SimilarityThreshold float64 `yaml:"rag_similarity_threshold" json:"rag_similarity_threshold"`

	// Semantic duplicates are declared above this similarity.
	DedupThreshold float64 `yaml:"rag_dedup_threshold" json:"rag_dedup_threshold"`

	// Token-set duplicates are declared above this Jaccard overlap.
	DedupJaccardThreshold float64 `yaml:"dedup_jaccard_threshold" json:"dedup_jaccard_threshold"`

	EmbeddingDim   int    `yaml:"embedding_dim" json:"embedding_dim"`
	EmbeddingModel string `yaml:"embedding_model" json:"embedding_model"`
	GenAIAPIKey    string `yaml:"genai_api_key,omitempty" json:"genai_api_key,omitempty"`

	// Embedding cache entries kept in memory before eviction.
	EmbeddingCacheSize int `yaml:"embedding_cache_size" json:"embedding_cache_size"`

	// Batch embed group size and bounded in-group parallelism.
	EmbeddingBatchSize   int `yaml:"embedding_batch_size" json:"embedding_batch_size"`
	EmbeddingParallelism int `yaml:"embedding_parallelism" json:"embedding_parallelism"`
}

// DefaultRAGConfig returns the default RAG configuration.
func DefaultRAGConfig() RAGConfig {
	return RAGConfig{
		Enabled:               true,
		SimilarityThreshold:   0.75,
		DedupThreshold:        0.85,
		DedupJaccardThreshold: 0.80,
		EmbeddingDim:          768,
		EmbeddingModel:        "gemini-embedding-001",
		EmbeddingCacheSize:    10000,
		EmbeddingBatchSize:    32,
		EmbeddingParallelism:  4,
	}
}
