package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Note: this is separate from VectorStore which stores and searches vectors.
// EmbeddingService generates vectors; VectorStore stores them.
//
// Implementations batch requests to respect provider rate limits, retry
// transient network failures with exponential backoff, and degrade to zero
// vectors when a batch exhausts its retries so downstream counts stay
// consistent. EmbedBatch therefore always returns exactly one vector per
// input text.
type EmbeddingService interface {
	// Embed generates a vector embedding for a single document text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. The returned
	// slice always has len(texts) entries; texts whose batch failed
	// permanently carry zero vectors.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a search query. Providers
	// that distinguish document and query input types use the query
	// type here. Falls back to a zero vector on permanent failure.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Dimensions returns the embedding vector size (e.g. 1024).
	// This is determined by the model and is also the length of
	// degraded zero vectors.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}
