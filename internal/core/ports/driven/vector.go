package driven

import (
	"context"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// VectorStore persists embedded chunks and provides nearest-neighbour
// search. The store exclusively owns its entries: content is immutable
// after upsert, metadata is mutable only through UpdateMetadata, and
// deletion happens via Reset or DeleteWhere.
type VectorStore interface {
	// Upsert writes the batch in sub-batches to bound transaction size.
	// A failed sub-batch fails the call; earlier sub-batches stay
	// written (no cross-sub-batch rollback).
	Upsert(ctx context.Context, batch domain.EmbeddedBatch) error

	// Search returns the topK nearest entries to the query vector,
	// ordered by ascending distance. Fewer than topK entries are
	// returned when the collection is smaller.
	Search(ctx context.Context, query []float32, topK int) ([]domain.SearchResult, error)

	// Stats returns entry count, collection name and storage location.
	Stats(ctx context.Context) (domain.CollectionStats, error)

	// GetAll exports the full collection.
	GetAll(ctx context.Context) (domain.CollectionDump, error)

	// UpdateMetadata shallow-merges the given keys over the entry's
	// current metadata (new keys win). The vector and text are left
	// untouched. Returns domain.ErrNotFound when the id is absent.
	UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error

	// DeleteWhere removes entries whose metadata key equals value.
	// Used to drop a document's chunks when its record is deleted.
	DeleteWhere(ctx context.Context, key string, value string) (int, error)

	// Reset deletes all entries. The collection remains queryable and
	// the call is safe when the collection is already empty.
	Reset(ctx context.Context) error

	// Close releases resources.
	Close() error
}
