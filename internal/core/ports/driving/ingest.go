package driving

import (
	"context"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// IngestService runs the ingestion pipeline:
// load -> chunk -> embed -> index, plus document record bookkeeping.
type IngestService interface {
	// IngestFile copies the file into the documents directory, runs the
	// pipeline and persists a document record. On any pipeline failure
	// the stored copy is removed again so no orphaned file remains.
	IngestFile(ctx context.Context, path, title string) (*domain.DocumentRecord, error)

	// ListDocuments returns all document records, newest first.
	ListDocuments(ctx context.Context) ([]domain.DocumentRecord, error)

	// DeleteDocument removes a document record, its stored file and its
	// chunks in the vector collection.
	DeleteDocument(ctx context.Context, id string) error
}
