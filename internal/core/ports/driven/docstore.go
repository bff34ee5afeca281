package driven

import (
	"context"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// DocumentStore persists document records for ingested files.
type DocumentStore interface {
	// SaveDocument stores a document record.
	SaveDocument(ctx context.Context, rec *domain.DocumentRecord) error

	// GetDocument retrieves a record by ID.
	// Returns domain.ErrNotFound when absent.
	GetDocument(ctx context.Context, id string) (*domain.DocumentRecord, error)

	// ListDocuments returns all records, newest upload first.
	ListDocuments(ctx context.Context) ([]domain.DocumentRecord, error)

	// DeleteDocument removes a record and its query links.
	DeleteDocument(ctx context.Context, id string) error

	// FindByFileName returns the record whose file name matches exactly
	// (case-insensitive). Returns domain.ErrNotFound when absent.
	FindByFileName(ctx context.Context, name string) (*domain.DocumentRecord, error)

	// FindByFileStem returns the first record whose file name contains
	// the given stem (case-insensitive). Returns domain.ErrNotFound
	// when nothing matches.
	FindByFileStem(ctx context.Context, stem string) (*domain.DocumentRecord, error)
}

// QueryStore persists the query/response history and its links to the
// document records whose chunks were retrieved.
type QueryStore interface {
	// SaveQuery stores a query record.
	SaveQuery(ctx context.Context, rec *domain.QueryRecord) error

	// LinkDocuments attaches document records to a query record.
	// Unknown document IDs are an error; duplicates are ignored.
	LinkDocuments(ctx context.Context, queryID string, documentIDs []string) error

	// ListQueries returns all query records, newest first, with their
	// linked document IDs populated.
	ListQueries(ctx context.Context) ([]domain.QueryRecord, error)

	// ClearQueries removes all query records and links.
	ClearQueries(ctx context.Context) error
}
