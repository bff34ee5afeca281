package driving

import (
	"context"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// QueryService answers natural-language queries against the indexed
// collection.
type QueryService interface {
	// Query embeds the query, retrieves the most relevant chunks,
	// generates a grounded answer and records the exchange in the
	// query history.
	Query(ctx context.Context, query string) (*domain.Answer, error)

	// Sources retrieves the ranked sources for a query without calling
	// the generator. Nothing is recorded in the history.
	Sources(ctx context.Context, query string) (*domain.Answer, error)

	// History returns past queries, newest first.
	History(ctx context.Context) ([]domain.QueryRecord, error)
}

// SystemService exposes collection statistics and maintenance operations.
type SystemService interface {
	// Info returns collection state and effective configuration.
	Info(ctx context.Context) (*domain.SystemInfo, error)

	// Reset clears the vector collection. When clearHistory is set the
	// relational log (documents + queries) is cleared as well.
	Reset(ctx context.Context, clearHistory bool) error
}
