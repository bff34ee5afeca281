package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docqa-cli/internal/logger"
)

// Ensure SystemService implements the interface.
var _ driving.SystemService = (*SystemService)(nil)

// PipelineSettings is the effective chunking and retrieval configuration
// reported by Info.
type PipelineSettings struct {
	ChunkSize    int
	ChunkOverlap int
	TopKResults  int
}

// SystemService exposes collection statistics and maintenance operations.
type SystemService struct {
	vectors  driven.VectorStore
	docs     driven.DocumentStore
	queries  driven.QueryStore
	settings PipelineSettings
}

// NewSystemService creates a new system service.
func NewSystemService(
	vectors driven.VectorStore,
	docs driven.DocumentStore,
	queries driven.QueryStore,
	settings PipelineSettings,
) *SystemService {
	return &SystemService{
		vectors:  vectors,
		docs:     docs,
		queries:  queries,
		settings: settings,
	}
}

// Info returns collection state and the effective pipeline configuration.
func (s *SystemService) Info(ctx context.Context) (*domain.SystemInfo, error) {
	stats, err := s.vectors.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading collection stats: %w", err)
	}

	return &domain.SystemInfo{
		DocumentCount:    stats.Count,
		CollectionName:   stats.Name,
		PersistDirectory: stats.Path,
		ChunkSize:        s.settings.ChunkSize,
		ChunkOverlap:     s.settings.ChunkOverlap,
		TopKResults:      s.settings.TopKResults,
	}, nil
}

// Reset clears the vector collection. When clearHistory is set the
// relational log goes with it: all query records and all document
// records, since their chunks no longer exist.
func (s *SystemService) Reset(ctx context.Context, clearHistory bool) error {
	if err := s.vectors.Reset(ctx); err != nil {
		return fmt.Errorf("resetting collection: %w", err)
	}
	logger.Info("vector collection cleared")

	if !clearHistory {
		return nil
	}

	if err := s.queries.ClearQueries(ctx); err != nil {
		return fmt.Errorf("clearing query history: %w", err)
	}

	recs, err := s.docs.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("listing document records: %w", err)
	}
	for _, rec := range recs {
		if err := s.docs.DeleteDocument(ctx, rec.ID); err != nil {
			return fmt.Errorf("deleting document record %s: %w", rec.ID, err)
		}
	}
	logger.Info("history cleared")
	return nil
}
