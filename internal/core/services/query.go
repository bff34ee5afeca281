package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docqa-cli/internal/logger"
	"github.com/custodia-labs/docqa-cli/internal/prompts"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// sourceDisplayLen truncates source content for display.
const sourceDisplayLen = 200

// Generation parameters for grounded answers.
const (
	generateMaxTokens   = 1024
	generateTemperature = 0.7
	generateTopP        = 0.95
)

// QueryService answers natural-language queries against the indexed
// collection and records the exchanges.
type QueryService struct {
	embedder driven.EmbeddingService
	vectors  driven.VectorStore
	llm      driven.LLMService
	docs     driven.DocumentStore
	queries  driven.QueryStore
	topK     int
}

// NewQueryService creates a new query service.
func NewQueryService(
	embedder driven.EmbeddingService,
	vectors driven.VectorStore,
	llm driven.LLMService,
	docs driven.DocumentStore,
	queries driven.QueryStore,
	topK int,
) *QueryService {
	return &QueryService{
		embedder: embedder,
		vectors:  vectors,
		llm:      llm,
		docs:     docs,
		queries:  queries,
		topK:     topK,
	}
}

// Query embeds the query, retrieves the most relevant chunks, generates
// a grounded answer and records the exchange in the query history.
func (s *QueryService) Query(ctx context.Context, query string) (*domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}

	results, err := s.retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	var response string
	if len(results) == 0 {
		// Nothing indexed or nothing relevant; skip the LLM call.
		response = prompts.NoAnswer
	} else {
		documents := make([]string, len(results))
		metadatas := make([]map[string]any, len(results))
		distances := make([]float64, len(results))
		for i, r := range results {
			documents[i] = r.Document
			metadatas[i] = r.Metadata
			distances[i] = r.Distance
		}

		prompt := prompts.Grounded(query, FormatForGeneration(documents, metadatas, distances))
		response, err = s.llm.Generate(ctx, prompt, driven.GenerateOptions{
			MaxTokens:   generateMaxTokens,
			Temperature: generateTemperature,
			TopP:        generateTopP,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
		}
	}

	s.recordQuery(ctx, query, response, results)

	return &domain.Answer{
		Query:    query,
		Response: response,
		Sources:  buildSources(results),
	}, nil
}

// Sources retrieves the ranked sources for a query without calling the
// generator. Nothing is recorded in the history.
func (s *QueryService) Sources(ctx context.Context, query string) (*domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}

	results, err := s.retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	return &domain.Answer{
		Query:   query,
		Sources: buildSources(results),
	}, nil
}

// History returns past queries, newest first.
func (s *QueryService) History(ctx context.Context) ([]domain.QueryRecord, error) {
	return s.queries.ListQueries(ctx)
}

func (s *QueryService) retrieve(ctx context.Context, query string) ([]domain.SearchResult, error) {
	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	results, err := s.vectors.Search(ctx, embedding, s.topK)
	if err != nil {
		return nil, fmt.Errorf("searching collection: %w", err)
	}
	logger.Debug("retrieved %d chunks for query", len(results))
	return results, nil
}

// recordQuery persists the exchange and links it to the document records
// the retrieved chunks came from. History bookkeeping failures are
// logged, not surfaced; the answer was already produced.
func (s *QueryService) recordQuery(ctx context.Context, query, response string, results []domain.SearchResult) {
	rec := &domain.QueryRecord{
		ID:           uuid.NewString(),
		QueryText:    query,
		ResponseText: response,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.queries.SaveQuery(ctx, rec); err != nil {
		logger.Warn("recording query history: %v", err)
		return
	}

	ids := s.resolveDocumentIDs(ctx, results)
	if len(ids) == 0 {
		return
	}
	if err := s.queries.LinkDocuments(ctx, rec.ID, ids); err != nil {
		logger.Warn("linking query history documents: %v", err)
	}
}

// resolveDocumentIDs maps retrieved chunk metadata back to document
// records: exact file name match first, then the base of the source
// path, then a stem containment match.
func (s *QueryService) resolveDocumentIDs(ctx context.Context, results []domain.SearchResult) []string {
	seen := make(map[string]bool)
	var ids []string

	add := func(rec *domain.DocumentRecord) {
		if !seen[rec.ID] {
			seen[rec.ID] = true
			ids = append(ids, rec.ID)
		}
	}

	for _, r := range results {
		fileName, _ := r.Metadata["filename"].(string)
		source, _ := r.Metadata["source"].(string)

		if fileName != "" {
			if rec, err := s.docs.FindByFileName(ctx, fileName); err == nil {
				add(rec)
				continue
			} else if !errors.Is(err, domain.ErrNotFound) {
				logger.Warn("resolving document for %s: %v", fileName, err)
				continue
			}
		}

		if source == "" {
			continue
		}
		sourceName := filepath.Base(source)
		rec, err := s.docs.FindByFileName(ctx, sourceName)
		if errors.Is(err, domain.ErrNotFound) {
			stem := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
			rec, err = s.docs.FindByFileStem(ctx, stem)
		}
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				logger.Warn("resolving document for %s: %v", sourceName, err)
			}
			continue
		}
		add(rec)
	}
	return ids
}

// buildSources converts search results into display sources with
// truncated content.
func buildSources(results []domain.SearchResult) []domain.Source {
	sources := make([]domain.Source, len(results))
	for i, r := range results {
		content := r.Document
		if runes := []rune(content); len(runes) > sourceDisplayLen {
			content = string(runes[:sourceDisplayLen]) + "..."
		}
		sources[i] = domain.Source{Content: content, Metadata: r.Metadata}
	}
	return sources
}
