package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/prompts"
)

func searchResults() []domain.SearchResult {
	return []domain.SearchResult{
		{
			Document: "The project shipped in March.",
			Metadata: map[string]any{"filename": "report.pdf", "page_num": float64(3), "chunk_index": float64(0)},
			Distance: 0.12,
		},
		{
			Document: "Budget overruns were minor.",
			Metadata: map[string]any{"filename": "report.pdf", "page_num": float64(7), "chunk_index": float64(4)},
			Distance: 0.31,
		},
	}
}

type queryFixture struct {
	svc     *QueryService
	vectors *mockVectorStore
	docs    *mockDocStore
	queries *mockQueryStore
	llm     *mockLLM
}

func newQueryFixture(t *testing.T, results []domain.SearchResult) *queryFixture {
	t.Helper()
	f := &queryFixture{
		vectors: &mockVectorStore{searchResults: results},
		docs:    newMockDocStore(),
		queries: newMockQueryStore(),
		llm:     &mockLLM{response: "The project shipped in March [Document 1, Page 3]."},
	}
	f.svc = NewQueryService(&mockEmbedder{dim: 4}, f.vectors, f.llm, f.docs, f.queries, 5)
	return f
}

func TestQuery(t *testing.T) {
	f := newQueryFixture(t, searchResults())
	f.docs.recs["doc-1"] = &domain.DocumentRecord{ID: "doc-1", FileName: "report.pdf", UploadDate: time.Now()}

	answer, err := f.svc.Query(context.Background(), "when did the project ship?")
	require.NoError(t, err)

	assert.Equal(t, "when did the project ship?", answer.Query)
	assert.Equal(t, "The project shipped in March [Document 1, Page 3].", answer.Response)
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, "The project shipped in March.", answer.Sources[0].Content)

	// The prompt carries a numbered citation header per source.
	assert.Contains(t, f.llm.prompt, "Document 1 (Source: report.pdf, Page 3, Chunk 0, Relevance: 0.88)")
	assert.Contains(t, f.llm.prompt, "when did the project ship?")
	assert.Equal(t, 1024, f.llm.opts.MaxTokens)
	assert.InDelta(t, 0.7, f.llm.opts.Temperature, 1e-9)
	assert.InDelta(t, 0.95, f.llm.opts.TopP, 1e-9)

	// Exchange recorded and linked to the matching document record.
	history, err := f.svc.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "when did the project ship?", history[0].QueryText)
	assert.Equal(t, []string{"doc-1"}, history[0].DocumentIDs)
}

func TestQueryEmptyCollectionSkipsGeneration(t *testing.T) {
	f := newQueryFixture(t, nil)

	answer, err := f.svc.Query(context.Background(), "anything?")
	require.NoError(t, err)

	assert.Equal(t, prompts.NoAnswer, answer.Response)
	assert.Empty(t, answer.Sources)
	assert.Equal(t, 0, f.llm.calls)

	// The exchange is still recorded.
	history, err := f.svc.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Empty(t, history[0].DocumentIDs)
}

func TestQueryRejectsEmptyQuery(t *testing.T) {
	f := newQueryFixture(t, nil)

	_, err := f.svc.Query(context.Background(), "   ")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestQueryLLMFailure(t *testing.T) {
	f := newQueryFixture(t, searchResults())
	f.llm.err = errors.New("quota exceeded")

	_, err := f.svc.Query(context.Background(), "question?")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLLMUnavailable))

	// A failed generation is not recorded.
	history, err := f.svc.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestQueryEmbedderFailure(t *testing.T) {
	f := newQueryFixture(t, searchResults())
	f.svc = NewQueryService(&mockEmbedder{dim: 4, queryErr: errors.New("down")}, f.vectors, f.llm, f.docs, f.queries, 5)

	_, err := f.svc.Query(context.Background(), "question?")
	assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
}

func TestQueryTruncatesLongSources(t *testing.T) {
	long := strings.Repeat("a", 450)
	f := newQueryFixture(t, []domain.SearchResult{
		{Document: long, Metadata: map[string]any{"filename": "big.txt"}, Distance: 0.2},
	})

	answer, err := f.svc.Query(context.Background(), "question?")
	require.NoError(t, err)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, strings.Repeat("a", 200)+"...", answer.Sources[0].Content)
	// The prompt still carries the full chunk text.
	assert.Contains(t, f.llm.prompt, long)
}

func TestQueryTruncatesSourcesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("héllö", 90) // 450 runes, 630 bytes
	f := newQueryFixture(t, []domain.SearchResult{
		{Document: long, Metadata: map[string]any{"filename": "big.txt"}, Distance: 0.2},
	})

	answer, err := f.svc.Query(context.Background(), "question?")
	require.NoError(t, err)
	require.Len(t, answer.Sources, 1)

	got := answer.Sources[0].Content
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("héllö", 40)+"...", got)
}

func TestQueryLinksFallBackToSourceStem(t *testing.T) {
	f := newQueryFixture(t, []domain.SearchResult{
		{
			Document: "content",
			// No filename key; only a source path whose exact base name
			// is not registered.
			Metadata: map[string]any{"source": "/data/uploads/Annual-Report-2026_v2.pdf"},
			Distance: 0.1,
		},
	})
	f.docs.recs["doc-9"] = &domain.DocumentRecord{
		ID: "doc-9", FileName: "annual-report-2026_v2.PDF", UploadDate: time.Now(),
	}

	_, err := f.svc.Query(context.Background(), "question?")
	require.NoError(t, err)

	history, err := f.svc.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, []string{"doc-9"}, history[0].DocumentIDs)
}

func TestQueryDeduplicatesLinkedDocuments(t *testing.T) {
	f := newQueryFixture(t, searchResults())
	f.docs.recs["doc-1"] = &domain.DocumentRecord{ID: "doc-1", FileName: "report.pdf", UploadDate: time.Now()}

	_, err := f.svc.Query(context.Background(), "question?")
	require.NoError(t, err)

	// Both chunks come from report.pdf; the link appears once.
	history, err := f.svc.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, []string{"doc-1"}, history[0].DocumentIDs)
}

func TestSources(t *testing.T) {
	f := newQueryFixture(t, searchResults())

	answer, err := f.svc.Sources(context.Background(), "question?")
	require.NoError(t, err)

	assert.Empty(t, answer.Response)
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, 0, f.llm.calls)

	// Sources-only retrieval leaves no history.
	history, err := f.svc.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, history)
}
