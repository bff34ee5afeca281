package services

import (
	"context"
	"sort"
	"strings"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
)

// mockLoader returns canned raw documents.
type mockLoader struct {
	docs []domain.RawDocument
	err  error
}

func (m *mockLoader) Load(ctx context.Context, path string) ([]domain.RawDocument, error) {
	return m.docs, m.err
}

func (m *mockLoader) LoadAll(ctx context.Context, dir string) ([]domain.RawDocument, error) {
	return m.docs, m.err
}

func (m *mockLoader) Supported(ext string) bool { return true }

// mockChunker splits each document on a fixed separator.
type mockChunker struct {
	chunks []domain.Chunk
}

func (m *mockChunker) ChunkAll(docs []domain.RawDocument) []domain.Chunk {
	return m.chunks
}

// mockEmbedder returns fixed-size unit vectors.
type mockEmbedder struct {
	dim      int
	batchErr error
	queryErr error
	queryVec []float32
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	return make([]float32, m.dim), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	vecs := make([][]float32, len(texts))
	for i := range vecs {
		vecs[i] = make([]float32, m.dim)
	}
	return vecs, nil
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if m.queryVec != nil {
		return m.queryVec, nil
	}
	return make([]float32, m.dim), nil
}

func (m *mockEmbedder) Dimensions() int   { return m.dim }
func (m *mockEmbedder) ModelName() string { return "mock-embed" }

// mockVectorStore records upserts and deletions and serves canned
// search results.
type mockVectorStore struct {
	upserts       []domain.EmbeddedBatch
	upsertErr     error
	searchResults []domain.SearchResult
	searchErr     error
	deleted       []string // "key=value" per DeleteWhere call
	deleteCount   int
	resetCalled   bool
}

func (m *mockVectorStore) Upsert(ctx context.Context, batch domain.EmbeddedBatch) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts = append(m.upserts, batch)
	return nil
}

func (m *mockVectorStore) Search(ctx context.Context, query []float32, topK int) ([]domain.SearchResult, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	results := m.searchResults
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (m *mockVectorStore) Stats(ctx context.Context) (domain.CollectionStats, error) {
	count := 0
	for _, b := range m.upserts {
		count += b.Len()
	}
	return domain.CollectionStats{Count: count, Name: "documents", Path: "/tmp/vectors.db"}, nil
}

func (m *mockVectorStore) GetAll(ctx context.Context) (domain.CollectionDump, error) {
	return domain.CollectionDump{}, nil
}

func (m *mockVectorStore) UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error {
	return nil
}

func (m *mockVectorStore) DeleteWhere(ctx context.Context, key string, value string) (int, error) {
	m.deleted = append(m.deleted, key+"="+value)
	return m.deleteCount, nil
}

func (m *mockVectorStore) Reset(ctx context.Context) error {
	m.resetCalled = true
	return nil
}

func (m *mockVectorStore) Close() error { return nil }

// mockDocStore is an in-memory DocumentStore.
type mockDocStore struct {
	recs    map[string]*domain.DocumentRecord
	saveErr error
}

func newMockDocStore() *mockDocStore {
	return &mockDocStore{recs: make(map[string]*domain.DocumentRecord)}
}

func (m *mockDocStore) SaveDocument(ctx context.Context, rec *domain.DocumentRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *rec
	m.recs[rec.ID] = &cp
	return nil
}

func (m *mockDocStore) GetDocument(ctx context.Context, id string) (*domain.DocumentRecord, error) {
	rec, ok := m.recs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *mockDocStore) ListDocuments(ctx context.Context) ([]domain.DocumentRecord, error) {
	var recs []domain.DocumentRecord
	for _, rec := range m.recs {
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].UploadDate.After(recs[j].UploadDate)
	})
	return recs, nil
}

func (m *mockDocStore) DeleteDocument(ctx context.Context, id string) error {
	if _, ok := m.recs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.recs, id)
	return nil
}

func (m *mockDocStore) FindByFileName(ctx context.Context, name string) (*domain.DocumentRecord, error) {
	for _, rec := range m.recs {
		if strings.EqualFold(rec.FileName, name) {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocStore) FindByFileStem(ctx context.Context, stem string) (*domain.DocumentRecord, error) {
	for _, rec := range m.recs {
		if strings.Contains(strings.ToLower(rec.FileName), strings.ToLower(stem)) {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// mockQueryStore is an in-memory QueryStore.
type mockQueryStore struct {
	recs    []domain.QueryRecord
	links   map[string][]string
	saveErr error
}

func newMockQueryStore() *mockQueryStore {
	return &mockQueryStore{links: make(map[string][]string)}
}

func (m *mockQueryStore) SaveQuery(ctx context.Context, rec *domain.QueryRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.recs = append(m.recs, *rec)
	return nil
}

func (m *mockQueryStore) LinkDocuments(ctx context.Context, queryID string, documentIDs []string) error {
	m.links[queryID] = append(m.links[queryID], documentIDs...)
	return nil
}

func (m *mockQueryStore) ListQueries(ctx context.Context) ([]domain.QueryRecord, error) {
	out := make([]domain.QueryRecord, len(m.recs))
	copy(out, m.recs)
	for i := range out {
		out[i].DocumentIDs = m.links[out[i].ID]
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *mockQueryStore) ClearQueries(ctx context.Context) error {
	m.recs = nil
	m.links = make(map[string][]string)
	return nil
}

// mockLLM returns a canned response and records the prompt it saw.
type mockLLM struct {
	response string
	err      error
	prompt   string
	opts     driven.GenerateOptions
	calls    int
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.calls++
	m.prompt = prompt
	m.opts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
