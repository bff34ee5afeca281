package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "metadata.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(id, fileName string, uploaded time.Time) *domain.DocumentRecord {
	return &domain.DocumentRecord{
		ID:         id,
		Title:      "Title for " + fileName,
		FileName:   fileName,
		FileType:   "pdf",
		UploadDate: uploaded,
		ChunkCount: 3,
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "metadata.db")

	store, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening the same database must not re-run applied migrations.
	store, err = NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestSaveAndGetDocument(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	uploaded := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := testRecord("doc-1", "report.pdf", uploaded)
	require.NoError(t, docs.SaveDocument(ctx, rec))

	got, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.ID)
	assert.Equal(t, "report.pdf", got.FileName)
	assert.Equal(t, "pdf", got.FileType)
	assert.Equal(t, 3, got.ChunkCount)
	assert.True(t, got.UploadDate.Equal(uploaded))
}

func TestGetDocumentNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.DocumentStore().GetDocument(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListDocumentsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, docs.SaveDocument(ctx, testRecord("doc-1", "first.pdf", base)))
	require.NoError(t, docs.SaveDocument(ctx, testRecord("doc-2", "second.pdf", base.Add(time.Hour))))
	require.NoError(t, docs.SaveDocument(ctx, testRecord("doc-3", "third.pdf", base.Add(2*time.Hour))))

	recs, err := docs.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "doc-3", recs[0].ID)
	assert.Equal(t, "doc-2", recs[1].ID)
	assert.Equal(t, "doc-1", recs[2].ID)
}

func TestDeleteDocument(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveDocument(ctx, testRecord("doc-1", "report.pdf", time.Now())))
	require.NoError(t, docs.DeleteDocument(ctx, "doc-1"))

	_, err := docs.GetDocument(ctx, "doc-1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = docs.DeleteDocument(ctx, "doc-1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestFindByFileName(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveDocument(ctx, testRecord("doc-1", "Annual Report.pdf", time.Now())))

	got, err := docs.FindByFileName(ctx, "annual report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.ID)

	_, err = docs.FindByFileName(ctx, "annual")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestFindByFileStem(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, docs.SaveDocument(ctx, testRecord("doc-1", "annual-report-2025.pdf", base)))
	require.NoError(t, docs.SaveDocument(ctx, testRecord("doc-2", "annual-report-2026.pdf", base.Add(time.Hour))))

	// Newest match wins.
	got, err := docs.FindByFileStem(ctx, "Annual-Report")
	require.NoError(t, err)
	assert.Equal(t, "doc-2", got.ID)

	_, err = docs.FindByFileStem(ctx, "quarterly")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSaveQueryAndLinks(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	queries := store.QueryStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveDocument(ctx, testRecord("doc-1", "report.pdf", time.Now())))
	require.NoError(t, docs.SaveDocument(ctx, testRecord("doc-2", "notes.txt", time.Now())))

	rec := &domain.QueryRecord{
		ID:           "q-1",
		QueryText:    "what is in the report?",
		ResponseText: "A summary.",
		CreatedAt:    time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, queries.SaveQuery(ctx, rec))
	require.NoError(t, queries.LinkDocuments(ctx, "q-1", []string{"doc-1", "doc-2"}))
	// Duplicate links are ignored.
	require.NoError(t, queries.LinkDocuments(ctx, "q-1", []string{"doc-1"}))

	got, err := queries.ListQueries(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "what is in the report?", got[0].QueryText)
	assert.Equal(t, []string{"doc-1", "doc-2"}, got[0].DocumentIDs)
}

func TestLinkDocumentsUnknownID(t *testing.T) {
	store := newTestStore(t)
	queries := store.QueryStore()
	ctx := context.Background()

	require.NoError(t, queries.SaveQuery(ctx, &domain.QueryRecord{
		ID: "q-1", QueryText: "q", ResponseText: "r", CreatedAt: time.Now(),
	}))
	assert.Error(t, queries.LinkDocuments(ctx, "q-1", []string{"missing-doc"}))
}

func TestListQueriesNewestFirst(t *testing.T) {
	store := newTestStore(t)
	queries := store.QueryStore()
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"q-1", "q-2", "q-3"} {
		require.NoError(t, queries.SaveQuery(ctx, &domain.QueryRecord{
			ID: id, QueryText: "q", ResponseText: "r", CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := queries.ListQueries(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "q-3", got[0].ID)
	assert.Equal(t, "q-1", got[2].ID)
}

func TestDeleteDocumentCascadesLinks(t *testing.T) {
	store := newTestStore(t)
	docs := store.DocumentStore()
	queries := store.QueryStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveDocument(ctx, testRecord("doc-1", "report.pdf", time.Now())))
	require.NoError(t, queries.SaveQuery(ctx, &domain.QueryRecord{
		ID: "q-1", QueryText: "q", ResponseText: "r", CreatedAt: time.Now(),
	}))
	require.NoError(t, queries.LinkDocuments(ctx, "q-1", []string{"doc-1"}))

	require.NoError(t, docs.DeleteDocument(ctx, "doc-1"))

	got, err := queries.ListQueries(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].DocumentIDs)
}

func TestClearQueries(t *testing.T) {
	store := newTestStore(t)
	queries := store.QueryStore()
	ctx := context.Background()

	require.NoError(t, queries.SaveQuery(ctx, &domain.QueryRecord{
		ID: "q-1", QueryText: "q", ResponseText: "r", CreatedAt: time.Now(),
	}))
	require.NoError(t, queries.ClearQueries(ctx))

	got, err := queries.ListQueries(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
