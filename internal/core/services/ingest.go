package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docqa-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// Chunker splits loaded documents into retrieval units. Implemented by
// the chunker package; an interface here keeps the service mockable.
type Chunker interface {
	ChunkAll(docs []domain.RawDocument) []domain.Chunk
}

// IngestService runs the ingestion pipeline and keeps the stored file,
// the vector collection and the relational record in step.
type IngestService struct {
	loader       driven.Loader
	chunker      Chunker
	embedder     driven.EmbeddingService
	vectors      driven.VectorStore
	docs         driven.DocumentStore
	documentsDir string
}

// NewIngestService creates a new ingest service. documentsDir is where
// ingested files are copied for safekeeping.
func NewIngestService(
	loader driven.Loader,
	chunker Chunker,
	embedder driven.EmbeddingService,
	vectors driven.VectorStore,
	docs driven.DocumentStore,
	documentsDir string,
) *IngestService {
	return &IngestService{
		loader:       loader,
		chunker:      chunker,
		embedder:     embedder,
		vectors:      vectors,
		docs:         docs,
		documentsDir: documentsDir,
	}
}

// IngestFile copies the file into the documents directory and runs
// load -> chunk -> embed -> index, then persists the document record.
// On any pipeline failure the stored copy is removed again so a failed
// ingest leaves no orphaned file behind.
func (s *IngestService) IngestFile(ctx context.Context, path, title string) (*domain.DocumentRecord, error) {
	fileName := filepath.Base(path)
	if title == "" {
		title = strings.TrimSuffix(fileName, filepath.Ext(fileName))
	}

	storedPath, err := s.storeFile(path, fileName)
	if err != nil {
		return nil, fmt.Errorf("storing document: %w", err)
	}

	rec, err := s.runPipeline(ctx, storedPath, fileName, title)
	if err != nil {
		if rmErr := os.Remove(storedPath); rmErr != nil {
			logger.Error("rolling back stored file %s: %v", storedPath, rmErr)
		}
		return nil, err
	}
	return rec, nil
}

func (s *IngestService) runPipeline(ctx context.Context, storedPath, fileName, title string) (*domain.DocumentRecord, error) {
	recordID := uuid.NewString()

	logger.Section("Ingest " + fileName)
	rawDocs, err := s.loader.Load(ctx, storedPath)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	logger.Stage("loaded", len(rawDocs), "documents")

	chunks := s.chunker.ChunkAll(rawDocs)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no text content in %s", domain.ErrInvalidInput, fileName)
	}
	logger.Stage("chunked", len(chunks), "chunks")

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}
	logger.Stage("embedded", len(embeddings), "vectors")

	batch := domain.EmbeddedBatch{
		IDs:        make([]string, len(chunks)),
		Embeddings: embeddings,
		Metadatas:  make([]map[string]any, len(chunks)),
		Documents:  texts,
	}
	for i, c := range chunks {
		metadata := domain.CopyMetadata(c.Metadata)
		if metadata == nil {
			metadata = make(map[string]any, 1)
		}
		// record_id ties the chunk to its document record so deletion
		// can find it later.
		metadata["record_id"] = recordID
		batch.IDs[i] = uuid.NewString()
		batch.Metadatas[i] = metadata
	}
	if err := s.vectors.Upsert(ctx, batch); err != nil {
		// Upserts commit per sub-batch, so a failed call may have
		// written some entries already; drop whatever landed.
		s.rollbackChunks(ctx, recordID, fileName)
		return nil, fmt.Errorf("indexing chunks: %w", err)
	}
	logger.Stage("indexed", batch.Len(), "entries")

	rec := &domain.DocumentRecord{
		ID:         recordID,
		Title:      title,
		FileName:   fileName,
		FileType:   strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), "."),
		UploadDate: time.Now().UTC(),
		ChunkCount: len(chunks),
	}
	if err := s.docs.SaveDocument(ctx, rec); err != nil {
		// The chunks are already indexed; drop them again so the
		// collection does not reference a record that was never saved.
		s.rollbackChunks(ctx, recordID, fileName)
		return nil, fmt.Errorf("saving document record: %w", err)
	}
	return rec, nil
}

// rollbackChunks removes any indexed chunks for a record whose ingest
// failed partway. Best effort; a failure here is only logged.
func (s *IngestService) rollbackChunks(ctx context.Context, recordID, fileName string) {
	if _, err := s.vectors.DeleteWhere(ctx, "record_id", recordID); err != nil {
		logger.Error("rolling back indexed chunks for %s: %v", fileName, err)
	}
}

// storeFile copies the source file into the documents directory. An
// existing file with the same name is overwritten, matching re-ingest
// semantics.
func (s *IngestService) storeFile(srcPath, fileName string) (string, error) {
	if err := os.MkdirAll(s.documentsDir, 0700); err != nil {
		return "", fmt.Errorf("creating documents directory: %w", err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", domain.ErrNotFound, srcPath)
		}
		return "", err
	}
	defer src.Close()

	dstPath := filepath.Join(s.documentsDir, fileName)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dstPath)
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dstPath)
		return "", err
	}
	return dstPath, nil
}

// ListDocuments returns all document records, newest first.
func (s *IngestService) ListDocuments(ctx context.Context) ([]domain.DocumentRecord, error) {
	return s.docs.ListDocuments(ctx)
}

// DeleteDocument removes a document record, its chunks in the vector
// collection and its stored file.
func (s *IngestService) DeleteDocument(ctx context.Context, id string) error {
	rec, err := s.docs.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	n, err := s.vectors.DeleteWhere(ctx, "record_id", rec.ID)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	logger.Debug("deleted %d chunks for %s", n, rec.FileName)

	if err := s.docs.DeleteDocument(ctx, id); err != nil {
		return err
	}

	storedPath := filepath.Join(s.documentsDir, rec.FileName)
	if err := os.Remove(storedPath); err != nil && !os.IsNotExist(err) {
		logger.Warn("removing stored file %s: %v", storedPath, err)
	}
	return nil
}
