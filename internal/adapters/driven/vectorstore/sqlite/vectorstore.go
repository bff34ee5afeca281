// Package sqlite provides a SQLite-backed vector store. Embeddings are
// stored as little-endian float32 blobs and searched with a brute-force
// cosine distance scan, which is adequate for collections in the tens
// of thousands of chunks.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
)

var _ driven.VectorStore = (*Store)(nil)

// upsertSubBatchSize bounds entries per transaction so one upsert never
// holds a write lock across a whole large ingest.
const upsertSubBatchSize = 100

// Store is a SQLite-backed vector collection.
type Store struct {
	db         *sql.DB
	path       string
	collection string
}

// NewStore opens (or creates) the vector database at dbPath for the
// named collection.
func NewStore(dbPath, collection string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("vector database path is required")
	}
	if collection == "" {
		collection = "documents"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening vector database: %w", err)
	}

	s := &Store{db: db, path: dbPath, collection: collection}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			id         TEXT NOT NULL,
			collection TEXT NOT NULL,
			document   TEXT NOT NULL,
			embedding  BLOB NOT NULL,
			metadata   TEXT NOT NULL DEFAULT '{}',
			PRIMARY KEY (collection, id)
		)
	`)
	if err != nil {
		return fmt.Errorf("creating entries table: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert writes the batch in sub-batches of 100 entries, one transaction
// per sub-batch. Entries with an existing id are overwritten. A failed
// sub-batch fails the call; sub-batches already committed stay written.
func (s *Store) Upsert(ctx context.Context, batch domain.EmbeddedBatch) error {
	n := batch.Len()
	if len(batch.Embeddings) != n || len(batch.Metadatas) != n || len(batch.Documents) != n {
		return fmt.Errorf("%w: embedded batch slices have unequal lengths", domain.ErrInvalidInput)
	}
	if n == 0 {
		return nil
	}

	for start := 0; start < n; start += upsertSubBatchSize {
		end := start + upsertSubBatchSize
		if end > n {
			end = n
		}
		if err := s.upsertSubBatch(ctx, batch, start, end); err != nil {
			return fmt.Errorf("upserting entries %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func (s *Store) upsertSubBatch(ctx context.Context, batch domain.EmbeddedBatch, start, end int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (id, collection, document, embedding, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			document = excluded.document,
			embedding = excluded.embedding,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := start; i < end; i++ {
		metadataJSON, err := json.Marshal(batch.Metadatas[i])
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}
		blob := float32SliceToBytes(batch.Embeddings[i])

		if _, err := stmt.ExecContext(ctx, batch.IDs[i], s.collection,
			batch.Documents[i], blob, string(metadataJSON)); err != nil {
			return fmt.Errorf("saving entry %s: %w", batch.IDs[i], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Search scans the collection and returns the topK entries nearest to
// the query vector by cosine distance, ascending.
func (s *Store) Search(ctx context.Context, query []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", domain.ErrInvalidInput)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT document, embedding, metadata FROM entries WHERE collection = ?
	`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var document, metadataJSON string
		var blob []byte
		if err := rows.Scan(&document, &blob, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}

		var metadata map[string]any
		if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}

		results = append(results, domain.SearchResult{
			Document: document,
			Metadata: metadata,
			Distance: cosineDistance(query, bytesToFloat32Slice(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Stats returns the entry count, collection name and database path.
func (s *Store) Stats(ctx context.Context) (domain.CollectionStats, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE collection = ?`, s.collection)
	if err := row.Scan(&count); err != nil {
		return domain.CollectionStats{}, fmt.Errorf("counting entries: %w", err)
	}
	return domain.CollectionStats{Count: count, Name: s.collection, Path: s.path}, nil
}

// GetAll exports the full collection in insertion order.
func (s *Store) GetAll(ctx context.Context) (domain.CollectionDump, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document, embedding, metadata FROM entries
		WHERE collection = ? ORDER BY rowid
	`, s.collection)
	if err != nil {
		return domain.CollectionDump{}, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var dump domain.CollectionDump
	for rows.Next() {
		var id, document, metadataJSON string
		var blob []byte
		if err := rows.Scan(&id, &document, &blob, &metadataJSON); err != nil {
			return domain.CollectionDump{}, fmt.Errorf("scanning entry: %w", err)
		}

		var metadata map[string]any
		if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
			return domain.CollectionDump{}, fmt.Errorf("unmarshalling metadata: %w", err)
		}

		dump.IDs = append(dump.IDs, id)
		dump.Documents = append(dump.Documents, document)
		dump.Metadatas = append(dump.Metadatas, metadata)
		dump.Embeddings = append(dump.Embeddings, bytesToFloat32Slice(blob))
	}
	if err := rows.Err(); err != nil {
		return domain.CollectionDump{}, fmt.Errorf("iterating entries: %w", err)
	}
	return dump, nil
}

// UpdateMetadata shallow-merges the given keys over the entry's stored
// metadata. The read and write happen in one transaction.
func (s *Store) UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var currentJSON string
	row := tx.QueryRowContext(ctx, `
		SELECT metadata FROM entries WHERE collection = ? AND id = ?
	`, s.collection, id)
	if err := row.Scan(&currentJSON); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: entry %s", domain.ErrNotFound, id)
		}
		return fmt.Errorf("reading metadata: %w", err)
	}

	var current map[string]any
	if err := json.Unmarshal([]byte(currentJSON), &current); err != nil {
		return fmt.Errorf("unmarshalling metadata: %w", err)
	}
	if current == nil {
		current = make(map[string]any, len(metadata))
	}
	for k, v := range metadata {
		current[k] = v
	}

	mergedJSON, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE entries SET metadata = ? WHERE collection = ? AND id = ?
	`, string(mergedJSON), s.collection, id); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteWhere removes entries whose metadata key equals the given value
// and reports how many were removed.
func (s *Store) DeleteWhere(ctx context.Context, key string, value string) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM entries
		WHERE collection = ? AND json_extract(metadata, '$.' || ?) = ?
	`, s.collection, key, value)
	if err != nil {
		return 0, fmt.Errorf("deleting entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted entries: %w", err)
	}
	return int(n), nil
}

// Reset deletes all entries in the collection.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE collection = ?`, s.collection); err != nil {
		return fmt.Errorf("resetting collection: %w", err)
	}
	return nil
}

// cosineDistance is 1 minus the cosine similarity of a and b. A zero or
// mismatched vector has no meaningful angle, so it gets the neutral
// distance 1: behind every positively correlated match, though still
// ahead of anti-correlated ones (distance up to 2).
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// float32SliceToBytes converts a []float32 to a little-endian byte slice
// for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
