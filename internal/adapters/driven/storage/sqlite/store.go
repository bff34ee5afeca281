package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docqa-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
)

// Store is a SQLite-based metadata store that provides access to the
// document and query store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the given database path.
// If dbPath is empty, defaults to ~/.docqa/metadata.db.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".docqa", "metadata.db")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// QueryStore returns a QueryStore interface backed by this store.
func (s *Store) QueryStore() driven.QueryStore {
	return &queryStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document record.
func (s *documentStore) SaveDocument(ctx context.Context, rec *domain.DocumentRecord) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, file_name, file_type, upload_date, chunk_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			file_name = excluded.file_name,
			file_type = excluded.file_type,
			upload_date = excluded.upload_date,
			chunk_count = excluded.chunk_count
	`, rec.ID, rec.Title, rec.FileName, rec.FileType, rec.UploadDate, rec.ChunkCount)
	if err != nil {
		return fmt.Errorf("saving document record: %w", err)
	}
	return nil
}

// GetDocument retrieves a record by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.DocumentRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, title, file_name, file_type, upload_date, chunk_count
		FROM documents WHERE id = ?
	`, id)
	return scanDocumentRecord(row)
}

// ListDocuments returns all records, newest upload first.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.DocumentRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, title, file_name, file_type, upload_date, chunk_count
		FROM documents ORDER BY upload_date DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying document records: %w", err)
	}
	defer rows.Close()

	var recs []domain.DocumentRecord
	for rows.Next() {
		var rec domain.DocumentRecord
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.FileName, &rec.FileType,
			&rec.UploadDate, &rec.ChunkCount); err != nil {
			return nil, fmt.Errorf("scanning document record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document records: %w", err)
	}
	return recs, nil
}

// DeleteDocument removes a record; its query links go with it via the
// ON DELETE CASCADE constraint.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("counting deleted records: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	return nil
}

// FindByFileName returns the record whose file name matches exactly,
// case-insensitively.
func (s *documentStore) FindByFileName(ctx context.Context, name string) (*domain.DocumentRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, title, file_name, file_type, upload_date, chunk_count
		FROM documents WHERE file_name = ? COLLATE NOCASE
		ORDER BY upload_date DESC LIMIT 1
	`, name)
	return scanDocumentRecord(row)
}

// FindByFileStem returns the newest record whose file name contains the
// stem, case-insensitively.
func (s *documentStore) FindByFileStem(ctx context.Context, stem string) (*domain.DocumentRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, title, file_name, file_type, upload_date, chunk_count
		FROM documents WHERE file_name LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY upload_date DESC LIMIT 1
	`, stem)
	return scanDocumentRecord(row)
}

// scanDocumentRecord scans a single document record row.
func scanDocumentRecord(row *sql.Row) (*domain.DocumentRecord, error) {
	var rec domain.DocumentRecord
	if err := row.Scan(&rec.ID, &rec.Title, &rec.FileName, &rec.FileType,
		&rec.UploadDate, &rec.ChunkCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document record: %w", err)
	}
	return &rec, nil
}

// ==================== Query Store ====================

// queryStore implements driven.QueryStore.
type queryStore struct {
	store *Store
}

var _ driven.QueryStore = (*queryStore)(nil)

// SaveQuery stores a query record.
func (s *queryStore) SaveQuery(ctx context.Context, rec *domain.QueryRecord) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO queries (id, query_text, response_text, created_at)
		VALUES (?, ?, ?, ?)
	`, rec.ID, rec.QueryText, rec.ResponseText, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving query record: %w", err)
	}
	return nil
}

// LinkDocuments attaches document records to a query record. Duplicate
// links are ignored; unknown document IDs violate the foreign key and
// fail the call.
func (s *queryStore) LinkDocuments(ctx context.Context, queryID string, documentIDs []string) error {
	if len(documentIDs) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO query_documents (query_id, document_id) VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, docID := range documentIDs {
		if _, err := stmt.ExecContext(ctx, queryID, docID); err != nil {
			return fmt.Errorf("linking document %s: %w", docID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListQueries returns all query records, newest first, with linked
// document IDs populated.
func (s *queryStore) ListQueries(ctx context.Context) ([]domain.QueryRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, query_text, response_text, created_at
		FROM queries ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying query records: %w", err)
	}
	defer rows.Close()

	var recs []domain.QueryRecord
	for rows.Next() {
		var rec domain.QueryRecord
		if err := rows.Scan(&rec.ID, &rec.QueryText, &rec.ResponseText, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning query record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query records: %w", err)
	}

	for i := range recs {
		ids, err := s.linkedDocumentIDs(ctx, recs[i].ID)
		if err != nil {
			return nil, err
		}
		recs[i].DocumentIDs = ids
	}
	return recs, nil
}

func (s *queryStore) linkedDocumentIDs(ctx context.Context, queryID string) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id FROM query_documents WHERE query_id = ? ORDER BY document_id
	`, queryID)
	if err != nil {
		return nil, fmt.Errorf("querying query links: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning query link: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query links: %w", err)
	}
	return ids, nil
}

// ClearQueries removes all query records and links.
func (s *queryStore) ClearQueries(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM queries`); err != nil {
		return fmt.Errorf("clearing query records: %w", err)
	}
	return nil
}
