package driven

import (
	"context"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// Loader converts files on disk into normalised RawDocuments.
//
// Implementations include:
//   - Baseline: direct per-format extraction (pdf, txt, docx/doc)
//   - Rich: a richer converter that additionally handles xlsx, pptx, html
//
// Both variants share the same output contract; the active variant is
// selected by configuration.
type Loader interface {
	// Load converts one file. Paginated formats may produce several
	// RawDocuments (one per page). Returns domain.ErrNotFound when the
	// path does not exist and domain.ErrUnsupportedType for extensions
	// outside the supported set.
	Load(ctx context.Context, path string) ([]domain.RawDocument, error)

	// LoadAll converts every supported file under dir. Files with
	// unsupported extensions are skipped silently; per-file conversion
	// errors are logged and the remaining files are still processed.
	// Returns domain.ErrNotFound when dir does not exist.
	LoadAll(ctx context.Context, dir string) ([]domain.RawDocument, error)

	// Supported reports whether the loader handles the given file
	// extension (with or without leading dot, case-insensitive).
	Supported(ext string) bool
}
