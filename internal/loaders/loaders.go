package loaders

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/logger"
)

// Loader variant names, selected by configuration.
const (
	VariantBaseline = "baseline"
	VariantRich     = "rich"
)

// Ensure both variants implement the port.
var (
	_ driven.Loader = (*Baseline)(nil)
	_ driven.Loader = (*Rich)(nil)
)

// New returns the loader for the configured variant.
func New(variant string) (driven.Loader, error) {
	switch variant {
	case VariantBaseline:
		return NewBaseline(), nil
	case VariantRich:
		return NewRich(), nil
	default:
		return nil, fmt.Errorf("%w: loader variant %q", domain.ErrInvalidInput, variant)
	}
}

// Baseline extracts plain text from pdf, txt and docx/doc files.
type Baseline struct{}

// NewBaseline creates the baseline loader.
func NewBaseline() *Baseline {
	return &Baseline{}
}

// Supported reports whether the extension is in the baseline set.
func (l *Baseline) Supported(ext string) bool {
	switch normaliseExt(ext) {
	case "pdf", "txt", "docx", "doc":
		return true
	}
	return false
}

// Load converts one file with the baseline extractor for its format.
func (l *Baseline) Load(ctx context.Context, path string) ([]domain.RawDocument, error) {
	ext, base, err := classify(path, l)
	if err != nil {
		return nil, err
	}

	switch ext {
	case "pdf":
		return loadPDFPages(path, base)
	case "txt":
		return loadText(path, base)
	case "docx", "doc":
		return loadDocx(path, base, false)
	}
	// classify already rejected everything else
	return nil, fmt.Errorf("%w: .%s", domain.ErrUnsupportedType, ext)
}

// LoadAll converts every supported file under dir.
func (l *Baseline) LoadAll(ctx context.Context, dir string) ([]domain.RawDocument, error) {
	return loadAll(ctx, dir, l)
}

// Rich converts with markdown-flavoured extractors and supports the
// extended format set. Conversion failures for formats with a baseline
// fallback are retried through the Baseline loader.
type Rich struct {
	base *Baseline
}

// NewRich creates the rich loader.
func NewRich() *Rich {
	return &Rich{base: NewBaseline()}
}

// Supported reports whether the extension is in the extended set.
func (l *Rich) Supported(ext string) bool {
	if l.base.Supported(ext) {
		return true
	}
	switch normaliseExt(ext) {
	case "xlsx", "pptx", "html":
		return true
	}
	return false
}

// Load converts one file with the rich extractor, falling back to the
// baseline extractor when the rich conversion fails and the format has a
// fallback path. A fallback failure propagates as the load error.
func (l *Rich) Load(ctx context.Context, path string) ([]domain.RawDocument, error) {
	ext, base, err := classify(path, l)
	if err != nil {
		return nil, err
	}

	docs, richErr := l.convert(ext, path, base)
	if richErr == nil {
		return docs, nil
	}

	// Format-specific fallback: pdf, docx/doc and txt degrade to the
	// baseline extraction; the extended formats have no fallback.
	switch ext {
	case "pdf", "txt", "docx", "doc":
		logger.Warn("rich conversion of %s failed (%v), using baseline fallback", path, richErr)
		fallback, err := l.base.Load(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("baseline fallback for %s: %w", path, err)
		}
		return fallback, nil
	}
	return nil, fmt.Errorf("converting %s: %w", path, richErr)
}

// LoadAll converts every supported file under dir.
func (l *Rich) LoadAll(ctx context.Context, dir string) ([]domain.RawDocument, error) {
	return loadAll(ctx, dir, l)
}

func (l *Rich) convert(ext, path string, base map[string]any) ([]domain.RawDocument, error) {
	switch ext {
	case "pdf":
		return loadPDFPagesMarkdown(path, base)
	case "txt":
		return loadText(path, base)
	case "docx", "doc":
		return loadDocx(path, base, true)
	case "html":
		return loadHTML(path, base)
	case "xlsx":
		return loadXLSX(path, base)
	case "pptx":
		return loadPPTX(path, base)
	}
	return nil, fmt.Errorf("%w: .%s", domain.ErrUnsupportedType, ext)
}

// classify validates the path and returns its normalised extension plus
// the base metadata every RawDocument from this file starts from.
func classify(path string, l driven.Loader) (string, map[string]any, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return "", nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}

	ext := normaliseExt(filepath.Ext(path))
	if !l.Supported(ext) {
		return "", nil, fmt.Errorf("%w: .%s", domain.ErrUnsupportedType, ext)
	}

	return ext, baseMetadata(path, ext), nil
}

// baseMetadata builds the metadata shared by every unit of one file.
func baseMetadata(path, ext string) map[string]any {
	return map[string]any{
		"source":    path,
		"filename":  filepath.Base(path),
		"file_type": ext,
	}
}

// loadAll walks dir and converts every supported file. Unsupported
// extensions are skipped silently; a file that fails to convert is
// logged and skipped so one bad file never aborts the batch.
func loadAll(ctx context.Context, dir string, l driven.Loader) ([]domain.RawDocument, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, dir)
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	var docs []domain.RawDocument
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !l.Supported(filepath.Ext(path)) {
			return nil
		}

		loaded, err := l.Load(ctx, path)
		if err != nil {
			logger.Error("loading %s: %v", path, err)
			return nil
		}
		docs = append(docs, loaded...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}

	return docs, nil
}

func normaliseExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
