package loaders

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// loadPDFPages extracts one RawDocument per non-empty page.
// When no page yields text the whole-file extraction is used instead, so a
// PDF with unresolvable page structure still produces a single document.
func loadPDFPages(path string, base map[string]any) ([]domain.RawDocument, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	docs := make([]domain.RawDocument, 0, total)

	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single broken page must not lose the rest.
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		meta := domain.CopyMetadata(base)
		meta["page_num"] = i
		meta["total_pages"] = total
		docs = append(docs, domain.RawDocument{Content: text, Metadata: meta})
	}

	if len(docs) > 0 {
		return docs, nil
	}

	// Page structure absent or empty: fall back to whole-file text.
	text, err := wholePDFText(reader)
	if err != nil {
		return nil, fmt.Errorf("extracting text from %s: %w", path, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("pdf %s contains no extractable text", path)
	}
	return []domain.RawDocument{{Content: text, Metadata: domain.CopyMetadata(base)}}, nil
}

// loadPDFPagesMarkdown is the rich PDF conversion: per-page documents
// with a markdown page heading, matching the rich converter's output
// style for the other formats.
func loadPDFPagesMarkdown(path string, base map[string]any) ([]domain.RawDocument, error) {
	docs, err := loadPDFPages(path, base)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if page, ok := docs[i].Metadata["page_num"]; ok {
			docs[i].Content = fmt.Sprintf("# Page %v\n\n%s", page, docs[i].Content)
		}
	}
	return docs, nil
}

func wholePDFText(reader *pdf.Reader) (string, error) {
	r, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", err
	}
	return buf.String(), nil
}
