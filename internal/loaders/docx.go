package loaders

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// documentXML mirrors the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// loadDocx extracts paragraph text from a DOCX archive. The rich variant
// separates paragraphs with blank lines; the baseline joins them with
// single newlines.
func loadDocx(path string, base map[string]any, rich bool) ([]domain.RawDocument, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening docx %s: %w", path, err)
	}
	defer reader.Close()

	raw, err := readArchiveFile(&reader.Reader, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("reading docx %s: %w", path, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("docx %s has no word/document.xml", path)
	}

	var doc documentXML
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing docx %s: %w", path, err)
	}

	sep := "\n"
	if rich {
		sep = "\n\n"
	}

	var b strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			b.WriteString(sep)
		}
		for _, r := range para.Runs {
			for _, t := range r.Text {
				b.WriteString(t.Content)
			}
		}
	}

	content := strings.TrimSpace(b.String())
	if content == "" {
		return nil, fmt.Errorf("docx %s contains no text", path)
	}

	return []domain.RawDocument{{Content: content, Metadata: domain.CopyMetadata(base)}}, nil
}

// readArchiveFile returns the contents of name inside the archive, or nil
// when the entry is absent.
func readArchiveFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, nil
}
