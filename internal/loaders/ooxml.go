package loaders

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// sharedStringsXML mirrors xl/sharedStrings.xml.
type sharedStringsXML struct {
	Items []struct {
		Text string `xml:"t"`
	} `xml:"si"`
}

// slideXML collects the text runs of one pptx slide. All a:t elements
// hold text regardless of nesting, so a flat collection suffices.
type slideXML struct {
	Texts []string `xml:"cSld>spTree>sp>txBody>p>r>t"`
}

// loadXLSX extracts the shared strings of a workbook as one document
// (rich variant only). Cell-level structure is not reconstructed; the
// shared string table carries the searchable text.
func loadXLSX(path string, base map[string]any) ([]domain.RawDocument, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening xlsx %s: %w", path, err)
	}
	defer reader.Close()

	raw, err := readArchiveFile(&reader.Reader, "xl/sharedStrings.xml")
	if err != nil {
		return nil, fmt.Errorf("reading xlsx %s: %w", path, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("xlsx %s has no shared strings", path)
	}

	var shared sharedStringsXML
	if err := xml.Unmarshal(raw, &shared); err != nil {
		return nil, fmt.Errorf("parsing xlsx %s: %w", path, err)
	}

	lines := make([]string, 0, len(shared.Items))
	for _, item := range shared.Items {
		if trimmed := strings.TrimSpace(item.Text); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("xlsx %s contains no text", path)
	}

	content := strings.Join(lines, "\n")
	return []domain.RawDocument{{Content: content, Metadata: domain.CopyMetadata(base)}}, nil
}

// loadPPTX extracts the text runs of every slide as one document with a
// markdown heading per slide (rich variant only).
func loadPPTX(path string, base map[string]any) ([]domain.RawDocument, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening pptx %s: %w", path, err)
	}
	defer reader.Close()

	slides := make(map[string][]byte)
	var names []string
	for _, file := range reader.File {
		if strings.HasPrefix(file.Name, "ppt/slides/slide") && strings.HasSuffix(file.Name, ".xml") {
			data, err := readArchiveFile(&reader.Reader, file.Name)
			if err != nil {
				return nil, fmt.Errorf("reading pptx %s: %w", path, err)
			}
			slides[file.Name] = data
			names = append(names, file.Name)
		}
	}
	sort.Strings(names)

	var sections []string
	for i, name := range names {
		var slide slideXML
		if err := xml.Unmarshal(slides[name], &slide); err != nil {
			continue
		}
		text := strings.TrimSpace(strings.Join(slide.Texts, "\n"))
		if text == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf("# Slide %d\n\n%s", i+1, text))
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("pptx %s contains no text", path)
	}

	content := strings.Join(sections, "\n\n")
	return []domain.RawDocument{{Content: content, Metadata: domain.CopyMetadata(base)}}, nil
}
